// Package flash implements a driver for the Winbond W25Qxx family of
// serial NOR flash memories (W25Q80 through W25Q256, 1-32 MiB).
//
// It is platform-agnostic and interacts with hardware via the
// [hal.Transport] interface defined in the [github.com/ardnew/w25q/flash/hal]
// package. The transport issues one command frame per call; opcode
// selection, lane counts, address widths, dummy cycles, write sequencing,
// and busy polling all live here.
//
// # Architecture
//
// The driver is organized into several layers:
//
//   - [Flash] holds per-device state: identity, mode, and scratch buffers
//   - The mode matrix resolves each operation against the interface
//     selection (SPI or QSPI), the dual/quad authorization, and the
//     address mode, yielding a frame template or a rejection
//   - The command encoder serializes a template plus address and payload
//     into a [hal.Frame]
//   - The busy-wait monitor polls status register 1 after every program
//     and erase with per-operation deadlines
//   - [Flash.Write] composes reads, erases, and page programs into a
//     read-modify-write engine that makes arbitrary-length writes safe on
//     a device whose erase granularity (4 KiB) differs from its program
//     granularity (256 B)
//
// # Zero-Allocation Design
//
// The handle embeds a command assembly buffer and a sector staging
// buffer, so steady-state operation performs no heap allocation and the
// handle's footprint is known at compile time. Read and write payloads
// are caller-provided slices.
//
// # Concurrency
//
// The device has a single command channel and the handle is not
// internally synchronized; confine each handle to one goroutine or wrap
// it in an external mutex.
//
// # Usage
//
//	dev, err := flash.New(flash.Config{
//		Family:    flash.W25Q128,
//		Interface: flash.InterfaceSPI,
//		Transport: transport,
//	})
//	if err != nil {
//		return err
//	}
//	if err := dev.Init(); err != nil {
//		return err
//	}
//	defer dev.Deinit()
//
//	if err := dev.Write(0x1000, payload); err != nil {
//		return err
//	}
package flash
