// Package sim provides an in-memory W25Qxx device model implementing the
// [github.com/ardnew/w25q/flash/hal] Transport interface.
//
// The model decodes both frame shapes the driver emits (the legacy
// single-lane byte stream and structured multi-phase frames), keeps a
// full erased-state array image with AND-programming semantics, tracks
// the status registers, the write-enable latch, the QSPI decoder state,
// and the extended address register, and records every observed frame.
//
// Tests drive the real driver against a [Device] and assert on the
// recorded command sequences and the resulting array image:
//
//	dev := sim.New(sim.Config{Family: flash.W25Q128})
//	f, _ := flash.New(flash.Config{
//		Family:    flash.W25Q128,
//		Interface: flash.InterfaceSPI,
//		Transport: dev,
//		Delay:     func(time.Duration) {},
//	})
//	_ = f.Init()
//	_ = f.Write(0x1000, []byte{1, 2, 3})
//	ops := dev.Opcodes() // full opcode trace
//
// The model is strict: lane mismatches, missing write enables, quad
// opcodes without QE, and dummy-cycle disagreements all fail the frame,
// so protocol bugs surface as errors instead of silent corruption.
package sim
