// Package hal defines the hardware abstraction boundary between the w25q
// driver core and the physical bus.
//
// The core expresses every device command as a [Frame]: an ordered bundle
// of instruction, address, alternate, dummy, and data phases, each with its
// own lane count. A [Transport] implementation maps frames onto a concrete
// controller (a plain SPI peripheral, a dual/quad-capable SPI block, or a
// memory-mapped QSPI engine) and owns chip-select gating and timing.
//
// Two frame shapes exist:
//
//   - Structured frames populate the per-phase fields. QSPI controllers
//     consume these directly.
//   - Raw frames (see [Frame.Raw]) carry the opcode, address bytes, dummy
//     bytes, and payload pre-packed into the Write slice, the shape a plain
//     SPI controller shifts out verbatim. The driver uses this path for all
//     single-lane traffic in SPI mode.
//
// Sub-packages provide concrete transports:
//
//   - [github.com/ardnew/w25q/flash/hal/periph] - single-lane SPI via periph.io
//   - [github.com/ardnew/w25q/flash/hal/sim] - in-memory device model for tests
package hal
