package flash

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/pkg"
)

// resetSettle is the quiescent period after a software reset or a QSPI
// mode transition.
const resetSettle = 10 * time.Millisecond

// Init brings the device up: wakes it from power-down, issues a software
// reset, engages the QSPI engine when configured for it, verifies the
// silicon identity against the configured family, and normalizes 3-byte
// addressing. On any failure the transport is released and the handle
// stays uninitialized.
func (f *Flash) Init() error {
	if err := f.transport.Init(); err != nil {
		f.transport.Deinit()
		return transportErr("transport init", err)
	}

	// The device powers up in single-SPI mode; the wake and reset steps
	// run on the raw path regardless of the configured interface.
	var legacy [1]byte
	if err := f.rawFrame(legacy[:], cmdReleasePowerDown, 0xFF, 0xFF, 0xFF); err != nil {
		return f.initFailed("release power down", err)
	}
	if err := f.rawFrame(nil, cmdEnableReset); err != nil {
		return f.initFailed("enable reset", err)
	}
	if err := f.rawFrame(nil, cmdResetDevice); err != nil {
		return f.initFailed("reset device", err)
	}
	f.delay(resetSettle)

	if f.iface == InterfaceQSPI {
		if err := f.engageQSPI(); err != nil {
			return err
		}
	}

	manufacturer, device, err := f.probeID()
	if err != nil {
		return f.initFailed("probe id", err)
	}
	probed := Family(uint16(manufacturer)<<8 | uint16(device))
	if probed != f.family {
		f.transport.Deinit()
		return fmt.Errorf("probe id: want %v, got %#04x: %w", f.family, uint16(probed), pkg.ErrIDMismatch)
	}

	if f.family == W25Q256 {
		// Normalize addressing even when the chip powered up in 4-byte mode.
		if err := f.exec(opControl, cmdExit4ByteMode, 0, false, nil, nil); err != nil {
			return f.initFailed("exit 4-byte mode", err)
		}
	}

	f.addrMode = AddressMode3Byte
	f.inited = true
	pkg.LogInfo(pkg.ComponentLifecycle, "device initialized",
		"family", f.family.String(), "interface", f.iface.String())
	return nil
}

// engageQSPI asserts the quad-enable bit if needed, switches the device
// into QSPI mode, and programs the read parameters register with the
// 8-cycle dummy default.
func (f *Flash) engageQSPI() error {
	var status [1]byte
	if err := f.rawFrame(status[:], cmdReadStatus2); err != nil {
		return f.initFailed("read status2", err)
	}
	if status[0]&Status2QE == 0 {
		if err := f.rawFrame(nil, cmdVolatileSRWriteEnable); err != nil {
			return f.initFailed("volatile sr write enable", err)
		}
		if err := f.rawFrame(nil, cmdWriteStatus2, status[0]|Status2QE); err != nil {
			return f.initFailed("set quad enable", err)
		}
	}
	if err := f.rawFrame(nil, cmdEnterQSPIMode); err != nil {
		return f.initFailed("enter qspi mode", err)
	}
	f.delay(resetSettle)

	// Default read parameters: 8 dummy cycles, 8-byte wrap.
	f.param = uint8(ReadDummy8Cycles80MHz)<<4 | uint8(WrapLength8Byte)
	f.dummy = ReadDummy8Cycles80MHz.Cycles()
	param := [1]byte{f.param}
	frame := hal.Frame{
		Instruction:      cmdSetReadParameters,
		InstructionLanes: hal.LanesQuad,
		Write:            param[:],
		DataLanes:        hal.LanesQuad,
	}
	if err := f.transport.WriteRead(&frame); err != nil {
		return f.initFailed("set read parameters", err)
	}
	return nil
}

// initFailed releases the transport and wraps the failing step.
func (f *Flash) initFailed(step string, err error) error {
	f.transport.Deinit()
	return fmt.Errorf("%s: %w", step, wrapTransport(err))
}

// wrapTransport tags err as a transport failure unless already classified.
func wrapTransport(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pkg.ErrTransport):
		return err
	default:
		return fmt.Errorf("%w: %w", pkg.ErrTransport, err)
	}
}

// Deinit exits QSPI mode when engaged, powers the device down, and
// releases the transport. The handle returns to the uninitialized state.
func (f *Flash) Deinit() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if f.iface == InterfaceQSPI {
		frame := hal.Frame{
			Instruction:      cmdExitQSPIMode,
			InstructionLanes: hal.LanesQuad,
		}
		if err := f.transport.WriteRead(&frame); err != nil {
			return transportErr("exit qspi mode", err)
		}
		f.delay(resetSettle)
	}
	if err := f.rawFrame(nil, cmdPowerDown); err != nil {
		return transportErr("power down", err)
	}
	if err := f.transport.Deinit(); err != nil {
		return transportErr("transport deinit", err)
	}
	f.inited = false
	pkg.LogInfo(pkg.ComponentLifecycle, "device powered down",
		"family", f.family.String())
	return nil
}

// PowerDown puts the device into its lowest-power state (0xB9). Only
// ReleasePowerDown is recognized until the device wakes.
func (f *Flash) PowerDown() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdPowerDown, 0, false, nil, nil)
}

// ReleasePowerDown wakes the device from power-down (0xAB) and discards
// the legacy id byte it clocks out.
func (f *Flash) ReleasePowerDown() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	var legacy [1]byte
	if f.iface == InterfaceQSPI {
		frame := hal.Frame{
			Instruction:      cmdReleasePowerDown,
			InstructionLanes: hal.LanesQuad,
			DummyCycles:      6,
			Read:             legacy[:],
			DataLanes:        hal.LanesQuad,
		}
		if err := f.transport.WriteRead(&frame); err != nil {
			return transportErr("release power down", err)
		}
		return nil
	}
	if err := f.rawFrame(legacy[:], cmdReleasePowerDown, 0xFF, 0xFF, 0xFF); err != nil {
		return transportErr("release power down", err)
	}
	return nil
}

// EnableReset arms a software reset (0x66). ResetDevice must follow
// immediately for the reset to take effect.
func (f *Flash) EnableReset() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdEnableReset, 0, false, nil, nil)
}

// ResetDevice executes the armed software reset (0x99). The caller should
// allow the device its reset settle time before the next command.
func (f *Flash) ResetDevice() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdResetDevice, 0, false, nil, nil)
}

// SetAddressMode switches between 24-bit and 32-bit address phases.
// 4-byte mode exists only on the W25Q256.
func (f *Flash) SetAddressMode(mode AddressMode) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if mode == AddressMode4Byte && f.family != W25Q256 {
		return fmt.Errorf("set address mode: %v on %v: %w",
			mode, f.family, pkg.ErrInvalidAddressMode)
	}
	opcode := uint8(cmdExit4ByteMode)
	if mode == AddressMode4Byte {
		opcode = cmdEnter4ByteMode
	}
	if err := f.exec(opControl, opcode, 0, false, nil, nil); err != nil {
		return err
	}
	f.addrMode = mode
	return nil
}

// SetReadParameters programs the QSPI read parameters register (0xC0):
// the fast-read dummy cycle count and the wrap window. QSPI interface
// only; the handle's dummy field tracks the new value so subsequent quad
// I/O reads match the device. The caller is responsible for choosing a
// dummy count the bus clock supports.
func (f *Flash) SetReadParameters(dummy ReadDummy, wrap WrapLength) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if _, err := f.template(opReadParameters); err != nil {
		return err
	}
	param := uint8(dummy)<<4 | uint8(wrap)
	payload := [1]byte{param}
	if err := f.exec(opReadParameters, cmdSetReadParameters, 0, false, payload[:], nil); err != nil {
		return err
	}
	f.param = param
	f.dummy = dummy.Cycles()
	return nil
}

// EnterQSPIMode switches the device's command decoder to 4-lane
// instructions (0x38). Valid only from a handle configured for SPI; a
// QSPI-configured handle enters the mode during Init.
func (f *Flash) EnterQSPIMode() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if f.iface != InterfaceSPI {
		return pkg.ErrUnsupportedInMode
	}
	if err := f.rawFrame(nil, cmdEnterQSPIMode); err != nil {
		return transportErr("enter qspi mode", err)
	}
	return nil
}

// ExitQSPIMode returns the command decoder to single-lane instructions
// (0xFF). Valid only from a handle configured for QSPI.
func (f *Flash) ExitQSPIMode() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if f.iface != InterfaceQSPI {
		return pkg.ErrUnsupportedInMode
	}
	frame := hal.Frame{
		Instruction:      cmdExitQSPIMode,
		InstructionLanes: hal.LanesQuad,
	}
	if err := f.transport.WriteRead(&frame); err != nil {
		return transportErr("exit qspi mode", err)
	}
	return nil
}
