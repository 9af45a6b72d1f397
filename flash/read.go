package flash

import (
	"fmt"

	"github.com/ardnew/w25q/pkg"
)

// Read copies len(data) bytes starting at addr into data. In SPI mode it
// issues a fast read (0x0B); in QSPI mode a quad I/O fast read (0xEB)
// with the handle's configured dummy cycles.
func (f *Flash) Read(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.readRange(addr, data)
}

// readRange is the ungated read used by Read and by the write engine's
// sector staging pass.
func (f *Flash) readRange(addr uint32, data []byte) error {
	if f.iface == InterfaceQSPI {
		return f.readOp(opFastReadQuadIO, cmdFastReadQuadIO, addr, data)
	}
	return f.readOp(opFastRead, cmdFastRead, addr, data)
}

// SlowRead reads with the plain read opcode (0x03), which is valid at any
// bus clock the device supports, unlike fast read whose dummy window
// assumes a faster clock. SPI interface only.
func (f *Flash) SlowRead(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if f.iface != InterfaceSPI {
		return pkg.ErrUnsupportedInMode
	}
	return f.readOp(opReadData, cmdReadData, addr, data)
}

// FastRead reads with the fast read opcode (0x0B): 8 dummy cycles on the
// SPI paths, the handle's configured dummy cycles in QSPI mode.
func (f *Flash) FastRead(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.readOp(opFastRead, cmdFastRead, addr, data)
}

// FastReadDualOutput reads with data on two lanes (0x3B). Requires SPI
// mode with dual/quad authorization.
func (f *Flash) FastReadDualOutput(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.readOp(opFastReadDualOutput, cmdFastReadDualOutput, addr, data)
}

// FastReadQuadOutput reads with data on four lanes (0x6B). Requires SPI
// mode with dual/quad authorization.
func (f *Flash) FastReadQuadOutput(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.readOp(opFastReadQuadOutput, cmdFastReadQuadOutput, addr, data)
}

// FastReadDualIO reads with address and data on two lanes (0xBB).
// Requires SPI mode with dual/quad authorization.
func (f *Flash) FastReadDualIO(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.readOp(opFastReadDualIO, cmdFastReadDualIO, addr, data)
}

// FastReadQuadIO reads with address and data on four lanes (0xEB),
// carrying the continuous-read mode byte. Valid in SPI mode with
// dual/quad authorization and in QSPI mode.
func (f *Flash) FastReadQuadIO(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.readOp(opFastReadQuadIO, cmdFastReadQuadIO, addr, data)
}

// WordReadQuadIO reads 16-bit aligned data with quad I/O and two dummy
// cycles (0xE7). addr must be 2-byte aligned.
func (f *Flash) WordReadQuadIO(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if addr%2 != 0 {
		return fmt.Errorf("word read quad io: %w", pkg.ErrInvalidAddress)
	}
	return f.readOp(opWordReadQuadIO, cmdWordReadQuadIO, addr, data)
}

// OctalWordReadQuadIO reads 16-byte aligned data with quad I/O and no
// dummy cycles (0xE3). addr must be 16-byte aligned.
func (f *Flash) OctalWordReadQuadIO(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if addr%16 != 0 {
		return fmt.Errorf("octal word read quad io: %w", pkg.ErrInvalidAddress)
	}
	return f.readOp(opOctalWordReadQuadIO, cmdOctalWordReadQuadIO, addr, data)
}

// readOp resolves the mode matrix before any frame is emitted, so a
// rejected combination never reaches the bus, then issues the optional
// extended-address prefix and the read itself.
func (f *Flash) readOp(op opClass, opcode uint8, addr uint32, data []byte) error {
	if _, err := f.template(op); err != nil {
		return err
	}
	if err := f.extendedAddressPrefix(addr); err != nil {
		return err
	}
	return f.exec(op, opcode, addr, true, nil, data)
}
