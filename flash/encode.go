package flash

import (
	"fmt"

	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/pkg"
)

// alternateByte is the mode byte carried by the dual/quad I/O read
// opcodes. 0xFF keeps the device out of continuous-read mode.
const alternateByte = 0xFF

// addressWidth resolves the address byte count for a template: a fixed
// width when the template pins one, else the handle's address mode.
func (f *Flash) addressWidth(t *frameTemplate) uint8 {
	if t.addressBytes != 0 {
		return t.addressBytes
	}
	if f.addrMode == AddressMode4Byte {
		return 4
	}
	return 3
}

// encodeRaw assembles the legacy single-SPI byte stream into the command
// buffer: opcode, big-endian address, dummy bytes, payload. Returns the
// stream length.
func (f *Flash) encodeRaw(t *frameTemplate, opcode uint8, addr uint32, hasAddr bool, payload []byte) (int, error) {
	n := 0
	f.cmd[n] = opcode
	n++
	if hasAddr {
		width := int(f.addressWidth(t))
		for i := width - 1; i >= 0; i-- {
			f.cmd[n] = byte(addr >> (8 * i))
			n++
		}
	}
	// Raw-path dummy cycles are whole bytes on the wire.
	for i := 0; i < int(t.dummyCycles)/8; i++ {
		f.cmd[n] = 0x00
		n++
	}
	if len(payload) > 0 {
		if n+len(payload) > len(f.cmd) {
			return 0, pkg.ErrInvalidLength
		}
		n += copy(f.cmd[n:], payload)
	}
	return n, nil
}

// exec resolves op against the mode matrix, encodes one frame, and drives
// it through the transport. Every device operation resolved through the
// mode matrix passes through it; the lifecycle and QSPI mode transitions
// and WriteReadReg drive the transport directly.
func (f *Flash) exec(op opClass, opcode uint8, addr uint32, hasAddr bool, wbuf, rbuf []byte) error {
	t, err := f.template(op)
	if err != nil {
		return err
	}

	if t.raw {
		n, err := f.encodeRaw(t, opcode, addr, hasAddr, wbuf)
		if err != nil {
			return err
		}
		frame := hal.Frame{
			Write:     f.cmd[:n],
			Read:      rbuf,
			DataLanes: hal.LanesSingle,
		}
		if err := f.transport.WriteRead(&frame); err != nil {
			return opcodeErr(opcode, err)
		}
		return nil
	}

	frame := hal.Frame{
		Instruction:      opcode,
		InstructionLanes: t.instructionLanes,
		Write:            wbuf,
		Read:             rbuf,
	}
	if hasAddr && t.addressLanes != hal.LanesNone {
		frame.Address = addr
		frame.AddressLanes = t.addressLanes
		frame.AddressBytes = f.addressWidth(t)
	}
	if t.alternate {
		frame.Alternate = alternateByte
		frame.AlternateLanes = t.alternateLanes
		frame.AlternateBytes = 1
	}
	if t.dummyCycles == dummyFromHandle {
		frame.DummyCycles = f.dummy
	} else {
		frame.DummyCycles = t.dummyCycles
	}
	if len(wbuf) > 0 || len(rbuf) > 0 {
		frame.DataLanes = t.dataLanes
	}
	if err := f.transport.WriteRead(&frame); err != nil {
		return opcodeErr(opcode, err)
	}
	return nil
}

// rawFrame sends literal command bytes on the legacy single-SPI path,
// bypassing the mode matrix. The lifecycle sequences use it for the steps
// that run before the QSPI engine is engaged.
func (f *Flash) rawFrame(read []byte, cmd ...byte) error {
	n := copy(f.cmd[:], cmd)
	frame := hal.Frame{
		Write:     f.cmd[:n],
		Read:      read,
		DataLanes: hal.LanesSingle,
	}
	return f.transport.WriteRead(&frame)
}

// opcodeErr wraps a transport error with the failing opcode.
func opcodeErr(opcode uint8, err error) error {
	return fmt.Errorf("opcode %#02x: %w: %w", opcode, pkg.ErrTransport, err)
}

// transportErr wraps a transport error with an operation name.
func transportErr(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, pkg.ErrTransport, err)
}
