package flash

import (
	"fmt"
	"time"

	"github.com/ardnew/w25q/pkg"
)

// EnableWrite sets the write enable latch (0x06). Program, erase, and
// persistent register writes consume the latch; the device drops it on
// completion.
func (f *Flash) EnableWrite() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.writeEnable()
}

// DisableWrite clears the write enable latch (0x04).
func (f *Flash) DisableWrite() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdWriteDisable, 0, false, nil, nil)
}

// EnableVolatileSRWrite arms a volatile status register write (0x50).
// Unlike 0x06 the following register write does not wear the non-volatile
// bits and completes without a programming delay.
func (f *Flash) EnableVolatileSRWrite() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdVolatileSRWriteEnable, 0, false, nil, nil)
}

// Status1 reads status register 1 (0x05): BUSY, WEL, and the block
// protection bits.
func (f *Flash) Status1() (uint8, error) {
	if !f.inited {
		return 0, pkg.ErrNotInitialized
	}
	return f.statusRead(cmdReadStatus1)
}

// Status2 reads status register 2 (0x35): QE, the security register lock
// bits, CMP, and SUS.
func (f *Flash) Status2() (uint8, error) {
	if !f.inited {
		return 0, pkg.ErrNotInitialized
	}
	return f.statusRead(cmdReadStatus2)
}

// Status3 reads status register 3 (0x15): address mode, WPS, and driver
// strength.
func (f *Flash) Status3() (uint8, error) {
	if !f.inited {
		return 0, pkg.ErrNotInitialized
	}
	return f.statusRead(cmdReadStatus3)
}

// SetStatus1 writes status register 1 (0x01) through the volatile write
// path and waits for the device to settle.
func (f *Flash) SetStatus1(status uint8) error {
	return f.setStatus(cmdWriteStatus1, status)
}

// SetStatus2 writes status register 2 (0x31).
func (f *Flash) SetStatus2(status uint8) error {
	return f.setStatus(cmdWriteStatus2, status)
}

// SetStatus3 writes status register 3 (0x11).
func (f *Flash) SetStatus3(status uint8) error {
	return f.setStatus(cmdWriteStatus3, status)
}

// statusRead fetches one status byte without the initialization gate; the
// busy-wait monitor polls through it.
func (f *Flash) statusRead(opcode uint8) (uint8, error) {
	var status [1]byte
	if err := f.exec(opStatusRead, opcode, 0, false, nil, status[:]); err != nil {
		return 0, err
	}
	return status[0], nil
}

func (f *Flash) setStatus(opcode uint8, status uint8) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if err := f.exec(opControl, cmdVolatileSRWriteEnable, 0, false, nil, nil); err != nil {
		return err
	}
	payload := [1]byte{status}
	if err := f.exec(opStatusWrite, opcode, 0, false, payload[:], nil); err != nil {
		return err
	}
	if err := f.waitIdle(timeoutWriteStatus, pollErase); err != nil {
		return fmt.Errorf("write status %#02x: %w", opcode, err)
	}
	return nil
}

// writeEnable issues 0x06 without the initialization gate; the program,
// erase, and lock primitives and the extended-address prefix use it.
func (f *Flash) writeEnable() error {
	return f.exec(opControl, cmdWriteEnable, 0, false, nil, nil)
}

// setExtendedAddress writes address bits 31:24 into the extended address
// register (0xC5).
func (f *Flash) setExtendedAddress(bank uint8) error {
	payload := [1]byte{bank}
	return f.exec(opStatusWrite, cmdExtendedAddrRegister, 0, false, payload[:], nil)
}

// extendedAddressPrefix loads the high address byte ahead of an
// address-bearing command when a W25Q256 runs with 3-byte addressing.
// The register write itself consumes a write enable.
func (f *Flash) extendedAddressPrefix(addr uint32) error {
	if f.family != W25Q256 || f.addrMode != AddressMode3Byte {
		return nil
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	return f.setExtendedAddress(uint8(addr >> 24))
}

// waitIdle polls status register 1 until BUSY clears or the deadline
// elapses. poll is the granularity the device is re-read and the caller
// sleeps at; the deadline is the operation's worst-case completion time.
func (f *Flash) waitIdle(deadline, poll time.Duration) error {
	for elapsed := time.Duration(0); elapsed < deadline; elapsed += poll {
		status, err := f.statusRead(cmdReadStatus1)
		if err != nil {
			return err
		}
		if status&Status1Busy == 0 {
			return nil
		}
		f.delay(poll)
	}
	return pkg.ErrTimeout
}
