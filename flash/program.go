package flash

import (
	"fmt"
	"time"

	"github.com/ardnew/w25q/pkg"
)

// PageProgram programs up to one page (0x02). addr must be page aligned
// and len(data) at most 256; use Write for arbitrary spans.
func (f *Flash) PageProgram(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if len(data) > PageSize {
		return fmt.Errorf("page program: %w", pkg.ErrInvalidLength)
	}
	if addr%PageSize != 0 {
		return fmt.Errorf("page program: %w", pkg.ErrInvalidAddress)
	}
	return f.pageProgramRaw(addr, data)
}

// QuadPageProgram programs up to one page with data on four lanes (0x32).
// Requires SPI mode with dual/quad authorization.
func (f *Flash) QuadPageProgram(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if len(data) > PageSize {
		return fmt.Errorf("quad page program: %w", pkg.ErrInvalidLength)
	}
	if addr%PageSize != 0 {
		return fmt.Errorf("quad page program: %w", pkg.ErrInvalidAddress)
	}
	if _, err := f.template(opQuadPageProgram); err != nil {
		return err
	}
	if err := f.extendedAddressPrefix(addr); err != nil {
		return err
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opQuadPageProgram, cmdQuadPageProgram, addr, true, data, nil); err != nil {
		return err
	}
	if err := f.waitIdle(timeoutPageProgram, pollProgram); err != nil {
		return fmt.Errorf("quad page program: %w", err)
	}
	return nil
}

// SectorErase4K erases one 4 KiB sector (0x20). addr must be sector
// aligned.
func (f *Flash) SectorErase4K(addr uint32) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if addr%SectorSize != 0 {
		return fmt.Errorf("sector erase: %w", pkg.ErrInvalidAddress)
	}
	return f.sectorEraseRaw(addr)
}

// BlockErase32K erases one 32 KiB block (0x52). addr must be block
// aligned.
func (f *Flash) BlockErase32K(addr uint32) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if addr%Block32Size != 0 {
		return fmt.Errorf("block erase 32k: %w", pkg.ErrInvalidAddress)
	}
	return f.erase(cmdBlockErase32K, addr, timeoutBlock32, "block erase 32k")
}

// BlockErase64K erases one 64 KiB block (0xD8). addr must be block
// aligned.
func (f *Flash) BlockErase64K(addr uint32) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if addr%Block64Size != 0 {
		return fmt.Errorf("block erase 64k: %w", pkg.ErrInvalidAddress)
	}
	return f.erase(cmdBlockErase64K, addr, timeoutBlock64, "block erase 64k")
}

// ChipErase erases the entire array (0xC7). Worst-case completion runs
// to minutes on the larger families; the call blocks throughout.
func (f *Flash) ChipErase() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opControl, cmdChipErase, 0, false, nil, nil); err != nil {
		return err
	}
	if err := f.waitIdle(timeoutChipErase, pollErase); err != nil {
		return fmt.Errorf("chip erase: %w", err)
	}
	return nil
}

// EraseProgramSuspend suspends an in-flight erase or program (0x75). The
// transition is not observable through status register 1, so no busy-wait
// follows.
func (f *Flash) EraseProgramSuspend() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdEraseProgramSuspend, 0, false, nil, nil)
}

// EraseProgramResume resumes a suspended erase or program (0x7A).
func (f *Flash) EraseProgramResume() error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	return f.exec(opControl, cmdEraseProgramResume, 0, false, nil, nil)
}

// pageProgramRaw programs without the page alignment gate. The write
// engine's splitter calls it with intra-page addresses whose spans never
// cross a page boundary.
func (f *Flash) pageProgramRaw(addr uint32, data []byte) error {
	if err := f.extendedAddressPrefix(addr); err != nil {
		return err
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opPageProgram, cmdPageProgram, addr, true, data, nil); err != nil {
		return err
	}
	if err := f.waitIdle(timeoutPageProgram, pollProgram); err != nil {
		return fmt.Errorf("page program: %w", err)
	}
	return nil
}

// sectorEraseRaw erases without the alignment gate; the write engine
// calls it with sector bases it derives itself.
func (f *Flash) sectorEraseRaw(addr uint32) error {
	return f.erase(cmdSectorErase4K, addr, timeoutSectorErase, "sector erase")
}

// erase issues one address-bearing erase opcode and waits out its
// deadline.
func (f *Flash) erase(opcode uint8, addr uint32, deadline time.Duration, what string) error {
	if err := f.extendedAddressPrefix(addr); err != nil {
		return err
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opErase, opcode, addr, true, nil, nil); err != nil {
		return err
	}
	if err := f.waitIdle(deadline, pollErase); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
