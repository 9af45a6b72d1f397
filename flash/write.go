package flash

import (
	"fmt"

	"github.com/ardnew/w25q/pkg"
)

// Write stores an arbitrary span at an arbitrary address, preserving the
// surrounding contents of every touched sector. For each 4 KiB sector the
// span intersects it stages the current contents, and then either
// programs the new bytes directly when the affected range is still erased,
// or erases the sector and rewrites all of it with the new bytes overlaid.
//
// A failure after the staging read can leave the sector erased or
// partially programmed; the device offers no rollback, so higher-level atomicity belongs to the caller.
func (f *Flash) Write(addr uint32, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	pkg.LogDebug(pkg.ComponentWrite, "write", "addr", addr, "len", len(data))
	for len(data) > 0 {
		base := addr &^ (SectorSize - 1)
		offset := addr - base
		n := SectorSize - int(offset)
		if n > len(data) {
			n = len(data)
		}

		if err := f.readRange(base, f.sector[:SectorSize]); err != nil {
			return fmt.Errorf("write: read sector %#x: %w", base, err)
		}

		span := f.sector[offset : int(offset)+n]
		if erased(span) {
			// Fresh flash underneath: program the new bytes in place and
			// spare the sector an erase cycle.
			if err := f.program(addr, data[:n]); err != nil {
				return fmt.Errorf("write: program %#x: %w", addr, err)
			}
		} else {
			if err := f.sectorEraseRaw(base); err != nil {
				return fmt.Errorf("write: erase sector %#x: %w", base, err)
			}
			copy(span, data[:n])
			if err := f.program(base, f.sector[:SectorSize]); err != nil {
				return fmt.Errorf("write: program sector %#x: %w", base, err)
			}
		}

		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// program walks a span through the page splitter: each step programs up
// to the next 256-byte boundary, so no emitted page program ever crosses
// a page.
func (f *Flash) program(addr uint32, data []byte) error {
	for len(data) > 0 {
		remain := PageSize - int(addr%PageSize)
		n := remain
		if n > len(data) {
			n = len(data)
		}
		if err := f.pageProgramRaw(addr, data[:n]); err != nil {
			return err
		}
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// erased reports whether every byte of the span still holds the erased
// pattern.
func erased(span []byte) bool {
	for _, b := range span {
		if b != 0xFF {
			return false
		}
	}
	return true
}
