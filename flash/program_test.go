package flash_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/w25q/flash"
	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/flash/hal/sim"
	"github.com/ardnew/w25q/pkg"
)

func TestPageProgram(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	data := bytes.Repeat([]byte{0x77}, 256)
	require.NoError(t, f.PageProgram(0x4200, data))

	// Write enable, program, one status poll.
	assert.Equal(t, []uint8{0x06, 0x02, 0x05}, dev.Opcodes())

	buf := make([]byte, 256)
	require.NoError(t, f.Read(0x4200, buf))
	assert.Equal(t, data, buf)
}

func TestPageProgramValidation(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	assert.ErrorIs(t, f.PageProgram(0x4201, []byte{1}), pkg.ErrInvalidAddress)
	assert.ErrorIs(t, f.PageProgram(0x4200, make([]byte, 257)), pkg.ErrInvalidLength)
	assert.Empty(t, dev.Frames())
}

func TestQuadPageProgram(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
		DualQuad:  true,
	}, sim.Config{QuadEnable: true})

	data := []byte{0xCA, 0xFE}
	require.NoError(t, f.QuadPageProgram(0x100, data))

	var program *sim.Record
	frames := dev.Frames()
	for i := range frames {
		if frames[i].Opcode == 0x32 {
			program = &frames[i]
		}
	}
	require.NotNil(t, program)
	assert.Equal(t, hal.LanesSingle, program.Instruction)
	assert.Equal(t, hal.LanesSingle, program.AddressLanes)
	assert.Equal(t, hal.LanesQuad, program.DataLanes)

	buf := make([]byte, 2)
	require.NoError(t, f.Read(0x100, buf))
	assert.Equal(t, data, buf)
}

func TestQuadPageProgramRejected(t *testing.T) {
	single, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})
	assert.ErrorIs(t, single.QuadPageProgram(0x100, []byte{1}), pkg.ErrUnsupportedInMode)
	assert.Empty(t, dev.Frames(), "rejection must precede any frame")

	qspi, qdev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceQSPI,
	}, sim.Config{})
	assert.ErrorIs(t, qspi.QuadPageProgram(0x100, []byte{1}), pkg.ErrUnsupportedInMode)
	assert.Empty(t, qdev.Frames())
}

func TestSectorEraseAlignment(t *testing.T) {
	// Misaligned erase returns InvalidAddress without touching the bus.
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	assert.ErrorIs(t, f.SectorErase4K(0x1001), pkg.ErrInvalidAddress)
	assert.ErrorIs(t, f.BlockErase32K(0x1000), pkg.ErrInvalidAddress)
	assert.ErrorIs(t, f.BlockErase64K(0x8000), pkg.ErrInvalidAddress)
	assert.Empty(t, dev.Frames())
}

func TestErases(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint8
		addr   uint32
		size   uint32
		call   func(f *flash.Flash, addr uint32) error
	}{
		{"sector 4k", 0x20, 0x3000, 4096,
			func(f *flash.Flash, addr uint32) error { return f.SectorErase4K(addr) }},
		{"block 32k", 0x52, 0x8000, 32 * 1024,
			func(f *flash.Flash, addr uint32) error { return f.BlockErase32K(addr) }},
		{"block 64k", 0xD8, 0x10000, 64 * 1024,
			func(f *flash.Flash, addr uint32) error { return f.BlockErase64K(addr) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, dev := initHandle(t, flash.Config{
				Family:    flash.W25Q128,
				Interface: flash.InterfaceSPI,
			}, sim.Config{})

			dirty := bytes.Repeat([]byte{0x00}, 32)
			dev.Fill(tt.addr, dirty)
			dev.Fill(tt.addr+tt.size-32, dirty)
			dev.ClearFrames()

			require.NoError(t, tt.call(f, tt.addr))
			assert.Equal(t, []uint8{0x06, tt.opcode, 0x05}, dev.Opcodes())

			span := dev.Mem()[tt.addr : tt.addr+tt.size]
			assert.Equal(t, bytes.Repeat([]byte{0xFF}, int(tt.size)), span)
		})
	}
}

func TestChipErase(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q80,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	dev.Fill(0, bytes.Repeat([]byte{0x00}, 1024))
	dev.Fill(flash.W25Q80.Capacity()-16, bytes.Repeat([]byte{0x00}, 16))
	dev.ClearFrames()

	require.NoError(t, f.ChipErase())
	assert.Equal(t, []uint8{0x06, 0xC7, 0x05}, dev.Opcodes())
	assert.True(t, func() bool {
		for _, b := range dev.Mem() {
			if b != 0xFF {
				return false
			}
		}
		return true
	}(), "array fully erased")
}

func TestBusyWaitTimeout(t *testing.T) {
	// The device stays busy past the page program deadline: 3 ms at a
	// 10 us poll allows 300 polls.
	f, _ := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{BusyPolls: 1000})

	err := f.PageProgram(0x1000, []byte{0x55})
	assert.ErrorIs(t, err, pkg.ErrTimeout)
}

func TestBusyWaitPollsUntilClear(t *testing.T) {
	var slept int
	f, dev := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
		Delay:     func(time.Duration) { slept++ },
	}, sim.Config{BusyPolls: 5})
	require.NoError(t, f.Init())
	dev.ClearFrames()
	slept = 0

	require.NoError(t, f.PageProgram(0x1000, []byte{0x55}))
	// Five busy polls, then the clear one.
	assert.Equal(t, 6, dev.CountOpcode(0x05))
	assert.Equal(t, 5, slept)
}

func TestSuspendResume(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	require.NoError(t, f.EraseProgramSuspend())
	status, err := f.Status2()
	require.NoError(t, err)
	assert.NotZero(t, status&flash.Status2SUS)

	require.NoError(t, f.EraseProgramResume())
	status, err = f.Status2()
	require.NoError(t, err)
	assert.Zero(t, status&flash.Status2SUS)

	// Neither command is followed by a busy poll.
	assert.Equal(t, []uint8{0x75, 0x35, 0x7A, 0x35}, dev.Opcodes())
}
