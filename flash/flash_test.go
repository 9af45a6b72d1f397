package flash_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/w25q/flash"
	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/flash/hal/sim"
	"github.com/ardnew/w25q/pkg"
)

// newHandle builds a handle bound to a simulated device with sleeps
// elided.
func newHandle(t *testing.T, cfg flash.Config, simCfg sim.Config) (*flash.Flash, *sim.Device) {
	t.Helper()
	if simCfg.Family == 0 {
		simCfg.Family = cfg.Family
	}
	dev := sim.New(simCfg)
	cfg.Transport = dev
	if cfg.Delay == nil {
		cfg.Delay = func(time.Duration) {}
	}
	f, err := flash.New(cfg)
	require.NoError(t, err)
	return f, dev
}

// initHandle additionally runs Init and clears the frame log.
func initHandle(t *testing.T, cfg flash.Config, simCfg sim.Config) (*flash.Flash, *sim.Device) {
	t.Helper()
	f, dev := newHandle(t, cfg, simCfg)
	require.NoError(t, f.Init())
	dev.ClearFrames()
	return f, dev
}

func TestNewValidation(t *testing.T) {
	_, err := flash.New(flash.Config{Family: flash.W25Q64})
	assert.ErrorIs(t, err, pkg.ErrNoTransport)

	_, err = flash.New(flash.Config{
		Family:    flash.Family(0x1234),
		Transport: sim.New(sim.Config{}),
	})
	assert.ErrorIs(t, err, pkg.ErrIDMismatch)
}

func TestAccessors(t *testing.T) {
	f, _ := newHandle(t, flash.Config{
		Family:    flash.W25Q64,
		Interface: flash.InterfaceSPI,
		DualQuad:  true,
	}, sim.Config{})

	assert.Equal(t, flash.W25Q64, f.Family())
	assert.Equal(t, flash.InterfaceSPI, f.Interface())
	assert.True(t, f.DualQuad())
	assert.Equal(t, flash.AddressMode3Byte, f.AddressMode())
	assert.Equal(t, uint32(8<<20), f.Capacity())
	assert.False(t, f.Initialized())
}

func TestFamilyCapacity(t *testing.T) {
	tests := []struct {
		family flash.Family
		size   uint32
	}{
		{flash.W25Q80, 1 << 20},
		{flash.W25Q16, 2 << 20},
		{flash.W25Q32, 4 << 20},
		{flash.W25Q64, 8 << 20},
		{flash.W25Q128, 16 << 20},
		{flash.W25Q256, 32 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			assert.Equal(t, tt.size, tt.family.Capacity())
		})
	}
	assert.Equal(t, uint32(0), flash.Family(0xBEEF).Capacity())
}

func TestInfo(t *testing.T) {
	f, _ := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceQSPI,
	}, sim.Config{})

	info := f.Info()
	assert.Equal(t, "W25Q128", info.ChipName)
	assert.Equal(t, "Winbond", info.Manufacturer)
	assert.Equal(t, "QSPI", info.Interface)
	assert.Equal(t, uint32(flash.DriverVersion), info.DriverVersion)
}

func TestInitSPISequence(t *testing.T) {
	// Init on W25Q128 in single-SPI: wake, reset pair, probe.
	f, dev := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	require.NoError(t, f.Init())
	assert.Equal(t, []uint8{0xAB, 0x66, 0x99, 0x90}, dev.Opcodes())
	assert.True(t, f.Initialized())
	assert.Equal(t, flash.AddressMode3Byte, f.AddressMode())
	assert.Equal(t, 1, dev.InitCount())
	assert.Equal(t, 0, dev.DeinitCount())
}

func TestInitQSPISequence(t *testing.T) {
	// Init on W25Q256 in QSPI with QE initially clear: wake, reset, QE
	// setup, mode entry, read parameters, probe, 3-byte normalization.
	f, dev := newHandle(t, flash.Config{
		Family:    flash.W25Q256,
		Interface: flash.InterfaceQSPI,
	}, sim.Config{})

	require.NoError(t, f.Init())
	assert.Equal(t,
		[]uint8{0xAB, 0x66, 0x99, 0x35, 0x50, 0x31, 0x38, 0xC0, 0x90, 0xE9},
		dev.Opcodes())

	_, dummy := f.ReadParameters()
	assert.Equal(t, uint8(8), dummy)
	assert.True(t, dev.QSPIActive())
	assert.False(t, dev.AddressMode4())

	// The read parameters frame carried the 8-cycle index.
	for _, r := range dev.Frames() {
		if r.Opcode == 0xC0 {
			require.Equal(t, []byte{0x30}, r.Write)
		}
	}
}

func TestInitQSPISkipsQESetupWhenAlreadySet(t *testing.T) {
	f, dev := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceQSPI,
	}, sim.Config{QuadEnable: true})

	require.NoError(t, f.Init())
	assert.Equal(t, []uint8{0xAB, 0x66, 0x99, 0x35, 0x38, 0xC0, 0x90}, dev.Opcodes())
}

func TestInitIDMismatch(t *testing.T) {
	f, dev := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{Family: flash.W25Q64})

	err := f.Init()
	assert.ErrorIs(t, err, pkg.ErrIDMismatch)
	assert.False(t, f.Initialized())
	assert.Equal(t, 1, dev.DeinitCount(), "transport must be released on init failure")
}

func TestInitTransportFailure(t *testing.T) {
	dev := sim.New(sim.Config{Family: flash.W25Q64})
	dev.InitErr = assert.AnError
	f, err := flash.New(flash.Config{
		Family:    flash.W25Q64,
		Interface: flash.InterfaceSPI,
		Transport: dev,
		Delay:     func(time.Duration) {},
	})
	require.NoError(t, err)

	err = f.Init()
	assert.ErrorIs(t, err, pkg.ErrTransport)
	assert.False(t, f.Initialized())
}

func TestInitFrameFailureReleasesTransport(t *testing.T) {
	f, dev := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})
	dev.Hook = func(fr *hal.Frame) error {
		if fr.Opcode() == 0x99 {
			return assert.AnError
		}
		return nil
	}

	err := f.Init()
	assert.ErrorIs(t, err, pkg.ErrTransport)
	assert.False(t, f.Initialized())
	assert.Equal(t, 1, dev.DeinitCount())
}

func TestDeinitSPI(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	require.NoError(t, f.Deinit())
	ops := dev.Opcodes()
	require.NotEmpty(t, ops)
	// Power-down is the last frame before the transport is released.
	assert.Equal(t, uint8(0xB9), ops[len(ops)-1])
	assert.Equal(t, 1, dev.DeinitCount())
	assert.False(t, f.Initialized())
	assert.False(t, dev.Powered())
}

func TestDeinitQSPIExitsMode(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceQSPI,
	}, sim.Config{})

	require.NoError(t, f.Deinit())
	assert.Equal(t, []uint8{0xFF, 0xB9}, dev.Opcodes())
	assert.False(t, dev.QSPIActive())
	assert.False(t, dev.Powered())
	assert.Equal(t, 1, dev.DeinitCount())
}

func TestOperationsRequireInit(t *testing.T) {
	f, _ := newHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	buf := make([]byte, 4)
	tests := []struct {
		name string
		call func() error
	}{
		{"read", func() error { return f.Read(0, buf) }},
		{"write", func() error { return f.Write(0, buf) }},
		{"fast read", func() error { return f.FastRead(0, buf) }},
		{"slow read", func() error { return f.SlowRead(0, buf) }},
		{"page program", func() error { return f.PageProgram(0, buf) }},
		{"sector erase", func() error { return f.SectorErase4K(0) }},
		{"block erase 32k", func() error { return f.BlockErase32K(0) }},
		{"block erase 64k", func() error { return f.BlockErase64K(0) }},
		{"chip erase", func() error { return f.ChipErase() }},
		{"status1", func() error { _, err := f.Status1(); return err }},
		{"set status1", func() error { return f.SetStatus1(0) }},
		{"enable write", func() error { return f.EnableWrite() }},
		{"suspend", func() error { return f.EraseProgramSuspend() }},
		{"resume", func() error { return f.EraseProgramResume() }},
		{"power down", func() error { return f.PowerDown() }},
		{"release power down", func() error { return f.ReleasePowerDown() }},
		{"set address mode", func() error { return f.SetAddressMode(flash.AddressMode3Byte) }},
		{"jedec id", func() error { _, _, err := f.JEDECID(); return err }},
		{"unique id", func() error { _, err := f.UniqueID(); return err }},
		{"sfdp", func() error { return f.SFDP(make([]byte, 256)) }},
		{"deinit", func() error { return f.Deinit() }},
		{"write read reg", func() error { return f.WriteReadReg(&hal.Frame{}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), pkg.ErrNotInitialized)
		})
	}
}

func TestSetAddressMode(t *testing.T) {
	// 4-byte mode is a W25Q256 capability only.
	f, _ := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})
	assert.ErrorIs(t, f.SetAddressMode(flash.AddressMode4Byte), pkg.ErrInvalidAddressMode)

	q, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q256,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})
	require.NoError(t, q.SetAddressMode(flash.AddressMode4Byte))
	assert.Equal(t, flash.AddressMode4Byte, q.AddressMode())
	assert.True(t, dev.AddressMode4())

	// Subsequent address-bearing frames carry 4-byte addresses and no
	// extended-address prefix.
	dev.ClearFrames()
	require.NoError(t, q.Read(0x01234567, make([]byte, 2)))
	frames := dev.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, uint8(0x0B), frames[0].Opcode)
	assert.Equal(t, uint8(4), frames[0].AddressBytes)
	assert.Equal(t, uint32(0x01234567), frames[0].Address)

	require.NoError(t, q.SetAddressMode(flash.AddressMode3Byte))
	assert.False(t, dev.AddressMode4())
}

func TestExtendedAddressPrefix(t *testing.T) {
	// W25Q256 in 3-byte mode: a read above 16 MiB routes through the
	// extended address register.
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q256,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	seed := []byte{0x11, 0x22, 0x33}
	dev.Fill(0x01234567, seed)

	buf := make([]byte, 3)
	require.NoError(t, f.Read(0x01234567, buf))
	assert.Equal(t, seed, buf)

	ops := dev.Opcodes()
	assert.Equal(t, []uint8{0x06, 0xC5, 0x0B}, ops)
	frames := dev.Frames()
	assert.Equal(t, []byte{0x01}, frames[1].Write, "extended register carries bits 31:24")
	assert.Equal(t, uint32(0x01234567), frames[2].Address, "device resolves the full address")
}

func TestWriteReadReg(t *testing.T) {
	f, dev := initHandle(t, flash.Config{
		Family:    flash.W25Q128,
		Interface: flash.InterfaceSPI,
	}, sim.Config{})

	var status [1]byte
	frame := hal.Frame{Write: []byte{0x05}, Read: status[:], DataLanes: hal.LanesSingle}
	require.NoError(t, f.WriteReadReg(&frame))
	assert.Equal(t, 1, dev.CountOpcode(0x05))
}
