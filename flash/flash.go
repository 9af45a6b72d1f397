package flash

import (
	"time"

	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/pkg"
)

// DriverVersion is the driver release encoded as major*1000 + minor*100.
const DriverVersion = 1000

// Config describes a device binding. Identity fields are fixed for the
// lifetime of the handle; New rejects inconsistent combinations.
type Config struct {
	// Family is the expected capacity class. Init probes the device and
	// fails with ErrIDMismatch if the silicon disagrees.
	Family Family

	// Interface selects single-SPI or full QSPI operation.
	Interface Interface

	// DualQuad authorizes dual- and quad-lane opcodes in SPI mode. It has
	// no effect in QSPI mode, where every frame is quad anyway.
	DualQuad bool

	// Transport drives frames onto the bus.
	Transport hal.Transport

	// Delay suspends the caller for at least d. Busy-wait polling and the
	// lifecycle sequences sleep through it. Nil selects time.Sleep.
	Delay func(d time.Duration)
}

// Flash is a handle to one W25Qxx device. It is the sole stateful entity
// of the driver and holds fixed scratch buffers so no operation allocates.
//
// A Flash is not internally synchronized: the device has a single command
// channel, so serialization across clients belongs to the caller.
type Flash struct {
	transport hal.Transport
	delay     func(time.Duration)

	family   Family
	iface    Interface
	dualQuad bool

	addrMode AddressMode
	param    uint8 // Last value written to the read parameters register
	dummy    uint8 // Effective QSPI fast-read dummy cycles

	inited bool

	// Command assembly buffer: opcode, up to a 5-byte address prefix, and
	// one page of payload.
	cmd [cmdBufSize]byte

	// Sector staging buffer for the read-modify-write engine.
	sector [sectorBufSize]byte
}

// New binds a handle to a transport. The handle is uninitialized; call
// Init before any device operation.
func New(cfg Config) (*Flash, error) {
	if cfg.Transport == nil {
		return nil, pkg.ErrNoTransport
	}
	if !cfg.Family.Valid() {
		return nil, pkg.ErrIDMismatch
	}
	delay := cfg.Delay
	if delay == nil {
		delay = time.Sleep
	}
	return &Flash{
		transport: cfg.Transport,
		delay:     delay,
		family:    cfg.Family,
		iface:     cfg.Interface,
		dualQuad:  cfg.DualQuad,
		addrMode:  AddressMode3Byte,
	}, nil
}

// Family returns the configured capacity class.
func (f *Flash) Family() Family {
	return f.family
}

// Interface returns the configured bus interface.
func (f *Flash) Interface() Interface {
	return f.iface
}

// DualQuad reports whether dual/quad-lane opcodes are authorized in SPI mode.
func (f *Flash) DualQuad() bool {
	return f.dualQuad
}

// AddressMode returns the current address phase width.
func (f *Flash) AddressMode() AddressMode {
	return f.addrMode
}

// Capacity returns the size of the device array in bytes.
func (f *Flash) Capacity() uint32 {
	return f.family.Capacity()
}

// Initialized reports whether Init has completed successfully.
func (f *Flash) Initialized() bool {
	return f.inited
}

// ReadParameters returns the raw read-parameters byte and the effective
// QSPI fast-read dummy cycle count currently in force.
func (f *Flash) ReadParameters() (param, dummy uint8) {
	return f.param, f.dummy
}

// Info describes the bound chip.
type Info struct {
	ChipName         string  // Part name
	Manufacturer     string  // Manufacturer name
	Interface        string  // Bus interface name
	SupplyVoltageMin float32 // Minimum supply voltage in volts
	SupplyVoltageMax float32 // Maximum supply voltage in volts
	MaxCurrentMA     float32 // Maximum supply current in mA
	TemperatureMin   float32 // Minimum operating temperature in Celsius
	TemperatureMax   float32 // Maximum operating temperature in Celsius
	DriverVersion    uint32  // Driver version
}

// Info returns chip information for the configured family.
func (f *Flash) Info() Info {
	return Info{
		ChipName:         f.family.String(),
		Manufacturer:     "Winbond",
		Interface:        f.iface.String(),
		SupplyVoltageMin: 2.7,
		SupplyVoltageMax: 3.6,
		MaxCurrentMA:     25.0,
		TemperatureMin:   -40.0,
		TemperatureMax:   85.0,
		DriverVersion:    DriverVersion,
	}
}

// WriteReadReg hands a caller-constructed frame to the transport after the
// initialization check. It is the escape hatch for vendor commands the
// driver does not model; the caller owns every field of the frame.
func (f *Flash) WriteReadReg(frame *hal.Frame) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if err := f.transport.WriteRead(frame); err != nil {
		return transportErr("write read reg", err)
	}
	return nil
}
