package periph

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/pkg"
)

// ErrMultiLane indicates a frame requested dual or quad lanes, which a
// plain SPI controller cannot drive.
var ErrMultiLane = errors.New("periph: multi-lane frame on single-lane port")

// DefaultFrequency is the bus clock used when the config leaves it zero.
// Conservative enough for fast-read opcodes on every supported family.
const DefaultFrequency = 8 * physic.MegaHertz

// Config describes a single-lane SPI binding.
type Config struct {
	// Port is the SPI port to connect, e.g. from spireg.Open.
	Port spi.PortCloser

	// CS optionally drives a dedicated chip-select pin around each frame.
	// Nil relies on the port's native chip-select.
	CS gpio.PinOut

	// Frequency is the bus clock; zero selects DefaultFrequency.
	Frequency physic.Frequency

	// Mode is the SPI clock mode; the W25Qxx accepts Mode0 and Mode3.
	Mode spi.Mode
}

// Transport drives the w25q core over a plain SPI controller using
// periph.io. It serves single-lane frames only; the driver's mode matrix
// never emits multi-lane frames unless dual/quad is authorized, so a
// handle configured for single SPI pairs with this adapter directly.
type Transport struct {
	port spi.PortCloser
	cs   gpio.PinOut
	freq physic.Frequency
	mode spi.Mode
	conn spi.Conn
}

// New binds a transport to a port. The port is not touched until Init.
func New(cfg Config) *Transport {
	freq := cfg.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &Transport{
		port: cfg.Port,
		cs:   cfg.CS,
		freq: freq,
		mode: cfg.Mode,
	}
}

// Init implements hal.Transport: it connects the port at the configured
// clock and parks chip-select high.
func (t *Transport) Init() error {
	conn, err := t.port.Connect(t.freq, t.mode, 8)
	if err != nil {
		return fmt.Errorf("periph: connect: %w", err)
	}
	t.conn = conn
	if t.cs != nil {
		if err := t.cs.Out(gpio.High); err != nil {
			return fmt.Errorf("periph: chip select: %w", err)
		}
	}
	pkg.LogDebug(pkg.ComponentHAL, "spi port connected", "freq", t.freq.String())
	return nil
}

// Deinit implements hal.Transport.
func (t *Transport) Deinit() error {
	t.conn = nil
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("periph: close: %w", err)
	}
	return nil
}

// WriteRead implements hal.Transport: it flattens the frame into one
// full-duplex transaction under a single chip-select window.
func (t *Transport) WriteRead(f *hal.Frame) (err error) {
	if t.conn == nil {
		return pkg.ErrNoTransport
	}
	header, err := t.flatten(f)
	if err != nil {
		return err
	}

	total := len(header) + len(f.Read)
	tx := make([]byte, total)
	rx := make([]byte, total)
	copy(tx, header)

	if t.cs != nil {
		if err := t.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("periph: chip select: %w", err)
		}
		defer func() {
			if csErr := t.cs.Out(gpio.High); csErr != nil && err == nil {
				err = fmt.Errorf("periph: chip select: %w", csErr)
			}
		}()
	}

	if err := t.conn.Tx(tx, rx); err != nil {
		return fmt.Errorf("periph: tx: %w", err)
	}
	copy(f.Read, rx[len(header):])
	return nil
}

// flatten serializes the transmit half of a frame into a contiguous byte
// stream: opcode, big-endian address, alternate, dummy bytes, payload.
// Raw frames pass through as-is.
func (t *Transport) flatten(f *hal.Frame) ([]byte, error) {
	if f.Raw() {
		return f.Write, nil
	}
	for _, lanes := range []hal.Lanes{
		f.InstructionLanes, f.AddressLanes, f.AlternateLanes, f.DataLanes,
	} {
		if lanes > hal.LanesSingle {
			return nil, ErrMultiLane
		}
	}

	out := make([]byte, 0, 1+int(f.AddressBytes)+int(f.AlternateBytes)+int(f.DummyCycles)/8+len(f.Write))
	if f.InstructionLanes == hal.LanesSingle {
		out = append(out, f.Instruction)
	}
	for i := int(f.AddressBytes) - 1; i >= 0; i-- {
		out = append(out, byte(f.Address>>(8*i)))
	}
	for i := int(f.AlternateBytes) - 1; i >= 0; i-- {
		out = append(out, byte(f.Alternate>>(8*i)))
	}
	// Single-lane dummy cycles come in whole bytes.
	for i := 0; i < int(f.DummyCycles)/8; i++ {
		out = append(out, 0x00)
	}
	out = append(out, f.Write...)
	return out, nil
}

var _ hal.Transport = (*Transport)(nil)
