package hal

// Lanes is the number of physical data lines carrying a frame phase.
type Lanes uint8

// Lane count constants. LanesNone marks a phase as absent.
const (
	LanesNone   Lanes = 0
	LanesSingle Lanes = 1
	LanesDual   Lanes = 2
	LanesQuad   Lanes = 4
)

// String returns a human-readable lane count name.
func (l Lanes) String() string {
	switch l {
	case LanesNone:
		return "none"
	case LanesSingle:
		return "single"
	case LanesDual:
		return "dual"
	case LanesQuad:
		return "quad"
	default:
		return "invalid"
	}
}

// Valid reports whether l is a legal lane count for a present phase.
func (l Lanes) Valid() bool {
	return l == LanesSingle || l == LanesDual || l == LanesQuad
}

// Frame describes one complete bus transaction: instruction, address,
// alternate, dummy, and data phases, in that order. A phase with a zero
// lane count (or zero length) is omitted on the wire.
//
// The transport asserts chip select before the first phase and de-asserts
// it after the last; one Frame is one chip-select window.
type Frame struct {
	Instruction      uint8  // Command opcode
	InstructionLanes Lanes  // Lanes for the instruction phase; LanesNone omits it
	Address          uint32 // Address phase value, sent big-endian
	AddressLanes     Lanes  // Lanes for the address phase
	AddressBytes     uint8  // Address width in bytes: 0, 1, 3, or 4
	Alternate        uint32 // Alternate (mode) phase value, sent big-endian
	AlternateLanes   Lanes  // Lanes for the alternate phase
	AlternateBytes   uint8  // Alternate width in bytes
	DummyCycles      uint8  // Clocks between address/alternate and data phases
	Write            []byte // Data phase transmit payload; nil omits it
	Read             []byte // Data phase receive buffer; nil omits it
	DataLanes        Lanes  // Lanes for the data phase
}

// Raw reports whether the frame is a legacy single-SPI byte stream: no
// instruction phase, the opcode and every following byte already packed
// into Write. Dummy cycles of such frames are whole bytes in the stream.
func (f *Frame) Raw() bool {
	return f.InstructionLanes == LanesNone && len(f.Write) > 0
}

// Opcode returns the frame's command opcode for either encoding shape.
func (f *Frame) Opcode() uint8 {
	if f.Raw() {
		return f.Write[0]
	}
	return f.Instruction
}

// Transport drives command frames onto the bus. Implementations own the
// chip-select line, the clock, and the pin mapping; the driver core never
// touches hardware directly.
//
// WriteRead performs all phases of one frame inside a single chip-select
// window and returns only after the bus has quiesced. Frames arrive in
// program order; a transport must not reorder or coalesce them.
//
// DummyCycles is expressed in bus clocks when any lane count is greater
// than one and in whole bytes (x8 clocks) when all lanes are single; the
// transport normalizes.
type Transport interface {
	// Init prepares the bus for use: pin muxing, clock setup, chip-select
	// idle state. Called once from the driver's Init.
	Init() error

	// Deinit releases the bus. Called from the driver's Deinit and on
	// any Init failure.
	Deinit() error

	// WriteRead performs one complete frame. A nil error means every
	// phase completed; any error leaves chip-select de-asserted.
	WriteRead(f *Frame) error
}
