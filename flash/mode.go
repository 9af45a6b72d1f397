package flash

import (
	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/pkg"
)

// opClass names a command shape the mode matrix can resolve. Every device
// operation the driver issues after initialization belongs to exactly one
// class; the class plus the handle's mode state yields a frame template.
type opClass uint8

const (
	opControl             opClass = iota // Bare opcode, no other phase
	opStatusRead                         // Opcode then one status byte in
	opStatusWrite                        // Opcode then one status byte out
	opReadData                           // Plain read (0x03)
	opFastRead                           // Fast read (0x0B)
	opFastReadDualOutput                 // Fast read dual output (0x3B)
	opFastReadQuadOutput                 // Fast read quad output (0x6B)
	opFastReadDualIO                     // Fast read dual I/O (0xBB)
	opFastReadQuadIO                     // Fast read quad I/O (0xEB)
	opWordReadQuadIO                     // Word read quad I/O (0xE7)
	opOctalWordReadQuadIO                // Octal word read quad I/O (0xE3)
	opPageProgram                        // Page program (0x02)
	opQuadPageProgram                    // Quad page program (0x32)
	opErase                              // Sector/block erase address frame
	opDeviceID                           // Manufacturer/device id (0x90)
	opDeviceIDDualIO                     // Manufacturer/device id dual I/O (0x92)
	opDeviceIDQuadIO                     // Manufacturer/device id quad I/O (0x94)
	opUniqueID                           // Unique id (0x4B)
	opSFDP                               // SFDP block (0x5A)
	opSecurityRegRead                    // Security register read (0x48)
	opSecurityRegWrite                   // Security register program (0x42)
	opSecurityRegErase                   // Security register erase (0x44)
	opBlockLock                          // Individual block lock/unlock (0x36/0x39)
	opBlockLockRead                      // Read block lock state (0x3D)
	opReadParameters                     // Set read parameters (0xC0)
	opBurstWrap                          // Set burst with wrap (0x77)
)

// dummyFromHandle marks a template whose dummy cycle count is the handle's
// configured QSPI read dummy rather than a fixed value.
const dummyFromHandle = 0xFF

// frameTemplate describes how one operation class is laid onto the bus in
// one mode. A raw template routes through the legacy single-SPI byte
// stream; a structured template populates the per-phase frame fields.
type frameTemplate struct {
	raw              bool      // Encode as contiguous single-lane byte stream
	instructionLanes hal.Lanes // Structured instruction phase lanes
	addressLanes     hal.Lanes // Address phase lanes; LanesNone omits address
	addressBytes     uint8     // Fixed address width; 0 follows the handle mode
	alternate        bool      // Append the 0xFF alternate byte
	alternateLanes   hal.Lanes // Alternate phase lanes
	dummyCycles      uint8     // Dummy clocks, or dummyFromHandle
	dataLanes        hal.Lanes // Data phase lanes
}

// Mode matrix indices.
const (
	modeSPISingle = iota
	modeSPIDualQuad
	modeQSPI
	modeCount
)

// templates is the mode matrix: operation class and mode in, frame template
// out. A nil entry rejects the combination with ErrUnsupportedInMode.
var templates = map[opClass][modeCount]*frameTemplate{
	opControl: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad},
	},
	opStatusRead: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad, dataLanes: hal.LanesQuad},
	},
	opStatusWrite: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad, dataLanes: hal.LanesQuad},
	},
	opReadData: {
		{raw: true},
		{raw: true},
		nil, // QSPI must use fast-read
	},
	opFastRead: {
		{raw: true, dummyCycles: 8},
		{raw: true, dummyCycles: 8},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad,
			dummyCycles: dummyFromHandle, dataLanes: hal.LanesQuad},
	},
	opFastReadDualOutput: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesSingle,
			dummyCycles: 8, dataLanes: hal.LanesDual},
		nil,
	},
	opFastReadQuadOutput: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesSingle,
			dummyCycles: 8, dataLanes: hal.LanesQuad},
		nil,
	},
	opFastReadDualIO: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesDual,
			alternate: true, alternateLanes: hal.LanesDual, dataLanes: hal.LanesDual},
		nil,
	},
	opFastReadQuadIO: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesQuad,
			alternate: true, alternateLanes: hal.LanesQuad,
			dummyCycles: 4, dataLanes: hal.LanesQuad},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad,
			alternate: true, alternateLanes: hal.LanesQuad,
			dummyCycles: dummyFromHandle, dataLanes: hal.LanesQuad},
	},
	opWordReadQuadIO: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesQuad,
			alternate: true, alternateLanes: hal.LanesQuad,
			dummyCycles: 2, dataLanes: hal.LanesQuad},
		nil,
	},
	opOctalWordReadQuadIO: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesQuad,
			alternate: true, alternateLanes: hal.LanesQuad, dataLanes: hal.LanesQuad},
		nil,
	},
	opPageProgram: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad,
			dataLanes: hal.LanesQuad},
	},
	opQuadPageProgram: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesSingle,
			dataLanes: hal.LanesQuad},
		nil,
	},
	opErase: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad},
	},
	opDeviceID: {
		{raw: true, addressBytes: 3},
		{raw: true, addressBytes: 3},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad,
			addressBytes: 3, dataLanes: hal.LanesQuad},
	},
	opDeviceIDDualIO: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesDual,
			addressBytes: 3, alternate: true, alternateLanes: hal.LanesDual,
			dataLanes: hal.LanesDual},
		nil,
	},
	opDeviceIDQuadIO: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesQuad,
			addressBytes: 3, alternate: true, alternateLanes: hal.LanesQuad,
			dummyCycles: 4, dataLanes: hal.LanesQuad},
		nil,
	},
	opUniqueID: {
		{raw: true, dummyCycles: 8},
		{raw: true, dummyCycles: 8},
		nil, // single-lane-only opcode
	},
	opSFDP: {
		{raw: true, addressBytes: 3, dummyCycles: 8},
		{raw: true, addressBytes: 3, dummyCycles: 8},
		nil, // single-lane-only opcode
	},
	opSecurityRegRead: {
		{raw: true, dummyCycles: 8},
		{raw: true, dummyCycles: 8},
		nil,
	},
	opSecurityRegWrite: {
		{raw: true},
		{raw: true},
		nil,
	},
	opSecurityRegErase: {
		{raw: true},
		{raw: true},
		nil,
	},
	opBlockLock: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad},
	},
	opBlockLockRead: {
		{raw: true},
		{raw: true},
		{instructionLanes: hal.LanesQuad, addressLanes: hal.LanesQuad,
			dataLanes: hal.LanesQuad},
	},
	opReadParameters: {
		nil, // register only exists behind the QSPI engine
		nil,
		{instructionLanes: hal.LanesQuad, dataLanes: hal.LanesQuad},
	},
	opBurstWrap: {
		nil,
		{instructionLanes: hal.LanesSingle, addressLanes: hal.LanesQuad,
			addressBytes: 3, dataLanes: hal.LanesQuad},
		nil,
	},
}

// modeIndex maps the handle's interface selection onto a matrix column.
func (f *Flash) modeIndex() int {
	switch {
	case f.iface == InterfaceQSPI:
		return modeQSPI
	case f.dualQuad:
		return modeSPIDualQuad
	default:
		return modeSPISingle
	}
}

// template resolves an operation class against the current mode. A nil
// table entry means the opcode cannot be expressed on the current bus
// configuration; that is an API contract violation, not a device fault.
func (f *Flash) template(op opClass) (*frameTemplate, error) {
	row, ok := templates[op]
	if !ok {
		return nil, pkg.ErrUnsupportedInMode
	}
	t := row[f.modeIndex()]
	if t == nil {
		return nil, pkg.ErrUnsupportedInMode
	}
	return t, nil
}
