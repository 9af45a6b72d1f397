package sim

import (
	"errors"
	"fmt"

	"github.com/ardnew/w25q/flash"
	"github.com/ardnew/w25q/flash/hal"
)

// Simulation errors. These model device-side protocol violations: frames
// a real chip would misinterpret or ignore in a way the driver must never
// provoke.
var (
	ErrLaneMismatch   = errors.New("sim: frame lanes do not match device mode")
	ErrNotPowered     = errors.New("sim: device is powered down")
	ErrWELNotSet      = errors.New("sim: write enable latch not set")
	ErrQENotSet       = errors.New("sim: quad opcode without quad enable")
	ErrDummyMismatch  = errors.New("sim: dummy cycles do not match read parameters")
	ErrUnknownOpcode  = errors.New("sim: unknown opcode")
	ErrAddressRange   = errors.New("sim: address past end of array")
	ErrShortFrame     = errors.New("sim: frame shorter than opcode requires")
)

// Record captures one frame as the device observed it, with the address
// and payload resolved so tests can assert on command sequences.
type Record struct {
	Opcode       uint8
	Raw          bool      // Arrived on the legacy single-lane byte stream
	Instruction  hal.Lanes // Structured instruction lane count
	AddressLanes hal.Lanes
	AddressBytes uint8
	Address      uint32 // Resolved address including the extended register
	DataLanes    hal.Lanes
	DummyCycles  uint8
	Write        []byte // Copy of the data payload, nil if absent
	ReadLen      int
}

// Config parameterizes a simulated device.
type Config struct {
	// Family selects array capacity and probe identity.
	Family flash.Family

	// QuadEnable presets the QE bit, as if programmed non-volatile at the
	// factory or by a previous session.
	QuadEnable bool

	// BusyPolls is how many status-1 reads report BUSY after each program
	// or erase before the operation is considered complete. Zero completes
	// everything by the first poll.
	BusyPolls int
}

// Device is an in-memory W25Qxx model implementing [hal.Transport]. It
// decodes both frame shapes the driver emits, keeps a full array image,
// and records every frame for sequence assertions.
//
// The model is deliberately strict: lane counts, write-enable latching,
// quad-enable gating, and dummy-cycle agreement are all enforced, so a
// driver bug surfaces as a transport error rather than silent corruption.
type Device struct {
	family   flash.Family
	mem      []byte
	security [3][256]byte
	sfdp     [256]byte
	unique   [8]byte

	status1 uint8
	status2 uint8
	status3 uint8
	param   uint8
	dummy   uint8
	extAddr uint8

	wel        bool
	volatileWE bool
	qspi       bool
	addr4      bool
	powered    bool
	resetArmed bool
	suspended  bool
	wrap       uint8

	locks map[uint32]bool

	busyPolls int
	busyLeft  int

	frames []Record

	initCount   int
	deinitCount int

	// Hook, when non-nil, runs before each frame is decoded; a non-nil
	// return is surfaced as the transport error for that frame.
	Hook func(f *hal.Frame) error

	// InitErr, when non-nil, is returned by Init.
	InitErr error
}

// New creates a powered, erased device.
func New(cfg Config) *Device {
	family := cfg.Family
	if !family.Valid() {
		family = flash.W25Q128
	}
	d := &Device{
		family:    family,
		mem:       make([]byte, family.Capacity()),
		locks:     make(map[uint32]bool),
		powered:   true,
		dummy:     8,
		busyPolls: cfg.BusyPolls,
	}
	for i := range d.mem {
		d.mem[i] = 0xFF
	}
	for i := range d.security {
		for j := range d.security[i] {
			d.security[i][j] = 0xFF
		}
	}
	copy(d.sfdp[:4], []byte{'S', 'F', 'D', 'P'})
	copy(d.unique[:], []byte{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7})
	if cfg.QuadEnable {
		d.status2 |= statusQE
	}
	return d
}

// Status bits the model maintains.
const (
	statusBusy = 1 << 0
	statusWEL  = 1 << 1
	statusQE   = 1 << 1
	statusSUS  = 1 << 7
	statusADS  = 1 << 0
)

// Init implements hal.Transport.
func (d *Device) Init() error {
	if d.InitErr != nil {
		return d.InitErr
	}
	d.initCount++
	return nil
}

// Deinit implements hal.Transport.
func (d *Device) Deinit() error {
	d.deinitCount++
	return nil
}

// WriteRead implements hal.Transport: it decodes one frame, validates it
// against the device state, executes it, and records it.
func (d *Device) WriteRead(f *hal.Frame) error {
	if d.Hook != nil {
		if err := d.Hook(f); err != nil {
			return err
		}
	}
	if f.Raw() {
		return d.execRaw(f)
	}
	return d.execStructured(f)
}

// Frames returns every frame observed since the last ClearFrames.
func (d *Device) Frames() []Record {
	return d.frames
}

// Opcodes returns the opcode sequence observed since the last ClearFrames.
func (d *Device) Opcodes() []uint8 {
	ops := make([]uint8, len(d.frames))
	for i, r := range d.frames {
		ops[i] = r.Opcode
	}
	return ops
}

// CountOpcode returns how many recorded frames carried the opcode.
func (d *Device) CountOpcode(opcode uint8) int {
	n := 0
	for _, r := range d.frames {
		if r.Opcode == opcode {
			n++
		}
	}
	return n
}

// ClearFrames discards the frame log.
func (d *Device) ClearFrames() {
	d.frames = nil
}

// Mem exposes the array image.
func (d *Device) Mem() []byte {
	return d.mem
}

// Fill stores raw bytes into the array image without command traffic,
// bypassing program semantics. Tests use it to seed preconditions.
func (d *Device) Fill(addr uint32, data []byte) {
	copy(d.mem[addr:], data)
}

// Powered reports whether the device is out of power-down.
func (d *Device) Powered() bool {
	return d.powered
}

// QSPIActive reports whether the 4-lane command decoder is engaged.
func (d *Device) QSPIActive() bool {
	return d.qspi
}

// AddressMode4 reports whether the device is in 4-byte address mode.
func (d *Device) AddressMode4() bool {
	return d.addr4
}

// InitCount returns the number of transport Init calls.
func (d *Device) InitCount() int {
	return d.initCount
}

// DeinitCount returns the number of transport Deinit calls.
func (d *Device) DeinitCount() int {
	return d.deinitCount
}

// addrWidth is the address byte count the device consumes on the raw
// path, governed by its own address mode.
func (d *Device) addrWidth() int {
	if d.addr4 {
		return 4
	}
	return 3
}

// resolve applies the extended address register to a 3-byte address on
// devices larger than 16 MiB.
func (d *Device) resolve(addr uint32, addrBytes int) uint32 {
	if addrBytes == 3 && d.family.Capacity() > 1<<24 {
		return uint32(d.extAddr)<<24 | addr
	}
	return addr
}

// record appends a frame to the log.
func (d *Device) record(r Record, payload []byte) {
	if len(payload) > 0 {
		r.Write = append([]byte(nil), payload...)
	}
	d.frames = append(d.frames, r)
}

// execRaw decodes the legacy single-lane byte stream.
func (d *Device) execRaw(f *hal.Frame) error {
	if d.qspi {
		// A single-lane stream while the 4-lane decoder is engaged is a
		// driver sequencing bug.
		return fmt.Errorf("%w: raw frame in QSPI mode", ErrLaneMismatch)
	}
	stream := f.Write
	opcode := stream[0]
	body := stream[1:]

	if !d.powered && opcode != opReleasePowerDown {
		return fmt.Errorf("%w: opcode %#02x", ErrNotPowered, opcode)
	}

	rec := Record{Opcode: opcode, Raw: true, DataLanes: f.DataLanes, ReadLen: len(f.Read)}

	switch opcode {
	case opWriteEnable, opWriteDisable, opVolatileSRWriteEnable,
		opEnableReset, opResetDevice, opPowerDown, opChipErase,
		opSuspend, opResume, opGlobalLock, opGlobalUnlock,
		opEnterQSPI, opEnter4Byte, opExit4Byte:
		d.record(rec, nil)
		return d.execControl(opcode)

	case opReleasePowerDown:
		d.record(rec, nil)
		d.powered = true
		if len(f.Read) > 0 {
			f.Read[0] = uint8(d.family & 0xFF)
		}
		return nil

	case opReadStatus1, opReadStatus2, opReadStatus3:
		d.record(rec, nil)
		return d.readStatus(opcode, f.Read)

	case opWriteStatus1, opWriteStatus2, opWriteStatus3, opWriteExtAddr:
		if len(body) < 1 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		d.record(rec, body[:1])
		return d.writeStatus(opcode, body[0])

	case opReadData, opFastRead:
		width := d.addrWidth()
		dummy := 0
		if opcode == opFastRead {
			dummy = 1
		}
		if len(body) < width+dummy {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := d.resolve(bigEndian(body[:width]), width)
		rec.Address = addr
		rec.AddressBytes = uint8(width)
		d.record(rec, nil)
		return d.readArray(addr, f.Read)

	case opPageProgram:
		width := d.addrWidth()
		if len(body) < width {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := d.resolve(bigEndian(body[:width]), width)
		rec.Address = addr
		rec.AddressBytes = uint8(width)
		d.record(rec, body[width:])
		return d.programArray(addr, body[width:])

	case opSectorErase, opBlockErase32, opBlockErase64:
		width := d.addrWidth()
		if len(body) < width {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := d.resolve(bigEndian(body[:width]), width)
		rec.Address = addr
		rec.AddressBytes = uint8(width)
		d.record(rec, nil)
		return d.eraseArray(opcode, addr)

	case opDeviceID:
		if len(body) < 3 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		d.record(rec, nil)
		return d.readDeviceID(f.Read)

	case opJEDECID:
		d.record(rec, nil)
		return d.readJEDECID(f.Read)

	case opUniqueID:
		// Opcode, address-width filler, one dummy byte.
		if len(body) < d.addrWidth()+1 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		d.record(rec, nil)
		copy(f.Read, d.unique[:])
		return nil

	case opReadSFDP:
		if len(body) < 4 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := bigEndian(body[:3])
		rec.Address = addr
		d.record(rec, nil)
		copy(f.Read, d.sfdp[addr&0xFF:])
		return nil

	case opReadSecurity:
		width := d.addrWidth()
		if len(body) < width+1 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := bigEndian(body[:width])
		rec.Address = addr
		d.record(rec, nil)
		return d.readSecurity(addr, f.Read)

	case opProgramSecurity:
		width := d.addrWidth()
		if len(body) < width {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := bigEndian(body[:width])
		rec.Address = addr
		d.record(rec, body[width:])
		return d.programSecurity(addr, body[width:])

	case opEraseSecurity:
		width := d.addrWidth()
		if len(body) < width {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := bigEndian(body[:width])
		rec.Address = addr
		d.record(rec, nil)
		return d.eraseSecurity(addr)

	case opBlockLock, opBlockUnlock, opReadLock:
		width := d.addrWidth()
		if len(body) < width {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		addr := d.resolve(bigEndian(body[:width]), width)
		rec.Address = addr
		d.record(rec, nil)
		return d.execLock(opcode, addr, f.Read)

	default:
		return fmt.Errorf("%w: %#02x on raw path", ErrUnknownOpcode, opcode)
	}
}

// execStructured decodes a frame with explicit phases.
func (d *Device) execStructured(f *hal.Frame) error {
	opcode := f.Instruction

	if d.qspi && f.InstructionLanes != hal.LanesQuad {
		return fmt.Errorf("%w: instruction on %v lanes in QSPI mode",
			ErrLaneMismatch, f.InstructionLanes)
	}
	if !d.qspi && f.InstructionLanes != hal.LanesSingle {
		return fmt.Errorf("%w: instruction on %v lanes in SPI mode",
			ErrLaneMismatch, f.InstructionLanes)
	}
	if !d.powered && opcode != opReleasePowerDown {
		return fmt.Errorf("%w: opcode %#02x", ErrNotPowered, opcode)
	}
	if err := d.checkQuadGate(f); err != nil {
		return err
	}

	addrBytes := int(f.AddressBytes)
	addr := d.resolve(f.Address, addrBytes)

	rec := Record{
		Opcode:       opcode,
		Instruction:  f.InstructionLanes,
		AddressLanes: f.AddressLanes,
		AddressBytes: f.AddressBytes,
		Address:      addr,
		DataLanes:    f.DataLanes,
		DummyCycles:  f.DummyCycles,
		ReadLen:      len(f.Read),
	}

	switch opcode {
	case opWriteEnable, opWriteDisable, opVolatileSRWriteEnable,
		opEnableReset, opResetDevice, opPowerDown, opChipErase,
		opSuspend, opResume, opGlobalLock, opGlobalUnlock,
		opExitQSPI, opEnter4Byte, opExit4Byte:
		d.record(rec, nil)
		return d.execControl(opcode)

	case opReleasePowerDown:
		d.record(rec, nil)
		d.powered = true
		if len(f.Read) > 0 {
			f.Read[0] = uint8(d.family & 0xFF)
		}
		return nil

	case opReadStatus1, opReadStatus2, opReadStatus3:
		d.record(rec, nil)
		return d.readStatus(opcode, f.Read)

	case opWriteStatus1, opWriteStatus2, opWriteStatus3, opWriteExtAddr:
		if len(f.Write) < 1 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		d.record(rec, f.Write[:1])
		return d.writeStatus(opcode, f.Write[0])

	case opSetReadParams:
		if !d.qspi {
			return fmt.Errorf("%w: %#02x outside QSPI mode", ErrUnknownOpcode, opcode)
		}
		if len(f.Write) < 1 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		d.record(rec, f.Write[:1])
		d.param = f.Write[0]
		d.dummy = 2 * ((d.param >> 4) + 1)
		return nil

	case opFastRead, opFastReadDual, opFastReadQuad,
		opFastReadDualIO, opFastReadQuadIO, opWordReadQuadIO, opOctalWordReadQuadIO:
		if err := d.checkReadDummy(f); err != nil {
			return err
		}
		d.record(rec, nil)
		return d.readArray(addr, f.Read)

	case opPageProgram, opQuadPageProgram:
		d.record(rec, f.Write)
		return d.programArray(addr, f.Write)

	case opSectorErase, opBlockErase32, opBlockErase64:
		d.record(rec, nil)
		return d.eraseArray(opcode, addr)

	case opDeviceID, opDeviceIDDualIO, opDeviceIDQuadIO:
		d.record(rec, nil)
		return d.readDeviceID(f.Read)

	case opJEDECID:
		d.record(rec, nil)
		return d.readJEDECID(f.Read)

	case opBurstWrap:
		if len(f.Write) < 1 {
			return fmt.Errorf("%w: opcode %#02x", ErrShortFrame, opcode)
		}
		d.record(rec, f.Write[:1])
		d.wrap = f.Write[0]
		return nil

	case opBlockLock, opBlockUnlock, opReadLock:
		d.record(rec, nil)
		return d.execLock(opcode, addr, f.Read)

	default:
		return fmt.Errorf("%w: %#02x on structured path", ErrUnknownOpcode, opcode)
	}
}

// checkQuadGate rejects quad-lane data phases issued in SPI mode before
// the quad-enable bit is set, mirroring a real device that would drive
// nothing on the extra lanes.
func (d *Device) checkQuadGate(f *hal.Frame) error {
	if d.qspi || d.status2&statusQE != 0 {
		return nil
	}
	if f.DataLanes == hal.LanesQuad || f.AddressLanes == hal.LanesQuad {
		return fmt.Errorf("%w: opcode %#02x", ErrQENotSet, f.Instruction)
	}
	return nil
}

// checkReadDummy verifies the driver's dummy cycles agree with the read
// parameters register for the quad I/O reads the register governs.
func (d *Device) checkReadDummy(f *hal.Frame) error {
	if !d.qspi {
		return nil
	}
	if f.Instruction == opFastRead || f.Instruction == opFastReadQuadIO {
		if f.DummyCycles != d.dummy {
			return fmt.Errorf("%w: opcode %#02x has %d, device expects %d",
				ErrDummyMismatch, f.Instruction, f.DummyCycles, d.dummy)
		}
	}
	return nil
}

// execControl dispatches the bare opcodes.
func (d *Device) execControl(opcode uint8) error {
	switch opcode {
	case opWriteEnable:
		d.wel = true
	case opWriteDisable:
		d.wel = false
	case opVolatileSRWriteEnable:
		d.volatileWE = true
	case opEnableReset:
		d.resetArmed = true
	case opResetDevice:
		if d.resetArmed {
			d.reset()
		}
	case opPowerDown:
		d.powered = false
	case opChipErase:
		if !d.wel {
			return fmt.Errorf("%w: chip erase", ErrWELNotSet)
		}
		for i := range d.mem {
			d.mem[i] = 0xFF
		}
		d.wel = false
		d.busyLeft = d.busyPolls
	case opSuspend:
		d.suspended = true
		d.status2 |= statusSUS
	case opResume:
		d.suspended = false
		d.status2 &^= statusSUS
	case opGlobalLock:
		if !d.wel {
			return fmt.Errorf("%w: global lock", ErrWELNotSet)
		}
		for block := uint32(0); block < d.family.Capacity(); block += 1 << 16 {
			d.locks[block] = true
		}
		d.wel = false
	case opGlobalUnlock:
		if !d.wel {
			return fmt.Errorf("%w: global unlock", ErrWELNotSet)
		}
		d.locks = make(map[uint32]bool)
		d.wel = false
	case opEnterQSPI:
		if d.status2&statusQE != 0 {
			d.qspi = true
		}
	case opExitQSPI:
		d.qspi = false
	case opEnter4Byte:
		if d.family == flash.W25Q256 {
			d.addr4 = true
			d.status3 |= statusADS
		}
	case opExit4Byte:
		d.addr4 = false
		d.status3 &^= statusADS
	}
	return nil
}

// reset restores power-on defaults without touching the array.
func (d *Device) reset() {
	d.qspi = false
	d.addr4 = false
	d.wel = false
	d.volatileWE = false
	d.resetArmed = false
	d.suspended = false
	d.busyLeft = 0
	d.extAddr = 0
	d.status1 = 0
	d.status3 = 0
	d.dummy = 8
}

func (d *Device) readStatus(opcode uint8, out []byte) error {
	if len(out) < 1 {
		return fmt.Errorf("%w: status read without buffer", ErrShortFrame)
	}
	switch opcode {
	case opReadStatus1:
		value := d.status1
		if d.wel {
			value |= statusWEL
		}
		if d.busyLeft > 0 {
			value |= statusBusy
			d.busyLeft--
		}
		out[0] = value
	case opReadStatus2:
		out[0] = d.status2
	case opReadStatus3:
		out[0] = d.status3
	}
	return nil
}

func (d *Device) writeStatus(opcode uint8, value uint8) error {
	if !d.wel && !d.volatileWE {
		return fmt.Errorf("%w: status write %#02x", ErrWELNotSet, opcode)
	}
	switch opcode {
	case opWriteStatus1:
		d.status1 = value &^ (statusBusy | statusWEL)
	case opWriteStatus2:
		d.status2 = value
	case opWriteStatus3:
		d.status3 = value
	case opWriteExtAddr:
		d.extAddr = value
	}
	d.wel = false
	d.volatileWE = false
	d.busyLeft = d.busyPolls
	return nil
}

func (d *Device) readArray(addr uint32, out []byte) error {
	if int(addr)+len(out) > len(d.mem) {
		return fmt.Errorf("%w: %#x+%d", ErrAddressRange, addr, len(out))
	}
	copy(out, d.mem[addr:])
	return nil
}

// programArray clears bits within a single page; the address wraps inside
// the page the way the silicon does.
func (d *Device) programArray(addr uint32, data []byte) error {
	if !d.wel {
		return fmt.Errorf("%w: program at %#x", ErrWELNotSet, addr)
	}
	if int(addr) >= len(d.mem) {
		return fmt.Errorf("%w: %#x", ErrAddressRange, addr)
	}
	page := addr &^ 0xFF
	offset := addr & 0xFF
	for i, b := range data {
		d.mem[page+(offset+uint32(i))%256] &= b
	}
	d.wel = false
	d.busyLeft = d.busyPolls
	return nil
}

func (d *Device) eraseArray(opcode uint8, addr uint32) error {
	if !d.wel {
		return fmt.Errorf("%w: erase at %#x", ErrWELNotSet, addr)
	}
	var size uint32
	switch opcode {
	case opSectorErase:
		size = 4096
	case opBlockErase32:
		size = 32 * 1024
	case opBlockErase64:
		size = 64 * 1024
	}
	base := addr &^ (size - 1)
	if int(base) >= len(d.mem) {
		return fmt.Errorf("%w: %#x", ErrAddressRange, addr)
	}
	for i := base; i < base+size && int(i) < len(d.mem); i++ {
		d.mem[i] = 0xFF
	}
	d.wel = false
	d.busyLeft = d.busyPolls
	return nil
}

func (d *Device) readDeviceID(out []byte) error {
	if len(out) < 2 {
		return fmt.Errorf("%w: device id read", ErrShortFrame)
	}
	out[0] = uint8(d.family >> 8)
	out[1] = uint8(d.family & 0xFF)
	return nil
}

func (d *Device) readJEDECID(out []byte) error {
	if len(out) < 3 {
		return fmt.Errorf("%w: jedec id read", ErrShortFrame)
	}
	out[0] = uint8(d.family >> 8)
	out[1] = 0x40
	// Capacity code is log2 of the array size.
	code := uint8(20 + (d.family - flash.W25Q80))
	out[2] = code
	return nil
}

// securityIndex maps the A[15:12] slot onto a region, or -1.
func securityIndex(addr uint32) int {
	switch addr & 0xF000 {
	case 0x1000:
		return 0
	case 0x2000:
		return 1
	case 0x3000:
		return 2
	default:
		return -1
	}
}

func (d *Device) readSecurity(addr uint32, out []byte) error {
	idx := securityIndex(addr)
	if idx < 0 {
		return fmt.Errorf("%w: security register %#x", ErrAddressRange, addr)
	}
	copy(out, d.security[idx][addr&0xFF:])
	return nil
}

func (d *Device) programSecurity(addr uint32, data []byte) error {
	if !d.wel {
		return fmt.Errorf("%w: security program", ErrWELNotSet)
	}
	idx := securityIndex(addr)
	if idx < 0 {
		return fmt.Errorf("%w: security register %#x", ErrAddressRange, addr)
	}
	offset := addr & 0xFF
	for i, b := range data {
		d.security[idx][(offset+uint32(i))%256] &= b
	}
	d.wel = false
	d.busyLeft = d.busyPolls
	return nil
}

func (d *Device) eraseSecurity(addr uint32) error {
	if !d.wel {
		return fmt.Errorf("%w: security erase", ErrWELNotSet)
	}
	idx := securityIndex(addr)
	if idx < 0 {
		return fmt.Errorf("%w: security register %#x", ErrAddressRange, addr)
	}
	for i := range d.security[idx] {
		d.security[idx][i] = 0xFF
	}
	d.wel = false
	d.busyLeft = d.busyPolls
	return nil
}

func (d *Device) execLock(opcode uint8, addr uint32, out []byte) error {
	block := addr &^ 0xFFFF
	switch opcode {
	case opBlockLock:
		if !d.wel {
			return fmt.Errorf("%w: block lock", ErrWELNotSet)
		}
		d.locks[block] = true
		d.wel = false
	case opBlockUnlock:
		if !d.wel {
			return fmt.Errorf("%w: block unlock", ErrWELNotSet)
		}
		d.locks[block] = false
		d.wel = false
	case opReadLock:
		if len(out) < 1 {
			return fmt.Errorf("%w: read lock", ErrShortFrame)
		}
		out[0] = 0
		if d.locks[block] {
			out[0] = 1
		}
	}
	return nil
}

// bigEndian folds up to 4 big-endian bytes into a uint32.
func bigEndian(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// Opcode constants the model decodes, mirroring the driver's command set.
const (
	opWriteStatus1          = 0x01
	opPageProgram           = 0x02
	opReadData              = 0x03
	opWriteDisable          = 0x04
	opReadStatus1           = 0x05
	opWriteEnable           = 0x06
	opFastRead              = 0x0B
	opWriteStatus3          = 0x11
	opReadStatus3           = 0x15
	opSectorErase           = 0x20
	opWriteStatus2          = 0x31
	opQuadPageProgram       = 0x32
	opReadStatus2           = 0x35
	opBlockLock             = 0x36
	opEnterQSPI             = 0x38
	opBlockUnlock           = 0x39
	opFastReadDual          = 0x3B
	opReadLock              = 0x3D
	opProgramSecurity       = 0x42
	opEraseSecurity         = 0x44
	opReadSecurity          = 0x48
	opUniqueID              = 0x4B
	opVolatileSRWriteEnable = 0x50
	opBlockErase32          = 0x52
	opReadSFDP              = 0x5A
	opEnableReset           = 0x66
	opFastReadQuad          = 0x6B
	opSuspend               = 0x75
	opBurstWrap             = 0x77
	opResume                = 0x7A
	opGlobalLock            = 0x7E
	opDeviceID              = 0x90
	opDeviceIDDualIO        = 0x92
	opDeviceIDQuadIO        = 0x94
	opGlobalUnlock          = 0x98
	opResetDevice           = 0x99
	opJEDECID               = 0x9F
	opReleasePowerDown      = 0xAB
	opEnter4Byte            = 0xB7
	opPowerDown             = 0xB9
	opFastReadDualIO        = 0xBB
	opSetReadParams         = 0xC0
	opWriteExtAddr          = 0xC5
	opChipErase             = 0xC7
	opBlockErase64          = 0xD8
	opOctalWordReadQuadIO   = 0xE3
	opWordReadQuadIO        = 0xE7
	opExit4Byte             = 0xE9
	opFastReadQuadIO        = 0xEB
	opExitQSPI              = 0xFF
)

var _ hal.Transport = (*Device)(nil)
