package flash

import (
	"fmt"

	"github.com/ardnew/w25q/pkg"
)

// ManufacturerDeviceID probes the chip with 0x90 and returns the
// manufacturer byte (0xEF for Winbond) and the device id byte.
func (f *Flash) ManufacturerDeviceID() (manufacturer, device uint8, err error) {
	if !f.inited {
		return 0, 0, pkg.ErrNotInitialized
	}
	return f.probeID()
}

// probeID reads the manufacturer/device pair without the initialization
// gate; Init verifies silicon identity through it.
func (f *Flash) probeID() (manufacturer, device uint8, err error) {
	var id [2]byte
	if err := f.exec(opDeviceID, cmdManufacturerDeviceID, 0, true, nil, id[:]); err != nil {
		return 0, 0, err
	}
	return id[0], id[1], nil
}

// ManufacturerDeviceIDDualIO probes with 0x92, address and data on two
// lanes. Requires SPI mode with dual/quad authorization.
func (f *Flash) ManufacturerDeviceIDDualIO() (manufacturer, device uint8, err error) {
	if !f.inited {
		return 0, 0, pkg.ErrNotInitialized
	}
	var id [2]byte
	if err := f.exec(opDeviceIDDualIO, cmdDeviceIDDualIO, 0, true, nil, id[:]); err != nil {
		return 0, 0, err
	}
	return id[0], id[1], nil
}

// ManufacturerDeviceIDQuadIO probes with 0x94, address and data on four
// lanes. Requires SPI mode with dual/quad authorization.
func (f *Flash) ManufacturerDeviceIDQuadIO() (manufacturer, device uint8, err error) {
	if !f.inited {
		return 0, 0, pkg.ErrNotInitialized
	}
	var id [2]byte
	if err := f.exec(opDeviceIDQuadIO, cmdDeviceIDQuadIO, 0, true, nil, id[:]); err != nil {
		return 0, 0, err
	}
	return id[0], id[1], nil
}

// JEDECID reads the three-byte JEDEC identifier (0x9F): manufacturer,
// memory type, and capacity.
func (f *Flash) JEDECID() (manufacturer uint8, device [2]uint8, err error) {
	if !f.inited {
		return 0, device, pkg.ErrNotInitialized
	}
	var id [3]byte
	if err := f.exec(opStatusRead, cmdJEDECID, 0, false, nil, id[:]); err != nil {
		return 0, device, err
	}
	return id[0], [2]uint8{id[1], id[2]}, nil
}

// UniqueID reads the factory-programmed 64-bit serial number (0x4B).
// SPI interface only.
func (f *Flash) UniqueID() ([8]byte, error) {
	var id [8]byte
	if !f.inited {
		return id, pkg.ErrNotInitialized
	}
	if err := f.exec(opUniqueID, cmdReadUniqueID, 0, true, nil, id[:]); err != nil {
		return id, err
	}
	return id, nil
}

// SFDP reads the 256-byte Serial Flash Discoverable Parameters block
// (0x5A) into sfdp, which must hold at least 256 bytes. SPI interface
// only.
func (f *Flash) SFDP(sfdp []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if len(sfdp) < 256 {
		return fmt.Errorf("sfdp: %w", pkg.ErrBufferTooSmall)
	}
	return f.exec(opSFDP, cmdReadSFDP, 0, true, nil, sfdp[:256])
}

// ReadSecurityRegister reads one 256-byte security register (0x48) into
// out, which must hold at least 256 bytes. SPI interface only.
func (f *Flash) ReadSecurityRegister(reg SecurityRegister, out []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if !reg.Valid() {
		return fmt.Errorf("read security register: %w", pkg.ErrInvalidAddress)
	}
	if len(out) < 256 {
		return fmt.Errorf("read security register: %w", pkg.ErrBufferTooSmall)
	}
	return f.exec(opSecurityRegRead, cmdReadSecurityReg, uint32(reg), true, nil, out[:256])
}

// ProgramSecurityRegister programs one 256-byte security register (0x42).
// data must be exactly 256 bytes. The region must be erased first and may
// be locked permanently via the LB bits in status register 2. SPI
// interface only.
func (f *Flash) ProgramSecurityRegister(reg SecurityRegister, data []byte) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if !reg.Valid() {
		return fmt.Errorf("program security register: %w", pkg.ErrInvalidAddress)
	}
	if len(data) != 256 {
		return fmt.Errorf("program security register: %w", pkg.ErrInvalidLength)
	}
	if _, err := f.template(opSecurityRegWrite); err != nil {
		return err
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opSecurityRegWrite, cmdProgramSecurityReg, uint32(reg), true, data, nil); err != nil {
		return err
	}
	if err := f.waitIdle(timeoutSecurityReg, pollProgram); err != nil {
		return fmt.Errorf("program security register: %w", err)
	}
	return nil
}

// EraseSecurityRegister erases one security register (0x44). SPI
// interface only.
func (f *Flash) EraseSecurityRegister(reg SecurityRegister) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if !reg.Valid() {
		return fmt.Errorf("erase security register: %w", pkg.ErrInvalidAddress)
	}
	if _, err := f.template(opSecurityRegErase); err != nil {
		return err
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opSecurityRegErase, cmdEraseSecurityReg, uint32(reg), true, nil, nil); err != nil {
		return err
	}
	if err := f.waitIdle(timeoutSecurityReg, pollProgram); err != nil {
		return fmt.Errorf("erase security register: %w", err)
	}
	return nil
}

// IndividualBlockLock write-protects the block or sector containing addr
// (0x36). Effective when WPS is set in status register 3.
func (f *Flash) IndividualBlockLock(addr uint32) error {
	return f.blockLock(cmdIndividualBlockLock, addr, "individual block lock")
}

// IndividualBlockUnlock releases the block or sector containing addr
// (0x39).
func (f *Flash) IndividualBlockUnlock(addr uint32) error {
	return f.blockLock(cmdIndividualBlockUnlock, addr, "individual block unlock")
}

func (f *Flash) blockLock(opcode uint8, addr uint32, what string) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if err := f.extendedAddressPrefix(addr); err != nil {
		return err
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	if err := f.exec(opBlockLock, opcode, addr, true, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// ReadBlockLock returns the lock state of the block or sector containing
// addr (0x3D): bit 0 set means locked.
func (f *Flash) ReadBlockLock(addr uint32) (uint8, error) {
	if !f.inited {
		return 0, pkg.ErrNotInitialized
	}
	if err := f.extendedAddressPrefix(addr); err != nil {
		return 0, err
	}
	var value [1]byte
	if err := f.exec(opBlockLockRead, cmdReadBlockLock, addr, true, nil, value[:]); err != nil {
		return 0, err
	}
	return value[0], nil
}

// GlobalBlockLock write-protects the whole array (0x7E).
func (f *Flash) GlobalBlockLock() error {
	return f.globalLock(cmdGlobalBlockLock)
}

// GlobalBlockUnlock releases the whole array (0x98).
func (f *Flash) GlobalBlockUnlock() error {
	return f.globalLock(cmdGlobalBlockUnlock)
}

func (f *Flash) globalLock(opcode uint8) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	if err := f.writeEnable(); err != nil {
		return err
	}
	return f.exec(opControl, opcode, 0, false, nil, nil)
}

// SetBurstWithWrap configures the wrap-around window used by subsequent
// read bursts (0x77). Requires SPI mode with dual/quad authorization; the
// QSPI engine configures wrap through SetReadParameters instead.
func (f *Flash) SetBurstWithWrap(wrap BurstWrap) error {
	if !f.inited {
		return pkg.ErrNotInitialized
	}
	payload := [1]byte{byte(wrap)}
	return f.exec(opBurstWrap, cmdSetBurstWithWrap, 0, true, payload[:], nil)
}
