package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/w25q/flash/hal"
	"github.com/ardnew/w25q/pkg"
)

func handleFor(iface Interface, dualQuad bool) *Flash {
	return &Flash{
		family:   W25Q128,
		iface:    iface,
		dualQuad: dualQuad,
		dummy:    8,
	}
}

func TestModeIndex(t *testing.T) {
	assert.Equal(t, modeSPISingle, handleFor(InterfaceSPI, false).modeIndex())
	assert.Equal(t, modeSPIDualQuad, handleFor(InterfaceSPI, true).modeIndex())
	assert.Equal(t, modeQSPI, handleFor(InterfaceQSPI, false).modeIndex())
	assert.Equal(t, modeQSPI, handleFor(InterfaceQSPI, true).modeIndex())
}

func TestTemplateRejections(t *testing.T) {
	tests := []struct {
		name     string
		op       opClass
		iface    Interface
		dualQuad bool
		rejected bool
	}{
		{"read data spi", opReadData, InterfaceSPI, false, false},
		{"read data qspi", opReadData, InterfaceQSPI, false, true},
		{"dual output single spi", opFastReadDualOutput, InterfaceSPI, false, true},
		{"dual output dual quad", opFastReadDualOutput, InterfaceSPI, true, false},
		{"dual output qspi", opFastReadDualOutput, InterfaceQSPI, false, true},
		{"quad output single spi", opFastReadQuadOutput, InterfaceSPI, false, true},
		{"quad output dual quad", opFastReadQuadOutput, InterfaceSPI, true, false},
		{"dual io qspi", opFastReadDualIO, InterfaceQSPI, false, true},
		{"quad io single spi", opFastReadQuadIO, InterfaceSPI, false, true},
		{"quad io dual quad", opFastReadQuadIO, InterfaceSPI, true, false},
		{"quad io qspi", opFastReadQuadIO, InterfaceQSPI, false, false},
		{"word read qspi", opWordReadQuadIO, InterfaceQSPI, false, true},
		{"octal word qspi", opOctalWordReadQuadIO, InterfaceQSPI, false, true},
		{"quad page program single spi", opQuadPageProgram, InterfaceSPI, false, true},
		{"quad page program dual quad", opQuadPageProgram, InterfaceSPI, true, false},
		{"quad page program qspi", opQuadPageProgram, InterfaceQSPI, false, true},
		{"unique id qspi", opUniqueID, InterfaceQSPI, false, true},
		{"unique id spi", opUniqueID, InterfaceSPI, false, false},
		{"sfdp qspi", opSFDP, InterfaceQSPI, false, true},
		{"security read qspi", opSecurityRegRead, InterfaceQSPI, false, true},
		{"security write qspi", opSecurityRegWrite, InterfaceQSPI, true, true},
		{"device id dual io qspi", opDeviceIDDualIO, InterfaceQSPI, false, true},
		{"device id dual io single spi", opDeviceIDDualIO, InterfaceSPI, false, true},
		{"device id quad io dual quad", opDeviceIDQuadIO, InterfaceSPI, true, false},
		{"read parameters spi", opReadParameters, InterfaceSPI, true, true},
		{"read parameters qspi", opReadParameters, InterfaceQSPI, false, false},
		{"burst wrap single spi", opBurstWrap, InterfaceSPI, false, true},
		{"burst wrap dual quad", opBurstWrap, InterfaceSPI, true, false},
		{"burst wrap qspi", opBurstWrap, InterfaceQSPI, false, true},
		{"erase qspi", opErase, InterfaceQSPI, false, false},
		{"status read everywhere", opStatusRead, InterfaceQSPI, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := handleFor(tt.iface, tt.dualQuad)
			tmpl, err := f.template(tt.op)
			if tt.rejected {
				assert.ErrorIs(t, err, pkg.ErrUnsupportedInMode)
				assert.Nil(t, tmpl)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, tmpl)
		})
	}
}

func TestTemplateQSPIAlwaysQuadInstruction(t *testing.T) {
	f := handleFor(InterfaceQSPI, false)
	for op := range templates {
		tmpl, err := f.template(op)
		if err != nil {
			continue
		}
		if tmpl.raw {
			t.Errorf("op %d resolves to a raw template in QSPI mode", op)
			continue
		}
		assert.Equal(t, hal.LanesQuad, tmpl.instructionLanes, "op %d", op)
	}
}

func TestTemplateSingleSPIAlwaysRaw(t *testing.T) {
	f := handleFor(InterfaceSPI, false)
	for op := range templates {
		tmpl, err := f.template(op)
		if err != nil {
			continue
		}
		assert.True(t, tmpl.raw, "op %d resolved to a structured template in single SPI", op)
	}
}

func TestEncodeRawFastRead(t *testing.T) {
	f := handleFor(InterfaceSPI, false)
	tmpl, err := f.template(opFastRead)
	require.NoError(t, err)

	n, err := f.encodeRaw(tmpl, cmdFastRead, 0x123456, true, nil)
	require.NoError(t, err)
	// Opcode, 3 address bytes big-endian, one dummy byte.
	assert.Equal(t, []byte{0x0B, 0x12, 0x34, 0x56, 0x00}, f.cmd[:n])
}

func TestEncodeRaw4ByteAddress(t *testing.T) {
	f := handleFor(InterfaceSPI, false)
	f.family = W25Q256
	f.addrMode = AddressMode4Byte
	tmpl, err := f.template(opFastRead)
	require.NoError(t, err)

	n, err := f.encodeRaw(tmpl, cmdFastRead, 0x01234567, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0B, 0x01, 0x23, 0x45, 0x67, 0x00}, f.cmd[:n])
}

func TestEncodeRawFixedAddressWidth(t *testing.T) {
	// SFDP always carries a 3-byte address, even in 4-byte mode.
	f := handleFor(InterfaceSPI, false)
	f.family = W25Q256
	f.addrMode = AddressMode4Byte
	tmpl, err := f.template(opSFDP)
	require.NoError(t, err)

	n, err := f.encodeRaw(tmpl, cmdReadSFDP, 0, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5A, 0x00, 0x00, 0x00, 0x00}, f.cmd[:n])
}

func TestEncodeRawPayload(t *testing.T) {
	f := handleFor(InterfaceSPI, false)
	tmpl, err := f.template(opPageProgram)
	require.NoError(t, err)

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	n, err := f.encodeRaw(tmpl, cmdPageProgram, 0x000100, true, data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x00, 0x01, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}, f.cmd[:n])
}

func TestEncodeRawPayloadOverflow(t *testing.T) {
	f := handleFor(InterfaceSPI, false)
	tmpl, err := f.template(opPageProgram)
	require.NoError(t, err)

	huge := make([]byte, cmdBufSize)
	_, err = f.encodeRaw(tmpl, cmdPageProgram, 0, true, huge)
	assert.ErrorIs(t, err, pkg.ErrInvalidLength)
}

func TestAddressWidth(t *testing.T) {
	f := handleFor(InterfaceSPI, false)
	fixed := &frameTemplate{addressBytes: 3}
	follow := &frameTemplate{}

	assert.Equal(t, uint8(3), f.addressWidth(follow))
	f.addrMode = AddressMode4Byte
	assert.Equal(t, uint8(4), f.addressWidth(follow))
	assert.Equal(t, uint8(3), f.addressWidth(fixed))
}
