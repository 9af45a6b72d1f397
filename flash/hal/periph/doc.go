// Package periph adapts the w25q transport contract onto a plain SPI
// controller through periph.io.
//
// It serves single-lane frames only: the opcode, address, alternate, and
// dummy phases are flattened into one contiguous byte stream and shifted
// out full-duplex, with the receive payload clocked in behind the header.
// Dual- and quad-lane frames are rejected with [ErrMultiLane]; pair this
// adapter with a handle configured for single SPI without dual/quad
// authorization.
//
//	port, _ := spireg.Open("")
//	t := periph.New(periph.Config{Port: port})
//	dev, _ := flash.New(flash.Config{
//		Family:    flash.W25Q64,
//		Interface: flash.InterfaceSPI,
//		Transport: t,
//	})
package periph
