// Package pca963x provides a driver for the PCA9632/PCA9633 4-channel I2C
// PWM LED controllers.
//
//	d := pca963x.New(i2c)
//	err := d.Configure(pca963x.Config{Channels: 2})
//	err = d.SetBrightness(0, 60) // percent
//
// Brightness is given in percent (0..100) and scaled to the 8-bit PWM duty.
// Each channel is put under individual PWM control at Configure time.
package pca963x

import (
	"errors"

	"tinygo.org/x/drivers"

	"keylight-go/x/mathx"
)

// Address is the default 7-bit I2C address (PCA9632).
const Address = 0x62

// MaxChannels is the number of PWM outputs on the part.
const MaxChannels = 4

// Registers.
const (
	regMode1  = 0x00
	regMode2  = 0x01
	regPWM0   = 0x02
	regGrpPWM = 0x06
	regLEDOut = 0x08

	autoIncrement = 0x80 // OR'd into the control register for burst writes

	mode1Normal   = 0x00 // oscillator on, no sub-addresses
	mode2OutDrive = 0x04 // totem-pole outputs
	ledOutPWM     = 0xAA // LDRx=10 on all four outputs
)

var (
	ErrChannel       = errors.New("pca963x: channel out of range")
	ErrNotConfigured = errors.New("pca963x: not configured")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x62 if zero.
	Address uint16
	// Channels is the number of populated outputs, 1..4. Default 4.
	Channels int
	// Invert sets MODE2.INVRT for LEDs wired to the supply.
	Invert bool
}

// Device wraps an I2C connection to a PCA963x device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	channels   int
	configured bool
	buf        [1 + MaxChannels]byte
}

// New creates a new device handle. The I2C bus must already be configured.
// It does not touch the device.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address, channels: MaxChannels}
}

// Configure wakes the controller, sets the output stage and hands every
// output to its PWM register. All channels start dark.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	d.channels = MaxChannels
	if cfg.Channels > 0 {
		d.channels = mathx.Min(cfg.Channels, MaxChannels)
	}
	d.configured = false

	mode2 := byte(mode2OutDrive)
	if cfg.Invert {
		mode2 |= 0x10
	}
	if err := d.writeReg(regMode1, mode1Normal); err != nil {
		return err
	}
	if err := d.writeReg(regMode2, mode2); err != nil {
		return err
	}
	if err := d.writeReg(regGrpPWM, 0xFF); err != nil {
		return err
	}
	if err := d.writeReg(regLEDOut, ledOutPWM); err != nil {
		return err
	}
	d.configured = true
	return d.SetAll(0)
}

// Ready reports whether Configure succeeded.
func (d *Device) Ready() bool { return d.configured }

// Count returns the number of populated channels.
func (d *Device) Count() int { return d.channels }

// SetBrightness sets channel i to level percent.
func (d *Device) SetBrightness(i int, level uint8) error {
	if !d.configured {
		return ErrNotConfigured
	}
	if i < 0 || i >= d.channels {
		return ErrChannel
	}
	return d.writeReg(byte(regPWM0+i), mathx.PercentToByte(level))
}

// SetAll sets every populated channel in one auto-increment burst.
func (d *Device) SetAll(level uint8) error {
	if !d.configured {
		return ErrNotConfigured
	}
	duty := mathx.PercentToByte(level)
	d.buf[0] = autoIncrement | regPWM0
	for i := 0; i < d.channels; i++ {
		d.buf[1+i] = duty
	}
	return d.bus.Tx(d.Address, d.buf[:1+d.channels], nil)
}

func (d *Device) writeReg(reg, val byte) error {
	d.buf[0], d.buf[1] = reg, val
	return d.bus.Tx(d.Address, d.buf[:2], nil)
}
