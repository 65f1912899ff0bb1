package types

// ------------------------
// LED arrays
// ------------------------

// Brightness bounds shared by every LED array.
const (
	BrightnessMin uint8 = 0
	BrightnessMax uint8 = 100
)

type LEDArrayInfo struct {
	Count  int    `json:"count"`
	Driver string `json:"driver"`
}

type LEDArrayValue struct {
	Level uint8 `json:"level"` // 0..100, applied to every LED in the array
}

// ------------------------
// Host transport
// ------------------------

type Transport uint8

const (
	TransportWireless Transport = iota
	TransportUSB
)

func (t Transport) String() string {
	if t == TransportUSB {
		return "usb"
	}
	return "wireless"
}

// ------------------------
// Lighting configuration (config/lighting)
// ------------------------

type LightingConfig struct {
	Backlight LEDArrayConfig `yaml:"backlight" json:"backlight"`
	Trackpad  LEDArrayConfig `yaml:"trackpad" json:"trackpad"`
}

type LEDArrayConfig struct {
	Name   string `yaml:"name" json:"name"`
	Count  int    `yaml:"count" json:"count"`
	Driver string `yaml:"driver" json:"driver"`       // "memory" | "pca963x"
	Bus    string `yaml:"bus,omitempty" json:"bus"`   // e.g. "i2c0"
	Addr   uint16 `yaml:"addr,omitempty" json:"addr"` // I2C address
}

type HeartbeatConfig struct {
	IntervalS int `yaml:"interval" json:"interval"`
}
