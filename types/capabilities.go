package types

// ------------------------
// Capability kinds
// ------------------------

type Kind string

const (
	KindLEDArray Kind = "led_array"
)
