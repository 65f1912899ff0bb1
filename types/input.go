package types

// Event type identifiers for the input dispatcher.
const (
	TypeKeyStateChanged uint32 = iota + 1
)

// KeyStateChanged reports a key position going down or up.
type KeyStateChanged struct {
	Position int
	Pressed  bool
	TSms     int64
}

// Type implements the dispatcher event contract.
func (KeyStateChanged) Type() uint32 { return TypeKeyStateChanged }
