package indicator

import "keylight-go/types"

// State is the indicator sub-state. Higher values preempt lower ones.
type State uint8

const (
	StateIdle State = iota
	StateAutoOff
	StateBacklightMirror
	StateTouchOverride
	StateCapslockBreathe
	StateUSBFlash
)

func (s State) String() string {
	switch s {
	case StateAutoOff:
		return "auto_off"
	case StateBacklightMirror:
		return "backlight_mirror"
	case StateTouchOverride:
		return "touch_override"
	case StateCapslockBreathe:
		return "capslock_breathe"
	case StateUSBFlash:
		return "usb_flash"
	default:
		return "idle"
	}
}

// snapshot is one poll's worth of sampled signals.
type snapshot struct {
	transport types.Transport
	capslock  bool
	touch     bool
	active    bool
	backlight uint8

	// backlightRaised is derived: the commanded backlight changed to a
	// non-zero level while capslock and touch were both inactive.
	backlightRaised bool
}

// arbitrate picks the sub-state for in, checking triggers in priority
// order. cur only matters once no trigger holds: a released touch decays
// into AutoOff and a pending auto-off keeps its state until it fires.
func arbitrate(cur State, in snapshot) State {
	switch {
	case in.transport == types.TransportUSB:
		return StateUSBFlash
	case in.capslock:
		return StateCapslockBreathe
	case in.touch:
		return StateTouchOverride
	case in.backlightRaised:
		return StateBacklightMirror
	}
	switch cur {
	case StateTouchOverride:
		return StateAutoOff
	case StateAutoOff, StateBacklightMirror:
		return cur
	default:
		return StateIdle
	}
}
