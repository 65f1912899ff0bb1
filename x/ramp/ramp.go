package ramp

import "keylight-go/x/mathx"

// Bounce is a triangular integer ramp between Lo and Hi.
// Level starts at Lo heading up and reverses direction at each bound.
type Bounce struct {
	Lo, Hi, Step uint8

	level uint8
	down  bool
}

// NewBounce returns a ramp positioned at lo, heading up.
func NewBounce(lo, hi, step uint8) Bounce {
	return Bounce{Lo: lo, Hi: hi, Step: step, level: lo}
}

// Reset rewinds to Lo, heading up.
func (b *Bounce) Reset() { b.level, b.down = b.Lo, false }

// Level is the value to emit on this tick.
func (b *Bounce) Level() uint8 { return b.level }

// Advance moves one step, reversing at the bounds. It returns the new level.
func (b *Bounce) Advance() uint8 {
	if b.down {
		if int(b.level)-int(b.Step) <= int(b.Lo) {
			b.level, b.down = b.Lo, false
		} else {
			b.level -= b.Step
		}
		return b.level
	}
	next := mathx.Min(int(b.level)+int(b.Step), int(b.Hi))
	b.level = uint8(next)
	if b.level >= b.Hi {
		b.down = true
	}
	return b.level
}

// Saturate is a one-directional ramp from Lo that holds at Hi.
type Saturate struct {
	Lo, Hi, Step uint8

	level uint8
}

func NewSaturate(lo, hi, step uint8) Saturate {
	return Saturate{Lo: lo, Hi: hi, Step: step, level: lo}
}

func (s *Saturate) Reset()       { s.level = s.Lo }
func (s *Saturate) Level() uint8 { return s.level }

// Done reports whether the ramp has reached Hi.
func (s *Saturate) Done() bool { return s.level >= s.Hi }

// Advance moves one step towards Hi and returns the new level.
func (s *Saturate) Advance() uint8 {
	s.level = uint8(mathx.Min(int(s.level)+int(s.Step), int(s.Hi)))
	return s.level
}
