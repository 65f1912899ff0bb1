package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// SecondsSince returns whole seconds elapsed since t, saturating at zero.
func SecondsSince(t time.Time) uint32 {
	d := time.Since(t)
	if d < 0 {
		return 0
	}
	return uint32(d / time.Second)
}
