package ledarray

import "sync"

// Memory is an in-process LED array. It backs host builds and tests.
type Memory struct {
	mu      sync.Mutex
	levels  []uint8
	ready   bool
	fail    map[int]error
	history []uint8
	writes  int
}

var _ Array = (*Memory)(nil)

// NewMemory returns a ready array of count LEDs, all at 0.
func NewMemory(count int) *Memory {
	return &Memory{levels: make([]uint8, count), ready: true, fail: map[int]error{}}
}

func (m *Memory) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *Memory) Count() int { return len(m.levels) }

func (m *Memory) SetBrightness(i int, level uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[i]; err != nil {
		return err
	}
	m.writes++
	if i == 0 && (len(m.history) == 0 || m.history[len(m.history)-1] != level) {
		m.history = append(m.history, level)
	}
	m.levels[i] = level
	return nil
}

// SetReady simulates the hardware appearing or disappearing.
func (m *Memory) SetReady(ready bool) {
	m.mu.Lock()
	m.ready = ready
	m.mu.Unlock()
}

// FailIndex makes writes to LED i return err; a nil err clears it.
func (m *Memory) FailIndex(i int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, i)
		return
	}
	m.fail[i] = err
}

// Levels returns a copy of every LED's level.
func (m *Memory) Levels() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint8, len(m.levels))
	copy(out, m.levels)
	return out
}

// Level returns the level of LED 0.
func (m *Memory) Level() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.levels) == 0 {
		return 0
	}
	return m.levels[0]
}

// History returns the distinct consecutive levels written to LED 0.
func (m *Memory) History() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint8, len(m.history))
	copy(out, m.history)
	return out
}

// Writes counts successful per-LED writes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
