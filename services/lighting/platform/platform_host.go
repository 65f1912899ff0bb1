//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"tinygo.org/x/drivers"
)

// HostI2C implements drivers.I2C off-target. Writes are recorded per
// address and reads return zeroes.
type HostI2C struct {
	mu     sync.Mutex
	writes map[uint16][][]byte
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writes == nil {
		h.writes = make(map[uint16][][]byte)
	}
	if len(w) > 0 {
		h.writes[addr] = append(h.writes[addr], append([]byte(nil), w...))
	}
	clear(r)
	return nil
}

// Writes returns a copy of every write sent to addr.
func (h *HostI2C) Writes(addr uint16) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.writes[addr]...)
}

// DefaultI2C creates inert host buses "i2c0" and "i2c1".
func DefaultI2C() *Buses {
	return &Buses{buses: map[string]drivers.I2C{
		"i2c0": &HostI2C{},
		"i2c1": &HostI2C{},
	}}
}
