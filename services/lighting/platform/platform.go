// Package platform supplies the I2C buses LED array builders resolve by id.
//
// Host builds get inert recording buses; RP2 builds configure the
// on-chip controllers at 400 kHz on their default pins.
package platform

import "tinygo.org/x/drivers"

// Buses maps bus ids ("i2c0", "i2c1") to configured I2C instances.
// It satisfies lighting.I2CBusFactory.
type Buses struct {
	buses map[string]drivers.I2C
}

func (b *Buses) ByID(id string) (drivers.I2C, bool) {
	i2c, ok := b.buses[id]
	return i2c, ok
}

// IDs lists the configured bus ids.
func (b *Buses) IDs() []string {
	out := make([]string, 0, len(b.buses))
	for id := range b.buses {
		out = append(out, id)
	}
	return out
}
