package lighting

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"tinygo.org/x/drivers"

	"keylight-go/errcode"
	"keylight-go/services/lighting/ledarray"
	"keylight-go/types"
)

// I2CBusFactory injects configured I2C instances by id.
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// BuildInput is passed to an array builder.
type BuildInput struct {
	Buses  I2CBusFactory // nil on hosts without buses
	Config types.LEDArrayConfig
	Log    *zap.SugaredLogger
}

// Builder constructs an LED array from its config.
//
// A builder may return a non-nil array together with an error when the
// device exists but failed to come up; the array then reports !Ready.
type Builder interface {
	Build(in BuildInput) (ledarray.Array, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(in BuildInput) (ledarray.Array, error)

func (f BuilderFunc) Build(in BuildInput) (ledarray.Array, error) { return f(in) }

var (
	mu       sync.RWMutex
	builders = map[string]Builder{}
)

// RegisterBuilder installs a builder for a driver name.
// It panics on duplicate registration to catch mistakes at start-up.
func RegisterBuilder(driver string, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	if driver == "" {
		panic("lighting: empty driver name for builder")
	}
	if _, exists := builders[driver]; exists {
		panic(fmt.Sprintf("lighting: builder already registered for driver %q", driver))
	}
	builders[driver] = b
}

func findBuilder(driver string) (Builder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[driver]
	return b, ok
}

// BuildArray resolves the builder for in.Config.Driver and runs it.
func BuildArray(in BuildInput) (ledarray.Array, error) {
	b, ok := findBuilder(in.Config.Driver)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownDriver, Op: "build " + in.Config.Name, Msg: in.Config.Driver}
	}
	if in.Config.Count <= 0 {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "build " + in.Config.Name, Msg: "count must be positive"}
	}
	return b.Build(in)
}
