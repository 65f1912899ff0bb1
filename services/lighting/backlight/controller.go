// Package backlight drives the per-layer keyboard backlight array.
//
// Brightness follows the highest active keymap layer: layer 0 mirrors the
// underglow brightness once a key press has authorised it, layers 1 and 3
// blink at different rates, layer 2 breathes, anything else is dark.
package backlight

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"keylight-go/errcode"
	"keylight-go/internal/logging"
	"keylight-go/services/sched"
	"keylight-go/x/ramp"
)

// Signals are the zero-argument probes sampled on every poll.
type Signals struct {
	Active              func() bool
	Layer               func() int
	UnderglowOn         func() bool
	UnderglowBrightness func() uint8
}

// Config holds the animation timings and levels. Zero fields take defaults.
type Config struct {
	PollInterval    time.Duration // 100ms
	BlinkInterval   time.Duration // 500ms on layer 1, halved on layer 3
	BreatheInterval time.Duration // 20ms

	BlinkHigh, BlinkLow uint8 // 100, 10

	BreatheMin, BreatheMax, BreatheStep uint8 // 10, 100, 5
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.BlinkInterval <= 0 {
		c.BlinkInterval = 500 * time.Millisecond
	}
	if c.BreatheInterval <= 0 {
		c.BreatheInterval = 20 * time.Millisecond
	}
	if c.BlinkHigh == 0 {
		c.BlinkHigh = 100
	}
	if c.BlinkLow == 0 {
		c.BlinkLow = 10
	}
	if c.BreatheMin == 0 {
		c.BreatheMin = 10
	}
	if c.BreatheMax == 0 {
		c.BreatheMax = 100
	}
	if c.BreatheStep == 0 {
		c.BreatheStep = 5
	}
	return c
}

// Sink is the brightness sink for the backlight array.
type Sink interface {
	Name() string
	Ready() bool
	Set(level uint8) error
}

// Recorder observes sub-state entries. *metrics.Recorder satisfies it.
type Recorder interface {
	Transition(controller, state string)
}

type Options struct {
	Log      *zap.SugaredLogger
	Recorder Recorder
}

type State uint8

const (
	StateOff State = iota
	StateStatic
	StateBlink
	StateBreathe
)

func (s State) String() string {
	switch s {
	case StateStatic:
		return "static"
	case StateBlink:
		return "blink"
	case StateBreathe:
		return "breathe"
	default:
		return "off"
	}
}

const controllerName = "backlight"

// Controller owns the backlight context. Apart from KeyPressed, every method
// that mutates it runs on the queue.
type Controller struct {
	q    *sched.Queue
	sink Sink
	sig  Signals
	cfg  Config
	log  *zap.SugaredLogger
	rec  Recorder

	poll *sched.Work
	anim *sched.Work // the one sub-state timer

	// Set from the input goroutine, read and cleared by the poll.
	allowed atomic.Bool

	prevActive bool
	prevLayer  int
	state      State

	blinkOn     bool
	blinkPeriod time.Duration
	breathe     ramp.Bounce

	// Level last asked of the sink; dirty while that write has not landed.
	want  uint8
	dirty bool
}

func New(q *sched.Queue, sink Sink, sig Signals, cfg Config, opts Options) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		q:         q,
		sink:      sink,
		sig:       sig,
		cfg:       cfg,
		log:       logging.OrNop(opts.Log),
		rec:       opts.Recorder,
		prevLayer: -1,
		breathe:   ramp.NewBounce(cfg.BreatheMin, cfg.BreatheMax, cfg.BreatheStep),
	}
	c.poll = q.NewWork("backlight.poll", c.tick)
	c.anim = q.NewWork("backlight.anim", c.onAnim)
	return c
}

// Init seeds the previous-activity sample and starts polling. A missing
// array fails with errcode.DeviceNotReady and polling never starts.
func (c *Controller) Init() error {
	if !c.sink.Ready() {
		c.log.Errorw("LED backlight device not ready", "array", c.sink.Name())
		return &errcode.E{C: errcode.DeviceNotReady, Op: "backlight init"}
	}
	c.prevActive = c.sig.Active()
	c.prevLayer = -1
	c.poll.Reschedule(c.cfg.PollInterval)
	c.log.Infow("backlight controller started", "array", c.sink.Name(), "poll", c.cfg.PollInterval)
	return nil
}

// Stop cancels polling and any running animation.
func (c *Controller) Stop() {
	c.poll.Cancel()
	c.anim.Cancel()
}

// KeyPressed authorises layer-0 illumination. Safe from any goroutine.
func (c *Controller) KeyPressed() { c.allowed.Store(true) }

func (c *Controller) Authorized() bool { return c.allowed.Load() }
func (c *Controller) State() State     { return c.state }

func (c *Controller) tick() {
	c.retry()
	active := c.sig.Active()
	layer := c.sig.Layer()
	ugOn := c.sig.UnderglowOn()
	ug := c.sig.UnderglowBrightness()

	if c.prevActive && !active {
		c.allowed.Store(false)
	}

	if layer != c.prevLayer || active != c.prevActive {
		c.log.Debugw("layer/activity edge", "layer", layer, "prev_layer", c.prevLayer, "active", active)
		c.prevLayer = layer
		c.prevActive = active
		c.enterLayer(layer, ugOn)
	}

	// Layer 0 is re-asserted on every poll so that a key press mid-dwell
	// lights it without needing a layer or activity edge.
	if layer == 0 {
		c.assertStatic(active, ugOn, ug)
	}

	c.poll.Reschedule(c.cfg.PollInterval)
}

func (c *Controller) enterLayer(layer int, ugOn bool) {
	c.anim.Cancel()
	c.blinkOn = false
	c.breathe.Reset()

	switch layer {
	case 0:
		// assertStatic runs right after in the same poll.
	case 1, 3:
		c.blinkPeriod = c.cfg.BlinkInterval
		if layer == 3 {
			c.blinkPeriod /= 2
		}
		// Start low when underglow is already signalling.
		c.blinkOn = !ugOn
		c.setState(StateBlink)
		c.set(c.blinkLevel())
		c.anim.Reschedule(c.blinkPeriod)
	case 2:
		c.setState(StateBreathe)
		c.set(c.breathe.Level())
		c.anim.Reschedule(c.cfg.BreatheInterval)
	default:
		c.setState(StateOff)
		c.set(0)
	}
}

func (c *Controller) assertStatic(active, ugOn bool, ug uint8) {
	var level uint8
	if active && c.allowed.Load() && ugOn {
		level = ug
	}
	if level > 0 {
		c.setState(StateStatic)
	} else {
		c.setState(StateOff)
	}
	c.set(level)
}

func (c *Controller) onAnim() {
	switch c.state {
	case StateBlink:
		c.blinkOn = !c.blinkOn
		c.set(c.blinkLevel())
		c.anim.Reschedule(c.blinkPeriod)
	case StateBreathe:
		c.set(c.breathe.Advance())
		c.anim.Reschedule(c.cfg.BreatheInterval)
	}
}

func (c *Controller) blinkLevel() uint8 {
	if c.blinkOn {
		return c.cfg.BlinkHigh
	}
	return c.cfg.BlinkLow
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debugw("sub-state", "from", c.state.String(), "to", s.String())
	c.state = s
	if c.rec != nil {
		c.rec.Transition(controllerName, s.String())
	}
}

// set records level as the one the array should show. The sink logs
// failures; the next poll repeats the write until it lands or a newer
// level replaces it.
func (c *Controller) set(level uint8) {
	c.want = level
	c.dirty = c.sink.Set(level) != nil
}

func (c *Controller) retry() {
	if c.dirty && c.sink.Ready() {
		c.dirty = c.sink.Set(c.want) != nil
	}
}
