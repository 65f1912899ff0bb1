// Package indicator drives the trackpad/status LED array.
//
// One poll per tick samples transport, capslock, touch, activity and the
// commanded backlight brightness, arbitrates a sub-state in fixed priority
// (USB flash, capslock breathe, touch override, backlight mirror, auto-off,
// idle) and runs that sub-state's single timer.
package indicator

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"keylight-go/errcode"
	"keylight-go/internal/logging"
	"keylight-go/services/sched"
	"keylight-go/types"
	"keylight-go/x/mathx"
	"keylight-go/x/ramp"
)

type Signals struct {
	Transport           func() types.Transport
	Capslock            func() bool
	Touch               func() bool
	Active              func() bool
	BacklightBrightness func() uint8
}

type Config struct {
	PollInterval time.Duration // 5ms
	RampInterval time.Duration // 20ms
	FlashOn      time.Duration // 100ms
	FlashPeriod  time.Duration // 1000ms
	AutoOffDelay time.Duration // 5000ms

	RampMin, RampMax, RampStep uint8 // 10, 100, 5
	FlashLevel                 uint8 // 100
	InitialLastValid           uint8 // 100
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Millisecond
	}
	if c.RampInterval <= 0 {
		c.RampInterval = 20 * time.Millisecond
	}
	if c.FlashOn <= 0 {
		c.FlashOn = 100 * time.Millisecond
	}
	if c.FlashPeriod <= c.FlashOn {
		c.FlashPeriod = 10 * c.FlashOn
	}
	if c.AutoOffDelay <= 0 {
		c.AutoOffDelay = 5 * time.Second
	}
	if c.RampMin == 0 {
		c.RampMin = 10
	}
	if c.RampMax == 0 {
		c.RampMax = 100
	}
	if c.RampStep == 0 {
		c.RampStep = 5
	}
	if c.FlashLevel == 0 {
		c.FlashLevel = 100
	}
	if c.InitialLastValid == 0 {
		c.InitialLastValid = 100
	}
	return c
}

type Sink interface {
	Name() string
	Ready() bool
	Set(level uint8) error
}

type Recorder interface {
	Transition(controller, state string)
}

type Options struct {
	Log      *zap.SugaredLogger
	Recorder Recorder
}

const controllerName = "indicator"

type Controller struct {
	q    *sched.Queue
	sink Sink
	sig  Signals
	cfg  Config
	log  *zap.SugaredLogger
	rec  Recorder

	poll  *sched.Work
	timer *sched.Work // the one sub-state timer: flash, ramp or auto-off

	state          State
	capslock       bool
	touch          bool
	active         bool
	lastBacklight  uint8
	manualOverride bool
	flashOn        bool
	ramp           ramp.Saturate

	// Level last asked of the sink; dirty while that write has not landed.
	want  uint8
	dirty bool

	// Read by collaborators on other goroutines.
	lastValid atomic.Uint32
}

func New(q *sched.Queue, sink Sink, sig Signals, cfg Config, opts Options) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		q:    q,
		sink: sink,
		sig:  sig,
		cfg:  cfg,
		log:  logging.OrNop(opts.Log),
		rec:  opts.Recorder,
		ramp: ramp.NewSaturate(cfg.RampMin, cfg.RampMax, cfg.RampStep),
	}
	c.lastValid.Store(uint32(cfg.InitialLastValid))
	c.poll = q.NewWork("indicator.poll", c.tick)
	c.timer = q.NewWork("indicator.timer", c.onTimer)
	return c
}

// Init darkens the array, seeds the backlight baseline and starts polling
// immediately. A missing array fails with errcode.DeviceNotReady.
func (c *Controller) Init() error {
	if !c.sink.Ready() {
		c.log.Errorw("LED indicator device not ready", "array", c.sink.Name())
		return &errcode.E{C: errcode.DeviceNotReady, Op: "indicator init"}
	}
	c.set(0)
	c.state = StateIdle
	c.capslock, c.touch, c.active, c.manualOverride = false, false, false, false
	c.flashOn = false
	c.lastBacklight = c.sig.BacklightBrightness()
	c.poll.Reschedule(0)
	c.log.Infow("indicator controller started", "array", c.sink.Name(), "poll", c.cfg.PollInterval)
	return nil
}

func (c *Controller) Stop() {
	c.poll.Cancel()
	c.timer.Cancel()
}

// LastValidBrightness is the most recent non-zero override level, whether
// or not the LEDs are lit right now. Safe from any goroutine.
func (c *Controller) LastValidBrightness() uint8 { return uint8(c.lastValid.Load()) }

func (c *Controller) State() State         { return c.state }
func (c *Controller) ManualOverride() bool { return c.manualOverride }

func (c *Controller) sample() snapshot {
	return snapshot{
		transport: c.sig.Transport(),
		capslock:  c.sig.Capslock(),
		touch:     c.sig.Touch(),
		active:    c.sig.Active(),
		backlight: c.sig.BacklightBrightness(),
	}
}

func (c *Controller) tick() {
	c.retry()
	in := c.sample()

	if in.transport != types.TransportUSB {
		if in.active != c.active {
			c.active = in.active
			if c.active {
				// Re-baseline on wake so an idle-time change does not light us.
				c.lastBacklight = in.backlight
			}
		}
		if !in.capslock && !in.touch && c.active && in.backlight != c.lastBacklight {
			c.lastBacklight = in.backlight
			in.backlightRaised = in.backlight > 0
		}
	}
	c.capslock, c.touch = in.capslock, in.touch

	next := arbitrate(c.state, in)
	if next != c.state || in.backlightRaised {
		c.transition(next, in)
	}

	c.poll.Reschedule(c.cfg.PollInterval)
}

func (c *Controller) transition(next State, in snapshot) {
	prev := c.state

	// Cancel before arming anything for next.
	c.timer.Cancel()

	switch prev {
	case StateUSBFlash:
		if next != StateUSBFlash {
			c.set(0)
			c.log.Infow("exited USB flash mode")
		}
	case StateCapslockBreathe:
		if next != StateCapslockBreathe {
			c.manualOverride = false
		}
	}

	c.setState(next)

	switch next {
	case StateUSBFlash:
		c.flashOn = false
		c.log.Infow("entered USB flash mode")
		c.flashStep()
	case StateCapslockBreathe:
		c.ramp.Reset()
		c.set(c.ramp.Level())
		c.timer.Reschedule(c.cfg.RampInterval)
	case StateTouchOverride:
		c.override(in)
	case StateBacklightMirror:
		c.override(in)
		c.timer.Reschedule(c.cfg.AutoOffDelay)
	case StateAutoOff:
		c.timer.Reschedule(c.cfg.AutoOffDelay)
	case StateIdle:
		c.manualOverride = false
		c.set(0)
	}
}

// override lights the array at max(RampMin, backlight) while the keyboard
// is active, otherwise at the remembered level.
func (c *Controller) override(in snapshot) {
	c.manualOverride = true
	if c.active {
		c.lastValid.Store(uint32(mathx.Max(c.cfg.RampMin, in.backlight)))
	}
	c.set(c.LastValidBrightness())
}

func (c *Controller) onTimer() {
	switch c.state {
	case StateUSBFlash:
		c.flashStep()
	case StateCapslockBreathe:
		c.set(c.ramp.Advance())
		if !c.ramp.Done() {
			c.timer.Reschedule(c.cfg.RampInterval)
		}
	case StateAutoOff, StateBacklightMirror:
		c.autoOff()
	}
}

func (c *Controller) flashStep() {
	c.flashOn = !c.flashOn
	if c.flashOn {
		c.set(c.cfg.FlashLevel)
		c.timer.Reschedule(c.cfg.FlashOn)
		return
	}
	c.set(0)
	c.timer.Reschedule(c.cfg.FlashPeriod - c.cfg.FlashOn)
}

func (c *Controller) autoOff() {
	if c.capslock || c.touch {
		return // superseded
	}
	c.log.Debugw("auto-off triggered after inactivity")
	c.setState(StateIdle)
	c.manualOverride = false
	c.set(0)
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

// set records level as the one the array should show. A failed write is
// repeated by the next poll until it lands or a newer level replaces it.
func (c *Controller) set(level uint8) {
	c.want = level
	c.dirty = c.sink.Set(level) != nil
}

func (c *Controller) retry() {
	if c.dirty && c.sink.Ready() {
		c.dirty = c.sink.Set(c.want) != nil
	}
}
