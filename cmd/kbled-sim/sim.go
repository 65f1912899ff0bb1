package main

import (
	"time"

	"go.uber.org/zap"

	"keylight-go/bus"
	"keylight-go/services/lighting/backlight"
	"keylight-go/services/lighting/indicator"
	"keylight-go/services/lighting/ledarray"
	"keylight-go/services/sched"
	"keylight-go/services/signals"
	"keylight-go/types"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// change is one observed LED level change.
type change struct {
	At    time.Duration
	Array string
	Level uint8
}

// sim runs both controllers on a manual clock against memory arrays.
// Signals are applied to the mirror synchronously between steps.
type sim struct {
	log    *zap.SugaredLogger
	clk    *sched.ManualClock
	q      *sched.Queue
	mirror *signals.Mirror
	sub    *bus.Subscription

	bl  *backlight.Controller
	ind *indicator.Controller

	arrays  map[string]*ledarray.Memory
	changes []change
	verbose bool
}

func newSim(log *zap.SugaredLogger, verbose bool) *sim {
	clk := sched.NewManualClock(epoch)
	b := bus.NewBus(1024)
	conn := b.NewConnection("sim")

	s := &sim{
		log:     log,
		clk:     clk,
		q:       sched.New(clk),
		mirror:  signals.NewMirror(log),
		sub:     conn.Subscribe(bus.T("hal", "cap", "io", "led_array", bus.WildOne, "value")),
		arrays:  map[string]*ledarray.Memory{},
		verbose: verbose,
	}

	sink := func(name string, count int) *ledarray.Sink {
		arr := ledarray.NewMemory(count)
		s.arrays[name] = arr
		return ledarray.NewSink(name, arr, ledarray.Options{Log: log.Named(name), Conn: conn, Driver: "memory"})
	}

	m := s.mirror
	s.bl = backlight.New(s.q, sink("backlight", 12), backlight.Signals{
		Active:              m.Active,
		Layer:               m.Layer,
		UnderglowOn:         m.UnderglowOn,
		UnderglowBrightness: m.UnderglowBrightness,
	}, backlight.Config{}, backlight.Options{Log: log.Named("backlight")})
	s.ind = indicator.New(s.q, sink("trackpad", 2), indicator.Signals{
		Transport:           m.Transport,
		Capslock:            m.Capslock,
		Touch:               m.Touch,
		Active:              m.Active,
		BacklightBrightness: m.BacklightBrightness,
	}, indicator.Config{}, indicator.Options{Log: log.Named("indicator")})
	return s
}

func (s *sim) start() error {
	if err := s.bl.Init(); err != nil {
		return err
	}
	return s.ind.Init()
}

func (s *sim) now() time.Duration { return s.clk.Now().Sub(epoch) }

func (s *sim) set(t bus.Topic, v any) {
	if err := s.mirror.Apply(&bus.Message{Topic: t, Payload: v}); err != nil {
		s.log.Warnw("bad signal", "topic", t, "err", err)
	}
}

// run advances the clock by d in 1ms steps, collecting LED changes.
func (s *sim) run(d time.Duration) {
	for end := s.now() + d; s.now() < end; {
		s.q.Advance(s.clk, time.Millisecond)
		s.drain()
	}
}

func (s *sim) drain() {
	for {
		select {
		case msg := <-s.sub.Channel():
			v, ok := msg.Payload.(types.LEDArrayValue)
			name, _ := msg.Topic.At(4).(string)
			if !ok {
				continue
			}
			c := change{At: s.now(), Array: name, Level: v.Level}
			s.changes = append(s.changes, c)
			if s.verbose {
				s.log.Infow("led", "t", c.At, "array", c.Array, "level", c.Level)
			}
		default:
			return
		}
	}
}

func (s *sim) level(name string) uint8 { return s.arrays[name].Level() }
