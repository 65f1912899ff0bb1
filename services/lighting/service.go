// Package lighting composes the LED arrays and both lighting controllers on
// one cooperative work queue.
package lighting

import (
	"context"

	"go.uber.org/zap"

	"keylight-go/bus"
	"keylight-go/errcode"
	"keylight-go/internal/logging"
	"keylight-go/services/input"
	"keylight-go/services/lighting/backlight"
	"keylight-go/services/lighting/indicator"
	"keylight-go/services/lighting/ledarray"
	"keylight-go/services/metrics"
	"keylight-go/services/sched"
	"keylight-go/services/signals"
	"keylight-go/types"
	"keylight-go/x/strx"
	"keylight-go/x/timex"
)

var (
	topicConfigLighting = bus.T("config", "lighting")
	TopicState          = bus.T("lighting", "state")
)

type Options struct {
	Log     *zap.SugaredLogger
	Buses   I2CBusFactory     // optional
	Metrics *metrics.Recorder // optional
	Input   *input.Dispatcher // optional: key-down source for the backlight latch
	Clock   sched.Clock       // optional: defaults to the wall clock

	Backlight backlight.Config
	Indicator indicator.Config
}

// Service waits for config/lighting, builds both arrays and runs the
// controllers until its context ends.
type Service struct {
	opts   Options
	log    *zap.SugaredLogger
	q      *sched.Queue
	mirror *signals.Mirror

	ready     chan struct{}
	backlight *backlight.Controller
	indicator *indicator.Controller
	arrays    map[string]ledarray.Array
	unsubKey  func()
}

func New(opts Options) *Service {
	log := logging.OrNop(opts.Log)
	return &Service{
		opts:   opts,
		log:    log,
		q:      sched.New(opts.Clock),
		mirror: signals.NewMirror(log.Named("signals")),
		ready:  make(chan struct{}),
		arrays: map[string]ledarray.Array{},
	}
}

// Ready is closed once the controllers have been initialised.
func (s *Service) Ready() <-chan struct{} { return s.ready }

// The accessors below are valid after Ready. A controller whose array is
// missing or not ready is still returned but never polls.
func (s *Service) Backlight() *backlight.Controller { return s.backlight }
func (s *Service) Indicator() *indicator.Controller { return s.indicator }
func (s *Service) Signals() *signals.Mirror         { return s.mirror }

// Array returns the LED array built under name, if any.
func (s *Service) Array(name string) (ledarray.Array, bool) {
	a, ok := s.arrays[name]
	return a, ok
}

// Start launches the service loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	go s.mirror.Run(ctx, conn)
	s.pubState(conn, "idle", "awaiting_config")

	cfgSub := conn.Subscribe(topicConfigLighting)
	defer conn.Unsubscribe(cfgSub)

	cfg, ok := s.waitConfig(ctx, cfgSub)
	if !ok {
		s.pubState(conn, "stopped", "context_cancelled")
		return
	}

	if failed := s.setup(conn, cfg); failed == "" {
		s.pubState(conn, "ready", "")
	} else {
		s.pubState(conn, "degraded", failed)
	}
	close(s.ready)

	s.q.Run(ctx)

	s.backlight.Stop()
	s.indicator.Stop()
	if s.unsubKey != nil {
		s.unsubKey()
	}
	s.pubState(conn, "stopped", "context_cancelled")
	s.log.Infow("lighting service stopping")
}

func (s *Service) pubState(conn *bus.Connection, level, status string) {
	conn.Publish(conn.NewMessage(
		TopicState,
		types.ServiceState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func (s *Service) waitConfig(ctx context.Context, sub *bus.Subscription) (types.LightingConfig, bool) {
	for {
		select {
		case <-ctx.Done():
			return types.LightingConfig{}, false
		case msg := <-sub.Channel():
			if lc, ok := msg.Payload.(types.LightingConfig); ok {
				return lc, true
			}
			s.log.Warnw("ignoring lighting config", "payload", msg.Payload)
		}
	}
}

// setup builds and initialises both controllers. It returns the error code
// of the first controller that failed, or "".
func (s *Service) setup(conn *bus.Connection, cfg types.LightingConfig) string {
	blSink := s.sink(conn, "backlight", cfg.Backlight)
	s.backlight = backlight.New(s.q, blSink, backlight.Signals{
		Active:              s.mirror.Active,
		Layer:               s.mirror.Layer,
		UnderglowOn:         s.mirror.UnderglowOn,
		UnderglowBrightness: s.mirror.UnderglowBrightness,
	}, s.opts.Backlight, backlight.Options{Log: s.log.Named("backlight"), Recorder: s.opts.Metrics})

	tpSink := s.sink(conn, "trackpad", cfg.Trackpad)
	s.indicator = indicator.New(s.q, tpSink, indicator.Signals{
		Transport:           s.mirror.Transport,
		Capslock:            s.mirror.Capslock,
		Touch:               s.mirror.Touch,
		Active:              s.mirror.Active,
		BacklightBrightness: s.mirror.BacklightBrightness,
	}, s.opts.Indicator, indicator.Options{Log: s.log.Named("indicator"), Recorder: s.opts.Metrics})

	if s.opts.Input != nil {
		s.unsubKey = s.opts.Input.OnKeyDown(s.backlight.KeyPressed)
	}

	// Each controller fails alone; the other keeps running.
	failed := ""
	if err := s.backlight.Init(); err != nil {
		s.log.Errorw("backlight controller disabled", "err", err)
		failed = "backlight_" + string(errcode.Of(err))
	}
	if err := s.indicator.Init(); err != nil {
		s.log.Errorw("indicator controller disabled", "err", err)
		if failed == "" {
			failed = "indicator_" + string(errcode.Of(err))
		}
	}
	return failed
}

// sink builds the array for ac, named role unless configured otherwise. A
// failed build yields a sink over an absent array, so the controller
// reports device_not_ready at Init.
func (s *Service) sink(conn *bus.Connection, role string, ac types.LEDArrayConfig) *ledarray.Sink {
	ac.Name = strx.Coalesce(ac.Name, role)
	arr, err := BuildArray(BuildInput{Buses: s.opts.Buses, Config: ac, Log: s.log})
	if err != nil {
		s.log.Errorw("LED array unavailable", "array", ac.Name, "driver", ac.Driver, "err", err)
	}
	if arr == nil {
		arr = absentArray{}
	} else {
		s.arrays[ac.Name] = arr
	}
	opts := ledarray.Options{
		Log:    s.log.Named(ac.Name),
		Conn:   conn,
		Driver: ac.Driver,
	}
	if s.opts.Metrics != nil {
		opts.Metrics = s.opts.Metrics
	}
	return ledarray.NewSink(ac.Name, arr, opts)
}

type absentArray struct{}

func (absentArray) Ready() bool                    { return false }
func (absentArray) Count() int                     { return 0 }
func (absentArray) SetBrightness(int, uint8) error { return nil }
