package ledarray

import (
	"strconv"

	"go.uber.org/zap"

	"keylight-go/bus"
	"keylight-go/errcode"
	"keylight-go/internal/logging"
	"keylight-go/types"
	"keylight-go/x/mathx"
	"keylight-go/x/timex"
)

// Array is one addressable LED array. Implementations must not block.
type Array interface {
	Ready() bool
	Count() int
	SetBrightness(index int, level uint8) error
}

// Metrics receives write outcomes. *metrics.Recorder satisfies it.
type Metrics interface {
	Write(array string, level uint8)
	WriteFailure(array string, code errcode.Code)
}

type Options struct {
	Log     *zap.SugaredLogger
	Conn    *bus.Connection // optional: publish retained value/status
	Metrics Metrics         // optional
	Driver  string          // reported in the retained info document
}

// Sink applies one brightness level to every LED of an array.
type Sink struct {
	name string
	arr  Array
	log  *zap.SugaredLogger
	conn *bus.Connection
	met  Metrics

	driver    string
	published int // last published level, -1 before the first
	link      types.Link
	code      errcode.Code
}

func NewSink(name string, arr Array, opts Options) *Sink {
	s := &Sink{
		name:      name,
		arr:       arr,
		log:       logging.OrNop(opts.Log),
		conn:      opts.Conn,
		met:       opts.Metrics,
		driver:    opts.Driver,
		published: -1,
		link:      types.LinkDown,
	}
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(
			capInfo(name),
			types.Info{SchemaVersion: 1, Driver: s.driver, Detail: types.LEDArrayInfo{Count: arr.Count(), Driver: s.driver}},
			true,
		))
		s.publishStatus()
	}
	return s
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Ready() bool  { return s.arr.Ready() }

// Set writes level (clamped to 0..100) to every LED in the array.
//
// A missing array returns errcode.DeviceNotReady without touching any LED.
// Per-LED failures are logged and skipped; if any occurred the result is an
// *errcode.E with code WriteFailed. Callers treat both as non-fatal.
func (s *Sink) Set(level uint8) error {
	level = mathx.Clamp(level, types.BrightnessMin, types.BrightnessMax)

	if !s.arr.Ready() {
		s.log.Errorw("LED array not ready", "array", s.name)
		s.fail(errcode.DeviceNotReady)
		return &errcode.E{C: errcode.DeviceNotReady, Op: "set " + s.name}
	}

	n := s.arr.Count()
	failed := 0
	var first error
	for i := 0; i < n; i++ {
		if err := s.arr.SetBrightness(i, level); err != nil {
			s.log.Errorw("failed to set LED brightness", "array", s.name, "index", i, "level", level, "err", err)
			failed++
			if first == nil {
				first = err
			}
		}
	}
	if s.met != nil {
		s.met.Write(s.name, level)
	}
	s.publishValue(level)

	if failed > 0 {
		s.fail(errcode.MapDriverErr(first))
		return &errcode.E{
			C:   errcode.WriteFailed,
			Op:  "set " + s.name,
			Msg: strconv.Itoa(failed) + " of " + strconv.Itoa(n) + " LEDs failed",
			Err: first,
		}
	}
	s.setLink(types.LinkUp, "")
	return nil
}

func (s *Sink) fail(code errcode.Code) {
	if s.met != nil {
		s.met.WriteFailure(s.name, code)
	}
	s.setLink(types.LinkDegraded, code)
}

func (s *Sink) publishValue(level uint8) {
	if s.conn == nil || int(level) == s.published {
		return
	}
	s.published = int(level)
	s.conn.Publish(s.conn.NewMessage(capValue(s.name), types.LEDArrayValue{Level: level}, true))
}

func (s *Sink) setLink(l types.Link, code errcode.Code) {
	if s.link == l && s.code == code {
		return
	}
	s.link, s.code = l, code
	s.publishStatus()
}

func (s *Sink) publishStatus() {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(
		capStatus(s.name),
		types.CapabilityStatus{Link: s.link, TSms: timex.NowMs(), Error: string(s.code)},
		true,
	))
}

// hal/cap/io/led_array/<name>/...
func capBase(name string) bus.Topic {
	return bus.T("hal", "cap", "io", string(types.KindLEDArray), name)
}
func capInfo(name string) bus.Topic   { return capBase(name).Append("info") }
func capValue(name string) bus.Topic  { return capBase(name).Append("value") }
func capStatus(name string) bus.Topic { return capBase(name).Append("status") }

// ValueTopic is where the sink named name publishes its retained level.
func ValueTopic(name string) bus.Topic { return capValue(name) }

// StatusTopic is where the sink named name publishes its retained status.
func StatusTopic(name string) bus.Topic { return capStatus(name) }
