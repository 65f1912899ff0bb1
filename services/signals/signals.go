// Package signals mirrors the device-wide input signals published on the bus
// and exposes them as zero-argument probes for the lighting controllers.
package signals

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"keylight-go/bus"
	"keylight-go/errcode"
	"keylight-go/internal/logging"
	"keylight-go/types"
	"keylight-go/x/mathx"
)

const prefix = "signal"

var (
	TopicActivity       = bus.T(prefix, "activity")
	TopicLayer          = bus.T(prefix, "layer")
	TopicCapslock       = bus.T(prefix, "capslock")
	TopicTouch          = bus.T(prefix, "touch")
	TopicTransport      = bus.T(prefix, "transport")
	TopicBacklightLevel = bus.T(prefix, "backlight", "brightness")
	TopicUnderglowOn    = bus.T(prefix, "underglow", "on")
	TopicUnderglowLevel = bus.T(prefix, "underglow", "brightness")
	topicAll            = bus.T(prefix, bus.WildRest)
)

// Mirror holds the latest value of every signal. Probes may be called from
// any goroutine.
type Mirror struct {
	log *zap.SugaredLogger

	active    atomic.Bool
	layer     atomic.Int32
	capslock  atomic.Bool
	touch     atomic.Bool
	transport atomic.Uint32
	backlight atomic.Uint32
	ugOn      atomic.Bool
	ug        atomic.Uint32
}

func NewMirror(log *zap.SugaredLogger) *Mirror {
	return &Mirror{log: logging.OrNop(log)}
}

// Run subscribes to every signal topic and applies updates until ctx is done.
// Retained values are replayed on subscribe and seed the mirror.
func (m *Mirror) Run(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(topicAll)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := m.Apply(msg); err != nil {
				m.log.Warnw("ignoring signal", "topic", msg.Topic, "err", err)
			}
		}
	}
}

// Apply stores the payload of one signal message.
func (m *Mirror) Apply(msg *bus.Message) error {
	if msg == nil || msg.Payload == nil {
		return nil
	}
	t := msg.Topic
	switch {
	case match(t, TopicActivity):
		return setBool(&m.active, msg.Payload)
	case match(t, TopicCapslock):
		return setBool(&m.capslock, msg.Payload)
	case match(t, TopicTouch):
		return setBool(&m.touch, msg.Payload)
	case match(t, TopicUnderglowOn):
		return setBool(&m.ugOn, msg.Payload)
	case match(t, TopicLayer):
		v, ok := toInt(msg.Payload)
		if !ok || v < 0 {
			return invalid(msg.Payload)
		}
		m.layer.Store(int32(v))
	case match(t, TopicTransport):
		return m.setTransport(msg.Payload)
	case match(t, TopicBacklightLevel):
		return setLevel(&m.backlight, msg.Payload)
	case match(t, TopicUnderglowLevel):
		return setLevel(&m.ug, msg.Payload)
	default:
		return &errcode.E{C: errcode.Unsupported, Op: "signal"}
	}
	return nil
}

func (m *Mirror) setTransport(p any) error {
	switch v := p.(type) {
	case types.Transport:
		m.transport.Store(uint32(v))
	case string:
		switch v {
		case "usb":
			m.transport.Store(uint32(types.TransportUSB))
		case "wireless", "ble", "bluetooth":
			m.transport.Store(uint32(types.TransportWireless))
		default:
			return invalid(p)
		}
	default:
		return invalid(p)
	}
	return nil
}

// ---- probes ----

func (m *Mirror) Active() bool               { return m.active.Load() }
func (m *Mirror) Layer() int                 { return int(m.layer.Load()) }
func (m *Mirror) Capslock() bool             { return m.capslock.Load() }
func (m *Mirror) Touch() bool                { return m.touch.Load() }
func (m *Mirror) Transport() types.Transport { return types.Transport(m.transport.Load()) }
func (m *Mirror) BacklightBrightness() uint8 { return uint8(m.backlight.Load()) }
func (m *Mirror) UnderglowOn() bool          { return m.ugOn.Load() }
func (m *Mirror) UnderglowBrightness() uint8 { return uint8(m.ug.Load()) }

// ---- helpers ----

func match(t, want bus.Topic) bool {
	if len(t) != len(want) {
		return false
	}
	for i := range t {
		if t[i] != want[i] {
			return false
		}
	}
	return true
}

func invalid(p any) error {
	return &errcode.E{C: errcode.InvalidPayload, Op: "signal", Msg: fmt.Sprintf("unexpected %T", p)}
}

func setBool(dst *atomic.Bool, p any) error {
	v, ok := p.(bool)
	if !ok {
		return invalid(p)
	}
	dst.Store(v)
	return nil
}

// setLevel accepts any integer payload and clamps it to a brightness level.
func setLevel(dst *atomic.Uint32, p any) error {
	v, ok := toInt(p)
	if !ok {
		return invalid(p)
	}
	dst.Store(uint32(mathx.Clamp(v, int(types.BrightnessMin), int(types.BrightnessMax))))
	return nil
}

func toInt(p any) (int, bool) {
	switch v := p.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
