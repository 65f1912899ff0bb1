// Package input fans key events out to interested services.
package input

import (
	"context"

	"github.com/kelindar/event"
	"go.uber.org/zap"

	"keylight-go/bus"
	"keylight-go/internal/logging"
	"keylight-go/types"
)

// TopicKey carries types.KeyStateChanged from the matrix scanner.
var TopicKey = bus.T("input", "key")

// Dispatcher wraps a kelindar/event dispatcher for key events.
// Handlers run asynchronously on the dispatcher's goroutines.
type Dispatcher struct {
	d *event.Dispatcher
}

func New() *Dispatcher {
	return &Dispatcher{d: event.NewDispatcher()}
}

// PublishKey broadcasts a key state change to every subscriber.
func (x *Dispatcher) PublishKey(ev types.KeyStateChanged) {
	event.Publish(x.d, ev)
}

// OnKey subscribes fn to every key state change. The returned func unsubscribes.
func (x *Dispatcher) OnKey(fn func(types.KeyStateChanged)) func() {
	return event.Subscribe(x.d, fn)
}

// OnKeyDown subscribes fn to key presses only.
func (x *Dispatcher) OnKeyDown(fn func()) func() {
	return event.Subscribe(x.d, func(ev types.KeyStateChanged) {
		if ev.Pressed {
			fn()
		}
	})
}

// Close stops the dispatcher's workers.
func (x *Dispatcher) Close() error {
	return x.d.Close()
}

// Forward republishes key events arriving on TopicKey until ctx is done.
func (x *Dispatcher) Forward(ctx context.Context, conn *bus.Connection, log *zap.SugaredLogger) {
	log = logging.OrNop(log)
	sub := conn.Subscribe(TopicKey)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			ev, ok := msg.Payload.(types.KeyStateChanged)
			if !ok {
				log.Warnw("ignoring key payload", "payload", msg.Payload)
				continue
			}
			x.PublishKey(ev)
		}
	}
}
