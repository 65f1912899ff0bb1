package signals

import (
	"keylight-go/bus"
	"keylight-go/types"
)

// Publisher writes retained signal values, for collaborators and the simulator.
type Publisher struct {
	conn *bus.Connection
}

func NewPublisher(conn *bus.Connection) *Publisher { return &Publisher{conn: conn} }

func (p *Publisher) put(t bus.Topic, v any) {
	p.conn.Publish(p.conn.NewMessage(t, v, true))
}

func (p *Publisher) Activity(active bool)            { p.put(TopicActivity, active) }
func (p *Publisher) Layer(layer int)                 { p.put(TopicLayer, layer) }
func (p *Publisher) Capslock(on bool)                { p.put(TopicCapslock, on) }
func (p *Publisher) Touch(on bool)                   { p.put(TopicTouch, on) }
func (p *Publisher) Transport(t types.Transport)     { p.put(TopicTransport, t) }
func (p *Publisher) BacklightBrightness(level uint8) { p.put(TopicBacklightLevel, level) }

// Underglow publishes both underglow signals.
func (p *Publisher) Underglow(on bool, level uint8) {
	p.put(TopicUnderglowOn, on)
	p.put(TopicUnderglowLevel, level)
}
