package main

import (
	"time"

	"keylight-go/services/signals"
	"keylight-go/types"
)

type step struct {
	note string
	do   func(s *sim)
	hold time.Duration
}

type scenario struct {
	name  string
	desc  string
	steps []step
}

var scenarios = []scenario{
	{
		name: "a",
		desc: "idle on layer 0 without a key press stays dark",
		steps: []step{
			{"underglow on at 80, idle", func(s *sim) {
				s.set(signals.TopicUnderglowOn, true)
				s.set(signals.TopicUnderglowLevel, 80)
				s.set(signals.TopicLayer, 0)
			}, time.Second},
		},
	},
	{
		name: "b",
		desc: "active with a key press on layer 0 follows underglow",
		steps: []step{
			{"active, underglow 60", func(s *sim) {
				s.set(signals.TopicActivity, true)
				s.set(signals.TopicUnderglowOn, true)
				s.set(signals.TopicUnderglowLevel, 60)
			}, 300 * time.Millisecond},
			{"key down", func(s *sim) { s.bl.KeyPressed() }, 300 * time.Millisecond},
		},
	},
	{
		name: "c",
		desc: "USB transport flashes the indicator regardless of capslock and touch",
		steps: []step{
			{"capslock and touch on", func(s *sim) {
				s.set(signals.TopicActivity, true)
				s.set(signals.TopicCapslock, true)
				s.set(signals.TopicTouch, true)
			}, 100 * time.Millisecond},
			{"USB attached", func(s *sim) { s.set(signals.TopicTransport, types.TransportUSB) }, 3 * time.Second},
			{"USB detached", func(s *sim) { s.set(signals.TopicTransport, types.TransportWireless) }, 500 * time.Millisecond},
		},
	},
	{
		name: "d",
		desc: "capslock preempts touch override and hands back to it",
		steps: []step{
			{"touch at backlight 60", func(s *sim) {
				s.set(signals.TopicBacklightLevel, 60)
				s.set(signals.TopicActivity, true)
				s.set(signals.TopicTouch, true)
			}, 300 * time.Millisecond},
			{"capslock on", func(s *sim) { s.set(signals.TopicCapslock, true) }, 600 * time.Millisecond},
			{"capslock off", func(s *sim) { s.set(signals.TopicCapslock, false) }, 200 * time.Millisecond},
		},
	},
	{
		name: "e",
		desc: "touch release arms auto-off; a resumed touch supersedes it",
		steps: []step{
			{"touch at backlight 50", func(s *sim) {
				s.set(signals.TopicBacklightLevel, 50)
				s.set(signals.TopicActivity, true)
				s.set(signals.TopicTouch, true)
			}, 200 * time.Millisecond},
			{"touch released", func(s *sim) { s.set(signals.TopicTouch, false) }, 3 * time.Second},
			{"touch resumed", func(s *sim) { s.set(signals.TopicTouch, true) }, 3 * time.Second},
			{"touch released", func(s *sim) { s.set(signals.TopicTouch, false) }, 6 * time.Second},
		},
	},
}

func findScenario(name string) (scenario, bool) {
	for _, sc := range scenarios {
		if sc.name == name {
			return sc, true
		}
	}
	return scenario{}, false
}

// play runs sc on s, logging each step and the levels it left behind.
func play(s *sim, sc scenario) {
	s.log.Infow("scenario", "name", sc.name, "desc", sc.desc)
	for _, st := range sc.steps {
		st.do(s)
		s.run(st.hold)
		s.log.Infow("step", "t", s.now(), "note", st.note,
			"backlight", s.level("backlight"), "trackpad", s.level("trackpad"),
			"indicator", s.ind.State().String())
	}
}
