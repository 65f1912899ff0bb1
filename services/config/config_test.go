// config/config_test.go
package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"keylight-go/bus"
	"keylight-go/errcode"
	"keylight-go/types"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	// Override lookup for this test.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "pico" {
			return nil, false
		}
		return []byte(`
mode: dev
debug: true
region:
  code: eu
`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	// Arrange bus and service.
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(nil)

	// Start publisher with device ID in context.
	svc.Start(WithDevice(context.Background(), "pico"), conn)

	// Subscribe; retained messages should arrive immediately.
	sub := conn.Subscribe(bus.T(configPrefix, bus.WildRest))

	wantCount := 3 // mode, debug, region
	got := map[string]any{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) < 2 {
				t.Fatalf("unexpected topic length: %#v", m.Topic)
			}
			if prefix, ok := m.Topic[0].(string); !ok || prefix != configPrefix {
				t.Fatalf("unexpected prefix: %#v", m.Topic[0])
			}
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			if !m.Retained {
				t.Fatalf("config/%s not retained", key)
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	if s, ok := got["mode"].(string); !ok || s != "dev" {
		t.Fatalf("mode payload = %#v, want \"dev\"", got["mode"])
	}
	if bval, ok := got["debug"].(bool); !ok || !bval {
		t.Fatalf("debug payload = %#v, want true", got["debug"])
	}
	if m, ok := got["region"].(map[string]any); !ok {
		t.Fatalf("region payload type = %T, want map[string]any", got["region"])
	} else if code, ok := m["code"].(string); !ok || code != "eu" {
		t.Fatalf("region.code = %#v, want \"eu\"", m["code"])
	}
}

func TestConfig_EmbeddedProfilesDecode(t *testing.T) {
	for _, board := range Boards() {
		raw, _ := EmbeddedConfigLookup(board)
		m, err := Parse(raw)
		if err != nil {
			t.Fatalf("%s: %v", board, err)
		}
		lc, ok := m["lighting"].(types.LightingConfig)
		if !ok {
			t.Fatalf("%s: lighting payload type %T", board, m["lighting"])
		}
		if lc.Backlight.Name != "backlight" || lc.Trackpad.Name != "trackpad" {
			t.Fatalf("%s: array names %q/%q", board, lc.Backlight.Name, lc.Trackpad.Name)
		}
		if lc.Backlight.Count <= 0 || lc.Trackpad.Count <= 0 {
			t.Fatalf("%s: empty arrays %+v", board, lc)
		}
		if hc, ok := m["heartbeat"].(types.HeartbeatConfig); !ok || hc.IntervalS <= 0 {
			t.Fatalf("%s: heartbeat payload %#v", board, m["heartbeat"])
		}
	}
}

func TestConfig_BBP9981Addresses(t *testing.T) {
	raw, ok := EmbeddedConfigLookup("bbp9981")
	if !ok {
		t.Fatal("bbp9981 profile missing")
	}
	m, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	lc := m["lighting"].(types.LightingConfig)
	if lc.Backlight.Driver != "pca963x" || lc.Backlight.Addr != 0x62 || lc.Trackpad.Addr != 0x61 {
		t.Fatalf("unexpected lighting config %+v", lc)
	}
}

func TestConfig_ParseRejectsBadYAML(t *testing.T) {
	cases := []string{
		"lighting: [unterminated",
		"lighting:\n  backlight:\n    count: many\n",
		"",
	}
	for _, raw := range cases {
		if _, err := Parse([]byte(raw)); !errors.Is(err, errcode.InvalidConfig) {
			t.Fatalf("Parse(%q) err = %v, want invalid_config", raw, err)
		}
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService(nil)

	// No device ID in context
	if err := svc.publishConfig(context.Background(), conn); !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("expected invalid_params for missing device ID, got %v", err)
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	// Override lookup to simulate absence.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService(nil)

	ctx := WithDevice(context.Background(), "unknown-device")
	if err := svc.publishConfig(ctx, conn); !errors.Is(err, errcode.UnknownBoard) {
		t.Fatalf("expected unknown_board for missing embedded config, got %v", err)
	}
}
