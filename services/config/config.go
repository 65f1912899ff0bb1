package config

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"keylight-go/bus"
	"keylight-go/errcode"
	"keylight-go/internal/logging"
	"keylight-go/types"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey is the context key carrying the board name.
const CtxDeviceKey ctxKey = "device"

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Boards lists the embedded profile names.
func Boards() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	return out
}

// WithDevice returns ctx carrying the board name for the config service.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, CtxDeviceKey, device)
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  *zap.SugaredLogger
}

func NewConfigService(log *zap.SugaredLogger) *ConfigService {
	return &ConfigService{Name: serviceName, log: logging.OrNop(log)}
}

// Parse decodes a board profile into one payload per top-level key.
// Known keys decode to their typed config; anything else stays generic.
func Parse(raw []byte) (map[string]any, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "parse profile", err)
	}
	if doc == nil {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "parse profile", Msg: "empty profile"}
	}

	out := make(map[string]any, len(doc))
	for k, node := range doc {
		var (
			v   any
			err error
		)
		switch k {
		case "lighting":
			var lc types.LightingConfig
			err = node.Decode(&lc)
			v = lc
		case "heartbeat":
			var hc types.HeartbeatConfig
			err = node.Decode(&hc)
			v = hc
		default:
			var generic any
			err = node.Decode(&generic)
			v = generic
		}
		if err != nil {
			return nil, errcode.Wrap(errcode.InvalidConfig, "decode "+k, err)
		}
		out[k] = v
	}
	return out, nil
}

// publishConfig reads the device config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "missing device ID in context"}
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return &errcode.E{C: errcode.UnknownBoard, Op: "config", Msg: "no embedded config for device: " + device}
	}

	m, err := Parse(raw)
	if err != nil {
		return err
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	s.log.Infow("published board profile", "device", device, "keys", len(m))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.Errorw("config publish failed", "err", err)
		}
	}()
}
