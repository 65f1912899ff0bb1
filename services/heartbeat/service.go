package heartbeat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"keylight-go/bus"
	"keylight-go/internal/logging"
	"keylight-go/types"
	"keylight-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	TopicHeartbeat       = bus.T("sys", "heartbeat")
)

type Service struct {
	log      *zap.SugaredLogger
	interval time.Duration
	start    time.Time
}

// New returns a heartbeat service ticking every interval until a
// config/heartbeat message says otherwise.
func New(log *zap.SugaredLogger, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{log: logging.OrNop(log), interval: interval}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("heartbeat service stopping")
			return
		case <-tick.C:
			hb := types.Heartbeat{Uptime: timex.SecondsSince(s.start), TSms: timex.NowMs()}
			s.log.Debugw("heartbeat", "uptime_s", hb.Uptime)
			conn.Publish(conn.NewMessage(TopicHeartbeat, hb, true))
		case msg := <-cfgSub.Channel():
			if d, ok := intervalOf(msg.Payload); ok {
				s.interval = d
				tick.Reset(d)
				s.log.Infow("heartbeat interval set", "interval", d)
			} else {
				s.log.Warnw("ignoring heartbeat config", "payload", msg.Payload)
			}
		}
	}
}

// intervalOf accepts the typed config or a generic map with an interval in seconds.
func intervalOf(p any) (time.Duration, bool) {
	var secs float64
	switch v := p.(type) {
	case types.HeartbeatConfig:
		secs = float64(v.IntervalS)
	case map[string]any:
		switch iv := v["interval"].(type) {
		case int:
			secs = float64(iv)
		case float64:
			secs = iv
		default:
			return 0, false
		}
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	s.start = time.Now()
	go s.serviceLoop(ctx, conn)
	return nil
}
