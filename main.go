package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"github.com/prometheus/client_golang/prometheus"

	"keylight-go/bus"
	"keylight-go/internal/logging"
	"keylight-go/services/config"
	"keylight-go/services/heartbeat"
	"keylight-go/services/input"
	"keylight-go/services/lighting"
	"keylight-go/services/lighting/platform"
	"keylight-go/services/metrics"
)

var logger = logging.New("main")

type DeviceConfig struct {
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	Board             string        `env:"BOARD" envDefault:"host"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:""`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"10s"`
}

func main() {
	defer logger.Sync()

	var cfg DeviceConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Fatalw("Failed to parse environment variables", "err", err)
	}
	logging.GetLeveler().SetDefault(logging.ParseLevel(cfg.LogLevel))
	logger.Infow("boot", "board", cfg.Board, "metrics", cfg.MetricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(32)
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	keys := input.New()
	defer keys.Close()
	go keys.Forward(ctx, b.NewConnection("input"), logging.New("input"))

	config.NewConfigService(logging.New("config")).Start(config.WithDevice(ctx, cfg.Board), b.NewConnection("config"))

	_ = heartbeat.New(logging.New("heartbeat"), cfg.HeartbeatInterval).Start(ctx, b.NewConnection("heartbeat"))

	light := lighting.New(lighting.Options{
		Log:     logging.New("lighting"),
		Buses:   platform.DefaultI2C(),
		Metrics: rec,
		Input:   keys,
	})
	_ = light.Start(ctx, b.NewConnection("lighting"))

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
	}

	select {
	case <-light.Ready():
		logger.Infow("lighting ready")
	case <-time.After(5 * time.Second):
		logger.Warnw("no lighting config yet", "board", cfg.Board)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	logger.Infow("Shutting down")
}
