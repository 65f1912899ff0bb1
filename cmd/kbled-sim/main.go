// kbled-sim replays scripted signal scenarios against both lighting
// controllers on a simulated clock and logs every LED change.
package main

import (
	"os"
	"strings"

	"github.com/caarlos0/env"

	"keylight-go/internal/logging"
)

var logger = logging.New("sim")

type SimConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Scenario string `env:"SIM_SCENARIO" envDefault:"all"`
	Verbose  bool   `env:"SIM_VERBOSE" envDefault:"false"`
}

func main() {
	defer logger.Sync()

	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Fatalw("Failed to parse environment variables", "err", err)
	}
	logging.GetLeveler().SetDefault(logging.ParseLevel(cfg.LogLevel))

	var run []scenario
	if name := strings.ToLower(cfg.Scenario); name == "all" {
		run = scenarios
	} else {
		sc, ok := findScenario(name)
		if !ok {
			logger.Errorw("unknown scenario", "name", cfg.Scenario, "want", "a..e or all")
			os.Exit(2)
		}
		run = []scenario{sc}
	}

	for _, sc := range run {
		s := newSim(logger, cfg.Verbose)
		if err := s.start(); err != nil {
			logger.Fatalw("controller init failed", "err", err)
		}
		play(s, sc)
	}
}
