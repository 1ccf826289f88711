// cmd/elastic-headless/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-elastic/pkg/health"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/session"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "elastic.json", "Path to configuration file")
	scenarioFlag := flag.String("scenario", "", "Preset name or scenario YAML file")
	locale := flag.String("locale", "", "Language for the printed status (en, fr, zh)")
	ticks := flag.Int("ticks", -1, "Ticks to run; 0 runs until interrupted, -1 uses the configuration")
	port := flag.Int("health-port", -1, "Port for /health, /ready and /stats; 0 disables, -1 uses the configuration")
	seed := flag.Uint64("seed", 0, "Seed for random scenarios; 0 picks one")
	flag.Parse()

	cfg, err := session.LoadConfig(ctx, *configPath, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	session.SelectScenario(cfg, *scenarioFlag)
	if *locale != "" {
		cfg.Locale = *locale
	}
	if *ticks >= 0 {
		cfg.Headless.Ticks = *ticks
	}
	if *port >= 0 {
		cfg.Headless.HealthPort = *port
	}

	opts := session.Options{Logger: logger}
	if *seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(*seed, *seed))
	}
	s, err := session.New(cfg, opts)
	if err != nil {
		logger.Error(ctx, "Failed to create simulation", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := run(sigCtx, s, logger, os.Stdout)
	if runErr != nil {
		logger.Error(ctx, "Headless run failed", runErr)
	}

	logger.Info(ctx, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Close(shutdownCtx); err != nil {
		logger.Error(ctx, "Shutdown failed", err)
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
}

// run drives the session until it reaches the configured tick count or ctx
// ends, then writes the final statistics to out as JSON.
func run(ctx context.Context, s *session.Session, logger *logging.Logger, out io.Writer) error {
	cfg := s.Config
	if err := s.Start(ctx); err != nil {
		return err
	}

	if cfg.Headless.HealthPort > 0 {
		server := health.NewServer(cfg.Headless.HealthPort, s.Checker,
			health.StatsHandler(s.Simulation, s.Board, s.Translator), logger)
		if err := server.Start(ctx, s.Manager); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error(ctx, "Health server shutdown failed", err)
			}
		}()
	}

	if err := s.Simulation.Start(ctx); err != nil {
		return err
	}
	defer s.Simulation.Pause()

	interval := time.Duration(cfg.Headless.StatsIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	statsTicker := time.NewTicker(interval)
	defer statsTicker.Stop()
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	target := uint64(cfg.Headless.Ticks)
loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Interrupted", "tick", s.Simulation.Tick())
			break loop
		case <-statsTicker.C:
			logStats(ctx, s, logger)
		case <-poll.C:
			if target > 0 && s.Simulation.Tick() >= target {
				break loop
			}
		}
	}

	s.Simulation.Pause()
	if err := s.Simulation.LastError(); err != nil {
		logger.Warn(ctx, "Simulation reported an error", "error", err.Error())
	}
	s.Board.Sample()
	logStats(ctx, s, logger)
	return writeStats(out, s)
}

func logStats(ctx context.Context, s *session.Session, logger *logging.Logger) {
	args := make([]any, 0, 2*len(s.Board.Elements()))
	for _, line := range s.Board.Lines(s.Translator) {
		args = append(args, string(line.Key), line.Value)
	}
	logger.Info(ctx, "Simulation stats", args...)
}

func writeStats(out io.Writer, s *session.Session) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(health.Stats{
		Language: s.Translator.Language().String(),
		Status:   s.Board.Lines(s.Translator),
		Snapshot: s.Simulation.Snapshot(),
	})
}
