// cmd/elastic/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/render"
	engorender "github.com/opd-ai/go-elastic/pkg/render/engo"
	"github.com/opd-ai/go-elastic/pkg/scenario"
	"github.com/opd-ai/go-elastic/pkg/session"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "elastic.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	scenarioFlag := flag.String("scenario", "", "Preset name or scenario YAML file")
	locale := flag.String("locale", "", "Language for the status panel (en, fr, zh)")
	listPresets := flag.Bool("list", false, "List the built-in scenarios and exit")
	savePath := flag.String("save", "elastic-save.yaml", "File used by the save and load keys")
	flag.Parse()

	if *listPresets {
		for _, name := range scenario.Presets() {
			fmt.Println(name)
		}
		return
	}

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	cfg, err := session.LoadConfig(ctx, *configPath, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	session.SelectScenario(cfg, *scenarioFlag)
	if *locale != "" {
		cfg.Locale = *locale
	}

	viewport := engorender.NewViewport(float64(cfg.Window.Width), float64(cfg.Window.Height))
	s, err := session.New(cfg, session.Options{
		Logger: logger,
		BoundFor: func(width, height float64) engine.BoundProvider {
			viewport.Resize(width, height)
			return viewport.Provider()
		},
	})
	if err != nil {
		logger.Error(ctx, "Failed to create simulation", err)
		os.Exit(1)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := s.Start(runCtx); err != nil {
		logger.Error(ctx, "Failed to start session", err)
		os.Exit(1)
	}
	s.EnableAudio(runCtx)

	controller := render.NewController(s.Simulation, s.Translator, *savePath, cfg.Limits.MaxBodies, logger)
	controller.SetFullscreen(cfg.Window.Fullscreen)
	if !cfg.Window.ShowHUD {
		if _, err := controller.Apply(runCtx, render.ActionToggleHUD); err != nil {
			logger.Error(ctx, "Failed to hide status panel", err)
		}
	}

	scene := engorender.NewScene(runCtx, engorender.SceneOptions{
		Simulation: s.Simulation,
		Board:      s.Board,
		Translator: s.Translator,
		Controller: controller,
		Viewport:   viewport,
		Logger:     logger,
	})

	width, height := viewport.Size()
	engo.Run(engo.RunOptions{
		Title:      cfg.Window.Title,
		Width:      int(width),
		Height:     int(height),
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      true,
	}, scene)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	cancel()
	if err := s.Close(shutdownCtx); err != nil {
		logger.Error(ctx, "Shutdown failed", err)
	}
	logger.Info(ctx, "Simulation window closed", "ticks", s.Simulation.Tick())
}
