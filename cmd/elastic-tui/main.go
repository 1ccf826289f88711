// cmd/elastic-tui/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/i18n"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/render"
	"github.com/opd-ai/go-elastic/pkg/session"
	"github.com/opd-ai/go-elastic/pkg/status"
)

const messageDuration = 2 * time.Second

func main() {
	configPath := flag.String("config", "elastic.json", "Path to configuration file")
	scenarioFlag := flag.String("scenario", "", "Preset name or scenario YAML file")
	locale := flag.String("locale", "", "Language for the status panel (en, fr, zh)")
	savePath := flag.String("save", "elastic-save.yaml", "File used by the save and load keys")
	logPath := flag.String("log", "elastic-tui.log", "Log file; the terminal is used for drawing")
	fps := flag.Int("fps", 30, "Frames per second")
	flag.Parse()

	if err := run(*configPath, *scenarioFlag, *locale, *savePath, *logPath, *fps); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, scenarioFlag, locale, savePath, logPath string, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := logging.NewLoggerWithWriter(logFile, logging.ParseLevel(os.Getenv("ELASTIC_LOG_LEVEL")))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := session.LoadConfig(ctx, configPath, logger)
	if err != nil {
		return err
	}
	session.SelectScenario(cfg, scenarioFlag)
	if locale != "" {
		cfg.Locale = locale
	}

	s, err := session.New(cfg, session.Options{Logger: logger})
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	s.EnableAudio(ctx)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Close(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "shutdown failed", err)
		}
	}()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal screen: %w", err)
	}
	defer screen.Fini()

	a := newApp(screen, s.Simulation, s.Board, s.Translator,
		render.NewController(s.Simulation, s.Translator, savePath, cfg.Limits.MaxBodies, logger), logger)
	return a.run(ctx, time.Second/time.Duration(fps))
}

// app is the terminal front-end: one goroutine reads keys, the loop draws
// frames and applies actions.
type app struct {
	screen     tcell.Screen
	sim        *engine.Simulation
	board      *status.Board
	translator *i18n.Translator
	controller *render.Controller
	renderer   *render.TerminalRenderer
	logger     *logging.Logger

	message      string
	messageUntil time.Time
}

func newApp(screen tcell.Screen, sim *engine.Simulation, board *status.Board, tr *i18n.Translator, controller *render.Controller, logger *logging.Logger) *app {
	return &app{
		screen:     screen,
		sim:        sim,
		board:      board,
		translator: tr,
		controller: controller,
		renderer:   render.NewTerminalRenderer(screen, sim.Bound()),
		logger:     logger.WithComponent("tui"),
	}
}

// keyAction maps a terminal key to an action.
func keyAction(ev *tcell.EventKey) render.Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return render.ActionQuit
	case tcell.KeyRune:
		return render.ActionForKey(ev.Rune())
	}
	return render.ActionNone
}

func (a *app) run(ctx context.Context, frame time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.sim.Pause()

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	a.draw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.draw()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				a.screen.Sync()
				a.draw()
			case *tcell.EventKey:
				if quit := a.handle(ctx, keyAction(ev)); quit {
					return nil
				}
			}
		}
	}
}

// handle applies an action and reports whether the loop should stop.
func (a *app) handle(ctx context.Context, action render.Action) bool {
	switch action {
	case render.ActionNone:
		return false
	case render.ActionQuit:
		return true
	}

	msg, err := a.controller.Apply(ctx, action)
	if err != nil {
		a.logger.Error(ctx, "control action failed", err, "action", action.String())
		msg = err.Error()
	}
	if action == render.ActionToggleHUD {
		a.renderer.SetHUD(a.controller.ShowHUD())
	}
	if msg != "" {
		a.message = msg
		a.messageUntil = time.Now().Add(messageDuration)
	}
	a.draw()
	return false
}

func (a *app) draw() {
	var lines []string
	if a.controller.ShowHUD() {
		lines = a.board.Strings(a.translator)
	}
	if a.message != "" && time.Now().Before(a.messageUntil) {
		lines = append(lines, a.message)
	}
	render.DrawFrame(a.renderer, a.sim.Snapshot(), lines)
}
