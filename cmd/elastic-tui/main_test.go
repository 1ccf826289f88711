package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-elastic/pkg/config"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/render"
	"github.com/opd-ai/go-elastic/pkg/session"
)

func newTestApp(t *testing.T) (*app, tcell.SimulationScreen) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scenario.Name = "wall"
	cfg.TickDelayMS = 1

	s, err := session.New(cfg, session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)

	logger := logging.NewNopLogger()
	controller := render.NewController(s.Simulation, s.Translator, filepath.Join(t.TempDir(), "save.yaml"), cfg.Limits.MaxBodies, logger)
	return newApp(screen, s.Simulation, s.Board, s.Translator, controller, logger), screen
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want render.Action
	}{
		{name: "space", ev: tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), want: render.ActionToggleRun},
		{name: "reset", ev: tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), want: render.ActionReset},
		{name: "escape", ev: tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), want: render.ActionQuit},
		{name: "ctrl_c", ev: tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone), want: render.ActionQuit},
		{name: "arrow", ev: tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), want: render.ActionNone},
		{name: "unbound_rune", ev: tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), want: render.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyAction(tt.ev); got != tt.want {
				t.Errorf("keyAction() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestApp_Handle(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if a.handle(ctx, render.ActionNone) {
		t.Error("ActionNone stopped the loop")
	}
	if !a.handle(ctx, render.ActionQuit) {
		t.Error("ActionQuit did not stop the loop")
	}

	a.handle(ctx, render.ActionToggleHUD)
	if a.controller.ShowHUD() {
		t.Error("expected the status panel hidden")
	}

	a.handle(ctx, render.ActionLoad)
	if a.message == "" || time.Now().After(a.messageUntil) {
		t.Errorf("expected a message after a failed load, got %q", a.message)
	}
	t.Cleanup(a.sim.Pause)
}

func TestApp_RunUntilQuit(t *testing.T) {
	a, screen := newTestApp(t)

	done := make(chan error, 1)
	go func() { done <- a.run(context.Background(), 10*time.Millisecond) }()

	screen.InjectKey(tcell.KeyRune, ' ', tcell.ModNone)
	deadline := time.Now().Add(2 * time.Second)
	for a.sim.Tick() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if a.sim.Tick() < 3 {
		t.Fatal("space did not start the simulation")
	}

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run() did not return after q")
	}
	if a.sim.Running() {
		t.Error("quitting left the simulation running")
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.run(ctx, 10*time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run() ignored cancellation")
	}
}
