package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/i18n"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/statefile"
)

// Action is a user command shared by the front-ends.
type Action int

// Actions
const (
	ActionNone Action = iota
	ActionToggleRun
	ActionReset
	ActionFaster
	ActionSlower
	ActionSave
	ActionLoad
	ActionToggleHUD
	ActionFullscreen
	ActionLanguage
	ActionQuit
)

// Tick delay limits for the speed controls.
const (
	MinTickDelay = time.Millisecond
	MaxTickDelay = 10 * time.Second
)

var actionNames = map[Action]string{
	ActionNone:       "none",
	ActionToggleRun:  "toggle-run",
	ActionReset:      "reset",
	ActionFaster:     "faster",
	ActionSlower:     "slower",
	ActionSave:       "save",
	ActionLoad:       "load",
	ActionToggleHUD:  "toggle-hud",
	ActionFullscreen: "fullscreen",
	ActionLanguage:   "language",
	ActionQuit:       "quit",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ActionForKey maps the keyboard layout of every front-end to actions:
// Space start/pause, R reset, +/- speed, S save, L load, H status panel,
// F full screen, G language, Q or Escape quit.
func ActionForKey(key rune) Action {
	switch key {
	case ' ':
		return ActionToggleRun
	case 'r', 'R':
		return ActionReset
	case '+', '=':
		return ActionFaster
	case '-', '_':
		return ActionSlower
	case 's', 'S':
		return ActionSave
	case 'l', 'L':
		return ActionLoad
	case 'h', 'H':
		return ActionToggleHUD
	case 'f', 'F':
		return ActionFullscreen
	case 'g', 'G':
		return ActionLanguage
	case 'q', 'Q', 0x1b:
		return ActionQuit
	default:
		return ActionNone
	}
}

// Controller applies actions to a simulation.
type Controller struct {
	sim        *engine.Simulation
	translator *i18n.Translator
	logger     *logging.Logger
	savePath   string
	maxBodies  int

	showHUD    bool
	fullscreen bool
}

// NewController creates a controller saving to and loading from savePath.
func NewController(sim *engine.Simulation, tr *i18n.Translator, savePath string, maxBodies int, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		sim:        sim,
		translator: tr,
		logger:     logger.WithComponent("controls"),
		savePath:   savePath,
		maxBodies:  maxBodies,
		showHUD:    true,
	}
}

// ShowHUD reports whether the status panel is visible.
func (c *Controller) ShowHUD() bool { return c.showHUD }

// Fullscreen reports whether full screen was requested.
func (c *Controller) Fullscreen() bool { return c.fullscreen }

// SetFullscreen records the initial full screen state.
func (c *Controller) SetFullscreen(on bool) { c.fullscreen = on }

// Apply performs the action and returns a localized message for the user,
// or an empty string when there is nothing to report.
func (c *Controller) Apply(ctx context.Context, a Action) (string, error) {
	switch a {
	case ActionToggleRun:
		if err := c.sim.Toggle(ctx); err != nil {
			return "", err
		}
		if c.sim.Running() {
			return c.translator.T(i18n.Running), nil
		}
		return c.translator.T(i18n.Paused), nil

	case ActionReset:
		if err := c.sim.Reset(); err != nil {
			return "", err
		}
		return "", nil

	case ActionFaster:
		return c.changeSpeed(ctx, c.sim.TickDelay()/2)

	case ActionSlower:
		return c.changeSpeed(ctx, c.sim.TickDelay()*2)

	case ActionSave:
		if err := statefile.Save(c.savePath, c.sim); err != nil {
			return "", logging.WrapError(err, "failed to save %s", c.savePath)
		}
		c.logger.Info(ctx, "state saved", "path", c.savePath)
		return c.translator.T(i18n.SaveState), nil

	case ActionLoad:
		st, err := statefile.Load(c.savePath, c.maxBodies)
		if errors.Is(err, statefile.ErrBadFile) {
			c.logger.Warn(ctx, "rejected save file", "path", c.savePath)
			return c.translator.T(i18n.BadFile), nil
		}
		if err != nil {
			return "", logging.WrapError(err, "failed to load %s", c.savePath)
		}
		if err := st.Apply(c.sim); err != nil {
			return "", err
		}
		c.logger.Info(ctx, "state loaded", "path", c.savePath, "bodies", len(st.Bodies))
		return c.translator.T(i18n.LoadState), nil

	case ActionToggleHUD:
		c.showHUD = !c.showHUD
		return "", nil

	case ActionFullscreen:
		c.fullscreen = !c.fullscreen
		return "", nil

	case ActionLanguage:
		tag := c.translator.Next()
		return c.translator.Label(i18n.Language, tag.String()), nil
	}
	return "", nil
}

// changeSpeed sets the tick delay, clamped to the allowed range. A running
// simulation is paused for the change and started again.
func (c *Controller) changeSpeed(ctx context.Context, d time.Duration) (string, error) {
	d = max(MinTickDelay, min(MaxTickDelay, d))

	wasRunning := c.sim.Running()
	if wasRunning {
		c.sim.Pause()
	}
	if err := c.sim.SetTickDelay(d); err != nil {
		return "", err
	}
	if wasRunning {
		if err := c.sim.Start(ctx); err != nil {
			return "", err
		}
	}
	return c.translator.Label(i18n.Speed, fmt.Sprint(d.Milliseconds())), nil
}
