// pkg/render/engo/input.go
package engo

import (
	"context"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/render"
)

type binding struct {
	button string
	key    rune
	keys   []engo.Key
}

// bindings maps engo keys onto the runes render.ActionForKey understands,
// so every front-end shares one layout.
var bindings = []binding{
	{"toggle-run", ' ', []engo.Key{engo.KeySpace}},
	{"reset", 'r', []engo.Key{engo.KeyR}},
	{"faster", '+', []engo.Key{engo.KeyEquals}},
	{"slower", '-', []engo.Key{engo.KeyDash}},
	{"save", 's', []engo.Key{engo.KeyS}},
	{"load", 'l', []engo.Key{engo.KeyL}},
	{"toggle-hud", 'h', []engo.Key{engo.KeyH}},
	{"fullscreen", 'f', []engo.Key{engo.KeyF}},
	{"language", 'g', []engo.Key{engo.KeyG}},
	{"quit", 'q', []engo.Key{engo.KeyQ, engo.KeyEscape}},
}

// SetupInputBindings registers the control buttons with engo.
func SetupInputBindings() {
	for _, b := range bindings {
		engo.Input.RegisterButton(b.button, b.keys...)
	}
}

// InputSystem turns key presses into controller actions.
type InputSystem struct {
	ctx        context.Context
	controller *render.Controller
	hud        *HUD
	logger     *logging.Logger

	pressed       func(button string) bool
	setFullscreen func(bool)
	quit          func()
}

// NewInputSystem creates an input system reading engo's button state.
func NewInputSystem(ctx context.Context, controller *render.Controller, hud *HUD, logger *logging.Logger) *InputSystem {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &InputSystem{
		ctx:           ctx,
		controller:    controller,
		hud:           hud,
		logger:        logger.WithComponent("input"),
		pressed:       func(button string) bool { return engo.Input.Button(button).JustPressed() },
		setFullscreen: engo.SetFullscreen,
		quit:          engo.Exit,
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Update applies the actions of the buttons pressed since the last frame.
func (is *InputSystem) Update(dt float32) {
	for _, b := range bindings {
		if is.pressed(b.button) {
			is.Handle(render.ActionForKey(b.key))
		}
	}
}

// Handle applies one action.
func (is *InputSystem) Handle(action render.Action) {
	switch action {
	case render.ActionNone:
		return
	case render.ActionQuit:
		is.quit()
		return
	}

	msg, err := is.controller.Apply(is.ctx, action)
	if err != nil {
		is.logger.Error(is.ctx, "control action failed", err, "action", action.String())
		msg = err.Error()
	}

	switch action {
	case render.ActionToggleHUD:
		is.hud.SetVisible(is.controller.ShowHUD())
	case render.ActionFullscreen:
		is.setFullscreen(is.controller.Fullscreen())
	}
	if msg != "" {
		is.hud.ShowMessage(msg)
	}
}
