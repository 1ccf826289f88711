// pkg/render/engo/scene.go
package engo

import (
	"context"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/i18n"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/render"
	"github.com/opd-ai/go-elastic/pkg/status"
)

// SceneOptions holds what the scene draws and controls.
type SceneOptions struct {
	Simulation *engine.Simulation
	Board      *status.Board
	Translator *i18n.Translator
	Controller *render.Controller
	Viewport   *Viewport
	Logger     *logging.Logger
}

// Scene is the engo scene showing one simulation.
type Scene struct {
	ctx  context.Context
	opts SceneOptions

	assets   *Assets
	renderer *EngoRenderer
	hud      *HUD
	input    *InputSystem
	logger   *logging.Logger
}

// NewScene creates the scene. ctx bounds the simulation started from the
// keyboard.
func NewScene(ctx context.Context, opts SceneOptions) *Scene {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Scene{
		ctx:    ctx,
		opts:   opts,
		assets: NewAssets(),
		logger: logger.WithComponent("scene"),
	}
}

// Type returns the scene type (required by Engo)
func (scene *Scene) Type() string {
	return "ElasticScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *Scene) Preload() {
	if err := scene.assets.Preload(); err != nil {
		scene.logger.Error(scene.ctx, "asset preload failed", err)
	}
}

// Setup is called when the scene starts (required by Engo)
func (scene *Scene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	common.SetBackground(Background)
	SetupInputBindings()

	renderSystem := &common.RenderSystem{}
	world.AddSystem(renderSystem)

	font, err := scene.assets.Font()
	if err != nil {
		scene.logger.Error(scene.ctx, "HUD font unavailable", err)
	}
	scene.attach(renderSystem, font)

	world.AddSystem(scene.input)
	world.AddSystem(&frameSystem{scene: scene})
}

// attach builds the renderer, HUD and input system on a render system.
func (scene *Scene) attach(system RenderSystem, font *common.Font) {
	scene.hud = NewHUD(system, font)
	scene.hud.SetVisible(scene.opts.Controller.ShowHUD())
	scene.renderer = NewEngoRenderer(system, scene.opts.Viewport, scene.hud)
	scene.input = NewInputSystem(scene.ctx, scene.opts.Controller, scene.hud, scene.logger)
}

// Frame resizes the field to the window and draws the current snapshot.
func (scene *Scene) Frame(width, height float32) {
	if scene.opts.Viewport.Resize(float64(width), float64(height)) {
		scene.logger.Debug(scene.ctx, "window resized", "width", width, "height", height)
	}

	var lines []string
	if scene.opts.Controller.ShowHUD() {
		lines = scene.opts.Board.Strings(scene.opts.Translator)
	}
	render.DrawFrame(scene.renderer, scene.opts.Simulation.Snapshot(), lines)
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *Scene) Exit() {
	scene.opts.Simulation.Pause()
	if scene.renderer != nil {
		scene.renderer.RemoveAll()
	}
	if scene.hud != nil {
		scene.hud.Remove()
	}
}

type frameSystem struct {
	scene *Scene
}

func (f *frameSystem) Remove(ecs.BasicEntity) {}

func (f *frameSystem) Update(dt float32) {
	f.scene.Frame(engo.GameWidth(), engo.GameHeight())
}
