// pkg/render/engo/renderer.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/physics"
	"github.com/opd-ai/go-elastic/pkg/render"
)

// RenderSystem is the part of common.RenderSystem the renderer uses.
type RenderSystem interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

type bodyEntity struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
	seen bool
}

// EngoRenderer implements render.Renderer on an engo render system. Bodies
// are kept as entities keyed by body ID and updated in place every frame.
type EngoRenderer struct {
	system   RenderSystem
	viewport *Viewport
	hud      *HUD

	bodies map[physics.ID]*bodyEntity
}

var _ render.Renderer = (*EngoRenderer)(nil)

// NewEngoRenderer creates a renderer drawing into system.
func NewEngoRenderer(system RenderSystem, viewport *Viewport, hud *HUD) *EngoRenderer {
	return &EngoRenderer{
		system:   system,
		viewport: viewport,
		hud:      hud,
		bodies:   make(map[physics.ID]*bodyEntity),
	}
}

// Clear implements render.Renderer.
func (r *EngoRenderer) Clear() {
	for _, b := range r.bodies {
		b.seen = false
	}
}

// RenderBody implements render.Renderer.
func (r *EngoRenderer) RenderBody(body engine.BodyState) {
	e, ok := r.bodies[body.ID]
	if !ok {
		e = &bodyEntity{BasicEntity: ecs.NewBasic()}
		e.RenderComponent = common.RenderComponent{Drawable: BodyDrawable()}
		r.bodies[body.ID] = e
		r.system.Add(&e.BasicEntity, &e.RenderComponent, &e.SpaceComponent)
	}

	size := float32(body.Radius * 2)
	e.SpaceComponent.Position = r.viewport.ToScreen(body.Position, body.Radius)
	e.SpaceComponent.Width = size
	e.SpaceComponent.Height = size
	e.RenderComponent.Color = body.Color
	e.seen = true
}

// RenderStatus implements render.Renderer.
func (r *EngoRenderer) RenderStatus(lines []string) {
	if r.hud != nil {
		r.hud.SetLines(lines)
	}
}

// Present implements render.Renderer. Entities for bodies that were not drawn
// this frame are removed.
func (r *EngoRenderer) Present() {
	for id, e := range r.bodies {
		if !e.seen {
			r.system.Remove(e.BasicEntity)
			delete(r.bodies, id)
		}
	}
}

// Count returns the number of body entities.
func (r *EngoRenderer) Count() int {
	return len(r.bodies)
}

// Position returns the screen position of a body entity.
func (r *EngoRenderer) Position(id physics.ID) (engo.Point, bool) {
	e, ok := r.bodies[id]
	if !ok {
		return engo.Point{}, false
	}
	return e.SpaceComponent.Position, true
}

// RemoveAll removes every body entity.
func (r *EngoRenderer) RemoveAll() {
	for id, e := range r.bodies {
		r.system.Remove(e.BasicEntity)
		delete(r.bodies, id)
	}
}
