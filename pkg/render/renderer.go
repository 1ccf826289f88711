// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

// Renderer draws frames of the simulation.
type Renderer interface {
	Clear()
	RenderBody(body engine.BodyState)
	RenderStatus(lines []string)
	Present()
}

// Framer is implemented by renderers that scale the field to their output.
type Framer interface {
	SetBound(bound physics.Bound)
}

// DrawFrame draws one snapshot with its status lines. Status is drawn
// before the bodies.
func DrawFrame(r Renderer, snap *engine.Snapshot, lines []string) {
	if f, ok := r.(Framer); ok {
		f.SetBound(snap.Bound)
	}
	r.Clear()
	r.RenderStatus(lines)
	for _, b := range snap.Bodies {
		r.RenderBody(b)
	}
	r.Present()
}

// NullRenderer draws nothing and logs every call at debug level. The
// headless runner uses it.
type NullRenderer struct {
	logger *logging.Logger
	frames int
}

// NewNullRenderer creates a new NullRenderer with structured logging.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NullRenderer{logger: logger.WithComponent("null-renderer")}
}

// Clear implements Renderer.
func (d *NullRenderer) Clear() {
	d.logger.Debug(context.Background(), "Clear called")
}

// Present implements Renderer.
func (d *NullRenderer) Present() {
	d.frames++
	d.logger.Debug(context.Background(), "Present called", "frame", d.frames)
}

// RenderBody implements Renderer.
func (d *NullRenderer) RenderBody(body engine.BodyState) {
	d.logger.Debug(context.Background(), "RenderBody called",
		"body_id", uint64(body.ID),
		"x", body.Position.X,
		"y", body.Position.Y,
	)
}

// RenderStatus implements Renderer.
func (d *NullRenderer) RenderStatus(lines []string) {
	d.logger.Debug(context.Background(), "RenderStatus called", "lines", len(lines))
}

// Frames returns the number of presented frames.
func (d *NullRenderer) Frames() int {
	return d.frames
}
