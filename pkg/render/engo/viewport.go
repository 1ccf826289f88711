// pkg/render/engo/viewport.go
package engo

import (
	"math"
	"sync"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

// Viewport maps field coordinates to window pixels. One world unit is one
// pixel and the origin sits in the centre of the window, so resizing the
// window resizes the field.
type Viewport struct {
	mu     sync.RWMutex
	width  float64
	height float64
}

// NewViewport creates a viewport for a window of the given size.
func NewViewport(width, height float64) *Viewport {
	v := &Viewport{}
	v.Resize(width, height)
	return v
}

// Resize records a new window size. Non-positive or non-finite sizes are
// ignored, which happens while a window is minimized.
func (v *Viewport) Resize(width, height float64) bool {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	changed := v.width != width || v.height != height
	v.width, v.height = width, height
	return changed
}

// Size returns the window size.
func (v *Viewport) Size() (width, height float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// Bound returns the field bound for the current window size. The simulation
// reads it once per tick through Provider.
func (v *Viewport) Bound() physics.Bound {
	w, h := v.Size()
	return physics.NewBound(w, h)
}

// Provider returns the viewport as the simulation's bound provider.
func (v *Viewport) Provider() engine.BoundProvider {
	return engine.BoundFunc(v.Bound)
}

// ToScreen returns the top-left corner of the square enclosing a body of the
// given radius, in window pixels with y growing downwards.
func (v *Viewport) ToScreen(pos physics.Vector2D, radius float64) engo.Point {
	w, h := v.Size()
	return engo.Point{
		X: float32(pos.X + w/2 - radius),
		Y: float32(pos.Y + h/2 - radius),
	}
}

// ToWorld converts a window pixel to field coordinates.
func (v *Viewport) ToWorld(p engo.Point) physics.Vector2D {
	w, h := v.Size()
	return physics.Vector2D{X: float64(p.X) - w/2, Y: float64(p.Y) - h/2}
}
