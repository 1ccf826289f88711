package render

import (
	"image/color"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/physics"
)

// Glyphs
const (
	ballGlyph     = '●'
	particleGlyph = '·'
	borderGlyph   = '#'
)

// TerminalRenderer draws the field as characters on a tcell screen. Status
// lines occupy the top rows and the bordered field fills the rest.
type TerminalRenderer struct {
	screen    tcell.Screen
	bound     physics.Bound
	statusRow int
	showHUD   bool
}

// NewTerminalRenderer creates a renderer for an initialized screen.
func NewTerminalRenderer(screen tcell.Screen, bound physics.Bound) *TerminalRenderer {
	return &TerminalRenderer{screen: screen, bound: bound, showHUD: true}
}

// SetBound implements Framer.
func (r *TerminalRenderer) SetBound(bound physics.Bound) {
	r.bound = bound
}

// SetHUD shows or hides the status lines.
func (r *TerminalRenderer) SetHUD(show bool) {
	r.showHUD = show
}

// fieldArea returns the screen rectangle inside the border.
func (r *TerminalRenderer) fieldArea() (x0, y0, w, h int) {
	sw, sh := r.screen.Size()
	top := 0
	if r.showHUD {
		top = r.statusRow
	}
	return 1, top + 1, sw - 2, sh - top - 2
}

// worldToScreen converts field coordinates to a cell. ok is false outside
// the field.
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (x, y int, ok bool) {
	x0, y0, w, h := r.fieldArea()
	if w <= 0 || h <= 0 || r.bound.HalfWidth <= 0 || r.bound.HalfHeight <= 0 {
		return 0, 0, false
	}
	fx := (pos.X + r.bound.HalfWidth) / r.bound.Width()
	fy := (pos.Y + r.bound.HalfHeight) / r.bound.Height()
	if fx < 0 || fx >= 1 || fy < 0 || fy >= 1 {
		return 0, 0, false
	}
	return x0 + int(fx*float64(w)), y0 + int(fy*float64(h)), true
}

// Clear implements Renderer.
func (r *TerminalRenderer) Clear() {
	r.screen.Clear()
}

// RenderStatus implements Renderer. The number of lines sets the height of
// the status area for the bodies drawn after it.
func (r *TerminalRenderer) RenderStatus(lines []string) {
	if !r.showHUD {
		r.statusRow = 0
		return
	}
	r.statusRow = len(lines)
	for y, line := range lines {
		x := 0
		for _, ch := range line {
			r.screen.SetContent(x, y, ch, nil, tcell.StyleDefault)
			x += runewidth.RuneWidth(ch)
		}
	}
}

// RenderBody implements Renderer.
func (r *TerminalRenderer) RenderBody(body engine.BodyState) {
	x, y, ok := r.worldToScreen(body.Position)
	if !ok {
		return
	}
	glyph := ballGlyph
	if body.Radius <= physics.GasParticleRadius {
		glyph = particleGlyph
	}
	r.screen.SetContent(x, y, glyph, nil, tcell.StyleDefault.Foreground(terminalColor(body.Color)))
}

// Present implements Renderer. It draws the border and shows the frame.
func (r *TerminalRenderer) Present() {
	x0, y0, w, h := r.fieldArea()
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for x := x0 - 1; x <= x0+w; x++ {
		r.screen.SetContent(x, y0-1, borderGlyph, nil, style)
		r.screen.SetContent(x, y0+h, borderGlyph, nil, style)
	}
	for y := y0; y < y0+h; y++ {
		r.screen.SetContent(x0-1, y, borderGlyph, nil, style)
		r.screen.SetContent(x0+w, y, borderGlyph, nil, style)
	}
	r.screen.Show()
}

// terminalColor maps a body colour to the terminal. Near-black bodies are
// drawn white so they stay visible on dark terminals.
func terminalColor(c color.RGBA) tcell.Color {
	if int(c.R)+int(c.G)+int(c.B) < 96 {
		return tcell.ColorWhite
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
