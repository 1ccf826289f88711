// pkg/render/engo/hud.go
package engo

import (
	"strings"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
)

// MessageDuration is how long a control message stays on screen.
const MessageDuration = 2 * time.Second

type hudEntity struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// HUD shows the status lines and the last control message in the top-left
// corner of the window.
type HUD struct {
	system RenderSystem
	font   *common.Font
	entity *hudEntity

	lines        []string
	message      string
	messageUntil time.Time
	visible      bool

	now func() time.Time
}

// NewHUD creates a visible HUD. font may be nil until the scene has loaded it.
func NewHUD(system RenderSystem, font *common.Font) *HUD {
	return &HUD{
		system:  system,
		font:    font,
		visible: true,
		now:     time.Now,
	}
}

// SetLines replaces the status lines.
func (h *HUD) SetLines(lines []string) {
	h.lines = append(h.lines[:0], lines...)
	h.refresh()
}

// ShowMessage displays msg below the status lines for MessageDuration.
func (h *HUD) ShowMessage(msg string) {
	h.message = msg
	h.messageUntil = h.now().Add(MessageDuration)
	h.refresh()
}

// SetVisible shows or hides the HUD.
func (h *HUD) SetVisible(visible bool) {
	h.visible = visible
	h.refresh()
}

// Visible reports whether the HUD is shown.
func (h *HUD) Visible() bool {
	return h.visible
}

// Text returns the text currently displayed.
func (h *HUD) Text() string {
	text := strings.Join(h.lines, "\n")
	if h.message != "" && h.now().Before(h.messageUntil) {
		if text != "" {
			text += "\n"
		}
		text += h.message
	}
	return text
}

func (h *HUD) refresh() {
	if h.entity == nil {
		h.entity = &hudEntity{BasicEntity: ecs.NewBasic()}
		h.entity.SpaceComponent = common.SpaceComponent{Position: engo.Point{X: 8, Y: 8}}
		h.entity.RenderComponent.SetShader(common.HUDShader)
		h.entity.RenderComponent.SetZIndex(10)
		h.system.Add(&h.entity.BasicEntity, &h.entity.RenderComponent, &h.entity.SpaceComponent)
	}
	h.entity.RenderComponent.Drawable = common.Text{
		Font:        h.font,
		Text:        h.Text(),
		LineSpacing: LineSpacing,
	}
	h.entity.RenderComponent.Hidden = !h.visible
}

// Remove takes the HUD entity out of the render system.
func (h *HUD) Remove() {
	if h.entity != nil {
		h.system.Remove(h.entity.BasicEntity)
		h.entity = nil
	}
}
