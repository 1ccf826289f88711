// pkg/render/engo/assets.go
package engo

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"golang.org/x/image/font/gofont/goregular"
)

// FontURL is the resource name the HUD font is registered under.
const FontURL = "go-regular.ttf"

// HUD text settings
const (
	FontSize    = 16
	LineSpacing = 0.2
)

// Assets holds the resources shared by the scene.
type Assets struct {
	font   *common.Font
	loaded bool
}

// NewAssets creates an empty asset set.
func NewAssets() *Assets {
	return &Assets{}
}

// Preload registers the embedded Go font with engo's file loader. It must be
// called from Scene.Preload.
func (a *Assets) Preload() error {
	if a.loaded {
		return nil
	}
	if err := engo.Files.LoadReaderData(FontURL, bytes.NewReader(goregular.TTF)); err != nil {
		return fmt.Errorf("failed to load HUD font: %w", err)
	}
	a.loaded = true
	return nil
}

// Font returns the HUD font, creating it on first use.
func (a *Assets) Font() (*common.Font, error) {
	if a.font != nil {
		return a.font, nil
	}
	if !a.loaded {
		return nil, fmt.Errorf("HUD font not preloaded")
	}
	font := &common.Font{
		URL:  FontURL,
		FG:   color.Black,
		BG:   color.Transparent,
		Size: FontSize,
	}
	if err := font.CreatePreloaded(); err != nil {
		return nil, fmt.Errorf("failed to create HUD font: %w", err)
	}
	a.font = font
	return font, nil
}

// Background is the window clear colour.
var Background = color.White

// BodyDrawable returns the shape used for every body. Its size comes from the
// space component. The outline keeps white balls visible.
func BodyDrawable() common.Drawable {
	return common.Circle{BorderWidth: 1, BorderColor: color.Black}
}
