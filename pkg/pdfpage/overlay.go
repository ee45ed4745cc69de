package pdfpage

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Annotation is one line of the rubric overlay drawn on a page image.
type Annotation struct {
	Marks       int
	Description string
}

const (
	overlayFontSize   = 22
	overlayLineHeight = 32
	overlayMarginX    = 24
	overlayMarginY    = 24
)

var overlayFont *truetype.Font

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	overlayFont = f
}

// RenderOverlay draws rubric annotations onto a translucent panel and
// returns the result as a PNG of the given dimensions. Marks render in
// red, bonuses in green, matching the on-paper convention graders use.
func RenderOverlay(width, height int, annotations []Annotation) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid overlay dimensions %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetFontFace(truetype.NewFace(overlayFont, &truetype.Options{
		Size:    overlayFontSize,
		Hinting: font.HintingFull,
	}))

	panelHeight := float64(len(annotations))*overlayLineHeight + overlayMarginY
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(0, 0, float64(width), panelHeight)
	dc.Fill()

	y := float64(overlayMarginY) + overlayFontSize
	for _, a := range annotations {
		if a.Marks < 0 {
			dc.SetColor(color.RGBA{R: 0xc0, G: 0x10, B: 0x10, A: 0xff})
		} else {
			dc.SetColor(color.RGBA{R: 0x10, G: 0x80, B: 0x10, A: 0xff})
		}
		dc.DrawString(fmt.Sprintf("%+d  %s", a.Marks, a.Description), overlayMarginX, y)
		y += overlayLineHeight
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}
