package render

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/i474232898/weather-display/internal/display"
)

type faceKey struct {
	size  float64
	style display.FontStyle
}

// Fonts hands out Go font faces by size and style and measures text
// with them. It implements display.TextMeasurer.
type Fonts struct {
	regular *text.GoTextFaceSource
	bold    *text.GoTextFaceSource
	faces   *display.Cache[faceKey, *text.GoTextFace]
}

func NewFonts() (*Fonts, error) {
	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}

	f := &Fonts{regular: regular, bold: bold}
	f.faces = display.NewCache(
		func(k faceKey) (*text.GoTextFace, error) {
			src := f.regular
			if k.style == display.FontBold {
				src = f.bold
			}
			return &text.GoTextFace{Source: src, Size: k.size}, nil
		},
		func(k faceKey, _ error) *text.GoTextFace {
			return &text.GoTextFace{Source: f.regular, Size: k.size}
		},
	)
	return f, nil
}

// Face returns the cached face for size and style.
func (f *Fonts) Face(size float64, style display.FontStyle) *text.GoTextFace {
	return f.faces.Get(faceKey{size: size, style: style})
}

func (f *Fonts) Measure(s string, size float64, style display.FontStyle) (float64, float64) {
	return text.Measure(s, f.Face(size, style), 0)
}
