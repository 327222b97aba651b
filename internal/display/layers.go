package display

import (
	"image"
	"image/color"
	"slices"
)

// ZBand is a composition band. Bands are drawn in ascending order.
type ZBand int

const (
	BandBackground ZBand = iota
	BandTitle
	BandAlertBar
	BandPanel
	BandTicker
	BandOverlay
)

// LayerKind selects how a presenter draws a Layer.
type LayerKind int

const (
	LayerFill LayerKind = iota
	LayerImage
	LayerAsset
	LayerText
	LayerLine
	LayerDot
)

// Align is the horizontal anchor of a text layer.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Layer is one drawing instruction. Coordinates are screen pixels, or
// panel-relative pixels inside a PanelFrame. An image or asset with W
// or H of 0 keeps its aspect ratio from the other dimension.
type Layer struct {
	Kind LayerKind
	Band ZBand

	X, Y float64
	W, H float64
	// X2, Y2 are the line end point; for LayerDot W is the radius.
	X2, Y2 float64

	Image    image.Image
	Asset    string
	Fallback color.RGBA

	Text         string
	Size         float64
	Style        FontStyle
	Align        Align
	Color        color.RGBA
	Outline      color.RGBA
	OutlineWidth float64

	// Alpha multiplies the layer opacity, 0..1.
	Alpha float64
	// ScaleX squeezes the layer horizontally; 0 means 1.
	ScaleX float64
}

func FillLayer(x, y, w, h float64, c color.RGBA) Layer {
	return Layer{Kind: LayerFill, X: x, Y: y, W: w, H: h, Color: c, Alpha: 1}
}

func ImageLayer(img image.Image, x, y, w, h float64) Layer {
	return Layer{Kind: LayerImage, Image: img, X: x, Y: y, W: w, H: h, Alpha: 1}
}

// AssetLayer draws an image file scaled to w x h. A missing asset is
// replaced by a fill in fallback; a zero fallback draws nothing.
func AssetLayer(path string, x, y, w, h float64, fallback color.RGBA) Layer {
	return Layer{Kind: LayerAsset, Asset: path, X: x, Y: y, W: w, H: h, Fallback: fallback, Alpha: 1}
}

func TextLayer(text string, x, y, size float64, style FontStyle, c color.RGBA) Layer {
	return Layer{Kind: LayerText, Text: text, X: x, Y: y, Size: size, Style: style, Color: c, Alpha: 1}
}

// Outlined returns a copy of l with an outline.
func (l Layer) Outlined(c color.RGBA, width float64) Layer {
	l.Outline = c
	l.OutlineWidth = width
	return l
}

// Centered returns a copy of l anchored at its horizontal centre.
func (l Layer) Centered() Layer {
	l.Align = AlignCenter
	return l
}

func LineLayer(x1, y1, x2, y2 float64, c color.RGBA) Layer {
	return Layer{Kind: LayerLine, X: x1, Y: y1, X2: x2, Y2: y2, Color: c, Alpha: 1}
}

func DotLayer(x, y, radius float64, c color.RGBA) Layer {
	return Layer{Kind: LayerDot, X: x, Y: y, W: radius, Color: c, Alpha: 1}
}

// Frame is a composed screen: a list of layers for one tick.
type Frame struct {
	Width, Height int
	Layers        []Layer
}

func NewFrame(w, h int) *Frame {
	return &Frame{Width: w, Height: h}
}

// Add appends layers into band.
func (f *Frame) Add(band ZBand, layers ...Layer) {
	for _, l := range layers {
		l.Band = band
		f.Layers = append(f.Layers, l)
	}
}

// Sorted returns the layers in draw order, keeping insertion order within a band.
func (f *Frame) Sorted() []Layer {
	out := slices.Clone(f.Layers)
	slices.SortStableFunc(out, func(a, b Layer) int {
		return int(a.Band) - int(b.Band)
	})
	return out
}

// Band returns the layers drawn in band.
func (f *Frame) Band(band ZBand) []Layer {
	var out []Layer
	for _, l := range f.Layers {
		if l.Band == band {
			out = append(out, l)
		}
	}
	return out
}

// Texts returns every text drawn, in draw order.
func (f *Frame) Texts() []string {
	var out []string
	for _, l := range f.Sorted() {
		if l.Kind == LayerText {
			out = append(out, l.Text)
		}
	}
	return out
}
