package render

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/i474232898/weather-display/internal/display"
)

// textureTTL is how many painted frames an unused radar texture survives.
const textureTTL = 300

type texture struct {
	img      *ebiten.Image
	lastUsed uint64
}

// Painter draws composed frames onto an ebiten screen.
type Painter struct {
	fonts    *Fonts
	assets   *Assets
	textures map[image.Image]*texture
	painted  uint64
}

func NewPainter(fonts *Fonts, assets *Assets) *Painter {
	return &Painter{
		fonts:    fonts,
		assets:   assets,
		textures: make(map[image.Image]*texture),
	}
}

// Paint draws frame in band order.
func (p *Painter) Paint(dst *ebiten.Image, frame *display.Frame) {
	p.painted++
	for _, l := range frame.Sorted() {
		p.layer(dst, l)
	}
	if p.painted%textureTTL == 0 {
		p.evict()
	}
}

func (p *Painter) layer(dst *ebiten.Image, l display.Layer) {
	switch l.Kind {
	case display.LayerFill:
		vector.DrawFilledRect(dst, float32(l.X), float32(l.Y), float32(l.W), float32(l.H), fade(l.Color, l.Alpha), false)
	case display.LayerImage:
		if l.Image != nil {
			p.image(dst, p.texture(l.Image), l)
		}
	case display.LayerAsset:
		img := p.assets.Get(l.Asset, int(l.W), int(l.H))
		if img == nil {
			if l.Fallback.A > 0 && l.W > 0 && l.H > 0 {
				vector.DrawFilledRect(dst, float32(l.X), float32(l.Y), float32(l.W), float32(l.H), fade(l.Fallback, l.Alpha), false)
			}
			return
		}
		w, h, _ := p.assets.Size(l.Asset, int(l.W), int(l.H))
		l.W, l.H = float64(w), float64(h)
		p.image(dst, img, l)
	case display.LayerText:
		p.text(dst, l)
	case display.LayerLine:
		vector.StrokeLine(dst, float32(l.X), float32(l.Y), float32(l.X2), float32(l.Y2), 1, fade(l.Color, l.Alpha), true)
	case display.LayerDot:
		vector.DrawFilledCircle(dst, float32(l.X), float32(l.Y), float32(l.W), fade(l.Color, l.Alpha), true)
		if l.OutlineWidth > 0 {
			vector.StrokeCircle(dst, float32(l.X), float32(l.Y), float32(l.W), float32(l.OutlineWidth), fade(l.Outline, l.Alpha), true)
		}
	}
}

func (p *Painter) image(dst, img *ebiten.Image, l display.Layer) {
	b := img.Bounds()
	w, h := l.W, l.H
	if w <= 0 {
		w = h * float64(b.Dx()) / float64(b.Dy())
	}
	if h <= 0 {
		h = w * float64(b.Dy()) / float64(b.Dx())
	}
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(l.X, l.Y)
	op.ColorScale.ScaleAlpha(float32(l.Alpha))
	dst.DrawImage(img, op)
}

var outlineOffsets = [][2]float64{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}

func (p *Painter) text(dst *ebiten.Image, l display.Layer) {
	face := p.fonts.Face(l.Size, l.Style)
	sx := l.ScaleX
	if sx == 0 {
		sx = 1
	}
	draw := func(dx, dy float64, c color.RGBA) {
		op := &text.DrawOptions{}
		if l.Align == display.AlignCenter {
			op.PrimaryAlign = text.AlignCenter
		}
		op.GeoM.Scale(sx, 1)
		op.GeoM.Translate(l.X+dx, l.Y+dy)
		op.ColorScale.ScaleWithColor(c)
		op.ColorScale.ScaleAlpha(float32(l.Alpha))
		text.Draw(dst, l.Text, face, op)
	}
	if l.OutlineWidth > 0 {
		for _, o := range outlineOffsets {
			draw(o[0]*l.OutlineWidth, o[1]*l.OutlineWidth, l.Outline)
		}
	}
	draw(0, 0, l.Color)
}

// texture uploads a radar frame once and reuses it.
func (p *Painter) texture(img image.Image) *ebiten.Image {
	t, ok := p.textures[img]
	if !ok {
		t = &texture{img: ebiten.NewImageFromImage(img)}
		p.textures[img] = t
	}
	t.lastUsed = p.painted
	return t.img
}

// evict frees radar textures from loops that are no longer playing.
func (p *Painter) evict() {
	for k, t := range p.textures {
		if p.painted-t.lastUsed >= textureTTL {
			t.img.Deallocate()
			delete(p.textures, k)
		}
	}
}

// fade scales a premultiplied colour by alpha.
func fade(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	if alpha <= 0 {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(float64(c.A) * alpha),
	}
}
