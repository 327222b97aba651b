package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"

	"github.com/i474232898/weather-display/internal/display"
)

// Assets loads image files from the asset directory, pre-scaled to the
// size they are drawn at. A missing file is logged once and yields nil.
type Assets struct {
	dir     string
	quality float64
	sources *display.Cache[string, image.Image]
	scaled  *display.Cache[display.AssetKey, *ebiten.Image]
}

func NewAssets(dir string, quality float64) *Assets {
	if quality <= 0 || quality > 1 {
		quality = 1
	}
	a := &Assets{dir: dir, quality: quality}
	a.sources = display.NewCache(a.decode, func(path string, err error) image.Image {
		log.Warn().Err(err).Str("asset", path).Msg("asset unavailable; drawing fallback")
		return nil
	})
	a.scaled = display.NewCache(a.scale, func(display.AssetKey, error) *ebiten.Image { return nil })
	return a
}

func (a *Assets) decode(path string) (image.Image, error) {
	f, err := os.Open(filepath.Join(a.dir, path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Size resolves a requested size where one side may be 0.
func (a *Assets) Size(path string, w, h int) (int, int, bool) {
	src := a.sources.Get(path)
	if src == nil {
		return 0, 0, false
	}
	b := src.Bounds()
	switch {
	case w <= 0 && h <= 0:
		return b.Dx(), b.Dy(), true
	case w <= 0:
		return int(math.Round(float64(h) * float64(b.Dx()) / float64(b.Dy()))), h, true
	case h <= 0:
		return w, int(math.Round(float64(w) * float64(b.Dy()) / float64(b.Dx()))), true
	}
	return w, h, true
}

// Get returns the asset scaled for a w x h draw. The texture itself is
// w*quality wide; the painter stretches it to the full size.
func (a *Assets) Get(path string, w, h int) *ebiten.Image {
	w, h, ok := a.Size(path, w, h)
	if !ok || w <= 0 || h <= 0 {
		return nil
	}
	return a.scaled.Get(display.AssetKey{Path: path, W: w, H: h, Quality: a.quality})
}

func (a *Assets) scale(k display.AssetKey) (*ebiten.Image, error) {
	src := a.sources.Get(k.Path)
	if src == nil {
		return nil, fmt.Errorf("asset %s unavailable", k.Path)
	}
	return ebiten.NewImageFromImage(Downscale(src, k.W, k.H, k.Quality)), nil
}

// Downscale resamples src to w x h reduced by quality.
func Downscale(src image.Image, w, h int, quality float64) *image.RGBA {
	tw := max(1, int(float64(w)*quality))
	th := max(1, int(float64(h)*quality))
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	var scaler draw.Scaler = draw.CatmullRom
	if quality < 1 {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// Reset drops every cached texture.
func (a *Assets) Reset() {
	a.scaled.Reset()
}
