// Package headless runs the display without a window: frames are
// composed as usual and summarised to the log.
package headless

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-display/internal/display"
)

// Measurer sizes text from terminal cell widths, so wide glyphs count double.
type Measurer struct{}

func (Measurer) Measure(s string, size float64, style display.FontStyle) (float64, float64) {
	advance := 0.5
	if style == display.FontBold {
		advance = 0.55
	}
	return math.Ceil(float64(runewidth.StringWidth(s)) * size * advance), size
}

var errNilFrame = errors.New("nil frame")

// Presenter keeps the last frame and logs whenever the headline text
// on screen changes.
type Presenter struct {
	frames   int
	last     *display.Frame
	headline string
}

func (p *Presenter) Present(frame *display.Frame) error {
	if frame == nil {
		return errNilFrame
	}
	p.frames++
	p.last = frame

	if h := Headline(frame); h != p.headline {
		p.headline = h
		log.Info().Int("frame", p.frames).Int("layers", len(frame.Layers)).Str("screen", h).Msg("screen changed")
	}
	return nil
}

func (p *Presenter) Frames() int          { return p.frames }
func (p *Presenter) Last() *display.Frame { return p.last }

// Headline joins the alert bar and overlay texts of a frame.
func Headline(frame *display.Frame) string {
	var parts []string
	for _, band := range []display.ZBand{display.BandAlertBar, display.BandOverlay} {
		for _, l := range frame.Band(band) {
			if l.Kind == display.LayerText && l.Text != "" {
				parts = append(parts, l.Text)
			}
		}
	}
	return strings.Join(parts, " | ")
}

// Ticker produces the frame for a point in time.
type Ticker interface {
	Tick(now time.Time) *display.Frame
}

// Run ticks t at fps and hands every frame to p until ctx is done.
func Run(ctx context.Context, t Ticker, p display.Presenter, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	tk := time.NewTicker(time.Second / time.Duration(fps))
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tk.C:
			if err := p.Present(t.Tick(now)); err != nil {
				return err
			}
		}
	}
}
