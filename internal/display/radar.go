package display

import (
	"image"
	"math"
	"time"

	"github.com/i474232898/weather-display/internal/weather"
)

const (
	SpeedFactor       = 18
	MinFrameDuration  = 50 * time.Millisecond
	LastFrameHold     = 1500 * time.Millisecond
	LoopsBeforeSwitch = 8
	FadeDuration      = 1000 * time.Millisecond
)

// FadeState is the crossfade phase between radar sequences.
type FadeState int

const (
	FadeNormal FadeState = iota
	FadingOut
	FadingIn
)

func (f FadeState) String() string {
	switch f {
	case FadingOut:
		return "fading_out"
	case FadingIn:
		return "fading_in"
	default:
		return "normal"
	}
}

// RadarPlaybackEngine plays one or two radar sequences. With two, it
// switches after LoopsBeforeSwitch loops: in tropical mode through a
// fade out and fade in, otherwise immediately.
type RadarPlaybackEngine struct {
	seqs     []weather.RadarSequence
	tropical bool

	active    int
	frame     int
	playCount int

	loadedAt    time.Time
	lastAdvance time.Time
	fade        FadeState
	fadeStart   time.Time
}

func NewRadarPlaybackEngine() *RadarPlaybackEngine {
	return &RadarPlaybackEngine{}
}

// Load replaces the sequences and restarts playback at now. Empty
// sequences are ignored.
func (e *RadarPlaybackEngine) Load(seqs []weather.RadarSequence, tropical bool, now time.Time) {
	e.seqs = e.seqs[:0]
	for _, s := range seqs {
		if s.Len() > 0 && len(s.Durations) == s.Len() {
			e.seqs = append(e.seqs, s)
		}
	}
	e.tropical = tropical
	e.active, e.frame, e.playCount = 0, 0, 0
	e.loadedAt, e.lastAdvance = now, now
	e.fade = FadeNormal
}

// NoRadar reports that there is nothing to play.
func (e *RadarPlaybackEngine) NoRadar() bool {
	return len(e.seqs) == 0
}

// FrameDuration is how long frame i of the active sequence stays up.
func (e *RadarPlaybackEngine) FrameDuration(i int) time.Duration {
	seq := e.seqs[e.active]
	d := max(MinFrameDuration, seq.Durations[i]/SpeedFactor)
	if i == seq.Len()-1 {
		d += LastFrameHold
	}
	return d
}

// Advance moves playback to now: at most one frame step per call.
func (e *RadarPlaybackEngine) Advance(now time.Time) {
	if e.NoRadar() {
		return
	}

	switch e.fade {
	case FadingOut:
		if now.Sub(e.fadeStart) >= FadeDuration {
			e.switchTo(e.nextIndex(), now)
			e.fade = FadingIn
			e.fadeStart = now
		}
		return
	case FadingIn:
		if now.Sub(e.fadeStart) >= FadeDuration {
			e.fade = FadeNormal
		}
	}

	if now.Sub(e.lastAdvance) < e.FrameDuration(e.frame) {
		return
	}

	last := e.seqs[e.active].Len() - 1
	if e.frame == last {
		e.playCount++
		if len(e.seqs) > 1 && e.playCount >= LoopsBeforeSwitch && e.fade == FadeNormal {
			if e.tropical {
				e.fade = FadingOut
				e.fadeStart = now
				e.lastAdvance = now
				return
			}
			e.switchTo(e.nextIndex(), now)
			return
		}
	}
	e.frame = (e.frame + 1) % e.seqs[e.active].Len()
	e.lastAdvance = now
}

func (e *RadarPlaybackEngine) nextIndex() int {
	return (e.active + 1) % len(e.seqs)
}

func (e *RadarPlaybackEngine) switchTo(i int, now time.Time) {
	e.active = i
	e.frame = 0
	e.playCount = 0
	e.lastAdvance = now
}

// Frame returns the image to show.
func (e *RadarPlaybackEngine) Frame() (image.Image, bool) {
	if e.NoRadar() {
		return nil, false
	}
	return e.seqs[e.active].Frames[e.frame], true
}

// TitleAlpha is the title/overlay opacity on a 0..255 scale.
func (e *RadarPlaybackEngine) TitleAlpha(now time.Time) float64 {
	p := math.Min(1, math.Max(0, float64(now.Sub(e.fadeStart))/float64(FadeDuration)))
	switch e.fade {
	case FadingOut:
		return 255 * (1 - p)
	case FadingIn:
		return 255 * p
	default:
		return 255
	}
}

func (e *RadarPlaybackEngine) ActiveSequence() int { return e.active }
func (e *RadarPlaybackEngine) FrameIndex() int     { return e.frame }
func (e *RadarPlaybackEngine) PlayCount() int      { return e.playCount }
func (e *RadarPlaybackEngine) Fade() FadeState     { return e.fade }
func (e *RadarPlaybackEngine) Sequences() int      { return len(e.seqs) }

// Elapsed is the time since the current sequences were loaded.
func (e *RadarPlaybackEngine) Elapsed(now time.Time) time.Duration {
	return now.Sub(e.loadedAt)
}

// DotAlpha pulses the location dot between 128 and 255.
func DotAlpha(elapsed time.Duration) uint8 {
	t := float64(elapsed.Milliseconds())
	return uint8(128 + 127*(math.Sin(t*0.004)+1)/2)
}

// DotPosition places the location dot for a w x h screen. A few
// resolutions need their own vertical correction.
func DotPosition(w, h int) (x, y float64) {
	x = float64(w) / 2
	switch {
	case w == 896 && h == 504:
		y = float64(h) / 3
	case w == 1024 && h == 600:
		y = float64(h) / 2.5
	case w == 960 && h == 540:
		y = float64(h) / 4.75
	case w == 1024 && h == 576:
		y = float64(h) / 5.45
	default:
		y = float64(h) / 2
	}
	return x, y
}

// RadarOffsetY shifts the local radar loop up so the map centre clears
// the title band.
func RadarOffsetY(h int) int {
	hf := float64(h)
	mult := 1.0
	switch {
	case h > 720:
		mult += 0.3 * (hf - 720) / 360
	case h < 720:
		mult -= 0.3 * (720 - hf) / 360
	}
	return int(-75 * (hf / 720) * mult)
}

// CoverRect scales a src-sized image to fill a w x h screen, keeping
// aspect, anchored at the top-left.
func CoverRect(src image.Rectangle, w, h int) (dw, dh float64) {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	if sw == 0 || sh == 0 {
		return float64(w), float64(h)
	}
	aspect := sw / sh
	if aspect > float64(w)/float64(h) {
		return math.Floor(float64(h) * aspect), float64(h)
	}
	return float64(w), math.Floor(float64(w) / aspect)
}
