package display

import (
	"time"

	"github.com/i474232898/weather-display/internal/weather"
)

const (
	tickerDwell      = 15 * time.Second
	tickerStaticHold = 3 * time.Second
	maxTickDelta     = time.Second
)

// Alert bar textures by level.
const (
	BarWarning   = "textures/graphics/warning_LDL.png"
	BarWatch     = "textures/graphics/watch_LDL.png"
	BarStatement = "textures/graphics/statement_LDL.png"
)

// BarAsset returns the alert bar texture for a level.
func BarAsset(level weather.AlertLevel) string {
	switch level {
	case weather.AlertLevelAlert:
		return BarWarning
	case weather.AlertLevelWatch:
		return BarWatch
	default:
		return BarStatement
	}
}

// RequiredScrollCount is the number of full passes an alert gets before
// the ticker moves on.
func RequiredScrollCount(n int) int {
	if n >= 3 {
		return 1
	}
	return 2
}

// TickerState is the ticker's position in the alert rotation.
type TickerState struct {
	ActiveIndex         int
	ScrollX             float64
	ScrollCount         int
	RequiredScrollCount int
	ShouldScroll        bool
	Width               float64
}

// AlertRotationEngine rotates the ticker through the active alerts and
// triggers audio cues through its AudioDedup.
type AlertRotationEngine struct {
	ctx    *DisplayContext
	audio  *AudioDedup
	alerts []weather.AlertRecord
	state  TickerState

	lastTick   time.Time
	dwellStart time.Time
	holdUntil  time.Time
}

func NewAlertRotationEngine(ctx *DisplayContext, audio *AudioDedup) *AlertRotationEngine {
	if audio == nil {
		audio = NewAudioDedup(nil)
	}
	return &AlertRotationEngine{ctx: ctx, audio: audio}
}

// SetAlerts replaces the alert list with a new snapshot's (already
// sorted) alerts and voices the primary alert when appropriate.
func (e *AlertRotationEngine) SetAlerts(alerts []weather.AlertRecord, now time.Time) {
	e.alerts = alerts
	e.state = TickerState{RequiredScrollCount: RequiredScrollCount(len(alerts))}
	e.lastTick = now
	e.dwellStart = now
	e.holdUntil = now.Add(tickerStaticHold)

	first := e.audio.Observe(alerts)
	if len(alerts) == 0 {
		return
	}
	e.show(0)
	e.audio.Play(alerts[0], first)
}

func (e *AlertRotationEngine) show(idx int) {
	a := e.alerts[idx]
	w, _ := e.ctx.measure(a.TickerText, e.ctx.TickerSize(), FontRegular)
	e.state.ActiveIndex = idx
	e.state.Width = w
	e.state.ShouldScroll = w > e.ctx.ScrollThreshold()
	if e.state.ShouldScroll {
		e.state.ScrollX = float64(e.ctx.Width)
	} else {
		e.state.ScrollX = float64(int((float64(e.ctx.Width) - w) / 2))
	}
}

func (e *AlertRotationEngine) rotate() {
	prev := e.alerts[e.state.ActiveIndex].Key()
	e.state.ScrollCount = 0
	e.dwellStart = e.lastTick
	next := (e.state.ActiveIndex + 1) % len(e.alerts)
	e.show(next)
	if a := e.alerts[next]; a.Key() != prev {
		e.audio.Play(a, false)
	}
}

// Advance moves the ticker by the time elapsed since the last call.
func (e *AlertRotationEngine) Advance(now time.Time) {
	dt := now.Sub(e.lastTick)
	e.lastTick = now
	n := len(e.alerts)
	if n == 0 {
		return
	}
	if dt < 0 {
		dt = 0
	}
	if dt > maxTickDelta {
		dt = maxTickDelta
	}

	if e.state.ShouldScroll {
		if now.Before(e.holdUntil) {
			return
		}
		e.state.ScrollX -= e.ctx.ScrollSpeed(n) * dt.Seconds()
		if e.state.ScrollX+e.state.Width < 0 {
			e.state.ScrollX = float64(e.ctx.Width)
			if n > 1 {
				e.state.ScrollCount++
				if e.state.ScrollCount >= e.state.RequiredScrollCount {
					e.rotate()
				}
			}
		}
		return
	}

	if n > 1 && now.Sub(e.dwellStart) > tickerDwell {
		e.state.ScrollCount++
		if e.state.ScrollCount >= e.state.RequiredScrollCount {
			e.rotate()
		}
		e.dwellStart = now
	}
}

// Active returns the alert on the ticker.
func (e *AlertRotationEngine) Active() (weather.AlertRecord, bool) {
	if len(e.alerts) == 0 {
		return weather.AlertRecord{}, false
	}
	return e.alerts[e.state.ActiveIndex], true
}

func (e *AlertRotationEngine) State() TickerState {
	return e.state
}

func (e *AlertRotationEngine) Len() int {
	return len(e.alerts)
}
