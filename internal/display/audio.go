package display

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-display/internal/weather"
)

// CueKind is an audible alert notification.
type CueKind int

const (
	CueNone CueKind = iota
	CueWarning
	CueWatch
)

func (k CueKind) String() string {
	switch k {
	case CueWarning:
		return "warning"
	case CueWatch:
		return "watch"
	default:
		return "none"
	}
}

// AudioPlayer plays a cue. Playback is fire-and-forget.
type AudioPlayer interface {
	PlayCue(kind CueKind) error
}

// CueFor maps an upper-cased event name to its cue. Statements are silent.
func CueFor(eventUpper string) CueKind {
	switch {
	case strings.Contains(eventUpper, "WARNING"):
		return CueWarning
	case strings.Contains(eventUpper, "WATCH"):
		return CueWatch
	default:
		return CueNone
	}
}

// AudioDedup decides which alerts are voiced. A key is voiced at most
// once until it disappears from the alert set and comes back.
type AudioDedup struct {
	player   AudioPlayer
	voiced   map[string]struct{}
	previous map[string]struct{}
	seeded   bool
}

func NewAudioDedup(player AudioPlayer) *AudioDedup {
	return &AudioDedup{
		player:   player,
		voiced:   make(map[string]struct{}),
		previous: make(map[string]struct{}),
	}
}

// Observe records a snapshot's alert set. The first call marks every
// key voiced and reports true; later calls unlock keys that were not in
// the previous set. An empty set after the first call is ignored, since
// a failed alert fetch also yields one.
func (d *AudioDedup) Observe(alerts []weather.AlertRecord) (first bool) {
	if d.seeded && len(alerts) == 0 {
		return false
	}
	current := make(map[string]struct{}, len(alerts))
	for _, a := range alerts {
		current[a.Key()] = struct{}{}
	}

	if !d.seeded {
		d.seeded = true
		for k := range current {
			d.voiced[k] = struct{}{}
		}
		d.previous = current
		return true
	}

	for k := range current {
		if _, seen := d.previous[k]; !seen {
			delete(d.voiced, k)
		}
	}
	d.previous = current
	return false
}

// Play voices alert if it is new or not yet voiced, and reports whether
// a cue was requested. A failing player is logged; the key stays marked.
func (d *AudioDedup) Play(alert weather.AlertRecord, isNew bool) bool {
	key := alert.Key()
	if !isNew {
		if _, done := d.voiced[key]; done {
			return false
		}
	}
	d.voiced[key] = struct{}{}

	cue := CueFor(alert.EventUpper)
	if cue == CueNone || d.player == nil {
		return false
	}
	if err := d.player.PlayCue(cue); err != nil {
		log.Warn().Err(err).Str("cue", cue.String()).Str("event", key).Msg("could not play alert cue")
	}
	return true
}

// Voiced reports whether key is currently marked.
func (d *AudioDedup) Voiced(key string) bool {
	_, ok := d.voiced[key]
	return ok
}
