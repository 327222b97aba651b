package display

import (
	"errors"
	"image"
	"strings"
	"time"

	"github.com/i474232898/weather-display/internal/weather"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingPlayer struct {
	cues []CueKind
	err  error
}

func (p *recordingPlayer) PlayCue(kind CueKind) error {
	p.cues = append(p.cues, kind)
	return p.err
}

var errSpeaker = errors.New("speaker unplugged")

func testContext() *DisplayContext {
	return NewDisplayContext(BaseWidth, BaseHeight, 1.0, false, nil)
}

func alert(event string, tickerLen int) weather.AlertRecord {
	a := weather.NewAlertRecord(event, "", "", "")
	a.TickerText = strings.Repeat("x", tickerLen)
	return a
}

func sequence(frames int, raw time.Duration, offset time.Duration) weather.RadarSequence {
	imgs := make([]image.Image, frames)
	durs := make([]time.Duration, frames)
	for i := range frames {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, 4, 3))
		durs[i] = raw
	}
	seq, err := weather.NewRadarSequence(imgs, durs, offset)
	if err != nil {
		panic(err)
	}
	return seq
}
