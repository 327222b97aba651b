package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/weather-display/internal/weather"
)

func TestCueFor(t *testing.T) {
	assert.Equal(t, CueWarning, CueFor("TORNADO WARNING"))
	assert.Equal(t, CueWatch, CueFor("FLOOD WATCH"))
	assert.Equal(t, CueNone, CueFor("SPECIAL WEATHER STATEMENT"))
}

func TestAudioDedup_FirstSnapshotVoicesPrimaryOnly(t *testing.T) {
	player := &recordingPlayer{}
	d := NewAudioDedup(player)
	tornado, flood := alert("Tornado Warning", 5), alert("Flood Watch", 5)

	first := d.Observe([]weather.AlertRecord{tornado, flood})
	assert.True(t, first)
	assert.True(t, d.Play(tornado, first))
	assert.False(t, d.Play(flood, false))
	assert.Equal(t, []CueKind{CueWarning}, player.cues)
}

func TestAudioDedup_NewAlertIsVoicedOnce(t *testing.T) {
	player := &recordingPlayer{}
	d := NewAudioDedup(player)
	flood, tstorm := alert("Flood Watch", 5), alert("Severe Thunderstorm Warning", 5)

	d.Observe([]weather.AlertRecord{flood})
	assert.False(t, d.Observe([]weather.AlertRecord{flood, tstorm}))
	assert.False(t, d.Voiced(tstorm.Key()))

	assert.True(t, d.Play(tstorm, false))
	assert.False(t, d.Play(tstorm, false))
	assert.Equal(t, []CueKind{CueWarning}, player.cues)
}

func TestAudioDedup_AlertThatLeavesAndReturnsIsVoicedAgain(t *testing.T) {
	player := &recordingPlayer{}
	d := NewAudioDedup(player)
	flood, statement := alert("Flood Watch", 5), alert("Special Weather Statement", 5)

	d.Observe([]weather.AlertRecord{flood})
	d.Observe([]weather.AlertRecord{statement})
	d.Observe([]weather.AlertRecord{flood})

	assert.True(t, d.Play(flood, false))
	assert.Equal(t, []CueKind{CueWatch}, player.cues)
}

func TestAudioDedup_EmptyRefreshKeepsPreviousAlerts(t *testing.T) {
	player := &recordingPlayer{}
	d := NewAudioDedup(player)
	tornado := alert("Tornado Warning", 5)

	first := d.Observe([]weather.AlertRecord{tornado})
	assert.True(t, d.Play(tornado, first))

	assert.False(t, d.Observe(nil))
	assert.False(t, d.Observe([]weather.AlertRecord{tornado}))
	assert.False(t, d.Play(tornado, false))
	assert.True(t, d.Voiced(tornado.Key()))
	assert.Equal(t, []CueKind{CueWarning}, player.cues)
}

func TestAudioDedup_StatementsAreSilentButMarked(t *testing.T) {
	player := &recordingPlayer{}
	d := NewAudioDedup(player)
	stmt := alert("Special Weather Statement", 5)

	d.Observe(nil)
	d.Observe([]weather.AlertRecord{stmt})
	assert.False(t, d.Play(stmt, false))
	assert.True(t, d.Voiced(stmt.Key()))
	assert.Empty(t, player.cues)
}

func TestAudioDedup_PlayerFailureKeepsKeyMarked(t *testing.T) {
	player := &recordingPlayer{err: errSpeaker}
	d := NewAudioDedup(player)
	tornado := alert("Tornado Warning", 5)

	d.Observe(nil)
	d.Observe([]weather.AlertRecord{tornado})
	assert.True(t, d.Play(tornado, false))
	assert.False(t, d.Play(tornado, false))
	assert.Len(t, player.cues, 1)
}
