package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-display/internal/weather"
)

func TestRequiredScrollCount(t *testing.T) {
	assert.Equal(t, 2, RequiredScrollCount(1))
	assert.Equal(t, 2, RequiredScrollCount(2))
	assert.Equal(t, 1, RequiredScrollCount(3))
	assert.Equal(t, 1, RequiredScrollCount(7))
}

func TestBarAsset(t *testing.T) {
	assert.Equal(t, BarWarning, BarAsset(weather.AlertLevelAlert))
	assert.Equal(t, BarWatch, BarAsset(weather.AlertLevelWatch))
	assert.Equal(t, BarStatement, BarAsset(weather.AlertLevelStatement))
}

// run advances e in 100ms ticks from start to end and returns end.
func run(e *AlertRotationEngine, start, end time.Time) time.Time {
	for now := start.Add(100 * time.Millisecond); !now.After(end); now = now.Add(100 * time.Millisecond) {
		e.Advance(now)
	}
	return end
}

func TestAlertRotation_WarningAndWatchScrollTwiceThenRotate(t *testing.T) {
	player := &recordingPlayer{}
	ctx := testContext()
	e := NewAlertRotationEngine(ctx, NewAudioDedup(player))

	// 50 chars at size 64 measure 1600px, above the 800px threshold.
	alerts := []weather.AlertRecord{alert("Tornado Warning", 50), alert("Flood Watch", 50)}
	e.SetAlerts(alerts, t0)

	st := e.State()
	require.True(t, st.ShouldScroll)
	assert.Equal(t, 2, st.RequiredScrollCount)
	assert.Equal(t, float64(ctx.Width), st.ScrollX)

	// Static hold: nothing moves for 3s.
	run(e, t0, t0.Add(2900*time.Millisecond))
	assert.Equal(t, float64(ctx.Width), e.State().ScrollX)

	// Each pass covers 1920+1600px at 375px/s, about 9.4s.
	run(e, t0.Add(2900*time.Millisecond), t0.Add(14*time.Second))
	assert.Equal(t, 0, e.State().ActiveIndex)
	assert.Equal(t, 1, e.State().ScrollCount)

	run(e, t0.Add(14*time.Second), t0.Add(25*time.Second))
	active, ok := e.Active()
	require.True(t, ok)
	assert.Equal(t, "FLOOD WATCH", active.EventUpper)
	assert.Equal(t, 0, e.State().ScrollCount)

	run(e, t0.Add(25*time.Second), t0.Add(45*time.Second))
	assert.Equal(t, 0, e.State().ActiveIndex)

	assert.Equal(t, []CueKind{CueWarning}, player.cues)
}

func TestAlertRotation_SingleAlertNeverRotates(t *testing.T) {
	player := &recordingPlayer{}
	e := NewAlertRotationEngine(testContext(), NewAudioDedup(player))
	e.SetAlerts([]weather.AlertRecord{alert("Flood Watch", 50)}, t0)

	run(e, t0, t0.Add(2*time.Minute))
	assert.Equal(t, 0, e.State().ActiveIndex)
	assert.Equal(t, 0, e.State().ScrollCount)
	assert.Equal(t, []CueKind{CueWatch}, player.cues)
}

func TestAlertRotation_ShortTextDwells(t *testing.T) {
	ctx := testContext()
	e := NewAlertRotationEngine(ctx, nil)
	alerts := []weather.AlertRecord{alert("Heat Advisory", 10), alert("Wind Advisory", 10), alert("Beach Hazards Statement", 10)}
	e.SetAlerts(alerts, t0)

	st := e.State()
	require.False(t, st.ShouldScroll)
	assert.Equal(t, float64(int((float64(ctx.Width)-st.Width)/2)), st.ScrollX)
	assert.Equal(t, 1, st.RequiredScrollCount)

	run(e, t0, t0.Add(14*time.Second))
	assert.Equal(t, 0, e.State().ActiveIndex)
	run(e, t0.Add(14*time.Second), t0.Add(16*time.Second))
	assert.Equal(t, 1, e.State().ActiveIndex)
}

func TestAlertRotation_NoAlerts(t *testing.T) {
	e := NewAlertRotationEngine(testContext(), nil)
	e.SetAlerts(nil, t0)
	e.Advance(t0.Add(time.Minute))

	_, ok := e.Active()
	assert.False(t, ok)
	assert.Zero(t, e.Len())
}

func TestAlertRotation_FastScrollWithManyAlerts(t *testing.T) {
	ctx := testContext()
	assert.Equal(t, 375.0, ctx.ScrollSpeed(3))
	assert.Equal(t, 562.5, ctx.ScrollSpeed(4))
}
