package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFlipFrames(t *testing.T) {
	ff := BuildFlipFrames(PanelFrame{Width: 550, Height: 770}, FlipSteps)
	require.Len(t, ff.Shrink, FlipSteps+1)
	require.Len(t, ff.Expand, FlipSteps+1)

	assert.Equal(t, 550.0, ff.Shrink[0].Width)
	assert.Equal(t, 0.0, ff.Shrink[FlipSteps].Width)
	assert.Equal(t, 0.0, ff.Expand[0].Width)
	assert.Equal(t, 550.0, ff.Expand[FlipSteps].Width)
	assert.InDelta(t, 0.5, ff.Expand[FlipSteps/2].ScaleX, 0.05)

	assert.Empty(t, BuildFlipFrames(PanelFrame{}, FlipSteps).Shrink)
}

func TestPanelTransition_FlipVisitsEverySubStep(t *testing.T) {
	e := NewPanelTransitionEngine(FlipSteps, PanelCycle, FlipSubStep, t0)
	ff := BuildFlipFrames(PanelFrame{Width: 550, Height: 770}, FlipSteps)
	e.SetFlipFrames(ModeConditions, ff)
	e.SetFlipFrames(ModeForecast, ff)

	e.Advance(t0.Add(PanelCycle - time.Millisecond))
	require.False(t, e.State().IsTransitioning)

	now := t0.Add(PanelCycle)
	e.Advance(now)
	require.True(t, e.State().IsTransitioning)

	seen := map[int]bool{}
	var widths []float64
	for i := 0; e.State().IsTransitioning; i++ {
		require.Less(t, i, 1000)
		seen[e.State().SubStep] = true
		pf, ok := e.InFlight()
		require.True(t, ok)
		widths = append(widths, pf.Width)

		now = now.Add(FlipSubStep + time.Millisecond)
		e.Advance(now)
	}

	assert.Len(t, seen, 2*FlipSteps+1)
	assert.Equal(t, ModeForecast, e.State().Mode)
	assert.Equal(t, 550.0, widths[0])
	assert.Equal(t, 0.0, widths[FlipSteps])
	assert.Equal(t, 550.0, widths[len(widths)-1])
	_, ok := e.InFlight()
	assert.False(t, ok)
}

func TestPanelTransition_SubStepWaitsForInterval(t *testing.T) {
	e := NewPanelTransitionEngine(FlipSteps, PanelCycle, FlipSubStep, t0)
	ff := BuildFlipFrames(PanelFrame{Width: 100, Height: 100}, FlipSteps)
	e.SetFlipFrames(ModeConditions, ff)
	e.SetFlipFrames(ModeForecast, ff)

	start := t0.Add(PanelCycle)
	e.Advance(start)
	e.Advance(start.Add(FlipSubStep))
	assert.Equal(t, 0, e.State().SubStep)
	e.Advance(start.Add(FlipSubStep + time.Millisecond))
	assert.Equal(t, 1, e.State().SubStep)
}

func TestPanelTransition_MissingFramesFlipImmediately(t *testing.T) {
	e := NewPanelTransitionEngine(FlipSteps, PanelCycle, FlipSubStep, t0)

	e.Advance(t0.Add(PanelCycle))
	assert.False(t, e.State().IsTransitioning)
	assert.Equal(t, ModeForecast, e.State().Mode)

	e.Advance(t0.Add(2*PanelCycle - time.Second))
	assert.Equal(t, ModeForecast, e.State().Mode)
	e.Advance(t0.Add(2 * PanelCycle))
	assert.Equal(t, ModeConditions, e.State().Mode)
}
