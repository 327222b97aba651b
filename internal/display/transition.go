package display

import "time"

const (
	PanelCycle  = 20 * time.Second
	FlipSteps   = 19
	FlipSubStep = 10 * time.Millisecond
)

// PanelMode is the panel on screen between flips.
type PanelMode int

const (
	ModeConditions PanelMode = iota
	ModeForecast
)

func (m PanelMode) String() string {
	if m == ModeForecast {
		return "forecast"
	}
	return "conditions"
}

func (m PanelMode) other() PanelMode {
	if m == ModeConditions {
		return ModeForecast
	}
	return ModeConditions
}

// TransitionState is the flip state machine. While transitioning,
// SubStep runs 0..2N: [0,N) shrink, [N,2N) expand, 2N terminal.
type TransitionState struct {
	Mode            PanelMode
	IsTransitioning bool
	SubStep         int
	LastSubStep     time.Time
}

// FlipFrames are a panel's pre-scaled shrink and expand frames, N+1 each.
type FlipFrames struct {
	Shrink []PanelFrame
	Expand []PanelFrame
}

// PanelTransitionEngine alternates the conditions and forecast panels
// every cycle with a shrink-then-expand flip.
type PanelTransitionEngine struct {
	steps   int
	cycle   time.Duration
	subStep time.Duration

	state      TransitionState
	next       PanelMode
	lastSwitch time.Time
	frames     map[PanelMode]FlipFrames
}

// NewPanelTransitionEngine starts in the conditions mode at now.
func NewPanelTransitionEngine(steps int, cycle, subStep time.Duration, now time.Time) *PanelTransitionEngine {
	if steps < 1 {
		steps = 1
	}
	return &PanelTransitionEngine{
		steps:      steps,
		cycle:      cycle,
		subStep:    subStep,
		state:      TransitionState{Mode: ModeConditions},
		lastSwitch: now,
		frames:     make(map[PanelMode]FlipFrames),
	}
}

// SetFlipFrames swaps in a panel's frames after a snapshot refresh.
func (e *PanelTransitionEngine) SetFlipFrames(mode PanelMode, frames FlipFrames) {
	e.frames[mode] = frames
}

// Steps returns N.
func (e *PanelTransitionEngine) Steps() int {
	return e.steps
}

// Advance runs the state machine to now.
func (e *PanelTransitionEngine) Advance(now time.Time) {
	if !e.state.IsTransitioning {
		if now.Sub(e.lastSwitch) < e.cycle {
			return
		}
		e.next = e.state.Mode.other()
		if len(e.frames[e.state.Mode].Shrink) == 0 || len(e.frames[e.next].Expand) == 0 {
			e.flip(now)
			return
		}
		e.state.IsTransitioning = true
		e.state.SubStep = 0
		e.state.LastSubStep = now
		return
	}

	if e.state.SubStep >= 2*e.steps {
		e.flip(now)
		return
	}
	if now.Sub(e.state.LastSubStep) > e.subStep {
		e.state.SubStep++
		e.state.LastSubStep = now
	}
}

func (e *PanelTransitionEngine) flip(now time.Time) {
	e.state.Mode = e.next
	e.state.IsTransitioning = false
	e.state.SubStep = 0
	e.lastSwitch = now
}

// InFlight returns the frame to draw while transitioning.
func (e *PanelTransitionEngine) InFlight() (PanelFrame, bool) {
	if !e.state.IsTransitioning {
		return PanelFrame{}, false
	}
	i := e.state.SubStep
	if i < e.steps {
		return pick(e.frames[e.state.Mode].Shrink, i)
	}
	return pick(e.frames[e.next].Expand, i-e.steps)
}

func pick(frames []PanelFrame, i int) (PanelFrame, bool) {
	if len(frames) == 0 {
		return PanelFrame{}, false
	}
	return frames[min(i, len(frames)-1)], true
}

func (e *PanelTransitionEngine) State() TransitionState {
	return e.state
}
