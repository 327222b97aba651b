package display

import (
	"time"

	"go.uber.org/atomic"
)

// Phase is the render loop's top-level state.
type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseRunning  Phase = "running"
	PhaseFallback Phase = "fallback"
)

// Status is a read-only view of the render loop for the status API.
type Status struct {
	Phase         Phase     `json:"phase"`
	Stage         string    `json:"stage,omitempty"`
	Mode          string    `json:"mode"`
	Panel         string    `json:"panel"`
	Transitioning bool      `json:"transitioning"`
	AlertCount    int       `json:"alertCount"`
	AlertIndex    int       `json:"alertIndex"`
	ActiveAlert   string    `json:"activeAlert,omitempty"`
	RadarSequence int       `json:"radarSequence"`
	RadarFrame    int       `json:"radarFrame"`
	Fade          string    `json:"fade"`
	FPS           float64   `json:"fps"`
	SnapshotID    string    `json:"snapshotId,omitempty"`
	Location      string    `json:"location,omitempty"`
	Error         string    `json:"error,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StatusBoard publishes the latest Status across goroutines.
type StatusBoard struct {
	v atomic.Value
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{}
}

func (b *StatusBoard) Publish(s Status) {
	b.v.Store(s)
}

// Load returns the last published status, if any.
func (b *StatusBoard) Load() (Status, bool) {
	s, ok := b.v.Load().(Status)
	return s, ok
}
