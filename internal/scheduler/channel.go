package scheduler

import (
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-display/internal/weather"
)

// SnapshotCapacity is the number of snapshots that may wait for the render loop.
const SnapshotCapacity = 2

// SnapshotChannel hands finished snapshots from a worker to the render
// loop. Neither side ever blocks: a full channel drops the new value.
type SnapshotChannel struct {
	ch chan weather.WeatherSnapshot
}

// NewSnapshotChannel creates an empty channel of SnapshotCapacity.
func NewSnapshotChannel() *SnapshotChannel {
	return &SnapshotChannel{ch: make(chan weather.WeatherSnapshot, SnapshotCapacity)}
}

// Offer queues snap and reports whether it was accepted.
func (c *SnapshotChannel) Offer(snap weather.WeatherSnapshot) bool {
	select {
	case c.ch <- snap:
		return true
	default:
		log.Warn().
			Str("snapshot", snap.ID.String()).
			Str("zip", snap.Location.Zip).
			Msg("snapshot channel full, skipping this update")
		return false
	}
}

// TryTake returns the oldest queued snapshot, if any.
func (c *SnapshotChannel) TryTake() (weather.WeatherSnapshot, bool) {
	select {
	case snap := <-c.ch:
		return snap, true
	default:
		return weather.WeatherSnapshot{}, false
	}
}

// Len returns the number of queued snapshots.
func (c *SnapshotChannel) Len() int {
	return len(c.ch)
}
