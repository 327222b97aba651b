package weather

import (
	"context"
	"time"
)

// Provider abstracts the forecast/observation/alert source (NWS).
// Every call may fail; Service degrades to partial data.
type Provider interface {
	Name() string
	GridPoint(ctx context.Context, lat, lon float64) (GridPoint, error)
	CurrentConditions(ctx context.Context, lat, lon float64) (*Conditions, error)
	ActiveAlerts(ctx context.Context, loc Location) ([]AlertRecord, error)
	ForecastPeriods(ctx context.Context, forecastURL string) ([]Period, error)
}

// Geocoder resolves a ZIP or free-text query to a Location.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Location, error)
}

// RadarView selects which radar loop to fetch.
type RadarView int

const (
	RadarLocal RadarView = iota
	RadarTropical
)

func (v RadarView) String() string {
	if v == RadarTropical {
		return "tropical"
	}
	return "local"
}

// RadarSource downloads and decodes one radar loop.
type RadarSource interface {
	RadarSequence(ctx context.Context, loc Location, view RadarView) (RadarSequence, error)
}

// Store is the contract the in-memory snapshot history must satisfy.
type Store interface {
	SaveSnapshot(summary SnapshotSummary)
	GetLatest(loc Location) (SnapshotSummary, error)
	GetRange(loc Location, from, to time.Time) ([]SnapshotSummary, error)
}
