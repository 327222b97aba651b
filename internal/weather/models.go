package weather

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
)

const (
	// LastFramePause is appended once to the final raw duration of a radar sequence.
	LastFramePause = 1500 * time.Millisecond

	// TropicalStartOffset is the nominal start of the wide-area sequence.
	// Playback switches on loop count, not on this offset.
	TropicalStartOffset = 25 * time.Second

	defaultFrameDuration = 100 * time.Millisecond

	// NotAvailable is substituted for any field a provider could not supply.
	NotAvailable = "N/A"
)

// Location is the resolved place the display is centred on.
type Location struct {
	Zip          string  `json:"zip"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	County       string  `json:"county"`
	State        string  `json:"state"`
	StateAcronym string  `json:"stateAcronym"`
	DisplayName  string  `json:"displayName"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Zip
}

// GridPoint holds the NWS endpoints resolved for a coordinate.
type GridPoint struct {
	GridID      string
	GridX       int
	GridY       int
	ForecastURL string
	HourlyURL   string
	StationsURL string
}

// Conditions is the current-conditions record shown on the conditions panel.
// String fields carry display-ready values or NotAvailable.
type Conditions struct {
	Temperature     string    `json:"temperature"`
	TemperatureUnit string    `json:"temperatureUnit"`
	Description     string    `json:"description"`
	DescFontSize    int       `json:"descFontSize"`
	IsDaytime       bool      `json:"isDaytime"`
	Wind            string    `json:"wind"`
	Gusts           string    `json:"gusts"`
	Humidity        string    `json:"humidity"`
	DewPoint        string    `json:"dewPoint"`
	Pressure        string    `json:"pressure"`
	Visibility      string    `json:"visibility"`
	StationID       string    `json:"stationId,omitempty"`
	ObservedAt      time.Time `json:"observedAt"`
}

// Period is one forecast period.
type Period struct {
	Name            string    `json:"name"`
	Temperature     int       `json:"temperature"`
	TemperatureUnit string    `json:"temperatureUnit"`
	ShortForecast   string    `json:"shortForecast"`
	IsDaytime       bool      `json:"isDaytime"`
	StartTime       time.Time `json:"startTime"`
}

// RadarSequence is one decoded radar loop. Frames and Durations are
// parallel and never empty.
type RadarSequence struct {
	Frames      []image.Image
	Durations   []time.Duration
	StartOffset time.Duration
}

var errBadSequence = errors.New("radar sequence needs matching, non-empty frames and durations")

// NewRadarSequence validates a decoded loop and bakes the final-frame
// pause into its last duration. Non-positive durations become 100ms.
func NewRadarSequence(frames []image.Image, raw []time.Duration, startOffset time.Duration) (RadarSequence, error) {
	if len(frames) == 0 || len(frames) != len(raw) {
		return RadarSequence{}, fmt.Errorf("%w: %d frames, %d durations", errBadSequence, len(frames), len(raw))
	}
	durations := make([]time.Duration, len(raw))
	for i, d := range raw {
		if d <= 0 {
			d = defaultFrameDuration
		}
		durations[i] = d
	}
	durations[len(durations)-1] += LastFramePause
	return RadarSequence{
		Frames:      frames,
		Durations:   durations,
		StartOffset: startOffset,
	}, nil
}

// Len returns the number of frames.
func (s RadarSequence) Len() int {
	return len(s.Frames)
}

// WeatherSnapshot is one complete, immutable bundle of display data.
// It is owned by the worker until offered and by the render loop after.
type WeatherSnapshot struct {
	ID         uuid.UUID       `json:"id"`
	Location   Location        `json:"location"`
	Conditions *Conditions     `json:"conditions,omitempty"`
	Forecast   []Period        `json:"forecast,omitempty"`
	Alerts     []AlertRecord   `json:"alerts"`
	IsTropical bool            `json:"isTropical"`
	IsRedmode  bool            `json:"isRedmode"`
	Radar      []RadarSequence `json:"-"`
	RadarError string          `json:"radarError,omitempty"`
	FetchedAt  time.Time       `json:"fetchedAt"`
}

// PrimaryAlert returns the highest-priority alert, if any.
func (s WeatherSnapshot) PrimaryAlert() (AlertRecord, bool) {
	if len(s.Alerts) == 0 {
		return AlertRecord{}, false
	}
	return s.Alerts[0], true
}

// HasRadar reports whether at least one playable sequence is present.
func (s WeatherSnapshot) HasRadar() bool {
	for _, seq := range s.Radar {
		if seq.Len() > 0 {
			return true
		}
	}
	return false
}

// SnapshotSummary is the frame-free view of a snapshot kept in history.
type SnapshotSummary struct {
	ID           uuid.UUID `json:"id"`
	Location     Location  `json:"location"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  string    `json:"temperature"`
	Description  string    `json:"description"`
	AlertEvents  []string  `json:"alertEvents"`
	IsTropical   bool      `json:"isTropical"`
	IsRedmode    bool      `json:"isRedmode"`
	RadarFrames  []int     `json:"radarFrames"`
	RadarError   string    `json:"radarError,omitempty"`
	ForecastSize int       `json:"forecastPeriods"`
}

// Summary strips the snapshot down for storage and the status API.
func (s WeatherSnapshot) Summary() SnapshotSummary {
	sum := SnapshotSummary{
		ID:           s.ID,
		Location:     s.Location,
		Timestamp:    s.FetchedAt,
		Temperature:  NotAvailable,
		Description:  NotAvailable,
		AlertEvents:  make([]string, 0, len(s.Alerts)),
		IsTropical:   s.IsTropical,
		IsRedmode:    s.IsRedmode,
		RadarError:   s.RadarError,
		ForecastSize: len(s.Forecast),
	}
	if s.Conditions != nil {
		sum.Temperature = s.Conditions.Temperature
		sum.Description = s.Conditions.Description
	}
	for _, a := range s.Alerts {
		sum.AlertEvents = append(sum.AlertEvents, a.EventUpper)
	}
	for _, seq := range s.Radar {
		sum.RadarFrames = append(sum.RadarFrames, seq.Len())
	}
	return sum
}
