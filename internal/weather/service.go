package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Stage is a loading-screen progress message.
type Stage string

const (
	StageInitializing Stage = "Initializing..."
	StageWeather      Stage = "Grabbing Weather Data..."
	StageRadar        Stage = "Loading Radar Data..."
	StagePreRender    Stage = "Pre-Rendering..."
)

var (
	// ErrNoLocation is returned when the query could not be geocoded.
	ErrNoLocation = errors.New("could not get coordinates")
	// ErrNoRadar is returned when no radar loop could be obtained.
	ErrNoRadar = errors.New("radar loop unavailable")
)

// Service assembles snapshots from the geocoder, the forecast provider
// and the radar source, and records a summary of each in the store.
type Service struct {
	geocoder Geocoder
	provider Provider
	radar    RadarSource
	store    Store
	now      func() time.Time
}

// NewService creates a new Service. radar and store may be nil.
func NewService(geocoder Geocoder, provider Provider, radar RadarSource, store Store) *Service {
	return &Service{
		geocoder: geocoder,
		provider: provider,
		radar:    radar,
		store:    store,
		now:      time.Now,
	}
}

// BuildSnapshot runs the fetch sequence: geocode, grid point, current
// conditions, alerts, forecast, radar. A failing step leaves its field at
// a fallback and the sequence carries on; only a failed geocode returns
// an error, alongside the partial snapshot.
func (s *Service) BuildSnapshot(ctx context.Context, query string, onStage func(Stage)) (WeatherSnapshot, error) {
	stage := func(st Stage) {
		if onStage != nil {
			onStage(st)
		}
	}

	snap := WeatherSnapshot{
		ID:       uuid.New(),
		Location: Location{Zip: query, DisplayName: "ZIP " + query},
		Alerts:   []AlertRecord{},
	}
	logger := log.With().Str("zip", query).Str("snapshot", snap.ID.String()).Logger()

	stage(StageWeather)
	loc, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Msg("geocode failed")
		snap.RadarError = fmt.Sprintf("could not get coordinates from ZIP code %s: %v", query, err)
		snap.FetchedAt = s.now().UTC()
		return snap, fmt.Errorf("%w: %w", ErrNoLocation, err)
	}
	if loc.Zip == "" {
		loc.Zip = query
	}
	snap.Location = loc

	grid, err := s.provider.GridPoint(ctx, loc.Lat, loc.Lon)
	if err != nil {
		logger.Warn().Err(err).Str("provider", s.provider.Name()).Msg("grid point lookup failed")
	}

	conds, err := s.provider.CurrentConditions(ctx, loc.Lat, loc.Lon)
	if err != nil {
		logger.Warn().Err(err).Msg("current conditions unavailable")
	} else {
		snap.Conditions = conds
	}

	alerts, err := s.provider.ActiveAlerts(ctx, loc)
	if err != nil {
		logger.Warn().Err(err).Msg("alerts unavailable")
	} else {
		snap.Alerts = SortAlerts(alerts)
	}
	snap.IsTropical, snap.IsRedmode = AlertFlags(snap.Alerts)

	if grid.ForecastURL != "" {
		periods, err := s.provider.ForecastPeriods(ctx, grid.ForecastURL)
		if err != nil {
			logger.Warn().Err(err).Msg("forecast unavailable")
		} else {
			snap.Forecast = periods
		}
	}

	stage(StageRadar)
	radar, err := s.fetchRadar(ctx, loc, snap.IsTropical)
	if err != nil {
		logger.Warn().Err(err).Bool("tropical", snap.IsTropical).Msg("radar unavailable")
		snap.RadarError = err.Error()
	}
	snap.Radar = radar
	snap.FetchedAt = s.now().UTC()

	if s.store != nil {
		s.store.SaveSnapshot(snap.Summary())
	}

	logger.Info().
		Int("alerts", len(snap.Alerts)).
		Int("radarSequences", len(snap.Radar)).
		Bool("tropical", snap.IsTropical).
		Bool("redmode", snap.IsRedmode).
		Msg("snapshot assembled")
	return snap, nil
}

// fetchRadar downloads the local loop. In tropical mode the wide-area
// loop is prefetched concurrently and joined before returning; its
// failure only drops the second sequence.
func (s *Service) fetchRadar(ctx context.Context, loc Location, tropical bool) ([]RadarSequence, error) {
	if s.radar == nil {
		return nil, ErrNoRadar
	}

	var (
		wg      sync.WaitGroup
		wide    RadarSequence
		wideErr error
	)
	if tropical {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wide, wideErr = s.radar.RadarSequence(ctx, loc, RadarTropical)
		}()
	}

	local, err := s.radar.RadarSequence(ctx, loc, RadarLocal)
	wg.Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRadar, err)
	}

	seqs := []RadarSequence{local}
	if tropical {
		if wideErr != nil {
			log.Warn().Err(wideErr).Msg("tropical radar unavailable; showing local loop only")
		} else {
			wide.StartOffset = TropicalStartOffset
			seqs = append(seqs, wide)
		}
	}
	return seqs, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (SnapshotSummary, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]SnapshotSummary, error) {
	return s.store.GetRange(loc, from, to)
}
