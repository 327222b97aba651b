package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-display/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// The underlying client is package-global, so one key serves the process.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the API key and returns the geocoder.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

type geocodeResult struct {
	loc weather.Location
	err error
}

// Geocode resolves a ZIP. The library has no context support, so the
// lookup runs in its own goroutine and ctx only bounds the wait.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (weather.Location, error) {
	ch := make(chan geocodeResult, 1)
	go func() {
		loc, err := g.lookup(query)
		ch <- geocodeResult{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Location{}, ctx.Err()
	case r := <-ch:
		return r.loc, r.err
	}
}

func (g *GoogleGeocoder) lookup(query string) (weather.Location, error) {
	point, err := geocoder.Geocoding(geocoder.Address{
		PostalCode: query,
		Country:    "USA",
	})
	if err != nil {
		return weather.Location{}, fmt.Errorf("google geocoder: %w", err)
	}

	loc := weather.Location{
		Zip: query,
		Lat: point.Latitude,
		Lon: point.Longitude,
	}

	addresses, err := geocoder.GeocodingReverse(point)
	if err == nil && len(addresses) > 0 {
		a := addresses[0]
		loc.County = trimCountySuffix(a.County)
		loc.State = strings.TrimSpace(a.State)
		loc.StateAcronym = StateAcronym(loc.State)
	}
	loc.DisplayName = locationName(loc.County, loc.StateAcronym, query)
	return loc, nil
}
