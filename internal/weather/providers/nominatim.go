package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-display/internal/weather"
)

const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

var errNoGeocodeMatch = errors.New("no geocode match")

// NominatimGeocoder implements weather.Geocoder against OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewNominatimGeocoder creates a geocoder. An empty baseURL selects the public service.
func NewNominatimGeocoder(client *http.Client, userAgent, baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}
	return &NominatimGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: userAgent,
			Backoff:   DefaultBackoff,
		},
		circuit: newCircuitBreaker("nominatim"),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		County   string `json:"county"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// Geocode resolves a US ZIP (or free text) to a Location.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (weather.Location, error) {
	q := url.Values{}
	q.Set("q", query+",USA")
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	var results []nominatimResult
	if err := getJSON(ctx, g.httpCfg, g.circuit, g.baseURL+"/search?"+q.Encode(), &results); err != nil {
		return weather.Location{}, fmt.Errorf("nominatim: %w", err)
	}
	if len(results) == 0 {
		return weather.Location{}, fmt.Errorf("%w for ZIP %s", errNoGeocodeMatch, query)
	}
	return parseNominatim(results[0], query)
}

func parseNominatim(r nominatimResult, zip string) (weather.Location, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("nominatim: bad lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return weather.Location{}, fmt.Errorf("nominatim: bad lon %q: %w", r.Lon, err)
	}

	parts := strings.Split(r.DisplayName, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	county := r.Address.County
	if county == "" {
		for _, part := range parts {
			if strings.Contains(strings.ToLower(part), "county") {
				county = part
				break
			}
		}
	}
	county = trimCountySuffix(county)

	state := r.Address.State
	acr := StateAcronym(state)
	if acr == "" {
		for _, part := range parts {
			if a, ok := stateAcronyms[part]; ok {
				state, acr = part, a
				break
			}
		}
	}

	return weather.Location{
		Zip:          zip,
		Lat:          lat,
		Lon:          lon,
		County:       county,
		State:        state,
		StateAcronym: acr,
		DisplayName:  locationName(county, acr, zip),
	}, nil
}
