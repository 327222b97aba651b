package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-display/internal/weather"
)

// newNWSServer serves a minimal api.weather.gov for one point.
func newNWSServer(t *testing.T, observation string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprintf(w, `{"properties":{"gridId":"FWD","gridX":80,"gridY":100,
			"forecast":"%[1]s/gridpoints/FWD/80,100/forecast",
			"forecastHourly":"%[1]s/gridpoints/FWD/80,100/forecast/hourly",
			"observationStations":"%[1]s/gridpoints/FWD/80,100/stations"}}`, srv.URL)
	})
	mux.HandleFunc("/gridpoints/FWD/80,100/forecast/hourly", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"periods":[{"name":"","startTime":"2026-10-15T10:00:00-05:00","isDaytime":true,
			"temperature":70,"temperatureUnit":"F","windSpeed":"10 mph","windDirection":"SW",
			"shortForecast":"Sunny","relativeHumidity":{"value":55}}]}}`)
	})
	mux.HandleFunc("/gridpoints/FWD/80,100/forecast", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"periods":[
			{"name":"Today","startTime":"2026-10-15T06:00:00-05:00","isDaytime":true,"temperature":85,"temperatureUnit":"F","shortForecast":"Sunny"},
			{"name":"Tonight","startTime":"2026-10-15T18:00:00-05:00","isDaytime":false,"temperature":62,"temperatureUnit":"F","shortForecast":"Clear"}]}}`)
	})
	mux.HandleFunc("/gridpoints/FWD/80,100/stations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"features":[{"id":"%s/stations/KDAL"}]}`, srv.URL)
	})
	mux.HandleFunc("/stations/KDAL/observations/latest", func(w http.ResponseWriter, r *http.Request) {
		if observation == "" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, observation)
	})
	mux.HandleFunc("/alerts/active", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "32.7800,-96.8000", r.URL.Query().Get("point"))
		fmt.Fprint(w, `{"features":[
			{"properties":{"event":"Flood Watch","headline":"Flood Watch issued","description":"Rain.","instruction":null}},
			{"properties":{"event":"Tornado Warning","headline":"Tornado Warning issued","description":"Take\ncover.","instruction":"Move to an interior room."}}]}`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNWSCurrentConditionsWithObservation(t *testing.T) {
	obs := fmt.Sprintf(`{"properties":{"timestamp":"%s","textDescription":"Thunderstorms and Heavy Rain",
		"temperature":{"value":25,"unitCode":"wmoUnit:degC"},
		"dewpoint":{"value":15,"unitCode":"wmoUnit:degC"},
		"relativeHumidity":{"value":54.6},
		"barometricPressure":{"value":101325},
		"visibility":{"value":16093.4},
		"windGust":{"value":64.3738}}}`, time.Now().UTC().Format(time.RFC3339))
	srv := newNWSServer(t, obs)
	p := NewNWSProvider(srv.Client(), "test-agent", srv.URL)

	c, err := p.CurrentConditions(context.Background(), 32.78, -96.8)
	require.NoError(t, err)
	assert.Equal(t, "77", c.Temperature)
	assert.Equal(t, "Heavy T-storms", c.Description)
	assert.Equal(t, 40, c.DescFontSize)
	assert.Equal(t, "55%", c.Humidity)
	assert.Equal(t, "59°F", c.DewPoint)
	assert.Equal(t, "29.92 inHg", c.Pressure)
	assert.Equal(t, "10.0 mi", c.Visibility)
	assert.Equal(t, "40 mph", c.Gusts)
	assert.Equal(t, "10 mph SW", c.Wind)
	assert.Equal(t, "KDAL", c.StationID)
	assert.True(t, c.IsDaytime)
}

func TestNWSCurrentConditionsFallsBackToHourly(t *testing.T) {
	srv := newNWSServer(t, "")
	p := NewNWSProvider(srv.Client(), "test-agent", srv.URL)
	p.httpCfg.Backoff = BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	c, err := p.CurrentConditions(context.Background(), 32.78, -96.8)
	require.NoError(t, err)
	assert.Equal(t, "70", c.Temperature)
	assert.Equal(t, "Sunny", c.Description)
	assert.Equal(t, "55%", c.Humidity)
	assert.Equal(t, weather.NotAvailable, c.Pressure)
	assert.Equal(t, weather.NotAvailable, c.Gusts)
}

func TestNWSGustInferredFromWindText(t *testing.T) {
	p := NewNWSProvider(http.DefaultClient, "", "")
	conds := baselineConditions(periodPayload{WindSpeed: "15 mph gusting to 35"})
	p.applyObservation(conds, "KX", observationResponse{}, periodPayload{WindSpeed: "15 mph gusting to 35 mph"})
	assert.Equal(t, "35 mph", conds.Gusts)

	conds = baselineConditions(periodPayload{})
	p.applyObservation(conds, "KX", observationResponse{}, periodPayload{WindSpeed: "5 mph"})
	assert.Equal(t, "None", conds.Gusts)
}

func TestNWSAlertsAndForecast(t *testing.T) {
	srv := newNWSServer(t, "")
	p := NewNWSProvider(srv.Client(), "test-agent", srv.URL)
	ctx := context.Background()

	alerts, err := p.ActiveAlerts(ctx, weather.Location{Lat: 32.78, Lon: -96.8})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, weather.AlertLevelWatch, alerts[0].Level)
	assert.Equal(t, "Tornado Warning issued ... Take cover. ... Move to an interior room.", alerts[1].TickerText)

	grid, err := p.GridPoint(ctx, 32.78, -96.8)
	require.NoError(t, err)
	assert.Equal(t, "FWD", grid.GridID)
	assert.True(t, strings.HasSuffix(grid.ForecastURL, "/forecast"))

	periods, err := p.ForecastPeriods(ctx, grid.ForecastURL)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "Tonight", periods[1].Name)
	assert.Equal(t, 62, periods[1].Temperature)
	assert.False(t, periods[1].IsDaytime)
}

func TestNWSAlertsNeedLocation(t *testing.T) {
	p := NewNWSProvider(http.DefaultClient, "", "")
	_, err := p.ActiveAlerts(context.Background(), weather.Location{})
	assert.Error(t, err)
}

func TestDoRequestWithResilienceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond}}
	resp, err := doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("t"), newGetRequest(cfg, srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoRequestWithResilienceDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond}}
	_, err := doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("t"), newGetRequest(cfg, srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoRequestWithResilienceRejectsBadConfig(t *testing.T) {
	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, newCircuitBreaker("t"), nil)
	assert.ErrorIs(t, err, errNoHTTPClient)

	cfg := HTTPClientConfig{Client: http.DefaultClient}
	_, err = doRequestWithResilience(context.Background(), cfg, newCircuitBreaker("t"), nil)
	assert.ErrorIs(t, err, errInvalidConfig)
}
