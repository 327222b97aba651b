package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-display/internal/weather"
)

const (
	defaultNWSBaseURL = "https://api.weather.gov"
	staleObservation  = 2 * time.Hour
)

// NWSProvider implements weather.Provider for api.weather.gov.
type NWSProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewNWSProvider creates an NWS provider. An empty baseURL selects the public API.
func NewNWSProvider(client *http.Client, userAgent, baseURL string) *NWSProvider {
	if baseURL == "" {
		baseURL = defaultNWSBaseURL
	}
	return &NWSProvider{
		name:    "nws",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:    client,
			UserAgent: userAgent,
			Backoff:   DefaultBackoff,
		},
		circuit: newCircuitBreaker("nws"),
		now:     time.Now,
	}
}

func (p *NWSProvider) Name() string {
	return p.name
}

type pointResponse struct {
	Properties struct {
		GridID              string `json:"gridId"`
		GridX               int    `json:"gridX"`
		GridY               int    `json:"gridY"`
		Forecast            string `json:"forecast"`
		ForecastHourly      string `json:"forecastHourly"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type quantity struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

type periodPayload struct {
	Name              string   `json:"name"`
	StartTime         string   `json:"startTime"`
	IsDaytime         bool     `json:"isDaytime"`
	Temperature       *int     `json:"temperature"`
	TemperatureUnit   string   `json:"temperatureUnit"`
	WindSpeed         string   `json:"windSpeed"`
	WindDirection     string   `json:"windDirection"`
	ShortForecast     string   `json:"shortForecast"`
	RelativeHumidity  quantity `json:"relativeHumidity"`
}

type forecastResponse struct {
	Properties struct {
		Periods []periodPayload `json:"periods"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		ID string `json:"id"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		Timestamp          string   `json:"timestamp"`
		TextDescription    string   `json:"textDescription"`
		Temperature        quantity `json:"temperature"`
		Dewpoint           quantity `json:"dewpoint"`
		RelativeHumidity   quantity `json:"relativeHumidity"`
		BarometricPressure quantity `json:"barometricPressure"`
		Visibility         quantity `json:"visibility"`
		WindGust           quantity `json:"windGust"`
	} `json:"properties"`
}

type alertsResponse struct {
	Features []struct {
		Properties struct {
			Event       string `json:"event"`
			Headline    string `json:"headline"`
			Description string `json:"description"`
			Instruction string `json:"instruction"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *NWSProvider) points(ctx context.Context, lat, lon float64) (pointResponse, error) {
	var pt pointResponse
	u := fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, lat, lon)
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &pt); err != nil {
		return pt, fmt.Errorf("nws points: %w", err)
	}
	return pt, nil
}

// GridPoint resolves the forecast endpoints for a coordinate.
func (p *NWSProvider) GridPoint(ctx context.Context, lat, lon float64) (weather.GridPoint, error) {
	pt, err := p.points(ctx, lat, lon)
	if err != nil {
		return weather.GridPoint{}, err
	}
	return weather.GridPoint{
		GridID:      pt.Properties.GridID,
		GridX:       pt.Properties.GridX,
		GridY:       pt.Properties.GridY,
		ForecastURL: pt.Properties.Forecast,
		HourlyURL:   pt.Properties.ForecastHourly,
		StationsURL: pt.Properties.ObservationStations,
	}, nil
}

// CurrentConditions starts from the first hourly period and overrides it
// with the nearest station's latest observation when one is available.
func (p *NWSProvider) CurrentConditions(ctx context.Context, lat, lon float64) (*weather.Conditions, error) {
	pt, err := p.points(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if pt.Properties.ForecastHourly == "" {
		return nil, fmt.Errorf("nws points: no hourly forecast url")
	}

	var hourly forecastResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, pt.Properties.ForecastHourly, &hourly); err != nil {
		return nil, fmt.Errorf("nws hourly: %w", err)
	}
	var current periodPayload
	if len(hourly.Properties.Periods) > 0 {
		current = hourly.Properties.Periods[0]
	}
	conds := baselineConditions(current)

	station, obs, err := p.latestObservation(ctx, pt.Properties.ObservationStations)
	if err != nil {
		log.Warn().Err(err).Msg("observation unavailable; using hourly forecast values")
		conds.Humidity = formatQuantity(current.RelativeHumidity.Value, func(v float64) string {
			return fmt.Sprintf("%d", int(math.Round(v)))
		}, "%")
		return finishConditions(conds), nil
	}

	p.applyObservation(conds, station, obs, current)
	return finishConditions(conds), nil
}

func baselineConditions(current periodPayload) *weather.Conditions {
	temp := weather.NotAvailable
	if current.Temperature != nil {
		temp = strconv.Itoa(*current.Temperature)
	}
	unit := current.TemperatureUnit
	if unit == "" {
		unit = "F"
	}
	desc := current.ShortForecast
	if desc == "" {
		desc = weather.NotAvailable
	}
	wind := weather.NotAvailable
	if current.WindSpeed != "" {
		wind = strings.TrimSpace(current.WindSpeed + " " + current.WindDirection)
	}
	isDay := current.IsDaytime || current.StartTime == ""
	return &weather.Conditions{
		Temperature:     temp,
		TemperatureUnit: unit,
		Description:     desc,
		IsDaytime:       isDay,
		Wind:            wind,
		Gusts:           weather.NotAvailable,
		Humidity:        weather.NotAvailable,
		DewPoint:        weather.NotAvailable,
		Pressure:        weather.NotAvailable,
		Visibility:      weather.NotAvailable,
	}
}

func (p *NWSProvider) latestObservation(ctx context.Context, stationsURL string) (string, observationResponse, error) {
	var obs observationResponse
	if stationsURL == "" {
		return "", obs, fmt.Errorf("nws points: no observation stations url")
	}
	var stations stationsResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, stationsURL, &stations); err != nil {
		return "", obs, fmt.Errorf("nws stations: %w", err)
	}
	if len(stations.Features) == 0 || stations.Features[0].ID == "" {
		return "", obs, fmt.Errorf("nws stations: none listed")
	}

	id := stations.Features[0].ID
	station := id[strings.LastIndex(id, "/")+1:]
	if err := getJSON(ctx, p.httpCfg, p.circuit, id+"/observations/latest", &obs); err != nil {
		return station, obs, fmt.Errorf("nws observation %s: %w", station, err)
	}
	return station, obs, nil
}

var gustPattern = regexp.MustCompile(`gust(?:ing|s)?\s+(?:to\s+)?(\d+)`)

func (p *NWSProvider) applyObservation(conds *weather.Conditions, station string, obs observationResponse, current periodPayload) {
	props := obs.Properties
	conds.StationID = station

	if ts, err := time.Parse(time.RFC3339, props.Timestamp); err == nil {
		conds.ObservedAt = ts.UTC()
		if age := p.now().Sub(ts); age > staleObservation {
			log.Warn().
				Str("station", station).
				Float64("hoursOld", age.Hours()).
				Msg("observation data is stale; the station's ASOS/AWOS feed may be down")
		}
	}

	if props.TextDescription != "" {
		conds.Description = props.TextDescription
	}
	if v := props.Temperature.Value; v != nil {
		t := *v
		if strings.Contains(props.Temperature.UnitCode, "degC") {
			t = t*9/5 + 32
		}
		conds.Temperature = strconv.Itoa(int(math.Round(t)))
	}

	conds.Humidity = formatQuantity(props.RelativeHumidity.Value, func(v float64) string {
		return strconv.Itoa(int(math.Round(v)))
	}, "%")
	conds.DewPoint = formatQuantity(props.Dewpoint.Value, func(c float64) string {
		return strconv.Itoa(int(math.Round(c*9/5 + 32)))
	}, "°F")
	conds.Pressure = formatQuantity(props.BarometricPressure.Value, func(pa float64) string {
		return fmt.Sprintf("%.2f", pa/3386.389)
	}, " inHg")
	conds.Visibility = formatQuantity(props.Visibility.Value, func(m float64) string {
		return strconv.FormatFloat(math.Round(m/1609.34*10)/10, 'f', 1, 64)
	}, " mi")

	if g := props.WindGust.Value; g != nil {
		conds.Gusts = fmt.Sprintf("%d mph", int(math.Round(*g/1.60934)))
		return
	}
	if m := gustPattern.FindStringSubmatch(strings.ToLower(current.WindSpeed)); m != nil {
		conds.Gusts = m[1] + " mph"
		return
	}
	conds.Gusts = "None"
}

func finishConditions(c *weather.Conditions) *weather.Conditions {
	c.Description = weather.CanonicalCondition(c.Description)
	c.DescFontSize = weather.DescFontSize(c.Description)
	return c
}

func formatQuantity(v *float64, conv func(float64) string, unit string) string {
	if v == nil {
		return weather.NotAvailable
	}
	return conv(*v) + unit
}

// ActiveAlerts queries alerts by point when coordinates are known,
// otherwise by state.
func (p *NWSProvider) ActiveAlerts(ctx context.Context, loc weather.Location) ([]weather.AlertRecord, error) {
	q := url.Values{}
	switch {
	case loc.Lat != 0 || loc.Lon != 0:
		q.Set("point", fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon))
	case loc.StateAcronym != "":
		q.Set("area", loc.StateAcronym)
	default:
		return nil, fmt.Errorf("nws alerts: location has neither coordinates nor state")
	}

	var resp alertsResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/alerts/active?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("nws alerts: %w", err)
	}

	alerts := make([]weather.AlertRecord, 0, len(resp.Features))
	for _, f := range resp.Features {
		a := f.Properties
		alerts = append(alerts, weather.NewAlertRecord(a.Event, a.Headline, a.Description, a.Instruction))
	}
	return alerts, nil
}

// ForecastPeriods fetches the named-period forecast.
func (p *NWSProvider) ForecastPeriods(ctx context.Context, forecastURL string) ([]weather.Period, error) {
	var fc forecastResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, forecastURL, &fc); err != nil {
		return nil, fmt.Errorf("nws forecast: %w", err)
	}

	periods := make([]weather.Period, 0, len(fc.Properties.Periods))
	for _, raw := range fc.Properties.Periods {
		period := weather.Period{
			Name:            raw.Name,
			TemperatureUnit: raw.TemperatureUnit,
			ShortForecast:   raw.ShortForecast,
			IsDaytime:       raw.IsDaytime,
		}
		if raw.Temperature != nil {
			period.Temperature = *raw.Temperature
		}
		if ts, err := time.Parse(time.RFC3339, raw.StartTime); err == nil {
			period.StartTime = ts
		}
		periods = append(periods, period)
	}
	return periods, nil
}
