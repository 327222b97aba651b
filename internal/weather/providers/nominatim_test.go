package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "75201,USA", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, "display-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"32.7876","lon":"-96.7994","display_name":"Dallas, Dallas County, Texas, 75201, United States",
			"address":{"county":"Dallas County","state":"Texas","postcode":"75201"}}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.Client(), "display-test", srv.URL)
	loc, err := g.Geocode(context.Background(), "75201")
	require.NoError(t, err)
	assert.Equal(t, "75201", loc.Zip)
	assert.InDelta(t, 32.7876, loc.Lat, 1e-6)
	assert.InDelta(t, -96.7994, loc.Lon, 1e-6)
	assert.Equal(t, "Dallas", loc.County)
	assert.Equal(t, "TX", loc.StateAcronym)
	assert.Equal(t, "Dallas, TX", loc.DisplayName)
}

func TestNominatimNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.Client(), "", srv.URL)
	_, err := g.Geocode(context.Background(), "00000")
	assert.ErrorIs(t, err, errNoGeocodeMatch)
}

func TestParseNominatimFallsBackToDisplayName(t *testing.T) {
	var r nominatimResult
	r.Lat, r.Lon = "27.95", "-82.46"
	r.DisplayName = "Tampa, Hillsborough County, Florida, 33602, United States"

	loc, err := parseNominatim(r, "33602")
	require.NoError(t, err)
	assert.Equal(t, "Hillsborough", loc.County)
	assert.Equal(t, "Florida", loc.State)
	assert.Equal(t, "FL", loc.StateAcronym)
	assert.Equal(t, "Hillsborough, FL", loc.DisplayName)
}

func TestParseNominatimRejectsBadCoordinates(t *testing.T) {
	_, err := parseNominatim(nominatimResult{Lat: "north", Lon: "1"}, "1")
	assert.Error(t, err)
}

func TestLocationName(t *testing.T) {
	assert.Equal(t, "Dallas, TX", locationName("Dallas", "TX", "75201"))
	assert.Equal(t, "Dallas County", locationName("Dallas", "", "75201"))
	assert.Equal(t, "ZIP 75201", locationName("", "TX", "75201"))
	assert.Equal(t, "TX", StateAcronym("tx"))
	assert.Equal(t, "", StateAcronym("Atlantis"))
}
