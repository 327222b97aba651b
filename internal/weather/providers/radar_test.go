package providers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-display/internal/weather"
)

var testPalette = color.Palette{color.Transparent, color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 255}}

// encodeLoop builds a 10x20 animated GIF. Frame 0 fills the canvas red;
// later frames paint a green 2x2 patch over it.
func encodeLoop(t *testing.T, delays ...int) []byte {
	t.Helper()
	g := &gif.GIF{Config: image.Config{Width: 10, Height: 20, ColorModel: testPalette}}
	for i, d := range delays {
		var img *image.Paletted
		if i == 0 {
			img = image.NewPaletted(image.Rect(0, 0, 10, 20), testPalette)
			for j := range img.Pix {
				img.Pix[j] = 1
			}
		} else {
			img = image.NewPaletted(image.Rect(4, 4, 6, 6), testPalette)
			for j := range img.Pix {
				img.Pix[j] = 2
			}
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, d)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func TestDecodeLoopComposites(t *testing.T) {
	frames, durations, err := DecodeLoop(bytes.NewReader(encodeLoop(t, 20, 0, 50)), false)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 0, 500 * time.Millisecond}, durations)

	// red background survives under the later partial frames
	r, g, _, _ := frames[2].At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	_, g, _, _ = frames[2].At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, image.Rect(0, 0, 10, 20), frames[0].Bounds())
}

func TestDecodeLoopCropsTropical(t *testing.T) {
	frames, _, err := DecodeLoop(bytes.NewReader(encodeLoop(t, 10)), true)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 2, 10, 20), frames[0].Bounds())
}

func TestDecodeLoopRejectsGarbage(t *testing.T) {
	_, _, err := DecodeLoop(strings.NewReader("not a gif"), false)
	assert.Error(t, err)
}

func TestFindGIFLink(t *testing.T) {
	page := `<html><body><a href="/other">Other</a>
		<p><a href="/tmp/loop123.gif"><b>Download as Animated Gif</b></a></p></body></html>`
	href, err := FindGIFLink(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/loop123.gif", href)

	_, err = FindGIFLink(strings.NewReader(`<html><a href="x">nothing</a></html>`))
	assert.ErrorIs(t, err, errRadarLinkMissing)
}

func TestPageURL(t *testing.T) {
	r := NewMesonetRadar(http.DefaultClient, http.DefaultClient, "", "")
	r.now = func() time.Time { return time.Date(2026, 10, 15, 9, 5, 0, 0, time.Local) }
	loc := weather.Location{Lat: 27.95, Lon: -82.46}

	local := r.PageURL(loc, weather.RadarLocal)
	assert.True(t, strings.HasPrefix(local, defaultRviewBaseURL+"warnings.phtml?"))
	assert.Contains(t, local, "lat0=27.9500000000")
	assert.Contains(t, local, "zoom=250")
	assert.Contains(t, local, "year=2026&month=10&day=15&hour=9&minute=5")
	assert.NotContains(t, local, "goes_ir")

	tropical := r.PageURL(loc, weather.RadarTropical)
	assert.Contains(t, tropical, "layers%5B%5D=goes_ir")
	assert.Contains(t, tropical, "zoom=500")
}

func TestMesonetRadarSequence(t *testing.T) {
	loop := encodeLoop(t, 10, 10)
	mux := http.NewServeMux()
	mux.HandleFunc("/rview/warnings.phtml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="../tmp/loop.gif">Download as Animated Gif</a>`))
	})
	mux.HandleFunc("/tmp/loop.gif", func(w http.ResponseWriter, r *http.Request) {
		w.Write(loop)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewMesonetRadar(srv.Client(), srv.Client(), "", srv.URL+"/rview")
	seq, err := r.RadarSequence(context.Background(), weather.Location{Lat: 1, Lon: 2}, weather.RadarLocal)
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())
	assert.Equal(t, 100*time.Millisecond+weather.LastFramePause, seq.Durations[1])
}

func TestMesonetRadarMissingLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	r := NewMesonetRadar(srv.Client(), srv.Client(), "", srv.URL)
	_, err := r.RadarSequence(context.Background(), weather.Location{}, weather.RadarTropical)
	assert.ErrorIs(t, err, errRadarLinkMissing)
}
