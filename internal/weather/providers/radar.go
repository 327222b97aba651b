package providers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/net/html"

	"github.com/i474232898/weather-display/internal/weather"
)

const (
	defaultRviewBaseURL = "https://mesonet.agron.iastate.edu/GIS/apps/rview/"
	gifLinkText         = "Download as Animated Gif"
	maxPageBytes        = 4 << 20
	tropicalCropRatio   = 0.1
)

var errRadarLinkMissing = errors.New("could not find radar image on the server")

// MesonetRadar implements weather.RadarSource using the Iowa Environmental
// Mesonet rview page, which links an animated GIF of the requested loop.
type MesonetRadar struct {
	baseURL string
	pageCfg HTTPClientConfig
	gifCfg  HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewMesonetRadar creates the radar source. gifClient should carry the
// longer download timeout. An empty baseURL selects the public rview app.
func NewMesonetRadar(pageClient, gifClient *http.Client, userAgent, baseURL string) *MesonetRadar {
	if baseURL == "" {
		baseURL = defaultRviewBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &MesonetRadar{
		baseURL: baseURL,
		pageCfg: HTTPClientConfig{Client: pageClient, UserAgent: userAgent, Backoff: DefaultBackoff},
		gifCfg:  HTTPClientConfig{Client: gifClient, UserAgent: userAgent, Backoff: BackoffConfig{MaxRetries: 0, InitialInterval: time.Second}},
		circuit: newCircuitBreaker("mesonet"),
		now:     time.Now,
	}
}

// PageURL builds the rview query for a view. The tropical view adds the
// GOES infrared layer and doubles the zoom.
func (r *MesonetRadar) PageURL(loc weather.Location, view weather.RadarView) string {
	now := r.now()
	layers := []string{"nexrad", "warnings", "uscounties", "watches", "blank"}
	zoom := "250"
	if view == weather.RadarTropical {
		layers = append([]string{"goes_ir"}, layers...)
		zoom = "500"
	}

	var b strings.Builder
	b.WriteString(r.baseURL + "warnings.phtml?")
	params := []string{
		"tzoff=0",
		fmt.Sprintf("lat0=%.10f", loc.Lat),
		fmt.Sprintf("lon0=%.10f", loc.Lon),
	}
	for _, l := range layers {
		params = append(params, "layers%5B%5D="+l)
	}
	params = append(params,
		"tz=EDT",
		fmt.Sprintf("year=%d", now.Year()),
		fmt.Sprintf("month=%d", int(now.Month())),
		fmt.Sprintf("day=%d", now.Day()),
		fmt.Sprintf("hour=%d", now.Hour()),
		fmt.Sprintf("minute=%d", now.Minute()),
		"warngeo=both",
		"zoom="+zoom,
		"imgsize=1280x1024",
		"loop=1",
		"frames=49",
		"interval=5",
		"filter=0",
		"cu=0",
		"sortcol=fcster",
		"sortdir=DESC",
		"lsrlook=%2B",
		"lsrwindow=0",
	)
	b.WriteString(strings.Join(params, "&"))
	return b.String()
}

// RadarSequence fetches the rview page, follows its GIF link and decodes
// the loop into composited frames.
func (r *MesonetRadar) RadarSequence(ctx context.Context, loc weather.Location, view weather.RadarView) (weather.RadarSequence, error) {
	link, err := r.gifLink(ctx, r.PageURL(loc, view))
	if err != nil {
		return weather.RadarSequence{}, err
	}

	resp, err := doRequestWithResilience(ctx, r.gifCfg, r.circuit, newGetRequest(r.gifCfg, link))
	if err != nil {
		return weather.RadarSequence{}, fmt.Errorf("radar gif: %w", err)
	}
	defer resp.Body.Close()

	frames, durations, err := DecodeLoop(resp.Body, view == weather.RadarTropical)
	if err != nil {
		return weather.RadarSequence{}, err
	}
	return weather.NewRadarSequence(frames, durations, 0)
}

func (r *MesonetRadar) gifLink(ctx context.Context, pageURL string) (string, error) {
	resp, err := doRequestWithResilience(ctx, r.pageCfg, r.circuit, newGetRequest(r.pageCfg, pageURL))
	if err != nil {
		return "", fmt.Errorf("radar page: %w", err)
	}
	defer resp.Body.Close()

	href, err := FindGIFLink(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("radar page: bad gif link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// FindGIFLink returns the href of the anchor whose text is the GIF download label.
func FindGIFLink(page io.Reader) (string, error) {
	doc, err := html.Parse(page)
	if err != nil {
		return "", fmt.Errorf("radar page: %w", err)
	}

	var href string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" && strings.TrimSpace(nodeText(n)) == gifLinkText {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					href = a.Val
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if !walk(doc) {
		return "", errRadarLinkMissing
	}
	return href, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			b.WriteString(nodeText(c))
		}
	}
	return b.String()
}

// DecodeLoop decodes an animated GIF into fully composited frames and
// their raw delays. Tropical loops lose the top 10% (the title band).
func DecodeLoop(r io.Reader, tropical bool) ([]image.Image, []time.Duration, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("radar gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, nil, fmt.Errorf("radar gif: no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	crop := bounds
	if tropical {
		crop.Min.Y += int(float64(bounds.Dy()) * tropicalCropRatio)
	}

	frames := make([]image.Image, 0, len(g.Image))
	durations := make([]time.Duration, 0, len(g.Image))
	for i, src := range g.Image {
		var previous *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)

		frame := cloneRGBA(canvas)
		frames = append(frames, frame.SubImage(crop))

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		durations = append(durations, time.Duration(delay)*10*time.Millisecond)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return frames, durations, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
