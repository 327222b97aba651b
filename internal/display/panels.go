package display

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/i474232898/weather-display/internal/common"
	"github.com/i474232898/weather-display/internal/weather"
)

const (
	PanelTexture = "textures/graphics/paneaero.png"

	conditionsIconRatio = 0.15
	forecastIconFactor  = 2.0
	forecastMaxPeriods  = 6
)

var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorBlack     = color.RGBA{0, 0, 0, 255}
	colorPanelBG   = color.RGBA{0, 0, 0, 180}
	colorLabel     = color.RGBA{220, 220, 50, 255}
	colorDayName   = color.RGBA{220, 221, 51, 255}
	colorHeat      = color.RGBA{200, 0, 25, 255}
	colorCold      = color.RGBA{50, 150, 255, 255}
	colorWindWarn  = color.RGBA{175, 15, 5, 255}
	colorSeparator = color.RGBA{100, 100, 100, 255}
)

// PanelFrame is a pre-rendered panel: layers relative to its top-left.
type PanelFrame struct {
	Width, Height float64
	Layers        []Layer
	// ScaleX is the horizontal squeeze of a flip frame. It only applies
	// to frames made by Scaled.
	ScaleX   float64
	squeezed bool
}

// Scaled returns the panel squeezed to width w.
func (p PanelFrame) Scaled(w float64) PanelFrame {
	out := p
	out.Width = w
	out.squeezed = true
	if p.Width > 0 {
		out.ScaleX = w / p.Width
	}
	return out
}

// Place translates the panel's layers to screen position (x, y). A frame
// squeezed to nothing places no layers.
func (p PanelFrame) Place(x, y float64) []Layer {
	s := 1.0
	if p.squeezed {
		if p.ScaleX <= 0 {
			return nil
		}
		s = p.ScaleX
	}
	out := make([]Layer, 0, len(p.Layers))
	for _, l := range p.Layers {
		l.X = x + l.X*s
		l.Y += y
		l.X2 = x + l.X2*s
		l.Y2 += y
		l.W *= s
		if l.Kind == LayerText {
			l.ScaleX = s
		}
		out = append(out, l)
	}
	return out
}

// BuildFlipFrames scales a panel for the flip: shrink frame i has width
// w*(1-i/N) and expand frame i has width w*i/N, for i in 0..N.
func BuildFlipFrames(panel PanelFrame, steps int) FlipFrames {
	var ff FlipFrames
	if panel.Width <= 0 || steps < 1 {
		return ff
	}
	for i := 0; i <= steps; i++ {
		shrink := float64(int(panel.Width * (1 - float64(i)/float64(steps))))
		expand := float64(int(panel.Width * float64(i) / float64(steps)))
		ff.Shrink = append(ff.Shrink, panel.Scaled(shrink))
		ff.Expand = append(ff.Expand, panel.Scaled(expand))
	}
	return ff
}

// TemperatureColor tints the temperature for heat and cold alerts.
func TemperatureColor(primary *weather.AlertRecord) color.RGBA {
	if primary == nil {
		return colorWhite
	}
	switch {
	case weather.IsHeatEvent(primary.EventUpper):
		return colorHeat
	case weather.IsColdEvent(primary.EventUpper):
		return colorCold
	default:
		return colorWhite
	}
}

// WindValueColor flags wind >= 25 or gusts >= 40 in the value list.
func WindValueColor(label, value string) color.RGBA {
	n, ok := common.LeadingInt(value)
	if !ok {
		return colorWhite
	}
	if (label == "Wind" && n >= 25) || (label == "Gusts" && n >= 40) {
		return colorWindWarn
	}
	return colorWhite
}

// BuildConditionsPanel lays out the current-conditions panel. It
// returns false when there are no conditions.
func BuildConditionsPanel(ctx *DisplayContext, icons *IconRules, loc weather.Location, c *weather.Conditions, primary *weather.AlertRecord) (PanelFrame, bool) {
	if c == nil {
		return PanelFrame{}, false
	}
	g := ctx.Panel
	p := PanelFrame{Width: g.Width, Height: g.Height}
	add := func(l Layer) { l.Band = BandPanel; p.Layers = append(p.Layers, l) }

	add(AssetLayer(PanelTexture, 0, 0, g.Width, g.Height, colorPanelBG))

	y := g.Padding
	title := loc.DisplayName
	if title == "" {
		title = "ZIP " + loc.Zip
	}
	add(TextLayer(title, g.Width/2, y, g.TitleSize, FontBold, colorBlack).Outlined(colorWhite, 2).Centered())
	_, th := ctx.measure(title, g.TitleSize, FontBold)
	y += th + 15

	iconSize := math.Floor(g.Height * conditionsIconRatio)
	wind, _ := common.LeadingInt(c.Wind)
	gust, _ := common.LeadingInt(c.Gusts)
	add(AssetLayer(icons.Icon(c.Description, !c.IsDaytime, wind, gust), math.Floor((g.Width-iconSize)/2), y, iconSize, iconSize, color.RGBA{}))
	y += iconSize + 15

	temp := fmt.Sprintf("%s°%s", c.Temperature, c.TemperatureUnit)
	add(TextLayer(temp, g.Width/2, y, g.TempSize, FontBold, TemperatureColor(primary)).Outlined(colorBlack, 2).Centered())
	_, tmh := ctx.measure(temp, g.TempSize, FontBold)
	y += tmh + 15

	descSize := g.DescSize
	if c.DescFontSize > 0 {
		descSize = ctx.FontSize(float64(c.DescFontSize))
	}
	add(TextLayer(c.Description, g.Width/2+ctx.SX(-2), y, descSize, FontBold, colorWhite).Outlined(colorBlack, 2).Centered())
	_, dh := ctx.measure(c.Description, descSize, FontBold)
	y += dh + 20

	rows := []struct{ label, value string }{
		{"Humidity", c.Humidity},
		{"Dew Point", c.DewPoint},
		{"Pressure", c.Pressure},
		{"Visibility", c.Visibility},
		{"Wind", c.Wind},
		{"Gusts", c.Gusts},
	}
	remaining := g.Height - y - g.Padding
	if remaining <= 20 {
		return p, true
	}
	lineHeight := remaining / float64(len(rows))
	labelWidth := 0.0
	for _, r := range rows {
		w, _ := ctx.measure(r.label+":", g.ListSize, FontBold)
		labelWidth = math.Max(labelWidth, w)
	}
	for _, r := range rows {
		add(TextLayer(r.label+":", g.Padding, y, g.ListSize, FontBold, colorLabel).Outlined(colorBlack, 1))
		value := TextLayer(r.value, g.Padding+labelWidth+20, y, g.ListSize, FontBold, WindValueColor(r.label, r.value))
		if r.label == "Wind" || r.label == "Gusts" {
			value = value.Outlined(colorBlack, 2)
		}
		add(value)
		y += lineHeight
	}
	return p, true
}

// WrapWords breaks text into lines narrower than maxWidth.
func WrapWords(ctx *DisplayContext, text string, size float64, style FontStyle, maxWidth float64) []string {
	var lines []string
	var current []string
	for _, word := range strings.Fields(text) {
		candidate := strings.Join(append(current, word), " ")
		if w, _ := ctx.measure(candidate, size, style); w < maxWidth || len(current) == 0 {
			current = append(current, word)
			continue
		}
		lines = append(lines, strings.Join(current, " "))
		current = []string{word}
	}
	return append(lines, strings.Join(current, " "))
}

// BuildForecastPanel lays out up to six forecast periods. It returns
// false when there is no forecast.
func BuildForecastPanel(ctx *DisplayContext, icons *IconRules, periods []weather.Period) (PanelFrame, bool) {
	if len(periods) == 0 {
		return PanelFrame{}, false
	}
	g := ctx.Panel
	p := PanelFrame{Width: g.Width, Height: g.Height}
	add := func(l Layer) { l.Band = BandPanel; p.Layers = append(p.Layers, l) }

	add(AssetLayer(PanelTexture, 0, 0, g.Width, g.Height, colorPanelBG))

	const title = "72 Hour Forecast"
	y := g.Padding
	add(TextLayer(title, g.Padding, y, g.TitleSize, FontBold, colorWhite).Outlined(colorBlack, 3))
	_, titleH := ctx.measure(title, g.TitleSize, FontBold)
	y += titleH + 10

	entries := periods[:min(len(periods), forecastMaxPeriods)]
	detailSize := math.Floor(g.DataSize * 0.85)
	detailLine := math.Floor(g.LineHeight * 0.85)
	textWidth := g.Width - g.Padding*2 - ctx.SX(70)
	_, periodH := ctx.measure("Ag", g.DataSize, FontBold)
	_, detailH := ctx.measure("Ag", detailSize, FontRegular)

	wrapped := make([][]string, len(entries))
	content := titleH + 10
	for i, period := range entries {
		wrapped[i] = WrapWords(ctx, weather.AbbreviateForecast(period.ShortForecast), detailSize, FontRegular, textWidth)
		content += periodH + 5 + float64(len(wrapped[i]))*detailLine
	}
	spacing := 15.0
	if remaining := g.Height - g.Padding*2 - content; len(entries) > 1 && remaining > 0 {
		spacing += remaining / float64(len(entries)-1)
	}

	iconSize := math.Floor(g.LineHeight * forecastIconFactor)
	bottom := g.Height - g.Padding
	for i, period := range entries {
		if y+g.LineHeight > bottom {
			break
		}
		name := period.Name + " - "
		add(TextLayer(name, g.Padding, y, g.DataSize, FontBold, colorDayName).Outlined(colorBlack, 1))
		nameW, _ := ctx.measure(name, g.DataSize, FontBold)
		temp := fmt.Sprintf("%d°%s", period.Temperature, period.TemperatureUnit)
		add(TextLayer(temp, g.Padding+nameW, y, g.DataSize, FontBold, colorWhite).Outlined(colorBlack, 2))

		night := !period.IsDaytime || strings.Contains(strings.ToLower(period.Name), "night")
		icon := icons.Icon(period.ShortForecast, night, 0, 0)
		if weather.IsTropicalForecast(period.ShortForecast) {
			icon = icons.TropicalIcon(night)
		}
		add(AssetLayer(icon, g.Width-g.Padding-iconSize, y, iconSize, iconSize, color.RGBA{}))
		y += periodH + 5

		for _, line := range wrapped[i] {
			if y+detailH > bottom {
				break
			}
			add(TextLayer(line, g.Padding+10, y, detailSize, FontRegular, colorWhite))
			y += detailLine
		}

		y += spacing
		if i < len(entries)-1 && y < bottom {
			sy := y - spacing/2
			add(LineLayer(g.Padding, sy, g.Width-g.Padding, sy, colorSeparator))
		}
	}
	return p, true
}
