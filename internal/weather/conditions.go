package weather

import (
	"strings"

	"github.com/i474232898/weather-display/internal/common"
)

var (
	stormWords     = []string{"thunderstorm", "thunderstorms", "thunder"}
	intensityWords = []string{"heavy", "strong"}
	fogWords       = []string{"fog", "mist"}
	squallWords    = []string{"squall", "squalls"}
)

// CanonicalCondition shortens storm descriptions to the wording the panel
// has room for. Precedence: chance, fog/mist, squall, intensity, plain storm.
// Non-storm text is returned unchanged.
func CanonicalCondition(desc string) string {
	cleaned := strings.NewReplacer("/", " ", "-", " ", "and", "").Replace(strings.ToLower(desc))
	words := common.WordSet(cleaned)
	if !common.HasAnyWord(words, stormWords...) && !hasTStorm(cleaned) {
		return desc
	}

	switch {
	case common.HasAnyWord(words, "chance"):
		return "Showers Nearby"
	case common.HasAnyWord(words, fogWords...):
		if common.HasAnyWord(words, intensityWords...) {
			return "Heavy T-storms"
		}
		return "T-storms"
	case common.HasAnyWord(words, squallWords...):
		return "Strong T-storm"
	case common.HasAnyWord(words, intensityWords...):
		return "Heavy T-storms"
	default:
		return "T-storms"
	}
}

// hasTStorm finds "t-storm" after the dash has been split off.
func hasTStorm(cleaned string) bool {
	fields := strings.Fields(cleaned)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "t" && (fields[i+1] == "storm" || fields[i+1] == "storms") {
			return true
		}
	}
	return false
}

// DescFontSize picks the description size so long text still fits.
func DescFontSize(desc string) int {
	switch n := len(desc); {
	case n > 30:
		return 28
	case n >= 25:
		return 35
	default:
		return 40
	}
}

var forecastAbbreviations = strings.NewReplacer(
	"Slight", "Slgt",
	"Thunderstorms", "T-storms",
	"Thunderstorm", "T-storm",
	"And", "&",
	"and", "&",
	"Scattered", "Sct'd",
	"Isolated", "Isol",
	"Temperature", "Temp",
	"Precipitation", "Precip",
)

// AbbreviateForecast shortens a short-forecast line for the forecast panel.
func AbbreviateForecast(text string) string {
	return forecastAbbreviations.Replace(text)
}

// IsTropicalForecast reports whether a forecast period mentions a tropical system.
func IsTropicalForecast(shortForecast string) bool {
	lower := strings.ToLower(shortForecast)
	return strings.Contains(lower, "tropical storm") || strings.Contains(lower, "hurricane")
}
