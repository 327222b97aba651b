package weather

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/weather-display/internal/common"
)

// AlertLevel is the display tier of an alert.
type AlertLevel string

const (
	AlertLevelAlert     AlertLevel = "ALERT"
	AlertLevelWatch     AlertLevel = "WATCH"
	AlertLevelStatement AlertLevel = "STATEMENT"
)

// rank orders levels for display: warnings first, statements last.
func (l AlertLevel) rank() int {
	switch l {
	case AlertLevelAlert:
		return 0
	case AlertLevelWatch:
		return 1
	default:
		return 2
	}
}

// AlertRecord is one active alert, normalised for the ticker.
type AlertRecord struct {
	Event       string     `json:"event"`
	EventUpper  string     `json:"eventUpper"`
	Headline    string     `json:"headline"`
	Description string     `json:"description"`
	TickerText  string     `json:"tickerText"`
	Level       AlertLevel `json:"level"`
}

// Key identifies the alert for audio dedup.
func (a AlertRecord) Key() string {
	return a.EventUpper
}

// NewAlertRecord builds a record from the raw alert fields.
func NewAlertRecord(event, headline, description, instruction string) AlertRecord {
	upper := cases.Upper(language.AmericanEnglish).String(event)
	return AlertRecord{
		Event:       event,
		EventUpper:  upper,
		Headline:    headline,
		Description: description,
		TickerText:  TickerText(headline, description, instruction),
		Level:       ClassifyLevel(upper),
	}
}

// ClassifyLevel maps an upper-cased event name to its tier.
func ClassifyLevel(eventUpper string) AlertLevel {
	switch {
	case strings.Contains(eventUpper, "WARNING"):
		return AlertLevelAlert
	case strings.Contains(eventUpper, "WATCH"):
		return AlertLevelWatch
	default:
		return AlertLevelStatement
	}
}

// TickerText joins headline, description and a meaningful instruction
// with " ... " and normalises whitespace.
func TickerText(headline, description, instruction string) string {
	parts := []string{headline, description}
	switch strings.ToUpper(strings.TrimSpace(instruction)) {
	case "", "N/A", "NA":
	default:
		parts = append(parts, instruction)
	}
	return common.CollapseSpaces(strings.Join(parts, " ... "))
}

// SortAlerts returns alerts ordered ALERT, WATCH, STATEMENT, keeping
// source order within each tier.
func SortAlerts(alerts []AlertRecord) []AlertRecord {
	sorted := slices.Clone(alerts)
	slices.SortStableFunc(sorted, func(a, b AlertRecord) int {
		return a.Level.rank() - b.Level.rank()
	})
	return sorted
}

// IsTropicalEvent reports whether an event puts the display in tropical mode.
func IsTropicalEvent(eventUpper string) bool {
	return common.HasAny(eventUpper, "TROPICAL", "HURRICANE")
}

// IsRedmodeEvent reports whether the primary event triggers redmode.
func IsRedmodeEvent(eventUpper string) bool {
	return common.HasAny(eventUpper,
		"HURRICANE WATCH", "HURRICANE WARNING",
		"TORNADO WATCH", "TORNADO WARNING",
	)
}

// IsHeatEvent and IsColdEvent drive the temperature color override.
func IsHeatEvent(eventUpper string) bool {
	return strings.Contains(eventUpper, "HEAT")
}

func IsColdEvent(eventUpper string) bool {
	return common.HasAny(eventUpper, "FREEZE", "FROST", "EXTREME COLD")
}

// AlertFlags derives tropical and redmode from a sorted alert list.
func AlertFlags(sorted []AlertRecord) (tropical, redmode bool) {
	for _, a := range sorted {
		if IsTropicalEvent(a.EventUpper) {
			tropical = true
			break
		}
	}
	if len(sorted) > 0 {
		redmode = IsRedmodeEvent(sorted[0].EventUpper)
	}
	return tropical, redmode
}
