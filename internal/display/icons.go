package display

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed icons.yaml
var defaultIconRules []byte

// IconRule matches when every All word and at least one Any word occur.
type IconRule struct {
	All  []string `yaml:"all"`
	Any  []string `yaml:"any"`
	Icon string   `yaml:"icon"`
}

func (r IconRule) matches(cond string) bool {
	for _, w := range r.All {
		if !strings.Contains(cond, w) {
			return false
		}
	}
	if len(r.Any) == 0 {
		return len(r.All) > 0
	}
	for _, w := range r.Any {
		if strings.Contains(cond, w) {
			return true
		}
	}
	return false
}

// IconRules is the versioned condition-to-icon lookup table.
type IconRules struct {
	Prefix  string `yaml:"prefix"`
	Default string `yaml:"default"`
	Then    struct {
		StormWords      []string `yaml:"storm_words"`
		Day             string   `yaml:"day"`
		NightStormFirst string   `yaml:"night_storm_first"`
		NightStormLater string   `yaml:"night_storm_later"`
	} `yaml:"then"`
	Windy struct {
		Rules   []IconRule `yaml:"rules"`
		Default string     `yaml:"default"`
	} `yaml:"windy"`
	Rules          []IconRule `yaml:"rules"`
	ClearModifiers IconRule   `yaml:"clear_modifiers"`
	PlainClear     string     `yaml:"plain_clear"`
	WindThresholds struct {
		Wind int `yaml:"wind"`
		Gust int `yaml:"gust"`
	} `yaml:"wind_thresholds"`
	WindCompatible []string `yaml:"wind_compatible"`
}

// ParseIconRules decodes a YAML rule table.
func ParseIconRules(data []byte) (*IconRules, error) {
	var r IconRules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("icon rules: %w", err)
	}
	if r.Default == "" {
		return nil, fmt.Errorf("icon rules: no default icon")
	}
	return &r, nil
}

// DefaultIconRules returns the embedded table.
func DefaultIconRules() *IconRules {
	r, err := ParseIconRules(defaultIconRules)
	if err != nil {
		panic(err)
	}
	return r
}

// LoadIconRules reads an override table, or the embedded one when path is empty.
func LoadIconRules(path string) (*IconRules, error) {
	if path == "" {
		return DefaultIconRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("icon rules: %w", err)
	}
	return ParseIconRules(data)
}

// Icon picks the icon path for a condition. Strong wind or gusts swap
// in the wind variant where one exists.
func (r *IconRules) Icon(condition string, night bool, wind, gust int) string {
	cond := strings.ToLower(strings.TrimSpace(condition))

	if icon, ok := r.thenIcon(cond, night); ok {
		return r.finish(icon, night)
	}

	if strings.Contains(cond, "windy") {
		for _, rule := range r.Windy.Rules {
			if rule.matches(cond) {
				return r.finish(rule.Icon, night)
			}
		}
		return r.finish(r.Windy.Default, night)
	}

	icon := ""
	for _, rule := range r.Rules {
		if rule.matches(cond) {
			icon = rule.Icon
			break
		}
	}
	if icon == "" && strings.Contains(cond, "clear") {
		icon = r.PlainClear
		if r.ClearModifiers.matches(cond) {
			icon = r.ClearModifiers.Icon
		}
	}
	if icon == "" {
		icon = r.Default
	}

	icon = fill(icon, night)
	if (r.WindThresholds.Wind > 0 && wind >= r.WindThresholds.Wind) ||
		(r.WindThresholds.Gust > 0 && gust >= r.WindThresholds.Gust) {
		for _, c := range r.WindCompatible {
			if strings.Contains(icon, c) && !strings.Contains(icon, "-wind") {
				icon = strings.TrimSuffix(icon, ".png") + "-wind.png"
				break
			}
		}
	}
	return r.Prefix + icon
}

// TropicalIcon is the icon for a forecast period naming a tropical system.
func (r *IconRules) TropicalIcon(night bool) string {
	return r.finish("weather-storm{day_night}-wind.png", night)
}

// thenIcon handles "X then Y" text where either half has a storm.
func (r *IconRules) thenIcon(cond string, night bool) (string, bool) {
	before, after, found := strings.Cut(cond, "then")
	if !found {
		return "", false
	}
	stormy := func(s string) bool {
		for _, w := range r.Then.StormWords {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
	switch {
	case !night && (stormy(before) || stormy(after)):
		return r.Then.Day, true
	case night && stormy(before):
		return r.Then.NightStormFirst, true
	case night && stormy(after):
		return r.Then.NightStormLater, true
	}
	return "", false
}

func (r *IconRules) finish(icon string, night bool) string {
	return r.Prefix + fill(icon, night)
}

func fill(icon string, night bool) string {
	suffix, dayNight := "", "-day"
	if night {
		suffix, dayNight = "-night", "-night"
	}
	icon = strings.ReplaceAll(icon, "{time_suffix}", suffix)
	return strings.ReplaceAll(icon, "{day_night}", dayNight)
}
