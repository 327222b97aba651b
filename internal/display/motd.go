package display

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed motd.yaml
var defaultMOTD []byte

// DisplayMode is the overall visual mode derived from the alerts.
type DisplayMode int

const (
	ModeNormal DisplayMode = iota
	ModeTropical
	ModeRedmode
)

func (m DisplayMode) String() string {
	switch m {
	case ModeTropical:
		return "tropical"
	case ModeRedmode:
		return "redmode"
	default:
		return "normal"
	}
}

// MOTD holds the loading-screen messages per mode.
type MOTD struct {
	Normal   []string `yaml:"normal"`
	Tropical []string `yaml:"tropical"`
	Redmode  []string `yaml:"redmode"`
}

// ParseMOTD decodes a YAML message table.
func ParseMOTD(data []byte) (*MOTD, error) {
	var m MOTD
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("motd: %w", err)
	}
	return &m, nil
}

// DefaultMOTD returns the embedded table.
func DefaultMOTD() *MOTD {
	m, err := ParseMOTD(defaultMOTD)
	if err != nil {
		panic(err)
	}
	return m
}

// LoadMOTD reads an override table, or the embedded one when path is empty.
func LoadMOTD(path string) (*MOTD, error) {
	if path == "" {
		return DefaultMOTD(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("motd: %w", err)
	}
	return ParseMOTD(data)
}

// Pick returns message roll (mod the list size) for mode, falling back
// to the normal list when the mode has none.
func (m *MOTD) Pick(mode DisplayMode, roll int) string {
	msgs := m.Normal
	switch mode {
	case ModeTropical:
		if len(m.Tropical) > 0 {
			msgs = m.Tropical
		}
	case ModeRedmode:
		if len(m.Redmode) > 0 {
			msgs = m.Redmode
		}
	}
	if len(msgs) == 0 {
		return ""
	}
	if roll < 0 {
		roll = -roll
	}
	return msgs[roll%len(msgs)]
}
