package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// DisplayConfig is the window and location state persisted between runs.
type DisplayConfig struct {
	LastWidth    int     `json:"last_width" validate:"gte=320,lte=7680"`
	LastHeight   int     `json:"last_height" validate:"gte=240,lte=4320"`
	LastZip      string  `json:"last_zip" validate:"omitempty,numeric,len=5"`
	Quality      float64 `json:"quality" validate:"gt=0,lte=1"`
	ShowFPS      bool    `json:"show_fps"`
	DisableVSync bool    `json:"disable_vsync"`
}

// DefaultDisplay returns the settings used when nothing valid is on disk.
func DefaultDisplay() DisplayConfig {
	return DisplayConfig{
		LastWidth:  1280,
		LastHeight: 720,
		Quality:    1.0,
	}
}

// LoadDisplay reads the persisted display config. It never fails: a
// missing or unreadable file yields defaults, and an invalid field falls
// back to its default.
func LoadDisplay(path string) DisplayConfig {
	def := DefaultDisplay()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("could not read display config; using defaults")
		}
		return def
	}

	cfg := def
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("corrupt display config; using defaults")
		return def
	}
	// Absent keys keep their default instead of the zero value.
	if cfg.Quality == 0 {
		cfg.Quality = def.Quality
	}

	var invalid validator.ValidationErrors
	if err := validator.New().Struct(cfg); errors.As(err, &invalid) {
		for _, fe := range invalid {
			log.Warn().Str("field", fe.Field()).Interface("value", fe.Value()).Msg("display config value out of range; using default")
			switch fe.StructField() {
			case "LastWidth":
				cfg.LastWidth = def.LastWidth
			case "LastHeight":
				cfg.LastHeight = def.LastHeight
			case "LastZip":
				cfg.LastZip = def.LastZip
			case "Quality":
				cfg.Quality = def.Quality
			}
		}
	}
	return cfg
}

// SaveDisplay writes cfg as indented JSON via a temp file and rename.
func SaveDisplay(path string, cfg DisplayConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode display config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".display-*.json")
	if err != nil {
		return fmt.Errorf("save display config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("save display config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save display config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save display config: %w", err)
	}
	return nil
}
