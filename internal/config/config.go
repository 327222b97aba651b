package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	GeocoderNominatim = "nominatim"
	GeocoderGoogle    = "google"
)

type AppConfig struct {
	// Zip overrides the persisted last_zip when set.
	Zip string `validate:"omitempty,numeric,len=5"`

	// RefreshInterval controls how often the display data is rebuilt.
	RefreshInterval time.Duration `validate:"gt=0"`
	// RefreshStartDelay holds off the first refresh after the initial load.
	RefreshStartDelay time.Duration `validate:"gte=0"`
	// WorkerJoinTimeout bounds the wait for an in-flight refresh at shutdown.
	WorkerJoinTimeout time.Duration `validate:"gt=0"`

	HTTPTimeout  time.Duration `validate:"gt=0"`
	RadarTimeout time.Duration `validate:"gt=0"`
	UserAgent    string        `validate:"required"`

	Geocoder     string `validate:"oneof=nominatim google"`
	GoogleAPIKey string `validate:"required_if=Geocoder google"`

	DisplayConfigFile string `validate:"required"`
	LogDir            string `validate:"required"`
	AssetDir          string `validate:"required"`
	IconRulesFile     string
	Headless          bool

	// In-memory store retention.
	StoreMaxHistory int           `validate:"gte=0"` // max summaries per location (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0"` // max age of summaries (0 = unlimited)

	// Port for the status API; empty disables it.
	Port     string `validate:"omitempty,numeric"`
	LogLevel string `validate:"oneof=trace debug info warn error"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file found or error loading it")
	}
	cfg := &AppConfig{}

	var err error
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "500s"); err != nil {
		return nil, err
	}
	if cfg.RefreshStartDelay, err = getenvDuration("REFRESH_START_DELAY", "5m"); err != nil {
		return nil, err
	}
	if cfg.WorkerJoinTimeout, err = getenvDuration("WORKER_JOIN_TIMEOUT", "2s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.RadarTimeout, err = getenvDuration("RADAR_TIMEOUT", "240s"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.Zip = strings.TrimSpace(os.Getenv("WEATHER_ZIP"))
	cfg.UserAgent = getenvDefault("NWS_USER_AGENT", "WeatherDisplay/1.0")
	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", GeocoderNominatim))
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	cfg.DisplayConfigFile = getenvDefault("DISPLAY_CONFIG_FILE", "config.json")
	cfg.LogDir = getenvDefault("LOG_DIR", "log")
	cfg.AssetDir = getenvDefault("ASSET_DIR", ".")
	cfg.IconRulesFile = os.Getenv("ICON_RULES_FILE")
	cfg.Headless = getenvBool("HEADLESS", false)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 13h at the default interval
	cfg.Port = os.Getenv("PORT")
	if _, set := os.LookupEnv("PORT"); !set {
		cfg.Port = "8080"
	}
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
