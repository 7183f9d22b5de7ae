package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Geocoding   Geocoding   `yaml:"geocoding"`
	Weather     Weather     `yaml:"weather"`
	Geolocation Geolocation `yaml:"geolocation"`
	App         App         `yaml:"app"`
	Storage     Storage     `yaml:"storage"`
	Log         Log         `yaml:"log"`
}

type Geocoding struct {
	URL       string        `yaml:"url"`
	Language  string        `yaml:"language"`
	Count     int           `yaml:"count"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rateLimit"`
	Burst     int           `yaml:"burst"`
}

type Weather struct {
	URL      string        `yaml:"url"`
	Timezone string        `yaml:"timezone"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Geolocation configures how the device position is determined. When both
// Latitude and Longitude are set the position is fixed and no lookup is made.
type Geolocation struct {
	Enabled   bool          `yaml:"enabled"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	Latitude  *float64      `yaml:"latitude"`
	Longitude *float64      `yaml:"longitude"`
}

type App struct {
	DefaultCity string        `yaml:"defaultCity"`
	Debounce    time.Duration `yaml:"debounce"`
	MaxHistory  int           `yaml:"maxHistory"`
	HistoryDays int           `yaml:"historyDays"`
}

type Storage struct {
	Path string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Load builds the configuration from the embedded defaults, an optional YAML
// file at path and finally WEATHER_* environment variables (a .env file in the
// working directory is honoured).
func Load(defaults []byte, path string) (Config, error) {
	var cfg Config

	if err := yaml.Unmarshal(defaults, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse defaults: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		if err = yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if cfg.Storage.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.Storage.Path = filepath.Join(dir, "weather", "state.db")
	}

	return cfg, cfg.validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"WEATHER_GEOCODING_URL":   &c.Geocoding.URL,
		"WEATHER_LANGUAGE":        &c.Geocoding.Language,
		"WEATHER_FORECAST_URL":    &c.Weather.URL,
		"WEATHER_TIMEZONE":        &c.Weather.Timezone,
		"WEATHER_GEOLOCATION_URL": &c.Geolocation.URL,
		"WEATHER_DEFAULT_CITY":    &c.App.DefaultCity,
		"WEATHER_DB":              &c.Storage.Path,
		"WEATHER_LOG_LEVEL":       &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("WEATHER_GEOLOCATION"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WEATHER_GEOLOCATION: %w", err)
		}
		c.Geolocation.Enabled = enabled
	}

	if v, ok := lookup("WEATHER_DEBOUNCE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WEATHER_DEBOUNCE: %w", err)
		}
		c.App.Debounce = d
	}

	return nil
}

func (c Config) validate() error {
	switch {
	case c.Geocoding.URL == "":
		return errors.New("geocoding url is empty")
	case c.Weather.URL == "":
		return errors.New("weather url is empty")
	case c.App.MaxHistory <= 0:
		return fmt.Errorf("maxHistory must be positive, got %d", c.App.MaxHistory)
	case c.App.Debounce < 0:
		return fmt.Errorf("debounce must not be negative, got %s", c.App.Debounce)
	case (c.Geolocation.Latitude == nil) != (c.Geolocation.Longitude == nil):
		return errors.New("geolocation latitude and longitude must be set together")
	}

	return nil
}

// SlogLevel maps the configured log level to slog; unknown values mean warn.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
