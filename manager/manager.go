package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNotFound = errors.New("not found")

// PlaceholderName is used when coordinates cannot be resolved to a place.
const PlaceholderName = "Current location"

func New(geocoding Geocoding, weather Weather, log *slog.Logger) *Manager {
	return &Manager{
		geocoding: geocoding,
		weather:   weather,
		log:       log,
		provider:  "open-meteo.com",
	}
}

type Manager struct {
	geocoding Geocoding
	weather   Weather
	log       *slog.Logger
	provider  string
}

// Suggest returns candidate locations for a partial query. Short queries and
// empty result sets both yield an empty slice.
func (m *Manager) Suggest(ctx context.Context, query string) ([]Location, error) {
	return m.geocoding.Search(ctx, query)
}

// Resolve returns the best match for a city name.
func (m *Manager) Resolve(ctx context.Context, name string) (Location, error) {
	locations, err := m.geocoding.Search(ctx, name)
	if err != nil {
		return Location{}, fmt.Errorf("search %q: %w", name, err)
	}

	if len(locations) == 0 {
		return Location{}, fmt.Errorf("search %q: %w", name, ErrNotFound)
	}

	return locations[0], nil
}

// Lookup fetches the forecast for a location. A location without a name is
// reverse geocoded first; failing that it gets PlaceholderName and the
// forecast is fetched anyway.
func (m *Manager) Lookup(ctx context.Context, location Location) (Info, error) {
	if location.Name == "" {
		place, err := m.geocoding.Reverse(ctx, location.Latitude, location.Longitude)
		switch {
		case err == nil && place.Name != "":
			location.Name = place.Name
			location.Country = place.Country
			location.Region = place.Region
		case err != nil && !errors.Is(err, ErrNotFound):
			m.log.Warn("reverse geocoding failed",
				"lat", location.Latitude, "lon", location.Longitude, "err", err)
			fallthrough
		default:
			location.Name = PlaceholderName
		}
	}

	forecast, err := m.weather.Get(ctx, location)
	if err != nil {
		return Info{}, fmt.Errorf("forecast for %s: %w", location.Name, err)
	}

	return Info{Location: location, Forecast: forecast, Provider: m.provider}, nil
}
