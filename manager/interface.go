package manager

import (
	"context"
	"time"
)

type Weather interface {
	Get(ctx context.Context, location Location) (Forecast, error)
}

type Geocoding interface {
	Search(ctx context.Context, query string) ([]Location, error)
	Reverse(ctx context.Context, latitude, longitude float64) (Location, error)
}

type Info struct {
	Location Location
	Forecast Forecast
	Provider string
}

type Location struct {
	Name      string
	Country   string
	Region    string
	Latitude  float64
	Longitude float64
}

// Label is the one-line form used in suggestion lists.
func (l Location) Label() string {
	label := l.Name
	if l.Country != "" {
		label += ", " + l.Country
	}
	if l.Region != "" {
		label += " " + l.Region
	}

	return label
}

type Forecast struct {
	Timezone string
	Current  Current
	Hourly   []HourlyPoint
	Daily    []DailyPoint
}

type Current struct {
	Time                time.Time
	Temperature         float64
	ApparentTemperature float64
	Humidity            float64
	Precipitation       float64
	Rain                float64
	Showers             float64
	Snowfall            float64
	WeatherCode         int
	CloudCover          float64
	Pressure            float64
	WindSpeed           float64
	WindDirection       float64
}

type HourlyPoint struct {
	Time                     time.Time
	Temperature              float64
	Humidity                 float64
	PrecipitationProbability *float64
	Precipitation            float64
	WeatherCode              int
	WindSpeed                float64
}

type DailyPoint struct {
	Date                     time.Time
	WeatherCode              int
	TemperatureMax           float64
	TemperatureMin           float64
	PrecipitationSum         float64
	PrecipitationProbability *float64
	WindSpeedMax             float64
}
