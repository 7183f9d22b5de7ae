// Package weathercode maps WMO weather interpretation codes, as returned by
// Open-Meteo, to a short description and an icon.
package weathercode

import "math"

type Condition struct {
	Description string
	Icon        string
}

var Unknown = Condition{Description: "Unknown", Icon: "❓"}

var conditions = map[int]Condition{
	0:  {"Clear sky", "☀️"},
	1:  {"Mainly clear", "🌤️"},
	2:  {"Partly cloudy", "⛅"},
	3:  {"Overcast", "☁️"},
	45: {"Fog", "🌫️"},
	48: {"Depositing rime fog", "🌫️"},
	51: {"Light drizzle", "🌦️"},
	53: {"Moderate drizzle", "🌦️"},
	55: {"Dense drizzle", "🌦️"},
	61: {"Slight rain", "🌧️"},
	63: {"Moderate rain", "🌧️"},
	65: {"Heavy rain", "🌧️"},
	71: {"Slight snow", "🌨️"},
	73: {"Moderate snow", "🌨️"},
	75: {"Heavy snow", "🌨️"},
	77: {"Snow grains", "❄️"},
	80: {"Slight rain showers", "🌦️"},
	81: {"Moderate rain showers", "🌦️"},
	82: {"Violent rain showers", "⛈️"},
	85: {"Slight snow showers", "🌨️"},
	86: {"Heavy snow showers", "🌨️"},
	95: {"Thunderstorm", "⛈️"},
	96: {"Thunderstorm with hail", "⛈️"},
	99: {"Severe thunderstorm with hail", "⛈️"},
}

func Lookup(code int) Condition {
	if c, ok := conditions[code]; ok {
		return c
	}

	return Unknown
}

// Visibility buckets.
const (
	VisibilityPoor     = "<1km"
	VisibilityModerate = "4-10km"
	VisibilityGood     = "10+km"
)

// Visibility estimates a visibility bucket from the condition code and the
// current precipitation. It is a display heuristic, not a measurement.
func Visibility(code int, precipitation float64) string {
	switch {
	case code >= 45 && code <= 48:
		return VisibilityPoor
	case precipitation > 0:
		return VisibilityModerate
	default:
		return VisibilityGood
	}
}

var directions = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirection converts meteorological degrees to an 8-point compass label.
func WindDirection(degrees float64) string {
	i := int(math.Round(degrees/45)) % len(directions)
	if i < 0 {
		i += len(directions)
	}

	return directions[i]
}
