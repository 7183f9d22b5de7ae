// Package render projects forecasts and history onto the regions of a View.
// Every function replaces the whole content of the regions it owns.
package render

import (
	"fmt"
	"math"
	"time"

	"weather/history"
	"weather/manager"
	"weather/weathercode"
)

const (
	MaxHourlyRows = 24
	MaxDailyRows  = 7
)

const (
	LoadingText      = "Loading weather data..."
	EmptyHistoryText = "No weather history yet"
)

type Tab string

const (
	TabHourly  Tab = "hourly"
	TabDaily   Tab = "daily"
	TabHistory Tab = "history"
)

var Tabs = []Tab{TabHourly, TabDaily, TabHistory}

var tabLabels = map[Tab]string{
	TabHourly:  "Hourly",
	TabDaily:   "7 days",
	TabHistory: "History",
}

func ParseTab(s string) (Tab, bool) {
	t := Tab(s)
	_, ok := tabLabels[t]
	return t, ok
}

// Current renders the current conditions of info. The date shown is now in
// the local zone.
func Current(v *View, info manager.Info, now time.Time) {
	c := info.Forecast.Current
	cond := weathercode.Lookup(c.WeatherCode)

	lines := []string{
		fmt.Sprintf("%s, %s", info.Location.Name, now.Local().Format("Monday, January 2, 2006")),
		fmt.Sprintf("%s  %d°C  %s", cond.Icon, round(c.Temperature), cond.Description),
		fmt.Sprintf("Humidity     %.0f%%", c.Humidity),
		fmt.Sprintf("Wind         %d km/h %s", round(c.WindSpeed), weathercode.WindDirection(c.WindDirection)),
		fmt.Sprintf("Feels like   %d°C", round(c.ApparentTemperature)),
		fmt.Sprintf("Visibility   %s", weathercode.Visibility(c.WeatherCode, c.Precipitation)),
		fmt.Sprintf("Pressure     %d hPa", round(c.Pressure)),
		fmt.Sprintf("Cloud cover  %.0f%%", c.CloudCover),
	}
	if info.Provider != "" {
		lines = append(lines, "Source       "+info.Provider)
	}

	v.Current.Replace(lines...)
}

// Hourly renders the first MaxHourlyRows points, skipping those before now.
// It returns the number of rows shown.
func Hourly(v *View, points []manager.HourlyPoint, now time.Time) int {
	if len(points) > MaxHourlyRows {
		points = points[:MaxHourlyRows]
	}

	lines := make([]string, 0, len(points))
	for _, p := range points {
		if p.Time.Before(now) {
			continue
		}

		cond := weathercode.Lookup(p.WeatherCode)
		lines = append(lines, fmt.Sprintf("%s  %s  %4d°  💧 %d%%",
			p.Time.Format("15:04"), cond.Icon, round(p.Temperature), probability(p.PrecipitationProbability)))
	}

	v.Hourly.Replace(lines...)
	return len(lines)
}

func Daily(v *View, points []manager.DailyPoint, now time.Time) {
	if len(points) > MaxDailyRows {
		points = points[:MaxDailyRows]
	}

	lines := make([]string, 0, len(points))
	for _, p := range points {
		cond := weathercode.Lookup(p.WeatherCode)
		lines = append(lines, fmt.Sprintf("%-10s %s %-24s %4d° %4d°  💧 %d%%",
			DayLabel(p.Date, now), cond.Icon, cond.Description,
			round(p.TemperatureMax), round(p.TemperatureMin), probability(p.PrecipitationProbability)))
	}

	v.Daily.Replace(lines...)
}

// DayLabel names day relative to now by calendar date in day's zone.
func DayLabel(day, now time.Time) string {
	today := now.In(day.Location())
	tomorrow := today.AddDate(0, 0, 1)

	switch {
	case sameDate(day, today):
		return "Today"
	case sameDate(day, tomorrow):
		return "Tomorrow"
	default:
		return day.Weekday().String()
	}
}

// History renders entries as numbered rows, or a placeholder when there are
// none.
func History(v *View, entries []history.Entry) {
	if len(entries) == 0 {
		v.History.Replace(EmptyHistoryText)
		return
	}

	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		date := e.Timestamp
		if t, err := e.Time(); err == nil {
			date = t.Local().Format("2 Jan 15:04")
		}

		cond := weathercode.Lookup(e.WeatherCode)
		lines = append(lines, fmt.Sprintf("%2d. %-12s %s %s  %d°C", i+1, date, cond.Icon, e.City, round(e.Temperature)))
	}

	v.History.Replace(lines...)
}

// Suggestions lists candidate locations; an empty list hides the region.
func Suggestions(v *View, locations []manager.Location) {
	if len(locations) == 0 {
		v.Suggestions.Replace()
		v.Suggestions.Hide()
		return
	}

	lines := make([]string, 0, len(locations))
	for i, l := range locations {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, l.Label()))
	}

	v.Suggestions.Replace(lines...)
	v.Suggestions.Show()
}

// ActiveTab marks active in the tab bar and shows only its region.
func ActiveTab(v *View, active Tab) {
	bar := ""
	for i, t := range Tabs {
		if i > 0 {
			bar += "  "
		}
		if t == active {
			bar += "[" + tabLabels[t] + "]"
		} else {
			bar += " " + tabLabels[t] + " "
		}
	}
	v.Tabs.Replace(bar)
	v.Tabs.Show()

	v.Hourly.SetVisible(active == TabHourly)
	v.Daily.SetVisible(active == TabDaily)
	v.History.SetVisible(active == TabHistory)
}

func Loading(v *View, loading bool) {
	if loading {
		v.Loading.Replace(LoadingText)
		v.Loading.Show()
		v.Error.Hide()
		return
	}

	v.Loading.Hide()
}

func Error(v *View, message string) {
	v.Error.Replace(message)
	v.Error.Show()
	v.Loading.Hide()
}

// round rounds to the nearest integer with halves going up (-2.5 -> -2).
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func probability(p *float64) int {
	if p == nil {
		return 0
	}

	return round(*p)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
