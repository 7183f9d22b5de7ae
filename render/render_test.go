package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"weather/history"
	"weather/manager"
)

var msk = time.FixedZone("MSK", 3*60*60)

func ptr(f float64) *float64 { return &f }

func currentInfo(city, provider string, c manager.Current) manager.Info {
	return manager.Info{
		Location: manager.Location{Name: city},
		Forecast: manager.Forecast{Current: c},
		Provider: provider,
	}
}

func TestCurrent(t *testing.T) {
	v := NewView()
	now := time.Date(2025, 1, 15, 14, 20, 0, 0, time.Local)

	Current(v, currentInfo("Moscow", "open-meteo.com", manager.Current{
		Temperature:         -3.5,
		ApparentTemperature: -8.2,
		Humidity:            86,
		WindSpeed:           14.8,
		WindDirection:       225,
		Pressure:            1012.4,
		CloudCover:          100,
		Precipitation:       0.1,
		WeatherCode:         71,
	}), now)

	text := v.Current.Text()
	for _, want := range []string{
		"Moscow, Wednesday, January 15, 2025",
		"🌨️  -3°C  Slight snow",
		"Humidity     86%",
		"Wind         15 km/h SW",
		"Feels like   -8°C",
		"Visibility   4-10km",
		"Pressure     1012 hPa",
		"Cloud cover  100%",
		"Source       open-meteo.com",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("current view missing %q:\n%s", want, text)
		}
	}
}

func TestCurrentVisibility(t *testing.T) {
	tests := []struct {
		code          int
		precipitation float64
		want          string
	}{
		{45, 0, "Visibility   <1km"},
		{48, 0, "Visibility   <1km"},
		{61, 1.2, "Visibility   4-10km"},
		{0, 0, "Visibility   10+km"},
	}

	for _, tt := range tests {
		v := NewView()
		Current(v, currentInfo("Tver", "", manager.Current{WeatherCode: tt.code, Precipitation: tt.precipitation}), time.Now())
		if strings.Contains(v.Current.Text(), "Source") {
			t.Error("source line shown without a provider")
		}
		if !strings.Contains(v.Current.Text(), tt.want) {
			t.Errorf("code %d precipitation %v: missing %q", tt.code, tt.precipitation, tt.want)
		}
	}
}

func TestHourlyDropsPastEntries(t *testing.T) {
	now := time.Date(2025, 1, 15, 14, 0, 0, 0, msk)

	points := make([]manager.HourlyPoint, 30)
	for i := range points {
		points[i] = manager.HourlyPoint{
			Time:        now.Add(time.Duration(i-2) * time.Hour),
			Temperature: float64(i),
			WeatherCode: 3,
		}
	}
	points[5].PrecipitationProbability = ptr(40)

	v := NewView()
	shown := Hourly(v, points, now)

	// raw entries 0..23; 0 and 1 lie before now
	if shown != 22 {
		t.Fatalf("shown = %d, want 22", shown)
	}

	lines := v.Hourly.Lines()
	if !strings.HasPrefix(lines[0], "14:00") || !strings.Contains(lines[0], "2°") {
		t.Errorf("first row = %q, want raw entry 2 at 14:00", lines[0])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "11:00") {
		t.Errorf("last row = %q, want raw entry 23 at 11:00", lines[len(lines)-1])
	}
	if !strings.Contains(lines[0], "💧 0%") {
		t.Errorf("missing probability should read 0%%: %q", lines[0])
	}
	if !strings.Contains(lines[3], "💧 40%") {
		t.Errorf("row 3 = %q, want 40%%", lines[3])
	}
}

func TestHourlyAllPast(t *testing.T) {
	now := time.Date(2025, 1, 16, 0, 0, 0, 0, msk)
	points := []manager.HourlyPoint{{Time: now.Add(-time.Hour)}, {Time: now.Add(-30 * time.Minute)}}

	v := NewView()
	if shown := Hourly(v, points, now); shown != 0 || len(v.Hourly.Lines()) != 0 {
		t.Fatalf("shown = %d, lines = %v", shown, v.Hourly.Lines())
	}
}

func TestDaily(t *testing.T) {
	now := time.Date(2025, 1, 15, 23, 30, 0, 0, msk)

	points := make([]manager.DailyPoint, 10)
	for i := range points {
		points[i] = manager.DailyPoint{
			Date:           time.Date(2025, 1, 15+i, 0, 0, 0, 0, msk),
			WeatherCode:    61,
			TemperatureMax: 2.5,
			TemperatureMin: -4.5,
		}
	}
	points[1].PrecipitationProbability = ptr(68)

	v := NewView()
	Daily(v, points, now)

	lines := v.Daily.Lines()
	if len(lines) != MaxDailyRows {
		t.Fatalf("rows = %d, want %d", len(lines), MaxDailyRows)
	}
	if !strings.HasPrefix(lines[0], "Today") || !strings.HasPrefix(lines[1], "Tomorrow") {
		t.Errorf("labels = %q / %q", lines[0], lines[1])
	}
	if !strings.HasPrefix(lines[2], "Friday") {
		t.Errorf("day 3 = %q, want Friday", lines[2])
	}
	if !strings.Contains(lines[0], "Slight rain") || !strings.Contains(lines[0], "3°") || !strings.Contains(lines[0], "-4°") {
		t.Errorf("row 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "💧 68%") || !strings.Contains(lines[0], "💧 0%") {
		t.Errorf("probabilities: %q / %q", lines[0], lines[1])
	}
}

func TestDayLabelUsesCalendarDate(t *testing.T) {
	now := time.Date(2025, 1, 15, 23, 59, 0, 0, msk)

	tests := []struct {
		day  time.Time
		want string
	}{
		{time.Date(2025, 1, 15, 0, 0, 0, 0, msk), "Today"},
		// less than an hour away but a different date
		{time.Date(2025, 1, 16, 0, 0, 0, 0, msk), "Tomorrow"},
		{time.Date(2025, 1, 17, 0, 0, 0, 0, msk), "Friday"},
		{time.Date(2025, 1, 14, 0, 0, 0, 0, msk), "Tuesday"},
	}
	for _, tt := range tests {
		if got := DayLabel(tt.day, now); got != tt.want {
			t.Errorf("DayLabel(%s) = %q, want %q", tt.day.Format("2006-01-02"), got, tt.want)
		}
	}

	// same instant, but it is already the 16th in Moscow
	utcNow := time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC)
	if got := DayLabel(time.Date(2025, 1, 16, 0, 0, 0, 0, msk), utcNow); got != "Today" {
		t.Errorf("DayLabel across zones = %q, want Today", got)
	}
}

func TestHistory(t *testing.T) {
	v := NewView()

	History(v, nil)
	if v.History.Text() != EmptyHistoryText {
		t.Errorf("empty history = %q", v.History.Text())
	}

	at := time.Date(2025, 3, 9, 8, 15, 0, 0, time.UTC)
	History(v, []history.Entry{
		history.NewEntry("Kazan", 55.79, 49.12, 4.5, 2, at),
		history.NewEntry("Perm", 58.01, 56.25, -10.6, 73, at.Add(-time.Hour)),
	})

	lines := v.History.Lines()
	if len(lines) != 2 {
		t.Fatalf("rows = %v", lines)
	}
	wantDate := at.Local().Format("2 Jan 15:04")
	if !strings.HasPrefix(lines[0], " 1. "+wantDate) || !strings.Contains(lines[0], "⛅ Kazan  5°C") {
		t.Errorf("row 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "🌨️ Perm  -11°C") {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func TestUnknownCodeEverywhere(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, msk)
	v := NewView()

	Current(v, currentInfo("X", "", manager.Current{WeatherCode: 999}), now)
	Hourly(v, []manager.HourlyPoint{{Time: now, WeatherCode: 999}}, now)
	Daily(v, []manager.DailyPoint{{Date: now, WeatherCode: 999}}, now)
	History(v, []history.Entry{history.NewEntry("X", 0, 0, 0, 999, now)})

	for name, r := range map[string]*Region{"current": v.Current, "hourly": v.Hourly, "daily": v.Daily, "history": v.History} {
		if !strings.Contains(r.Text(), "❓") {
			t.Errorf("%s view lacks unknown icon: %q", name, r.Text())
		}
	}
	if !strings.Contains(v.Current.Text(), "Unknown") || !strings.Contains(v.Daily.Text(), "Unknown") {
		t.Error("unknown description missing")
	}
}

func TestSuggestions(t *testing.T) {
	v := NewView()

	Suggestions(v, []manager.Location{
		{Name: "Москва", Country: "Россия", Region: "Москва"},
		{Name: "Moscow", Country: "United States", Region: "Idaho"},
	})
	if !v.Suggestions.Visible() {
		t.Fatal("suggestions hidden")
	}
	if got := v.Suggestions.Lines(); got[0] != "1. Москва, Россия Москва" || got[1] != "2. Moscow, United States Idaho" {
		t.Errorf("lines = %q", got)
	}

	Suggestions(v, nil)
	if v.Suggestions.Visible() || len(v.Suggestions.Lines()) != 0 {
		t.Fatal("empty suggestions should hide the list")
	}
}

func TestActiveTab(t *testing.T) {
	v := NewView()

	for _, tab := range Tabs {
		ActiveTab(v, tab)

		visible := 0
		for _, r := range []*Region{v.Hourly, v.Daily, v.History} {
			if r.Visible() {
				visible++
			}
		}
		if visible != 1 {
			t.Fatalf("tab %s: %d regions visible", tab, visible)
		}
		if !strings.Contains(v.Tabs.Text(), "["+tabLabels[tab]+"]") {
			t.Errorf("tab bar %q does not mark %s", v.Tabs.Text(), tab)
		}
	}

	ActiveTab(v, TabDaily)
	if !v.Daily.Visible() || v.Hourly.Visible() || v.History.Visible() {
		t.Error("daily tab should show only the daily region")
	}

	if _, ok := ParseTab("weekly"); ok {
		t.Error("ParseTab accepted unknown tab")
	}
	if tab, ok := ParseTab("history"); !ok || tab != TabHistory {
		t.Error("ParseTab(history) failed")
	}
}

func TestLoadingAndError(t *testing.T) {
	v := NewView()

	Error(v, "boom")
	Loading(v, true)
	if !v.Loading.Visible() || v.Error.Visible() {
		t.Fatal("loading should hide a previous error")
	}

	Error(v, "Failed to load weather data. Please try again.")
	if v.Loading.Visible() || !v.Error.Visible() {
		t.Fatal("error should replace loading")
	}

	Loading(v, false)
	if v.Loading.Visible() || !v.Error.Visible() {
		t.Fatal("the error stays until the next load starts")
	}
}

func TestDraw(t *testing.T) {
	v := NewView()
	buf := &bytes.Buffer{}

	if err := v.Draw(buf); err != nil || buf.Len() != 0 {
		t.Fatalf("initial Draw wrote %q, %v", buf.String(), err)
	}

	History(v, nil)
	ActiveTab(v, TabHistory)
	if err := v.Draw(buf); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "[History]") || !strings.Contains(out, EmptyHistoryText) {
		t.Errorf("Draw output:\n%s", out)
	}
	if strings.Contains(out, "Hourly forecast") {
		t.Error("hidden region drawn")
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors drawn while disabled")
	}

	buf.Reset()
	if err := v.Draw(buf); err != nil || buf.Len() != 0 {
		t.Fatalf("unchanged view redrawn: %q", buf.String())
	}

	v.Color = true
	v.SetTheme(ThemeDark)
	if err := v.Draw(buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), colorCyan+"History") {
		t.Errorf("dark theme title color missing: %q", buf.String())
	}
}

func TestTheme(t *testing.T) {
	if ParseTheme("dark") != ThemeDark || ParseTheme("light") != ThemeLight || ParseTheme("neon") != ThemeLight {
		t.Error("ParseTheme")
	}
	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Error("Toggle")
	}
}

func TestRound(t *testing.T) {
	tests := map[float64]int{2.5: 3, -2.5: -2, -2.6: -3, 0.49: 0, -0.4: 0}
	for in, want := range tests {
		if got := round(in); got != want {
			t.Errorf("round(%v) = %d, want %d", in, got, want)
		}
	}
}
