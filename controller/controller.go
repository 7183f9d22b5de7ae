// Package controller turns user actions into lookups and keeps the view in
// sync with the results.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"weather/apis/geolocation"
	"weather/debounce"
	"weather/history"
	"weather/manager"
	"weather/render"
	"weather/storage"
)

// ThemeKey is the storage key of the active theme name.
const ThemeKey = "weather_theme"

const DefaultDebounce = 300 * time.Millisecond

// Messages shown to the user.
const (
	MsgFetchFailed     = "Failed to load weather data. Please try again."
	MsgLocationDenied  = "You denied the location request"
	MsgLocationMissing = "Location information is unavailable"
	MsgLocationTimeout = "The location request timed out"
	MsgLocationFailed  = "Unable to get your location"
)

var ErrNoSuchItem = errors.New("no such item")

// Forecaster is the lookup side of the controller, implemented by
// *manager.Manager.
type Forecaster interface {
	Suggest(ctx context.Context, query string) ([]manager.Location, error)
	Resolve(ctx context.Context, name string) (manager.Location, error)
	Lookup(ctx context.Context, location manager.Location) (manager.Info, error)
}

type Options struct {
	Forecaster  Forecaster
	Locator     geolocation.Locator
	History     *history.Store
	Settings    storage.KV
	View        *render.View
	Confirmer   history.Confirmer
	Out         io.Writer
	Debounce    time.Duration
	DefaultCity string
	HistoryDays int
	Log         *slog.Logger
	Now         func() time.Time
}

// State is everything the controller knows about the session.
type State struct {
	Location    *manager.Location
	Info        *manager.Info
	Query       string
	Suggestions []manager.Location
	Tab         render.Tab
	Loading     bool
	Error       string
	// Notice is shown in the error region without the lookup having failed.
	Notice      string
	Theme       render.Theme
	HistoryRows []history.Entry
}

type Controller struct {
	forecaster  Forecaster
	locator     geolocation.Locator
	history     *history.Store
	settings    storage.KV
	view        *render.View
	confirmer   history.Confirmer
	out         io.Writer
	defaultCity string
	historyDays int
	log         *slog.Logger
	now         func() time.Time

	state     State
	notice    string
	debouncer *debounce.Debouncer

	ctx     context.Context
	events  chan event
	done    chan struct{}
	pending *tracker
}

// New builds a controller. Run must be running before any action method is
// called.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.View == nil {
		opts.View = render.NewView()
	}

	c := &Controller{
		forecaster:  opts.Forecaster,
		locator:     opts.Locator,
		history:     opts.History,
		settings:    opts.Settings,
		view:        opts.View,
		confirmer:   opts.Confirmer,
		out:         opts.Out,
		defaultCity: opts.DefaultCity,
		historyDays: opts.HistoryDays,
		log:         opts.Log,
		now:         opts.Now,
		state:       State{Tab: render.TabHourly, Theme: render.ThemeLight},
		debouncer:   debounce.New(opts.Debounce),
		ctx:         context.Background(),
		events:      make(chan event),
		done:        make(chan struct{}),
		pending:     newTracker(),
	}

	c.history.OnChange(func([]history.Entry) { c.renderHistory() })

	return c
}

// LocationMessage maps a geolocation failure to the text shown to the user.
func LocationMessage(err error) string {
	switch {
	case errors.Is(err, geolocation.ErrDenied):
		return MsgLocationDenied
	case errors.Is(err, geolocation.ErrUnavailable):
		return MsgLocationMissing
	case errors.Is(err, geolocation.ErrTimeout):
		return MsgLocationTimeout
	default:
		return MsgLocationFailed
	}
}

// State returns a snapshot of the session state.
func (c *Controller) State() State {
	var s State
	c.dispatch(func() { s = c.state })
	return s
}

// Start restores the theme and history, then shows the weather for the
// device position or, failing that, for the default city.
func (c *Controller) Start() {
	c.dispatch(func() {
		c.restore()
		c.locate(true)
	})
}

// StartCity is Start for a named city; the device position is not used.
func (c *Controller) StartCity(name string) {
	c.dispatch(func() {
		c.restore()
		c.state.Query = name
		c.loadCity(name)
	})
}

// Input records the text typed so far and searches for it once typing has
// paused.
func (c *Controller) Input(text string) {
	c.dispatch(func() {
		c.state.Query = text
		c.cancelPendingSearch()

		c.pending.add()
		c.debouncer.Call(func() {
			c.post(event{fn: func() { c.search(text) }})
			c.pending.done()
		})
	})
}

// Submit searches for the current query right away. Blank queries are
// ignored.
func (c *Controller) Submit() {
	c.dispatch(c.submit)
}

// Search replaces the query with text and submits it.
func (c *Controller) Search(text string) {
	c.dispatch(func() {
		c.state.Query = text
		c.submit()
	})
}

// Select commits to the i-th suggestion and fetches its weather.
func (c *Controller) Select(i int) error {
	var err error

	c.dispatch(func() {
		if i < 0 || i >= len(c.state.Suggestions) {
			err = fmt.Errorf("suggestion %d: %w", i+1, ErrNoSuchItem)
			return
		}

		location := c.state.Suggestions[i]
		c.state.Query = location.Name
		c.hideSuggestions()
		c.fetch(location)
	})

	return err
}

// Dismiss hides the suggestion list.
func (c *Controller) Dismiss() {
	c.dispatch(c.hideSuggestions)
}

// Locate shows the weather at the device position.
func (c *Controller) Locate() {
	c.dispatch(func() { c.locate(false) })
}

// SwitchTab changes which forecast region is visible. Nothing is fetched.
func (c *Controller) SwitchTab(tab render.Tab) {
	c.dispatch(func() {
		c.state.Tab = tab
		render.ActiveTab(c.view, tab)
	})
}

// OpenHistory fetches the weather again for the i-th shown history row.
func (c *Controller) OpenHistory(i int) error {
	var err error

	c.dispatch(func() {
		if i < 0 || i >= len(c.state.HistoryRows) {
			err = fmt.Errorf("history row %d: %w", i+1, ErrNoSuchItem)
			return
		}

		e := c.state.HistoryRows[i]
		c.fetch(manager.Location{Name: e.City, Latitude: e.Latitude, Longitude: e.Longitude})
	})

	return err
}

// ClearHistory empties the history after the user confirms.
func (c *Controller) ClearHistory() (bool, error) {
	var (
		cleared bool
		err     error
	)

	c.dispatch(func() {
		cleared, err = c.history.Clear(c.ctx, c.confirmer)
	})

	return cleared, err
}

// ToggleTheme switches between the light and dark theme and remembers the
// choice.
func (c *Controller) ToggleTheme() render.Theme {
	var theme render.Theme

	c.dispatch(func() {
		theme = c.state.Theme.Toggle()
		c.state.Theme = theme
		c.view.SetTheme(theme)

		if err := c.settings.Set(c.ctx, ThemeKey, string(theme)); err != nil {
			c.log.Error("save theme", "err", err)
		}
	})

	return theme
}

func (c *Controller) restore() {
	theme, ok, err := c.settings.Get(c.ctx, ThemeKey)
	if err != nil {
		c.log.Error("load theme", "err", err)
	}
	if ok {
		c.state.Theme = render.ParseTheme(theme)
	}
	c.view.SetTheme(c.state.Theme)

	c.history.Load(c.ctx)
	c.renderHistory()
	render.ActiveTab(c.view, c.state.Tab)
}

func (c *Controller) submit() {
	query := strings.TrimSpace(c.state.Query)
	if query == "" {
		return
	}

	c.cancelPendingSearch()
	c.search(query)
}

func (c *Controller) cancelPendingSearch() {
	if c.debouncer.Cancel() {
		c.pending.done()
	}
}

func (c *Controller) search(query string) {
	c.async(func(ctx context.Context) func() {
		locations, err := c.forecaster.Suggest(ctx, query)

		return func() {
			if err != nil {
				c.log.Warn("city search failed", "query", query, "err", err)
				locations = nil
			}

			c.state.Suggestions = locations
			render.Suggestions(c.view, locations)
		}
	})
}

func (c *Controller) hideSuggestions() {
	c.state.Suggestions = nil
	render.Suggestions(c.view, nil)
}

// locate asks for the device position. With fallback set, a failure loads
// the default city instead of reporting the error.
func (c *Controller) locate(fallback bool) {
	c.setLoading(true)

	c.async(func(ctx context.Context) func() {
		pos, err := c.locator.Locate(ctx)

		return func() {
			if err != nil {
				c.log.Warn("geolocation failed", "err", err, "message", LocationMessage(err))
				if fallback && c.defaultCity != "" {
					c.notice = LocationMessage(err)
					c.loadCity(c.defaultCity)
					return
				}
				c.fail(LocationMessage(err))
				return
			}

			c.fetch(manager.Location{Latitude: pos.Latitude, Longitude: pos.Longitude})
		}
	})
}

func (c *Controller) loadCity(name string) {
	c.setLoading(true)

	c.async(func(ctx context.Context) func() {
		location, err := c.forecaster.Resolve(ctx, name)

		return func() {
			if err != nil {
				c.log.Error("resolve city", "city", name, "err", err)
				c.fail(MsgFetchFailed)
				return
			}

			c.fetch(location)
		}
	})
}

// fetch loads and renders the forecast for location and records it in the
// history. Overlapping fetches are not cancelled; the last to finish wins.
func (c *Controller) fetch(location manager.Location) {
	c.setLoading(true)

	c.async(func(ctx context.Context) func() {
		info, err := c.forecaster.Lookup(ctx, location)

		return func() {
			if err != nil {
				c.log.Error("weather fetch failed", "location", location.Name, "err", err)
				c.fail(MsgFetchFailed)
				return
			}

			now := c.now()
			current := info.Forecast.Current

			c.state.Location = &info.Location
			c.state.Info = &info

			render.Current(c.view, info, now)
			render.Hourly(c.view, info.Forecast.Hourly, now)
			render.Daily(c.view, info.Forecast.Daily, now)

			entry := history.NewEntry(info.Location.Name, info.Location.Latitude, info.Location.Longitude,
				current.Temperature, current.WeatherCode, now)
			if err := c.history.Record(c.ctx, entry); err != nil {
				c.log.Error("record history", "err", err)
			}

			c.view.Current.Show()
			render.ActiveTab(c.view, c.state.Tab)
			c.setLoading(false)
			c.showNotice()
		}
	})
}

func (c *Controller) renderHistory() {
	c.state.HistoryRows = c.history.Recent(c.historyDays)
	render.History(c.view, c.state.HistoryRows)
}

func (c *Controller) setLoading(loading bool) {
	c.state.Loading = loading
	if loading {
		c.state.Error = ""
		c.state.Notice = ""
	}
	render.Loading(c.view, loading)
}

// showNotice displays the message held back while a fallback lookup ran.
func (c *Controller) showNotice() {
	if c.notice == "" {
		return
	}

	c.state.Notice = c.notice
	c.notice = ""
	render.Error(c.view, c.state.Notice)
}

func (c *Controller) fail(message string) {
	c.notice = ""
	c.state.Loading = false
	c.state.Error = message
	render.Error(c.view, message)
}

func (c *Controller) draw() {
	if c.out == nil {
		return
	}

	if err := c.view.Draw(c.out); err != nil {
		c.log.Error("draw", "err", err)
	}
}

// Draw writes the changed view to w. It is meant for callers that run
// without an output and draw once at the end.
func (c *Controller) Draw(w io.Writer) error {
	var err error
	c.dispatch(func() { err = c.view.Draw(w) })
	return err
}
