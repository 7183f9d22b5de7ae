package render

import (
	"fmt"
	"io"
	"strings"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named s, falling back to light.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}

	return ThemeLight
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}

	return ThemeDark
}

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[96m"
	colorRed   = "\033[31m"
	colorPink  = "\033[91m"
)

type palette struct {
	title string
	error string
}

var palettes = map[Theme]palette{
	ThemeLight: {title: colorBold + colorBlue, error: colorRed},
	ThemeDark:  {title: colorBold + colorCyan, error: colorPink},
}

// Region is one display area. Its content is always replaced as a whole.
type Region struct {
	title   string
	lines   []string
	hidden  bool
	changed bool
}

func newRegion(title string) *Region {
	return &Region{title: title, hidden: true}
}

func (r *Region) Replace(lines ...string) {
	r.lines = append([]string(nil), lines...)
	r.changed = true
}

func (r *Region) Lines() []string {
	return append([]string(nil), r.lines...)
}

func (r *Region) Text() string {
	return strings.Join(r.lines, "\n")
}

func (r *Region) SetVisible(visible bool) {
	if r.hidden == !visible {
		return
	}
	r.hidden = !visible
	r.changed = true
}

func (r *Region) Show() { r.SetVisible(true) }

func (r *Region) Hide() { r.SetVisible(false) }

func (r *Region) Visible() bool {
	return !r.hidden
}

// View binds every display region of the client. It is built once and
// passed by pointer to the render functions.
type View struct {
	Loading     *Region
	Error       *Region
	Suggestions *Region
	Current     *Region
	Tabs        *Region
	Hourly      *Region
	Daily       *Region
	History     *Region

	// Color enables ANSI colors in Draw.
	Color bool

	theme Theme
}

func NewView() *View {
	return &View{
		Loading:     newRegion(""),
		Error:       newRegion(""),
		Suggestions: newRegion("Suggestions"),
		Current:     newRegion("Current weather"),
		Tabs:        newRegion(""),
		Hourly:      newRegion("Hourly forecast"),
		Daily:       newRegion("7-day forecast"),
		History:     newRegion("History"),
		theme:       ThemeLight,
	}
}

func (v *View) Theme() Theme {
	return v.theme
}

func (v *View) SetTheme(t Theme) {
	if v.theme == t {
		return
	}
	v.theme = t
	for _, r := range v.regions() {
		r.changed = true
	}
}

// regions lists regions in drawing order.
func (v *View) regions() []*Region {
	return []*Region{v.Loading, v.Error, v.Suggestions, v.Current, v.Tabs, v.Hourly, v.Daily, v.History}
}

// Changed reports whether anything was replaced, shown or hidden since the
// last Draw.
func (v *View) Changed() bool {
	for _, r := range v.regions() {
		if r.changed {
			return true
		}
	}

	return false
}

// Draw writes all visible regions to w when something changed since the
// previous Draw.
func (v *View) Draw(w io.Writer) error {
	if !v.Changed() {
		return nil
	}

	p := palettes[v.theme]
	b := &strings.Builder{}

	for _, r := range v.regions() {
		r.changed = false
		if r.hidden || len(r.lines) == 0 {
			continue
		}

		if r.title != "" {
			b.WriteString(v.paint(p.title, r.title))
			b.WriteByte('\n')
		}

		for _, line := range r.lines {
			if r == v.Error {
				line = v.paint(p.error, line)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	_, err := fmt.Fprint(w, b.String())
	return err
}

func (v *View) paint(color, s string) string {
	if !v.Color {
		return s
	}

	return color + s + colorReset
}
