// Package ui prints mistportal's views to a terminal. It owns display policy:
// which outcomes are shown, which are only logged, and how alerts look.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"mistportal/internal/forecasts"
	"mistportal/internal/misting"
	"mistportal/internal/preferences"
	"mistportal/internal/schedule"
	"mistportal/internal/types"
)

const (
	// SaveSucceededText confirms a schedule save.
	SaveSucceededText = "Schedule saved."
	// SaveFailedText is the alert for a failed schedule save.
	SaveFailedText = "Failed to save schedule"
)

// Renderer writes views to w using theme.
type Renderer struct {
	w     io.Writer
	theme preferences.Theme
	loc   *time.Location
}

// NewRenderer creates a Renderer. A nil loc uses time.Local for log dates.
func NewRenderer(w io.Writer, theme preferences.Theme, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{w: w, theme: theme, loc: loc}
}

func (r *Renderer) paint(style, s string) string {
	if style == "" {
		return s
	}
	return style + s + r.theme.Reset
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) title(s string) {
	r.printf("%s\n", r.paint(r.theme.Title, s))
}

// Schedule prints one line per weekday: a checkbox, then the row selections.
// Rows of an unchecked day are shown muted because they are inert.
func (r *Renderer) Schedule(sections []schedule.DaySection) {
	r.title("Weekly schedule")
	for _, s := range sections {
		box := "[ ]"
		if s.Enabled {
			box = "[x]"
		}
		labels := make([]string, 0, len(s.Rows))
		for _, row := range s.Rows {
			labels = append(labels, fmt.Sprintf("%-8s", row.Selection.String()))
		}
		line := strings.TrimRight(strings.Join(labels, "  "), " ")
		if !s.Enabled {
			line = r.paint(r.theme.Muted, line)
		}
		r.printf("  %s %s  %s\n", box, s.Day, line)
	}
}

// ScheduleSaved reports a save. Success prints a confirmation; failure prints
// the alert text, and the caller exits non-zero.
func (r *Renderer) ScheduleSaved(err error) {
	if err != nil {
		r.Alert(SaveFailedText)
		return
	}
	r.printf("%s\n", r.paint(r.theme.Accent, SaveSucceededText))
}

// Alert prints a message that needs the user's attention.
func (r *Renderer) Alert(msg string) {
	r.printf("%s\n", r.paint(r.theme.Alert, "! "+msg))
}

// Misting prints both toggles and the matching advisory.
func (r *Renderer) Misting(state types.MistingState, advisory misting.Advisory) {
	r.title("Misting")
	r.printf("  manual misting: %s\n", onOff(state.Active))
	r.printf("  automation:     %s\n", onOff(state.Enabled))
	r.printf("  %s\n", advisory.Text)
}

// Forecast prints one card per period, then the skip advisory when the
// report carries one.
func (r *Renderer) Forecast(report forecasts.Report) {
	r.title("Forecast")
	for _, p := range report.Periods {
		r.printf("  %s\n", r.paint(r.theme.Accent, p.Name))
		r.printf("    %d°%s\n", p.Temperature, p.TemperatureUnit)
		r.printf("    %s\n", p.ShortForecast)
		r.printf("    Precip: %d%%\n", p.PrecipPercent())
	}
	if report.SkipAdvisory != "" {
		r.Alert(report.SkipAdvisory)
	}
}

// WeatherLog prints the log in the order given.
func (r *Renderer) WeatherLog(entries []types.WeatherLogEntry) {
	r.title("Weather log")
	if len(entries) == 0 {
		r.printf("  %s\n", r.paint(r.theme.Muted, "(empty)"))
		return
	}
	for _, e := range entries {
		r.printf("  - %s\n", forecasts.Summarize(e, r.loc))
	}
}

// Clock prints a clock frame. In live mode the line is redrawn in place.
func (r *Renderer) Clock(frame string, live bool) {
	if live {
		r.printf("\r%s", r.paint(r.theme.Title, frame))
		return
	}
	r.printf("%s\n", frame)
}

// Theme prints the active theme name.
func (r *Renderer) Theme(darkMode bool) {
	r.printf("theme: %s\n", preferences.ThemeFor(darkMode).Name)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
