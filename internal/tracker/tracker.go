// Package tracker holds the pieces shared by all log types: the configured
// daily macro targets and the lenient date handling for spreadsheet rows.
package tracker

import (
	"strings"
	"time"
)

// Targets are the fixed daily macro targets, in grams and kcal
type Targets struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// Ratio returns value/target capped to [0, 1].
// A non-positive target counts as fully met, so a misconfigured
// target of 0 never divides by zero.
func Ratio(value, target float64) float64 {
	if target <= 0 {
		return 1
	}
	r := value / target
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

// DayFormat is how dates are written to the sheet
const DayFormat = "2006-01-02"

// date layouts seen in manually edited sheets
var dayLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"01/02/2006",
}

// ParseDay leniently parses a sheet date cell into a UTC-midnight day.
// Returns ok=false for anything unparsable; such rows get dropped from
// date-based aggregates, never errored.
func ParseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// Day truncates the given time to its UTC midnight
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday-midnight of the week the given time is in
func WeekStart(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return Day(t).AddDate(0, 0, -daysSinceMonday)
}
