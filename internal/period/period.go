// Package period computes calendar windows for each granularity.
//
// Each granularity (daily, weekly, monthly, yearly) has its own Windower that
// encapsulates how a window containing a given day is found relative to an
// anchor day. Goal evaluation anchors windows at the goal's start date; the
// insights aggregator anchors weekly buckets on Mondays and yearly buckets on
// January 1st.
package period

import (
	"fmt"

	"fintrack/internal/core"
)

// Window is the half-open span [Start, End) of calendar days.
type Window struct {
	Start core.Date
	End   core.Date
}

// Days returns the window length in days.
func (w Window) Days() int {
	return core.DaysBetween(w.Start, w.End)
}

// Contains reports whether d falls inside [Start, End).
func (w Window) Contains(d core.Date) bool {
	return !d.BeforeDate(w.Start) && d.BeforeDate(w.End)
}

// Windower is the strategy interface for locating the window that contains a day.
type Windower interface {
	// Window returns the window containing day, aligned to anchor.
	Window(day, anchor core.Date) Window
	// Label renders a human-readable name for the window.
	Label(w Window) string
}

// DayWindower implements Windower for single calendar days.
type DayWindower struct{}

func (DayWindower) Window(day, _ core.Date) Window {
	return Window{Start: day, End: day.AddDays(1)}
}

func (DayWindower) Label(w Window) string {
	return w.Start.Format(core.DateLayout)
}

// WeekWindower implements Windower for 7-day windows starting on the anchor's weekday.
type WeekWindower struct{}

func (WeekWindower) Window(day, anchor core.Date) Window {
	offset := core.DaysBetween(anchor, day) % 7
	if offset < 0 {
		offset += 7
	}
	start := day.AddDays(-offset)
	return Window{Start: start, End: start.AddDays(7)}
}

func (WeekWindower) Label(w Window) string {
	return w.Start.Format(core.DateLayout) + " – " + w.End.AddDays(-1).Format(core.DateLayout)
}

// MonthWindower implements Windower for calendar months. The anchor is ignored.
type MonthWindower struct{}

func (MonthWindower) Window(day, _ core.Date) Window {
	start := day.StartOfMonth()
	return Window{Start: start, End: start.AddMonths(1)}
}

func (MonthWindower) Label(w Window) string {
	return w.Start.Format("January 2006")
}

// YearWindower implements Windower for years running from one anniversary of
// the anchor to the next. A February 29th anchor falls on February 28th in
// non-leap years.
type YearWindower struct{}

func (YearWindower) Window(day, anchor core.Date) Window {
	start := anniversary(anchor, day.Year())
	if day.BeforeDate(start) {
		start = anniversary(anchor, day.Year()-1)
	}
	return Window{Start: start, End: anniversary(anchor, start.Year()+1)}
}

func (YearWindower) Label(w Window) string {
	return w.Start.Format(core.DateLayout) + " – " + w.End.AddDays(-1).Format(core.DateLayout)
}

func anniversary(anchor core.Date, year int) core.Date {
	day := anchor.Day()
	if last := core.DaysInMonth(year, anchor.Month()); day > last {
		day = last
	}
	return core.NewDate(year, anchor.Month(), day)
}

// windowers maps granularities to their strategies.
var windowers = map[core.Granularity]Windower{
	core.Daily:   DayWindower{},
	core.Weekly:  WeekWindower{},
	core.Monthly: MonthWindower{},
	core.Yearly:  YearWindower{},
}

// GetWindower returns the strategy for a granularity.
func GetWindower(g core.Granularity) (Windower, error) {
	w, ok := windowers[g]
	if !ok {
		return nil, fmt.Errorf("unknown granularity: %s", g)
	}
	return w, nil
}

// mustWindower is used by callers that validated the granularity up front.
func mustWindower(g core.Granularity) Windower {
	w, err := GetWindower(g)
	if err != nil {
		panic(err)
	}
	return w
}

// Containing returns the window of granularity g that contains day, anchored at anchor.
// It panics when g is unknown; callers check g.Valid or use GetWindower.
func Containing(g core.Granularity, day, anchor core.Date) Window {
	return mustWindower(g).Window(day, anchor)
}

// Label renders the label of window w for granularity g. Like Containing it
// panics when g is unknown.
func Label(g core.Granularity, w Window) string {
	return mustWindower(g).Label(w)
}
