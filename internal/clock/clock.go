// Package clock resolves calendar-day windows and display strings in the
// school's local timezone. All day math in the admission engine and the
// report aggregator goes through this package so both flows agree on what
// "today" means.
package clock

import "time"

// DefaultTimezone is the display/admission timezone when none is configured.
const DefaultTimezone = "Asia/Kolkata"

// dayKeyLayout is the calendar-day key format ("2006-01-02").
const dayKeyLayout = "2006-01-02"

// displayLayout renders instants for reports and notifications.
const displayLayout = "02 Jan 2006, 03:04 PM"

// Window is a half-open interval [Start, End) covering one local calendar day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Location resolves a timezone by name, falling back to fixed IST when the
// zone database is unavailable (containers without tzdata).
func Location(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+1800)
}

// DayWindow returns the local calendar-day window containing t.
func DayWindow(t time.Time, loc *time.Location) Window {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// DayKey returns the local calendar-day key for t, e.g. "2026-08-23".
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// ParseDay parses a "2006-01-02" civil date into local midnight.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayKeyLayout, s, loc)
}

// Days walks the inclusive civil-date range [from, to] one day at a time and
// returns each day's local midnight. from and to are truncated to their own
// local days first; an inverted range yields nil.
func Days(from, to time.Time, loc *time.Location) []time.Time {
	start := DayWindow(from, loc).Start
	last := DayWindow(to, loc).Start
	if last.Before(start) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// RangeWindow returns the half-open scan window covering every instant of the
// inclusive civil-date range [from, to].
func RangeWindow(from, to time.Time, loc *time.Location) Window {
	return Window{
		Start: DayWindow(from, loc).Start,
		End:   DayWindow(to, loc).End,
	}
}

// FormatDisplay renders t in the local timezone for human-facing output.
func FormatDisplay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(displayLayout)
}
