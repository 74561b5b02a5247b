package attendance

import (
	"context"
	"sort"
	"time"

	"geoattend/internal/clock"
)

// DayOrder selects the direction of the calendar rollup.
type DayOrder string

const (
	OldestFirst DayOrder = "asc"
	NewestFirst DayOrder = "desc"
)

// DaySummary is one calendar day of a student's report. Absent days exist
// only here; the store never holds a row for them.
type DaySummary struct {
	Day            string     `json:"day"`
	Present        bool       `json:"present"`
	FirstCheckInAt *time.Time `json:"first_check_in_at,omitempty"`
	LastCheckOutAt *time.Time `json:"last_check_out_at,omitempty"`
	SessionsCount  int        `json:"sessions_count"`
	Sessions       []Record   `json:"sessions,omitempty"`
}

// Reporter is the read-only aggregation side: flat session lists and per-day
// calendar rollups over an inclusive date range.
type Reporter struct {
	store Store
	loc   *time.Location
}

// NewReporter creates a reporter. loc may be nil for the default timezone.
func NewReporter(store Store, loc *time.Location) *Reporter {
	if loc == nil {
		loc = clock.Location(clock.DefaultTimezone)
	}
	return &Reporter{store: store, loc: loc}
}

// Sessions returns every session whose check-in falls on a day between from
// and to inclusive, newest check-in first.
func (r *Reporter) Sessions(ctx context.Context, studentID string, from, to time.Time) ([]Record, error) {
	win := clock.RangeWindow(from, to, r.loc)
	return r.store.FindRange(ctx, studentID, win)
}

// Calendar folds the student's sessions into one row per calendar day in
// [from, to]. Days without sessions come out as absent rows with no times.
// Within a day, sessions sort by check-in ascending before the first-in and
// last-out are taken; the last-out is the latest recorded check-out, so a
// day whose only session is still open reports no check-out.
func (r *Reporter) Calendar(ctx context.Context, studentID string, from, to time.Time, order DayOrder) ([]DaySummary, error) {
	win := clock.RangeWindow(from, to, r.loc)
	recs, err := r.store.FindRange(ctx, studentID, win)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]Record)
	for _, rec := range recs {
		byDay[rec.DayKey] = append(byDay[rec.DayKey], rec)
	}
	for key := range byDay {
		day := byDay[key]
		sort.Slice(day, func(i, j int) bool {
			return day[i].CheckInAt.Before(day[j].CheckInAt)
		})
	}

	days := clock.Days(from, to, r.loc)
	summaries := make([]DaySummary, 0, len(days))
	for _, day := range days {
		key := clock.DayKey(day, r.loc)
		sessions, ok := byDay[key]
		sum := DaySummary{Day: key}
		if ok && len(sessions) > 0 {
			sum.Present = true
			sum.SessionsCount = len(sessions)
			sum.Sessions = sessions
			first := sessions[0].CheckInAt
			sum.FirstCheckInAt = &first
			for i := range sessions {
				out := sessions[i].CheckOutAt
				if out != nil && (sum.LastCheckOutAt == nil || out.After(*sum.LastCheckOutAt)) {
					sum.LastCheckOutAt = out
				}
			}
		}
		summaries = append(summaries, sum)
	}

	if order == NewestFirst {
		for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
			summaries[i], summaries[j] = summaries[j], summaries[i]
		}
	}
	return summaries, nil
}
