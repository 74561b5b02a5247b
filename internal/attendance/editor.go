package attendance

import (
	"context"
	"strings"
	"time"

	"geoattend/internal/clock"
	"geoattend/internal/geo"
)

// TimePatch distinguishes an omitted time (Valid false), an explicit clear
// (Valid true, Time nil) and a new value (Valid true, Time set).
type TimePatch struct {
	Valid bool
	Time  *time.Time
}

// Editor applies targeted admin mutations to single attendance records.
// Every action loads the record, validates, and commits one write; a
// rejection leaves the record untouched.
type Editor struct {
	store   Store
	centers CenterDirectory
	loc     *time.Location
	now     func() time.Time
}

// NewEditor creates an editor. loc and now may be nil for the defaults.
func NewEditor(store Store, centers CenterDirectory, loc *time.Location, now func() time.Time) *Editor {
	if loc == nil {
		loc = clock.Location(clock.DefaultTimezone)
	}
	if now == nil {
		now = time.Now
	}
	return &Editor{store: store, centers: centers, loc: loc, now: now}
}

// SetStatus overwrites the record status with one of the known values.
func (ed *Editor) SetStatus(ctx context.Context, id string, status Status) (*Record, error) {
	now := ed.now()
	status = Status(strings.TrimSpace(string(status)))
	if !status.Valid() {
		return nil, invalidInput("unknown status")
	}
	rec, err := ed.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == status {
		return nil, ErrNoChanges
	}
	return ed.commit(ctx, rec, Update{Status: &status}, now)
}

// ForceCheckout sets the check-out to at, or to now when at is nil.
func (ed *Editor) ForceCheckout(ctx context.Context, id string, at *time.Time) (*Record, error) {
	now := ed.now()
	target := now
	if at != nil {
		target = *at
	}
	rec, err := ed.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Before(rec.CheckInAt) {
		return nil, ErrCheckoutBeforeCheckin
	}
	if rec.CheckOutAt != nil && rec.CheckOutAt.Equal(target) {
		return nil, ErrNoChanges
	}
	return ed.commit(ctx, rec, Update{CheckOutAt: &target}, now)
}

// Reopen clears the check-out and all check-out telemetry, returning the
// session to the open state.
func (ed *Editor) Reopen(ctx context.Context, id string) (*Record, error) {
	now := ed.now()
	rec, err := ed.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.CheckOutAt == nil && rec.CheckOutLat == nil && rec.CheckOutLng == nil &&
		rec.CheckOutAccuracy == nil && rec.CheckOutDistanceM == nil {
		return nil, ErrNoChanges
	}
	return ed.commit(ctx, rec, Update{ClearCheckOut: true}, now)
}

// SetTimes corrects the check-in and/or check-out time. A nil checkIn leaves
// the check-in alone. The checkOut patch can clear the check-out explicitly.
// The resulting pair must keep check-out at or after check-in. Moving the
// check-in across a day boundary moves the record's day key with it.
func (ed *Editor) SetTimes(ctx context.Context, id string, checkIn *time.Time, checkOut TimePatch) (*Record, error) {
	now := ed.now()
	rec, err := ed.load(ctx, id)
	if err != nil {
		return nil, err
	}

	newIn := rec.CheckInAt
	if checkIn != nil {
		newIn = *checkIn
	}
	newOut := rec.CheckOutAt
	if checkOut.Valid {
		newOut = checkOut.Time
	}
	if newOut != nil && newOut.Before(newIn) {
		return nil, ErrCheckoutBeforeCheckin
	}

	var upd Update
	if checkIn != nil && !checkIn.Equal(rec.CheckInAt) {
		upd.CheckInAt = checkIn
		if key := clock.DayKey(*checkIn, ed.loc); key != rec.DayKey {
			upd.DayKey = &key
		}
	}
	if checkOut.Valid {
		switch {
		case checkOut.Time == nil && rec.CheckOutAt != nil:
			upd.ClearCheckOut = true
		case checkOut.Time != nil && (rec.CheckOutAt == nil || !rec.CheckOutAt.Equal(*checkOut.Time)):
			upd.CheckOutAt = checkOut.Time
		}
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}
	return ed.commit(ctx, rec, upd, now)
}

// SetCenter reassigns the record to another existing center.
func (ed *Editor) SetCenter(ctx context.Context, id, centerID string) (*Record, error) {
	now := ed.now()
	rec, err := ed.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ctr, err := ed.centers.FindCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if ctr == nil {
		return nil, ErrCenterNotFound
	}
	if rec.CenterID == ctr.ID {
		return nil, ErrNoChanges
	}
	return ed.commit(ctx, rec, Update{CenterID: &ctr.ID}, now)
}

// SetCheckInLocation backfills check-in telemetry for records created
// without coordinates, such as scan-toggle sessions.
func (ed *Editor) SetCheckInLocation(ctx context.Context, id string, lat, lng float64, accuracy *float64) (*Record, error) {
	now := ed.now()
	if !geo.ValidCoordinate(lat, lng) {
		return nil, invalidInput("latitude or longitude out of range")
	}
	rec, err := ed.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var upd Update
	if rec.CheckInLat == nil || rec.CheckInLng == nil ||
		*rec.CheckInLat != lat || *rec.CheckInLng != lng {
		upd.CheckInLat = &lat
		upd.CheckInLng = &lng
	}
	if accuracy != nil && (rec.CheckInAccuracy == nil || *rec.CheckInAccuracy != *accuracy) {
		upd.CheckInAccuracy = accuracy
	}
	if upd.Empty() {
		return nil, ErrNoChanges
	}
	return ed.commit(ctx, rec, upd, now)
}

// Delete removes a record outright. Deleting an unknown id reports
// ErrRecordNotFound; nothing else is checked.
func (ed *Editor) Delete(ctx context.Context, id string) error {
	return ed.store.DeleteByID(ctx, id)
}

func (ed *Editor) load(ctx context.Context, id string) (*Record, error) {
	rec, err := ed.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (ed *Editor) commit(ctx context.Context, rec *Record, upd Update, now time.Time) (*Record, error) {
	if err := ed.store.UpdateByID(ctx, rec.ID, upd); err != nil {
		return nil, err
	}
	upd.Apply(rec)
	rec.UpdatedAt = &now
	return rec, nil
}
