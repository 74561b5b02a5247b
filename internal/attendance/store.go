package attendance

import (
	"context"
	"time"

	"geoattend/internal/clock"
)

// Store is the persistence contract the engine, editor and reporter run on.
// Day boundaries are always passed in as a resolved clock.Window so the
// store never has to know about timezones.
type Store interface {
	// FindOpenSession returns the open session for the student at the center
	// inside the window, or nil when there is none.
	FindOpenSession(ctx context.Context, studentID, centerID string, win clock.Window) (*Record, error)

	// CountSessions returns how many sessions the student has at the center
	// inside the window, open or closed.
	CountSessions(ctx context.Context, studentID, centerID string, win clock.Window) (int, error)

	// FindMostRecent returns the student's latest session by check-in at the
	// center inside the window, or nil.
	FindMostRecent(ctx context.Context, studentID, centerID string, win clock.Window) (*Record, error)

	// Insert stores a new record. ID, DayKey and CheckInAt must be set.
	Insert(ctx context.Context, rec *Record) error

	// UpdateByID applies upd to one record in a single statement. It returns
	// ErrRecordNotFound when the id does not exist.
	UpdateByID(ctx context.Context, id string, upd Update) error

	// FindByID returns a record, or nil when unknown.
	FindByID(ctx context.Context, id string) (*Record, error)

	// FindRange returns the student's sessions whose check-in falls inside
	// the window, newest check-in first.
	FindRange(ctx context.Context, studentID string, win clock.Window) ([]Record, error)

	// DeleteByID removes a record. It returns ErrRecordNotFound when the id
	// does not exist.
	DeleteByID(ctx context.Context, id string) error
}

// Update is a partial record update. Nil fields stay untouched; ClearCheckOut
// reopens a session by nulling the check-out side.
type Update struct {
	Status   *Status
	CenterID *string
	DayKey   *string

	CheckInAt     *time.Time
	CheckOutAt    *time.Time
	ClearCheckOut bool

	CheckInLat      *float64
	CheckInLng      *float64
	CheckInAccuracy *float64
	CheckOutLat     *float64
	CheckOutLng     *float64

	CheckOutAccuracy  *float64
	CheckOutDistanceM *float64

	DeviceID  *string
	IPAddress *string
	UserAgent *string
}

// Apply mutates rec to mirror what UpdateByID writes, so callers can return
// the updated row without a second read. Clearing the check-out also clears
// all check-out telemetry.
func (u Update) Apply(rec *Record) {
	if u.Status != nil {
		rec.Status = *u.Status
	}
	if u.CenterID != nil {
		rec.CenterID = *u.CenterID
	}
	if u.DayKey != nil {
		rec.DayKey = *u.DayKey
	}
	if u.CheckInAt != nil {
		rec.CheckInAt = *u.CheckInAt
	}
	if u.ClearCheckOut {
		rec.CheckOutAt = nil
		rec.CheckOutLat = nil
		rec.CheckOutLng = nil
		rec.CheckOutAccuracy = nil
		rec.CheckOutDistanceM = nil
	} else if u.CheckOutAt != nil {
		rec.CheckOutAt = u.CheckOutAt
	}
	if u.CheckInLat != nil {
		rec.CheckInLat = u.CheckInLat
	}
	if u.CheckInLng != nil {
		rec.CheckInLng = u.CheckInLng
	}
	if u.CheckInAccuracy != nil {
		rec.CheckInAccuracy = u.CheckInAccuracy
	}
	if u.CheckOutLat != nil {
		rec.CheckOutLat = u.CheckOutLat
	}
	if u.CheckOutLng != nil {
		rec.CheckOutLng = u.CheckOutLng
	}
	if u.CheckOutAccuracy != nil {
		rec.CheckOutAccuracy = u.CheckOutAccuracy
	}
	if u.CheckOutDistanceM != nil {
		rec.CheckOutDistanceM = u.CheckOutDistanceM
	}
	if u.DeviceID != nil {
		rec.DeviceID = u.DeviceID
	}
	if u.IPAddress != nil {
		rec.IPAddress = u.IPAddress
	}
	if u.UserAgent != nil {
		rec.UserAgent = u.UserAgent
	}
}

// Empty reports whether the update would touch nothing.
func (u Update) Empty() bool {
	return u.Status == nil && u.CenterID == nil && u.DayKey == nil &&
		u.CheckInAt == nil && u.CheckOutAt == nil && !u.ClearCheckOut &&
		u.CheckInLat == nil && u.CheckInLng == nil && u.CheckInAccuracy == nil &&
		u.CheckOutLat == nil && u.CheckOutLng == nil &&
		u.CheckOutAccuracy == nil && u.CheckOutDistanceM == nil &&
		u.DeviceID == nil && u.IPAddress == nil && u.UserAgent == nil
}
