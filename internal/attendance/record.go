package attendance

import "time"

// Status of a session record.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is a known status. The set is closed at this
// boundary even though the store keeps status as a plain string.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Record is one attendance session: a check-in, and later usually a
// check-out. A record with a nil CheckOutAt is the student's open session.
// Absent days are never stored as records; reports derive them.
type Record struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	CenterID  string `json:"center_id"`
	DayKey    string `json:"day_key"`

	CheckInAt  time.Time  `json:"check_in_at"`
	CheckOutAt *time.Time `json:"check_out_at"`
	Status     Status     `json:"status"`

	CheckInLat        *float64 `json:"check_in_lat,omitempty"`
	CheckInLng        *float64 `json:"check_in_lng,omitempty"`
	CheckInAccuracy   *float64 `json:"check_in_accuracy,omitempty"`
	CheckInDistanceM  *float64 `json:"check_in_distance_m,omitempty"`
	CheckOutLat       *float64 `json:"check_out_lat,omitempty"`
	CheckOutLng       *float64 `json:"check_out_lng,omitempty"`
	CheckOutAccuracy  *float64 `json:"check_out_accuracy,omitempty"`
	CheckOutDistanceM *float64 `json:"check_out_distance_m,omitempty"`

	DeviceID  *string `json:"device_id,omitempty"`
	IPAddress *string `json:"ip_address,omitempty"`
	UserAgent *string `json:"user_agent,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Open reports whether the session has not been checked out yet.
func (r *Record) Open() bool {
	return r.CheckOutAt == nil
}

// Position is a reported device location. Accuracy is optional metadata and
// never widens the geofence.
type Position struct {
	Lat      float64
	Lng      float64
	Accuracy *float64
}

// Device carries request metadata recorded alongside a session.
type Device struct {
	DeviceID  string
	IPAddress string
	UserAgent string
}
