package attendance

import "fmt"

// Rejection codes. Stable identifiers for clients; the message text may change.
const (
	CodeGeofenceNotConfigured = "GEOFENCE_NOT_CONFIGURED"
	CodeAlreadyCheckedIn      = "ALREADY_CHECKED_IN"
	CodeNoOpenSession         = "NO_OPEN_SESSION"
	CodeOutsideGeofence       = "OUTSIDE_GEOFENCE"
	CodeTooSoon               = "TOO_SOON"
	CodeDailyLimitReached     = "DAILY_LIMIT_REACHED"
	CodeStudentNotFound       = "STUDENT_NOT_FOUND"
	CodeCenterNotFound        = "CENTER_NOT_FOUND"
	CodeRecordNotFound        = "RECORD_NOT_FOUND"
	CodeCheckoutBeforeCheckin = "CHECKOUT_BEFORE_CHECKIN"
	CodeNoChanges             = "NO_CHANGES"
	CodeInvalidInput          = "INVALID_INPUT"
)

// Rejection is a deterministic refusal of an attendance operation. Nothing
// was written when one is returned. errors.Is matches rejections by Code, so
// callers can test against the sentinels below even when the returned value
// carries extra detail.
type Rejection struct {
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	DistanceM float64 `json:"distance_m,omitempty"`
	RadiusM   float64 `json:"radius_m,omitempty"`
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Code
}

// Is reports whether target is a Rejection with the same code.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Code == r.Code
}

// Sentinel rejections for errors.Is checks.
var (
	ErrGeofenceNotConfigured = &Rejection{Code: CodeGeofenceNotConfigured, Message: "center has no geofence configured"}
	ErrAlreadyCheckedIn      = &Rejection{Code: CodeAlreadyCheckedIn, Message: "already checked in today"}
	ErrNoOpenSession         = &Rejection{Code: CodeNoOpenSession, Message: "no open session to check out of"}
	ErrOutsideGeofence       = &Rejection{Code: CodeOutsideGeofence, Message: "outside the center geofence"}
	ErrTooSoon               = &Rejection{Code: CodeTooSoon, Message: "scanned again too soon"}
	ErrDailyLimitReached     = &Rejection{Code: CodeDailyLimitReached, Message: "daily session limit reached"}
	ErrStudentNotFound       = &Rejection{Code: CodeStudentNotFound, Message: "student not found"}
	ErrCenterNotFound        = &Rejection{Code: CodeCenterNotFound, Message: "center not found"}
	ErrRecordNotFound        = &Rejection{Code: CodeRecordNotFound, Message: "attendance record not found"}
	ErrCheckoutBeforeCheckin = &Rejection{Code: CodeCheckoutBeforeCheckin, Message: "check-out must not precede check-in"}
	ErrNoChanges             = &Rejection{Code: CodeNoChanges, Message: "edit changes nothing"}
	ErrInvalidInput          = &Rejection{Code: CodeInvalidInput, Message: "invalid input"}
)

// outsideGeofence builds the rejection carrying the measured distance so the
// caller can show how far off the student was.
func outsideGeofence(distanceM, radiusM float64) *Rejection {
	return &Rejection{
		Code:      CodeOutsideGeofence,
		Message:   fmt.Sprintf("you are %.0f m from the center, allowed radius is %.0f m", distanceM, radiusM),
		DistanceM: distanceM,
		RadiusM:   radiusM,
	}
}

// invalidInput builds an INVALID_INPUT rejection with a specific message.
func invalidInput(msg string) *Rejection {
	return &Rejection{Code: CodeInvalidInput, Message: msg}
}
