package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"geoattend/internal/center"
	"geoattend/internal/clock"
	"geoattend/internal/geo"
	"geoattend/internal/roster"
)

// StudentDirectory resolves students for admission decisions.
type StudentDirectory interface {
	FindStudent(ctx context.Context, id string) (*roster.Student, error)
}

// CenterDirectory resolves centers for admission decisions.
type CenterDirectory interface {
	FindCenter(ctx context.Context, id string) (*center.Center, error)
}

const (
	// DefaultScanCooldown absorbs accidental double scans in the toggle flow.
	DefaultScanCooldown = 60 * time.Second
	// DefaultMaxDailySessions caps toggle-flow sessions per student per day.
	DefaultMaxDailySessions = 2
)

// Scan actions.
const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
)

// EngineConfig tunes the admission engine. Zero values use the defaults and
// the Asia/Kolkata timezone.
type EngineConfig struct {
	Timezone         *time.Location
	ScanCooldown     time.Duration
	MaxDailySessions int
	Now              func() time.Time
}

// Engine decides attendance admissions. Two policies share one day-scoped
// state machine: the geofenced self-service flow (CheckIn/CheckOut) and the
// operator scan toggle (Scan). The clock is read once per operation and all
// windows within the operation derive from that single instant.
type Engine struct {
	store    Store
	students StudentDirectory
	centers  CenterDirectory

	loc         *time.Location
	cooldown    time.Duration
	maxSessions int
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an admission engine.
func NewEngine(store Store, students StudentDirectory, centers CenterDirectory, cfg EngineConfig) *Engine {
	e := &Engine{
		store:       store,
		students:    students,
		centers:     centers,
		loc:         cfg.Timezone,
		cooldown:    cfg.ScanCooldown,
		maxSessions: cfg.MaxDailySessions,
		now:         cfg.Now,
		locks:       make(map[string]*sync.Mutex),
	}
	if e.loc == nil {
		e.loc = clock.Location(clock.DefaultTimezone)
	}
	if e.cooldown <= 0 {
		e.cooldown = DefaultScanCooldown
	}
	if e.maxSessions <= 0 {
		e.maxSessions = DefaultMaxDailySessions
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// CheckIn is the self-service geofenced check-in. At most one check-in per
// student per center per calendar day; the coordinate must fall inside the
// center geofence.
func (e *Engine) CheckIn(ctx context.Context, studentID string, pos Position, dev Device) (*Record, error) {
	now := e.now()
	if !geo.ValidCoordinate(pos.Lat, pos.Lng) {
		return nil, invalidInput("latitude or longitude out of range")
	}
	student, ctr, err := e.resolve(ctx, studentID, "")
	if err != nil {
		return nil, err
	}
	ctrLat, ctrLng, radius, ok := ctr.Geofence()
	if !ok {
		return nil, ErrGeofenceNotConfigured
	}

	unlock := e.lock(student.ID, ctr.ID)
	defer unlock()

	win := clock.DayWindow(now, e.loc)
	n, err := e.store.CountSessions(ctx, student.ID, ctr.ID, win)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyCheckedIn
	}

	dist := geo.DistanceMeters(pos.Lat, pos.Lng, ctrLat, ctrLng)
	if dist > radius {
		return nil, outsideGeofence(dist, radius)
	}

	rec := &Record{
		StudentID:        student.ID,
		CenterID:         ctr.ID,
		DayKey:           clock.DayKey(now, e.loc),
		CheckInAt:        now,
		Status:           StatusPresent,
		CheckInLat:       fptr(pos.Lat),
		CheckInLng:       fptr(pos.Lng),
		CheckInAccuracy:  pos.Accuracy,
		CheckInDistanceM: fptr(dist),
		DeviceID:         sptr(dev.DeviceID),
		IPAddress:        sptr(dev.IPAddress),
		UserAgent:        sptr(dev.UserAgent),
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CheckOut closes today's open session in the self-service flow. The
// geofence is re-validated at the check-out coordinate.
func (e *Engine) CheckOut(ctx context.Context, studentID string, pos Position, dev Device) (*Record, error) {
	now := e.now()
	if !geo.ValidCoordinate(pos.Lat, pos.Lng) {
		return nil, invalidInput("latitude or longitude out of range")
	}
	student, ctr, err := e.resolve(ctx, studentID, "")
	if err != nil {
		return nil, err
	}
	ctrLat, ctrLng, radius, ok := ctr.Geofence()
	if !ok {
		return nil, ErrGeofenceNotConfigured
	}

	unlock := e.lock(student.ID, ctr.ID)
	defer unlock()

	win := clock.DayWindow(now, e.loc)
	open, err := e.store.FindOpenSession(ctx, student.ID, ctr.ID, win)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoOpenSession
	}

	dist := geo.DistanceMeters(pos.Lat, pos.Lng, ctrLat, ctrLng)
	if dist > radius {
		return nil, outsideGeofence(dist, radius)
	}

	upd := Update{
		CheckOutAt:        &now,
		CheckOutLat:       fptr(pos.Lat),
		CheckOutLng:       fptr(pos.Lng),
		CheckOutAccuracy:  pos.Accuracy,
		CheckOutDistanceM: fptr(dist),
	}
	carryDevice(open, dev, &upd)
	if err := e.store.UpdateByID(ctx, open.ID, upd); err != nil {
		return nil, err
	}
	upd.Apply(open)
	open.UpdatedAt = &now
	return open, nil
}

// ScanResult is the outcome of one toggle scan.
type ScanResult struct {
	Action string  `json:"action"`
	Record *Record `json:"record"`
}

// Scan is the operator toggle: an open session checks out, otherwise a new
// session checks in. No coordinate is taken; the operator is trusted to be
// physically present. centerID may be empty to use the student's home center.
func (e *Engine) Scan(ctx context.Context, studentID, centerID string, dev Device) (*ScanResult, error) {
	now := e.now()
	student, ctr, err := e.resolve(ctx, studentID, centerID)
	if err != nil {
		return nil, err
	}

	unlock := e.lock(student.ID, ctr.ID)
	defer unlock()

	win := clock.DayWindow(now, e.loc)
	open, err := e.store.FindOpenSession(ctx, student.ID, ctr.ID, win)
	if err != nil {
		return nil, err
	}
	count, err := e.store.CountSessions(ctx, student.ID, ctr.ID, win)
	if err != nil {
		return nil, err
	}
	last, err := e.store.FindMostRecent(ctx, student.ID, ctr.ID, win)
	if err != nil {
		return nil, err
	}

	if last != nil {
		lastAction := last.CheckInAt
		if last.CheckOutAt != nil {
			lastAction = *last.CheckOutAt
		}
		if now.Sub(lastAction) < e.cooldown {
			return nil, ErrTooSoon
		}
	}
	if open == nil && count >= e.maxSessions {
		return nil, ErrDailyLimitReached
	}

	if open != nil {
		upd := Update{CheckOutAt: &now}
		carryDevice(open, dev, &upd)
		if err := e.store.UpdateByID(ctx, open.ID, upd); err != nil {
			return nil, err
		}
		upd.Apply(open)
		open.UpdatedAt = &now
		return &ScanResult{Action: ActionCheckOut, Record: open}, nil
	}

	rec := &Record{
		StudentID: student.ID,
		CenterID:  ctr.ID,
		DayKey:    clock.DayKey(now, e.loc),
		CheckInAt: now,
		Status:    StatusPresent,
		DeviceID:  sptr(dev.DeviceID),
		IPAddress: sptr(dev.IPAddress),
		UserAgent: sptr(dev.UserAgent),
	}
	if err := e.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return &ScanResult{Action: ActionCheckIn, Record: rec}, nil
}

// DayState describes a student's current day for the self-service screen.
type DayState struct {
	Day         string   `json:"day"`
	CheckedIn   bool     `json:"checked_in"`
	OpenSession *Record  `json:"open_session,omitempty"`
	Sessions    []Record `json:"sessions"`
}

// Today returns the student's sessions for the current day, oldest first.
func (e *Engine) Today(ctx context.Context, studentID string) (*DayState, error) {
	now := e.now()
	student, err := e.students.FindStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	win := clock.DayWindow(now, e.loc)
	sessions, err := e.store.FindRange(ctx, student.ID, win)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CheckInAt.Before(sessions[j].CheckInAt)
	})

	state := &DayState{
		Day:       clock.DayKey(now, e.loc),
		CheckedIn: len(sessions) > 0,
		Sessions:  sessions,
	}
	for i := range sessions {
		if sessions[i].Open() {
			state.OpenSession = &sessions[i]
			break
		}
	}
	return state, nil
}

func (e *Engine) resolve(ctx context.Context, studentID, centerID string) (*roster.Student, *center.Center, error) {
	student, err := e.students.FindStudent(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, ErrStudentNotFound
	}
	if centerID == "" {
		centerID = student.CenterID
	}
	ctr, err := e.centers.FindCenter(ctx, centerID)
	if err != nil {
		return nil, nil, err
	}
	if ctr == nil {
		return nil, nil, ErrCenterNotFound
	}
	return student, ctr, nil
}

// lock serializes admission decisions for one student at one center.
func (e *Engine) lock(studentID, centerID string) func() {
	key := studentID + "|" + centerID
	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func carryDevice(rec *Record, dev Device, upd *Update) {
	if rec.DeviceID == nil && dev.DeviceID != "" {
		upd.DeviceID = sptr(dev.DeviceID)
	}
	if rec.IPAddress == nil && dev.IPAddress != "" {
		upd.IPAddress = sptr(dev.IPAddress)
	}
	if rec.UserAgent == nil && dev.UserAgent != "" {
		upd.UserAgent = sptr(dev.UserAgent)
	}
}

func fptr(v float64) *float64 { return &v }

// sptr returns nil for the empty string so absent metadata stays NULL.
func sptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
