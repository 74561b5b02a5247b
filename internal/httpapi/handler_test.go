package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/center"
	"geoattend/internal/clock"
	"geoattend/internal/config"
	"geoattend/internal/geo"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
)

const (
	testCenter      = "ctr-1"
	testStudent     = "stu-1"
	testStudentUser = "usr-1"
	testAdminUser   = "adm-1"

	centerLat  = 12.9716
	centerLng  = 77.5946
	testRadius = 100.0
)

var testLoc = clock.Location("Asia/Kolkata")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func ist(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, testLoc)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

// positionAt returns a coordinate the given distance due north of the test
// center.
func positionAt(meters float64) (lat, lng float64) {
	metersPerDegree := geo.EarthRadiusM * math.Pi / 180
	return centerLat + meters/metersPerDegree, centerLng
}

// apiStore is an in-memory attendance.Store for routing tests.
type apiStore struct {
	mu   sync.Mutex
	recs map[string]*attendance.Record
	seq  int
}

func newAPIStore() *apiStore {
	return &apiStore{recs: make(map[string]*attendance.Record)}
}

func (s *apiStore) match(rec *attendance.Record, studentID, centerID string, win clock.Window) bool {
	return rec.StudentID == studentID && rec.CenterID == centerID && win.Contains(rec.CheckInAt)
}

func (s *apiStore) FindOpenSession(_ context.Context, studentID, centerID string, win clock.Window) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *attendance.Record
	for _, rec := range s.recs {
		if s.match(rec, studentID, centerID, win) && rec.CheckOutAt == nil {
			if found == nil || rec.CheckInAt.After(found.CheckInAt) {
				found = rec
			}
		}
	}
	return cloneRecord(found), nil
}

func (s *apiStore) CountSessions(_ context.Context, studentID, centerID string, win clock.Window) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.recs {
		if s.match(rec, studentID, centerID, win) {
			n++
		}
	}
	return n, nil
}

func (s *apiStore) FindMostRecent(_ context.Context, studentID, centerID string, win clock.Window) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *attendance.Record
	for _, rec := range s.recs {
		if s.match(rec, studentID, centerID, win) {
			if found == nil || rec.CheckInAt.After(found.CheckInAt) {
				found = rec
			}
		}
	}
	return cloneRecord(found), nil
}

func (s *apiStore) Insert(_ context.Context, rec *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec-%d", s.seq)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.CheckInAt
	}
	s.recs[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *apiStore) UpdateByID(_ context.Context, id string, upd attendance.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return attendance.ErrRecordNotFound
	}
	upd.Apply(rec)
	return nil
}

func (s *apiStore) FindByID(_ context.Context, id string) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.recs[id]), nil
}

func (s *apiStore) FindRange(_ context.Context, studentID string, win clock.Window) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attendance.Record
	for _, rec := range s.recs {
		if rec.StudentID == studentID && win.Contains(rec.CheckInAt) {
			out = append(out, *cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckInAt.After(out[j].CheckInAt)
	})
	return out, nil
}

func (s *apiStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return attendance.ErrRecordNotFound
	}
	delete(s.recs, id)
	return nil
}

func cloneRecord(rec *attendance.Record) *attendance.Record {
	if rec == nil {
		return nil
	}
	cp := *rec
	return &cp
}

// fakeRoster backs both the API's roster surface and the engine's student
// directory.
type fakeRoster struct {
	mu       sync.Mutex
	users    map[string]*roster.User
	students map[string]*roster.Student
	tokens   map[string]*roster.RefreshToken
	seq      int
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{
		users:    make(map[string]*roster.User),
		students: make(map[string]*roster.Student),
		tokens:   make(map[string]*roster.RefreshToken),
	}
}

func (f *fakeRoster) CreateStudent(_ context.Context, u *roster.User, s *roster.Student) (*roster.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	f.seq++
	if u.ID == "" {
		u.ID = fmt.Sprintf("usr-n%d", f.seq)
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("stu-n%d", f.seq)
	}
	u.Role = roster.RoleStudent
	s.UserID = u.ID
	s.Name = u.Name
	s.Email = u.Email
	f.users[u.ID] = u
	cp := *s
	f.students[s.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRoster) FindStudent(_ context.Context, id string) (*roster.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRoster) FindStudentByUser(_ context.Context, userID string) (*roster.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) ListStudents(_ context.Context, centerID string) ([]roster.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []roster.Student
	for _, s := range f.students {
		if centerID == "" || s.CenterID == centerID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRoster) DeleteStudent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(f.users, s.UserID)
	delete(f.students, id)
	return nil
}

func (f *fakeRoster) FindUser(_ context.Context, id string) (*roster.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRoster) FindUserByEmail(_ context.Context, email string) (*roster.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) SaveRefreshToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.tokens[token] = &roster.RefreshToken{
		ID:        fmt.Sprintf("tok-%d", f.seq),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeRoster) FindRefreshToken(_ context.Context, token string) (*roster.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRoster) RevokeRefreshToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok {
		t.Revoked = true
	}
	return nil
}

// fakeCenters backs both the API's center surface and the engine's center
// directory.
type fakeCenters struct {
	mu      sync.Mutex
	centers map[string]*center.Center
	seq     int
}

func newFakeCenters() *fakeCenters {
	return &fakeCenters{centers: make(map[string]*center.Center)}
}

func (f *fakeCenters) Create(_ context.Context, c *center.Center) (*center.Center, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.centers {
		if existing.Code == c.Code {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "centers_code_key"}
		}
	}
	f.seq++
	if c.ID == "" {
		c.ID = fmt.Sprintf("ctr-n%d", f.seq)
	}
	cp := *c
	f.centers[c.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeCenters) FindCenter(_ context.Context, id string) (*center.Center, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.centers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCenters) List(_ context.Context) ([]center.Center, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []center.Center
	for _, c := range f.centers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCenters) UpdateLocation(_ context.Context, id string, lat, lng, radiusM float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.centers[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Lat = &lat
	c.Lng = &lng
	c.RadiusM = &radiusM
	return nil
}

type fakeStats struct {
	stats attendance.DayStats
}

func (f *fakeStats) Stats(_ context.Context, _ clock.Window) (*attendance.DayStats, error) {
	s := f.stats
	return &s, nil
}

// captureQueue records published messages for assertions.
type captureQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
}

func (q *captureQueue) Publish(_ context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *captureQueue) Consume(context.Context) (<-chan queue.Message, error) {
	ch := make(chan queue.Message)
	close(ch)
	return ch, nil
}

func (q *captureQueue) drain() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.msgs
	q.msgs = nil
	return out
}

type testAPI struct {
	router  *gin.Engine
	store   *apiStore
	roster  *fakeRoster
	centers *fakeCenters
	queue   *captureQueue
	clk     *fakeClock
	cfg     config.App

	adminToken   string
	studentToken string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := &fakeClock{t: ist(t, "2026-03-02 09:00:00")}
	st := newAPIStore()
	ro := newFakeRoster()
	ctrs := newFakeCenters()
	q := &captureQueue{}

	lat, lng, radius := centerLat, centerLng, testRadius
	ctrs.centers[testCenter] = &center.Center{
		ID: testCenter, Name: "Main Campus", Code: "MAIN",
		Lat: &lat, Lng: &lng, RadiusM: &radius,
		CreatedAt: clk.Now(),
	}
	ro.users[testAdminUser] = &roster.User{
		ID: testAdminUser, Name: "Admin", Email: "admin@geoattend.test", Role: roster.RoleAdmin,
	}
	ro.users[testStudentUser] = &roster.User{
		ID: testStudentUser, Name: "Asha Verma", Email: "asha@geoattend.test", Role: roster.RoleStudent,
	}
	phone := "+911234567890"
	ro.students[testStudent] = &roster.Student{
		ID: testStudent, UserID: testStudentUser, CenterID: testCenter,
		Name: "Asha Verma", Email: "asha@geoattend.test", ParentPhone: &phone,
	}

	cfg := config.App{
		JWTIssuer:     "geoattend-test",
		JWTSigningKey: "test-signing-key",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Timezone:      "Asia/Kolkata",
	}

	eng := attendance.NewEngine(st, ro, ctrs, attendance.EngineConfig{Timezone: testLoc, Now: clk.Now})
	ed := attendance.NewEditor(st, ctrs, testLoc, clk.Now)
	rep := attendance.NewReporter(st, testLoc)
	stats := &fakeStats{stats: attendance.DayStats{PresentStudents: 12, OpenSessions: 3, TotalSessions: 15}}

	h := New(cfg, zap.NewNop(), Deps{
		Roster:  ro,
		Centers: ctrs,
		Engine:  eng,
		Editor:  ed,
		Reports: rep,
		Stats:   stats,
		Queue:   q,
	})
	r := gin.New()
	h.Routes(r)

	api := &testAPI{router: r, store: st, roster: ro, centers: ctrs, queue: q, clk: clk, cfg: cfg}
	api.adminToken = api.token(t, testAdminUser, string(roster.RoleAdmin))
	api.studentToken = api.token(t, testStudentUser, string(roster.RoleStudent))
	return api
}

func (a *testAPI) token(t *testing.T, userID, role string) string {
	t.Helper()
	pair, err := auth.Issue(userID, role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return pair.AccessToken
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// errCode pulls the code out of the error envelope.
func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, w, &body)
	return body.Error.Code
}

func TestCheckInEndpoint(t *testing.T) {
	api := newTestAPI(t)
	lat, lng := positionAt(50)

	w := api.do(t, http.MethodPost, "/v1/attendance/check-in", api.studentToken, map[string]any{
		"lat": lat, "lng": lng, "accuracy": 8.0, "device_id": "handset-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec attendance.Record
	decodeBody(t, w, &rec)
	if rec.StudentID != testStudent || rec.CenterID != testCenter {
		t.Errorf("record owner = %s/%s", rec.StudentID, rec.CenterID)
	}
	if rec.DayKey != "2026-03-02" {
		t.Errorf("day key = %q", rec.DayKey)
	}
	if rec.CheckOutAt != nil {
		t.Error("fresh session should be open")
	}

	msgs := api.queue.drain()
	if len(msgs) != 1 || msgs[0].Type != "attendance" {
		t.Fatalf("queue messages = %+v", msgs)
	}
	var evt struct {
		RecordID string `json:"record_id"`
		Action   string `json:"action"`
	}
	if err := json.Unmarshal(msgs[0].Body, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.RecordID != rec.ID || evt.Action != "check_in" {
		t.Errorf("event = %+v", evt)
	}

	w = api.do(t, http.MethodPost, "/v1/attendance/check-in", api.studentToken, map[string]any{
		"lat": lat, "lng": lng,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("second check-in status = %d", w.Code)
	}
	if code := errCode(t, w); code != attendance.CodeAlreadyCheckedIn {
		t.Errorf("code = %q", code)
	}
	if len(api.queue.drain()) != 0 {
		t.Error("rejected check-in should not publish")
	}
}

func TestCheckInOutsideGeofenceEndpoint(t *testing.T) {
	api := newTestAPI(t)
	lat, lng := positionAt(150)

	w := api.do(t, http.MethodPost, "/v1/attendance/check-in", api.studentToken, map[string]any{
		"lat": lat, "lng": lng,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Error attendance.Rejection `json:"error"`
	}
	decodeBody(t, w, &body)
	if body.Error.Code != attendance.CodeOutsideGeofence {
		t.Errorf("code = %q", body.Error.Code)
	}
	if body.Error.DistanceM <= body.Error.RadiusM {
		t.Errorf("distance %.1f should exceed radius %.1f", body.Error.DistanceM, body.Error.RadiusM)
	}
	if len(api.queue.drain()) != 0 {
		t.Error("rejection should not publish")
	}
}

func TestCheckInAuthz(t *testing.T) {
	api := newTestAPI(t)
	lat, lng := positionAt(10)
	body := map[string]any{"lat": lat, "lng": lng}

	if w := api.do(t, http.MethodPost, "/v1/attendance/check-in", "", body); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}
	if w := api.do(t, http.MethodPost, "/v1/attendance/check-in", api.adminToken, body); w.Code != http.StatusForbidden {
		t.Errorf("admin token: status = %d", w.Code)
	}
}

func TestCheckOutEndpoint(t *testing.T) {
	api := newTestAPI(t)
	inLat, inLng := positionAt(50)
	outLat, outLng := positionAt(80)

	if w := api.do(t, http.MethodPost, "/v1/attendance/check-in", api.studentToken, map[string]any{
		"lat": inLat, "lng": inLng,
	}); w.Code != http.StatusCreated {
		t.Fatalf("check-in status = %d", w.Code)
	}
	api.clk.Advance(6 * time.Hour)

	w := api.do(t, http.MethodPost, "/v1/attendance/check-out", api.studentToken, map[string]any{
		"lat": outLat, "lng": outLng,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("check-out status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec attendance.Record
	decodeBody(t, w, &rec)
	if rec.CheckOutAt == nil {
		t.Fatal("session should be closed")
	}

	msgs := api.queue.drain()
	if len(msgs) != 2 {
		t.Fatalf("queue messages = %d, want check-in and check-out", len(msgs))
	}

	w = api.do(t, http.MethodPost, "/v1/attendance/check-out", api.studentToken, map[string]any{
		"lat": outLat, "lng": outLng,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat check-out status = %d", w.Code)
	}
	if code := errCode(t, w); code != attendance.CodeNoOpenSession {
		t.Errorf("code = %q", code)
	}
}

func TestScanEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/v1/attendance/scan", api.adminToken, map[string]any{
		"student_id": testStudent, "device_id": "kiosk-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("scan status = %d, body = %s", w.Code, w.Body.String())
	}
	var res attendance.ScanResult
	decodeBody(t, w, &res)
	if res.Action != attendance.ActionCheckIn {
		t.Errorf("action = %q", res.Action)
	}

	w = api.do(t, http.MethodPost, "/v1/attendance/scan", api.adminToken, map[string]any{
		"student_id": testStudent,
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("double scan status = %d", w.Code)
	}
	if code := errCode(t, w); code != attendance.CodeTooSoon {
		t.Errorf("code = %q", code)
	}

	api.clk.Advance(2 * time.Minute)
	w = api.do(t, http.MethodPost, "/v1/attendance/scan", api.adminToken, map[string]any{
		"student_id": testStudent,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("second scan status = %d", w.Code)
	}
	decodeBody(t, w, &res)
	if res.Action != attendance.ActionCheckOut {
		t.Errorf("action = %q", res.Action)
	}

	if w := api.do(t, http.MethodPost, "/v1/attendance/scan", api.studentToken, map[string]any{
		"student_id": testStudent,
	}); w.Code != http.StatusForbidden {
		t.Errorf("student scan status = %d", w.Code)
	}

	api.clk.Advance(2 * time.Minute)
	w = api.do(t, http.MethodPost, "/v1/attendance/scan", api.adminToken, map[string]any{
		"student_id": "ghost",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown student status = %d", w.Code)
	}
}

func TestTodayEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/v1/attendance/me/today", api.studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var state struct {
		Day       string             `json:"day"`
		CheckedIn bool               `json:"checked_in"`
		Sessions  []json.RawMessage  `json:"sessions"`
		Open      *attendance.Record `json:"open_session"`
	}
	decodeBody(t, w, &state)
	if state.Day != "2026-03-02" || state.CheckedIn {
		t.Errorf("empty day = %+v", state)
	}
	if state.Sessions == nil {
		t.Error("sessions should encode as an empty list")
	}

	lat, lng := positionAt(20)
	api.do(t, http.MethodPost, "/v1/attendance/check-in", api.studentToken, map[string]any{
		"lat": lat, "lng": lng,
	})
	w = api.do(t, http.MethodGet, "/v1/attendance/me/today", api.studentToken, nil)
	decodeBody(t, w, &state)
	if !state.CheckedIn || len(state.Sessions) != 1 || state.Open == nil {
		t.Errorf("after check-in: checked_in=%v sessions=%d open=%v",
			state.CheckedIn, len(state.Sessions), state.Open != nil)
	}
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/v1/attendance/check-in", api.studentToken, map[string]any{
		"lng": 77.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing lat: status = %d", w.Code)
	}
	if code := errCode(t, w); code != attendance.CodeInvalidInput {
		t.Errorf("code = %q", code)
	}

	w = api.do(t, http.MethodPost, "/v1/attendance/scan", api.adminToken, map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing student_id: status = %d", w.Code)
	}
}
