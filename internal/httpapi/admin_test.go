package httpapi

import (
	"net/http"
	"testing"

	"geoattend/internal/attendance"
	"geoattend/internal/center"
	"geoattend/internal/roster"
)

func TestCenterEndpoints(t *testing.T) {
	api := newTestAPI(t)

	// Created without a geofence; self-service check-ins stay blocked until
	// the location is set.
	w := api.do(t, http.MethodPost, "/v1/centers", api.adminToken, map[string]any{
		"name": "Annex", "code": "ANNEX",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created center.Center
	decodeBody(t, w, &created)
	if created.ID == "" || created.RadiusM != nil {
		t.Errorf("created = %+v", created)
	}

	w = api.do(t, http.MethodPut, "/v1/centers/"+created.ID+"/location", api.adminToken, map[string]any{
		"lat": 12.97, "lng": 77.59, "radius_m": 150.0,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set location status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated center.Center
	decodeBody(t, w, &updated)
	if updated.RadiusM == nil || *updated.RadiusM != 150 {
		t.Errorf("radius after update = %v", updated.RadiusM)
	}

	w = api.do(t, http.MethodGet, "/v1/centers/"+created.ID, api.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	var list struct {
		Centers []center.Center `json:"centers"`
	}
	w = api.do(t, http.MethodGet, "/v1/centers", api.adminToken, nil)
	decodeBody(t, w, &list)
	if len(list.Centers) != 2 {
		t.Errorf("centers = %d, want seeded + created", len(list.Centers))
	}

	w = api.do(t, http.MethodPost, "/v1/centers", api.adminToken, map[string]any{
		"name": "Annex Copy", "code": "ANNEX",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate code status = %d", w.Code)
	}
}

func TestCenterValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/v1/centers", api.adminToken, map[string]any{
		"name": "Partial", "code": "PART", "lat": 12.9,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("partial geofence status = %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/v1/centers", api.adminToken, map[string]any{
		"name": "Bad", "code": "BAD", "lat": 12.9, "lng": 77.5, "radius_m": -5.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative radius status = %d", w.Code)
	}

	w = api.do(t, http.MethodPut, "/v1/centers/missing/location", api.adminToken, map[string]any{
		"lat": 12.9, "lng": 77.5, "radius_m": 100.0,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown center status = %d", w.Code)
	}

	if w := api.do(t, http.MethodGet, "/v1/centers", api.studentToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("student listing centers: status = %d", w.Code)
	}
}

func TestStudentEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/v1/students", api.adminToken, map[string]any{
		"name": "Ravi Kumar", "email": "ravi@geoattend.test",
		"password": "s3cret-pass", "center_id": testCenter,
		"grade": "7", "parent_phone": "+919876543210",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	var created roster.Student
	decodeBody(t, w, &created)
	if created.ID == "" || created.Name != "Ravi Kumar" || created.CenterID != testCenter {
		t.Errorf("created = %+v", created)
	}

	w = api.do(t, http.MethodPost, "/v1/students", api.adminToken, map[string]any{
		"name": "Ravi Again", "email": "ravi@geoattend.test",
		"password": "s3cret-pass", "center_id": testCenter,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email status = %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/v1/students", api.adminToken, map[string]any{
		"name": "Lost", "email": "lost@geoattend.test",
		"password": "s3cret-pass", "center_id": "missing",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown center status = %d", w.Code)
	}
	if code := errCode(t, w); code != attendance.CodeCenterNotFound {
		t.Errorf("code = %q", code)
	}

	w = api.do(t, http.MethodPost, "/v1/students", api.adminToken, map[string]any{
		"name": "Short", "email": "short@geoattend.test",
		"password": "tiny", "center_id": testCenter,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d", w.Code)
	}

	var list struct {
		Students []roster.Student `json:"students"`
	}
	w = api.do(t, http.MethodGet, "/v1/students?center_id="+testCenter, api.adminToken, nil)
	decodeBody(t, w, &list)
	if len(list.Students) != 2 {
		t.Errorf("students at center = %d, want seeded + created", len(list.Students))
	}

	w = api.do(t, http.MethodGet, "/v1/students/"+created.ID, api.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}

	w = api.do(t, http.MethodDelete, "/v1/students/"+created.ID, api.adminToken, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = api.do(t, http.MethodDelete, "/v1/students/"+created.ID, api.adminToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d", w.Code)
	}
	w = api.do(t, http.MethodGet, "/v1/students/"+created.ID, api.adminToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", w.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/v1/me", api.studentToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var me roster.Student
	decodeBody(t, w, &me)
	if me.ID != testStudent {
		t.Errorf("me = %+v", me)
	}

	// /me sits behind the student role gate.
	if w := api.do(t, http.MethodGet, "/v1/me", api.adminToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("admin /me status = %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/v1/stats/today", api.adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Day   string              `json:"day"`
		Stats attendance.DayStats `json:"stats"`
	}
	decodeBody(t, w, &body)
	if body.Day == "" || body.Stats.PresentStudents != 12 || body.Stats.OpenSessions != 3 {
		t.Errorf("stats = %+v", body)
	}

	if w := api.do(t, http.MethodGet, "/v1/stats/today", api.studentToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("student stats status = %d", w.Code)
	}
}
