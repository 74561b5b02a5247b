package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"geoattend/internal/center"
	"geoattend/internal/clock"
	"geoattend/internal/roster"
)

// memStore is an in-memory Store used by the engine, editor and reporter
// tests.
type memStore struct {
	mu   sync.Mutex
	recs map[string]*Record
	seq  int
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]*Record)}
}

func (m *memStore) FindOpenSession(_ context.Context, studentID, centerID string, win clock.Window) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Record
	for _, r := range m.recs {
		if r.StudentID == studentID && r.CenterID == centerID &&
			r.CheckOutAt == nil && win.Contains(r.CheckInAt) {
			if best == nil || r.CheckInAt.After(best.CheckInAt) {
				best = r
			}
		}
	}
	return copyRecord(best), nil
}

func (m *memStore) CountSessions(_ context.Context, studentID, centerID string, win clock.Window) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.recs {
		if r.StudentID == studentID && r.CenterID == centerID && win.Contains(r.CheckInAt) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindMostRecent(_ context.Context, studentID, centerID string, win clock.Window) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Record
	for _, r := range m.recs {
		if r.StudentID == studentID && r.CenterID == centerID && win.Contains(r.CheckInAt) {
			if best == nil || r.CheckInAt.After(best.CheckInAt) {
				best = r
			}
		}
	}
	return copyRecord(best), nil
}

func (m *memStore) Insert(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		m.seq++
		rec.ID = fmt.Sprintf("rec-%d", m.seq)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.CheckInAt
	}
	cp := *rec
	m.recs[rec.ID] = &cp
	return nil
}

func (m *memStore) UpdateByID(_ context.Context, id string, upd Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return ErrRecordNotFound
	}
	upd.Apply(rec)
	return nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRecord(m.recs[id]), nil
}

func (m *memStore) FindRange(_ context.Context, studentID string, win clock.Window) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.recs {
		if r.StudentID == studentID && win.Contains(r.CheckInAt) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckInAt.After(out[j].CheckInAt)
	})
	return out, nil
}

func (m *memStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return ErrRecordNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

func (m *memStore) openCount(studentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.recs {
		if r.StudentID == studentID && r.CheckOutAt == nil {
			n++
		}
	}
	return n
}

func copyRecord(r *Record) *Record {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// memDirectory backs both directory interfaces for tests.
type memDirectory struct {
	students map[string]*roster.Student
	centers  map[string]*center.Center
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		students: make(map[string]*roster.Student),
		centers:  make(map[string]*center.Center),
	}
}

func (d *memDirectory) FindStudent(_ context.Context, id string) (*roster.Student, error) {
	s, ok := d.students[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (d *memDirectory) FindCenter(_ context.Context, id string) (*center.Center, error) {
	c, ok := d.centers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// fakeClock is a settable clock shared with the engine under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
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

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
