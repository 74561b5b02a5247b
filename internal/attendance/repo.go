package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"geoattend/internal/clock"
)

// Repository persists attendance records in Postgres. It implements Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `
	id, student_id, center_id, day_key, check_in_at, check_out_at, status,
	check_in_lat, check_in_lng, check_in_accuracy, check_in_distance_m,
	check_out_lat, check_out_lng, check_out_accuracy, check_out_distance_m,
	device_id, ip_address, user_agent, created_at, updated_at`

// FindOpenSession returns the open session for (student, center) inside the
// window, or nil.
func (r *Repository) FindOpenSession(ctx context.Context, studentID, centerID string, win clock.Window) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE student_id = $1 AND center_id = $2
		  AND check_in_at >= $3 AND check_in_at < $4
		  AND check_out_at IS NULL
		ORDER BY check_in_at DESC
		LIMIT 1
	`, studentID, centerID, win.Start, win.End)
	return scanRecord(row)
}

// CountSessions counts the student's sessions at the center inside the window.
func (r *Repository) CountSessions(ctx context.Context, studentID, centerID string, win clock.Window) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM attendance_records
		WHERE student_id = $1 AND center_id = $2
		  AND check_in_at >= $3 AND check_in_at < $4
	`, studentID, centerID, win.Start, win.End)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// FindMostRecent returns the latest session by check-in inside the window, or nil.
func (r *Repository) FindMostRecent(ctx context.Context, studentID, centerID string, win clock.Window) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE student_id = $1 AND center_id = $2
		  AND check_in_at >= $3 AND check_in_at < $4
		ORDER BY check_in_at DESC
		LIMIT 1
	`, studentID, centerID, win.Start, win.End)
	return scanRecord(row)
}

// Insert writes a new record, assigning the id when empty.
func (r *Repository) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (
			id, student_id, center_id, day_key, check_in_at, check_out_at, status,
			check_in_lat, check_in_lng, check_in_accuracy, check_in_distance_m,
			device_id, ip_address, user_agent
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at
	`, rec.ID, rec.StudentID, rec.CenterID, rec.DayKey, rec.CheckInAt, rec.CheckOutAt, rec.Status,
		rec.CheckInLat, rec.CheckInLng, rec.CheckInAccuracy, rec.CheckInDistanceM,
		rec.DeviceID, rec.IPAddress, rec.UserAgent)
	return row.Scan(&rec.CreatedAt)
}

// UpdateByID applies the partial update in one statement.
func (r *Repository) UpdateByID(ctx context.Context, id string, upd Update) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = $"+itoa(len(args)+1))
		args = append(args, v)
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.CenterID != nil {
		add("center_id", *upd.CenterID)
	}
	if upd.DayKey != nil {
		add("day_key", *upd.DayKey)
	}
	if upd.CheckInAt != nil {
		add("check_in_at", *upd.CheckInAt)
	}
	if upd.ClearCheckOut {
		sets = append(sets,
			"check_out_at = NULL",
			"check_out_lat = NULL",
			"check_out_lng = NULL",
			"check_out_accuracy = NULL",
			"check_out_distance_m = NULL")
	} else if upd.CheckOutAt != nil {
		add("check_out_at", *upd.CheckOutAt)
	}
	if upd.CheckInLat != nil {
		add("check_in_lat", *upd.CheckInLat)
	}
	if upd.CheckInLng != nil {
		add("check_in_lng", *upd.CheckInLng)
	}
	if upd.CheckInAccuracy != nil {
		add("check_in_accuracy", *upd.CheckInAccuracy)
	}
	if upd.CheckOutLat != nil {
		add("check_out_lat", *upd.CheckOutLat)
	}
	if upd.CheckOutLng != nil {
		add("check_out_lng", *upd.CheckOutLng)
	}
	if upd.CheckOutAccuracy != nil {
		add("check_out_accuracy", *upd.CheckOutAccuracy)
	}
	if upd.CheckOutDistanceM != nil {
		add("check_out_distance_m", *upd.CheckOutDistanceM)
	}
	if upd.DeviceID != nil {
		add("device_id", *upd.DeviceID)
	}
	if upd.IPAddress != nil {
		add("ip_address", *upd.IPAddress)
	}
	if upd.UserAgent != nil {
		add("user_agent", *upd.UserAgent)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE attendance_records SET " + joinClauses(sets, ", ") +
		" WHERE id = $" + itoa(len(args)+1)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// FindByID returns a record, or nil when unknown.
func (r *Repository) FindByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records WHERE id = $1
	`, id)
	return scanRecord(row)
}

// FindRange returns the student's sessions inside the window, newest
// check-in first.
func (r *Repository) FindRange(ctx context.Context, studentID string, win clock.Window) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE student_id = $1 AND check_in_at >= $2 AND check_in_at < $3
		ORDER BY check_in_at DESC
	`, studentID, win.Start, win.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// DeleteByID removes a record.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DayStats is the admin dashboard rollup for one day window.
type DayStats struct {
	PresentStudents int `json:"present_students"`
	OpenSessions    int `json:"open_sessions"`
	TotalSessions   int `json:"total_sessions"`
}

// Stats aggregates the day window across all students and centers.
func (r *Repository) Stats(ctx context.Context, win clock.Window) (*DayStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT student_id),
		       COUNT(*) FILTER (WHERE check_out_at IS NULL),
		       COUNT(*)
		FROM attendance_records
		WHERE check_in_at >= $1 AND check_in_at < $2
	`, win.Start, win.End)
	var s DayStats
	if err := row.Scan(&s.PresentStudents, &s.OpenSessions, &s.TotalSessions); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanRecord(row interface{ Scan(dest ...any) error }) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.CenterID, &rec.DayKey,
		&rec.CheckInAt, &rec.CheckOutAt, &rec.Status,
		&rec.CheckInLat, &rec.CheckInLng, &rec.CheckInAccuracy, &rec.CheckInDistanceM,
		&rec.CheckOutLat, &rec.CheckOutLng, &rec.CheckOutAccuracy, &rec.CheckOutDistanceM,
		&rec.DeviceID, &rec.IPAddress, &rec.UserAgent, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
