package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists users and students in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentColumns = `
	s.id, s.user_id, s.center_id, u.name, u.email,
	s.grade, s.roll_number, s.phone, s.parent_phone, s.created_at`

// CreateStudent inserts the user row and the student row in one transaction.
func (r *Repository) CreateStudent(ctx context.Context, u *User, s *Student) (*Student, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Role = RoleStudent
	row := tx.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.UserID = u.ID
	row = tx.QueryRowContext(ctx, `
		INSERT INTO students (id, user_id, center_id, grade, roll_number, phone, parent_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, s.ID, s.UserID, s.CenterID, s.Grade, s.RollNumber, s.Phone, s.ParentPhone)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create student: %w", err)
	}
	s.Name = u.Name
	s.Email = u.Email
	return s, nil
}

// FindStudent returns a student by id with user fields joined, or nil.
func (r *Repository) FindStudent(ctx context.Context, id string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`, id)
	return scanStudent(row)
}

// FindStudentByUser returns the student owned by a user account, or nil.
// Self-service check-in resolves the JWT subject through this.
func (r *Repository) FindStudentByUser(ctx context.Context, userID string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+studentColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1
	`, userID)
	return scanStudent(row)
}

// ListStudents returns students ordered by name, optionally limited to one center.
func (r *Repository) ListStudents(ctx context.Context, centerID string) ([]Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students s JOIN users u ON u.id = s.user_id`
	args := []any{}
	if centerID != "" {
		query += ` WHERE s.center_id = $1`
		args = append(args, centerID)
	}
	query += ` ORDER BY u.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.CenterID, &s.Name, &s.Email,
			&s.Grade, &s.RollNumber, &s.Phone, &s.ParentPhone, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// DeleteStudent removes the student together with its user account. The
// students row goes away via the ON DELETE CASCADE on user_id.
func (r *Repository) DeleteStudent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM users WHERE id = (SELECT user_id FROM students WHERE id = $1)
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindUserByEmail returns a user for login, or nil when unknown.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users WHERE email = $1
	`, email)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUser returns a user by id, or nil.
func (r *Repository) FindUser(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users WHERE id = $1
	`, id)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureAdmin creates the admin account when no user holds that email yet.
// Startup seeding; an existing account is left untouched.
func (r *Repository) EnsureAdmin(ctx context.Context, name, email, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), name, email, passwordHash, RoleAdmin)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), userID, token, expiresAt)
	return err
}

// FindRefreshToken returns a stored refresh token, or nil when unknown.
func (r *Repository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, revoked
		FROM refresh_tokens WHERE token = $1
	`, token)
	var t RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

func scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.UserID, &s.CenterID, &s.Name, &s.Email,
		&s.Grade, &s.RollNumber, &s.Phone, &s.ParentPhone, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
