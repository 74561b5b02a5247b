package center

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists centers in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new center. The code must be unique; duplicate codes
// surface as a constraint error from the driver.
func (r *Repository) Create(ctx context.Context, c *Center) (*Center, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO centers (id, name, code, lat, lng, radius_m)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, c.ID, c.Name, c.Code, c.Lat, c.Lng, c.RadiusM)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// FindCenter returns a center by id, or nil when absent.
func (r *Repository) FindCenter(ctx context.Context, id string) (*Center, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, lat, lng, radius_m, created_at, updated_at
		FROM centers WHERE id = $1
	`, id)
	return scanCenter(row)
}

// FindByCode returns a center by its unique code, or nil when absent.
func (r *Repository) FindByCode(ctx context.Context, code string) (*Center, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, lat, lng, radius_m, created_at, updated_at
		FROM centers WHERE code = $1
	`, code)
	return scanCenter(row)
}

// List returns all centers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Center, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, lat, lng, radius_m, created_at, updated_at
		FROM centers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var centers []Center
	for rows.Next() {
		var c Center
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Lat, &c.Lng, &c.RadiusM, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		centers = append(centers, c)
	}
	return centers, rows.Err()
}

// UpdateLocation sets or replaces a center's geofence.
func (r *Repository) UpdateLocation(ctx context.Context, id string, lat, lng, radiusM float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE centers
		SET lat = $2, lng = $3, radius_m = $4, updated_at = NOW()
		WHERE id = $1
	`, id, lat, lng, radiusM)
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

func scanCenter(row *sql.Row) (*Center, error) {
	var c Center
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Lat, &c.Lng, &c.RadiusM, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
