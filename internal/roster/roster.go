// Package roster holds the user accounts and the student records attached to
// them. A student is always backed by exactly one user with the student role;
// deleting the student removes both.
package roster

import "time"

// Role controls what a user may do. There are exactly two.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User is an account that can log in.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Student is the attendance subject. Name and Email are joined from the
// owning user for display.
type Student struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CenterID    string    `json:"center_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Grade       *string   `json:"grade,omitempty"`
	RollNumber  *string   `json:"roll_number,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	ParentPhone *string   `json:"parent_phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RefreshToken is a stored refresh credential used for rotation checks.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
}
