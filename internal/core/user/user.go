package user

import (
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
)

// MaxFailedLogins is the failed-attempt count at which an account locks.
// A locked account rejects all authentication attempts, correct password
// included, until a risk manager performs an explicit unlock.
const MaxFailedLogins = 5

type User struct {
	ID                  int64
	Username            string
	PasswordHash        string
	Salt                string
	FullName            string
	Email               string
	Role                internal.Role
	Department          string
	IsActive            bool
	FailedLoginAttempts int
	AccountLocked       bool
	LastLogin           *time.Time
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Actor projects the account into the per-request identity threaded through
// the core services.
func (u *User) Actor() internal.Actor {
	return internal.Actor{
		UserID:     u.ID,
		Username:   u.Username,
		Role:       u.Role,
		Department: u.Department,
	}
}

// Sanitized returns a copy safe to serialize in API responses.
func (u *User) Sanitized() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"full_name":  u.FullName,
		"email":      u.Email,
		"role":       u.Role,
		"department": u.Department,
		"is_active":  u.IsActive,
		"last_login": u.LastLogin,
	}
}
