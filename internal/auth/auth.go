package auth

import (
	"time"

	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
	"gorm.io/gorm"
)

// SessionDuration is the fixed session lifetime. There is no sliding
// extension: validity is always measured against issued-at + 8h.
const SessionDuration = 8 * time.Hour

type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	IsActive  bool
}

// Expired reports whether the session is past its fixed expiry. A session is
// valid strictly before expires-at.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AuthResult is returned from a successful authentication.
type AuthResult struct {
	Token string
	User  *coreuser.User
}

// UserRepository is the credential-side view of the users table. Mutating
// methods join the supplied transaction so lockout updates and their audit
// entries commit atomically.
type UserRepository interface {
	GetByUsername(username string) (*coreuser.User, error)
	GetByID(id int64) (*coreuser.User, error)
	RecordLoginSuccess(tx *gorm.DB, userID int64, at time.Time) error
	RecordLoginFailure(tx *gorm.DB, userID int64, attempts int, locked bool) error
}

// SessionRepository persists issued sessions.
type SessionRepository interface {
	Create(tx *gorm.DB, session *Session) error
	GetWithUser(token string) (*Session, *coreuser.User, error)
	Invalidate(tx *gorm.DB, token string) error
}
