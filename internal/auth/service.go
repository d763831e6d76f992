package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/events"
	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
	"gorm.io/gorm"
)

// Service implements authentication, session management and the account
// lockout state machine.
type Service struct {
	db       *gorm.DB
	users    UserRepository
	sessions SessionRepository
	vault    *CredentialVault
	ledger   audit.Ledger
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(db *gorm.DB, users UserRepository, sessions SessionRepository, vault *CredentialVault, ledger audit.Ledger, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		users:    users,
		sessions: sessions,
		vault:    vault,
		ledger:   ledger,
		bus:      bus,
		logger:   logger,
	}
}

// Authenticate verifies credentials and issues a session. Ordering matters:
// inactive and locked accounts are rejected before the password is checked,
// and a lockout, once reached, rejects correct passwords too.
func (s *Service) Authenticate(dto LoginDTO, clientIP, userAgent string) (*AuthResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(dto.Username)
	if err != nil {
		// Unknown usernames get the same answer as bad passwords.
		s.logger.Warn("authentication failed: unknown username", "username", dto.Username)
		return nil, internal.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("authentication rejected: inactive account", "username", user.Username)
		return nil, internal.ErrInactiveAccount
	}

	if user.AccountLocked {
		s.logger.Warn("authentication rejected: account locked", "username", user.Username)
		return nil, internal.ErrAccountLocked
	}

	if !s.vault.Verify(dto.Password, user.PasswordHash, user.Salt) {
		return nil, s.recordFailure(user)
	}

	return s.recordSuccess(user, clientIP, userAgent)
}

// recordSuccess resets the failed-attempt counter, stamps last-login, issues
// a session and writes the LOGIN audit entry, all in one transaction.
func (s *Service) recordSuccess(user *coreuser.User, clientIP, userAgent string) (*AuthResult, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, internal.NewInternalError("failed to issue session", err)
	}

	now := time.Now()
	session := &Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
		IPAddress: clientIP,
		UserAgent: userAgent,
		IsActive:  true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.users.RecordLoginSuccess(tx, user.ID, now); err != nil {
			return err
		}
		if err := s.sessions.Create(tx, session); err != nil {
			return err
		}
		entry := audit.NewEntry(&user.ID, user.Username, audit.ActionLogin, audit.EntitySession, session.Token[:8], "Successful login")
		entry.IPAddress = clientIP
		return s.ledger.Append(tx, entry)
	})
	if err != nil {
		s.logger.Error("failed to persist login", "username", user.Username, "error", err)
		return nil, internal.NewInternalError("failed to persist login", err)
	}

	user.FailedLoginAttempts = 0
	user.LastLogin = &now

	s.logger.Info("user authenticated", "username", user.Username, "role", user.Role)
	return &AuthResult{Token: token, User: user}, nil
}

// recordFailure increments the failed-attempt counter, locking the account
// when it reaches the threshold. The lockout transition and its audit entry
// commit atomically. The caller always receives InvalidCredentials; the
// locked state only answers subsequent attempts.
func (s *Service) recordFailure(user *coreuser.User) error {
	attempts := user.FailedLoginAttempts + 1
	locked := attempts >= coreuser.MaxFailedLogins

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.users.RecordLoginFailure(tx, user.ID, attempts, locked); err != nil {
			return err
		}
		if locked {
			details := fmt.Sprintf("Account locked after %d failed login attempts", attempts)
			return s.ledger.Append(tx, audit.NewEntry(&user.ID, user.Username, audit.ActionLockout, audit.EntityUser, fmt.Sprintf("%d", user.ID), details))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to record login failure", "username", user.Username, "error", err)
		return internal.NewInternalError("failed to record login failure", err)
	}

	if locked {
		s.logger.Warn("account locked", "username", user.Username, "attempts", attempts)
		if s.bus != nil {
			_ = s.bus.Publish(context.Background(), events.NewAccountLockedEvent(user.Username))
		}
	} else {
		s.logger.Warn("authentication failed: bad password", "username", user.Username, "attempts", attempts)
	}

	return internal.ErrInvalidCredentials
}

// ValidateSession resolves a token to its user. Validity is active AND
// strictly before the fixed expiry; validation never extends a session.
func (s *Service) ValidateSession(token string) (*coreuser.User, error) {
	if token == "" {
		return nil, internal.ErrSessionInvalid
	}

	session, user, err := s.sessions.GetWithUser(token)
	if err != nil {
		return nil, internal.ErrSessionInvalid
	}
	if !session.IsActive {
		return nil, internal.ErrSessionInvalid
	}
	if session.Expired(time.Now()) {
		return nil, internal.ErrSessionExpired
	}
	if !user.IsActive {
		return nil, internal.ErrInactiveAccount
	}

	return user, nil
}

// Logout invalidates the session. Invalidation is idempotent and terminal;
// the LOGOUT audit entry commits with it.
func (s *Service) Logout(token string) error {
	session, user, err := s.sessions.GetWithUser(token)
	if err != nil {
		// Unknown token: nothing to invalidate.
		return internal.ErrSessionInvalid
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.sessions.Invalidate(tx, token); err != nil {
			return err
		}
		if !session.IsActive {
			// Already invalidated, keep idempotency without another entry.
			return nil
		}
		return s.ledger.Append(tx, audit.NewEntry(&user.ID, user.Username, audit.ActionLogout, audit.EntitySession, token[:8], "Logout"))
	})
	if err != nil {
		s.logger.Error("failed to invalidate session", "error", err)
		return internal.NewInternalError("failed to invalidate session", err)
	}

	s.logger.Info("session invalidated", "username", user.Username)
	return nil
}
