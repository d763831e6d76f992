package postgres

import (
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
	userDatamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/user"
	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
	"gorm.io/gorm"
)

// UserRepository implements auth.UserRepository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) auth.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(username string) (*coreuser.User, error) {
	var row userDatamodel.User
	if err := r.db.Where("username = ?", username).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return UserFromRow(&row)
}

func (r *UserRepository) GetByID(id int64) (*coreuser.User, error) {
	var row userDatamodel.User
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return UserFromRow(&row)
}

func (r *UserRepository) RecordLoginSuccess(tx *gorm.DB, userID int64, at time.Time) error {
	return tx.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login":            at,
			"failed_login_attempts": 0,
			"updated_at":            time.Now(),
		}).Error
}

func (r *UserRepository) RecordLoginFailure(tx *gorm.DB, userID int64, attempts int, locked bool) error {
	return tx.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"failed_login_attempts": attempts,
			"account_locked":        locked,
			"updated_at":            time.Now(),
		}).Error
}

// SessionRepository implements auth.SessionRepository using GORM.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) auth.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(tx *gorm.DB, session *auth.Session) error {
	return tx.Create(&userDatamodel.Session{
		Token:     session.Token,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
		IPAddress: session.IPAddress,
		UserAgent: session.UserAgent,
		IsActive:  session.IsActive,
	}).Error
}

func (r *SessionRepository) GetWithUser(token string) (*auth.Session, *coreuser.User, error) {
	var sessionRow userDatamodel.Session
	if err := r.db.Where("session_id = ?", token).First(&sessionRow).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, internal.ErrSessionInvalid
		}
		return nil, nil, err
	}

	var userRow userDatamodel.User
	if err := r.db.Where("id = ?", sessionRow.UserID).First(&userRow).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, internal.ErrUserNotFound
		}
		return nil, nil, err
	}

	user, err := UserFromRow(&userRow)
	if err != nil {
		return nil, nil, err
	}

	session := &auth.Session{
		Token:     sessionRow.Token,
		UserID:    sessionRow.UserID,
		CreatedAt: sessionRow.CreatedAt,
		ExpiresAt: sessionRow.ExpiresAt,
		IPAddress: sessionRow.IPAddress,
		UserAgent: sessionRow.UserAgent,
		IsActive:  sessionRow.IsActive,
	}
	return session, user, nil
}

// Invalidate is idempotent: invalidating an already-inactive session is a
// no-op update.
func (r *SessionRepository) Invalidate(tx *gorm.DB, token string) error {
	return tx.Model(&userDatamodel.Session{}).
		Where("session_id = ?", token).
		Update("is_active", false).Error
}

// UserFromRow converts a storage row to the domain user, validating the
// stored role against the closed set.
func UserFromRow(row *userDatamodel.User) (*coreuser.User, error) {
	role, err := internal.ParseRole(row.Role)
	if err != nil {
		return nil, internal.NewConsistencyError("stored user has unknown role: "+row.Role, internal.ErrCodeInvalidRole)
	}

	return &coreuser.User{
		ID:                  row.ID,
		Username:            row.Username,
		PasswordHash:        row.PasswordHash,
		Salt:                row.Salt,
		FullName:            row.FullName,
		Email:               row.Email,
		Role:                role,
		Department:          row.Department,
		IsActive:            row.IsActive,
		FailedLoginAttempts: row.FailedLoginAttempts,
		AccountLocked:       row.AccountLocked,
		LastLogin:           row.LastLogin,
		Notes:               row.Notes,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}, nil
}
