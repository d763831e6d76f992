package postgres

import (
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	authPostgres "github.com/eslam-almahdy/RSS-1.0/internal/auth/postgres"
	userDatamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/user"
	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
	"github.com/eslam-almahdy/RSS-1.0/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(tx *gorm.DB, account *coreuser.User) error {
	row := &userDatamodel.User{
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		Salt:         account.Salt,
		FullName:     account.FullName,
		Email:        account.Email,
		Role:         string(account.Role),
		Department:   account.Department,
		IsActive:     account.IsActive,
		Notes:        account.Notes,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	account.ID = row.ID
	return nil
}

func (r *UserRepository) GetByID(id int64) (*coreuser.User, error) {
	var row userDatamodel.User
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return authPostgres.UserFromRow(&row)
}

func (r *UserRepository) GetByUsername(username string) (*coreuser.User, error) {
	var row userDatamodel.User
	if err := r.db.Where("username = ?", username).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return authPostgres.UserFromRow(&row)
}

func (r *UserRepository) List() ([]*coreuser.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.Order("username ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*coreuser.User, 0, len(rows))
	for _, row := range rows {
		u, err := authPostgres.UserFromRow(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) Unlock(tx *gorm.DB, userID int64) error {
	return tx.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"account_locked":        false,
			"failed_login_attempts": 0,
			"updated_at":            time.Now(),
		}).Error
}

func (r *UserRepository) SetActive(tx *gorm.DB, userID int64, active bool) error {
	return tx.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		}).Error
}
