package user

import (
	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
	"gorm.io/gorm"
)

// Repository is the account-administration view of the users table.
type Repository interface {
	Create(tx *gorm.DB, user *coreuser.User) error
	GetByID(id int64) (*coreuser.User, error)
	GetByUsername(username string) (*coreuser.User, error)
	List() ([]*coreuser.User, error)
	Unlock(tx *gorm.DB, userID int64) error
	SetActive(tx *gorm.DB, userID int64, active bool) error
}
