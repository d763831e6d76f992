package user

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
	"gorm.io/gorm"
)

// Service covers account administration: creating accounts, unlocking them
// after a lockout and deactivating them. All operations are Manager-only and
// audited in the same transaction as the change.
type Service struct {
	db     *gorm.DB
	repo   Repository
	vault  *auth.CredentialVault
	ledger audit.Ledger
	logger *slog.Logger
}

func NewService(db *gorm.DB, repo Repository, vault *auth.CredentialVault, ledger audit.Ledger, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		vault:  vault,
		ledger: ledger,
		logger: logger,
	}
}

func (s *Service) CreateUser(actor internal.Actor, dto CreateUserDTO) (*coreuser.User, error) {
	if !actor.IsManager() {
		s.logger.Warn("create user denied", "actor", actor.Username, "role", actor.Role)
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByUsername(dto.Username); err == nil && existing != nil {
		return nil, internal.NewValidationFieldError("username", "username is already taken", internal.ErrCodeValidationFailed)
	}

	hash, salt, err := s.vault.Hash(dto.Password, "")
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	role, _ := internal.ParseRole(dto.Role)
	account := &coreuser.User{
		Username:     dto.Username,
		PasswordHash: hash,
		Salt:         salt,
		FullName:     dto.FullName,
		Email:        dto.Email,
		Role:         role,
		Department:   dto.Department,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, account); err != nil {
			return err
		}
		details := fmt.Sprintf("Created user: %s (%s)", account.Username, account.Role)
		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionCreate, audit.EntityUser, fmt.Sprintf("%d", account.ID), details))
	})
	if err != nil {
		s.logger.Error("failed to create user", "username", dto.Username, "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "username", account.Username, "role", account.Role, "created_by", actor.Username)
	return account, nil
}

// Unlock clears the locked flag and failed-attempt counter. This is the only
// path out of the Locked state.
func (s *Service) Unlock(actor internal.Actor, userID int64) error {
	if !actor.IsManager() {
		s.logger.Warn("unlock denied", "actor", actor.Username, "role", actor.Role)
		return internal.ErrPermissionDenied
	}

	account, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Unlock(tx, userID); err != nil {
			return err
		}
		details := fmt.Sprintf("Unlocked account: %s", account.Username)
		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionUnlock, audit.EntityUser, fmt.Sprintf("%d", userID), details))
	})
	if err != nil {
		s.logger.Error("failed to unlock account", "user_id", userID, "error", err)
		return internal.NewInternalError("failed to unlock account", err)
	}

	s.logger.Info("account unlocked", "username", account.Username, "unlocked_by", actor.Username)
	return nil
}

// Deactivate ends an account's lifecycle. Accounts are never deleted.
func (s *Service) Deactivate(actor internal.Actor, userID int64) error {
	if !actor.IsManager() {
		return internal.ErrPermissionDenied
	}
	if actor.UserID == userID {
		return internal.NewValidationError("cannot deactivate your own account", internal.ErrCodeValidationFailed)
	}

	account, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.SetActive(tx, userID, false); err != nil {
			return err
		}
		details := fmt.Sprintf("Deactivated account: %s", account.Username)
		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionUpdate, audit.EntityUser, fmt.Sprintf("%d", userID), details))
	})
	if err != nil {
		s.logger.Error("failed to deactivate account", "user_id", userID, "error", err)
		return internal.NewInternalError("failed to deactivate account", err)
	}

	s.logger.Info("account deactivated", "username", account.Username, "deactivated_by", actor.Username)
	return nil
}

func (s *Service) ListUsers(actor internal.Actor) ([]*coreuser.User, error) {
	if !actor.IsManager() {
		return nil, internal.ErrPermissionDenied
	}
	users, err := s.repo.List()
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}
