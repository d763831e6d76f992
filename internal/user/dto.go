package user

import (
	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/common/validation"
)

type CreateUserDTO struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLen(64, internal.ErrCodeValidationFailed)
	v.Field("password", d.Password).Required()
	v.Field("full_name", d.FullName).Required()
	v.Field("role", d.Role).Required().OneOf([]string{
		string(internal.RoleManager),
		string(internal.RoleContributor),
		string(internal.RoleViewer),
	}, internal.ErrCodeInvalidRole)
	v.Field("department", d.Department).Required()
	if err := v.Validate(); err != nil {
		return err
	}

	if len(d.Password) < 8 {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
