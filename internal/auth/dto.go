package auth

import (
	"github.com/eslam-almahdy/RSS-1.0/internal"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return internal.NewValidationFieldError("username", "username is required", internal.ErrCodeValidationFailed)
	}
	if d.Password == "" {
		return internal.NewValidationFieldError("password", "password is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// LoginResponse is the API view of a successful authentication.
type LoginResponse struct {
	Token string                 `json:"session_token"`
	User  map[string]interface{} `json:"user"`
}
