package internal

import (
	"context"
	"time"
)

// Role is the closed set of access levels a user account can hold.
type Role string

const (
	RoleManager     Role = "Risk Manager"
	RoleContributor Role = "Department Contributor"
	RoleViewer      Role = "View Only"
)

// ParseRole validates a stored or submitted role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleManager, RoleContributor, RoleViewer:
		return Role(s), nil
	}
	return "", NewValidationFieldError("role", "role must be one of: Risk Manager, Department Contributor, View Only", ErrCodeInvalidRole)
}

// Actor is the identity resolved once per request from a validated session
// token and passed explicitly into every core call. There is no ambient
// per-request user state anywhere else.
type Actor struct {
	UserID     int64
	Username   string
	Role       Role
	Department string
}

func (a Actor) IsManager() bool     { return a.Role == RoleManager }
func (a Actor) IsContributor() bool { return a.Role == RoleContributor }

// CanMutate reports whether the actor may create or modify register entries.
func (a Actor) CanMutate() bool {
	return a.Role == RoleManager || a.Role == RoleContributor
}

type ctxKey string

const contextActorKey ctxKey = "actor"

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(contextActorKey).(Actor)
	return actor, ok
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextActorKey, actor)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
