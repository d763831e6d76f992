package audit

import (
	"time"

	"gorm.io/gorm"
)

// Auditable action names, aligned with the actions the ledger has recorded
// historically so trail queries stay stable across releases.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionClose   = "CLOSE"
	ActionUnlock  = "UNLOCK"
	ActionLogin   = "LOGIN"
	ActionLogout  = "LOGOUT"
	ActionLockout = "LOCKOUT"
)

// Entity types recorded in the ledger.
const (
	EntityRisk            = "RISK"
	EntityUser            = "USER"
	EntitySession         = "SESSION"
	EntityInterdependency = "INTERDEPENDENCY"
)

type Entry struct {
	ID         int64      `json:"id"`
	UserID     *int64     `json:"user_id,omitempty"`
	Username   string     `json:"username"`
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   string     `json:"entity_id,omitempty"`
	Details    string     `json:"details,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// TrailFilter narrows a trail read. Zero values mean "no constraint".
type TrailFilter struct {
	EntityType string
	EntityID   string
	From       time.Time
	To         time.Time
	Limit      int
}

// DefaultTrailLimit caps unbounded trail reads.
const DefaultTrailLimit = 100

// Ledger is the append-only action log. Append joins the caller's
// transaction so a mutation and its entry commit or roll back together;
// nothing ever updates or deletes a written entry.
type Ledger interface {
	Append(tx *gorm.DB, entry *Entry) error
	Trail(filter TrailFilter) ([]*Entry, error)
}

// NewEntry stamps an entry with the current time.
func NewEntry(userID *int64, username, action, entityType, entityID, details string) *Entry {
	return &Entry{
		UserID:     userID,
		Username:   username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  time.Now(),
	}
}
