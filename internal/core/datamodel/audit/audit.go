package audit

import "time"

// Entry rows are append-only: nothing in the codebase issues UPDATE or
// DELETE against this table.
type Entry struct {
	ID         int64     `gorm:"column:audit_id;primaryKey"`
	UserID     *int64    `gorm:"column:user_id"`
	Username   string    `gorm:"column:username;not null"`
	Action     string    `gorm:"column:action;not null"`
	EntityType string    `gorm:"column:entity_type;index:idx_audit_entity"`
	EntityID   string    `gorm:"column:entity_id;index:idx_audit_entity"`
	Details    string    `gorm:"column:details"`
	IPAddress  string    `gorm:"column:ip_address"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index"`
}

func (Entry) TableName() string {
	return "audit_log"
}
