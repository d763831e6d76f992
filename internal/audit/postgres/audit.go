package postgres

import (
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	auditDatamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// Ledger implements audit.Ledger using GORM. The table is insert-only; no
// method here or anywhere else mutates existing rows.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) audit.Ledger {
	return &Ledger{db: db}
}

// Append writes an entry inside the supplied transaction. When tx is nil the
// entry is written standalone, which is only appropriate for operations that
// have no data mutation of their own.
func (l *Ledger) Append(tx *gorm.DB, entry *audit.Entry) error {
	if tx == nil {
		tx = l.db
	}
	row := toRow(entry)
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	entry.ID = row.ID
	return nil
}

func (l *Ledger) Trail(filter audit.TrailFilter) ([]*audit.Entry, error) {
	q := l.db.Model(&auditDatamodel.Entry{})

	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if !filter.From.IsZero() {
		q = q.Where("timestamp >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("timestamp <= ?", filter.To)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = audit.DefaultTrailLimit
	}

	var rows []*auditDatamodel.Entry
	err := q.Order("timestamp DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, len(rows))
	for i, row := range rows {
		entries[i] = fromRow(row)
	}
	return entries, nil
}

func toRow(e *audit.Entry) *auditDatamodel.Entry {
	return &auditDatamodel.Entry{
		ID:         e.ID,
		UserID:     e.UserID,
		Username:   e.Username,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		IPAddress:  e.IPAddress,
		Timestamp:  e.Timestamp,
	}
}

func fromRow(r *auditDatamodel.Entry) *audit.Entry {
	return &audit.Entry{
		ID:         r.ID,
		UserID:     r.UserID,
		Username:   r.Username,
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Details:    r.Details,
		IPAddress:  r.IPAddress,
		Timestamp:  r.Timestamp,
	}
}
