package risk

import "time"

// Risk is the storage row. Nested value objects (impact assessment,
// controls, the string lists) are serialized to the *_json columns by the
// repository; nothing above the storage boundary sees raw JSON.
type Risk struct {
	ID                    string     `gorm:"column:risk_id;primaryKey"`
	Name                  string     `gorm:"column:risk_name;not null"`
	Category              string     `gorm:"column:category;not null"`
	Description           string     `gorm:"column:description;not null"`
	Owner                 string     `gorm:"column:risk_owner;not null"`
	OwnerDepartment       string     `gorm:"column:owner_department;not null;index"`
	ContributorDepartment *string    `gorm:"column:contributor_department;index"`
	CausesJSON            string     `gorm:"column:causes"`
	TriggersJSON          string     `gorm:"column:triggers"`
	AffectedProcessesJSON string     `gorm:"column:affected_processes"`
	Likelihood            int        `gorm:"column:likelihood;not null"`
	ImpactJSON            string     `gorm:"column:impact_json;not null"`
	ControlsJSON          string     `gorm:"column:existing_controls_json"`
	AdjustedLikelihood    int        `gorm:"column:adjusted_likelihood"`
	AdjustedImpact        int        `gorm:"column:adjusted_impact"`
	Status                string     `gorm:"column:status;not null"`
	RiskAppetiteExceeded  bool       `gorm:"column:risk_appetite_exceeded;default:false"`
	RequiresEscalation    bool       `gorm:"column:requires_escalation;default:false"`
	InherentScore         int        `gorm:"column:inherent_score"`
	ResidualScore         int        `gorm:"column:residual_score;index"`
	RiskLevel             string     `gorm:"column:risk_level"`
	LastReviewed          time.Time  `gorm:"column:last_reviewed;not null"`
	NextReviewDue         *time.Time `gorm:"column:next_review_due"`
	CreatedBy             string     `gorm:"column:created_by;not null"`
	CreatedAt             time.Time  `gorm:"column:created_date;not null"`
	LastUpdatedBy         string     `gorm:"column:last_updated_by;not null"`
	UpdatedAt             time.Time  `gorm:"column:last_updated;not null"`
	Version               int        `gorm:"column:version;default:1"`
	Notes                 string     `gorm:"column:notes"`
}

func (Risk) TableName() string {
	return "risks"
}

// Version rows are immutable full snapshots of a risk taken before each
// update, tagged with the version they replaced.
type Version struct {
	ID           int64     `gorm:"column:history_id;primaryKey"`
	RiskID       string    `gorm:"column:risk_id;not null;index"`
	Version      int       `gorm:"column:version;not null"`
	SnapshotJSON string    `gorm:"column:risk_data_json;not null"`
	ChangedBy    string    `gorm:"column:changed_by;not null"`
	ChangedAt    time.Time `gorm:"column:changed_date;not null"`
	ChangeReason string    `gorm:"column:change_reason"`
}

func (Version) TableName() string {
	return "risk_history"
}
