package dependency

import "time"

type Interdependency struct {
	ID                 int64     `gorm:"column:dependency_id;primaryKey"`
	SourceRiskID       string    `gorm:"column:source_risk_id;not null;index"`
	TargetRiskID       string    `gorm:"column:target_risk_id;not null;index"`
	RelationshipType   string    `gorm:"column:relationship_type;not null"`
	ImpactMultiplier   float64   `gorm:"column:impact_multiplier;default:1.0"`
	ProbabilityIncrease float64  `gorm:"column:probability_increase;default:0.0"`
	Description        string    `gorm:"column:description"`
	Validated          bool      `gorm:"column:validated;default:false"`
	CreatedBy          string    `gorm:"column:created_by;not null"`
	CreatedAt          time.Time `gorm:"column:created_date;not null"`
}

func (Interdependency) TableName() string {
	return "risk_interdependencies"
}
