package postgres

import (
	datamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/dependency"
	"github.com/eslam-almahdy/RSS-1.0/internal/dependency"
	"gorm.io/gorm"
)

type dependencyRepository struct {
	db *gorm.DB
}

func NewDependencyRepository(db *gorm.DB) dependency.Repository {
	return &dependencyRepository{db: db}
}

func (r *dependencyRepository) Create(tx *gorm.DB, edge *dependency.Interdependency) error {
	row := toRow(edge)
	if err := tx.Create(row).Error; err != nil {
		return err
	}
	edge.ID = row.ID
	return nil
}

func (r *dependencyRepository) ListAll() ([]*dependency.Interdependency, error) {
	return r.list(r.db)
}

func (r *dependencyRepository) ListBySource(riskID string) ([]*dependency.Interdependency, error) {
	return r.list(r.db.Where("source_risk_id = ?", riskID))
}

func (r *dependencyRepository) ListByTarget(riskID string) ([]*dependency.Interdependency, error) {
	return r.list(r.db.Where("target_risk_id = ?", riskID))
}

func (r *dependencyRepository) list(query *gorm.DB) ([]*dependency.Interdependency, error) {
	var rows []datamodel.Interdependency
	if err := query.Order("dependency_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*dependency.Interdependency, 0, len(rows))
	for i := range rows {
		out = append(out, fromRow(&rows[i]))
	}
	return out, nil
}

func toRow(edge *dependency.Interdependency) *datamodel.Interdependency {
	return &datamodel.Interdependency{
		ID:                  edge.ID,
		SourceRiskID:        edge.SourceRiskID,
		TargetRiskID:        edge.TargetRiskID,
		RelationshipType:    string(edge.Relationship),
		ImpactMultiplier:    edge.ImpactMultiplier,
		ProbabilityIncrease: edge.ProbabilityIncrease,
		Description:         edge.Description,
		Validated:           edge.Validated,
		CreatedBy:           edge.CreatedBy,
		CreatedAt:           edge.CreatedAt,
	}
}

func fromRow(row *datamodel.Interdependency) *dependency.Interdependency {
	return &dependency.Interdependency{
		ID:                  row.ID,
		SourceRiskID:        row.SourceRiskID,
		TargetRiskID:        row.TargetRiskID,
		Relationship:        dependency.Relationship(row.RelationshipType),
		ImpactMultiplier:    row.ImpactMultiplier,
		ProbabilityIncrease: row.ProbabilityIncrease,
		Description:         row.Description,
		Validated:           row.Validated,
		CreatedBy:           row.CreatedBy,
		CreatedAt:           row.CreatedAt,
	}
}
