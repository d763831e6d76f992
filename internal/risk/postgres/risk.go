package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	datamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/risk"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
	"gorm.io/gorm"
)

type riskRepository struct {
	db *gorm.DB
}

func NewRiskRepository(db *gorm.DB) risk.Repository {
	return &riskRepository{db: db}
}

func (r *riskRepository) Create(tx *gorm.DB, entity *risk.Risk) error {
	row, err := toRow(entity)
	if err != nil {
		return err
	}
	return tx.Create(row).Error
}

func (r *riskRepository) GetByID(id string) (*risk.Risk, error) {
	var row datamodel.Risk
	err := r.db.Where("risk_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrRiskNotFound
	}
	if err != nil {
		return nil, internal.NewInternalError("failed to get risk", err)
	}
	return fromRow(&row)
}

func (r *riskRepository) List(filter risk.ListFilter, restrictDepartment string) ([]*risk.Risk, error) {
	query := r.db.Model(&datamodel.Risk{})

	if restrictDepartment != "" {
		query = query.Where("owner_department = ? OR contributor_department = ?", restrictDepartment, restrictDepartment)
	}
	if filter.Department != "" {
		query = query.Where("owner_department = ? OR contributor_department = ?", filter.Department, filter.Department)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		query = query.Where("risk_level = ?", filter.Level)
	}

	var rows []datamodel.Risk
	if err := query.Order("residual_score DESC, risk_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*risk.Risk, 0, len(rows))
	for i := range rows {
		entity, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (r *riskRepository) UpdateVersioned(tx *gorm.DB, entity *risk.Risk, expectedVersion int) (bool, error) {
	row, err := toRow(entity)
	if err != nil {
		return false, err
	}

	result := tx.Model(&datamodel.Risk{}).
		Where("risk_id = ? AND version = ?", entity.ID, expectedVersion).
		Select("*").Omit("risk_id", "created_by", "created_date").
		Updates(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *riskRepository) ArchiveSnapshot(tx *gorm.DB, snapshot *risk.Snapshot) error {
	data, err := json.Marshal(snapshot.Risk)
	if err != nil {
		return internal.NewConsistencyError(fmt.Sprintf("failed to serialize snapshot for %s", snapshot.RiskID), internal.ErrCodeDataCorrupted).WithCause(err)
	}

	row := datamodel.Version{
		RiskID:       snapshot.RiskID,
		Version:      snapshot.Version,
		SnapshotJSON: string(data),
		ChangedBy:    snapshot.ChangedBy,
		ChangedAt:    snapshot.ChangedAt,
		ChangeReason: snapshot.ChangeReason,
	}
	return tx.Create(&row).Error
}

func (r *riskRepository) ListSnapshots(riskID string) ([]*risk.Snapshot, error) {
	var rows []datamodel.Version
	err := r.db.Where("risk_id = ?", riskID).Order("version ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*risk.Snapshot, 0, len(rows))
	for i := range rows {
		var archived risk.Risk
		if err := json.Unmarshal([]byte(rows[i].SnapshotJSON), &archived); err != nil {
			return nil, internal.NewConsistencyError(fmt.Sprintf("corrupt snapshot %d for %s", rows[i].Version, riskID), internal.ErrCodeDataCorrupted).WithCause(err)
		}
		out = append(out, &risk.Snapshot{
			ID:           rows[i].ID,
			RiskID:       rows[i].RiskID,
			Version:      rows[i].Version,
			Risk:         &archived,
			ChangedBy:    rows[i].ChangedBy,
			ChangedAt:    rows[i].ChangedAt,
			ChangeReason: rows[i].ChangeReason,
		})
	}
	return out, nil
}

func toRow(entity *risk.Risk) (*datamodel.Risk, error) {
	impactJSON, err := json.Marshal(entity.Impact)
	if err != nil {
		return nil, internal.NewConsistencyError("failed to serialize impact assessment", internal.ErrCodeDataCorrupted).WithCause(err)
	}
	controlsJSON, err := marshalList(entity.Controls)
	if err != nil {
		return nil, err
	}
	causesJSON, err := marshalList(entity.Causes)
	if err != nil {
		return nil, err
	}
	triggersJSON, err := marshalList(entity.Triggers)
	if err != nil {
		return nil, err
	}
	processesJSON, err := marshalList(entity.AffectedProcesses)
	if err != nil {
		return nil, err
	}

	return &datamodel.Risk{
		ID:                    entity.ID,
		Name:                  entity.Name,
		Category:              string(entity.Category),
		Description:           entity.Description,
		Owner:                 entity.Owner,
		OwnerDepartment:       entity.OwnerDepartment,
		ContributorDepartment: entity.ContributorDepartment,
		CausesJSON:            causesJSON,
		TriggersJSON:          triggersJSON,
		AffectedProcessesJSON: processesJSON,
		Likelihood:            entity.Likelihood,
		ImpactJSON:            string(impactJSON),
		ControlsJSON:          controlsJSON,
		AdjustedLikelihood:    entity.AdjustedLikelihood,
		AdjustedImpact:        entity.AdjustedImpact,
		Status:                string(entity.Status),
		RiskAppetiteExceeded:  entity.RiskAppetiteExceeded,
		RequiresEscalation:    entity.RequiresEscalation,
		InherentScore:         entity.InherentScore,
		ResidualScore:         entity.ResidualScore,
		RiskLevel:             string(entity.RiskLevel),
		LastReviewed:          entity.LastReviewed,
		NextReviewDue:         entity.NextReviewDue,
		CreatedBy:             entity.CreatedBy,
		CreatedAt:             entity.CreatedAt,
		LastUpdatedBy:         entity.LastUpdatedBy,
		UpdatedAt:             entity.UpdatedAt,
		Version:               entity.Version,
		Notes:                 entity.Notes,
	}, nil
}

func fromRow(row *datamodel.Risk) (*risk.Risk, error) {
	category, err := risk.ParseCategory(row.Category)
	if err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has unknown category %q", row.ID, row.Category), internal.ErrCodeDataCorrupted)
	}
	status, err := risk.ParseStatus(row.Status)
	if err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has unknown status %q", row.ID, row.Status), internal.ErrCodeDataCorrupted)
	}

	var impact risk.ImpactAssessment
	if err := json.Unmarshal([]byte(row.ImpactJSON), &impact); err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has corrupt impact data", row.ID), internal.ErrCodeDataCorrupted).WithCause(err)
	}
	var controls []risk.Control
	if err := unmarshalList(row.ControlsJSON, &controls); err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has corrupt control data", row.ID), internal.ErrCodeDataCorrupted).WithCause(err)
	}
	var causes, triggers, processes []string
	if err := unmarshalList(row.CausesJSON, &causes); err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has corrupt causes data", row.ID), internal.ErrCodeDataCorrupted).WithCause(err)
	}
	if err := unmarshalList(row.TriggersJSON, &triggers); err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has corrupt triggers data", row.ID), internal.ErrCodeDataCorrupted).WithCause(err)
	}
	if err := unmarshalList(row.AffectedProcessesJSON, &processes); err != nil {
		return nil, internal.NewConsistencyError(fmt.Sprintf("risk %s has corrupt processes data", row.ID), internal.ErrCodeDataCorrupted).WithCause(err)
	}

	return &risk.Risk{
		ID:                    row.ID,
		Name:                  row.Name,
		Category:              category,
		Description:           row.Description,
		Owner:                 row.Owner,
		OwnerDepartment:       row.OwnerDepartment,
		ContributorDepartment: row.ContributorDepartment,
		Causes:                causes,
		Triggers:              triggers,
		AffectedProcesses:     processes,
		Likelihood:            row.Likelihood,
		Impact:                impact,
		Controls:              controls,
		AdjustedLikelihood:    row.AdjustedLikelihood,
		AdjustedImpact:        row.AdjustedImpact,
		Status:                status,
		RiskAppetiteExceeded:  row.RiskAppetiteExceeded,
		RequiresEscalation:    row.RequiresEscalation,
		InherentScore:         row.InherentScore,
		ResidualScore:         row.ResidualScore,
		RiskLevel:             risk.Level(row.RiskLevel),
		LastReviewed:          row.LastReviewed,
		NextReviewDue:         row.NextReviewDue,
		CreatedBy:             row.CreatedBy,
		CreatedAt:             row.CreatedAt,
		LastUpdatedBy:         row.LastUpdatedBy,
		UpdatedAt:             row.UpdatedAt,
		Version:               row.Version,
		Notes:                 row.Notes,
	}, nil
}

func marshalList(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", internal.NewConsistencyError("failed to serialize list column", internal.ErrCodeDataCorrupted).WithCause(err)
	}
	return string(data), nil
}

func unmarshalList(data string, out interface{}) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), out)
}
