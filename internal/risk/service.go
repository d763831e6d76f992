package risk

import (
	"context"
	"log/slog"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/events"
	"gorm.io/gorm"
)

// Service is the versioned risk store. Every mutation archives the
// pre-update state, bumps the version by exactly 1 and writes its audit
// entry in the same transaction.
type Service struct {
	db     *gorm.DB
	repo   Repository
	ledger audit.Ledger
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(db *gorm.DB, repo Repository, ledger audit.Ledger, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		ledger: ledger,
		bus:    bus,
		logger: logger,
	}
}

// mutationAllowed reports whether the actor may write this risk: viewers
// never, contributors only inside their own department.
func mutationAllowed(actor internal.Actor, r *Risk) bool {
	if !actor.CanMutate() {
		return false
	}
	if actor.IsManager() {
		return true
	}
	return r.VisibleTo(actor)
}

func (s *Service) Create(actor internal.Actor, dto CreateRiskDTO) (*Risk, error) {
	if !actor.CanMutate() {
		s.logger.Warn("create risk denied", "actor", actor.Username, "role", actor.Role)
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	category, _ := ParseCategory(dto.Category)
	now := time.Now()
	r := &Risk{
		ID:                    NewID(),
		Name:                  dto.Name,
		Category:              category,
		Description:           dto.Description,
		Owner:                 dto.Owner,
		OwnerDepartment:       dto.OwnerDepartment,
		ContributorDepartment: dto.ContributorDepartment,
		Causes:                dto.Causes,
		Triggers:              dto.Triggers,
		AffectedProcesses:     dto.AffectedProcesses,
		Likelihood:            dto.Likelihood,
		Impact:                dto.Impact.toDomain(),
		Controls:              controlsToDomain(dto.Controls),
		AdjustedLikelihood:    dto.AdjustedLikelihood,
		AdjustedImpact:        dto.AdjustedImpact,
		Status:                StatusIdentified,
		RiskAppetiteExceeded:  dto.RiskAppetiteExceeded,
		RequiresEscalation:    dto.RequiresEscalation,
		LastReviewed:          now,
		NextReviewDue:         dto.NextReviewDue,
		CreatedBy:             actor.Username,
		CreatedAt:             now,
		LastUpdatedBy:         actor.Username,
		UpdatedAt:             now,
		Version:               1,
		Notes:                 dto.Notes,
	}
	r.Recalculate()

	if !mutationAllowed(actor, r) {
		s.logger.Warn("create risk denied: department mismatch",
			"actor", actor.Username,
			"department", actor.Department,
			"owner_department", r.OwnerDepartment)
		return nil, internal.ErrPermissionDenied
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, r); err != nil {
			return err
		}
		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionCreate, audit.EntityRisk, r.ID, "CREATE risk: "+r.Name))
	})
	if err != nil {
		s.logger.Error("failed to create risk", "risk_name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create risk", err)
	}

	s.logger.Info("risk created",
		"risk_id", r.ID,
		"category", r.Category,
		"residual_score", r.ResidualScore,
		"created_by", actor.Username)
	s.publishLifecycle(events.EventRiskCreated, r, actor)

	return r, nil
}

func (s *Service) Get(actor internal.Actor, id string) (*Risk, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !r.VisibleTo(actor) {
		s.logger.Warn("get risk denied: department isolation",
			"risk_id", id,
			"actor", actor.Username,
			"department", actor.Department)
		return nil, internal.ErrPermissionDenied
	}
	return r, nil
}

// List returns risks ordered by residual score descending. Contributors
// are restricted server-side to their own department regardless of the
// requested filter.
func (s *Service) List(actor internal.Actor, filter ListFilter) ([]*Risk, error) {
	restrict := ""
	if actor.IsContributor() {
		restrict = actor.Department
	}
	risks, err := s.repo.List(filter, restrict)
	if err != nil {
		s.logger.Error("failed to list risks", "error", err)
		return nil, internal.NewInternalError("failed to list risks", err)
	}
	return risks, nil
}

// Update applies a versioned update. The caller supplies the version it
// last read; if the stored version has advanced the update fails with
// VersionConflict instead of overwriting.
func (s *Service) Update(actor internal.Actor, id string, dto UpdateRiskDTO) (*Risk, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !mutationAllowed(actor, current) {
		s.logger.Warn("update risk denied", "risk_id", id, "actor", actor.Username, "role", actor.Role)
		return nil, internal.ErrPermissionDenied
	}
	if dto.ExpectedVersion != current.Version {
		s.logger.Warn("update rejected: stale version",
			"risk_id", id,
			"expected", dto.ExpectedVersion,
			"stored", current.Version)
		return nil, internal.ErrVersionConflict
	}

	updated := s.applyUpdate(*current, dto, actor)

	reason := dto.ChangeReason
	if reason == "" {
		reason = "Updated risk"
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		snapshot := &Snapshot{
			RiskID:       current.ID,
			Version:      current.Version,
			Risk:         current,
			ChangedBy:    actor.Username,
			ChangedAt:    time.Now(),
			ChangeReason: reason,
		}
		if err := s.repo.ArchiveSnapshot(tx, snapshot); err != nil {
			return err
		}

		applied, err := s.repo.UpdateVersioned(tx, updated, current.Version)
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent update won the race; roll back the snapshot.
			return internal.ErrVersionConflict
		}

		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionUpdate, audit.EntityRisk, updated.ID, "UPDATE risk: "+updated.Name))
	})
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to update risk", "risk_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update risk", err)
	}

	s.logger.Info("risk updated",
		"risk_id", updated.ID,
		"version", updated.Version,
		"residual_score", updated.ResidualScore,
		"updated_by", actor.Username)
	s.publishLifecycle(events.EventRiskUpdated, updated, actor)

	return updated, nil
}

// Close terminates the risk's active lifecycle. Risks are never deleted;
// closure is a status transition through the same versioned path.
func (s *Service) Close(actor internal.Actor, id string) (*Risk, error) {
	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !mutationAllowed(actor, current) {
		s.logger.Warn("close risk denied", "risk_id", id, "actor", actor.Username, "role", actor.Role)
		return nil, internal.ErrPermissionDenied
	}
	if current.IsClosed() {
		return nil, internal.NewValidationError("risk is already closed", internal.ErrCodeInvalidStatus)
	}

	updated := *current
	updated.Status = StatusClosed
	updated.LastUpdatedBy = actor.Username
	updated.UpdatedAt = time.Now()
	updated.Version = current.Version + 1

	err = s.db.Transaction(func(tx *gorm.DB) error {
		snapshot := &Snapshot{
			RiskID:       current.ID,
			Version:      current.Version,
			Risk:         current,
			ChangedBy:    actor.Username,
			ChangedAt:    time.Now(),
			ChangeReason: "Closed risk",
		}
		if err := s.repo.ArchiveSnapshot(tx, snapshot); err != nil {
			return err
		}

		applied, err := s.repo.UpdateVersioned(tx, &updated, current.Version)
		if err != nil {
			return err
		}
		if !applied {
			return internal.ErrVersionConflict
		}

		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionClose, audit.EntityRisk, updated.ID, "CLOSE risk: "+updated.Name))
	})
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to close risk", "risk_id", id, "error", err)
		return nil, internal.NewInternalError("failed to close risk", err)
	}

	s.logger.Info("risk closed", "risk_id", updated.ID, "closed_by", actor.Username)
	s.publishLifecycle(events.EventRiskClosed, &updated, actor)

	return &updated, nil
}

// History returns the archived snapshots for a risk, oldest first.
func (s *Service) History(actor internal.Actor, id string) ([]*Snapshot, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !r.VisibleTo(actor) {
		return nil, internal.ErrPermissionDenied
	}

	snapshots, err := s.repo.ListSnapshots(id)
	if err != nil {
		s.logger.Error("failed to list risk history", "risk_id", id, "error", err)
		return nil, internal.NewInternalError("failed to list risk history", err)
	}
	return snapshots, nil
}

func (s *Service) applyUpdate(current Risk, dto UpdateRiskDTO, actor internal.Actor) *Risk {
	updated := current

	if dto.Name != nil {
		updated.Name = *dto.Name
	}
	if dto.Category != nil {
		updated.Category, _ = ParseCategory(*dto.Category)
	}
	if dto.Description != nil {
		updated.Description = *dto.Description
	}
	if dto.Owner != nil {
		updated.Owner = *dto.Owner
	}
	if dto.ContributorDepartment != nil {
		updated.ContributorDepartment = dto.ContributorDepartment
	}
	if dto.Causes != nil {
		updated.Causes = dto.Causes
	}
	if dto.Triggers != nil {
		updated.Triggers = dto.Triggers
	}
	if dto.AffectedProcesses != nil {
		updated.AffectedProcesses = dto.AffectedProcesses
	}
	if dto.Likelihood != nil {
		updated.Likelihood = *dto.Likelihood
	}
	if dto.Impact != nil {
		updated.Impact = dto.Impact.toDomain()
	}
	if dto.Controls != nil {
		updated.Controls = controlsToDomain(dto.Controls)
	}
	if dto.AdjustedLikelihood != nil {
		updated.AdjustedLikelihood = *dto.AdjustedLikelihood
	}
	if dto.AdjustedImpact != nil {
		updated.AdjustedImpact = *dto.AdjustedImpact
	}
	if dto.Status != nil {
		updated.Status, _ = ParseStatus(*dto.Status)
	}
	if dto.RiskAppetiteExceeded != nil {
		updated.RiskAppetiteExceeded = *dto.RiskAppetiteExceeded
	}
	if dto.RequiresEscalation != nil {
		updated.RequiresEscalation = *dto.RequiresEscalation
	}
	if dto.NextReviewDue != nil {
		updated.NextReviewDue = dto.NextReviewDue
	}
	if dto.Notes != nil {
		updated.Notes = *dto.Notes
	}

	now := time.Now()
	updated.LastReviewed = now
	updated.UpdatedAt = now
	updated.LastUpdatedBy = actor.Username
	updated.Version = current.Version + 1
	updated.Recalculate()

	return &updated
}

func (s *Service) publishLifecycle(eventType string, r *Risk, actor internal.Actor) {
	if s.bus == nil {
		return
	}

	data := map[string]interface{}{
		"risk_name":      r.Name,
		"residual_score": r.ResidualScore,
		"risk_level":     string(r.RiskLevel),
		"version":        r.Version,
	}
	_ = s.bus.Publish(context.Background(), events.NewRiskEvent(eventType, r.ID, actor.Username, data))

	if r.RequiresEscalation || r.RiskLevel == LevelCritical {
		_ = s.bus.Publish(context.Background(), events.NewRiskEvent(events.EventRiskEscalation, r.ID, actor.Username, data))
	}
}
