package dependency

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
	"gorm.io/gorm"
)

// Service manages the interdependency graph: edge registration plus the
// read-only chain, amplification and centrality analyses.
type Service struct {
	db     *gorm.DB
	repo   Repository
	risks  risk.Repository
	ledger audit.Ledger
	logger *slog.Logger
}

func NewService(db *gorm.DB, repo Repository, risks risk.Repository, ledger audit.Ledger, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		risks:  risks,
		ledger: ledger,
		logger: logger,
	}
}

// Add registers a directed edge. Both endpoints must already exist in the
// register; edges never reference absent risks.
func (s *Service) Add(actor internal.Actor, dto CreateDependencyDTO) (*Interdependency, error) {
	if !actor.CanMutate() {
		s.logger.Warn("add dependency denied", "actor", actor.Username, "role", actor.Role)
		return nil, internal.ErrPermissionDenied
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	source, err := s.risks.GetByID(dto.SourceRiskID)
	if err != nil {
		return nil, err
	}
	target, err := s.risks.GetByID(dto.TargetRiskID)
	if err != nil {
		return nil, err
	}
	if !source.VisibleTo(actor) || !target.VisibleTo(actor) {
		s.logger.Warn("add dependency denied: department isolation",
			"actor", actor.Username,
			"source_risk_id", dto.SourceRiskID,
			"target_risk_id", dto.TargetRiskID)
		return nil, internal.ErrPermissionDenied
	}

	relationship, _ := ParseRelationship(dto.Relationship)
	edge := &Interdependency{
		SourceRiskID:        dto.SourceRiskID,
		TargetRiskID:        dto.TargetRiskID,
		Relationship:        relationship,
		ImpactMultiplier:    dto.ImpactMultiplier,
		ProbabilityIncrease: dto.ProbabilityIncrease,
		Description:         dto.Description,
		Validated:           dto.Validated,
		CreatedBy:           actor.Username,
		CreatedAt:           time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, edge); err != nil {
			return err
		}
		entityID := fmt.Sprintf("%s->%s", edge.SourceRiskID, edge.TargetRiskID)
		details := fmt.Sprintf("CREATE interdependency: %s %s %s", edge.SourceRiskID, edge.Relationship, edge.TargetRiskID)
		return s.ledger.Append(tx, audit.NewEntry(&actor.UserID, actor.Username, audit.ActionCreate, audit.EntityInterdependency, entityID, details))
	})
	if err != nil {
		s.logger.Error("failed to add interdependency",
			"source_risk_id", dto.SourceRiskID,
			"target_risk_id", dto.TargetRiskID,
			"error", err)
		return nil, internal.NewInternalError("failed to add interdependency", err)
	}

	s.logger.Info("interdependency added",
		"source_risk_id", edge.SourceRiskID,
		"target_risk_id", edge.TargetRiskID,
		"relationship", edge.Relationship,
		"created_by", actor.Username)
	return edge, nil
}

// Chains discovers every chain reachable from sourceID up to maxDepth.
func (s *Service) Chains(actor internal.Actor, sourceID string, maxDepth int) ([][]string, error) {
	if _, err := s.visibleRisk(actor, sourceID); err != nil {
		return nil, err
	}
	graph, err := s.buildGraph()
	if err != nil {
		return nil, err
	}
	return graph.FindChains(sourceID, maxDepth), nil
}

// AmplifiedImpact compounds the head's residual score through the chain's
// edge multipliers.
func (s *Service) AmplifiedImpact(actor internal.Actor, chain []string) (float64, error) {
	if len(chain) == 0 {
		return 0, internal.NewValidationFieldError("chain", "chain must contain at least one risk id", internal.ErrCodeValidationFailed)
	}

	head, err := s.visibleRisk(actor, chain[0])
	if err != nil {
		return 0, err
	}
	graph, err := s.buildGraph()
	if err != nil {
		return 0, err
	}
	return graph.AmplifiedImpact(chain, float64(head.ResidualScore))
}

// CriticalRisks ranks the register's risks by graph centrality, keeping
// those strictly above the threshold.
func (s *Service) CriticalRisks(actor internal.Actor, threshold float64) ([]Centrality, error) {
	graph, err := s.buildGraph()
	if err != nil {
		return nil, err
	}
	return graph.CriticalRisks(threshold), nil
}

// Downstream lists risks directly affected by riskID; Upstream lists the
// risks acting on it.
func (s *Service) Downstream(actor internal.Actor, riskID string) ([]*Interdependency, error) {
	if _, err := s.visibleRisk(actor, riskID); err != nil {
		return nil, err
	}
	edges, err := s.repo.ListBySource(riskID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list downstream edges", err)
	}
	return edges, nil
}

func (s *Service) Upstream(actor internal.Actor, riskID string) ([]*Interdependency, error) {
	if _, err := s.visibleRisk(actor, riskID); err != nil {
		return nil, err
	}
	edges, err := s.repo.ListByTarget(riskID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list upstream edges", err)
	}
	return edges, nil
}

func (s *Service) visibleRisk(actor internal.Actor, riskID string) (*risk.Risk, error) {
	r, err := s.risks.GetByID(riskID)
	if err != nil {
		return nil, err
	}
	if !r.VisibleTo(actor) {
		return nil, internal.ErrPermissionDenied
	}
	return r, nil
}

func (s *Service) buildGraph() (*Graph, error) {
	edges, err := s.repo.ListAll()
	if err != nil {
		return nil, internal.NewInternalError("failed to load interdependency graph", err)
	}
	return NewGraph(edges), nil
}
