package dependency

import (
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"gorm.io/gorm"
)

// Relationship classifies how the source risk acts on the target.
type Relationship string

const (
	RelationshipCauses    Relationship = "causes"
	RelationshipAmplifies Relationship = "amplifies"
	RelationshipMitigates Relationship = "mitigates"
)

var Relationships = []Relationship{
	RelationshipCauses,
	RelationshipAmplifies,
	RelationshipMitigates,
}

func ParseRelationship(s string) (Relationship, error) {
	for _, r := range Relationships {
		if string(r) == s {
			return r, nil
		}
	}
	return "", internal.NewValidationFieldError("relationship_type", "unknown relationship type: "+s, internal.ErrCodeInvalidRelation)
}

// Interdependency is a directed edge in the risk graph. The impact
// multiplier compounds along chains; it must stay strictly positive.
type Interdependency struct {
	ID                  int64        `json:"dependency_id"`
	SourceRiskID        string       `json:"source_risk_id"`
	TargetRiskID        string       `json:"target_risk_id"`
	Relationship        Relationship `json:"relationship_type"`
	ImpactMultiplier    float64      `json:"impact_multiplier"`
	ProbabilityIncrease float64      `json:"probability_increase"`
	Description         string       `json:"description,omitempty"`
	Validated           bool         `json:"validated"`
	CreatedBy           string       `json:"created_by"`
	CreatedAt           time.Time    `json:"created_date"`
}

// Repository is the storage contract for graph edges. Edges are only ever
// added; the register keeps its relationship history the same way it keeps
// closed risks.
type Repository interface {
	Create(tx *gorm.DB, edge *Interdependency) error
	ListAll() ([]*Interdependency, error)
	ListBySource(riskID string) ([]*Interdependency, error)
	ListByTarget(riskID string) ([]*Interdependency, error)
}
