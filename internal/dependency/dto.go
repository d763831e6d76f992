package dependency

import (
	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/common/validation"
)

type CreateDependencyDTO struct {
	SourceRiskID        string  `json:"source_risk_id"`
	TargetRiskID        string  `json:"target_risk_id"`
	Relationship        string  `json:"relationship_type"`
	ImpactMultiplier    float64 `json:"impact_multiplier"`
	ProbabilityIncrease float64 `json:"probability_increase,omitempty"`
	Description         string  `json:"description,omitempty"`
	Validated           bool    `json:"validated,omitempty"`
}

func (d CreateDependencyDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("source_risk_id", d.SourceRiskID).Required()
	v.Field("target_risk_id", d.TargetRiskID).Required()
	v.Field("relationship_type", d.Relationship).Required().OneOf(relationshipStrings(), internal.ErrCodeInvalidRelation)
	v.Field("impact_multiplier", d.ImpactMultiplier).PositiveFloat(internal.ErrCodeInvalidMultiplier)
	if err := v.Validate(); err != nil {
		return err
	}

	if d.SourceRiskID == d.TargetRiskID {
		return internal.NewValidationFieldError("target_risk_id", "a risk cannot depend on itself", internal.ErrCodeInvalidRelation)
	}
	return nil
}

type AmplifiedImpactDTO struct {
	Chain []string `json:"chain"`
}

func relationshipStrings() []string {
	out := make([]string, len(Relationships))
	for i, r := range Relationships {
		out[i] = string(r)
	}
	return out
}
