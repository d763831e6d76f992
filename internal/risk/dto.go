package risk

import (
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/common/validation"
)

type ImpactDTO struct {
	Financial    int      `json:"financial"`
	Operational  int      `json:"operational"`
	Regulatory   int      `json:"regulatory"`
	Reputational int      `json:"reputational"`
	FinancialMin *float64 `json:"financial_min,omitempty"`
	FinancialMax *float64 `json:"financial_max,omitempty"`
	Narrative    string   `json:"narrative,omitempty"`
}

func (d ImpactDTO) validate(v *validation.ValidationBuilder) {
	v.Field("impact.financial", d.Financial).Required().IntRange(1, 5, internal.ErrCodeInvalidImpact)
	v.Field("impact.operational", d.Operational).Required().IntRange(1, 5, internal.ErrCodeInvalidImpact)
	v.Field("impact.regulatory", d.Regulatory).Required().IntRange(1, 5, internal.ErrCodeInvalidImpact)
	v.Field("impact.reputational", d.Reputational).Required().IntRange(1, 5, internal.ErrCodeInvalidImpact)
}

func (d ImpactDTO) toDomain() ImpactAssessment {
	return ImpactAssessment{
		Financial:    d.Financial,
		Operational:  d.Operational,
		Regulatory:   d.Regulatory,
		Reputational: d.Reputational,
		FinancialMin: d.FinancialMin,
		FinancialMax: d.FinancialMax,
		Narrative:    d.Narrative,
	}
}

type ControlDTO struct {
	ID            string     `json:"control_id"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Effectiveness string     `json:"effectiveness"`
	LastTested    *time.Time `json:"last_tested,omitempty"`
	Department    string     `json:"department,omitempty"`
}

type CreateRiskDTO struct {
	Name                  string       `json:"risk_name"`
	Category              string       `json:"category"`
	Description           string       `json:"description"`
	Owner                 string       `json:"risk_owner"`
	OwnerDepartment       string       `json:"owner_department"`
	ContributorDepartment *string      `json:"contributor_department,omitempty"`
	Causes                []string     `json:"causes,omitempty"`
	Triggers              []string     `json:"triggers,omitempty"`
	AffectedProcesses     []string     `json:"affected_processes,omitempty"`
	Likelihood            int          `json:"likelihood"`
	Impact                ImpactDTO    `json:"impact"`
	Controls              []ControlDTO `json:"existing_controls,omitempty"`
	AdjustedLikelihood    int          `json:"adjusted_likelihood,omitempty"`
	AdjustedImpact        int          `json:"adjusted_impact,omitempty"`
	RiskAppetiteExceeded  bool         `json:"risk_appetite_exceeded,omitempty"`
	RequiresEscalation    bool         `json:"requires_escalation,omitempty"`
	NextReviewDue         *time.Time   `json:"next_review_due,omitempty"`
	Notes                 string       `json:"notes,omitempty"`
}

func (d CreateRiskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("risk_name", d.Name).Required().MaxLen(200, internal.ErrCodeValidationFailed)
	v.Field("category", d.Category).Required().OneOf(categoryStrings(), internal.ErrCodeInvalidCategory)
	v.Field("description", d.Description).Required()
	v.Field("risk_owner", d.Owner).Required()
	v.Field("owner_department", d.OwnerDepartment).Required()
	v.Field("likelihood", d.Likelihood).Required().IntRange(1, 5, internal.ErrCodeInvalidLikelihood)
	d.Impact.validate(v)
	if d.AdjustedLikelihood != 0 {
		v.Field("adjusted_likelihood", d.AdjustedLikelihood).IntRange(1, 5, internal.ErrCodeInvalidLikelihood)
	}
	if d.AdjustedImpact != 0 {
		v.Field("adjusted_impact", d.AdjustedImpact).IntRange(1, 5, internal.ErrCodeInvalidImpact)
	}
	return errOrNil(v.Validate())
}

// UpdateRiskDTO is a partial update: nil pointers leave the stored value
// untouched. ExpectedVersion carries the version the caller last read.
type UpdateRiskDTO struct {
	ExpectedVersion       int          `json:"expected_version"`
	Name                  *string      `json:"risk_name,omitempty"`
	Category              *string      `json:"category,omitempty"`
	Description           *string      `json:"description,omitempty"`
	Owner                 *string      `json:"risk_owner,omitempty"`
	ContributorDepartment *string      `json:"contributor_department,omitempty"`
	Causes                []string     `json:"causes,omitempty"`
	Triggers              []string     `json:"triggers,omitempty"`
	AffectedProcesses     []string     `json:"affected_processes,omitempty"`
	Likelihood            *int         `json:"likelihood,omitempty"`
	Impact                *ImpactDTO   `json:"impact,omitempty"`
	Controls              []ControlDTO `json:"existing_controls,omitempty"`
	AdjustedLikelihood    *int         `json:"adjusted_likelihood,omitempty"`
	AdjustedImpact        *int         `json:"adjusted_impact,omitempty"`
	Status                *string      `json:"status,omitempty"`
	RiskAppetiteExceeded  *bool        `json:"risk_appetite_exceeded,omitempty"`
	RequiresEscalation    *bool        `json:"requires_escalation,omitempty"`
	NextReviewDue         *time.Time   `json:"next_review_due,omitempty"`
	Notes                 *string      `json:"notes,omitempty"`
	ChangeReason          string       `json:"change_reason,omitempty"`
}

func (d UpdateRiskDTO) Validate() error {
	if d.ExpectedVersion < 1 {
		return internal.NewValidationFieldError("expected_version", "expected_version is required", internal.ErrCodeValidationFailed)
	}

	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("risk_name", *d.Name).Required().MaxLen(200, internal.ErrCodeValidationFailed)
	}
	if d.Category != nil {
		v.Field("category", *d.Category).Required().OneOf(categoryStrings(), internal.ErrCodeInvalidCategory)
	}
	if d.Likelihood != nil {
		v.Field("likelihood", *d.Likelihood).Required().IntRange(1, 5, internal.ErrCodeInvalidLikelihood)
	}
	if d.Impact != nil {
		d.Impact.validate(v)
	}
	if d.AdjustedLikelihood != nil {
		v.Field("adjusted_likelihood", *d.AdjustedLikelihood).Required().IntRange(1, 5, internal.ErrCodeInvalidLikelihood)
	}
	if d.AdjustedImpact != nil {
		v.Field("adjusted_impact", *d.AdjustedImpact).Required().IntRange(1, 5, internal.ErrCodeInvalidImpact)
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(statusStrings(), internal.ErrCodeInvalidStatus)
	}
	return errOrNil(v.Validate())
}

func categoryStrings() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}

func statusStrings() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

// errOrNil avoids a typed-nil *AppError escaping as a non-nil error.
func errOrNil(err *internal.AppError) error {
	if err != nil {
		return err
	}
	return nil
}

func controlsToDomain(dtos []ControlDTO) []Control {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]Control, len(dtos))
	for i, c := range dtos {
		out[i] = Control{
			ID:            c.ID,
			Description:   c.Description,
			Type:          c.Type,
			Effectiveness: c.Effectiveness,
			LastTested:    c.LastTested,
			Department:    c.Department,
		}
	}
	return out
}
