package risk

import (
	"strings"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is the closed set of register categories, aligned with the
// energy supply process taxonomy.
type Category string

const (
	CategoryStrategic   Category = "Strategic"
	CategoryMarket      Category = "Market"
	CategoryOperational Category = "Operational"
	CategoryRegulatory  Category = "Regulatory & Compliance"
	CategoryTechnology  Category = "Technology & Data"
	CategoryGovernance  Category = "Governance & Decision-Making"
	CategoryForecasting Category = "Forecasting"
	CategoryProcurement Category = "Procurement & Hedging"
)

var Categories = []Category{
	CategoryStrategic,
	CategoryMarket,
	CategoryOperational,
	CategoryRegulatory,
	CategoryTechnology,
	CategoryGovernance,
	CategoryForecasting,
	CategoryProcurement,
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", internal.NewValidationFieldError("category", "unknown risk category: "+s, internal.ErrCodeInvalidCategory)
}

// Status is the risk lifecycle state. Closure terminates the active
// lifecycle; risks are never hard-deleted.
type Status string

const (
	StatusIdentified        Status = "Identified"
	StatusUnderAssessment   Status = "Under Assessment"
	StatusApproved          Status = "Approved"
	StatusMitigationPlanned Status = "Mitigation Planned"
	StatusUnderControl      Status = "Under Control"
	StatusClosed            Status = "Closed"
)

var Statuses = []Status{
	StatusIdentified,
	StatusUnderAssessment,
	StatusApproved,
	StatusMitigationPlanned,
	StatusUnderControl,
	StatusClosed,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", internal.NewValidationFieldError("status", "unknown risk status: "+s, internal.ErrCodeInvalidStatus)
}

// ImpactAssessment rates the four impact dimensions on the 1-5 scale.
type ImpactAssessment struct {
	Financial    int      `json:"financial"`
	Operational  int      `json:"operational"`
	Regulatory   int      `json:"regulatory"`
	Reputational int      `json:"reputational"`
	FinancialMin *float64 `json:"financial_min,omitempty"`
	FinancialMax *float64 `json:"financial_max,omitempty"`
	Narrative    string   `json:"narrative,omitempty"`
}

// Control is an existing safeguard recorded against a risk.
type Control struct {
	ID            string     `json:"control_id"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Effectiveness string     `json:"effectiveness"`
	LastTested    *time.Time `json:"last_tested,omitempty"`
	Department    string     `json:"department,omitempty"`
}

// Risk is the full register entry. Derived fields (scores, level) are
// recomputed on every write; version increases by exactly 1 per update.
type Risk struct {
	ID                    string           `json:"risk_id"`
	Name                  string           `json:"risk_name"`
	Category              Category         `json:"category"`
	Description           string           `json:"description"`
	Owner                 string           `json:"risk_owner"`
	OwnerDepartment       string           `json:"owner_department"`
	ContributorDepartment *string          `json:"contributor_department,omitempty"`
	Causes                []string         `json:"causes"`
	Triggers              []string         `json:"triggers"`
	AffectedProcesses     []string         `json:"affected_processes"`
	Likelihood            int              `json:"likelihood"`
	Impact                ImpactAssessment `json:"impact"`
	Controls              []Control        `json:"existing_controls"`
	AdjustedLikelihood    int              `json:"adjusted_likelihood"`
	AdjustedImpact        int              `json:"adjusted_impact"`
	Status                Status           `json:"status"`
	RiskAppetiteExceeded  bool             `json:"risk_appetite_exceeded"`
	RequiresEscalation    bool             `json:"requires_escalation"`
	InherentScore         int              `json:"inherent_score"`
	ResidualScore         int              `json:"residual_score"`
	RiskLevel             Level            `json:"risk_level"`
	LastReviewed          time.Time        `json:"last_reviewed"`
	NextReviewDue         *time.Time       `json:"next_review_due,omitempty"`
	CreatedBy             string           `json:"created_by"`
	CreatedAt             time.Time        `json:"created_date"`
	LastUpdatedBy         string           `json:"last_updated_by"`
	UpdatedAt             time.Time        `json:"last_updated"`
	Version               int              `json:"version"`
	Notes                 string           `json:"notes,omitempty"`
}

// Recalculate refreshes the derived scores and level from the assessment
// fields.
func (r *Risk) Recalculate() {
	r.InherentScore = InherentScore(r.Likelihood, r.Impact)
	if r.AdjustedLikelihood == 0 {
		r.AdjustedLikelihood = r.Likelihood
	}
	if r.AdjustedImpact == 0 {
		r.AdjustedImpact = OverallImpact(r.Impact)
	}
	r.ResidualScore = ResidualScore(r.AdjustedLikelihood, r.AdjustedImpact)
	r.RiskLevel = LevelFor(r.ResidualScore)
}

func (r *Risk) IsClosed() bool {
	return r.Status == StatusClosed
}

// VisibleTo applies department isolation: contributors only see risks tied
// to their own department, managers and viewers see the full register.
func (r *Risk) VisibleTo(actor internal.Actor) bool {
	if !actor.IsContributor() {
		return true
	}
	if r.OwnerDepartment == actor.Department {
		return true
	}
	return r.ContributorDepartment != nil && *r.ContributorDepartment == actor.Department
}

// NewID mints a register identifier.
func NewID() string {
	return "RISK-" + strings.ToUpper(uuid.NewString()[:8])
}

// Snapshot is an immutable copy of a risk taken before an update, tagged
// with the version it replaced.
type Snapshot struct {
	ID           int64     `json:"history_id"`
	RiskID       string    `json:"risk_id"`
	Version      int       `json:"version"`
	Risk         *Risk     `json:"risk"`
	ChangedBy    string    `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_date"`
	ChangeReason string    `json:"change_reason,omitempty"`
}

// ListFilter narrows a register listing. Department here is the explicit
// filter requested by the caller; isolation for contributors is applied on
// top of it by the service.
type ListFilter struct {
	Department string
	Category   string
	Level      string
}

// Repository is the storage contract for the versioned register. Mutating
// methods join the supplied transaction.
type Repository interface {
	Create(tx *gorm.DB, risk *Risk) error
	GetByID(id string) (*Risk, error)
	List(filter ListFilter, restrictDepartment string) ([]*Risk, error)
	// UpdateVersioned applies the new state only when the stored version
	// still equals expectedVersion, reporting whether a row was updated.
	UpdateVersioned(tx *gorm.DB, risk *Risk, expectedVersion int) (bool, error)
	// ArchiveSnapshot stores the pre-update state tagged with the version
	// it replaced.
	ArchiveSnapshot(tx *gorm.DB, snapshot *Snapshot) error
	ListSnapshots(riskID string) ([]*Snapshot, error)
}
