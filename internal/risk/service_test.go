package risk_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/events"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
)

// Mock risk repository for testing
type mockRiskRepository struct {
	risks     map[string]*risk.Risk
	snapshots []*risk.Snapshot

	createErr  error
	archiveErr error
}

func newMockRiskRepository() *mockRiskRepository {
	return &mockRiskRepository{risks: make(map[string]*risk.Risk)}
}

func (m *mockRiskRepository) Create(tx *gorm.DB, r *risk.Risk) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *r
	m.risks[r.ID] = &copied
	return nil
}

func (m *mockRiskRepository) GetByID(id string) (*risk.Risk, error) {
	r, ok := m.risks[id]
	if !ok {
		return nil, internal.ErrRiskNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockRiskRepository) List(filter risk.ListFilter, restrictDepartment string) ([]*risk.Risk, error) {
	var out []*risk.Risk
	for _, r := range m.risks {
		if restrictDepartment != "" {
			owned := r.OwnerDepartment == restrictDepartment
			shared := r.ContributorDepartment != nil && *r.ContributorDepartment == restrictDepartment
			if !owned && !shared {
				continue
			}
		}
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockRiskRepository) UpdateVersioned(tx *gorm.DB, r *risk.Risk, expectedVersion int) (bool, error) {
	stored, ok := m.risks[r.ID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	copied := *r
	m.risks[r.ID] = &copied
	return true, nil
}

func (m *mockRiskRepository) ArchiveSnapshot(tx *gorm.DB, snapshot *risk.Snapshot) error {
	if m.archiveErr != nil {
		return m.archiveErr
	}
	copied := *snapshot
	m.snapshots = append(m.snapshots, &copied)
	return nil
}

func (m *mockRiskRepository) ListSnapshots(riskID string) ([]*risk.Snapshot, error) {
	var out []*risk.Snapshot
	for _, s := range m.snapshots {
		if s.RiskID == riskID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Mock audit ledger for testing
type mockLedger struct {
	entries []*audit.Entry
}

func (m *mockLedger) Append(tx *gorm.DB, entry *audit.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLedger) Trail(filter audit.TrailFilter) ([]*audit.Entry, error) {
	return m.entries, nil
}

func (m *mockLedger) byAction(action string) []*audit.Entry {
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func testDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	Expect(err).ToNot(HaveOccurred())
	return db
}

var _ = Describe("RiskService", func() {
	var (
		service *risk.Service
		repo    *mockRiskRepository
		ledger  *mockLedger
		manager internal.Actor
		trader  internal.Actor
		viewer  internal.Actor
	)

	validCreate := func() risk.CreateRiskDTO {
		return risk.CreateRiskDTO{
			Name:            "Forecast error on day-ahead load",
			Category:        string(risk.CategoryForecasting),
			Description:     "Systematic under-forecast of customer load",
			Owner:           "Head of Forecasting",
			OwnerDepartment: "Trading",
			Likelihood:      4,
			Impact:          risk.ImpactDTO{Financial: 4, Operational: 4, Regulatory: 2, Reputational: 2},
		}
	}

	BeforeEach(func() {
		repo = newMockRiskRepository()
		ledger = &mockLedger{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		manager = internal.Actor{UserID: 1, Username: "admin", Role: internal.RoleManager, Department: "Risk Management"}
		trader = internal.Actor{UserID: 2, Username: "trader", Role: internal.RoleContributor, Department: "Trading"}
		viewer = internal.Actor{UserID: 3, Username: "auditor", Role: internal.RoleViewer, Department: "Compliance"}

		service = risk.NewService(testDB(), repo, ledger, events.NewEventBus(logger), logger)
	})

	Describe("Create", func() {
		It("should start the lifecycle at version 1 with derived scores", func() {
			created, err := service.Create(manager, validCreate())

			Expect(err).ToNot(HaveOccurred())
			Expect(created.ID).To(HavePrefix("RISK-"))
			Expect(created.Version).To(Equal(1))
			Expect(created.Status).To(Equal(risk.StatusIdentified))
			Expect(created.InherentScore).To(Equal(12))
			Expect(created.ResidualScore).To(Equal(12))
			Expect(created.RiskLevel).To(Equal(risk.LevelMedium))

			Expect(ledger.byAction(audit.ActionCreate)).To(HaveLen(1))
		})

		It("should let contributors create risks for their own department", func() {
			created, err := service.Create(trader, validCreate())

			Expect(err).ToNot(HaveOccurred())
			Expect(created.OwnerDepartment).To(Equal("Trading"))
		})

		It("should deny contributors creating risks for other departments", func() {
			dto := validCreate()
			dto.OwnerDepartment = "Finance"

			_, err := service.Create(trader, dto)

			Expect(err).To(MatchError(internal.ErrPermissionDenied))
			Expect(ledger.entries).To(BeEmpty())
		})

		It("should deny viewers without touching storage", func() {
			_, err := service.Create(viewer, validCreate())

			Expect(err).To(MatchError(internal.ErrPermissionDenied))
			Expect(repo.risks).To(BeEmpty())
			Expect(ledger.entries).To(BeEmpty())
		})

		It("should reject an out-of-scale likelihood", func() {
			dto := validCreate()
			dto.Likelihood = 6

			_, err := service.Create(manager, dto)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		var id string

		BeforeEach(func() {
			created, err := service.Create(manager, validCreate())
			Expect(err).ToNot(HaveOccurred())
			id = created.ID
		})

		It("should return a visible risk", func() {
			got, err := service.Get(trader, id)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.ID).To(Equal(id))
		})

		It("should hide cross-department risks from contributors", func() {
			finance := internal.Actor{UserID: 4, Username: "fin", Role: internal.RoleContributor, Department: "Finance"}

			_, err := service.Get(finance, id)
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})

		It("should report unknown ids as not found", func() {
			_, err := service.Get(manager, "RISK-MISSING1")
			Expect(err).To(MatchError(internal.ErrRiskNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			_, err := service.Create(manager, validCreate())
			Expect(err).ToNot(HaveOccurred())

			other := validCreate()
			other.Name = "Budget overrun"
			other.OwnerDepartment = "Finance"
			_, err = service.Create(manager, other)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should restrict contributors to their own department", func() {
			risks, err := service.List(trader, risk.ListFilter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(risks).To(HaveLen(1))
			Expect(risks[0].OwnerDepartment).To(Equal("Trading"))
		})

		It("should give managers the full register", func() {
			risks, err := service.List(manager, risk.ListFilter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(risks).To(HaveLen(2))
		})
	})

	Describe("Update", func() {
		var current *risk.Risk

		BeforeEach(func() {
			created, err := service.Create(manager, validCreate())
			Expect(err).ToNot(HaveOccurred())
			current = created
		})

		It("should bump the version by exactly one and archive the pre-state", func() {
			name := "Forecast error on day-ahead load (revised)"
			updated, err := service.Update(manager, current.ID, risk.UpdateRiskDTO{
				ExpectedVersion: 1,
				Name:            &name,
				ChangeReason:    "Quarterly review",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Version).To(Equal(2))
			Expect(updated.Name).To(Equal(name))

			Expect(repo.snapshots).To(HaveLen(1))
			snapshot := repo.snapshots[0]
			Expect(snapshot.Version).To(Equal(1))
			Expect(snapshot.Risk.Name).To(Equal(current.Name))
			Expect(snapshot.ChangeReason).To(Equal("Quarterly review"))

			Expect(ledger.byAction(audit.ActionUpdate)).To(HaveLen(1))
		})

		It("should recompute derived scores from the new assessment", func() {
			adjL, adjI := 2, 2
			updated, err := service.Update(manager, current.ID, risk.UpdateRiskDTO{
				ExpectedVersion:    1,
				AdjustedLikelihood: &adjL,
				AdjustedImpact:     &adjI,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.ResidualScore).To(Equal(4))
			Expect(updated.RiskLevel).To(Equal(risk.LevelLow))
		})

		It("should reject a stale version without writing anything", func() {
			name := "first writer"
			_, err := service.Update(manager, current.ID, risk.UpdateRiskDTO{ExpectedVersion: 1, Name: &name})
			Expect(err).ToNot(HaveOccurred())

			stale := "second writer"
			_, err = service.Update(manager, current.ID, risk.UpdateRiskDTO{ExpectedVersion: 1, Name: &stale})

			Expect(err).To(MatchError(internal.ErrVersionConflict))
			Expect(repo.risks[current.ID].Name).To(Equal("first writer"))
			Expect(repo.snapshots).To(HaveLen(1))
			Expect(ledger.byAction(audit.ActionUpdate)).To(HaveLen(1))
		})

		It("should require the expected version", func() {
			_, err := service.Update(manager, current.ID, risk.UpdateRiskDTO{})
			Expect(err).To(HaveOccurred())
		})

		It("should deny viewers", func() {
			name := "tampered"
			_, err := service.Update(viewer, current.ID, risk.UpdateRiskDTO{ExpectedVersion: 1, Name: &name})
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})
	})

	Describe("Close", func() {
		var current *risk.Risk

		BeforeEach(func() {
			created, err := service.Create(manager, validCreate())
			Expect(err).ToNot(HaveOccurred())
			current = created
		})

		It("should transition to Closed through the versioned path", func() {
			closed, err := service.Close(manager, current.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(closed.Status).To(Equal(risk.StatusClosed))
			Expect(closed.Version).To(Equal(2))

			Expect(repo.snapshots).To(HaveLen(1))
			Expect(ledger.byAction(audit.ActionClose)).To(HaveLen(1))
		})

		It("should reject closing an already closed risk", func() {
			_, err := service.Close(manager, current.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Close(manager, current.ID)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
		})

		It("should keep the closed risk readable", func() {
			_, err := service.Close(manager, current.ID)
			Expect(err).ToNot(HaveOccurred())

			got, err := service.Get(manager, current.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.IsClosed()).To(BeTrue())
		})
	})

	Describe("History", func() {
		It("should return one snapshot per applied update", func() {
			created, err := service.Create(manager, validCreate())
			Expect(err).ToNot(HaveOccurred())

			for i, name := range []string{"rev one", "rev two"} {
				n := name
				_, err = service.Update(manager, created.ID, risk.UpdateRiskDTO{ExpectedVersion: i + 1, Name: &n})
				Expect(err).ToNot(HaveOccurred())
			}

			history, err := service.History(manager, created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Version).To(Equal(1))
			Expect(history[1].Version).To(Equal(2))
		})

		It("should apply department isolation", func() {
			created, err := service.Create(manager, validCreate())
			Expect(err).ToNot(HaveOccurred())

			finance := internal.Actor{UserID: 4, Username: "fin", Role: internal.RoleContributor, Department: "Finance"}
			_, err = service.History(finance, created.ID)
			Expect(err).To(MatchError(internal.ErrPermissionDenied))
		})
	})
})
