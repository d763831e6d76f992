package postgres_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	datamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/risk"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
	riskpg "github.com/eslam-almahdy/RSS-1.0/internal/risk/postgres"
)

func TestRiskRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Risk Repository Suite")
}

var _ = Describe("RiskRepository", func() {
	var (
		db   *gorm.DB
		repo risk.Repository
	)

	newRisk := func(id, department string) *risk.Risk {
		shared := "Portfolio Management"
		r := &risk.Risk{
			ID:                    id,
			Name:                  "Intraday price spike exposure",
			Category:              risk.CategoryMarket,
			Description:           "Open intraday positions during scarcity hours",
			Owner:                 "Head of Trading",
			OwnerDepartment:       department,
			ContributorDepartment: &shared,
			Causes:                []string{"forecast error", "plant outage"},
			Triggers:              []string{"scarcity pricing"},
			AffectedProcesses:     []string{"intraday trading"},
			Likelihood:            3,
			Impact:                risk.ImpactAssessment{Financial: 5, Operational: 3, Regulatory: 2, Reputational: 2},
			Controls: []risk.Control{
				{ID: "CTL-1", Description: "Position limits", Type: "Preventive", Effectiveness: "Effective"},
			},
			Status:        risk.StatusIdentified,
			LastReviewed:  time.Now(),
			CreatedBy:     "admin",
			CreatedAt:     time.Now(),
			LastUpdatedBy: "admin",
			UpdatedAt:     time.Now(),
			Version:       1,
		}
		r.Recalculate()
		return r
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).ToNot(HaveOccurred())

		err = db.AutoMigrate(&datamodel.Risk{}, &datamodel.Version{})
		Expect(err).ToNot(HaveOccurred())

		repo = riskpg.NewRiskRepository(db)
	})

	Describe("Create and GetByID", func() {
		It("should round-trip the full register entry", func() {
			original := newRisk("RISK-AAAA0001", "Trading")
			Expect(repo.Create(db, original)).To(Succeed())

			got, err := repo.GetByID("RISK-AAAA0001")

			Expect(err).ToNot(HaveOccurred())
			Expect(got.Name).To(Equal(original.Name))
			Expect(got.Category).To(Equal(risk.CategoryMarket))
			Expect(got.Causes).To(Equal(original.Causes))
			Expect(got.Triggers).To(Equal(original.Triggers))
			Expect(got.Impact).To(Equal(original.Impact))
			Expect(got.Controls).To(HaveLen(1))
			Expect(got.Controls[0].ID).To(Equal("CTL-1"))
			Expect(got.ResidualScore).To(Equal(original.ResidualScore))
			Expect(got.Version).To(Equal(1))
			Expect(got.ContributorDepartment).ToNot(BeNil())
			Expect(*got.ContributorDepartment).To(Equal("Portfolio Management"))
		})

		It("should report a missing id as not found", func() {
			_, err := repo.GetByID("RISK-MISSING1")
			Expect(err).To(MatchError(internal.ErrRiskNotFound))
		})

		It("should surface corrupt category data as a consistency error", func() {
			original := newRisk("RISK-AAAA0002", "Trading")
			Expect(repo.Create(db, original)).To(Succeed())

			err := db.Model(&datamodel.Risk{}).
				Where("risk_id = ?", original.ID).
				Update("category", "Not A Category").Error
			Expect(err).ToNot(HaveOccurred())

			_, err = repo.GetByID(original.ID)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDataCorrupted))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			trading := newRisk("RISK-AAAA0003", "Trading")
			trading.AdjustedLikelihood = 4
			trading.AdjustedImpact = 5
			trading.Recalculate()
			Expect(repo.Create(db, trading)).To(Succeed())

			finance := newRisk("RISK-AAAA0004", "Finance")
			finance.ContributorDepartment = nil
			finance.AdjustedLikelihood = 1
			finance.AdjustedImpact = 2
			finance.Recalculate()
			Expect(repo.Create(db, finance)).To(Succeed())
		})

		It("should order by residual score descending", func() {
			risks, err := repo.List(risk.ListFilter{}, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(risks).To(HaveLen(2))
			Expect(risks[0].ID).To(Equal("RISK-AAAA0003"))
			Expect(risks[1].ID).To(Equal("RISK-AAAA0004"))
		})

		It("should restrict to owner or contributor department", func() {
			risks, err := repo.List(risk.ListFilter{}, "Portfolio Management")

			Expect(err).ToNot(HaveOccurred())
			Expect(risks).To(HaveLen(1))
			Expect(risks[0].ID).To(Equal("RISK-AAAA0003"))
		})

		It("should apply the explicit department filter", func() {
			risks, err := repo.List(risk.ListFilter{Department: "Finance"}, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(risks).To(HaveLen(1))
			Expect(risks[0].OwnerDepartment).To(Equal("Finance"))
		})

		It("should filter by category and level", func() {
			risks, err := repo.List(risk.ListFilter{Category: string(risk.CategoryMarket), Level: string(risk.LevelCritical)}, "")

			Expect(err).ToNot(HaveOccurred())
			Expect(risks).To(HaveLen(1))
			Expect(risks[0].RiskLevel).To(Equal(risk.LevelCritical))
		})
	})

	Describe("UpdateVersioned", func() {
		var stored *risk.Risk

		BeforeEach(func() {
			stored = newRisk("RISK-AAAA0005", "Trading")
			Expect(repo.Create(db, stored)).To(Succeed())
		})

		It("should apply when the stored version matches", func() {
			updated := *stored
			updated.Name = "Intraday price spike exposure (revised)"
			updated.Version = 2

			applied, err := repo.UpdateVersioned(db, &updated, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeTrue())

			got, err := repo.GetByID(stored.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Name).To(Equal(updated.Name))
			Expect(got.Version).To(Equal(2))
		})

		It("should refuse when the stored version has advanced", func() {
			updated := *stored
			updated.Version = 2
			applied, err := repo.UpdateVersioned(db, &updated, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeTrue())

			stale := *stored
			stale.Name = "stale writer"
			stale.Version = 2
			applied, err = repo.UpdateVersioned(db, &stale, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeFalse())

			got, err := repo.GetByID(stored.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Name).ToNot(Equal("stale writer"))
		})

		It("should never touch created-by and created-date", func() {
			updated := *stored
			updated.CreatedBy = "intruder"
			updated.Version = 2

			applied, err := repo.UpdateVersioned(db, &updated, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(applied).To(BeTrue())

			got, err := repo.GetByID(stored.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.CreatedBy).To(Equal("admin"))
		})
	})

	Describe("Snapshots", func() {
		It("should archive and list snapshots oldest first", func() {
			stored := newRisk("RISK-AAAA0006", "Trading")
			Expect(repo.Create(db, stored)).To(Succeed())

			for v := 1; v <= 2; v++ {
				archived := *stored
				archived.Version = v
				err := repo.ArchiveSnapshot(db, &risk.Snapshot{
					RiskID:       stored.ID,
					Version:      v,
					Risk:         &archived,
					ChangedBy:    "admin",
					ChangedAt:    time.Now(),
					ChangeReason: "Updated risk",
				})
				Expect(err).ToNot(HaveOccurred())
			}

			snapshots, err := repo.ListSnapshots(stored.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(snapshots).To(HaveLen(2))
			Expect(snapshots[0].Version).To(Equal(1))
			Expect(snapshots[1].Version).To(Equal(2))
			Expect(snapshots[0].Risk.Name).To(Equal(stored.Name))
			Expect(snapshots[0].ChangeReason).To(Equal("Updated risk"))
		})

		It("should surface a corrupt snapshot as a consistency error", func() {
			err := db.Create(&datamodel.Version{
				RiskID:       "RISK-AAAA0007",
				Version:      1,
				SnapshotJSON: "{not json",
				ChangedBy:    "admin",
				ChangedAt:    time.Now(),
			}).Error
			Expect(err).ToNot(HaveOccurred())

			_, err = repo.ListSnapshots("RISK-AAAA0007")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeDataCorrupted))
		})
	})
})
