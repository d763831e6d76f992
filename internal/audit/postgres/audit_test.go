package postgres_test

import (
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	auditpg "github.com/eslam-almahdy/RSS-1.0/internal/audit/postgres"
	auditDatamodel "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/audit"
)

func TestAuditLedger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Ledger Suite")
}

var _ = Describe("Ledger", func() {
	var (
		db     *gorm.DB
		ledger audit.Ledger
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).ToNot(HaveOccurred())

		err = db.AutoMigrate(&auditDatamodel.Entry{})
		Expect(err).ToNot(HaveOccurred())

		ledger = auditpg.NewLedger(db)
	})

	Describe("Append", func() {
		It("should persist the entry and backfill its id", func() {
			userID := int64(1)
			entry := audit.NewEntry(&userID, "admin", audit.ActionCreate, audit.EntityRisk, "RISK-AAAA0001", "CREATE risk: test")

			Expect(ledger.Append(nil, entry)).To(Succeed())
			Expect(entry.ID).ToNot(BeZero())

			trail, err := ledger.Trail(audit.TrailFilter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(1))
			Expect(trail[0].Username).To(Equal("admin"))
			Expect(trail[0].Action).To(Equal(audit.ActionCreate))
			Expect(trail[0].UserID).ToNot(BeNil())
			Expect(*trail[0].UserID).To(Equal(int64(1)))
		})

		It("should roll back with the enclosing transaction", func() {
			err := db.Transaction(func(tx *gorm.DB) error {
				entry := audit.NewEntry(nil, "admin", audit.ActionCreate, audit.EntityRisk, "RISK-AAAA0001", "doomed")
				if err := ledger.Append(tx, entry); err != nil {
					return err
				}
				return fmt.Errorf("mutation failed")
			})
			Expect(err).To(HaveOccurred())

			trail, err := ledger.Trail(audit.TrailFilter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(BeEmpty())
		})
	})

	Describe("Trail", func() {
		appendAt := func(action, entityType, entityID string, at time.Time) {
			entry := audit.NewEntry(nil, "admin", action, entityType, entityID, "")
			entry.Timestamp = at
			Expect(ledger.Append(nil, entry)).To(Succeed())
		}

		base := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

		BeforeEach(func() {
			appendAt(audit.ActionCreate, audit.EntityRisk, "RISK-AAAA0001", base)
			appendAt(audit.ActionUpdate, audit.EntityRisk, "RISK-AAAA0001", base.Add(time.Hour))
			appendAt(audit.ActionCreate, audit.EntityUser, "7", base.Add(2*time.Hour))
		})

		It("should return entries newest first", func() {
			trail, err := ledger.Trail(audit.TrailFilter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(3))
			Expect(trail[0].EntityType).To(Equal(audit.EntityUser))
			Expect(trail[2].Action).To(Equal(audit.ActionCreate))
			Expect(trail[2].EntityID).To(Equal("RISK-AAAA0001"))
		})

		It("should filter by entity", func() {
			trail, err := ledger.Trail(audit.TrailFilter{EntityType: audit.EntityRisk, EntityID: "RISK-AAAA0001"})

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(2))
			for _, e := range trail {
				Expect(e.EntityType).To(Equal(audit.EntityRisk))
			}
		})

		It("should filter by time window", func() {
			trail, err := ledger.Trail(audit.TrailFilter{
				From: base.Add(30 * time.Minute),
				To:   base.Add(90 * time.Minute),
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(1))
			Expect(trail[0].Action).To(Equal(audit.ActionUpdate))
		})

		It("should honour an explicit limit", func() {
			trail, err := ledger.Trail(audit.TrailFilter{Limit: 2})

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(2))
		})

		It("should cap unbounded reads at the default limit", func() {
			for i := 0; i < audit.DefaultTrailLimit+10; i++ {
				appendAt(audit.ActionLogin, audit.EntitySession, fmt.Sprintf("tok%05d", i), base.Add(time.Duration(i)*time.Second))
			}

			trail, err := ledger.Trail(audit.TrailFilter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(trail).To(HaveLen(audit.DefaultTrailLimit))
		})
	})
})
