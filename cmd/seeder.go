package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
	userdm "github.com/eslam-almahdy/RSS-1.0/internal/core/datamodel/user"
	"github.com/eslam-almahdy/RSS-1.0/internal/dependency"
	dependencyPostgres "github.com/eslam-almahdy/RSS-1.0/internal/dependency/postgres"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
	riskPostgres "github.com/eslam-almahdy/RSS-1.0/internal/risk/postgres"
	"github.com/spf13/cobra"
)

// riskTemplate is a starter entry for the energy supply process register.
type riskTemplate struct {
	name              string
	category          risk.Category
	description       string
	causes            []string
	affectedProcesses []string
	likelihood        int
	impact            risk.ImpactAssessment
}

var energySupplyTemplates = []riskTemplate{
	{
		name:        "Demand/Generation Forecast Error",
		category:    risk.CategoryForecasting,
		description: "Inaccurate forecasts lead to imbalanced positions and market exposure",
		causes: []string{
			"Weather model limitations",
			"Insufficient historical data",
			"Model parameter errors",
			"Extreme weather events",
		},
		affectedProcesses: []string{"Forecasting", "Trading", "Position Management"},
		likelihood:        4,
		impact:            risk.ImpactAssessment{Financial: 4, Operational: 3, Regulatory: 2, Reputational: 2},
	},
	{
		name:        "Intraday Price Spike",
		category:    risk.CategoryMarket,
		description: "Sudden price increases in intraday market increase procurement costs",
		causes: []string{
			"Supply shortage in market",
			"Unexpected outages",
			"High demand period",
			"Market manipulation",
		},
		affectedProcesses: []string{"Trading", "Portfolio Balancing", "Financial Management"},
		likelihood:        3,
		impact:            risk.ImpactAssessment{Financial: 5, Operational: 2, Regulatory: 2, Reputational: 3},
	},
	{
		name:        "ReBAP Penalty Exposure",
		category:    risk.CategoryOperational,
		description: "Imbalance penalties due to delivery shortfall or surplus",
		causes: []string{
			"Forecast error",
			"Generation unavailability",
			"Failed intraday trades",
			"Timing errors",
		},
		affectedProcesses: []string{"Operations", "Trading", "Finance"},
		likelihood:        3,
		impact:            risk.ImpactAssessment{Financial: 4, Operational: 4, Regulatory: 3, Reputational: 2},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a default administrator and starter risks for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			// Dev convenience only. The audit log stays untouched even here.
			for _, table := range []string{"risk_interdependencies", "risk_history", "risks", "sessions"} {
				if err := gormDB.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared risk and session data")
		}

		vault := auth.NewCredentialVault(cfg.Security.KDFIterations)

		var managerCount int64
		if err := gormDB.Model(&userdm.User{}).Where("role = ?", string(internal.RoleManager)).Count(&managerCount).Error; err != nil {
			log.Fatalf("failed to count managers: %v", err)
		}

		if managerCount == 0 {
			hash, salt, err := vault.Hash("admin123", "")
			if err != nil {
				log.Fatalf("failed to hash default password: %v", err)
			}
			admin := userdm.User{
				Username:     "admin",
				PasswordHash: hash,
				Salt:         salt,
				FullName:     "System Administrator",
				Email:        "admin@company.com",
				Role:         string(internal.RoleManager),
				Department:   "Risk Management",
				IsActive:     true,
				CreatedAt:    time.Now(),
			}
			if err := gormDB.Create(&admin).Error; err != nil {
				log.Fatalf("failed to insert default admin: %v", err)
			}
			fmt.Println("Default admin user created: username='admin', password='admin123' (change it)")
		} else {
			fmt.Println("A risk manager already exists; skipping default admin")
		}

		var riskCount int64
		if err := gormDB.Table("risks").Count(&riskCount).Error; err != nil {
			log.Fatalf("failed to count risks: %v", err)
		}
		if riskCount > 0 {
			fmt.Println("Register already holds risks; skipping starter data")
			return
		}

		riskRepo := riskPostgres.NewRiskRepository(gormDB)
		now := time.Now()
		ids := make([]string, 0, len(energySupplyTemplates))

		for _, t := range energySupplyTemplates {
			review := now.AddDate(0, 3, 0)
			r := &risk.Risk{
				ID:                risk.NewID(),
				Name:              t.name,
				Category:          t.category,
				Description:       t.description,
				Owner:             "System Administrator",
				OwnerDepartment:   "Risk Management",
				Causes:            t.causes,
				AffectedProcesses: t.affectedProcesses,
				Likelihood:        t.likelihood,
				Impact:            t.impact,
				Status:            risk.StatusIdentified,
				LastReviewed:      now,
				NextReviewDue:     &review,
				CreatedBy:         "admin",
				CreatedAt:         now,
				LastUpdatedBy:     "admin",
				UpdatedAt:         now,
				Version:           1,
			}
			r.Recalculate()

			if err := riskRepo.Create(gormDB, r); err != nil {
				log.Fatalf("failed to seed risk %q: %v", t.name, err)
			}
			ids = append(ids, r.ID)
			fmt.Printf("Seeded risk: %s (%s, residual %d)\n", r.Name, r.ID, r.ResidualScore)
		}

		// Forecast errors drive imbalance penalties; price spikes amplify them.
		depRepo := dependencyPostgres.NewDependencyRepository(gormDB)
		edges := []*dependency.Interdependency{
			{
				SourceRiskID:     ids[0],
				TargetRiskID:     ids[2],
				Relationship:     dependency.RelationshipCauses,
				ImpactMultiplier: 1.5,
				Description:      "Forecast error creates open positions that settle as imbalance penalties",
				CreatedBy:        "admin",
				CreatedAt:        now,
			},
			{
				SourceRiskID:     ids[1],
				TargetRiskID:     ids[2],
				Relationship:     dependency.RelationshipAmplifies,
				ImpactMultiplier: 1.3,
				Description:      "Price spikes raise the cost of closing imbalances",
				CreatedBy:        "admin",
				CreatedAt:        now,
			},
		}
		for _, e := range edges {
			if err := depRepo.Create(gormDB, e); err != nil {
				log.Fatalf("failed to seed interdependency: %v", err)
			}
		}

		fmt.Println("Starter risks and interdependencies seeded successfully")
	},
}
