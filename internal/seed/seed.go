// Package seed bootstraps sample funding opportunities for non-production
// environments so the generate flow works out of the box.
package seed

import (
	"context"
	"errors"
	"time"

	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureSampleOpportunities inserts a small fixed catalogue of opportunities
// when their IDs are absent. Idempotent across restarts.
func EnsureSampleOpportunities(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, opportunity := range sampleOpportunities() {
			var existing fundingdomain.FundingOpportunity
			err := tx.WithContext(ctx).Where("id = ?", opportunity.ID).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.WithContext(ctx).Create(&opportunity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func sampleOpportunities() []fundingdomain.FundingOpportunity {
	now := time.Now().UTC()
	deadline := now.AddDate(0, 3, 0)
	amountMin := 25000.0
	amountMax := 150000.0
	priority := 0.8

	return []fundingdomain.FundingOpportunity{
		{
			ID:                  1,
			Title:               "Community Water and Sanitation Grant",
			Description:         "Grants for community-led water, sanitation and hygiene programs in East Africa.",
			DonorOrganization:   "Global Water Fund",
			FundingType:         "Grant",
			AmountMin:           &amountMin,
			AmountMax:           &amountMax,
			Currency:            "USD",
			GeographicFocus:     datatypes.NewJSONSlice([]string{"Kenya", "Uganda", "Tanzania"}),
			FocusAreas:          datatypes.NewJSONSlice([]string{"Water Access", "Sanitation"}),
			OrganizationTypes:   datatypes.NewJSONSlice([]string{"NGO", "Non-profit"}),
			Keywords:            datatypes.NewJSONSlice([]string{"water", "sanitation", "hygiene", "community"}),
			ApplicationDeadline: &deadline,
			PriorityScore:       &priority,
			CreatedAt:           now,
			UpdatedAt:           now,
			IsActive:            true,
		},
		{
			ID:                2,
			Title:             "Primary Education Innovation Fund",
			Description:       "Supports pilots improving learning outcomes in primary schools.",
			DonorOrganization: "Education Alliance",
			FundingType:       "Grant",
			Currency:          "EUR",
			GeographicFocus:   datatypes.NewJSONSlice([]string{"Global"}),
			FocusAreas:        datatypes.NewJSONSlice([]string{"Education"}),
			OrganizationTypes: datatypes.NewJSONSlice([]string{"NGO"}),
			Keywords:          datatypes.NewJSONSlice([]string{"education", "literacy", "teachers"}),
			CreatedAt:         now,
			UpdatedAt:         now,
			IsActive:          true,
		},
		{
			ID:                3,
			Title:             "Rural Health Outreach Fellowship",
			Description:       "Fellowships for organizations running mobile clinics and preventive care.",
			DonorOrganization: "HealthBridge Foundation",
			FundingType:       "Fellowship",
			Currency:          "USD",
			GeographicFocus:   datatypes.NewJSONSlice([]string{"South Asia"}),
			FocusAreas:        datatypes.NewJSONSlice([]string{"Health"}),
			OrganizationTypes: datatypes.NewJSONSlice([]string{"Non-profit"}),
			Keywords:          datatypes.NewJSONSlice([]string{"health", "clinic", "outreach", "prevention"}),
			CreatedAt:         now,
			UpdatedAt:         now,
			IsActive:          true,
		},
	}
}
