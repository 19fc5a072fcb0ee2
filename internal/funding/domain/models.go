// Package domain contains the funding opportunity model and service
// contract. Opportunities are ingested by an external pipeline; this side is
// read-mostly.
package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

type FundingOpportunity struct {
	ID int64 `gorm:"primaryKey"`

	Title             string `gorm:"size:500;not null"`
	Description       string `gorm:"type:text"`
	DonorOrganization string `gorm:"size:255"`
	FundingType       string `gorm:"size:100"`

	AmountMin             *float64
	AmountMax             *float64
	Currency              string `gorm:"size:10"`
	TotalFundingAvailable *float64

	EligibilityCriteria datatypes.JSONSlice[string]
	GeographicFocus     datatypes.JSONSlice[string]
	FocusAreas          datatypes.JSONSlice[string]
	OrganizationTypes   datatypes.JSONSlice[string]

	ApplicationDeadline *time.Time
	FundingStartDate    *time.Time
	FundingEndDate      *time.Time

	ApplicationProcess string `gorm:"type:text"`
	RequiredDocuments  datatypes.JSONSlice[string]
	ApplicationURL     string `gorm:"size:1000"`

	Keywords      datatypes.JSONSlice[string]
	PriorityScore *float64

	SourceURL  string `gorm:"size:1000"`
	SourceType string `gorm:"size:100"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	IsActive   bool `gorm:"not null;default:true"`
	IsArchived bool `gorm:"not null;default:false"`
}

// TableName sets the database table name.
func (FundingOpportunity) TableName() string { return "funding_opportunities" }

// Snapshot freezes the fields a proposal needs to remain interpretable after
// the opportunity changes or is withdrawn.
func (o FundingOpportunity) Snapshot() datatypes.JSONMap {
	snapshot := datatypes.JSONMap{
		"id":                 o.ID,
		"title":              o.Title,
		"donor_organization": o.DonorOrganization,
		"funding_type":       o.FundingType,
		"currency":           o.Currency,
		"focus_areas":        []string(o.FocusAreas),
		"geographic_focus":   []string(o.GeographicFocus),
		"keywords":           []string(o.Keywords),
	}
	if o.AmountMin != nil {
		snapshot["amount_min"] = *o.AmountMin
	}
	if o.AmountMax != nil {
		snapshot["amount_max"] = *o.AmountMax
	}
	if o.ApplicationDeadline != nil {
		snapshot["application_deadline"] = o.ApplicationDeadline.UTC().Format(time.RFC3339)
	}
	return snapshot
}

var ErrNotFound = errors.New("funding_opportunity_not_found")
