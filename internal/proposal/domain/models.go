// Package domain contains the proposal model and the orchestrator contract.
package domain

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Proposal statuses. Only draft is assigned by the system; the rest are set
// by the user through Update.
const (
	StatusDraft     = "draft"
	StatusReviewed  = "reviewed"
	StatusFinalized = "finalized"
	StatusSubmitted = "submitted"
)

// Proposal is one generated grant proposal with its generation metadata,
// quality scores and user interaction history.
type Proposal struct {
	ID                   string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               string `gorm:"size:255;not null;index" json:"user_id"`
	NGOProfileID         string `gorm:"type:uuid" json:"ngo_profile_id,omitempty"`
	FundingOpportunityID *int64 `gorm:"index" json:"funding_opportunity_id,omitempty"`

	Title            string `gorm:"size:500;not null" json:"title"`
	Content          string `gorm:"type:text;not null" json:"content"`
	ExecutiveSummary string `gorm:"type:text" json:"executive_summary,omitempty"`

	GenerationPrompt    string    `gorm:"type:text;not null" json:"-"`
	DonorTemplateUsed   string    `gorm:"size:255" json:"donor_template_used,omitempty"`
	AIModelUsed         string    `gorm:"size:100;not null" json:"ai_model_used"`
	GenerationTimestamp time.Time `gorm:"not null" json:"generation_timestamp"`

	ConfidenceScore   *float64 `json:"confidence_score,omitempty"`
	AlignmentScore    *float64 `json:"alignment_score,omitempty"`
	CompletenessScore *float64 `json:"completeness_score,omitempty"`

	UserRating   *int           `json:"user_rating,omitempty"`
	UserFeedback string         `gorm:"type:text" json:"user_feedback,omitempty"`
	EditHistory  datatypes.JSON `json:"edit_history,omitempty"`

	Status  string `gorm:"size:50;not null;default:draft" json:"status"`
	Version int    `gorm:"not null;default:1" json:"version"`

	ExportedFormats datatypes.JSONSlice[string] `json:"exported_formats,omitempty"`
	ExportCount     int                         `gorm:"not null;default:0" json:"export_count"`
	LastExportedAt  *time.Time                  `json:"last_exported_at,omitempty"`

	FundingOpportunitySnapshot datatypes.JSONMap `json:"funding_opportunity_snapshot,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	IsActive   bool `gorm:"not null;default:true" json:"-"`
	IsArchived bool `gorm:"not null;default:false" json:"is_archived"`
}

// TableName sets the database table name.
func (Proposal) TableName() string { return "proposals" }

// EditRecord is one entry in a proposal's edit history.
type EditRecord struct {
	Timestamp string         `json:"timestamp"`
	Changes   map[string]any `json:"changes"`
	Version   int            `json:"version"`
}

// RateLimitError reports which per-minute budget was exhausted. The HTTP
// layer surfaces it as 429 with the action and limit in the details.
type RateLimitError struct {
	Action string
	Limit  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d per minute", e.Action, e.Limit)
}

var (
	ErrNotFound            = errors.New("proposal_not_found")
	ErrProfileRequired     = errors.New("profile_required")
	ErrOpportunityNotFound = errors.New("funding_opportunity_not_found")
	ErrInvalidInput        = errors.New("invalid_generation_input")
	ErrInvalidRating       = errors.New("invalid_rating")
	ErrInvalidStatus       = errors.New("invalid_status")
)
