// Package domain contains the NGO profile model and service contract.
package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// NGOProfile is the full organization profile. One active profile per user;
// deletion is a soft deactivate so history survives.
type NGOProfile struct {
	ID     string `gorm:"type:uuid;primaryKey"`
	UserID string `gorm:"size:255;not null;uniqueIndex"`

	OrganizationName string                      `gorm:"size:500;not null"`
	MissionStatement string                      `gorm:"type:text;not null"`
	FocusAreas       datatypes.JSONSlice[string] `gorm:"not null"`
	GeographicScope  datatypes.JSONSlice[string] `gorm:"not null"`

	FoundedYear        *int
	OrganizationType   string `gorm:"size:100"`
	RegistrationNumber string `gorm:"size:100"`
	Website            string `gorm:"size:500"`

	ContactPerson string `gorm:"size:255"`
	ContactEmail  string `gorm:"size:255"`
	ContactPhone  string `gorm:"size:50"`
	Address       string `gorm:"type:text"`

	ProgramsServices    datatypes.JSONSlice[string]
	TargetBeneficiaries datatypes.JSONSlice[string]
	AnnualBudgetRange   string `gorm:"size:100"`
	StaffSize           string `gorm:"size:100"`

	PastProjects      datatypes.JSONType[[]PastProject]
	Partnerships      datatypes.JSONSlice[string]
	AwardsRecognition datatypes.JSONSlice[string]

	FundingSources  datatypes.JSONSlice[string]
	GrantExperience string `gorm:"type:text"`

	CompletenessScore int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	IsActive   bool `gorm:"not null;default:true"`
	IsVerified bool `gorm:"not null;default:false"`
}

// PastProject is one structured entry in the past projects list. The
// simplified upsert path stores free text as a single entry.
type PastProject struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TableName sets the database table name.
func (NGOProfile) TableName() string { return "ngo_profiles" }

var (
	ErrNotFound      = errors.New("profile_not_found")
	ErrAlreadyExists = errors.New("profile_already_exists")
	ErrInvalidInput  = errors.New("invalid_profile_input")
)
