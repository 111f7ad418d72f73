package models

import "time"

// Specialty is a healthcare provider's clinical specialty
type Specialty string

const (
	SpecialtyOncology      Specialty = "Oncology"
	SpecialtyCardiology    Specialty = "Cardiology"
	SpecialtyPulmonology   Specialty = "Pulmonology"
	SpecialtyEndocrinology Specialty = "Endocrinology"
)

// HealthcareProvider is a CRM record for an HCP in the rep's territory
type HealthcareProvider struct {
	ID                 string     `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	Specialty          Specialty  `json:"specialty" db:"specialty"`
	Organization       string     `json:"organization" db:"organization"`
	City               string     `json:"city" db:"city"`
	State              string     `json:"state" db:"state"`
	NPINumber          string     `json:"npiNumber" db:"npi_number"`
	PriorityScore      int        `json:"priorityScore" db:"priority_score"` // 1-100
	TotalOpportunity   float64    `json:"totalOpportunity" db:"total_opportunity"`
	LastVisitDate      *time.Time `json:"lastVisitDate,omitempty" db:"last_visit_date"`
	NextVisitScheduled *time.Time `json:"nextVisitScheduled,omitempty" db:"next_visit_scheduled"`
}

// TableName returns the table name for the HealthcareProvider model
func (HealthcareProvider) TableName() string {
	return "hcps"
}

// SpendSummary is an HCP's transfer-of-value total for one calendar year
type SpendSummary struct {
	HCPID            string  `json:"hcpId" db:"hcp_id"`
	Year             int     `json:"year" db:"year"`
	MealSpendYTD     float64 `json:"mealSpendYtd" db:"meal_spend_ytd"`
	InteractionCount int     `json:"interactionCount" db:"interaction_count"`
}

// TableName returns the table name for the SpendSummary model
func (SpendSummary) TableName() string {
	return "hcp_meal_spend"
}

// HCPProfile combines a provider with their current spend
type HCPProfile struct {
	Provider HealthcareProvider `json:"provider"`
	Spend    SpendSummary       `json:"spend"`
}
