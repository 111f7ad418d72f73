package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConcernStatus tracks a logged compliance concern
type ConcernStatus string

const (
	ConcernStatusUnderReview ConcernStatus = "Under Review"
	ConcernStatusResolved    ConcernStatus = "Resolved"
)

// ConcernSeverity is the rep's own assessment of a concern
type ConcernSeverity string

const (
	ConcernSeverityLow    ConcernSeverity = "low"
	ConcernSeverityMedium ConcernSeverity = "medium"
	ConcernSeverityHigh   ConcernSeverity = "high"
)

// ExpectedConcernResponse is the acknowledgement returned to the rep
const ExpectedConcernResponse = "Compliance team will respond within 1-2 business days"

// ComplianceConcern is a rep-submitted question or self-report for the compliance team
type ComplianceConcern struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Description      string          `json:"description"`
	Severity         ConcernSeverity `json:"severity"`
	RelatedQuery     string          `json:"relatedQuery,omitempty"`
	HCPID            string          `json:"hcpId,omitempty"`
	RequestID        string          `json:"requestId,omitempty"`
	Status           ConcernStatus   `json:"status"`
	ExpectedResponse string          `json:"expectedResponse"`
	SubmittedAt      time.Time       `json:"submittedAt"`
}

// NewComplianceConcern creates a concern in the Under Review state
func NewComplianceConcern(concernType, description string, severity ConcernSeverity) *ComplianceConcern {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	return &ComplianceConcern{
		ID:               fmt.Sprintf("CONCERN-%s", id),
		Type:             concernType,
		Description:      description,
		Severity:         severity,
		Status:           ConcernStatusUnderReview,
		ExpectedResponse: ExpectedConcernResponse,
		SubmittedAt:      time.Now().UTC(),
	}
}
