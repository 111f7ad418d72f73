package compliance

import (
	"time"

	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
)

// Procedure names accepted by GetProcedure
const (
	ProcedureAdverseEvent      = "adverse-event"
	ProcedureSpeakerHonorarium = "speaker-honorarium"
	ProcedureMIR               = "mir"
)

// Procedure is a step-by-step playbook for a compliance workflow
type Procedure struct {
	Name                 string                  `json:"name"`
	Title                string                  `json:"title"`
	Description          string                  `json:"description,omitempty"`
	Policy               *compliance.PolicyLimit `json:"policy,omitempty"`
	Hotline              string                  `json:"hotline,omitempty"`
	Timeframe            string                  `json:"timeframe,omitempty"`
	StandardHonorarium   float64                 `json:"standardHonorarium,omitempty"`
	ApprovalRequired     bool                    `json:"approvalRequired"`
	WhenToUse            []string                `json:"whenToUse,omitempty"`
	RequiredInformation  []string                `json:"requiredInformation,omitempty"`
	Requirements         []string                `json:"requirements,omitempty"`
	Steps                []string                `json:"steps"`
	DoNotDo              []string                `json:"doNotDo"`
	ExpectedResponseTime string                  `json:"expectedResponseTime,omitempty"`
}

// PolicyUpdate announces a change to a compliance policy
type PolicyUpdate struct {
	ID             string    `json:"id"`
	PolicyID       string    `json:"policyId"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	ChangeType     string    `json:"changeType"`
	Summary        string    `json:"summary"`
	Impact         string    `json:"impact"`
	EffectiveDate  time.Time `json:"effectiveDate"`
	AnnouncedDate  time.Time `json:"announcedDate"`
	ActionRequired bool      `json:"actionRequired"`
	Actions        []string  `json:"actions"`
}

func procedureTemplates() map[string]Procedure {
	return map[string]Procedure{
		ProcedureAdverseEvent: {
			Name:      ProcedureAdverseEvent,
			Title:     "Adverse Event Reporting",
			Hotline:   "1-800-AZ-SAFE (Pharmacovigilance & Safety)",
			Timeframe: "Within 24 hours of becoming aware of the event",
			RequiredInformation: []string{
				"Patient initials (or code)",
				"Age and gender",
				"Description of adverse event",
				"Product name and dose",
				"Indication for use",
				"Reporter contact information",
			},
			Steps: []string{
				"Call 1-800-AZ-SAFE immediately",
				"Do NOT attempt to determine if the product caused the event",
				"Provide all known information to PVCS",
				"Document the reference number provided",
				"Follow up with any additional information as it becomes available",
				"Record the report in your CRM system",
			},
			DoNotDo: []string{
				"Do not delay reporting",
				"Do not filter out what seems minor",
				"Do not attempt to assess causality yourself",
				"Do not provide medical advice to the patient",
				"Do not promise compensation or admit fault",
			},
		},
		ProcedureSpeakerHonorarium: {
			Name:  ProcedureSpeakerHonorarium,
			Title: "Speaker Program Honorarium",
			Steps: []string{
				"Submit CAP (Compliance Approval Process) request",
				"Include speaker CV and expertise justification",
				"Provide event agenda and learning objectives",
				"Complete Fair Market Value assessment",
				"Wait for approval before confirming with speaker",
				"Execute speaker agreement",
			},
			Requirements: []string{
				"Speaker must have clinical expertise in the topic",
				"Content must be educational, not promotional",
				"Event must be documented with attendance sign-in",
				"Speaker evaluation form required",
				"Fair Market Value documentation required",
			},
			DoNotDo: []string{
				"Paying without CAP approval",
				"Exceeding Fair Market Value",
				"Payments to non-clinical speakers for clinical topics",
				"Honorariums for promotional-only events",
			},
		},
		ProcedureMIR: {
			Name:        ProcedureMIR,
			Title:       "Unsolicited Medical Information Request (MIR)",
			Description: "Unsolicited Medical Information Request (MIR) process for handling HCP inquiries about off-label uses or unpublished clinical data",
			WhenToUse: []string{
				"HCP asks about off-label indications",
				"Request for unpublished clinical trial data",
				"Questions about comparator studies",
				"Mechanism of action inquiries beyond approved labeling",
				"Requests for medical vs. promotional information",
			},
			Steps: []string{
				"Confirm the request is truly unsolicited (not prompted by field rep)",
				"Do NOT provide any medical information yourself",
				"Log the request in the MIR system immediately",
				"Provide HCP with expected response timeframe (usually 3-5 business days)",
				"Medical Affairs will respond directly to the HCP",
				"Document the MIR reference number in your CRM",
				"Follow up to ensure HCP received Medical Affairs response",
			},
			DoNotDo: []string{
				"Do not attempt to answer off-label questions",
				"Do not provide clinical trial data yourself",
				"Do not interpret study results for the HCP",
				"Do not forward published materials without Medical Affairs review",
				"Do not promise that Medical Affairs will provide specific information",
			},
			ExpectedResponseTime: "3-5 business days from MIR submission",
		},
	}
}

// procedureCategory links a procedure to the catalog policy it implements
var procedureCategory = map[string]compliance.Category{
	ProcedureAdverseEvent:      compliance.CategoryAdverseEvent,
	ProcedureSpeakerHonorarium: compliance.CategorySpeakerHonorarium,
	ProcedureMIR:               compliance.CategoryMedicalInformation,
}

func defaultPolicyUpdates() []PolicyUpdate {
	return []PolicyUpdate{
		{
			ID:             "UPD-003",
			PolicyID:       "POL-006",
			Title:          "Virtual Meeting Guidelines",
			Category:       "Meal Spend",
			ChangeType:     "New",
			Summary:        "New policy establishing guidelines for virtual meetings and meals, including limits on food delivery during virtual educational sessions.",
			Impact:         "Provides framework for compliant virtual engagement. Limits food delivery to $25 per HCP for virtual events.",
			EffectiveDate:  date("2026-01-15"),
			AnnouncedDate:  date("2025-12-20"),
			ActionRequired: true,
			Actions: []string{
				"Review virtual meeting policy before scheduling",
				"Update virtual event planning process",
				"Complete virtual compliance training",
			},
		},
		{
			ID:             "UPD-002",
			PolicyID:       "POL-004",
			Title:          "Adverse Event Reporting Timeline Clarification",
			Category:       "Adverse Events",
			ChangeType:     "Updated",
			Summary:        "Clarified that 24-hour reporting window is measured from when the field rep becomes aware of the event, not when it occurred.",
			Impact:         "Provides clearer guidance on reporting timeline. No change to the 24-hour requirement itself.",
			EffectiveDate:  date("2025-12-01"),
			AnnouncedDate:  date("2025-11-15"),
			ActionRequired: true,
			Actions: []string{
				"Complete updated compliance training module",
				"Review AE reporting procedure",
				"Update documentation practices",
			},
		},
		{
			ID:             "UPD-001",
			PolicyID:       "POL-001",
			Title:          "Meal Spend Limit Adjustment",
			Category:       "Meal Spend",
			ChangeType:     "Updated",
			Summary:        "Meal spend limit increased from $120 to $125 per HCP to align with inflation and industry standards.",
			Impact:         "Allows slightly higher meal expenses while maintaining compliance. Documentation requirements unchanged.",
			EffectiveDate:  date("2025-11-15"),
			AnnouncedDate:  date("2025-11-01"),
			ActionRequired: true,
			Actions: []string{
				"Review new limit before scheduling meals",
				"Update expense reporting templates",
				"Acknowledge policy update in compliance training",
			},
		},
	}
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
