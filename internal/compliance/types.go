package compliance

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies a compliance policy area
type Category string

const (
	CategoryMealSpend          Category = "meal_spend"
	CategorySpeakerHonorarium  Category = "speaker_honorarium"
	CategoryOffLabel           Category = "off_label"
	CategoryAdverseEvent       Category = "adverse_event"
	CategoryMedicalInformation Category = "medical_information"
)

// Categories returns every known category in default catalog order
func Categories() []Category {
	return []Category{
		CategoryMealSpend,
		CategorySpeakerHonorarium,
		CategoryOffLabel,
		CategoryAdverseEvent,
		CategoryMedicalInformation,
	}
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// FixedSeverity reports the severity a category always resolves to. Meal spend
// has none: its level comes from the spend evaluation.
func (c Category) FixedSeverity() (Severity, bool) {
	switch c {
	case CategoryOffLabel, CategoryAdverseEvent:
		return SeverityStop, true
	case CategorySpeakerHonorarium:
		return SeverityWarning, true
	case CategoryMedicalInformation:
		return SeverityInfo, true
	default:
		return SeverityInfo, false
	}
}

// Severity is the ordered outcome level of a match. Stop > Warning > Info.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityStop
)

func (s Severity) String() string {
	switch s {
	case SeverityStop:
		return "stop"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity parses the lowercase text form of a severity
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "stop":
		return SeverityStop, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ErrPolicyNotFound is returned when a category has no policy in the catalog.
// Callers treat it as "no policy constraint", never as a pass.
var ErrPolicyNotFound = errors.New("policy not found")

// PolicyLimit is one catalog entry
type PolicyLimit struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Category  Category `json:"category" yaml:"category"`
	LimitType string   `json:"limitType,omitempty" yaml:"limit_type,omitempty"`
	Amount    float64  `json:"amount,omitempty" yaml:"amount,omitempty"`

	// AnnualCap is the per-HCP yearly ceiling; only meaningful for meal spend.
	AnnualCap float64 `json:"annualCap,omitempty" yaml:"annual_cap,omitempty"`

	// AnnualWarnRatio is the fraction of AnnualCap at which "approaching" fires.
	AnnualWarnRatio float64 `json:"annualWarnRatio,omitempty" yaml:"annual_warn_ratio,omitempty"`

	Keywords         []string `json:"keywords" yaml:"keywords"`
	Severity         Severity `json:"severity" yaml:"severity"`
	ApprovalRequired bool     `json:"approvalRequired" yaml:"approval_required"`
	ApprovalWorkflow string   `json:"approvalWorkflow,omitempty" yaml:"approval_workflow,omitempty"`
	Message          string   `json:"message" yaml:"message"`
	Alternatives     []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	ReferenceURL     string   `json:"referenceUrl,omitempty" yaml:"reference_url,omitempty"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Reference is the citation used in decisions, e.g. "POL-003: Off-Label Discussion Policy"
func (p PolicyLimit) Reference() string {
	return p.ID + ": " + p.Name
}

func (p PolicyLimit) clone() PolicyLimit {
	p.Keywords = append([]string(nil), p.Keywords...)
	p.Alternatives = append([]string(nil), p.Alternatives...)
	return p
}

// SpendCheckInput describes a proposed HCP meal
type SpendCheckInput struct {
	ProposedAmount  float64 `json:"proposedAmount" validate:"gte=0"`
	HCPCount        int     `json:"hcpCount" validate:"gte=1"`
	VenueHint       string  `json:"venueHint,omitempty" validate:"max=200"`
	YTDAmountForHCP float64 `json:"ytdAmountForHcp" validate:"gte=0"`
}

// SpendCheckResult is the outcome of a meal spend evaluation
type SpendCheckResult struct {
	PerHCPAmount    float64  `json:"perHcpAmount"`
	LimitPerHCP     float64  `json:"limitPerHcp"`
	WithinLimit     bool     `json:"withinLimit"`
	OverageAmount   float64  `json:"overageAmount"`
	ExpensiveVenue  bool     `json:"expensiveVenue"`
	AnnualTotal     float64  `json:"annualTotal"`
	AnnualCap       float64  `json:"annualCap,omitempty"`
	PolicyMissing   bool     `json:"policyMissing,omitempty"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// HasWarnings reports whether the evaluation produced any warning
func (r SpendCheckResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// CategoryMatch lists the keywords that matched for one category
type CategoryMatch struct {
	Category Category `json:"category"`
	Keywords []string `json:"keywords"`
}

// TextScanResult holds matches in catalog order
type TextScanResult struct {
	Matches []CategoryMatch `json:"matches"`
}

// Matched returns the matched keywords for a category, or nil
func (r TextScanResult) Matched(c Category) []string {
	for _, m := range r.Matches {
		if m.Category == c {
			return m.Keywords
		}
	}
	return nil
}

// Categories returns the matched categories in catalog order
func (r TextScanResult) Categories() []Category {
	out := make([]Category, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.Category)
	}
	return out
}

// Decision is the merged verdict for one query
type Decision struct {
	IsCompliant           bool              `json:"isCompliant"`
	Level                 Severity          `json:"level"`
	PrimaryCategory       Category          `json:"primaryCategory,omitempty"`
	Violations            []string          `json:"violations"`
	Warnings              []string          `json:"warnings"`
	Notes                 []string          `json:"notes"`
	SuggestedAlternatives []string          `json:"suggestedAlternatives"`
	PolicyReferences      []string          `json:"policyReferences"`
	RequiresApproval      bool              `json:"requiresApproval"`
	ApprovalWorkflow      *string           `json:"approvalWorkflow"`
	MatchedKeywords       []CategoryMatch   `json:"matchedKeywords"`
	Spend                 *SpendCheckResult `json:"spend,omitempty"`
}

// Blocking reports whether the query must not be forwarded
func (d Decision) Blocking() bool {
	return d.Level == SeverityStop
}
