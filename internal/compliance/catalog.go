package compliance

import (
	"fmt"
	"strings"
)

const (
	workflowMIR = "MIR Process: Log request → Medical Affairs review → Direct response to HCP"
	workflowCAP = "CAP Process: Submit request 30 days prior → Compliance review → Approval required"
)

// Catalog is an immutable, ordered set of policies. Order is significant: it
// breaks ties between categories of equal severity.
type Catalog struct {
	policies []PolicyLimit
	index    map[Category]int
}

// NewCatalog validates and copies policies into a catalog
func NewCatalog(policies []PolicyLimit) (*Catalog, error) {
	if len(policies) == 0 {
		return nil, fmt.Errorf("catalog has no policies")
	}

	c := &Catalog{
		policies: make([]PolicyLimit, 0, len(policies)),
		index:    make(map[Category]int, len(policies)),
	}
	ids := make(map[string]bool, len(policies))

	for i, p := range policies {
		if err := validatePolicy(p); err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, p.ID, err)
		}
		if _, dup := c.index[p.Category]; dup {
			return nil, fmt.Errorf("policy %d (%s): duplicate category %q", i, p.ID, p.Category)
		}
		if ids[p.ID] {
			return nil, fmt.Errorf("policy %d: duplicate id %q", i, p.ID)
		}
		ids[p.ID] = true
		c.index[p.Category] = len(c.policies)
		c.policies = append(c.policies, p.clone())
	}

	return c, nil
}

func validatePolicy(p PolicyLimit) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if p.Severity < SeverityInfo || p.Severity > SeverityStop {
		return fmt.Errorf("invalid severity %d", p.Severity)
	}
	if fixed, ok := p.Category.FixedSeverity(); ok && p.Severity != fixed {
		return fmt.Errorf("category %s must have severity %s, got %s", p.Category, fixed, p.Severity)
	}
	if p.Amount < 0 || p.AnnualCap < 0 {
		return fmt.Errorf("amounts must be non-negative")
	}
	if p.AnnualWarnRatio < 0 || p.AnnualWarnRatio > 1 {
		return fmt.Errorf("annual warn ratio must be within [0, 1]")
	}
	if p.Category == CategoryMealSpend && p.Amount <= 0 {
		return fmt.Errorf("meal spend policy needs a positive per-HCP amount")
	}
	for _, kw := range p.Keywords {
		if kw == "" {
			return fmt.Errorf("empty keyword")
		}
		if kw != strings.ToLower(kw) {
			return fmt.Errorf("keyword %q must be lowercase", kw)
		}
	}
	return nil
}

// Get returns the policy for a category or ErrPolicyNotFound
func (c *Catalog) Get(category Category) (PolicyLimit, error) {
	i, ok := c.index[category]
	if !ok {
		return PolicyLimit{}, fmt.Errorf("%w: %s", ErrPolicyNotFound, category)
	}
	return c.policies[i].clone(), nil
}

// GetByID looks a policy up by its identifier (e.g. "POL-001")
func (c *Catalog) GetByID(id string) (PolicyLimit, error) {
	for _, p := range c.policies {
		if strings.EqualFold(p.ID, id) {
			return p.clone(), nil
		}
	}
	return PolicyLimit{}, fmt.Errorf("%w: %s", ErrPolicyNotFound, id)
}

// List returns all policies in catalog order
func (c *Catalog) List() []PolicyLimit {
	out := make([]PolicyLimit, len(c.policies))
	for i, p := range c.policies {
		out[i] = p.clone()
	}
	return out
}

// Len returns the number of policies
func (c *Catalog) Len() int {
	return len(c.policies)
}

// at returns the stored policy without copying; callers must not mutate it.
func (c *Catalog) at(category Category) (*PolicyLimit, bool) {
	i, ok := c.index[category]
	if !ok {
		return nil, false
	}
	return &c.policies[i], true
}

// DefaultPolicies is the built-in policy table
func DefaultPolicies() []PolicyLimit {
	return []PolicyLimit{
		{
			ID:              "POL-001",
			Name:            "Meal Spend Limit Policy",
			Category:        CategoryMealSpend,
			LimitType:       "per HCP",
			Amount:          125,
			AnnualCap:       1350,
			AnnualWarnRatio: 0.8,
			Keywords: []string{
				"expense", "$500", "dinner", "capital grille", "capital grill",
				"lunch with", "take dr", "meal", "reimbursement", "food", "restaurant",
			},
			Severity: SeverityWarning,
			Message:  "Query mentions spending that may exceed the $125 per HCP meal limit",
			Alternatives: []string{
				"Propose a lower-cost venue",
				"Reduce the number of attendees",
				"Split the engagement across multiple smaller meetings",
			},
			ReferenceURL: "https://astraZeneca.policies.com/meal-spend",
			Description:  "Meals with HCPs must not exceed $125 per HCP per interaction or $1,350 per HCP per year.",
		},
		{
			ID:               "POL-002",
			Name:             "Speaker Chairperson Honorarium Policy",
			Category:         CategorySpeakerHonorarium,
			LimitType:        "per engagement",
			Amount:           250,
			Keywords:         []string{"speaker", "honorarium", "chairperson", "presentation fee"},
			Severity:         SeverityWarning,
			ApprovalRequired: true,
			ApprovalWorkflow: workflowCAP,
			Message:          "Query references speaker programs which require CAP approval",
			Alternatives: []string{
				"Submit a Compliance Approval Process (CAP) request before confirming payment",
			},
			ReferenceURL: "https://astraZeneca.policies.com/speaker-programs",
			Description:  "Chairperson honoraria are capped at $250 per engagement and require CAP approval.",
		},
		{
			ID:       "POL-003",
			Name:     "Off-Label Discussion Policy",
			Category: CategoryOffLabel,
			Keywords: []string{
				"off-label", "off label", "unapproved indication", "unapproved use", "unapproved tumor",
				"draft an email", "write an email", "send an email", "create an email",
			},
			Severity:         SeverityStop,
			ApprovalRequired: true,
			ApprovalWorkflow: workflowMIR,
			Message:          "Query contains references to off-label discussions or unapproved indications",
			Alternatives: []string{
				"Route the question through the Medical Information Request (MIR) process",
				"Do not answer off-label questions directly",
			},
			ReferenceURL: "https://astraZeneca.policies.com/off-label",
			Description:  "Representatives may not proactively discuss unapproved uses or indications.",
		},
		{
			ID:       "POL-004",
			Name:     "Adverse Event Reporting Policy",
			Category: CategoryAdverseEvent,
			Keywords: []string{"adverse event", "side effect", "reaction", "patient died", "hospitalization"},
			Severity: SeverityStop,
			Message:  "Query may reference an adverse event requiring immediate reporting",
			Alternatives: []string{
				"Report immediately via the 24-hour adverse event hotline (1-800-AZ-SAFE)",
				"Do not assess causality or give medical advice",
			},
			ReferenceURL: "https://astraZeneca.policies.com/adverse-events",
			Description:  "Any adverse event must be reported to Pharmacovigilance within 24 hours of awareness.",
		},
		{
			ID:       "POL-005",
			Name:     "Unsolicited Medical Request Policy",
			Category: CategoryMedicalInformation,
			Keywords: []string{"medical information request", "mir", "unpublished data", "clinical study"},
			Severity: SeverityInfo,
			Message:  "Query may require routing to Medical Affairs via MIR process",
			Alternatives: []string{
				"Log the question as a Medical Information Request (MIR)",
				"Expect a Medical Affairs response within 3-5 business days",
			},
			ReferenceURL: "https://astraZeneca.policies.com/medical-information",
			Description:  "Unsolicited requests for medical information are routed to Medical Affairs.",
		},
	}
}

// DefaultCatalog returns the catalog built from DefaultPolicies
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPolicies())
	if err != nil {
		panic(fmt.Sprintf("compliance: invalid default catalog: %v", err))
	}
	return c
}
