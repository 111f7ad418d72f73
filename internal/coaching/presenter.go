package coaching

import (
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
)

// Variant is the visual treatment of a card
type Variant string

const (
	VariantStop    Variant = "stop"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// ActionKind tells the client what an action button does
type ActionKind string

const (
	ActionLogMIR     ActionKind = "log_mir"
	ActionSubmitCAP  ActionKind = "submit_cap"
	ActionReport     ActionKind = "report_adverse_event"
	ActionFindVenue  ActionKind = "find_venue"
	ActionViewPolicy ActionKind = "view_policy"
	ActionCancel     ActionKind = "cancel"
	ActionSuggestion ActionKind = "suggestion"
)

// Action is a button on a coaching card
type Action struct {
	Kind  ActionKind `json:"kind"`
	Label string     `json:"label"`
	URL   string     `json:"url,omitempty"`
}

// Card is the client-facing rendering of a decision
type Card struct {
	Variant  Variant  `json:"variant"`
	Header   string   `json:"header"`
	Body     []string `json:"body"`
	Actions  []Action `json:"actions"`
	Blocking bool     `json:"blocking"`
	Policies []string `json:"policies,omitempty"`
}

// Presenter turns a decision into a card. It sees only the decision.
type Presenter interface {
	Present(d compliance.Decision) Card
}

// CardPresenter is the default Presenter
type CardPresenter struct {
	catalog compliance.CatalogSource
}

// NewCardPresenter creates a presenter. catalog is used only to resolve
// policy reference links and may be nil.
func NewCardPresenter(catalog compliance.CatalogSource) *CardPresenter {
	return &CardPresenter{catalog: catalog}
}

var headers = map[compliance.Category]string{
	compliance.CategoryMealSpend:          "Spend Limit Alert",
	compliance.CategorySpeakerHonorarium:  "Speaker Program Approval Needed",
	compliance.CategoryOffLabel:           "Off-Label Discussion Guardrail",
	compliance.CategoryAdverseEvent:       "Adverse Event Reporting Required",
	compliance.CategoryMedicalInformation: "Medical Information Request",
}

// Present implements Presenter
func (p *CardPresenter) Present(d compliance.Decision) Card {
	card := Card{
		Variant:  variantFor(d.Level),
		Header:   headers[d.PrimaryCategory],
		Body:     []string{},
		Actions:  []Action{},
		Blocking: d.Blocking(),
		Policies: d.PolicyReferences,
	}
	if card.Header == "" {
		card.Header = "No Compliance Concerns"
	}

	card.Body = append(card.Body, d.Violations...)
	card.Body = append(card.Body, d.Warnings...)
	card.Body = append(card.Body, d.Notes...)

	card.Actions = append(card.Actions, p.primaryActions(d)...)
	for _, alt := range d.SuggestedAlternatives {
		card.Actions = append(card.Actions, Action{Kind: ActionSuggestion, Label: alt})
	}

	return card
}

func (p *CardPresenter) primaryActions(d compliance.Decision) []Action {
	var actions []Action

	switch d.PrimaryCategory {
	case compliance.CategoryOffLabel:
		actions = append(actions,
			Action{Kind: ActionLogMIR, Label: "Log as Medical Request (MIR)"},
			Action{Kind: ActionCancel, Label: "Cancel Draft"})
	case compliance.CategoryAdverseEvent:
		actions = append(actions, Action{Kind: ActionReport, Label: "Report to 1-800-AZ-SAFE"})
	case compliance.CategorySpeakerHonorarium:
		if d.RequiresApproval {
			actions = append(actions, Action{Kind: ActionSubmitCAP, Label: "Submit CAP Request"})
		}
	case compliance.CategoryMealSpend:
		if d.Level >= compliance.SeverityWarning {
			actions = append(actions, Action{Kind: ActionFindVenue, Label: "Find Compliant Venues"})
		}
	case compliance.CategoryMedicalInformation:
		actions = append(actions, Action{Kind: ActionLogMIR, Label: "Log as Medical Request (MIR)"})
	default:
		return nil
	}

	if url := p.referenceURL(d.PrimaryCategory); url != "" {
		actions = append(actions, Action{Kind: ActionViewPolicy, Label: "View Policy", URL: url})
	}
	return actions
}

func (p *CardPresenter) referenceURL(c compliance.Category) string {
	if p.catalog == nil {
		return ""
	}
	catalog := p.catalog.Load()
	if catalog == nil {
		return ""
	}
	policy, err := catalog.Get(c)
	if err != nil {
		return ""
	}
	return policy.ReferenceURL
}

func variantFor(level compliance.Severity) Variant {
	switch level {
	case compliance.SeverityStop:
		return VariantStop
	case compliance.SeverityWarning:
		return VariantWarning
	default:
		return VariantInfo
	}
}
