package coaching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
)

func TestPreamble(t *testing.T) {
	tests := []struct {
		level      compliance.Severity
		wantBanner string
	}{
		{compliance.SeverityStop, StopBanner},
		{compliance.SeverityWarning, CautionBanner},
		{compliance.SeverityInfo, ""},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got := Preamble(tt.level)
			if tt.wantBanner == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, "COACHING MODE IS ENABLED")
			assert.Contains(t, got, `"`+tt.wantBanner+`"`)
			assert.Equal(t, got, Preamble(tt.level))
		})
	}

	assert.NotContains(t, Preamble(compliance.SeverityWarning), StopBanner)
}

func TestCardPresenter_Present(t *testing.T) {
	holder := compliance.NewHolder(compliance.DefaultCatalog())
	engine := compliance.NewEngineWithSource(holder)
	p := NewCardPresenter(holder)

	t.Run("off-label blocks", func(t *testing.T) {
		card := p.Present(engine.Decide("draft an email about off-label dosing", nil))

		assert.Equal(t, VariantStop, card.Variant)
		assert.True(t, card.Blocking)
		assert.Equal(t, "Off-Label Discussion Guardrail", card.Header)
		require.GreaterOrEqual(t, len(card.Actions), 3)
		assert.Equal(t, Action{Kind: ActionLogMIR, Label: "Log as Medical Request (MIR)"}, card.Actions[0])
		assert.Equal(t, ActionCancel, card.Actions[1].Kind)
		assert.Equal(t, ActionViewPolicy, card.Actions[2].Kind)
		assert.Equal(t, "https://astraZeneca.policies.com/off-label", card.Actions[2].URL)
	})

	t.Run("meal spend warns", func(t *testing.T) {
		card := p.Present(engine.Decide("dinner at capital grille",
			&compliance.SpendCheckInput{ProposedAmount: 500, HCPCount: 1, VenueHint: "capital grille"}))

		assert.Equal(t, VariantWarning, card.Variant)
		assert.False(t, card.Blocking)
		assert.Equal(t, "Spend Limit Alert", card.Header)
		assert.Equal(t, ActionFindVenue, card.Actions[0].Kind)
		assert.Contains(t, strings.Join(card.Body, "\n"), "$375.00")
	})

	t.Run("speaker asks for CAP", func(t *testing.T) {
		card := p.Present(engine.Decide("chairperson honorarium", nil))

		assert.Equal(t, ActionSubmitCAP, card.Actions[0].Kind)
		assert.Equal(t, []string{"POL-002: Speaker Chairperson Honorarium Policy"}, card.Policies)
	})

	t.Run("nothing matched", func(t *testing.T) {
		card := p.Present(engine.Decide("top accounts this week", nil))

		assert.Equal(t, VariantInfo, card.Variant)
		assert.Equal(t, "No Compliance Concerns", card.Header)
		assert.Empty(t, card.Body)
		assert.Empty(t, card.Actions)
		assert.False(t, card.Blocking)
	})
}

func TestCardPresenter_NilCatalog(t *testing.T) {
	d := compliance.NewEngine(compliance.DefaultCatalog()).Decide("patient hospitalization", nil)
	card := NewCardPresenter(nil).Present(d)

	assert.Equal(t, "Adverse Event Reporting Required", card.Header)
	for _, a := range card.Actions {
		assert.NotEqual(t, ActionViewPolicy, a.Kind)
	}
}
