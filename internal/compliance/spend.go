package compliance

import (
	"fmt"
	"math"
	"strings"
)

const (
	msgAuditTrigger     = "This would trigger a compliance audit."
	msgExpensiveVenue   = "High-end venue may exceed per-HCP limit even with modest orders"
	recCheaperVenue     = "Consider a less expensive venue"
	recFewerAttendees   = "Reduce the number of attendees if possible"
	recReviewPolicyStem = "Review the policy at: "
)

// DefaultExpensiveVenues lists venue names where per-item pricing makes the
// per-HCP limit easy to exceed.
func DefaultExpensiveVenues() []string {
	return []string{"capital grille", "ruth's chris", "morton's", "del frisco's", "prime 112"}
}

// SpendEvaluator checks proposed HCP meals against the meal spend policy
type SpendEvaluator struct {
	catalog *Catalog
	venues  []string
}

// NewSpendEvaluator creates an evaluator bound to a catalog. A nil venues
// slice selects DefaultExpensiveVenues.
func NewSpendEvaluator(catalog *Catalog, venues []string) *SpendEvaluator {
	if venues == nil {
		venues = DefaultExpensiveVenues()
	}
	normalized := make([]string, 0, len(venues))
	for _, v := range venues {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			normalized = append(normalized, v)
		}
	}
	return &SpendEvaluator{catalog: catalog, venues: normalized}
}

// EvaluateMealSpend computes the per-HCP cost of a proposed meal and compares it
// to the per-interaction limit and the annual per-HCP cap. It never fails:
// hcpCount below 1 is treated as 1 and negative or non-finite amounts as 0.
func (e *SpendEvaluator) EvaluateMealSpend(in SpendCheckInput) SpendCheckResult {
	in = sanitizeSpend(in)

	result := SpendCheckResult{
		PerHCPAmount:    in.ProposedAmount / float64(in.HCPCount),
		Warnings:        []string{},
		Recommendations: []string{},
	}

	policy, ok := e.catalog.at(CategoryMealSpend)
	if !ok {
		result.PolicyMissing = true
		result.AnnualTotal = in.YTDAmountForHCP + result.PerHCPAmount
		return result
	}

	limit := policy.Amount
	result.LimitPerHCP = limit
	result.WithinLimit = result.PerHCPAmount <= limit
	result.OverageAmount = math.Max(0, result.PerHCPAmount-limit)

	if !result.WithinLimit {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Proposed spend exceeds the %s per HCP limit by %s", usd(limit), usd(result.OverageAmount)),
			msgAuditTrigger,
		)
		result.Recommendations = append(result.Recommendations, recCheaperVenue, recFewerAttendees)
		if policy.ReferenceURL != "" {
			result.Recommendations = append(result.Recommendations, recReviewPolicyStem+policy.ReferenceURL)
		}
	}

	if e.isExpensiveVenue(in.VenueHint) {
		result.ExpensiveVenue = true
		result.Warnings = append(result.Warnings, msgExpensiveVenue)
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("Verify total cost per person will be under %s", usd(limit)))
	}

	// The full proposed amount counts toward the annual cap, not the per-HCP share.
	result.AnnualTotal = in.YTDAmountForHCP + in.ProposedAmount
	if policy.AnnualCap > 0 {
		result.AnnualCap = policy.AnnualCap
		switch {
		case result.AnnualTotal > policy.AnnualCap:
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Annual spend for this HCP would reach %s, exceeding the %s annual cap by %s",
				usd(result.AnnualTotal), usd(policy.AnnualCap), usd(result.AnnualTotal-policy.AnnualCap)))
		case policy.AnnualWarnRatio > 0 && result.AnnualTotal >= policy.AnnualCap*policy.AnnualWarnRatio:
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Annual spend for this HCP would reach %s, approaching the %s annual cap",
				usd(result.AnnualTotal), usd(policy.AnnualCap)))
		}
	}

	return result
}

func (e *SpendEvaluator) isExpensiveVenue(hint string) bool {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return false
	}
	for _, v := range e.venues {
		if strings.Contains(hint, v) {
			return true
		}
	}
	return false
}

func sanitizeSpend(in SpendCheckInput) SpendCheckInput {
	if in.HCPCount < 1 {
		in.HCPCount = 1
	}
	in.ProposedAmount = nonNegative(in.ProposedAmount)
	in.YTDAmountForHCP = nonNegative(in.YTDAmountForHCP)
	return in
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func usd(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
