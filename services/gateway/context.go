package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// dataContext renders live territory data for the tab. Lookup failures drop
// the section rather than failing the chat.
func (g *Gateway) dataContext(ctx context.Context, tab TabType, hcpID string) string {
	switch tab {
	case TabCRM:
		return g.crmContext(ctx, hcpID)
	case TabCompliance:
		return g.complianceContext()
	default:
		return ""
	}
}

func (g *Gateway) crmContext(ctx context.Context, hcpID string) string {
	if g.data == nil {
		return ""
	}
	logger := observability.FromContext(ctx, g.logger)

	var b strings.Builder
	b.WriteString("\n**Current CRM Context:**\n")

	top, err := g.data.TopHCPs(ctx, g.cfg.ContextAccounts)
	if err != nil {
		logger.Warn("failed to load priority accounts for context", zap.Error(err))
		return ""
	}
	b.WriteString("- Top Priority Accounts:\n")
	for i, h := range top {
		usd.Fprintf(&b, "  %d. %s (%s) - $%.0f opportunity - Score: %d\n",
			i+1, h.Name, h.Specialty, h.TotalOpportunity, h.PriorityScore)
	}

	if hcpID == "" {
		return b.String()
	}
	hcp, err := g.data.GetHCP(ctx, hcpID)
	if err != nil {
		logger.Warn("failed to load selected HCP for context", zap.String("hcp_id", hcpID), zap.Error(err))
		return b.String()
	}
	usd.Fprintf(&b, "- Selected HCP: %s, %s (%s, %s)\n", hcp.Name, hcp.Organization, hcp.City, hcp.State)
	if hcp.LastVisitDate != nil {
		usd.Fprintf(&b, "  Last contact: %s\n", hcp.LastVisitDate.Format(time.DateOnly))
	}

	spend, err := g.data.GetSpendSummary(ctx, hcp.ID, time.Now().Year())
	if err != nil {
		logger.Warn("failed to load HCP spend for context", zap.String("hcp_id", hcp.ID), zap.Error(err))
		return b.String()
	}
	usd.Fprintf(&b, "  Meal spend YTD: $%.2f", spend.MealSpendYTD)
	if annualCap := g.mealCap(); annualCap > 0 {
		usd.Fprintf(&b, " of $%.0f annual cap", annualCap)
	}
	b.WriteString("\n")
	return b.String()
}

func (g *Gateway) complianceContext() string {
	policies := g.checker.ListPolicies()
	updates := g.checker.PolicyUpdates(0)

	cats := make([]string, 0, len(policies))
	for _, p := range policies {
		cats = append(cats, string(p.Category))
	}

	var b strings.Builder
	b.WriteString("\n**Current Compliance Context:**\n")
	usd.Fprintf(&b, "- Active Policies: %d guidelines available\n", len(policies))
	usd.Fprintf(&b, "- Key Policy Areas: %s\n", strings.Join(cats, ", "))
	if len(updates) > 0 {
		usd.Fprintf(&b, "- Recent Updates: %d policy changes\n", len(updates))
		usd.Fprintf(&b, "- Latest Update: %s (effective %s)\n", updates[0].Title, updates[0].EffectiveDate.Format(time.DateOnly))
		if updates[0].ActionRequired {
			b.WriteString("- Action Required: review recent policy updates\n")
		}
	}
	return b.String()
}

func (g *Gateway) mealCap() float64 {
	for _, p := range g.checker.ListPolicies() {
		if p.Category == compliance.CategoryMealSpend {
			return p.AnnualCap
		}
	}
	return 0
}
