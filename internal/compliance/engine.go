package compliance

import (
	"fmt"
	"sort"
)

// CatalogSource yields the catalog to evaluate against. *Holder implements it.
type CatalogSource interface {
	Load() *Catalog
}

type staticSource struct{ c *Catalog }

func (s staticSource) Load() *Catalog { return s.c }

// Engine merges text signals and spend checks into a single Decision.
// It holds no mutable state; each call reads the catalog pointer once.
type Engine struct {
	source CatalogSource
	venues []string
}

// NewEngine creates an engine over a fixed catalog
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{source: staticSource{c: catalog}, venues: DefaultExpensiveVenues()}
}

// NewEngineWithSource creates an engine that follows a reloadable catalog
func NewEngineWithSource(source CatalogSource) *Engine {
	return &Engine{source: source, venues: DefaultExpensiveVenues()}
}

// WithExpensiveVenues returns a copy of the engine using a different venue list
func (e *Engine) WithExpensiveVenues(venues []string) *Engine {
	clone := *e
	clone.venues = append([]string{}, venues...)
	return &clone
}

// Catalog returns the catalog currently in effect
func (e *Engine) Catalog() *Catalog {
	return e.source.Load()
}

// EvaluateMealSpend runs the spend evaluator against the current catalog
func (e *Engine) EvaluateMealSpend(in SpendCheckInput) SpendCheckResult {
	return NewSpendEvaluator(e.source.Load(), e.venues).EvaluateMealSpend(in)
}

// Scan runs the text scanner against the current catalog
func (e *Engine) Scan(text string) TextScanResult {
	return NewScanner(e.source.Load()).Scan(text)
}

type finding struct {
	order    int
	category Category
	severity Severity
	policy   *PolicyLimit
	messages []string
}

// Decide classifies a query. spend is optional. Repeated calls with equal
// inputs against the same catalog return equal decisions.
func (e *Engine) Decide(text string, spend *SpendCheckInput) Decision {
	catalog := e.source.Load()
	scan := NewScanner(catalog).Scan(text)

	var spendResult *SpendCheckResult
	if spend != nil {
		r := NewSpendEvaluator(catalog, e.venues).EvaluateMealSpend(*spend)
		spendResult = &r
	}

	findings := collectFindings(catalog, scan, spendResult)
	d := Decision{
		IsCompliant:           true,
		Level:                 SeverityInfo,
		Violations:            []string{},
		Warnings:              []string{},
		Notes:                 []string{},
		SuggestedAlternatives: []string{},
		PolicyReferences:      []string{},
		MatchedKeywords:       scan.Matches,
		Spend:                 spendResult,
	}

	// A category without a policy cannot be checked; say so rather than pass it.
	for _, c := range Categories() {
		if _, ok := catalog.at(c); !ok {
			d.Notes = append(d.Notes, missingPolicyNote(c))
		}
	}
	if len(findings) == 0 {
		return d
	}

	for _, f := range findings {
		if f.severity > d.Level {
			d.Level = f.severity
		}
		switch f.severity {
		case SeverityStop:
			d.Violations = append(d.Violations, f.messages...)
		case SeverityWarning:
			d.Warnings = append(d.Warnings, f.messages...)
		default:
			d.Notes = append(d.Notes, f.messages...)
		}
	}
	// Warnings only accompany a warning-level decision. At stop the lesser
	// categories still show up in references and alternatives.
	if d.Level == SeverityStop {
		d.Warnings = []string{}
	}

	// Findings are already in catalog order, so the first at the top level wins.
	var primary *finding
	for i := range findings {
		if findings[i].severity == d.Level {
			primary = &findings[i]
			break
		}
	}
	d.PrimaryCategory = primary.category
	d.IsCompliant = d.Level < SeverityWarning

	ranked := append([]finding(nil), findings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].category == primary.category {
			return ranked[j].category != primary.category
		}
		if ranked[j].category == primary.category {
			return false
		}
		if ranked[i].severity != ranked[j].severity {
			return ranked[i].severity > ranked[j].severity
		}
		return ranked[i].order < ranked[j].order
	})

	seen := make(map[string]bool)
	for _, f := range ranked {
		d.PolicyReferences = append(d.PolicyReferences, f.policy.Reference())
		for _, alt := range f.policy.Alternatives {
			if !seen[alt] {
				seen[alt] = true
				d.SuggestedAlternatives = append(d.SuggestedAlternatives, alt)
			}
		}
	}

	d.RequiresApproval = d.Level == SeverityStop ||
		(d.Level == SeverityWarning && d.PrimaryCategory == CategorySpeakerHonorarium)
	if wf := primary.policy.ApprovalWorkflow; wf != "" {
		d.ApprovalWorkflow = &wf
	}

	return d
}

// collectFindings walks the catalog in order and resolves the effective
// severity of every triggered category.
func collectFindings(catalog *Catalog, scan TextScanResult, spend *SpendCheckResult) []finding {
	var findings []finding

	for i := range catalog.policies {
		p := &catalog.policies[i]
		textHit := len(scan.Matched(p.Category)) > 0

		if p.Category != CategoryMealSpend {
			if textHit {
				findings = append(findings, finding{
					order: i, category: p.Category, severity: p.Severity, policy: p,
					messages: []string{p.Message},
				})
			}
			continue
		}

		f, ok := mealFinding(p, textHit, spend)
		if ok {
			f.order = i
			findings = append(findings, f)
		}
	}

	return findings
}

// mealFinding derives meal spend severity from the evaluation: any spend
// warning is a Warning; a keyword hit with a clean, evaluated spend drops to
// Info; a keyword hit with no spend to check keeps the policy severity.
func mealFinding(p *PolicyLimit, textHit bool, spend *SpendCheckResult) (finding, bool) {
	f := finding{category: p.Category, policy: p}

	switch {
	case spend != nil && spend.HasWarnings():
		f.severity = SeverityWarning
		if textHit {
			f.messages = append(f.messages, p.Message)
		}
		f.messages = append(f.messages, spend.Warnings...)
	case spend != nil && textHit:
		f.severity = SeverityInfo
		f.messages = []string{fmt.Sprintf("Proposed spend of %s per HCP is within the %s limit",
			usd(spend.PerHCPAmount), usd(spend.LimitPerHCP))}
	case textHit:
		f.severity = p.Severity
		f.messages = []string{p.Message}
	default:
		return finding{}, false
	}

	return f, true
}

func missingPolicyNote(c Category) string {
	return fmt.Sprintf("No policy configured for category %s; treat as unverified", c)
}
