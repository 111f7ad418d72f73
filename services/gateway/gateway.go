// Package gateway forwards rep prompts to the LLM after a compliance
// decision. Blocking decisions never reach the provider.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/internal/coaching"
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/internal/observability"
	"github.com/BowmanStephen/rep-co-pilot/services"
	compliancesvc "github.com/BowmanStephen/rep-co-pilot/services/compliance"
	"github.com/BowmanStephen/rep-co-pilot/services/data"
	"github.com/BowmanStephen/rep-co-pilot/services/providers"
	"go.uber.org/zap"
)

const (
	operationChat    = "chat"
	operationEnhance = "enhance"

	outcomeOK      = "ok"
	outcomeBlocked = "blocked"
	outcomeError   = "error"
)

// Checker is the slice of the compliance service the gateway depends on
type Checker interface {
	Check(ctx context.Context, in compliancesvc.CheckInput) (*compliancesvc.CheckResult, error)
	ListPolicies() []compliance.PolicyLimit
	PolicyUpdates(limit int) []compliancesvc.PolicyUpdate
}

// Config holds gateway settings
type Config struct {
	ChatModel       string
	EnhanceModel    string
	CoachingEnabled bool
	// ContextAccounts is how many priority HCPs the CRM tab context lists
	ContextAccounts int
}

// ChatInput is one rep prompt. CoachingMode nil means the configured default.
type ChatInput struct {
	Prompt       string
	TabType      string
	CoachingMode *bool
	Spend        *compliance.SpendCheckInput
	HCPID        string
}

// ChatResult is either a blocked decision or the model's reply
type ChatResult struct {
	Blocked      bool                `json:"blocked"`
	TabType      TabType             `json:"tabType"`
	Content      string              `json:"content"`
	Decision     compliance.Decision `json:"decision"`
	Card         coaching.Card       `json:"card"`
	CoachingMode bool                `json:"coachingMode"`
	Model        string              `json:"model,omitempty"`
	Usage        *providers.Usage    `json:"usage,omitempty"`
}

// EnhanceResult carries the rewritten prompt and its own compliance decision
type EnhanceResult struct {
	Original string              `json:"original"`
	Enhanced string              `json:"enhanced"`
	Decision compliance.Decision `json:"decision"`
	Card     coaching.Card       `json:"card"`
	Model    string              `json:"model,omitempty"`
}

// Gateway checks prompts for compliance and dispatches the rest to the provider
type Gateway struct {
	checker  Checker
	data     data.Service
	provider providers.Provider
	cfg      Config
	metrics  observability.Metrics
	logger   *zap.Logger
}

// New creates a gateway. dataSvc and metrics may be nil.
func New(checker Checker, dataSvc data.Service, provider providers.Provider, cfg Config, metrics observability.Metrics, logger *zap.Logger) *Gateway {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	if cfg.ContextAccounts <= 0 {
		cfg.ContextAccounts = 3
	}
	return &Gateway{
		checker:  checker,
		data:     dataSvc,
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Chat decides on the prompt first and only calls the provider when the decision allows it
func (g *Gateway) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, services.ErrEmptyPrompt
	}
	logger := observability.FromContext(ctx, g.logger)

	tab, ok := ParseTab(in.TabType)
	if !ok && in.TabType != "" {
		logger.Warn("unknown tab type, using reporting", zap.String("tab_type", in.TabType))
	}
	coachingOn := g.cfg.CoachingEnabled
	if in.CoachingMode != nil {
		coachingOn = *in.CoachingMode
	}

	check, err := g.check(ctx, compliancesvc.CheckInput{Text: prompt, Spend: in.Spend, HCPID: in.HCPID})
	if err != nil {
		g.metrics.RecordGateway(operationChat, outcomeBlocked)
		return nil, err
	}

	result := &ChatResult{
		TabType:      tab,
		Decision:     check.Decision,
		Card:         check.Card,
		CoachingMode: coachingOn,
	}

	if check.Decision.Blocking() {
		logger.Info("prompt blocked by compliance",
			zap.String("category", string(check.Decision.PrimaryCategory)),
			zap.String("tab_type", string(tab)))
		result.Blocked = true
		result.Content = blockedMessage(check.Decision)
		g.metrics.RecordGateway(operationChat, outcomeBlocked)
		return result, nil
	}

	system := SystemPrompt(tab) + g.dataContext(ctx, tab, in.HCPID)
	if coachingOn {
		system += coaching.Preamble(check.Decision.Level)
	}

	resp, err := g.complete(ctx, g.cfg.ChatModel, system, prompt, operationChat)
	if err != nil {
		return nil, err
	}

	result.Content = resp.Content()
	result.Model = resp.Model
	result.Usage = &resp.Usage
	g.metrics.RecordGateway(operationChat, outcomeOK)
	return result, nil
}

// EnhancePrompt rewrites a prompt with the enhancement model and re-checks the rewrite
func (g *Gateway) EnhancePrompt(ctx context.Context, prompt string) (*EnhanceResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.ErrEmptyPrompt
	}

	resp, err := g.complete(ctx, g.cfg.EnhanceModel, enhanceSystemPrompt,
		fmt.Sprintf("Enhance this prompt: %q", prompt), operationEnhance)
	if err != nil {
		return nil, err
	}

	enhanced := cleanEnhanced(resp.Content())
	if enhanced == "" {
		enhanced = prompt
	}

	check, err := g.check(ctx, compliancesvc.CheckInput{Text: enhanced})
	if err != nil {
		g.metrics.RecordGateway(operationEnhance, outcomeBlocked)
		return nil, err
	}

	outcome := outcomeOK
	if check.Decision.Blocking() {
		outcome = outcomeBlocked
	}
	g.metrics.RecordGateway(operationEnhance, outcome)

	return &EnhanceResult{
		Original: prompt,
		Enhanced: enhanced,
		Decision: check.Decision,
		Card:     check.Card,
		Model:    resp.Model,
	}, nil
}

// check runs the compliance service. Client errors pass through; anything
// else means no decision, so the request is blocked.
func (g *Gateway) check(ctx context.Context, in compliancesvc.CheckInput) (*compliancesvc.CheckResult, error) {
	res, err := g.checker.Check(ctx, in)
	if err == nil {
		return res, nil
	}
	if services.IsValidationError(err) || services.IsNotFoundError(err) {
		return nil, err
	}
	observability.FromContext(ctx, g.logger).Error("compliance check failed, blocking request", zap.Error(err))
	return nil, services.NewDomainError(services.ErrorTypeUnavailable, services.ErrComplianceUnavailable.Message, err)
}

func (g *Gateway) complete(ctx context.Context, model, system, user, operation string) (*providers.ChatResponse, error) {
	req := &providers.ChatRequest{
		Model: model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: system},
			{Role: providers.RoleUser, Content: user},
		},
		Metadata: map[string]string{"operation": operation},
	}

	start := time.Now()
	resp, err := g.provider.ChatCompletion(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		g.metrics.RecordProviderLatency(model, outcomeError, elapsed)
		g.metrics.RecordGateway(operation, outcomeError)
		observability.FromContext(ctx, g.logger).Error("provider request failed",
			zap.String("provider", g.provider.Name()),
			zap.String("model", model),
			zap.Duration("latency", elapsed),
			zap.Error(err))
		return nil, mapProviderError(err)
	}

	g.metrics.RecordProviderLatency(model, outcomeOK, elapsed)
	observability.FromContext(ctx, g.logger).Info("provider request completed",
		zap.String("provider", g.provider.Name()),
		zap.String("model", model),
		zap.Duration("latency", elapsed),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return resp, nil
}

func mapProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.NewDomainError(services.ErrorTypeExternal, services.ErrProviderTimeout.Message, err)
	}
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) && provErr.StatusCode == 429 {
		return services.NewDomainError(services.ErrorTypeExternal, services.ErrProviderRateLimit.Message, err)
	}
	return services.WrapExternal(services.ErrProviderError.Message, err)
}

func blockedMessage(d compliance.Decision) string {
	var b strings.Builder
	b.WriteString(coaching.Banner(d.Level))
	for _, v := range d.Violations {
		b.WriteString(" ")
		b.WriteString(v)
	}
	return b.String()
}

// cleanEnhanced trims whitespace and a single pair of wrapping quotes
func cleanEnhanced(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
