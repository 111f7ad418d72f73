// Package compliance is the service layer over the compliance engine: it
// resolves HCP year-to-date spend through the data service, renders coaching
// cards, records metrics, and serves policy lookups and procedures.
package compliance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/internal/coaching"
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/internal/observability"
	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/services"
	"github.com/BowmanStephen/rep-co-pilot/services/data"
	"go.uber.org/zap"
)

// CheckInput is one query to classify. Spend and HCPID are optional.
// When HCPID is set and Spend carries no YTD amount, the YTD is looked up.
type CheckInput struct {
	Text  string
	Spend *compliance.SpendCheckInput
	HCPID string
}

// CheckResult pairs a decision with its rendered coaching card
type CheckResult struct {
	Decision compliance.Decision `json:"decision"`
	Card     coaching.Card       `json:"card"`
	HCPID    string              `json:"hcpId,omitempty"`
}

// ConcernInput is a rep-submitted compliance concern
type ConcernInput struct {
	Type         string
	Description  string
	Severity     models.ConcernSeverity
	RelatedQuery string
	HCPID        string
	RequestID    string
}

// Service wraps the engine with data lookups, presentation and metrics
type Service struct {
	engine     *compliance.Engine
	presenter  coaching.Presenter
	data       data.Service
	metrics    observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	procedures map[string]Procedure
	updates    []PolicyUpdate
}

// NewService creates a compliance service. metrics may be nil.
func NewService(engine *compliance.Engine, presenter coaching.Presenter, dataSvc data.Service, metrics observability.Metrics, logger *zap.Logger) *Service {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Service{
		engine:     engine,
		presenter:  presenter,
		data:       dataSvc,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
		procedures: procedureTemplates(),
		updates:    defaultPolicyUpdates(),
	}
}

// Check classifies a query and renders the coaching card
func (s *Service) Check(ctx context.Context, in CheckInput) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.WrapUnavailable("compliance check cancelled", err)
	}

	spend, err := s.resolveSpend(ctx, in.Spend, in.HCPID)
	if err != nil {
		return nil, err
	}

	d := s.engine.Decide(in.Text, spend)
	s.metrics.RecordDecision(d.Level.String(), string(d.PrimaryCategory))

	logger := observability.FromContext(ctx, s.logger)
	if d.Level > compliance.SeverityInfo {
		logger.Info("compliance concern detected",
			zap.String("level", d.Level.String()),
			zap.String("category", string(d.PrimaryCategory)),
			zap.Int("violations", len(d.Violations)),
			zap.Int("warnings", len(d.Warnings)))
	} else {
		logger.Debug("compliance check passed", zap.Int("notes", len(d.Notes)))
	}

	return &CheckResult{
		Decision: d,
		Card:     s.presenter.Present(d),
		HCPID:    in.HCPID,
	}, nil
}

// EvaluateMealSpend checks a proposed meal. hcpID is optional and fills in YTD spend.
func (s *Service) EvaluateMealSpend(ctx context.Context, in compliance.SpendCheckInput, hcpID string) (*compliance.SpendCheckResult, error) {
	spend, err := s.resolveSpend(ctx, &in, hcpID)
	if err != nil {
		return nil, err
	}
	result := s.engine.EvaluateMealSpend(*spend)
	return &result, nil
}

// resolveSpend copies in and fills YTDAmountForHCP from the data service when needed
func (s *Service) resolveSpend(ctx context.Context, in *compliance.SpendCheckInput, hcpID string) (*compliance.SpendCheckInput, error) {
	if in == nil {
		return nil, nil
	}
	spend := *in
	if hcpID == "" || spend.YTDAmountForHCP > 0 {
		return &spend, nil
	}

	summary, err := s.data.GetSpendSummary(ctx, hcpID, s.now().Year())
	if err != nil {
		s.logger.Warn("failed to load HCP spend",
			zap.String("hcp_id", hcpID),
			zap.Error(err))
		return nil, err
	}
	spend.YTDAmountForHCP = summary.MealSpendYTD
	return &spend, nil
}

// ListPolicies returns the active catalog in order
func (s *Service) ListPolicies() []compliance.PolicyLimit {
	return s.engine.Catalog().List()
}

// GetPolicy looks a policy up by category (meal_spend) or ID (POL-001)
func (s *Service) GetPolicy(key string) (*compliance.PolicyLimit, error) {
	key = strings.TrimSpace(key)
	catalog := s.engine.Catalog()

	p, err := catalog.Get(compliance.Category(strings.ToLower(key)))
	if errors.Is(err, compliance.ErrPolicyNotFound) {
		p, err = catalog.GetByID(key)
	}
	if err != nil {
		if errors.Is(err, compliance.ErrPolicyNotFound) {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, "policy not found", err).
				WithDetail("policy", key)
		}
		return nil, services.WrapInternal("policy lookup", err)
	}
	return &p, nil
}

// PolicyUpdates returns up to limit recent updates, newest first. limit <= 0 means all.
func (s *Service) PolicyUpdates(limit int) []PolicyUpdate {
	out := append([]PolicyUpdate(nil), s.updates...)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// GetProcedure returns a named playbook with its current catalog policy attached
func (s *Service) GetProcedure(name string) (*Procedure, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	proc, ok := s.procedures[name]
	if !ok {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "procedure not found", nil).
			WithDetail("procedure", name)
	}

	if p, err := s.engine.Catalog().Get(procedureCategory[name]); err == nil {
		proc.Policy = &p
		if name == ProcedureSpeakerHonorarium {
			proc.StandardHonorarium = p.Amount
			proc.ApprovalRequired = p.ApprovalRequired
		}
	}
	if name == ProcedureAdverseEvent {
		proc.ApprovalRequired = false
	}
	return &proc, nil
}

// LogConcern records a concern for the compliance team and returns its tracking record
func (s *Service) LogConcern(ctx context.Context, in ConcernInput) (*models.ComplianceConcern, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "concern description is required", nil)
	}
	severity := in.Severity
	if severity == "" {
		severity = models.ConcernSeverityMedium
	}

	concern := models.NewComplianceConcern(in.Type, in.Description, severity)
	concern.RelatedQuery = in.RelatedQuery
	concern.HCPID = in.HCPID
	concern.RequestID = in.RequestID

	observability.FromContext(ctx, s.logger).Info("compliance concern logged",
		zap.String("concern_id", concern.ID),
		zap.String("type", concern.Type),
		zap.String("severity", string(concern.Severity)),
		zap.String("hcp_id", concern.HCPID))

	return concern, nil
}

// Engine exposes the underlying engine for callers that need raw decisions
func (s *Service) Engine() *compliance.Engine {
	return s.engine
}
