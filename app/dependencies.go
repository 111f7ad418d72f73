package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/config"
	"github.com/BowmanStephen/rep-co-pilot/internal/coaching"
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/internal/observability"
	"github.com/BowmanStephen/rep-co-pilot/repositories"
	"github.com/BowmanStephen/rep-co-pilot/repositories/postgres"
	compliancesvc "github.com/BowmanStephen/rep-co-pilot/services/compliance"
	"github.com/BowmanStephen/rep-co-pilot/services/data"
	"github.com/BowmanStephen/rep-co-pilot/services/gateway"
	"github.com/BowmanStephen/rep-co-pilot/services/providers"
	"github.com/BowmanStephen/rep-co-pilot/services/providers/openai"
	"go.uber.org/zap"
)

const providerRetryDelay = time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when running on mock data
	Logger *zap.Logger

	// Observability
	Metrics    observability.Metrics
	Prometheus *observability.PrometheusMetrics // nil when metrics are disabled

	// Repositories
	HCPs repositories.HCPRepository

	// Compliance core
	Catalog        *compliance.Holder
	CatalogVersion string
	CatalogWatcher *compliance.Watcher
	Engine         *compliance.Engine
	Presenter      coaching.Presenter

	// Services
	DataService data.Service
	Compliance  *compliancesvc.Service
	Provider    providers.Provider
	Gateway     *gateway.Gateway

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	bgCtx, cancel := context.WithCancel(context.Background())
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		cancel: cancel,
	}

	deps.initMetrics(cfg)

	if err := deps.initDatabase(ctx, cfg); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCatalog(bgCtx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize policy catalog: %w", err)
	}

	if err := deps.initDataService(bgCtx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize data service: %w", err)
	}

	deps.initCompliance(cfg)
	deps.initProvider(cfg)
	deps.initGateway(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("data_source", deps.DataService.Source()),
		zap.String("catalog_version", deps.CatalogVersion),
		zap.Bool("coaching_enabled", cfg.Compliance.CoachingEnabled))
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return
	}
	d.Prometheus = observability.NewPrometheusMetrics()
	d.Metrics = d.Prometheus
}

// initDatabase connects to PostgreSQL for the live data service. Mock mode skips it.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.DataService.UseMockData {
		d.Logger.Info("using mock territory data, database disabled")
		return nil
	}

	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.DB = db
	d.HCPs = postgres.NewHCPRepository(db, d.Logger)
	return nil
}

// initCatalog loads the policy catalog and starts the hot-reload watcher when configured
func (d *Dependencies) initCatalog(ctx context.Context, cfg *config.Config) error {
	path := cfg.Compliance.PolicyFile
	if path == "" {
		d.Catalog = compliance.NewHolder(compliance.DefaultCatalog())
		d.CatalogVersion = "builtin"
		d.Logger.Info("using built-in policy catalog")
		return nil
	}

	loaded, err := compliance.LoadCatalog(path)
	if err != nil {
		return err
	}
	d.Catalog = compliance.NewHolder(loaded.Catalog)
	d.CatalogVersion = loaded.Version
	d.Logger.Info("policy catalog loaded",
		zap.String("path", path),
		zap.String("version", loaded.Version),
		zap.String("digest", loaded.Digest),
		zap.Int("policies", loaded.Catalog.Len()))

	if !cfg.Compliance.WatchPolicyFile {
		return nil
	}

	w, err := compliance.NewWatcher(path, d.Catalog, cfg.Compliance.ReloadDebounce, d.Logger)
	if err != nil {
		return err
	}
	w.OnReload = func(compliance.LoadedCatalog) {
		d.Metrics.RecordCatalogReload("success")
	}
	w.OnReject = func(error) {
		d.Metrics.RecordCatalogReload("rejected")
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	d.CatalogWatcher = w
	return nil
}

// initDataService selects mock or live data and starts cache cleanup
func (d *Dependencies) initDataService(ctx context.Context, cfg *config.Config) error {
	svc, err := data.New(cfg.DataService, d.HCPs, d.Logger)
	if err != nil {
		return err
	}
	d.DataService = svc

	if cached, ok := svc.(*data.CachedService); ok && cfg.DataService.CacheTTL > 0 {
		go cached.StartCleanupWorker(cfg.DataService.CacheTTL, ctx.Done())
	}
	return nil
}

func (d *Dependencies) initCompliance(cfg *config.Config) {
	d.Engine = compliance.NewEngineWithSource(d.Catalog)
	if len(cfg.Compliance.ExpensiveVenues) > 0 {
		d.Engine = d.Engine.WithExpensiveVenues(cfg.Compliance.ExpensiveVenues)
	}
	d.Presenter = coaching.NewCardPresenter(d.Catalog)
	d.Compliance = compliancesvc.NewService(d.Engine, d.Presenter, d.DataService, d.Metrics, d.Logger)
}

// initProvider configures the OpenAI-compatible completion client
func (d *Dependencies) initProvider(cfg *config.Config) {
	headers := map[string]string{}
	if cfg.LLM.Referer != "" {
		headers["HTTP-Referer"] = cfg.LLM.Referer
	}
	if cfg.LLM.AppTitle != "" {
		headers["X-Title"] = cfg.LLM.AppTitle
	}

	d.Provider = openai.NewAdapter("openrouter", providers.ProviderConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: providerRetryDelay,
		Headers:    headers,
	})

	if cfg.LLM.APIKey == "" {
		d.Logger.Warn("no LLM API key configured, chat and enhance-prompt will fail upstream")
	}
}

func (d *Dependencies) initGateway(cfg *config.Config) {
	d.Gateway = gateway.New(d.Compliance, d.DataService, d.Provider, gateway.Config{
		ChatModel:       cfg.LLM.ChatModel,
		EnhanceModel:    cfg.LLM.EnhanceModel,
		CoachingEnabled: cfg.Compliance.CoachingEnabled,
	}, d.Metrics, d.Logger)
}

// Close gracefully shuts down all dependencies. It is safe to call more than once.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error

	d.closeOnce.Do(func() {
		d.Logger.Info("shutting down dependencies")

		if d.cancel != nil {
			d.cancel()
		}

		if d.CatalogWatcher != nil {
			if err := d.CatalogWatcher.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop catalog watcher: %w", err))
			}
			select {
			case <-d.CatalogWatcher.Done():
			case <-ctx.Done():
			}
		}

		if d.DB != nil {
			if err := d.DB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close database: %w", err))
			} else {
				d.Logger.Info("database connection closed")
			}
		}

		_ = d.Logger.Sync()
	})

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
