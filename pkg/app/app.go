package app

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chassis-framework/chassis/pkg/audit"
	"github.com/chassis-framework/chassis/pkg/cache"
	"github.com/chassis-framework/chassis/pkg/config"
	"github.com/chassis-framework/chassis/pkg/events"
	"github.com/chassis-framework/chassis/pkg/i18n"
	"github.com/chassis-framework/chassis/pkg/observability"
	"github.com/chassis-framework/chassis/pkg/query"
)

// App wires the framework's collaborators together for one process: logger,
// metrics, database, cache, event bus, and the audit pipeline bound to it.
// Construct one per process and hand its fields to entity repositories.
type App struct {
	Config     *config.Config
	Logger     *observability.Logger
	Metrics    *observability.Metrics
	Registry   *prometheus.Registry
	DB         *sql.DB
	Cache      *cache.Provider
	Bus        *events.Bus
	Notifier   *events.Notifier
	Translator i18n.Translator
	Recorder   *audit.Recorder

	store cache.Store
}

// New builds a fully wired App from configuration. messages seeds the
// translator with per-language history texts; it may be nil.
func New(cfg *config.Config, messages map[string]map[string]string) (*App, error) {
	logger := observability.NewLogger(cfg.Observability.LogLevel, nil)

	var registry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
	}
	metrics := observability.NewMetrics(registry)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Registry:   registry,
		Translator: i18n.NewCatalog(cfg.Locale.DefaultLanguage, messages),
	}

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		app.DB = db
	}

	store, err := newStore(cfg)
	if err != nil {
		app.close()
		return nil, err
	}
	app.store = store
	app.Cache = cache.NewProvider(store, logger, metrics, cfg.Cache.DefaultTTL)

	app.Bus = events.NewBus(metrics)
	app.Notifier = events.NewNotifier(app.Bus, logger)

	if cfg.Audit.Destination == audit.DestinationTable {
		recorder, err := audit.NewRecorder(app.DB)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to create audit recorder: %w", err)
		}
		app.Recorder = recorder
	}

	pipeline, err := audit.NewPipeline(cfg.Audit.Destination, app.Recorder, app.Translator, logger, metrics)
	if err != nil {
		app.close()
		return nil, err
	}
	pipeline.Bind(app.Bus)

	audit.NewInvalidator(app.Cache, logger).Bind(app.Bus)

	return app, nil
}

// Scope builds a query scope for one operation from the app's collaborators,
// applying the configured search-term minimum when the meta doesn't set its
// own. Use this instead of query.NewScope so configuration reaches every
// entity's queries.
func Scope[T any](a *App, meta query.Meta[T]) *query.Scope[T] {
	if meta.MinTermLength == 0 {
		meta.MinTermLength = a.Config.Query.MinTermLength
	}
	return query.NewScope(a.DB, meta, a.Notifier).Instrument(a.Metrics)
}

// newStore selects the cache backend from configuration.
func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store, nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

// Close waits for in-flight event handlers and releases all resources.
func (a *App) Close() error {
	if a.Bus != nil {
		a.Bus.Wait()
	}
	return a.close()
}

func (a *App) close() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
