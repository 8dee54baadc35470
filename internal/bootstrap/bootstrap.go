// Package bootstrap wires configuration, logging, telemetry, storage and the
// identifier allocator into a ready ledger core.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/hirepurchase/ledger/internal/application/ledger"
	"github.com/hirepurchase/ledger/internal/application/unitofwork"
	"github.com/hirepurchase/ledger/internal/domain/hirepurchase"
	"github.com/hirepurchase/ledger/internal/domain/partner"
	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/hirepurchase/ledger/internal/infrastructure/cache"
	"github.com/hirepurchase/ledger/internal/infrastructure/config"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/hirepurchase/ledger/internal/infrastructure/migration"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence"
	"github.com/hirepurchase/ledger/internal/infrastructure/scheduler"
	"github.com/hirepurchase/ledger/internal/infrastructure/telemetry"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is a wired ledger core together with the resources it owns
type Ledger struct {
	Core     *ledger.Core
	Database *persistence.Database
	Logger   *zap.Logger
	Metrics  *telemetry.LedgerMetrics

	// Sweep is the periodic balance audit, nil when ledger.audit_interval is zero
	Sweep *scheduler.SweepTrigger

	closers []func(ctx context.Context) error
}

// Option customizes Open
type Option func(*options)

type options struct {
	logger        *zap.Logger
	migrate       bool
	traceOptions  []sdktrace.TracerProviderOption
	metricOptions []sdkmetric.Option
}

// WithLogger uses l instead of building a logger from the log section
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMigrations brings the schema up to date while opening: the embedded SQL
// migrations on postgres, the model schema on sqlite
func WithMigrations() Option {
	return func(o *options) {
		o.migrate = true
	}
}

// WithTracerOptions appends options to the tracer provider, such as a span recorder
func WithTracerOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(o *options) {
		o.traceOptions = append(o.traceOptions, opts...)
	}
}

// WithMeterOptions appends options to the meter provider, such as a manual reader
func WithMeterOptions(opts ...sdkmetric.Option) Option {
	return func(o *options) {
		o.metricOptions = append(o.metricOptions, opts...)
	}
}

// Open builds a Ledger from cfg. Everything opened before a failure is closed again.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Ledger, err error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	l := &Ledger{}
	defer func() {
		if err != nil {
			_ = l.Close(ctx)
		}
	}()

	if err := l.initLogger(cfg, o); err != nil {
		return nil, err
	}
	if err := l.initTelemetry(ctx, cfg, o); err != nil {
		return nil, err
	}
	if err := l.initDatabase(ctx, cfg, o); err != nil {
		return nil, err
	}

	scopeOpts, err := l.initAllocator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	policy, err := ledgerPolicy(cfg.Ledger)
	if err != nil {
		return nil, err
	}

	retrier := unitofwork.NewRetrier(cfg.Ledger.MaxRetries, cfg.Ledger.RetryBackoff).
		WithObserver(retryObserver(l.Metrics, l.Logger.Named("retry")))

	l.Core = ledger.NewCore(persistence.NewGormTransactionScope(l.Database.DB, scopeOpts...), ledger.CoreOptions{
		Policy:  policy,
		Retrier: retrier,
		Metrics: l.Metrics,
		Logger:  l.Logger,
	})

	if err := l.initAuditSweep(cfg.Ledger); err != nil {
		return nil, err
	}

	l.Logger.Info("Ledger ready",
		zap.String("env", cfg.App.Env),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("allocator", cfg.Ledger.Allocator),
		zap.String("capacity_policy", string(policy.Capacity)),
		zap.Bool("strict_terms", policy.StrictTerms),
		zap.Int("max_retries", cfg.Ledger.MaxRetries),
		zap.Duration("audit_interval", cfg.Ledger.AuditInterval),
	)
	return l, nil
}

func (l *Ledger) initLogger(cfg *config.Config, o *options) error {
	if o.logger != nil {
		l.Logger = o.logger
		return nil
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	l.Logger = log.With(zap.String("app", cfg.App.Name))
	l.onClose(func(context.Context) error {
		_ = logger.Sync(log)
		return nil
	})
	return nil
}

func (l *Ledger) initTelemetry(ctx context.Context, cfg *config.Config, o *options) error {
	tcfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		ServiceName:       cfg.Telemetry.ServiceName,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}

	tp, err := telemetry.NewTracerProvider(ctx, tcfg, l.Logger, o.traceOptions...)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	l.onClose(tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, tcfg, l.Logger, o.metricOptions...)
	if err != nil {
		return fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	l.onClose(mp.Shutdown)

	metrics, err := telemetry.NewLedgerMetrics(mp.Meter(telemetry.MeterName))
	if err != nil {
		return fmt.Errorf("failed to initialize ledger metrics: %w", err)
	}
	l.Metrics = metrics
	return nil
}

func (l *Ledger) initDatabase(ctx context.Context, cfg *config.Config, o *options) error {
	dbLog := l.Logger.Named("gorm")
	dbOpts := []persistence.Option{persistence.WithZapLogger(dbLog, cfg.Telemetry.DBSlowQueryThresh)}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithPlugins(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem(cfg.Database.Driver),
		}, dbLog)))
	}

	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		return err
	}
	l.Database = db
	l.onClose(func(context.Context) error { return db.Close() })

	if !o.migrate {
		return nil
	}
	if cfg.Database.Driver == "sqlite" {
		return db.AutoMigrate(ctx)
	}
	m, err := migration.NewFromURL(cfg.Database.DSN(), "", l.Logger.Named("migrate"))
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// initAllocator returns the scope options selecting the configured allocator.
// The database allocator needs none: it is the scope's default.
func (l *Ledger) initAllocator(ctx context.Context, cfg *config.Config) ([]persistence.ScopeOption, error) {
	seeder := persistence.NewGormIdentifierAllocator(l.Database.DB)

	var allocator interface {
		shared.IdentifierAllocator
		Warm(ctx context.Context, seqs ...shared.Sequence) error
	}
	switch cfg.Ledger.Allocator {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisAllocator := cache.NewRedisIdentifierAllocator(client, "", seeder.Seed)
		l.onClose(func(context.Context) error { return redisAllocator.Close() })
		allocator = redisAllocator
	case "memory":
		allocator = cache.NewInMemoryIdentifierAllocator(seeder.Seed)
	default:
		return nil, nil
	}

	// seed now: a lazy seed inside a unit of work would need a second connection
	if err := allocator.Warm(ctx, partner.CustomerSequence, partner.GuarantorSequence); err != nil {
		return nil, fmt.Errorf("failed to seed identifier sequences: %w", err)
	}
	return []persistence.ScopeOption{persistence.WithAllocator(allocator)}, nil
}

// initAuditSweep starts the periodic balance audit when an interval is configured.
// The sweep outlives the context Open was called with and ends in Close.
func (l *Ledger) initAuditSweep(cfg config.LedgerConfig) error {
	if cfg.AuditInterval <= 0 {
		return nil
	}
	log := l.Logger.Named("audit")

	schedCfg := scheduler.DefaultSchedulerConfig()
	if cfg.AuditWorkers > 0 {
		schedCfg.Workers = cfg.AuditWorkers
	}
	sched, err := scheduler.NewScheduler(schedCfg, scheduler.NewAuditExecutor(l.Core.Payments), log)
	if err != nil {
		return err
	}
	if err := sched.Start(context.Background()); err != nil {
		return err
	}
	l.onClose(sched.Stop)

	sweep := scheduler.NewSweepTrigger(scheduler.SweepConfig{
		Interval: cfg.AuditInterval,
		Repair:   cfg.AuditRepair,
	}, sched, l.Core.Payments, log)
	if err := sweep.Start(context.Background()); err != nil {
		return err
	}
	l.onClose(sweep.Stop)
	l.Sweep = sweep
	return nil
}

// retryObserver counts each retry and marks it on the span of the operation being retried
func retryObserver(metrics *telemetry.LedgerMetrics, log *zap.Logger) unitofwork.RetryObserver {
	return func(ctx context.Context, attempt int, err error) {
		metrics.RecordRetry(ctx, "unit_of_work")
		telemetry.AddEvent(telemetry.SpanFromContext(ctx), "unit_of_work.retry",
			telemetry.SpanAttrAttempt, attempt,
		)
		logger.WithLogger(ctx, log).Debug("Retrying unit of work after a concurrent update",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func ledgerPolicy(cfg config.LedgerConfig) (ledger.Policy, error) {
	capacity, err := hirepurchase.ParseCapacityPolicy(cfg.CapacityPolicy)
	if err != nil {
		return ledger.Policy{}, err
	}
	return ledger.Policy{Capacity: capacity, StrictTerms: cfg.StrictTerms}, nil
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}

func (l *Ledger) onClose(fn func(ctx context.Context) error) {
	l.closers = append(l.closers, fn)
}

// Close releases everything Open acquired, in reverse order
func (l *Ledger) Close(ctx context.Context) error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}

// DB returns the underlying GORM handle
func (l *Ledger) DB() *gorm.DB {
	return l.Database.DB
}
