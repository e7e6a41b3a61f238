// Package app assembles the integrity engine from configuration. The HTTP
// server and the CLI share it so both run against identical wiring.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	anomalymetrics "trustledger/internal/anomaly/metrics"
	anomalysvc "trustledger/internal/anomaly/service"
	"trustledger/internal/integrity"
	ledger "trustledger/internal/ledger/models"
	ledgermemory "trustledger/internal/ledger/store/memory"
	ledgerpg "trustledger/internal/ledger/store/postgres"
	"trustledger/internal/platform/config"
	"trustledger/internal/platform/postgres"
	redisclient "trustledger/internal/platform/redis"
	trustmetrics "trustledger/internal/trust/metrics"
	trustsvc "trustledger/internal/trust/service"
	audit "trustledger/pkg/platform/audit"
	"trustledger/pkg/platform/audit/publisher"
	"trustledger/pkg/platform/audit/relay"
	auditmemory "trustledger/pkg/platform/audit/store/memory"
	auditpg "trustledger/pkg/platform/audit/store/postgres"
)

const systemSourceName = "Integrity Engine"

// Store is everything the services read and write. Both ledger stores satisfy it.
type Store interface {
	anomalysvc.ProjectReader
	anomalysvc.FlowReader
	anomalysvc.AnomalyStore
	trustsvc.LedgerReader
	trustsvc.IndicatorStore
	CreateFundSource(ctx context.Context, src *ledger.FundSource) error
}

// App holds the assembled services and the resources they own.
type App struct {
	Store        Store
	Anomalies    *anomalysvc.Service
	Trust        *trustsvc.Service
	Orchestrator *integrity.Orchestrator
	// Relay is nil unless Kafka brokers and the postgres outbox are configured.
	Relay *relay.Relay

	logger    *slog.Logger
	publisher *publisher.Publisher
	closers   []func() error
}

type options struct {
	registerMetrics bool
}

type Option func(*options)

// WithoutMetrics skips Prometheus registration. Use it for short-lived
// processes and for tests that build more than one App.
func WithoutMetrics() Option {
	return func(o *options) {
		o.registerMetrics = false
	}
}

// New connects the configured backends and builds the services. On error every
// resource opened so far is already released.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{registerMetrics: true}
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{logger: logger}

	var db *sql.DB
	switch cfg.Store.Driver {
	case "postgres":
		var err error
		db, err = postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := ledgerpg.Migrate(ctx, db); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.Store = ledgerpg.NewPostgres(db)
	default:
		a.Store = ledgermemory.New()
	}

	if err := a.Store.CreateFundSource(ctx, &ledger.FundSource{
		ID:   cfg.Integrity.SystemSource,
		Name: systemSourceName,
	}); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("ensure system fund source: %w", err)
	}

	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		outbox := auditpg.New(db)
		auditStore = outbox
		if err := a.buildRelay(ctx, cfg.Kafka, outbox); err != nil {
			_ = a.Close()
			return nil, err
		}
	} else if len(cfg.Kafka.BrokerList()) > 0 {
		logger.WarnContext(ctx, "kafka brokers configured without postgres outbox; relay disabled")
	}
	a.publisher = publisher.NewPublisher(auditStore, publisher.WithLogger(logger))

	anomalyOpts := []anomalysvc.Option{
		anomalysvc.WithLogger(logger),
		anomalysvc.WithAuditPublisher(a.publisher),
	}
	trustOpts := []trustsvc.Option{
		trustsvc.WithLogger(logger),
		trustsvc.WithAuditPublisher(a.publisher),
	}
	orchestratorOpts := []integrity.Option{
		integrity.WithLogger(logger),
		integrity.WithAuditPublisher(a.publisher),
	}
	if o.registerMetrics {
		anomalyOpts = append(anomalyOpts, anomalysvc.WithMetrics(anomalymetrics.New()))
		trustOpts = append(trustOpts, trustsvc.WithMetrics(trustmetrics.New()))
		orchestratorOpts = append(orchestratorOpts, integrity.WithMetrics(integrity.NewMetrics()))
	}

	var err error
	a.Anomalies, err = anomalysvc.New(a.Store, a.Store, a.Store, anomalysvc.Config{
		SystemActorID:    cfg.Integrity.SystemActor,
		SystemSourceID:   cfg.Integrity.SystemSource,
		ZeroBudgetPolicy: anomalysvc.ZeroBudgetPolicy(cfg.Integrity.ZeroBudgetPolicy),
	}, anomalyOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("anomaly service: %w", err)
	}

	a.Trust, err = trustsvc.New(a.Store, a.Store, trustsvc.Config{
		SnapshotMode:  trustsvc.SnapshotMode(cfg.Integrity.SnapshotMode),
		Workers:       cfg.Integrity.Workers,
		SystemActorID: cfg.Integrity.SystemActor,
	}, trustOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("trust service: %w", err)
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		orchestratorOpts = append(orchestratorOpts,
			integrity.WithLocker(integrity.NewRedisLocker(rdb.Client, cfg.Integrity.LockTTL)))
	}

	a.Orchestrator, err = integrity.New(a.Anomalies, a.Trust, cfg.Integrity.SystemActor, orchestratorOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return a, nil
}

func (a *App) buildRelay(ctx context.Context, cfg config.KafkaConfig, outbox relay.Outbox) error {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil
	}
	cl, err := relay.NewClient(brokers, cfg.Topic)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		cl.Close()
		return nil
	})
	if err := relay.EnsureTopic(ctx, cl, cfg.Topic, cfg.Partitions, cfg.Replication); err != nil {
		return err
	}
	a.Relay, err = relay.New(outbox, cl, cfg.Topic,
		relay.WithInterval(cfg.RelayInterval),
		relay.WithLogger(a.logger),
	)
	return err
}

// Close flushes the audit publisher and releases connections in reverse order.
func (a *App) Close() error {
	if a.publisher != nil {
		a.publisher.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
