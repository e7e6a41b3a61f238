package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"trustledger/internal/app"
	anomalyhandler "trustledger/internal/anomaly/handler"
	"trustledger/internal/integrity"
	integrityhandler "trustledger/internal/integrity/handler"
	jwttoken "trustledger/internal/jwt_token"
	"trustledger/internal/platform/config"
	"trustledger/internal/platform/httpserver"
	"trustledger/internal/platform/logger"
	"trustledger/internal/platform/metrics"
	httptransport "trustledger/internal/transport/http"
	trusthandler "trustledger/internal/trust/handler"
)

// main wires high-level dependencies and runs the HTTP API, the outbox relay
// and the optional scheduler until a shutdown signal arrives. Business logic
// lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.ValidateServer(); err != nil {
		log.Error("refusing to start", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close resources", "error", err)
		}
	}()

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: jwttoken.NewJWTServiceAdapter(jwt),
		Metrics:   metrics.New(),
		Modules: []httptransport.Registrar{
			integrityhandler.New(a.Orchestrator, log),
			anomalyhandler.New(a.Anomalies, log),
			trusthandler.New(a.Trust, log),
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.New(cfg.Server.Addr, router), log)
	})

	if a.Relay != nil {
		g.Go(func() error {
			if err := a.Relay.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.Integrity.ScheduleEnabled {
		scheduler, err := integrity.NewScheduler(a.Orchestrator, cfg.Integrity.ScheduleInterval,
			integrity.WithSchedulerLogger(log),
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			scheduler.Start(gctx)
			return nil
		})
	}

	log.Info("trustledger integrity engine started",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Driver,
		"relay", a.Relay != nil,
		"scheduler", cfg.Integrity.ScheduleEnabled,
	)
	return g.Wait()
}
