package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/routingfib/corefib/internal/api"
	"github.com/routingfib/corefib/internal/audit"
	"github.com/routingfib/corefib/internal/config"
	"github.com/routingfib/corefib/internal/fib"
	"github.com/routingfib/corefib/internal/fib/hal"
	"github.com/routingfib/corefib/internal/fib/hal/sim"
	"github.com/routingfib/corefib/internal/fib/routetable"
	"github.com/routingfib/corefib/internal/fib/store"
	"github.com/routingfib/corefib/internal/logger"
	"github.com/routingfib/corefib/internal/replay"
	"github.com/routingfib/corefib/internal/telemetry"
)

func runStart(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stdout",
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Tracing.Enabled,
		ServiceName:    "corefibd",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Tracing.Endpoint,
		Insecure:       cfg.Telemetry.Tracing.Insecure,
		SampleRate:     cfg.Telemetry.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "corefibd",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("initializing profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	var hardware hal.HardwareAbstraction = sim.New(hal.Capabilities{
		SupportsEedbChaining: true,
		SupportsBackupFec:    true,
	})
	if cfg.Audit.Enabled {
		db, err := audit.Open(ctx, cfg.Audit.DSN)
		if err != nil {
			return fmt.Errorf("opening audit database: %w", err)
		}
		hardware = audit.Wrap(hardware, db)
		logger.Info("hal auditing enabled")
	}

	core := fib.New(fib.Config{
		Store: store.Config{
			Capacity:      cfg.Store.MaxNodes,
			MaxCycleDepth: cfg.Walk.MaxWalkDepth,
		},
		MaxWalkDepth:      cfg.Walk.MaxWalkDepth,
		MaxPrefixLen:      cfg.Walk.MaxPrefixLen,
		MaxRecursionDepth: cfg.Walk.MaxRecursionDepth,
	}, hardware, routetable.NewMemory(), fib.NopEventSink{})

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		core.WithMetrics(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadTimeout: 10 * time.Second}
		go func() {
			logger.Info("metrics listener started", "addr", cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener failed", logger.Err(err))
			}
		}()
	}

	if cfg.Replay.Enabled {
		journal, err := replay.Open(cfg.Replay.Path)
		if err != nil {
			return fmt.Errorf("opening replay journal: %w", err)
		}
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Error("replay journal close error", logger.Err(err))
			}
		}()
		if err := replay.Replay(ctx, journal, core); err != nil {
			// A torn journal is diagnosable, not fatal: the core is in
			// whatever state the successfully replayed prefix produced.
			logger.Error("replay incomplete", logger.Err(err))
		} else {
			logger.Info("replay complete", "path", cfg.Replay.Path)
		}
	}

	logger.Info("corefibd started", "version", version)

	if cfg.API.Enabled {
		srv := api.NewServer(cfg.API.Addr, core, cfg.API.AllowOrigins)
		if err := srv.Start(ctx); err != nil {
			return err
		}
	} else {
		logger.Info("api listener disabled; running until signalled")
		<-ctx.Done()
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics listener shutdown error", logger.Err(err))
		}
	}

	logger.Info("corefibd stopped")
	return nil
}
