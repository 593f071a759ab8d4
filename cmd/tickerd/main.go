package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/tickerd/internal/alert"
	"github.com/pulseboard/tickerd/internal/api"
	"github.com/pulseboard/tickerd/internal/cache"
	"github.com/pulseboard/tickerd/internal/config"
	"github.com/pulseboard/tickerd/internal/hub"
	"github.com/pulseboard/tickerd/internal/instrument"
	"github.com/pulseboard/tickerd/internal/metrics"
	"github.com/pulseboard/tickerd/internal/protocol"
	"github.com/pulseboard/tickerd/internal/sim"
	"github.com/pulseboard/tickerd/internal/version"
	"github.com/pulseboard/tickerd/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (optional; defaults apply without one)")
	flag.Parse()

	// Load configuration first so the log level is honored.
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting tickerd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Instrument registry: invalid instrument config is fatal.
	registry, err := instrument.NewRegistry(cfg.Instruments)
	if err != nil {
		logger.Error("invalid instrument configuration", "error", err)
		os.Exit(1)
	}

	// Simulation engine (seeds history at construction).
	engine, err := sim.NewEngine(sim.Config{
		TickInterval:      cfg.Simulation.TickInterval,
		UpdateProbability: cfg.Simulation.UpdateProbability,
		HistoryPoints:     cfg.Simulation.HistoryPoints,
		HistoryInterval:   cfg.Simulation.HistoryInterval,
		UpdateBuffer:      cfg.Simulation.UpdateBuffer,
		Seed:              cfg.Simulation.Seed,
	}, registry, logger)
	if err != nil {
		logger.Error("failed to create simulation engine", "error", err)
		os.Exit(1)
	}

	broker := hub.New(registry.Symbols(), engine, logger)
	alerts := alert.NewEngine(registry, logger)

	gateway := ws.NewServer(ws.Config{
		SendBuffer:     cfg.Gateway.SendBuffer,
		WriteTimeout:   cfg.Gateway.WriteTimeout,
		PongTimeout:    cfg.Gateway.PongTimeout,
		PingInterval:   cfg.Gateway.PingInterval,
		MaxMessageSize: cfg.Gateway.MaxMessageSize,
		CommandRate:    cfg.Gateway.CommandRate,
		CommandBurst:   cfg.Gateway.CommandBurst,
	}, broker, registry.Symbols(), logger)

	apiServer := api.NewServer(engine, alerts, broker, cache.New(cfg.Cache.TTL), logger)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := engine.Start(ctx); err != nil {
		logger.Error("failed to start simulation engine", "error", err)
		os.Exit(1)
	}

	// Event loops. The dispatch loop is the single consumer of the
	// price-changed stream: it drives the broadcast layer and then the
	// alert engine for every event, which gives both the same per-symbol
	// tick order.
	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		for st := range engine.Updates() {
			broker.OnPriceUpdate(st)
			alerts.Evaluate(st)
		}
		// No more evaluations can happen; release the alert loop.
		alerts.Close()
	}()
	go func() {
		defer loops.Done()
		for evt := range alerts.Events() {
			broker.BroadcastAll(protocol.New(protocol.TypeAlert, protocol.AlertPayload{
				Alert:   evt.Alert,
				Ticker:  evt.Ticker,
				Message: evt.Message,
			}))
		}
	}()

	// HTTP servers: API + WebSocket on the main address, Prometheus on
	// the metrics address.
	apiSrv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiServer.Router(gateway),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: metricsMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api server listening", "addr", cfg.Server.Addr)
		if err := apiSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics server listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		apiSrv.Shutdown(shutdownCtx)
		metricsSrv.Shutdown(shutdownCtx)
		return nil
	})

	logger.Info("tickerd running",
		"symbols", registry.Len(),
		"tick_interval", engine.TickInterval(),
	)

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		cancel()
	}

	// Stop the engine; closing the updates channel unwinds the event
	// loops in order.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := engine.Stop(stopCtx); err != nil {
		logger.Warn("engine stop timed out", "error", err)
	}
	loops.Wait()

	logger.Info("tickerd stopped")
}

// loadConfig reads the config file, or returns full defaults when no
// path is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

// logLevel maps the config level string onto slog.
func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
