package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/station-partitioner/internal/api"
	"github.com/eugenenazirov/station-partitioner/internal/config"
	"github.com/eugenenazirov/station-partitioner/internal/generator"
	"github.com/eugenenazirov/station-partitioner/internal/metrics"
	"github.com/eugenenazirov/station-partitioner/internal/partition"
	"github.com/eugenenazirov/station-partitioner/internal/simulation"
	"github.com/eugenenazirov/station-partitioner/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage     storage.Storage
	partitioner partition.Partitioner
	recorder    metrics.Recorder
	handler     *api.Handler
	router      http.Handler
	logger      *zap.Logger
	server      *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if err := store.SetStationCount(cfg.Stations); err != nil {
		return nil, fmt.Errorf("failed to apply initial station count: %w", err)
	}

	var (
		recorder       metrics.Recorder = metrics.Nop{}
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom, err := metrics.NewPromRecorder(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		recorder = prom
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	p := partition.New()
	handler := api.NewHandler(p, store, simulation.NewRunner(p, logger),
		api.WithRecorder(recorder),
		api.WithLimits(cfg.MaxWeights, cfg.MaxTrials),
		api.WithDefaultTrials(cfg.Simulation.Trials),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage:     store,
		partitioner: p,
		recorder:    recorder,
		handler:     handler,
		router:      apiRouter,
		logger:      logger,
		server:      NewServer(cfg, BuildRootHandler(apiRouter, metricsHandler)),
	}, nil
}

// BuildRootHandler routes API requests and, when metricsHandler is non-nil, serves it on /metrics.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Simulate runs the configured number of random trials and writes the text report to w.
func Simulate(ctx context.Context, cfg config.Config, logger *zap.Logger, w io.Writer) (simulation.Summary, error) {
	runner := simulation.NewRunner(partition.New(), logger)
	report, err := runner.Run(ctx, simulation.Config{
		Trials:  cfg.Simulation.Trials,
		Seed:    cfg.Simulation.Seed,
		Workers: cfg.Simulation.Workers,
		Ranges:  generator.DefaultRanges(),
	})
	if err != nil {
		return simulation.Summary{}, fmt.Errorf("run simulation: %w", err)
	}
	if err := simulation.WriteText(w, report); err != nil {
		return simulation.Summary{}, fmt.Errorf("write report: %w", err)
	}
	return report.Summary, nil
}
