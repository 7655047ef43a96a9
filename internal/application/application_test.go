package application

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/station-partitioner/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.Stations = 4
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	count, err := app.storage.GetStationCount()
	if err != nil {
		t.Fatalf("GetStationCount returned error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 stations, got %d", count)
	}
	if app.server == nil || app.router == nil || app.handler == nil || app.partitioner == nil {
		t.Fatalf("expected server, router, handler and partitioner to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewServesMetricsAfterPartition(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.MetricsEnabled = true

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	body := strings.NewReader(`{"weights":[10,10,10,10],"stations":2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/partition", body)
	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected partition to succeed, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `partition_runs_total{balanced="true"} 1`) {
		t.Fatalf("expected partition counter in metrics output")
	}
}

func TestMetricsDisabled(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when metrics are disabled, got %d", rec.Code)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsErrorForInvalidStationCount(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Stations = 0

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid station count")
	}
}

func TestSimulateWritesReport(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Simulation = config.Simulation{Trials: 4, Seed: 10, Workers: 2}

	var out bytes.Buffer
	summary, err := Simulate(context.Background(), cfg, zaptest.NewLogger(t), &out)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if summary.Trials != 4 {
		t.Fatalf("expected 4 trials, got %d", summary.Trials)
	}
	if !strings.Contains(out.String(), "Trial 4") || !strings.Contains(out.String(), "Seed: 10") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestSimulateRejectsZeroTrials(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Simulation = config.Simulation{Trials: 0}

	if _, err := Simulate(context.Background(), cfg, zaptest.NewLogger(t), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for zero trials")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		Stations:             3,
		MaxWeights:           1000,
		MaxTrials:            100,
		LogLevel:             "info",
		MetricsEnabled:       false,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		Simulation:           config.Simulation{Trials: 5, Seed: 1},
	}
}
