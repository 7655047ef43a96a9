package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/station-partitioner/internal/api"
	"github.com/eugenenazirov/station-partitioner/internal/partition"
	"github.com/eugenenazirov/station-partitioner/internal/simulation"
	"github.com/eugenenazirov/station-partitioner/internal/storage"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	store := storage.NewMemoryStorage()
	p := partition.New()
	logger := zaptest.NewLogger(t)
	handler := api.NewHandler(p, store, simulation.NewRunner(p, logger))
	return api.NewRouter(handler, logger)
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	payload, _ := json.Marshal(map[string]any{"stations": 2})
	rec = performRequest(t, handler, http.MethodPut, "/api/stations", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from stations update, got %d", rec.Code)
	}

	body, _ := json.Marshal(map[string]any{"weights": []int{1, 2, 3, 4, 5, 5}})
	rec = performRequest(t, handler, http.MethodPost, "/api/partition", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from partition, got %d", rec.Code)
	}

	var response struct {
		Stations []struct {
			Weights []int `json:"weights"`
			Load    int   `json:"load"`
		} `json:"stations"`
		Balanced  bool `json:"balanced"`
		MaxLoad   int  `json:"maxLoad"`
		TotalLoad int  `json:"totalLoad"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(response.Stations) != 2 {
		t.Fatalf("expected stored station count to apply, got %d stations", len(response.Stations))
	}
	if !response.Balanced || response.MaxLoad != 10 || response.TotalLoad != 20 {
		t.Fatalf("unexpected partition %+v", response)
	}

	simBody, _ := json.Marshal(map[string]any{"trials": 10, "seed": 3})
	rec = performRequest(t, handler, http.MethodPost, "/api/simulate", simBody, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from simulate, got %d", rec.Code)
	}

	var sim struct {
		Summary struct {
			Trials int `json:"trials"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&sim); err != nil {
		t.Fatalf("decode simulate response: %v", err)
	}
	if sim.Summary.Trials != 10 {
		t.Fatalf("unexpected trial count %d", sim.Summary.Trials)
	}
}
