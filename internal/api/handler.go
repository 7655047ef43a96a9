package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/station-partitioner/internal/generator"
	"github.com/eugenenazirov/station-partitioner/internal/metrics"
	"github.com/eugenenazirov/station-partitioner/internal/partition"
	"github.com/eugenenazirov/station-partitioner/internal/simulation"
	"github.com/eugenenazirov/station-partitioner/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultMaxWeights = 100_000
	defaultMaxTrials  = 1000
)

// Handler wires partitioner, simulation and storage dependencies into HTTP handlers.
type Handler struct {
	partitioner partition.Partitioner
	storage     storage.Storage
	runner      *simulation.Runner
	recorder    metrics.Recorder

	clock         func() time.Time
	maxWeights    int
	maxTrials     int
	defaultTrials int
	ranges        generator.Ranges

	mu                sync.RWMutex
	stationsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithRecorder sets the metrics recorder notified after every partition request.
func WithRecorder(recorder metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		if recorder != nil {
			h.recorder = recorder
		}
	}
}

// WithLimits caps request sizes. Non-positive values keep the defaults.
func WithLimits(maxWeights, maxTrials int) HandlerOption {
	return func(h *Handler) {
		if maxWeights > 0 {
			h.maxWeights = maxWeights
		}
		if maxTrials > 0 {
			h.maxTrials = maxTrials
		}
	}
}

// WithDefaultTrials sets the trial count used when a simulate request omits it.
func WithDefaultTrials(trials int) HandlerOption {
	return func(h *Handler) {
		if trials > 0 {
			h.defaultTrials = trials
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(p partition.Partitioner, store storage.Storage, runner *simulation.Runner, opts ...HandlerOption) *Handler {
	h := &Handler{
		partitioner: p,
		storage:     store,
		runner:      runner,
		recorder:    metrics.Nop{},
		clock: func() time.Time {
			return time.Now().UTC()
		},
		maxWeights:    defaultMaxWeights,
		maxTrials:     defaultMaxTrials,
		defaultTrials: simulation.DefaultTrials,
		ranges:        generator.DefaultRanges(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.stationsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetStations(w http.ResponseWriter, _ *http.Request) {
	count, err := h.storage.GetStationCount()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := stationsResponse{
		Stations:  count,
		UpdatedAt: h.currentStationsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutStations(w http.ResponseWriter, r *http.Request) {
	var req stationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.storage.SetStationCount(req.Stations); err != nil {
		if errors.Is(err, storage.ErrInvalidStationCount) {
			writeError(w, http.StatusBadRequest, "Invalid station count", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markStationsUpdated()

	count, err := h.storage.GetStationCount()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := stationsResponse{
		Stations:  count,
		UpdatedAt: h.currentStationsUpdatedAt(),
		Message:   "Station count updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePartition(w http.ResponseWriter, r *http.Request) {
	var req partitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Weights) > h.maxWeights {
		writeError(w, http.StatusBadRequest, "Too many weights",
			fmt.Sprintf("at most %d weights are accepted, got %d", h.maxWeights, len(req.Weights)))
		return
	}
	total := 0
	for i, weight := range req.Weights {
		if weight <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid weights",
				fmt.Sprintf("weights must be positive integers, got %d at position %d", weight, i))
			return
		}
		if weight > math.MaxInt-total {
			writeError(w, http.StatusBadRequest, "Invalid weights",
				fmt.Sprintf("total weight overflows at position %d", i), "Split the request into smaller batches")
			return
		}
		total += weight
	}

	stations := 0
	if req.Stations != nil {
		stations = *req.Stations
	} else {
		count, err := h.storage.GetStationCount()
		if err != nil {
			writeInternalError(w, err)
			return
		}
		stations = count
	}
	if stations > storage.MaxStations {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("at most %d stations are supported, got %d", storage.MaxStations, stations))
		return
	}

	start := time.Now()
	result, err := h.partitioner.Partition(req.Weights, stations)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, partition.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error(), "Provide at least one station")
			return
		}
		writeInternalError(w, err)
		return
	}
	h.recorder.ObservePartition(result, len(req.Weights), elapsed)

	resp := partitionResponse{
		Stations:          toStationResponses(result),
		Balanced:          result.Balanced,
		MaxLoad:           result.MaxLoad,
		MinLoad:           result.MinLoad(),
		TotalLoad:         result.TotalLoad(),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	trials := h.defaultTrials
	if req.Trials != nil {
		trials = *req.Trials
	}
	if trials < 1 || trials > h.maxTrials {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("trials must be between 1 and %d, got %d", h.maxTrials, trials))
		return
	}

	seed := uint64(h.clock().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}

	report, err := h.runner.Run(r.Context(), simulation.Config{
		Trials: trials,
		Seed:   seed,
		Ranges: h.ranges,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "Simulation aborted", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	resp := simulateResponse{
		Seed:    report.Seed,
		Summary: toSummaryResponse(report.Summary),
		Trials:  make([]trialResponse, len(report.Trials)),
	}
	for i, tr := range report.Trials {
		resp.Trials[i] = trialResponse{
			Trial:       tr.Number,
			Populations: tr.Dataset.Populations,
			Stations:    toStationResponses(tr.Result),
			Balanced:    tr.Result.Balanced,
			MaxLoad:     tr.Result.MaxLoad,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) currentStationsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stationsUpdatedAt
}

func (h *Handler) markStationsUpdated() {
	h.mu.Lock()
	h.stationsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func toStationResponses(result partition.Result) []stationResponse {
	out := make([]stationResponse, len(result.Bins))
	for i, bin := range result.Bins {
		out[i] = stationResponse{
			Station: bin.Index + 1,
			Index:   bin.Index,
			Weights: bin.Weights,
			Load:    bin.Load,
		}
	}
	return out
}

func toSummaryResponse(s simulation.Summary) summaryResponse {
	return summaryResponse{
		Trials:        s.Trials,
		Balanced:      s.Balanced,
		BalancedRatio: s.BalancedRatio,
		MeanSpread:    s.MeanSpread,
		StdDevSpread:  s.StdDevSpread,
		MeanMaxLoad:   s.MeanMaxLoad,
	}
}

type stationsRequest struct {
	Stations int `json:"stations"`
}

type partitionRequest struct {
	Weights  []int `json:"weights"`
	Stations *int  `json:"stations,omitempty"`
}

type simulateRequest struct {
	Trials *int    `json:"trials,omitempty"`
	Seed   *uint64 `json:"seed,omitempty"`
}

type stationResponse struct {
	Station int   `json:"station"`
	Index   int   `json:"index"`
	Weights []int `json:"weights"`
	Load    int   `json:"load"`
}

type partitionResponse struct {
	Stations          []stationResponse `json:"stations"`
	Balanced          bool              `json:"balanced"`
	MaxLoad           int               `json:"maxLoad"`
	MinLoad           int               `json:"minLoad"`
	TotalLoad         int               `json:"totalLoad"`
	CalculationTimeMs int64             `json:"calculationTimeMs"`
}

type summaryResponse struct {
	Trials        int     `json:"trials"`
	Balanced      int     `json:"balanced"`
	BalancedRatio float64 `json:"balancedRatio"`
	MeanSpread    float64 `json:"meanSpread"`
	StdDevSpread  float64 `json:"stdDevSpread"`
	MeanMaxLoad   float64 `json:"meanMaxLoad"`
}

type trialResponse struct {
	Trial       int               `json:"trial"`
	Populations []int             `json:"populations"`
	Stations    []stationResponse `json:"stations"`
	Balanced    bool              `json:"balanced"`
	MaxLoad     int               `json:"maxLoad"`
}

type simulateResponse struct {
	Seed    uint64          `json:"seed"`
	Summary summaryResponse `json:"summary"`
	Trials  []trialResponse `json:"trials"`
}

type stationsResponse struct {
	Stations  int       `json:"stations"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
