// Package metrics records partition runs for Prometheus.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eugenenazirov/station-partitioner/internal/partition"
)

// Recorder observes completed partition runs.
type Recorder interface {
	ObservePartition(result partition.Result, weights int, elapsed time.Duration)
}

// Nop discards every observation.
type Nop struct{}

// ObservePartition implements Recorder.
func (Nop) ObservePartition(partition.Result, int, time.Duration) {}

// PromRecorder exports partition runs as Prometheus metrics.
type PromRecorder struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	weights  prometheus.Histogram
	spread   prometheus.Histogram
}

// NewPromRecorder registers partition metrics on reg.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "partition_runs_total",
		Help: "Total number of partition runs by outcome",
	}, []string{"balanced"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "partition_duration_seconds",
		Help:    "Time spent partitioning weights across stations",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
	weights := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "partition_weights",
		Help:    "Number of weights per partition run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	spread := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "partition_spread",
		Help:    "Difference between the heaviest and lightest station load",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if weights, err = register(reg, weights); err != nil {
		return nil, err
	}
	if spread, err = register(reg, spread); err != nil {
		return nil, err
	}

	return &PromRecorder{runs: runs, duration: duration, weights: weights, spread: spread}, nil
}

// ObservePartition implements Recorder.
func (r *PromRecorder) ObservePartition(result partition.Result, weights int, elapsed time.Duration) {
	r.runs.WithLabelValues(strconv.FormatBool(result.Balanced)).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.weights.Observe(float64(weights))
	r.spread.Observe(float64(result.Spread()))
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
