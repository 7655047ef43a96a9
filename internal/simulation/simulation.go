// Package simulation repeats random station-assignment trials and summarises
// how often the greedy partition lands on a perfectly even distribution.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/eugenenazirov/station-partitioner/internal/generator"
	"github.com/eugenenazirov/station-partitioner/internal/partition"
)

// DefaultTrials matches the number of experiments of a classic run.
const DefaultTrials = 50

// ErrInvalidTrials is returned when a run is requested with fewer than one trial.
var ErrInvalidTrials = errors.New("trials must be a positive integer")

// Config controls a simulation run. Workers <= 0 uses GOMAXPROCS.
type Config struct {
	Trials  int
	Seed    uint64
	Workers int
	Ranges  generator.Ranges
}

// Trial is the outcome of one experiment.
type Trial struct {
	Number  int
	Dataset generator.Dataset
	Result  partition.Result
}

// Summary aggregates every trial of a run.
type Summary struct {
	Trials        int
	Balanced      int
	BalancedRatio float64
	MeanSpread    float64
	StdDevSpread  float64
	MeanMaxLoad   float64
}

// Report is the full output of Run, trials ordered by number.
type Report struct {
	Seed    uint64
	Trials  []Trial
	Summary Summary
}

// Runner executes simulation runs against a partitioner.
type Runner struct {
	partitioner partition.Partitioner
	logger      *zap.Logger
}

// NewRunner creates a Runner. A nil logger discards output.
func NewRunner(p partition.Partitioner, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{partitioner: p, logger: logger}
}

// Run executes cfg.Trials trials. Every trial seeds its own generator from
// cfg.Seed and its position, so reports do not depend on worker scheduling.
func (r *Runner) Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Trials < 1 {
		return Report{}, fmt.Errorf("%w: got %d", ErrInvalidTrials, cfg.Trials)
	}
	if err := cfg.Ranges.Validate(); err != nil {
		return Report{}, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trials := make([]Trial, cfg.Trials)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range trials {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gen, err := generator.New(cfg.Ranges, cfg.Seed+uint64(i))
			if err != nil {
				return err
			}
			ds := gen.Generate()
			res, err := r.partitioner.Partition(ds.Populations, ds.Stations)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i+1, err)
			}
			trials[i] = Trial{Number: i + 1, Dataset: ds, Result: res}
			r.logger.Debug("trial completed",
				zap.Int("trial", i+1),
				zap.Int("neighborhoods", len(ds.Populations)),
				zap.Int("stations", ds.Stations),
				zap.Bool("balanced", res.Balanced),
				zap.Int("max_load", res.MaxLoad),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{
		Seed:    cfg.Seed,
		Trials:  trials,
		Summary: Summarize(trials),
	}
	r.logger.Info("simulation finished",
		zap.Int("trials", report.Summary.Trials),
		zap.Int("balanced", report.Summary.Balanced),
		zap.Float64("mean_spread", report.Summary.MeanSpread),
	)
	return report, nil
}

// Summarize computes aggregate statistics over trials.
func Summarize(trials []Trial) Summary {
	s := Summary{Trials: len(trials)}
	if len(trials) == 0 {
		return s
	}

	spreads := make([]float64, len(trials))
	maxLoads := make([]float64, len(trials))
	for i, tr := range trials {
		if tr.Result.Balanced {
			s.Balanced++
		}
		spreads[i] = float64(tr.Result.Spread())
		maxLoads[i] = float64(tr.Result.MaxLoad)
	}

	s.BalancedRatio = float64(s.Balanced) / float64(len(trials))
	s.MeanSpread, s.StdDevSpread = stat.MeanStdDev(spreads, nil)
	if len(trials) == 1 {
		s.StdDevSpread = 0
	}
	s.MeanMaxLoad = stat.Mean(maxLoads, nil)
	return s
}
