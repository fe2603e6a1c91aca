// Package ensemble runs batches of independent simulations and compares their
// outcome frequencies with the analytical model.
package ensemble

import (
	"context"
	"fmt"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"beacon-sim/analysis"
	"beacon-sim/beacon"
	"beacon-sim/models"
)

// Options configures a batch.
type Options struct {
	Runs    int
	Ticks   int
	Workers int
	Logger  *zap.Logger
	// OnRunDone is called after each run completes, from a worker goroutine.
	OnRunDone func(run int)
}

// Run executes opts.Runs simulations of cfg with seeds cfg.Seed, cfg.Seed+1,
// ... and summarizes each run's final aggregates next to the analytical
// report for params.
func Run(ctx context.Context, cfg beacon.Config, params analysis.Params, opts Options) (models.EnsembleReport, error) {
	if opts.Runs <= 0 || opts.Ticks <= 0 || opts.Workers <= 0 {
		return models.EnsembleReport{}, fmt.Errorf("runs, ticks and workers must be positive, got %d, %d, %d", opts.Runs, opts.Ticks, opts.Workers)
	}
	model, err := analysis.New(params)
	if err != nil {
		return models.EnsembleReport{}, err
	}
	if err := cfg.Validate(); err != nil {
		return models.EnsembleReport{}, fmt.Errorf("%w: %w", beacon.ErrInvalidConfig, err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	finals := make([]models.TickMetrics, opts.Runs)
	errs := make([]error, opts.Runs)

	wp := workerpool.New(opts.Workers)
	for i := 0; i < opts.Runs; i++ {
		runCfg := cfg
		runCfg.Seed = cfg.Seed + uint64(i)
		wp.Submit(func() {
			finals[i], errs[i] = runOne(ctx, runCfg, opts.Ticks, log)
			if opts.OnRunDone != nil {
				opts.OnRunDone(i)
			}
		})
	}
	wp.StopWait()

	var result *multierror.Error
	for i, err := range errs {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("run %d: %w", i, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return models.EnsembleReport{}, err
	}

	return models.EnsembleReport{
		Runs:        opts.Runs,
		Ticks:       opts.Ticks,
		Compromised: summarize(finals, func(m models.TickMetrics) *float64 { return m.CompromisedGroupsPercent }),
		Failed:      summarize(finals, func(m models.TickMetrics) *float64 { return m.FailedSignaturesPercent }),
		Lynchpinned: summarize(finals, func(m models.TickMetrics) *float64 { return m.LynchpinnedSignaturesPercent }),
		Dominated:   summarize(finals, func(m models.TickMetrics) *float64 { return m.DominatedSignaturesPercent }),
		Analytical:  model.Report(),
	}, nil
}

func runOne(ctx context.Context, cfg beacon.Config, ticks int, log *zap.Logger) (models.TickMetrics, error) {
	sim, err := beacon.New(cfg, beacon.WithLogger(log))
	if err != nil {
		return models.TickMetrics{}, err
	}
	var last models.TickMetrics
	err = sim.Run(ctx, ticks, func(m models.TickMetrics) error {
		last = m
		return nil
	})
	return last, err
}

// summarize takes the mean and spread of one aggregate over the runs where it
// is defined.
func summarize(finals []models.TickMetrics, pick func(models.TickMetrics) *float64) models.EnsembleStat {
	var xs stats.Float64Data
	for _, m := range finals {
		if v := pick(m); v != nil {
			xs = append(xs, *v)
		}
	}
	if len(xs) == 0 {
		return models.EnsembleStat{}
	}
	mean, _ := xs.Mean()
	stddev, _ := xs.StandardDeviation()
	return models.EnsembleStat{Samples: len(xs), Mean: mean, StdDev: stddev}
}
