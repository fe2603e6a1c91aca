package main

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beacon-sim/ensemble"
	"beacon-sim/logger"
)

var (
	flagRuns         int
	flagWorkers      int
	flagEnsembleTick int
)

var ensembleCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Run a batch of seeded simulations and compare them with the analytical model",
	RunE:  runEnsemble,
}

func init() {
	ensembleCmd.Flags().IntVar(&flagRuns, "runs", 0,
		"number of runs (defaults to ensemble.runs)")
	ensembleCmd.Flags().IntVar(&flagWorkers, "workers", 0,
		"concurrent runs (defaults to ensemble.workers)")
	ensembleCmd.Flags().IntVar(&flagEnsembleTick, "ticks", 0,
		"ticks per run (defaults to ticks)")
}

func runEnsemble(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts := ensemble.Options{
		Runs:    cfg.Ensemble.Runs,
		Ticks:   cfg.Ticks,
		Workers: cfg.Ensemble.Workers,
		// per-tick diagnostics of every run would drown the summary
		Logger: logger.Logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)),
	}
	if flagRuns > 0 {
		opts.Runs = flagRuns
	}
	if flagWorkers > 0 {
		opts.Workers = flagWorkers
	}
	if flagEnsembleTick > 0 {
		opts.Ticks = flagEnsembleTick
	}

	var mu sync.Mutex
	bar := progressbar.Default(int64(opts.Runs), "Runs:")
	opts.OnRunDone = func(int) {
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Add(1)
	}

	report, err := ensemble.Run(cmd.Context(), cfg.Simulation, cfg.AnalysisParams(), opts)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	logger.Logger.Info("Ensemble finished",
		zap.Int("runs", report.Runs),
		zap.Float64("compromised_mean", report.Compromised.Mean),
		zap.Float64("compromised_analytical", report.Analytical.Compromised))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
