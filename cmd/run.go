package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beacon-sim/db"
	"beacon-sim/logger"
	"beacon-sim/models"
	"beacon-sim/repository"
	"beacon-sim/runner"
)

var (
	flagSeed  uint64
	flagTicks int
	flagStore bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print its final metrics",
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().Uint64Var(&flagSeed, "seed", 0,
		"random seed (defaults to simulation.seed)")
	runCmd.Flags().IntVar(&flagTicks, "ticks", 0,
		"ticks to simulate (defaults to ticks)")
	runCmd.Flags().BoolVar(&flagStore, "store", false,
		"persist the run to the configured leveldb instead of memory")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		ldb *db.LevelDB
		err error
	)
	if flagStore {
		ldb, err = db.NewLevelDB(cfg.LevelDB.Path)
	} else {
		ldb, err = db.NewMemLevelDB()
	}
	if err != nil {
		return fmt.Errorf("open leveldb: %w", err)
	}
	defer ldb.Close()

	r := runner.NewRunner(repository.NewRunRepository(ldb), cfg.Simulation, cfg.Ticks, cfg.AnalysisParams(), nil, logger.Logger)

	req := runner.RunRequest{Ticks: flagTicks}
	if cmd.Flags().Changed("seed") {
		req.Seed = &flagSeed
	}
	ticks := req.Ticks
	if ticks == 0 {
		ticks = cfg.Ticks
	}

	bar := progressbar.Default(int64(ticks), "Simulating:")
	run, err := r.Run(cmd.Context(), req, func(models.TickMetrics) { _ = bar.Add(1) })
	if err != nil {
		return err
	}
	_ = bar.Finish()

	logger.Logger.Info("Run finished", zap.String("run_id", run.ID), zap.Bool("stored", flagStore))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
