package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beacon-sim/db"
	"beacon-sim/handlers"
	"beacon-sim/logger"
	"beacon-sim/metrics"
	"beacon-sim/repository"
	"beacon-sim/routers"
	"beacon-sim/runner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run report API",
	RunE:  serve,
}

func serve(*cobra.Command, []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Logger.Info("Starting beacon simulation server...")

	// Connect to LevelDB
	ldb, err := db.NewLevelDB(cfg.LevelDB.Path)
	if err != nil {
		return fmt.Errorf("open leveldb: %w", err)
	}
	defer ldb.Close()

	runRepo := repository.NewRunRepository(ldb)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	r := runner.NewRunner(runRepo, cfg.Simulation, cfg.Ticks, cfg.AnalysisParams(), collector, logger.Logger)
	h := handlers.NewHandler(r)

	router := mux.NewRouter()
	routers.RegisterRoutes(router, h, reg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Error("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", cfg.Server.Port))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
