package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"beacon-sim/config"
	"beacon-sim/logger"
)

var (
	flagConfig string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "beacon-sim",
	Short:         "Random beacon group signing simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path := flagConfig
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
			// no config file next to the binary: run on built-in defaults
			path = ""
		}
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := logger.InitLogger(c.Log.AppLogFile, c.Log.Level); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath,
		"path to the YAML config file")

	rootCmd.AddCommand(runCmd, analyzeCmd, ensembleCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Logger.Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
