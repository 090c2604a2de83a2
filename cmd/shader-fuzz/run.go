package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jihwankim/shader-fuzz/pkg/devices"
	"github.com/jihwankim/shader-fuzz/pkg/fuzz"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run the fuzzing loop",
	Long: `Run executes fuzzing iterations until interrupted.

Each iteration picks a random reference shader job from the donors corpus,
generates a variant, forks six sibling tests across optimizer presets, runs
each on every active device, files crashing results into the reports tree
keyed by crash signature, and reduces every report twice.

All randomness derives from the master seed, so a run is reproducible:
  shader-fuzz run --seed 42

By default an iteration stops at the first preset that files a report; pass
--keep-going to run all presets regardless (and to survive failed
reductions). With --dry-run, each iteration prints its chosen reference,
seed and presets without executing anything.`,
	RunE: runFuzz,
}

func init() {
	runCmd.Flags().Int64("seed", 0, "master seed for all random choices")
	runCmd.Flags().Int("iterations", 0, "number of iterations to run (0 = until interrupted)")
	runCmd.Flags().Bool("keep-going", false, "run remaining presets even after a report is filed")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9101)")
	runCmd.Flags().Bool("dry-run", false, "print iterations without executing")
}

func runFuzz(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("seed") {
		cfg.Fuzz.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Fuzz.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("keep-going") {
		cfg.Fuzz.KeepGoing, _ = cmd.Flags().GetBool("keep-going")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.ListenAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.Fuzz.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}

	logger := newLogger(cfg)
	logger.Info("Shader-fuzz starting", "version", version)

	deviceList, err := devices.ReadOrCreateList(cfg.Paths.DeviceList)
	if err != nil {
		return err
	}

	manager := newBinaryManager(cfg, logger)
	metrics := fuzz.NewMetrics()

	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				logger.Warn("Metrics server stopped", "error", err)
			}
		}()
		logger.Info("Serving metrics", "addr", cfg.Metrics.ListenAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := fuzz.NewRunner(cfg, logger, manager, deviceList.Active(), metrics)
	return runner.Run(ctx)
}
