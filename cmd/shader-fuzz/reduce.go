package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jihwankim/shader-fuzz/pkg/reduce"
)

var reduceCmd = &cobra.Command{
	Use:   "reduce <report-dir>",
	Args:  cobra.ExactArgs(1),
	Short: "Run the two-pass reduction on one report directory",
	Long: `Reduce runs both reduction passes over a triaged report: first preserving
semantics, then aggressively, and links "best" to the second pass. The
report's metadata must already carry a crash signature and a device.`,
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return reduce.ReduceReport(ctx, logger, args[0])
	},
}
