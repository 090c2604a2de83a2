package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "shader-fuzz",
	Short: "Automated fuzzing and bug triage for Vulkan/SPIR-V shader compilers",
	Long: `Shader-fuzz repeatedly synthesizes variant shader programs from a corpus of
reference shaders, executes them across optimizer presets on a roster of
target devices, buckets divergent or crashing behavior by crash signature,
and reduces each report to a minimal reproducer.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(interestingCmd)
	rootCmd.AddCommand(resolveCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go
// - classifyCmd in classify.go
// - reduceCmd in reduce.go
// - interestingCmd in interesting.go
// - resolveCmd in resolve.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
