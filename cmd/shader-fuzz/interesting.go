package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jihwankim/shader-fuzz/pkg/execute"
	"github.com/jihwankim/shader-fuzz/pkg/signature"
	"github.com/jihwankim/shader-fuzz/pkg/testdir"
)

var interestingCmd = &cobra.Command{
	Use:   "interesting <test-metadata> [shader-job]",
	Args:  cobra.RangeArgs(1, 2),
	Short: "Interestingness test callback for the reducer",
	Long: `Interesting reruns a test and exits 0 iff its crash signature still
reproduces on the target device. glsl-reduce invokes it once per reduction
step, passing the candidate shader job after the metadata path; without one
the test's own variant shader job is used.`,
	RunE: runInteresting,
}

func runInteresting(_ *cobra.Command, args []string) error {
	metadataPath := args[0]

	metadata, err := testdir.ReadMetadataPath(metadataPath)
	if err != nil {
		return err
	}
	if metadata.GLSL == nil {
		return fmt.Errorf("unrecognized test kind in %s", metadataPath)
	}
	if metadata.Device == nil {
		return fmt.Errorf("no device in %s", metadataPath)
	}
	if metadata.CrashSignature == "" {
		return fmt.Errorf("no crash signature in %s", metadataPath)
	}

	testDir := filepath.Dir(metadataPath)
	shaderJob := testdir.ShaderJobPath(testDir, true)
	if len(args) == 2 {
		shaderJob = args[1]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	outputDir, err := os.MkdirTemp("", "shader-fuzz-interesting-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(outputDir)

	manager := newBinaryManager(cfg, logger).ChildWithOverrides(metadata.BinaryOverrides())

	status, err := execute.RunShaderJob(context.Background(), execute.Options{
		ShaderJob:    shaderJob,
		OutputDir:    outputDir,
		SpirvOptArgs: metadata.GLSL.SpirvOptArgs,
		Device:       metadata.Device,
		Binaries:     manager,
		AmberTimeout: cfg.Amber.RunTimeout,
	})
	if err != nil {
		return err
	}

	logContents, err := os.ReadFile(testdir.LogPath(outputDir))
	if err != nil {
		return fmt.Errorf("failed to read rerun log: %w", err)
	}
	sig := signature.FromLog(string(logContents))

	logger.Debug("Rerun finished", "status", status, "signature", sig, "want", metadata.CrashSignature)

	if sig != metadata.CrashSignature {
		return fmt.Errorf("not interesting: signature %q, want %q", sig, metadata.CrashSignature)
	}

	logger.Info("Still interesting", "signature", sig)
	return nil
}
