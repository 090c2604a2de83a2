// Package reduce drives the external glsl-reduce tool over triaged crash
// reports. Each report is reduced twice: a semantics-preserving pass, then
// an aggressive pass seeded with the first pass's output. The reducer calls
// back into shader-fuzz through the interestingness-test contract.
package reduce

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jihwankim/shader-fuzz/pkg/execute"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
	"github.com/jihwankim/shader-fuzz/pkg/shaderjob"
	"github.com/jihwankim/shader-fuzz/pkg/testdir"
)

// Reduction pass names.
const (
	PassPreserveSemantics = "part_1_preserve_semantics"
	PassChangeSemantics   = "part_2_change_semantics"
)

// GlslReduceTool is the external reducer expected on PATH.
const GlslReduceTool = "glsl-reduce"

// interestingnessCommand is the callback the reducer invokes per step, with
// the metadata path appended. It reruns the test and exits zero iff the
// crash signature still reproduces.
var interestingnessCommand = []string{"shader-fuzz", "interesting"}

// RunGlslReduce invokes the external reducer on a shader job, producing its
// intermediates under outputDir.
func RunGlslReduce(
	ctx context.Context,
	log io.Writer,
	inputShaderJob string,
	metadataPath string,
	outputDir string,
	preserveSemantics bool,
) error {
	args := []string{inputShaderJob}
	if preserveSemantics {
		args = append([]string{"--preserve-semantics"}, args...)
	}
	args = append(args, "--output", outputDir, "--")
	args = append(args, interestingnessCommand...)
	args = append(args, metadataPath)

	tool, err := execute.ToolOnPath(GlslReduceTool)
	if err != nil {
		return err
	}

	// Reductions run unbounded; each step is bounded by the
	// interestingness test's own Amber timeout.
	return execute.Run(ctx, log, 0, tool, args...)
}

// RunReduction runs one reduction pass over testDirToReduce, writing the
// reduction under outputTestDir. The test's metadata must carry a crash
// signature, and a device must come from deviceName or the metadata; both
// are checked up front. Returns the reduced test directory, itself a valid
// test directory holding the reduced shader job.
func RunReduction(
	ctx context.Context,
	logger *reporting.Logger,
	outputTestDir string,
	testDirToReduce string,
	preserveSemantics bool,
	reductionName string,
	deviceName string,
) (string, error) {
	metadata, err := testdir.ReadMetadata(testDirToReduce)
	if err != nil {
		return "", err
	}

	if deviceName == "" {
		if metadata.Device == nil || metadata.Device.Name == "" {
			return "", fmt.Errorf(
				"cannot reduce %s: device must be specified in %s",
				testDirToReduce, testdir.MetadataPath(testDirToReduce),
			)
		}
		deviceName = metadata.Device.Name
	}

	if metadata.CrashSignature == "" {
		return "", fmt.Errorf(
			"cannot reduce %s: no crash signature; only crash reductions are supported",
			testDirToReduce,
		)
	}

	reducedTestDir := testdir.ReducedTestDir(outputTestDir, deviceName, reductionName)
	workDir := testdir.ReductionWorkDir(reducedTestDir, true)

	logger.Info("Running reduction",
		"pass", reductionName,
		"test", testDirToReduce,
		"device", deviceName,
		"preserve_semantics", preserveSemantics,
	)

	capture, err := reporting.NewCapture(testdir.LogPath(reducedTestDir))
	if err != nil {
		return "", err
	}
	defer capture.Close()

	if err := RunGlslReduce(
		ctx,
		capture.Writer(),
		testdir.ShaderJobPath(testDirToReduce, true),
		testdir.MetadataPath(testDirToReduce),
		workDir,
		preserveSemantics,
	); err != nil {
		return "", fmt.Errorf("glsl-reduce failed for %s: %w", testDirToReduce, err)
	}

	finalJob := FinalReducedShaderJobPath(workDir)
	if _, err := os.Stat(finalJob); err != nil {
		return "", fmt.Errorf("reduction produced no %s in %s", testdir.FinalReducedJobFile, workDir)
	}

	if err := testdir.WriteMetadata(reducedTestDir, metadata); err != nil {
		return "", err
	}

	if _, err := shaderjob.Copy(finalJob, testdir.ShaderJobPath(reducedTestDir, true)); err != nil {
		return "", err
	}

	return reducedTestDir, nil
}

// ReduceReport runs the two-pass policy over one report directory and links
// "best" to the second pass.
func ReduceReport(ctx context.Context, logger *reporting.Logger, reportDir string) error {
	part1, err := RunReduction(ctx, logger, reportDir, reportDir, true, PassPreserveSemantics, "")
	if err != nil {
		return err
	}

	if _, err := RunReduction(ctx, logger, reportDir, part1, false, PassChangeSemantics, ""); err != nil {
		return err
	}

	metadata, err := testdir.ReadMetadata(reportDir)
	if err != nil {
		return err
	}

	best := testdir.ReducedTestDir(reportDir, metadata.Device.Name, testdir.BestReductionLink)
	if err := os.Symlink(PassChangeSemantics, best); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to link best reduction: %w", err)
	}

	return nil
}

// FinalReducedShaderJobPath returns the reducer's final output manifest
// within a reduction work directory.
func FinalReducedShaderJobPath(reductionWorkDir string) string {
	return filepath.Join(reductionWorkDir, testdir.FinalReducedJobFile)
}
