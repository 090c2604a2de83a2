// Package fuzz implements the end-to-end fuzzing loop: synthesize a variant
// shader job, fan it out across optimizer presets and devices, classify
// failures into bucketed reports, and drive the reduction pipeline.
package fuzz

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jihwankim/shader-fuzz/pkg/binaries"
	"github.com/jihwankim/shader-fuzz/pkg/config"
	"github.com/jihwankim/shader-fuzz/pkg/devices"
	"github.com/jihwankim/shader-fuzz/pkg/execute"
	"github.com/jihwankim/shader-fuzz/pkg/reduce"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
	"github.com/jihwankim/shader-fuzz/pkg/shaderjob"
	"github.com/jihwankim/shader-fuzz/pkg/signature"
	"github.com/jihwankim/shader-fuzz/pkg/testdir"
)

// Optimizer preset names.
const (
	PresetNoOpt    = "no_opt"
	PresetOptO     = "opt_O"
	PresetOptOs    = "opt_Os"
	PresetOptRand1 = "opt_rand1"
	PresetOptRand2 = "opt_rand2"
	PresetOptRand3 = "opt_rand3"
)

type preset struct {
	name         string
	spirvOptArgs []string
}

// Runner executes fuzzing iterations until its context is cancelled or the
// configured iteration count is reached. All randomness derives from the
// master seed, so a run is reproducible from its config alone.
type Runner struct {
	cfg     *config.Config
	logger  *reporting.Logger
	rng     *rand.Rand
	manager *binaries.Manager
	devices []devices.Device
	metrics *Metrics
}

// NewRunner builds a Runner over the active device roster.
func NewRunner(
	cfg *config.Config,
	logger *reporting.Logger,
	manager *binaries.Manager,
	activeDevices []devices.Device,
	metrics *Metrics,
) *Runner {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Runner{
		cfg:     cfg,
		logger:  logger,
		rng:     rand.New(rand.NewSource(cfg.Fuzz.Seed)),
		manager: manager,
		devices: activeDevices,
		metrics: metrics,
	}
}

// Run executes iterations until interrupted. A cancelled context is a clean
// exit: the current subprocess is aborted and the partially-written test
// directory is left behind in temp, which is scratch space.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.devices) == 0 && !r.cfg.Fuzz.DryRun {
		return fmt.Errorf("no active devices in the roster")
	}

	references, err := r.references()
	if err != nil {
		return err
	}
	if len(references) == 0 {
		return fmt.Errorf("no usable shader jobs in donors directory %s", r.cfg.Paths.DonorsDir)
	}

	r.logger.Info("Starting fuzzing loop",
		"seed", r.cfg.Fuzz.Seed,
		"references", len(references),
		"devices", len(r.devices),
		"dry_run", r.cfg.Fuzz.DryRun,
	)

	for iteration := 0; ; iteration++ {
		if ctx.Err() != nil {
			r.logger.Info("Interrupted; stopping", "iterations", iteration)
			return nil
		}
		if r.cfg.Fuzz.Iterations > 0 && iteration >= r.cfg.Fuzz.Iterations {
			r.logger.Info("Iteration limit reached", "iterations", iteration)
			return nil
		}

		if err := r.iterate(ctx, references); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("Interrupted; stopping", "iterations", iteration)
				return nil
			}
			return err
		}
		r.metrics.Iterations.Inc()
	}
}

// references collects donor shader jobs that have at least one GLSL stage
// sibling, sorted for stable random selection under a fixed seed.
func (r *Runner) references() ([]string, error) {
	var refs []string
	err := filepath.WalkDir(r.cfg.Paths.DonorsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if len(shaderjob.RelatedFiles(path, shaderjob.StageSuffixes...)) > 0 {
			refs = append(refs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan donors: %w", err)
	}
	sort.Strings(refs)
	return refs, nil
}

// testName draws a fresh 128-bit identifier from the seeded stream,
// hex-encoded.
func (r *Runner) testName() string {
	u, err := uuid.NewRandomFromReader(r.rng)
	if err != nil {
		// The math/rand reader never fails.
		panic(err)
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

// makePresets draws this iteration's six optimizer configurations. The
// random presets consume the seeded stream in a fixed order.
func (r *Runner) makePresets() []preset {
	return []preset{
		{name: PresetNoOpt, spirvOptArgs: nil},
		{name: PresetOptO, spirvOptArgs: []string{"-O"}},
		{name: PresetOptOs, spirvOptArgs: []string{"-Os"}},
		{name: PresetOptRand1, spirvOptArgs: RandomSpirvOptArgs(r.rng)},
		{name: PresetOptRand2, spirvOptArgs: RandomSpirvOptArgs(r.rng)},
		{name: PresetOptRand3, spirvOptArgs: RandomSpirvOptArgs(r.rng)},
	}
}

func (r *Runner) iterate(ctx context.Context, references []string) error {
	name := r.testName()
	testDir := filepath.Join(r.cfg.Paths.TempDir, name)
	baseSourceDir := filepath.Join(testDir, testdir.BaseSourceDirName)

	reference := references[r.rng.Intn(len(references))]
	seed := int64(r.rng.Uint32()) - (1 << 31)
	presets := r.makePresets()

	if r.cfg.Fuzz.DryRun {
		r.logger.Info("Dry-run iteration", "test", name, "reference", reference, "seed", seed)
		for _, p := range presets {
			r.logger.Info("Dry-run preset",
				"preset", p.name,
				"spirv_opt_args", strings.Join(p.spirvOptArgs, " "),
			)
		}
		return nil
	}

	r.logger.Info("New iteration", "test", name, "reference", reference, "seed", seed)

	referenceJob, err := shaderjob.Copy(
		reference,
		filepath.Join(baseSourceDir, testdir.ReferenceDir, testdir.ShaderJobFile),
	)
	if err != nil {
		return err
	}

	// The base source carries an initial metadata record; each sibling
	// overwrites its copy with preset-specific metadata.
	if err := testdir.WriteMetadata(baseSourceDir, &testdir.Metadata{GLSL: &testdir.GLSLTest{}}); err != nil {
		return err
	}

	variantJob := filepath.Join(baseSourceDir, testdir.VariantDir, testdir.ShaderJobFile)
	if err := r.generateVariant(ctx, referenceJob, variantJob, seed); err != nil {
		return err
	}

	subtestDirs := make([]string, len(presets))
	for i, p := range presets {
		subtestDirs[i] = filepath.Join(testDir, fmt.Sprintf("%s_%s_test", name, p.name))
		if err := r.makeSubtest(baseSourceDir, subtestDirs[i], p.spirvOptArgs); err != nil {
			return err
		}
		r.metrics.Tests.WithLabelValues(p.name).Inc()
	}

	for i := range presets {
		reports, err := r.handleTest(ctx, subtestDirs[i])
		if err != nil {
			return err
		}
		if len(reports) > 0 && !r.cfg.Fuzz.KeepGoing {
			// One underlying bug per iteration; further presets would
			// mostly duplicate it.
			break
		}
	}

	return nil
}

// generateVariant invokes the external generator to synthesize a variant of
// the reference shader job.
func (r *Runner) generateVariant(ctx context.Context, referenceJob, variantJob string, seed int64) error {
	tool, err := execute.ToolOnPath(execute.GeneratorTool)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(variantJob), 0755); err != nil {
		return fmt.Errorf("failed to create variant directory: %w", err)
	}

	var output bytes.Buffer
	err = execute.Run(ctx, &output, 0, tool,
		referenceJob,
		r.cfg.Paths.DonorsDir,
		variantJob,
		strconv.FormatInt(seed, 10),
	)
	if err != nil {
		r.logger.Error("Generator failed", "error", err, "output", output.String())
		return fmt.Errorf("generator failed for %s: %w", referenceJob, err)
	}
	return nil
}

// makeSubtest creates one sibling test: a copy of the base source plus
// preset-specific metadata. The source directory is immutable from here on.
func (r *Runner) makeSubtest(baseSourceDir, subtestDir string, spirvOptArgs []string) error {
	if err := testdir.CopyDir(baseSourceDir, testdir.SourceDir(subtestDir)); err != nil {
		return err
	}
	return testdir.WriteMetadata(subtestDir, &testdir.Metadata{
		GLSL: &testdir.GLSLTest{SpirvOptArgs: spirvOptArgs},
	})
}

// handleTest runs one sibling test on every active device, files reports for
// crashing results, and reduces each report. Returns the report directories
// filed.
func (r *Runner) handleTest(ctx context.Context, testDir string) ([]string, error) {
	metadata, err := testdir.ReadMetadata(testDir)
	if err != nil {
		return nil, err
	}
	if metadata.GLSL == nil {
		return nil, fmt.Errorf("unrecognized test kind in %s", testdir.MetadataPath(testDir))
	}

	testManager := r.manager.ChildWithOverrides(metadata.Binaries)

	// Devices run serially. A preprocess failure means host-side tooling is
	// broken for this variant, so real devices are skipped.
	for _, device := range r.devices {
		device := device
		status, err := execute.RunShaderJob(ctx, execute.Options{
			ShaderJob:    testdir.ShaderJobPath(testDir, true),
			OutputDir:    testdir.ResultsDir(testDir, device.Name, true),
			SpirvOptArgs: metadata.GLSL.SpirvOptArgs,
			Device:       &device,
			Binaries:     testManager.ChildWithOverrides(device.Binaries),
			AmberTimeout: r.cfg.Amber.RunTimeout,
		})
		if err != nil {
			return nil, err
		}
		r.metrics.Results.WithLabelValues(status).Inc()

		if device.Preprocess != nil && status == testdir.StatusHostCrash {
			break
		}
	}

	reportDirs, err := r.fileReports(testDir)
	if err != nil {
		return nil, err
	}

	for _, reportDir := range reportDirs {
		if err := reduce.ReduceReport(ctx, r.logger, reportDir); err != nil {
			r.metrics.Reductions.WithLabelValues("failed").Inc()
			if r.cfg.Fuzz.KeepGoing {
				r.logger.Error("Reduction failed", "report", reportDir, "error", err)
				continue
			}
			return nil, err
		}
		r.metrics.Reductions.WithLabelValues("ok").Inc()
	}

	return reportDirs, nil
}

// fileReports copies the test into the report tree once per crashing device,
// keyed by bucket, signature, and test/device name, then rewrites the
// report's metadata with the signature and device.
func (r *Runner) fileReports(testDir string) ([]string, error) {
	var reportDirs []string

	for _, device := range r.devices {
		device := device
		resultDir := testdir.ResultsDir(testDir, device.Name, true)

		bucket := bucketForStatus(testdir.ReadStatus(resultDir))
		if bucket == "" {
			continue
		}

		logContents, err := os.ReadFile(testdir.LogPath(resultDir))
		if err != nil {
			return nil, fmt.Errorf("failed to read result log: %w", err)
		}
		sig := signature.FromLog(string(logContents))

		// The device name is part of the report directory name: the same
		// crash signature on two devices must not collide.
		reportDir := testdir.ReportDir(
			r.cfg.Paths.ReportsDir, bucket, sig, filepath.Base(testDir), device.Name,
		)

		if err := testdir.CopyDirAtomic(testDir, reportDir); err != nil {
			return nil, err
		}

		reportMetadata, err := testdir.ReadMetadata(reportDir)
		if err != nil {
			return nil, err
		}
		reportMetadata.CrashSignature = sig
		reportMetadata.Device = &device
		if err := testdir.WriteMetadata(reportDir, reportMetadata); err != nil {
			return nil, err
		}

		r.logger.Info("Filed report", "bucket", bucket, "signature", sig, "dir", reportDir)
		r.metrics.Reports.WithLabelValues(bucket).Inc()
		reportDirs = append(reportDirs, reportDir)
	}

	return reportDirs, nil
}

// bucketForStatus maps a result status to its report bucket, or "" when the
// status does not produce a report.
func bucketForStatus(status string) string {
	switch status {
	case testdir.StatusCrash:
		return testdir.BucketCrashes
	case testdir.StatusHostCrash:
		return testdir.BucketHostCrashes
	default:
		return ""
	}
}
