package execute

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jihwankim/shader-fuzz/pkg/binaries"
	"github.com/jihwankim/shader-fuzz/pkg/devices"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
	"github.com/jihwankim/shader-fuzz/pkg/shaderjob"
	"github.com/jihwankim/shader-fuzz/pkg/testdir"
)

// Options bundles one shader-job execution.
type Options struct {
	// ShaderJob is the variant shader job manifest to run.
	ShaderJob string
	// OutputDir receives log.txt, STATUS, the Amber script and any dumps.
	OutputDir string
	// SpirvOptArgs are the optimizer arguments for this test, nil for no_opt.
	SpirvOptArgs []string
	// Device is the execution target.
	Device *devices.Device
	// Binaries resolves tool versions, already layered with the test's and
	// device's overrides.
	Binaries *binaries.Manager
	// AmberTimeout bounds the Amber run.
	AmberTimeout time.Duration
}

// RunShaderJob produces a result directory containing at minimum log.txt and
// STATUS. Subprocess failures are absorbed into the status string; lookup
// and filesystem failures surface as errors.
func RunShaderJob(ctx context.Context, opts Options) (string, error) {
	capture, err := reporting.NewCapture(testdir.LogPath(opts.OutputDir))
	if err != nil {
		return "", err
	}
	defer capture.Close()

	amberScript := filepath.Join(opts.OutputDir, testdir.AmberScriptFile)

	if err := convertToAmber(ctx, capture, opts, amberScript); err != nil {
		if isSubprocessFailure(err) || isTimeout(err) {
			if werr := testdir.WriteStatus(opts.OutputDir, testdir.StatusHostCrash); werr != nil {
				return "", werr
			}
			return testdir.StatusHostCrash, nil
		}
		return "", err
	}

	isCompute := len(shaderjob.RelatedFiles(opts.ShaderJob, shaderjob.SuffixComp)) > 0

	kind, err := opts.Device.Kind()
	if err != nil {
		return "", err
	}

	var status string
	switch kind {
	case devices.KindPreprocess:
		// Getting this far is all a preprocess device asks for.
		status = testdir.StatusSuccess

	case devices.KindHost, devices.KindSwiftShader:
		status, err = runAmberHost(ctx, capture, opts, amberScript, isCompute, kind == devices.KindSwiftShader)

	case devices.KindAndroid:
		status, err = runAmberAndroid(ctx, capture, opts, amberScript, isCompute)

	default:
		return "", fmt.Errorf("unsupported device kind %q", kind)
	}
	if err != nil {
		return "", err
	}

	if err := testdir.WriteStatus(opts.OutputDir, status); err != nil {
		return "", err
	}

	if err := capture.AppendFile(testdir.AmberLogPath(opts.OutputDir)); err != nil {
		return "", err
	}

	return status, nil
}

// convertToAmber turns the shader job into an Amber script via the external
// converter, honoring the requested optimizer arguments. The glslang and
// spirv-opt executables are resolved through the binary manager and handed
// to the converter explicitly so overrides take effect.
func convertToAmber(ctx context.Context, capture *reporting.Capture, opts Options, amberScript string) error {
	tool, err := ToolOnPath(ShaderJobToAmberTool)
	if err != nil {
		return err
	}

	glslangPath, _, err := opts.Binaries.ResolveByName(binaries.GlslangValidatorName)
	if err != nil {
		return err
	}

	args := []string{opts.ShaderJob, amberScript, opts.OutputDir, "--glslang", glslangPath}

	if len(opts.SpirvOptArgs) > 0 {
		spirvOptPath, spirvOptBinary, err := opts.Binaries.ResolveByName(binaries.SpirvOptName)
		if err != nil {
			return err
		}
		args = append(args, "--spirv-opt", spirvOptPath)
		for _, tag := range spirvOptBinary.Tags {
			if tag == binaries.SpirvOptNoValidateAfterAllTag {
				args = append(args, "--no-validate-after-all")
				break
			}
		}
		for _, optArg := range opts.SpirvOptArgs {
			args = append(args, "--spirv-opt-arg", optArg)
		}
	}

	return Run(ctx, capture.Writer(), opts.AmberTimeout, tool, args...)
}

// runAmberHost runs Amber locally, dumping an image for graphics pipelines
// or a buffer for compute. SwiftShader devices point Amber at the
// SwiftShader ICD resolved through the binary manager.
func runAmberHost(
	ctx context.Context,
	capture *reporting.Capture,
	opts Options,
	amberScript string,
	isCompute bool,
	swiftShader bool,
) (string, error) {
	amber, err := ToolOnPath(AmberTool)
	if err != nil {
		return "", err
	}

	args := []string{filepath.Base(amberScript)}
	if isCompute {
		args = append(args, "--buffer", testdir.BufferFile)
	} else {
		args = append(args, "--image", testdir.ImageFile)
	}

	if swiftShader {
		icdPath, _, err := opts.Binaries.ResolveByName(binaries.SwiftShaderICDName)
		if err != nil {
			return "", err
		}
		args = append(args, "--icd", icdPath)
	}

	err = RunIn(ctx, capture.Writer(), opts.AmberTimeout, opts.OutputDir, nil, amber, args...)
	switch {
	case err == nil:
		return testdir.StatusSuccess, nil
	case isTimeout(err):
		return testdir.StatusTimeout, nil
	case isSubprocessFailure(err):
		return testdir.StatusCrash, nil
	default:
		return "", err
	}
}
