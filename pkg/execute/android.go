package execute

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jihwankim/shader-fuzz/pkg/reporting"
	"github.com/jihwankim/shader-fuzz/pkg/testdir"
)

// deviceWorkDir is where Amber scripts and outputs live on the device.
const deviceWorkDir = "/data/local/tmp/graphicsfuzz"

// runAmberAndroid pushes the Amber script to the device, runs amber_ndk in
// the device work directory, and pulls back the dump. The device-side output
// is written to amber_log.txt; the driver appends it to the main log
// afterwards.
func runAmberAndroid(
	ctx context.Context,
	capture *reporting.Capture,
	opts Options,
	amberScript string,
	isCompute bool,
) (string, error) {
	adb, err := ToolOnPath(AdbTool)
	if err != nil {
		return "", err
	}

	var base []string
	if serial := opts.Device.Android.Serial; serial != "" {
		base = []string{"-s", serial}
	}
	adbRun := func(w io.Writer, args ...string) error {
		return Run(ctx, w, opts.AmberTimeout, adb, append(append([]string{}, base...), args...)...)
	}

	log := capture.Writer()

	if err := adbRun(log, "shell", "mkdir -p "+deviceWorkDir); err != nil {
		return adbStatus(err)
	}

	scriptOnDevice := deviceWorkDir + "/" + filepath.Base(amberScript)
	if err := adbRun(log, "push", amberScript, scriptOnDevice); err != nil {
		return adbStatus(err)
	}

	dumpFile := testdir.ImageFile
	dumpFlag := "--image"
	if isCompute {
		dumpFile = testdir.BufferFile
		dumpFlag = "--buffer"
	}

	amberLog, err := os.Create(testdir.AmberLogPath(opts.OutputDir))
	if err != nil {
		return "", fmt.Errorf("failed to create amber log: %w", err)
	}
	defer amberLog.Close()

	shellCmd := strings.Join([]string{
		"cd " + deviceWorkDir,
		"./amber_ndk " + filepath.Base(amberScript) + " " + dumpFlag + " " + dumpFile,
	}, " && ")

	runErr := adbRun(amberLog, "shell", shellCmd)
	if runErr != nil {
		return adbStatus(runErr)
	}

	// Best effort: a crash before the dump leaves nothing to pull.
	if err := adbRun(log, "pull", deviceWorkDir+"/"+dumpFile, filepath.Join(opts.OutputDir, dumpFile)); err != nil && !isSubprocessFailure(err) && !isTimeout(err) {
		return "", err
	}

	return testdir.StatusSuccess, nil
}

// adbStatus maps an adb invocation error to a result status. Nonzero adb
// exit means the device-side command failed; anything else is an
// infrastructure error.
func adbStatus(err error) (string, error) {
	switch {
	case isTimeout(err):
		return testdir.StatusTimeout, nil
	case isSubprocessFailure(err):
		return testdir.StatusCrash, nil
	default:
		return "", err
	}
}
