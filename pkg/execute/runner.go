// Package execute runs variant shader jobs on devices. Every external tool
// invocation is a synchronous, blocking call with a wall-clock timeout, and
// all tool output is captured into the result directory's log.
package execute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Names of external tools expected on PATH.
const (
	GeneratorTool        = "generate"
	ShaderJobToAmberTool = "shader-job-to-amber"
	AmberTool            = "amber"
	AdbTool              = "adb"
)

// ToolNotOnPathError indicates a required external tool is missing from
// PATH.
type ToolNotOnPathError struct {
	Tool string
}

func (e *ToolNotOnPathError) Error() string {
	return fmt.Sprintf("could not find %s on PATH; please add it to PATH", e.Tool)
}

// ToolOnPath resolves a tool name through the standard path search.
func ToolOnPath(tool string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", &ToolNotOnPathError{Tool: tool}
	}
	return path, nil
}

// Run executes an external tool, streaming its combined output into log.
// A nonzero exit returns the *exec.ExitError; exceeding the timeout returns
// an error satisfying errors.Is(err, context.DeadlineExceeded). A timeout of
// zero means no limit beyond ctx.
func Run(ctx context.Context, log io.Writer, timeout time.Duration, name string, args ...string) error {
	return RunIn(ctx, log, timeout, "", nil, name, args...)
}

// RunIn is Run with a working directory and extra environment entries.
func RunIn(
	ctx context.Context,
	log io.Writer,
	timeout time.Duration,
	dir string,
	env []string,
	name string,
	args ...string,
) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fmt.Fprintf(log, "Executing: %s %s\n", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = log
	cmd.Stderr = log
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		fmt.Fprintf(log, "Command timed out after %s\n", timeout)
		return fmt.Errorf("%s timed out after %s: %w", name, timeout, context.DeadlineExceeded)
	}
	if err != nil {
		fmt.Fprintf(log, "Command failed: %v\n", err)
		return err
	}
	return nil
}

// isSubprocessFailure reports whether err is a tool exiting abnormally
// (nonzero exit or killed), as opposed to an infrastructure failure.
func isSubprocessFailure(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// isTimeout reports whether err is a wall-clock timeout.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
