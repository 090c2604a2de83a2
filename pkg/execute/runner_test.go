package execute_test

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/shader-fuzz/pkg/execute"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestToolOnPath(t *testing.T) {
	requireUnix(t)

	path, err := execute.ToolOnPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestToolOnPathMissing(t *testing.T) {
	_, err := execute.ToolOnPath("definitely-not-a-real-tool-name")

	var notOnPath *execute.ToolNotOnPathError
	require.ErrorAs(t, err, &notOnPath)
	assert.Equal(t, "definitely-not-a-real-tool-name", notOnPath.Tool)
}

func TestRunCapturesOutput(t *testing.T) {
	requireUnix(t)

	var log bytes.Buffer
	err := execute.Run(context.Background(), &log, 0, "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)

	assert.Contains(t, log.String(), "out")
	assert.Contains(t, log.String(), "err")
	// The command line itself is logged first.
	assert.Contains(t, log.String(), "Executing: sh")
}

func TestRunNonzeroExit(t *testing.T) {
	requireUnix(t)

	var log bytes.Buffer
	err := execute.Run(context.Background(), &log, 0, "sh", "-c", "exit 3")

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunTimeout(t *testing.T) {
	requireUnix(t)

	var log bytes.Buffer
	start := time.Now()
	err := execute.Run(context.Background(), &log, 100*time.Millisecond, "sh", "-c", "sleep 5")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 3*time.Second)
}
