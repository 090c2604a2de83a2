package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Capture owns a per-result log file for the duration of one execution.
// Everything a run produces, both our own log lines and the raw
// stdout/stderr of external tools, ends up in that single file so the
// crash classifier sees the complete picture. Close releases the file on
// every exit path.
type Capture struct {
	file   *os.File
	logger *Logger
}

// NewCapture creates (or truncates) the log file at path, creating parent
// directories as needed.
func NewCapture(path string) (*Capture, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	return &Capture{
		file: f,
		logger: NewLogger(LoggerConfig{
			Level:  LogLevelDebug,
			Format: LogFormatText,
			Output: f,
		}),
	}, nil
}

// Logger returns a structured logger writing into the capture file.
func (c *Capture) Logger() *Logger {
	return c.logger
}

// Writer returns the raw sink for subprocess stdout/stderr.
func (c *Capture) Writer() io.Writer {
	return c.file
}

// AppendFile copies the contents of path into the capture, prefixed with a
// marker line. Missing files are not an error; tools do not always produce
// their side logs.
func (c *Capture) AppendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(c.file, "\n--- contents of %s ---\n", filepath.Base(path))
	if _, err := io.Copy(c.file, f); err != nil {
		return fmt.Errorf("failed to append %s: %w", path, err)
	}
	fmt.Fprintln(c.file)
	return nil
}

// Close flushes and releases the underlying file.
func (c *Capture) Close() error {
	return c.file.Close()
}
