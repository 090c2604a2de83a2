// Package artifacts materializes downloadable tool archives on disk. An
// artifact is addressed by a //prefix/name path and provisioned at most once;
// a marker file makes repeated provisioning a no-op, including across
// concurrent fuzzing processes.
package artifacts

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver"

	"github.com/jihwankim/shader-fuzz/pkg/reporting"
)

const markerFile = "COMPLETE"

// Archive describes one downloadable archive within an artifact.
type Archive struct {
	URL             string `json:"url" yaml:"url"`
	OutputFile      string `json:"output_file" yaml:"output_file"`
	OutputDirectory string `json:"output_directory" yaml:"output_directory"`
}

// Store maps artifact paths onto a directory tree and executes their
// download-and-extract recipes.
type Store struct {
	root   string
	logger *reporting.Logger
}

// NewStore creates a store rooted at root.
func NewStore(root string, logger *reporting.Logger) *Store {
	return &Store{root: root, logger: logger}
}

// Dir resolves an artifact path like //binaries/glslang_abc_Linux_x64_Release
// to a directory under the store root.
func (s *Store) Dir(artifactPath string) (string, error) {
	rel, ok := strings.CutPrefix(artifactPath, "//")
	if !ok || rel == "" {
		return "", fmt.Errorf("invalid artifact path %q: must start with //", artifactPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// InnerPath resolves an archive-relative file path inside an artifact.
func (s *Store) InnerPath(artifactPath, rel string) (string, error) {
	dir, err := s.Dir(artifactPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

// Provisioned reports whether the artifact's recipe has already run.
func (s *Store) Provisioned(artifactPath string) bool {
	dir, err := s.Dir(artifactPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, markerFile))
	return err == nil
}

// ExecuteIfNeeded downloads and extracts the artifact's archives unless the
// completion marker already exists. The marker is written last, so a process
// that observes it observes fully-extracted archives.
func (s *Store) ExecuteIfNeeded(artifactPath string, archives []Archive) error {
	if s.Provisioned(artifactPath) {
		return nil
	}

	dir, err := s.Dir(artifactPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	for _, archive := range archives {
		archiveFile := filepath.Join(dir, archive.OutputFile)
		extractDir := filepath.Join(dir, archive.OutputDirectory)

		s.logger.Info("Downloading archive", "url", archive.URL, "artifact", artifactPath)
		if err := download(archive.URL, archiveFile); err != nil {
			return fmt.Errorf("failed to download %s: %w", archive.URL, err)
		}

		s.logger.Info("Extracting archive", "file", archive.OutputFile, "into", extractDir)
		if err := archiver.Unarchive(archiveFile, extractDir); err != nil {
			return fmt.Errorf("failed to extract %s: %w", archiveFile, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, markerFile), []byte(""), 0644); err != nil {
		return fmt.Errorf("failed to write completion marker: %w", err)
	}

	return nil
}

// MarkProvisioned writes the completion marker without running the recipe.
// Intended for pre-populated artifact trees.
func (s *Store) MarkProvisioned(artifactPath string) error {
	dir, err := s.Dir(artifactPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, markerFile), []byte(""), 0644)
}

func download(url, dest string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
