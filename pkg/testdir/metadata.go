package testdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jihwankim/shader-fuzz/pkg/binaries"
	"github.com/jihwankim/shader-fuzz/pkg/devices"
)

// GLSLTest is the per-kind payload for GLSL fuzzing: the optimizer arguments
// the test was built with and the version hashes of the tools involved.
type GLSLTest struct {
	GlslangVersionHash  string   `json:"glslang_version_hash,omitempty"`
	SpirvOptVersionHash string   `json:"spirv_opt_version_hash,omitempty"`
	SpirvOptArgs        []string `json:"spirv_opt_args,omitempty"`
}

// Metadata is the serialized per-test record. Exactly one kind field is set
// (today only GLSL). Device and CrashSignature are written post-triage.
// Field names mirror the historical wire format, so existing report trees
// keep loading.
type Metadata struct {
	GLSL *GLSLTest `json:"glsl,omitempty"`

	Device         *devices.Device   `json:"device,omitempty"`
	Binaries       []binaries.Binary `json:"binaries,omitempty"`
	CrashSignature string            `json:"crash_signature,omitempty"`
}

// BinaryOverrides builds the override list for a rerun of this test: device
// binaries first, then test binaries.
func (m *Metadata) BinaryOverrides() []binaries.Binary {
	var result []binaries.Binary
	if m.Device != nil {
		result = append(result, m.Device.Binaries...)
	}
	result = append(result, m.Binaries...)
	return result
}

// ReadMetadata loads the metadata record of a test directory.
func ReadMetadata(testDir string) (*Metadata, error) {
	return ReadMetadataPath(MetadataPath(testDir))
}

// ReadMetadataPath loads a metadata record from an explicit path.
func ReadMetadataPath(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse test metadata %s: %w", path, err)
	}

	return &metadata, nil
}

// WriteMetadata stores the metadata record of a test directory. The write
// goes to a temporary name and is renamed into place, so readers never see
// a torn record. Writing is deterministic: rewriting unchanged metadata
// leaves the bytes identical.
func WriteMetadata(testDir string, metadata *Metadata) error {
	path := MetadataPath(testDir)

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal test metadata: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create test directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write test metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename test metadata into place: %w", err)
	}

	return nil
}
