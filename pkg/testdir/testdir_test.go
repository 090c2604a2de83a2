package testdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/shader-fuzz/pkg/binaries"
	"github.com/jihwankim/shader-fuzz/pkg/devices"
	"github.com/jihwankim/shader-fuzz/pkg/testdir"
)

func TestPaths(t *testing.T) {
	testDir := filepath.Join("temp", "abc123_opt_O_test")

	assert.Equal(t, filepath.Join(testDir, "source"), testdir.SourceDir(testDir))
	assert.Equal(t, filepath.Join(testDir, "test.json"), testdir.MetadataPath(testDir))
	assert.Equal(t,
		filepath.Join(testDir, "source", "variant", "shader.json"),
		testdir.ShaderJobPath(testDir, true))
	assert.Equal(t,
		filepath.Join(testDir, "source", "reference", "shader.json"),
		testdir.ShaderJobPath(testDir, false))
	assert.Equal(t,
		filepath.Join(testDir, "results", "pixel3", "variant"),
		testdir.ResultsDir(testDir, "pixel3", true))
	assert.Equal(t,
		filepath.Join(testDir, "results", "pixel3", "reductions", "part_1_preserve_semantics"),
		testdir.ReducedTestDir(testDir, "pixel3", "part_1_preserve_semantics"))

	reduced := testdir.ReducedTestDir(testDir, "pixel3", "part_2_change_semantics")
	assert.Equal(t,
		filepath.Join(reduced, "reduction_work", "variant"),
		testdir.ReductionWorkDir(reduced, true))
}

func TestReportDirDistinctPerDevice(t *testing.T) {
	a := testdir.ReportDir("reports", testdir.BucketCrashes, "compile_error", "abc", "deviceA")
	b := testdir.ReportDir("reports", testdir.BucketCrashes, "compile_error", "abc", "deviceB")

	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Join("reports", "crashes", "compile_error", "abc_deviceA"), a)
}

func TestMetadataRoundTrip(t *testing.T) {
	testDir := t.TempDir()

	metadata := &testdir.Metadata{
		GLSL: &testdir.GLSLTest{
			GlslangVersionHash:  "aaa",
			SpirvOptVersionHash: "bbb",
			SpirvOptArgs:        []string{"-O", "--merge-return"},
		},
		Device: &devices.Device{
			Name: "host",
			Host: &devices.Host{},
		},
		Binaries: []binaries.Binary{
			{Name: "spirv-opt", Version: "V1", Tags: []string{"Release"}},
		},
		CrashSignature: "compile_error",
	}

	require.NoError(t, testdir.WriteMetadata(testDir, metadata))

	loaded, err := testdir.ReadMetadata(testDir)
	require.NoError(t, err)
	assert.Equal(t, metadata, loaded)
}

func TestMetadataRewriteIsIdempotent(t *testing.T) {
	testDir := t.TempDir()

	metadata := &testdir.Metadata{
		GLSL:           &testdir.GLSLTest{SpirvOptArgs: []string{"-Os"}},
		CrashSignature: "link_error",
	}
	require.NoError(t, testdir.WriteMetadata(testDir, metadata))

	before, err := os.ReadFile(testdir.MetadataPath(testDir))
	require.NoError(t, err)

	loaded, err := testdir.ReadMetadata(testDir)
	require.NoError(t, err)
	require.NoError(t, testdir.WriteMetadata(testDir, loaded))

	after, err := os.ReadFile(testdir.MetadataPath(testDir))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMetadataFieldNames(t *testing.T) {
	testDir := t.TempDir()

	require.NoError(t, testdir.WriteMetadata(testDir, &testdir.Metadata{
		GLSL:           &testdir.GLSLTest{GlslangVersionHash: "x", SpirvOptArgs: []string{"-O"}},
		CrashSignature: "sig",
	}))

	data, err := os.ReadFile(testdir.MetadataPath(testDir))
	require.NoError(t, err)

	// The wire format is load-bearing: existing report trees parse it.
	assert.Contains(t, string(data), `"glsl"`)
	assert.Contains(t, string(data), `"glslang_version_hash"`)
	assert.Contains(t, string(data), `"spirv_opt_args"`)
	assert.Contains(t, string(data), `"crash_signature"`)
}

func TestBinaryOverridesOrder(t *testing.T) {
	metadata := &testdir.Metadata{
		Device: &devices.Device{
			Name: "pixel",
			Binaries: []binaries.Binary{
				{Name: "spirv-opt", Version: "device-pin"},
			},
		},
		Binaries: []binaries.Binary{
			{Name: "spirv-opt", Version: "test-pin"},
			{Name: "glslangValidator", Version: "test-glslang"},
		},
	}

	overrides := metadata.BinaryOverrides()
	require.Len(t, overrides, 3)
	// Device binaries take priority over test binaries.
	assert.Equal(t, "device-pin", overrides[0].Version)
	assert.Equal(t, "test-pin", overrides[1].Version)
}

func TestReadStatusDefaultsToUnexpectedError(t *testing.T) {
	assert.Equal(t, testdir.StatusUnexpectedError, testdir.ReadStatus(filepath.Join(t.TempDir(), "missing")))
}

func TestStatusRoundTrip(t *testing.T) {
	resultDir := filepath.Join(t.TempDir(), "results", "host", "variant")
	require.NoError(t, testdir.WriteStatus(resultDir, testdir.StatusCrash))
	assert.Equal(t, testdir.StatusCrash, testdir.ReadStatus(resultDir))

	// Single line, no trailing content.
	data, err := os.ReadFile(testdir.StatusPath(resultDir))
	require.NoError(t, err)
	assert.Equal(t, "CRASH", string(data))
}

func TestCopyDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "variant"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "test.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "variant", "shader.frag"), []byte("void main() {}"), 0644))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, testdir.CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "variant", "shader.frag"))
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", string(data))
}

func TestCopyDirAtomicLeavesNoStaging(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "STATUS"), []byte("CRASH"), 0644))

	parent := t.TempDir()
	dst := filepath.Join(parent, "report")
	require.NoError(t, testdir.CopyDirAtomic(src, dst))

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report", entries[0].Name())
}
