package artifacts_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/shader-fuzz/pkg/artifacts"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
)

func TestDirResolvesArtifactPath(t *testing.T) {
	root := t.TempDir()
	store := artifacts.NewStore(root, reporting.NewNopLogger())

	dir, err := store.Dir("//binaries/glslang_abc_Linux_x64_Release")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "binaries", "glslang_abc_Linux_x64_Release"), dir)
}

func TestDirRejectsBadPaths(t *testing.T) {
	store := artifacts.NewStore(t.TempDir(), reporting.NewNopLogger())

	_, err := store.Dir("binaries/glslang")
	assert.Error(t, err)

	_, err = store.Dir("//")
	assert.Error(t, err)
}

func TestInnerPath(t *testing.T) {
	root := t.TempDir()
	store := artifacts.NewStore(root, reporting.NewNopLogger())

	path, err := store.InnerPath("//binaries/tools", "tools/bin/spirv-opt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "binaries", "tools", "tools", "bin", "spirv-opt"), path)
}

func TestExecuteIfNeededIsMarkerGuarded(t *testing.T) {
	store := artifacts.NewStore(t.TempDir(), reporting.NewNopLogger())

	require.NoError(t, store.MarkProvisioned("//binaries/tools"))
	assert.True(t, store.Provisioned("//binaries/tools"))

	// The URL is unreachable; the marker must short-circuit before any
	// download is attempted.
	err := store.ExecuteIfNeeded("//binaries/tools", []artifacts.Archive{
		{URL: "https://127.0.0.1:1/nothing.zip", OutputFile: "nothing.zip", OutputDirectory: "nothing"},
	})
	assert.NoError(t, err)
}

func TestExecuteIfNeededWithoutArchives(t *testing.T) {
	store := artifacts.NewStore(t.TempDir(), reporting.NewNopLogger())

	require.False(t, store.Provisioned("//binaries/empty"))
	require.NoError(t, store.ExecuteIfNeeded("//binaries/empty", nil))
	assert.True(t, store.Provisioned("//binaries/empty"))
}
