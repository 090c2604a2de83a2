package binaries_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/shader-fuzz/pkg/artifacts"
	"github.com/jihwankim/shader-fuzz/pkg/binaries"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
)

// testCatalog holds two spirv-opt versions for Linux. The archive lists are
// empty, so provisioning never touches the network.
func testCatalog() []binaries.CatalogEntry {
	return []binaries.CatalogEntry{
		{
			ArtifactPath: "//test/tools_v1",
			ArchiveSet: binaries.ArchiveSet{
				Binaries: []binaries.Binary{
					{
						Name:    binaries.SpirvOptName,
						Version: "V1",
						Tags:    []string{"Linux", "x64", "Release"},
						Path:    "tools/bin/spirv-opt",
					},
					{
						Name:    binaries.GlslangValidatorName,
						Version: "G1",
						Tags:    []string{"Linux", "x64", "Debug"},
						Path:    "tools/bin/glslangValidator",
					},
				},
			},
		},
		{
			ArtifactPath: "//test/tools_v2",
			ArchiveSet: binaries.ArchiveSet{
				Binaries: []binaries.Binary{
					{
						Name:    binaries.SpirvOptName,
						Version: "V2",
						Tags:    []string{"Linux", "x64", "Release"},
						Path:    "tools/bin/spirv-opt",
					},
				},
			},
		},
	}
}

func newTestManager(t *testing.T, overrides []binaries.Binary) (*binaries.Manager, *artifacts.Store) {
	t.Helper()
	store := artifacts.NewStore(t.TempDir(), reporting.NewNopLogger())
	manager := binaries.NewManagerWithCatalog(overrides, "Linux", store, testCatalog(), reporting.NewNopLogger())
	return manager, store
}

func TestResolveByNamePicksOverrideVersion(t *testing.T) {
	manager, store := newTestManager(t, []binaries.Binary{
		{Name: binaries.SpirvOptName, Version: "V1", Tags: []string{"Release"}},
	})

	path, binary, err := manager.ResolveByName(binaries.SpirvOptName)
	require.NoError(t, err)

	want, err := store.InnerPath("//test/tools_v1", "tools/bin/spirv-opt")
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "V1", binary.Version)
}

func TestResolveByNameUnknownName(t *testing.T) {
	manager, _ := newTestManager(t, nil)

	_, _, err := manager.ResolveByName("no-such-tool")

	var notFound *binaries.BinaryNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "no-such-tool", notFound.Name)
}

func TestResolveTagMismatch(t *testing.T) {
	manager, _ := newTestManager(t, nil)

	// The catalog only has Release builds of spirv-opt V1.
	_, err := manager.Resolve(binaries.Binary{
		Name:    binaries.SpirvOptName,
		Version: "V1",
		Tags:    []string{"Debug"},
	})

	var pathNotFound *binaries.BinaryPathNotFoundError
	require.ErrorAs(t, err, &pathNotFound)
	assert.Equal(t, "V1", pathNotFound.Binary.Version)
}

func TestResolvePlatformMismatch(t *testing.T) {
	store := artifacts.NewStore(t.TempDir(), reporting.NewNopLogger())
	manager := binaries.NewManagerWithCatalog(nil, "Windows", store, testCatalog(), reporting.NewNopLogger())

	_, err := manager.Resolve(binaries.Binary{
		Name:    binaries.SpirvOptName,
		Version: "V1",
		Tags:    []string{"Release"},
	})

	var pathNotFound *binaries.BinaryPathNotFoundError
	assert.True(t, errors.As(err, &pathNotFound))
}

func TestResolveCacheDeterminism(t *testing.T) {
	manager, _ := newTestManager(t, nil)

	binary := binaries.Binary{Name: binaries.SpirvOptName, Version: "V2", Tags: []string{"Release"}}

	first, err := manager.Resolve(binary)
	require.NoError(t, err)
	second, err := manager.Resolve(binary)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChildOverridesTakePriority(t *testing.T) {
	manager, store := newTestManager(t, []binaries.Binary{
		{Name: binaries.SpirvOptName, Version: "V1", Tags: []string{"Release"}},
	})

	child := manager.ChildWithOverrides([]binaries.Binary{
		{Name: binaries.SpirvOptName, Version: "V2", Tags: []string{"Release"}},
	})

	path, binary, err := child.ResolveByName(binaries.SpirvOptName)
	require.NoError(t, err)
	assert.Equal(t, "V2", binary.Version)

	want, err := store.InnerPath("//test/tools_v2", "tools/bin/spirv-opt")
	require.NoError(t, err)
	assert.Equal(t, want, path)

	// The parent still resolves its own pin.
	_, parentBinary, err := manager.ResolveByName(binaries.SpirvOptName)
	require.NoError(t, err)
	assert.Equal(t, "V1", parentBinary.Version)
}

func TestChildSharesResolvedCache(t *testing.T) {
	manager, _ := newTestManager(t, nil)
	child := manager.ChildWithOverrides(nil)

	binary := binaries.Binary{Name: binaries.GlslangValidatorName, Version: "G1", Tags: []string{"Debug"}}

	parentPath, err := manager.Resolve(binary)
	require.NoError(t, err)
	childPath, err := child.Resolve(binary)
	require.NoError(t, err)
	assert.Equal(t, parentPath, childPath)
}

func TestResolveProvisionsArtifact(t *testing.T) {
	manager, store := newTestManager(t, nil)

	_, err := manager.Resolve(binaries.Binary{Name: binaries.SpirvOptName, Version: "V1", Tags: nil})
	require.NoError(t, err)

	assert.True(t, store.Provisioned("//test/tools_v1"))
	assert.False(t, store.Provisioned("//test/tools_v2"))
}

func TestBuiltInCatalogCoversDefaultBinaries(t *testing.T) {
	store := artifacts.NewStore(t.TempDir(), reporting.NewNopLogger())

	// Every default binary must be resolvable on every platform without
	// hitting the lookup-miss path; stop short of provisioning by checking
	// catalog match only via a fresh manager per platform with pre-marked
	// artifacts.
	for _, platform := range []string{"Linux", "Windows", "Mac"} {
		manager := binaries.NewManager(binaries.DefaultBinaries, platform, store, reporting.NewNopLogger())
		for _, binary := range binaries.DefaultBinaries {
			_, err := manager.ByName(binary.Name)
			require.NoError(t, err, "platform %s binary %s", platform, binary.Name)
		}
	}

	// Catalog entries for the default versions must exist with matching tags.
	for _, entry := range binaries.BuiltInCatalog() {
		assert.NotEmpty(t, entry.ArtifactPath)
		for _, binary := range entry.ArchiveSet.Binaries {
			assert.NotEmpty(t, binary.Name)
			assert.NotEmpty(t, binary.Version)
			assert.NotEmpty(t, binary.Path)
			assert.NotEmpty(t, binary.Tags)
		}
	}
}

func TestGraphicsFuzzSpirvOptCarriesNoValidateTag(t *testing.T) {
	found := false
	for _, entry := range binaries.BuiltInCatalog() {
		if entry.ArtifactPath != "//binaries/graphicsfuzz_v1.2.1" {
			continue
		}
		for _, binary := range entry.ArchiveSet.Binaries {
			if binary.Name != binaries.SpirvOptName {
				continue
			}
			found = true
			assert.Contains(t, binary.Tags, binaries.SpirvOptNoValidateAfterAllTag)
			assert.Equal(t, "graphicsfuzz/bin", filepath.ToSlash(filepath.Dir(filepath.Dir(binary.Path))))
		}
	}
	assert.True(t, found)
}
