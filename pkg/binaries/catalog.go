package binaries

import (
	"fmt"
	"strings"

	"github.com/jihwankim/shader-fuzz/pkg/artifacts"
)

// DefaultBinaries is the override list used for new fuzzing sessions when
// neither the test nor the device pins anything.
var DefaultBinaries = []Binary{
	{
		Name:    GlslangValidatorName,
		Tags:    []string{"Debug"},
		Version: "9866ad9195cec8f266f16191fb4ec2ce4896e5c0",
	},
	{
		Name:    SpirvOptName,
		Tags:    []string{"Debug"},
		Version: "4a00a80c40484a6f6f72f48c9d34943cf8f180d4",
	},
	{
		Name:    SpirvDisName,
		Tags:    []string{"Debug"},
		Version: "4a00a80c40484a6f6f72f48c9d34943cf8f180d4",
	},
	{
		Name:    SpirvValName,
		Tags:    []string{"Debug"},
		Version: "4a00a80c40484a6f6f72f48c9d34943cf8f180d4",
	},
	{
		Name:    SwiftShaderICDName,
		Tags:    []string{"Debug"},
		Version: "a0b3a02601da8c48012a4259d335be04d00818da",
	},
}

var platformSuffixesDebug = []string{"Linux_x64_Debug", "Windows_x64_Debug", "Mac_x64_Debug"}

var platformSuffixesRelease = []string{"Linux_x64_Release", "Windows_x64_Release", "Mac_x64_Release"}

var platformSuffixesRelWithDebInfo = []string{
	"Linux_x64_RelWithDebInfo",
	"Windows_x64_RelWithDebInfo",
	"Mac_x64_RelWithDebInfo",
}

// toolNameAndPath names one tool inside a build archive.
type toolNameAndPath struct {
	name            string
	subpath         string
	addExeOnWindows bool
}

// platformFromSuffix extracts the platform tag from a build suffix like
// Linux_x64_Release.
func platformFromSuffix(platformSuffix string) (string, error) {
	for _, platform := range []string{"Linux", "Mac", "Windows"} {
		if strings.Contains(platformSuffix, platform) {
			return platform, nil
		}
	}
	return "", fmt.Errorf("could not guess platform of %q", platformSuffix)
}

// tagsFromPlatformSuffix derives the common tag set for a build suffix.
func tagsFromPlatformSuffix(platformSuffix string) []string {
	platform, err := platformFromSuffix(platformSuffix)
	if err != nil {
		// Built-in suffixes always carry a platform; a bad one is a
		// programming error in the catalog tables.
		panic(err)
	}
	tags := []string{platform}
	for _, commonTag := range []string{"Release", "Debug", "RelWithDebInfo", "x64"} {
		if strings.Contains(platformSuffix, commonTag) {
			tags = append(tags, commonTag)
		}
	}
	return tags
}

// builtInBuildRepoEntries generates one catalog entry per platform suffix for
// a project published through the build-<project> GitHub release scheme.
func builtInBuildRepoEntries(
	projectName string,
	versionHash string,
	buildVersionHash string,
	platformSuffixes []string,
	tools []toolNameAndPath,
) []CatalogEntry {
	var result []CatalogEntry

	for _, platformSuffix := range platformSuffixes {
		tags := tagsFromPlatformSuffix(platformSuffix)

		windows := false
		for _, tag := range tags {
			if tag == "Windows" {
				windows = true
			}
		}

		binaries := make([]Binary, 0, len(tools))
		for _, tool := range tools {
			subpath := tool.subpath
			if windows && tool.addExeOnWindows {
				subpath += ".exe"
			}
			binaries = append(binaries, Binary{
				Name:    tool.name,
				Tags:    tags,
				Path:    projectName + "/" + subpath,
				Version: versionHash,
			})
		}

		result = append(result, CatalogEntry{
			ArtifactPath: fmt.Sprintf("//binaries/%s_%s_%s", projectName, versionHash, platformSuffix),
			ArchiveSet: ArchiveSet{
				Archives: []artifacts.Archive{
					{
						URL: fmt.Sprintf(
							"https://github.com/paulthomson/build-%s/releases/download/github/paulthomson/build-%s/%s/build-%s-%s-%s.zip",
							projectName, projectName, buildVersionHash, projectName, buildVersionHash, platformSuffix,
						),
						OutputFile:      projectName + ".zip",
						OutputDirectory: projectName,
					},
				},
				Binaries: binaries,
			},
		})
	}

	return result
}

func builtInSpirvToolsVersion(versionHash, buildVersionHash string) []CatalogEntry {
	return builtInBuildRepoEntries(
		"SPIRV-Tools",
		versionHash,
		buildVersionHash,
		append(append([]string{}, platformSuffixesRelease...), platformSuffixesDebug...),
		[]toolNameAndPath{
			{name: SpirvAsName, subpath: "bin/spirv-as", addExeOnWindows: true},
			{name: SpirvDisName, subpath: "bin/spirv-dis", addExeOnWindows: true},
			{name: SpirvOptName, subpath: "bin/spirv-opt", addExeOnWindows: true},
			{name: SpirvValName, subpath: "bin/spirv-val", addExeOnWindows: true},
		},
	)
}

func builtInGlslangVersion(versionHash, buildVersionHash string) []CatalogEntry {
	return builtInBuildRepoEntries(
		"glslang",
		versionHash,
		buildVersionHash,
		append(append([]string{}, platformSuffixesRelease...), platformSuffixesDebug...),
		[]toolNameAndPath{
			{name: GlslangValidatorName, subpath: "bin/glslangValidator", addExeOnWindows: true},
		},
	)
}

func builtInSwiftShaderVersion(versionHash, buildVersionHash string) []CatalogEntry {
	suffixes := append(append([]string{}, platformSuffixesRelease...), platformSuffixesDebug...)
	suffixes = append(suffixes, platformSuffixesRelWithDebInfo...)
	return builtInBuildRepoEntries(
		"swiftshader",
		versionHash,
		buildVersionHash,
		suffixes,
		[]toolNameAndPath{
			{name: SwiftShaderICDName, subpath: "lib/vk_swiftshader_icd.json", addExeOnWindows: false},
		},
	)
}

// graphicsFuzzRelease is the GraphicsFuzz v1.2.1 release archive, which
// bundles per-platform glslang and SPIRV-Tools builds. Its spirv-opt builds
// predate --validate-after-all, hence the tag.
func graphicsFuzzRelease() []CatalogEntry {
	const spirvToolsVersion = "a2ef7be242bcacaa9127a3ce011602ec54b2c9ed"
	const glslangVersion = "40c16ec0b3ad03fc170f1369a58e7bbe662d82cd"

	var bins []Binary

	for _, platform := range []string{"Linux", "Windows", "Mac"} {
		exe := ""
		if platform == "Windows" {
			exe = ".exe"
		}
		tags := []string{platform, "x64", "Release"}

		bins = append(bins, Binary{
			Name:    GlslangValidatorName,
			Tags:    tags,
			Path:    fmt.Sprintf("graphicsfuzz/bin/%s/glslangValidator%s", platform, exe),
			Version: glslangVersion,
		})
		bins = append(bins, Binary{
			Name:    SpirvOptName,
			Tags:    append(append([]string{}, tags...), SpirvOptNoValidateAfterAllTag),
			Path:    fmt.Sprintf("graphicsfuzz/bin/%s/spirv-opt%s", platform, exe),
			Version: spirvToolsVersion,
		})
		for _, tool := range []string{"spirv-dis", "spirv-as", "spirv-val"} {
			bins = append(bins, Binary{
				Name:    tool,
				Tags:    tags,
				Path:    fmt.Sprintf("graphicsfuzz/bin/%s/%s%s", platform, tool, exe),
				Version: spirvToolsVersion,
			})
		}
	}

	return []CatalogEntry{
		{
			ArtifactPath: "//binaries/graphicsfuzz_v1.2.1",
			ArchiveSet: ArchiveSet{
				Archives: []artifacts.Archive{
					{
						URL:             "https://github.com/google/graphicsfuzz/releases/download/v1.2.1/graphicsfuzz.zip",
						OutputFile:      "graphicsfuzz.zip",
						OutputDirectory: "graphicsfuzz",
					},
				},
				Binaries: bins,
			},
		},
	}
}

// BuiltInCatalog returns the full built-in archive-set catalog, including
// old tool versions so past tests keep resolving.
func BuiltInCatalog() []CatalogEntry {
	var entries []CatalogEntry
	entries = append(entries, builtInSpirvToolsVersion(
		"4a00a80c40484a6f6f72f48c9d34943cf8f180d4",
		"422f2fe0f0f32494fa687a12ba343d24863b330a",
	)...)
	entries = append(entries, builtInGlslangVersion(
		"9866ad9195cec8f266f16191fb4ec2ce4896e5c0",
		"1586e566f4949b1957e7c32454cbf27e501ed632",
	)...)
	entries = append(entries, builtInSwiftShaderVersion(
		"a0b3a02601da8c48012a4259d335be04d00818da",
		"08fb8d429272ef8eedb4d610943b9fe59d336dc6",
	)...)
	entries = append(entries, graphicsFuzzRelease()...)
	entries = append(entries, builtInSpirvToolsVersion(
		"1c1e749f0b51603032ed573acb5ee4cd6fee8d01",
		"7663d620a7fbdccb330d2baec138d0e3e096457c",
	)...)
	return entries
}
