// Package binaries resolves logical tool names to concrete executables.
// Tests and devices can pin exact tool versions through override lists that
// take priority over the built-in catalog, and tag-subset matching lets the
// same logical descriptor resolve to different binaries per platform.
package binaries

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/jihwankim/shader-fuzz/pkg/artifacts"
)

// Well-known logical tool names.
const (
	GlslangValidatorName = "glslangValidator"
	SpirvOptName         = "spirv-opt"
	SpirvDisName         = "spirv-dis"
	SpirvAsName          = "spirv-as"
	SpirvValName         = "spirv-val"
	SwiftShaderICDName   = "swift_shader_icd"
)

// SpirvOptNoValidateAfterAllTag marks spirv-opt builds that do not support
// the --validate-after-all flag.
const SpirvOptNoValidateAfterAllTag = "no-validate-after-all"

// Binary describes one versioned tool. Version is an opaque content
// identifier, typically a source-control hash. Tags carry platform,
// architecture, configuration, and tool-specific flags. Path is the
// archive-relative file path, set on catalog entries only.
type Binary struct {
	Name    string   `json:"name" yaml:"name"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
	Version string   `json:"version" yaml:"version"`
}

// cacheKey is the canonical serialization used to key the resolved-path
// cache. Tag order is irrelevant to matching, so tags are sorted.
func (b Binary) cacheKey() string {
	tags := append([]string(nil), b.Tags...)
	sort.Strings(tags)
	return b.Name + "\x00" + b.Version + "\x00" + strings.Join(tags, ",")
}

// ArchiveSet groups the archives of one artifact with the binaries they
// yield once extracted.
type ArchiveSet struct {
	Archives []artifacts.Archive `json:"archives" yaml:"archives"`
	Binaries []Binary            `json:"binaries" yaml:"binaries"`
}

// CatalogEntry associates an archive set with its logical artifact path.
type CatalogEntry struct {
	ArtifactPath string
	ArchiveSet   ArchiveSet
}

// BinaryNotFoundError indicates that no descriptor with the requested name
// exists in the effective override list. Callers may recover by widening
// overrides.
type BinaryNotFoundError struct {
	Name string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("no binary named %q in the override list", e.Name)
}

// BinaryPathNotFoundError indicates that no catalog entry matches the
// requested descriptor.
type BinaryPathNotFoundError struct {
	Binary Binary
}

func (e *BinaryPathNotFoundError) Error() string {
	return fmt.Sprintf("no catalog entry for binary %s version %s tags %v",
		e.Binary.Name, e.Binary.Version, e.Binary.Tags)
}

// CurrentPlatform returns the platform tag for the running OS.
func CurrentPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "Mac"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}

// tagSubset reports whether every tag in want is present in have.
func tagSubset(want, have []string) bool {
	haveSet := make(map[string]bool, len(have))
	for _, t := range have {
		haveSet[t] = true
	}
	for _, t := range want {
		if !haveSet[t] {
			return false
		}
	}
	return true
}
