// Package shaderjob treats a shader.json manifest and its sibling stage
// files as one atomic artifact. Siblings share the manifest's stem and carry
// a well-known suffix; operations act on the whole sibling set.
package shaderjob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Stage file suffixes.
const (
	SuffixVert = ".vert"
	SuffixFrag = ".frag"
	SuffixComp = ".comp"
)

// StageSuffixes are the plain GLSL stage suffixes.
var StageSuffixes = []string{SuffixVert, SuffixFrag, SuffixComp}

// RelatedSuffixes is the full sibling alphabet: GLSL stages plus their
// assembled and optimized SPIR-V variants.
var RelatedSuffixes = []string{
	SuffixVert, SuffixFrag, SuffixComp,
	SuffixVert + ".asm", SuffixFrag + ".asm", SuffixComp + ".asm",
	SuffixVert + ".spv", SuffixFrag + ".spv", SuffixComp + ".spv",
}

// Stem returns the manifest path without its .json extension.
func Stem(jobPath string) string {
	return strings.TrimSuffix(jobPath, ".json")
}

// RelatedFiles returns the sibling files of a shader job manifest that exist
// on disk, restricted to the given suffixes (all suffixes when none are
// given).
func RelatedFiles(jobPath string, suffixes ...string) []string {
	if len(suffixes) == 0 {
		suffixes = RelatedSuffixes
	}

	stem := Stem(jobPath)
	var files []string
	for _, suffix := range suffixes {
		candidate := stem + suffix
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			files = append(files, candidate)
		}
	}
	return files
}

// Suffixes returns the set of related suffixes present for a shader job.
func Suffixes(jobPath string) []string {
	stem := Stem(jobPath)
	var present []string
	for _, file := range RelatedFiles(jobPath) {
		present = append(present, strings.TrimPrefix(file, stem))
	}
	return present
}

// Copy copies the manifest and its entire sibling set to the destination
// manifest path, creating parent directories. Returns the destination path.
func Copy(srcJobPath, dstJobPath string) (string, error) {
	if !strings.HasSuffix(srcJobPath, ".json") {
		return "", fmt.Errorf("shader job path %q must end in .json", srcJobPath)
	}
	if !strings.HasSuffix(dstJobPath, ".json") {
		return "", fmt.Errorf("shader job path %q must end in .json", dstJobPath)
	}

	if err := copyFile(srcJobPath, dstJobPath); err != nil {
		return "", err
	}

	srcStem := Stem(srcJobPath)
	dstStem := Stem(dstJobPath)
	for _, related := range RelatedFiles(srcJobPath) {
		suffix := strings.TrimPrefix(related, srcStem)
		if err := copyFile(related, dstStem+suffix); err != nil {
			return "", err
		}
	}

	return dstJobPath, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
