// Package testdir defines the canonical on-disk layout of a fuzzed test:
// its source, per-device results, reductions, and the metadata record that
// ties them together.
package testdir

import "path/filepath"

// Well-known file and directory names within a test directory.
const (
	ReferenceDir = "reference"
	VariantDir   = "variant"

	ShaderJobFile = "shader.json"
	MetadataFile  = "test.json"

	SourceDirName       = "source"
	BaseSourceDirName   = "base_source"
	ResultsDirName      = "results"
	ReductionsDirName   = "reductions"
	ReductionWorkName   = "reduction_work"
	AmberScriptFile     = "test.amber"
	ImageFile           = "image.png"
	BufferFile          = "buffer.bin"
	StatusFile          = "STATUS"
	LogFile             = "log.txt"
	AmberLogFile        = "amber_log.txt"
	FinalReducedJobFile = "shader_reduced_final.json"
)

// Report bucket names under the reports root.
const (
	BucketCrashes     = "crashes"
	BucketHostCrashes = "host_crashes"
)

// BestReductionLink is the symbolic link naming the preferred reduction.
const BestReductionLink = "best"

// SourceDir returns the immutable source directory of a test.
func SourceDir(testDir string) string {
	return filepath.Join(testDir, SourceDirName)
}

// MetadataPath returns the test metadata file, next to source/.
func MetadataPath(testDir string) string {
	return filepath.Join(testDir, MetadataFile)
}

// ShaderJobPath returns the variant (or reference) shader job manifest of a
// test.
func ShaderJobPath(testDir string, variant bool) string {
	return filepath.Join(SourceDir(testDir), variantOrReference(variant), ShaderJobFile)
}

// DeviceDir returns the per-device results directory.
func DeviceDir(testDir, deviceName string) string {
	return filepath.Join(testDir, ResultsDirName, deviceName)
}

// ResultsDir returns the variant (or reference) result directory for a
// device.
func ResultsDir(testDir, deviceName string, variant bool) string {
	return filepath.Join(DeviceDir(testDir, deviceName), variantOrReference(variant))
}

// ReducedTestDir returns the directory of one named reduction; itself a
// test directory once the reducer finishes.
func ReducedTestDir(testDir, deviceName, reductionName string) string {
	return filepath.Join(DeviceDir(testDir, deviceName), ReductionsDirName, reductionName)
}

// ReductionWorkDir returns the reducer's intermediate directory within a
// reduction.
func ReductionWorkDir(reducedTestDir string, variant bool) string {
	return filepath.Join(reducedTestDir, ReductionWorkName, variantOrReference(variant))
}

// StatusPath returns the STATUS file of a result directory.
func StatusPath(resultDir string) string {
	return filepath.Join(resultDir, StatusFile)
}

// LogPath returns the log file of a result directory.
func LogPath(resultDir string) string {
	return filepath.Join(resultDir, LogFile)
}

// AmberLogPath returns the device-side Amber log within a result directory.
func AmberLogPath(resultDir string) string {
	return filepath.Join(resultDir, AmberLogFile)
}

// ReportDir returns the bucketed report directory for a test/device pair.
func ReportDir(reportsRoot, bucket, sig, testName, deviceName string) string {
	return filepath.Join(reportsRoot, bucket, sig, testName+"_"+deviceName)
}

func variantOrReference(variant bool) string {
	if variant {
		return VariantDir
	}
	return ReferenceDir
}
