// Package signature collapses free-form execution logs into short, stable
// crash signatures used to bucket and deduplicate failures.
package signature

import (
	"regexp"
	"strings"
)

// NoSignature is returned when no rule in the cascade fires.
const NoSignature = "no_signature"

const maxSignatureLength = 50

// E.g. /my/library.so ((anonymous namespace)::Bar::Baz(aaa::MyInstr*, void* (*)(unsigned int))+456)
//                                                ::Baz(  <-- regex
//                                                  Baz   <-- group 1
var cppFunctionPattern = regexp.MustCompile(`::(\w+)\(`)

// E.g. /my/library.so (myFunction+372)
//                     (myFunction+372)  <-- regex
//                      myFunction       <-- group 1
// OR: /my/library.so (myFunction(...)+372)
//                    (myFunction(
//                     myFunction
var cFunctionPattern = regexp.MustCompile(`\((\w+)(\+\d+\)|\()`)

// E.g. ERROR: temp/.../variant/shader.frag:549: 'variable indexing fragment shader output array' : not supported
//                                     frag:549: 'variable indexing fragment shader output array'  <-- regex
//                                                variable indexing fragment shader output array   <-- group 1
var glslangErrorPattern = regexp.MustCompile(`\w+:\d+: '([\w ]+)'`)

// E.g. /data/local/tmp/graphicsfuzz/test.amber: 256: probe ssbo format does not match buffer format
//                                             : 256: probe ssbo format does not match buffer format
//                                                    probe ssbo format does not match buffer format
var amberErrorPattern = regexp.MustCompile(`\w: \d+: ([\w ]+)$`)

// E.g. error: line 0: Module contains unreachable blocks during merge return.
var spirvOptErrorPattern = regexp.MustCompile(`^error: line \d+: ([\w .'\-"]+)`)

// E.g.
// Backtrace:
// /data/git/graphicsfuzz/bin/Linux/spirv-opt(_ZN8spvtools3opt21StructuredCFGAnalysis16SwitchMergeBlockEj+0x369)[0x5bd6d9]
var catchsegvFramePattern = regexp.MustCompile(`Backtrace:\n.*/([^/(]*\([^)+]+)\+`)

var (
	digitsPattern  = regexp.MustCompile(`\d+`)
	nonWordPattern = regexp.MustCompile(`\W`)
)

// FromLog maps log contents to a canonical crash signature. It is pure and
// deterministic; the result is nonempty, filesystem-safe, and at most 50
// characters. Rules are tried in a fixed order and the first match wins.
func FromLog(logContents string) string {
	if strings.Contains(logContents, "Shader compilation failed") {
		return "compile_error"
	}

	if strings.Contains(logContents, "Failed to link shaders") {
		return "link_error"
	}

	if strings.Contains(logContents, "Calling vkCreateGraphicsPipelines Fail") {
		return "pipeline_failure"
	}

	if strings.Contains(logContents, "Resource deadlock would occur") {
		return "Resource_deadlock_would_occur"
	}

	if strings.Contains(logContents, "error: line ") {
		for _, line := range strings.Split(logContents, "\n") {
			if m := spirvOptErrorPattern.FindStringSubmatch(line); m != nil {
				return clamp(normalize(m[1], 20))
			}
		}
	}

	if strings.Contains(logContents, "0 pass, 1 fail") {
		for _, line := range strings.Split(logContents, "\n") {
			if m := amberErrorPattern.FindStringSubmatch(line); m != nil {
				return clamp(normalize(m[1], 0))
			}
		}
	}

	if strings.Contains(logContents, "SPIR-V is not generated for failed compile or link") {
		for _, line := range strings.Split(logContents, "\n") {
			if m := glslangErrorPattern.FindStringSubmatch(line); m != nil {
				return clamp(normalize(m[1], 0))
			}
		}
	}

	if strings.Contains(logContents, "#00 pc") {
		for _, line := range strings.Split(logContents, "\n") {
			pcPos := strings.Index(line, "#00 pc")
			if pcPos == -1 {
				continue
			}
			line = line[pcPos:]

			if strings.Contains(line, "/amber_ndk") {
				return "amber_ndk"
			}

			if m := cppFunctionPattern.FindStringSubmatch(line); m != nil {
				return clamp(m[1])
			}

			if m := cFunctionPattern.FindStringSubmatch(line); m != nil {
				return clamp(m[1])
			}

			// Only the first #00 frame line is considered.
			break
		}
	}

	if strings.Contains(logContents, "Backtrace:") {
		if m := catchsegvFramePattern.FindStringSubmatch(logContents); m != nil {
			group := nonWordPattern.ReplaceAllString(m[1], "_")
			return clamp(truncate(group, maxSignatureLength))
		}
	}

	return NoSignature
}

// normalize strips digits, replaces non-word characters with underscores, and
// truncates to maxLen when maxLen is positive.
func normalize(s string, maxLen int) string {
	s = digitsPattern.ReplaceAllString(s, "")
	s = nonWordPattern.ReplaceAllString(s, "_")
	if maxLen > 0 {
		s = truncate(s, maxLen)
	}
	return s
}

// clamp enforces the output invariant: nonempty and at most 50 characters.
func clamp(s string) string {
	s = truncate(s, maxSignatureLength)
	if s == "" {
		return NoSignature
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
