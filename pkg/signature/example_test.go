package signature_test

import (
	"fmt"

	"github.com/jihwankim/shader-fuzz/pkg/signature"
)

// Example demonstrates bucketing execution logs by canonical crash
// signature. The same root cause always collapses to the same string.
func Example() {
	fmt.Println(signature.FromLog("ERROR: Shader compilation failed\n"))

	fmt.Println(signature.FromLog(
		"error: line 0: Module contains unreachable blocks during merge return.\n",
	))

	fmt.Println(signature.FromLog("everything passed\n"))

	// Output:
	// compile_error
	// Module_contains_unre
	// no_signature
}
