package fuzz

import "math/rand"

// spirvOptPasses are the optimizer passes drawn on for the opt_rand presets.
// Passes known to change semantics or to be unstable across driver versions
// are excluded.
var spirvOptPasses = []string{
	"--ccp",
	"--combine-access-chains",
	"--convert-local-access-chains",
	"--copy-propagate-arrays",
	"--eliminate-dead-branches",
	"--eliminate-dead-code-aggressive",
	"--eliminate-dead-inserts",
	"--eliminate-local-multi-store",
	"--eliminate-local-single-block",
	"--eliminate-local-single-store",
	"--if-conversion",
	"--inline-entry-points-exhaustive",
	"--merge-blocks",
	"--merge-return",
	"--private-to-local",
	"--reduce-load-size",
	"--redundancy-elimination",
	"--scalar-replacement=100",
	"--simplify-instructions",
	"--vector-dce",
}

const maxRandomSpirvOptArgs = 30

// RandomSpirvOptArgs draws a random optimizer argument list: between 1 and
// 30 passes, chosen with repetition. Repetition is deliberate; reapplying a
// pass after others have run exercises different optimizer paths.
func RandomSpirvOptArgs(rng *rand.Rand) []string {
	n := rng.Intn(maxRandomSpirvOptArgs) + 1
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		args = append(args, spirvOptPasses[rng.Intn(len(spirvOptPasses))])
	}
	return args
}
