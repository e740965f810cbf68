package program

import (
	"math/rand"

	"github.com/gosymreg/gpsym/function"
)

// koza function/terminal subtree-selection weights.
const (
	functionWeight = 0.9
	terminalWeight = 0.1
)

// GetSubtree selects a node in tokens weighted by Koza's rule — functions at
// weight 0.9, terminals at 0.1 — and returns the [start, end) bounds of the
// subtree rooted there. Given identical rng state and tokens, the result is
// identical across invocations.
func GetSubtree(rng *rand.Rand, tokens []Token, funcs function.Set) (start, end int) {
	total := 0.0
	weights := make([]float64, len(tokens))
	for i, t := range tokens {
		w := terminalWeight
		if t.Kind == TokenFunction {
			w = functionWeight
		}
		weights[i] = w
		total += w
	}

	u := rng.Float64() * total
	cum := 0.0
	idx := len(tokens) - 1
	for i, w := range weights {
		cum += w
		if u < cum {
			idx = i
			break
		}
	}

	start = idx
	end = subtreeEnd(tokens, funcs, start)
	return start, end
}

// GetSubtree selects a subtree within p.Tokens; see the package-level
// GetSubtree for the selection rule.
func (p *Program) GetSubtree(rng *rand.Rand) (start, end int) {
	return GetSubtree(rng, p.Tokens, p.Funcs)
}
