// Package operators implements the functional genetic operators that turn
// one or two parent programs into a child token sequence: reproduction,
// crossover, subtree mutation, hoist mutation, and point mutation. None of
// these mutate their inputs; each returns a fresh token slice plus the
// parent-relative bookkeeping recorded in Result.
package operators

import (
	"math/rand"

	"github.com/gosymreg/gpsym/function"
	"github.com/gosymreg/gpsym/program"
)

// Method names a genetic operator, recorded in Result.Method for
// provenance/history reporting.
type Method string

const (
	Reproduction          Method = "reproduction"
	MethodCrossover       Method = "crossover"
	MethodSubtreeMutation Method = "subtree_mutation"
	MethodHoistMutation   Method = "hoist_mutation"
	MethodPointMutation   Method = "point_mutation"
)

// Result is the outcome of applying an operator: the child token sequence
// plus provenance metadata for history/reporting.
type Result struct {
	Tokens         []program.Token
	Method         Method
	ParentIndex    int   // index of self/primary parent in the previous population; -1 if not applicable
	DonorIndex     int   // index of the donor parent (crossover only); -1 otherwise
	RemovedIndices []int // token positions removed/replaced from self, relative to self.Tokens
}

// Reproduce returns a verbatim copy of self's tokens.
func Reproduce(self *program.Program, selfIndex int) Result {
	toks := make([]program.Token, len(self.Tokens))
	copy(toks, self.Tokens)
	return Result{Tokens: toks, Method: Reproduction, ParentIndex: selfIndex, DonorIndex: -1}
}

// Crossover splices a subtree of donor into a subtree position of self. Per
// spec.md §4.D, the donor's subtree is drawn *after* self's subtree, fixing
// the RNG draw order so that results are reproducible independent of
// implementation.
func Crossover(self, donor *program.Program, selfIndex, donorIndex int, rng *rand.Rand) Result {
	selfStart, selfEnd := self.GetSubtree(rng)
	donorStart, donorEnd := donor.GetSubtree(rng)

	child := splice(self.Tokens, selfStart, selfEnd, donor.Tokens[donorStart:donorEnd])

	removed := indexRange(selfStart, selfEnd)
	return Result{
		Tokens:         child,
		Method:         MethodCrossover,
		ParentIndex:    selfIndex,
		DonorIndex:     donorIndex,
		RemovedIndices: removed,
	}
}

// SubtreeMutation is crossover against a freshly-generated random donor
// program, built with initOpts (typically the run's init_method/init_depth
// configuration and the live function registry).
func SubtreeMutation(self *program.Program, selfIndex int, initOpts program.Options, rng *rand.Rand) Result {
	donor := program.NewRandom(rng, initOpts)
	res := Crossover(self, donor, selfIndex, -1, rng)
	res.Method = MethodSubtreeMutation
	return res
}

// HoistMutation picks a subtree S in self, then a subtree T within S, and
// replaces self with T — i.e. the child is exactly T. This can only shrink
// or preserve length, which is why it is used as a bloat-control operator.
func HoistMutation(self *program.Program, selfIndex int, rng *rand.Rand) Result {
	sStart, sEnd := self.GetSubtree(rng)
	sub := self.Tokens[sStart:sEnd]

	tStart, tEnd := program.GetSubtree(rng, sub, self.Funcs)

	child := make([]program.Token, tEnd-tStart)
	copy(child, sub[tStart:tEnd])

	// every token of self outside T is dropped from the child
	removed := make([]int, 0, len(self.Tokens)-len(child))
	for i := range self.Tokens {
		if i < sStart+tStart || i >= sStart+tEnd {
			removed = append(removed, i)
		}
	}
	return Result{
		Tokens:         child,
		Method:         MethodHoistMutation,
		ParentIndex:    selfIndex,
		DonorIndex:     -1,
		RemovedIndices: removed,
	}
}

// PointMutation visits every token and, with probability pPointReplace,
// replaces it in place: a function token is swapped for a uniformly-chosen
// function of the same arity; a terminal token is replaced by a freshly
// sampled terminal (feature or constant) using the same function-vs-terminal
// probability mass as program initialization.
func PointMutation(self *program.Program, selfIndex int, pPointReplace float64, nFeatures int, constRange [2]float64, rng *rand.Rand) Result {
	funcs := self.Funcs
	toks := make([]program.Token, len(self.Tokens))
	copy(toks, self.Tokens)

	var removed []int
	for i, tok := range toks {
		if rng.Float64() >= pPointReplace {
			continue
		}

		switch tok.Kind {
		case program.TokenFunction:
			arity := funcs[tok.Func].Arity
			candidates := sameArityFunctions(funcs, arity)
			if len(candidates) == 0 {
				continue
			}
			toks[i] = program.Token{Kind: program.TokenFunction, Func: candidates[rng.Intn(len(candidates))]}
		default:
			toks[i] = sampleTerminal(nFeatures, constRange, rng)
		}
		removed = append(removed, i)
	}

	return Result{Tokens: toks, Method: MethodPointMutation, ParentIndex: selfIndex, DonorIndex: -1, RemovedIndices: removed}
}

func sameArityFunctions(funcs function.Set, arity int) []int {
	var out []int
	for i, f := range funcs {
		if f.Arity == arity {
			out = append(out, i)
		}
	}
	return out
}

func sampleTerminal(nFeatures int, constRange [2]float64, rng *rand.Rand) program.Token {
	pFeature := float64(nFeatures) / float64(nFeatures+1)
	if rng.Float64() < pFeature {
		return program.Token{Kind: program.TokenFeature, Feature: rng.Intn(nFeatures)}
	}
	lo, hi := constRange[0], constRange[1]
	return program.Token{Kind: program.TokenConstant, Const: lo + rng.Float64()*(hi-lo)}
}

// splice returns a fresh token slice equal to tokens with the [start,end)
// run replaced by replacement.
func splice(tokens []program.Token, start, end int, replacement []program.Token) []program.Token {
	out := make([]program.Token, 0, len(tokens)-(end-start)+len(replacement))
	out = append(out, tokens[:start]...)
	out = append(out, replacement...)
	out = append(out, tokens[end:]...)
	return out
}

func indexRange(start, end int) []int {
	out := make([]int, end-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}
