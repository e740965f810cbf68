package program

import (
	"fmt"
	"math/rand"

	"github.com/gosymreg/gpsym/function"
)

// Method selects how a random Program's shape is generated.
type Method int

const (
	Full Method = iota
	Grow
	HalfAndHalf
)

// Options bundles the parameters needed to grow a random Program.
type Options struct {
	Method     Method
	MinDepth   int
	MaxDepth   int
	Funcs      function.Set
	NFeatures  int
	ConstRange [2]float64
}

// NewRandom grows a Program from rng per opts, following the required draw
// order of SPEC_FULL.md/spec.md §4.B: (a) a single depth target, drawn
// uniformly from [MinDepth, MaxDepth]; for HalfAndHalf, a single coin flip
// selecting Full or Grow for the whole tree immediately follows; then (b) for
// each position in prefix traversal, node type, then either a function index
// or a terminal kind, then the terminal's value.
func NewRandom(rng *rand.Rand, opts Options) *Program {
	if opts.MaxDepth < opts.MinDepth {
		panic(fmt.Sprintf("program: MaxDepth %d < MinDepth %d", opts.MaxDepth, opts.MinDepth))
	}

	d := opts.MinDepth + rng.Intn(opts.MaxDepth-opts.MinDepth+1)

	method := opts.Method
	if method == HalfAndHalf {
		if rng.Float64() < 0.5 {
			method = Full
		} else {
			method = Grow
		}
	}

	b := &builder{
		rng:        rng,
		method:     method,
		targetD:    d,
		funcs:      opts.Funcs,
		nFeatures:  opts.NFeatures,
		constRange: opts.ConstRange,
	}
	b.gen(0)

	p := &Program{
		Tokens:     b.tokens,
		Funcs:      opts.Funcs,
		NFeatures:  opts.NFeatures,
		ConstRange: opts.ConstRange,
	}
	p.length = len(p.Tokens)
	p.depth = computeDepth(p.Tokens, p.Funcs)
	return p
}

type builder struct {
	rng        *rand.Rand
	method     Method
	targetD    int
	funcs      function.Set
	nFeatures  int
	constRange [2]float64
	tokens     []Token
}

func (b *builder) gen(depth int) {
	isFunction := b.decideNodeType(depth)

	if isFunction {
		fi := b.rng.Intn(len(b.funcs))
		b.tokens = append(b.tokens, Token{Kind: TokenFunction, Func: fi})
		for i := 0; i < b.funcs[fi].Arity; i++ {
			b.gen(depth + 1)
		}
		return
	}

	b.genTerminal()
}

// decideNodeType implements the function-vs-terminal choice. Full is
// deterministic by depth (no draw consumed); Grow draws a single float
// weighted by |functions|/(|functions|+|terminals|), where the terminal mass
// is n_features+1 (one unit per feature column, one for the constant class).
func (b *builder) decideNodeType(depth int) bool {
	if depth >= b.targetD {
		return false
	}

	switch b.method {
	case Full:
		return true
	default: // Grow
		pFunc := float64(len(b.funcs)) / float64(len(b.funcs)+b.nFeatures+1)
		return b.rng.Float64() < pFunc
	}
}

// genTerminal draws a terminal: a feature index with probability
// n_features/(n_features+1), else a constant uniform in ConstRange — the
// same function-vs-terminal probability mass applied within the terminal
// class, per spec.md §4.B ("constants are rare").
func (b *builder) genTerminal() {
	pFeature := float64(b.nFeatures) / float64(b.nFeatures+1)

	if b.rng.Float64() < pFeature {
		fidx := b.rng.Intn(b.nFeatures)
		b.tokens = append(b.tokens, Token{Kind: TokenFeature, Feature: fidx})
		return
	}

	lo, hi := b.constRange[0], b.constRange[1]
	v := lo + b.rng.Float64()*(hi-lo)
	b.tokens = append(b.tokens, Token{Kind: TokenConstant, Const: v})
}
