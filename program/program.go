// Package program implements the linearized, prefix-order expression tree
// genetic programming evolves: construction, execution, validation,
// pretty-printing, graphviz export, and subtree indexing. The encoding is a
// flat token slice — there is no separate pointer tree. Subtree bounds are
// computed from arity prefix sums (a Dijkstra-style balance count), per the
// design rationale in SPEC_FULL.md §9.
package program

import (
	"fmt"
	"math"

	"github.com/gosymreg/gpsym/function"
)

// TokenKind discriminates the three possible contents of a Token. Token is a
// tagged sum type rather than a bare interface{}, per SPEC_FULL.md §4.B.
type TokenKind uint8

const (
	TokenFunction TokenKind = iota
	TokenFeature
	TokenConstant
)

// Token is one element of a Program's prefix-order sequence.
type Token struct {
	Kind    TokenKind
	Func    int     // index into the owning Program's function.Set; valid iff Kind == TokenFunction
	Feature int     // feature column index; valid iff Kind == TokenFeature
	Const   float64 // constant value; valid iff Kind == TokenConstant
}

func (t Token) arity(funcs function.Set) int {
	if t.Kind == TokenFunction {
		return funcs[t.Func].Arity
	}
	return 0
}

// ValidationError reports why a caller-supplied token sequence failed
// Validate.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "program: invalid token sequence: " + e.Reason
}

// Program is an immutable, linearized prefix-order expression tree.
type Program struct {
	Tokens     []Token
	Funcs      function.Set
	NFeatures  int
	ConstRange [2]float64

	length int
	depth  int
}

// New validates tokens against funcs/nFeatures/constRange and, if valid,
// returns the reconstructed Program. This is construction path (2) of
// SPEC_FULL.md §4.B.
func New(tokens []Token, funcs function.Set, nFeatures int, constRange [2]float64) (*Program, error) {
	toks := make([]Token, len(tokens))
	copy(toks, tokens)

	if err := validate(toks, funcs, nFeatures, constRange); err != nil {
		return nil, err
	}

	p := &Program{Tokens: toks, Funcs: funcs, NFeatures: nFeatures, ConstRange: constRange}
	p.length = len(toks)
	p.depth = computeDepth(toks, funcs)
	return p, nil
}

// Validate re-checks the program's invariants; useful after a genetic
// operator assembles a raw token slice before wrapping it in a Program.
func Validate(tokens []Token, funcs function.Set, nFeatures int, constRange [2]float64) error {
	return validate(tokens, funcs, nFeatures, constRange)
}

// validate implements spec.md §3/§4.B: the Dijkstra-style arity balance
// check, plus bounds checks on function indices, feature indices, and
// constant range.
func validate(tokens []Token, funcs function.Set, nFeatures int, constRange [2]float64) error {
	if len(tokens) == 0 {
		return &ValidationError{Reason: "empty token sequence"}
	}

	balance := 1
	for i, tok := range tokens {
		switch tok.Kind {
		case TokenFunction:
			if tok.Func < 0 || tok.Func >= len(funcs) {
				return &ValidationError{Reason: fmt.Sprintf("unknown function index %d at position %d", tok.Func, i)}
			}
			balance += funcs[tok.Func].Arity - 1
		case TokenFeature:
			if tok.Feature < 0 || tok.Feature >= nFeatures {
				return &ValidationError{Reason: fmt.Sprintf("feature index %d out of range [0,%d) at position %d", tok.Feature, nFeatures, i)}
			}
			balance--
		case TokenConstant:
			if tok.Const < constRange[0] || tok.Const > constRange[1] {
				return &ValidationError{Reason: fmt.Sprintf("constant %v out of range [%v,%v] at position %d", tok.Const, constRange[0], constRange[1], i)}
			}
			balance--
		default:
			return &ValidationError{Reason: fmt.Sprintf("unknown token kind at position %d", i)}
		}

		if balance == 0 && i != len(tokens)-1 {
			return &ValidationError{Reason: fmt.Sprintf("extra tokens after the root completes at position %d", i+1)}
		}
	}

	if balance != 0 {
		return &ValidationError{Reason: "unfilled arity slots: sequence ends before the root is saturated"}
	}

	return nil
}

// computeDepth walks the prefix sequence with a stack of "children still
// required" counts per open ancestor frame, tracking the maximum nesting
// reached. The root is depth 0.
func computeDepth(tokens []Token, funcs function.Set) int {
	var remaining []int
	maxDepth := 0

	for _, tok := range tokens {
		d := len(remaining)
		if d > maxDepth {
			maxDepth = d
		}

		if tok.Kind == TokenFunction {
			remaining = append(remaining, funcs[tok.Func].Arity)
		} else {
			for len(remaining) > 0 {
				remaining[len(remaining)-1]--
				if remaining[len(remaining)-1] > 0 {
					break
				}
				remaining = remaining[:len(remaining)-1]
			}
		}
	}

	return maxDepth
}

// Length returns the token count.
func (p *Program) Length() int { return p.length }

// Depth returns the maximum nesting depth, root at depth 0.
func (p *Program) Depth() int { return p.depth }

// subtreeEnd returns the exclusive end index of the subtree rooted at start,
// per the arity balance used in validate.
func subtreeEnd(tokens []Token, funcs function.Set, start int) int {
	balance := 1
	i := start
	for {
		balance += tokens[i].arity(funcs) - 1
		i++
		if balance == 0 {
			return i
		}
	}
}

// Execute evaluates the program over X (shape n_samples x n_features),
// returning a length-n_samples result. Evaluation is a single right-to-left
// scan of the prefix sequence using an explicit value stack: this recovers
// the same left-to-right argument order a recursive descent would produce,
// because every subtree occupies a contiguous run of tokens.
func (p *Program) Execute(X [][]float64) ([]float64, error) {
	out, _, err := p.ExecuteStats(X)
	return out, err
}

// ExecuteStats is Execute plus the count of rows where at least one
// protected operator's fallback fired during evaluation, feeding the
// generation-level protected-operator trigger fraction spec.md §7's
// NumericWarning depends on.
func (p *Program) ExecuteStats(X [][]float64) (out []float64, triggeredRows int, err error) {
	if len(X) == 0 {
		return nil, 0, fmt.Errorf("program: execute called with zero rows")
	}
	if len(X[0]) != p.NFeatures {
		return nil, 0, fmt.Errorf("program: X has %d columns, expected %d", len(X[0]), p.NFeatures)
	}

	n := len(X)
	stack := make([][]float64, 0, p.length)
	rowTriggered := make([]bool, n)

	for i := len(p.Tokens) - 1; i >= 0; i-- {
		tok := p.Tokens[i]
		switch tok.Kind {
		case TokenFeature:
			col := make([]float64, n)
			for r := range X {
				col[r] = X[r][tok.Feature]
			}
			stack = append(stack, col)
		case TokenConstant:
			col := make([]float64, n)
			for r := range col {
				col[r] = tok.Const
			}
			stack = append(stack, col)
		case TokenFunction:
			f := p.Funcs[tok.Func]
			args := make([][]float64, f.Arity)
			for k := 0; k < f.Arity; k++ {
				last := len(stack) - 1
				args[k] = stack[last]
				stack = stack[:last]
			}
			vals, triggered := f.Eval(args...)
			for r, t := range triggered {
				if t {
					rowTriggered[r] = true
				}
			}
			stack = append(stack, vals)
		}
	}

	if len(stack) != 1 {
		return nil, 0, fmt.Errorf("program: execute left %d values on the stack, expected 1", len(stack))
	}

	out = stack[0]
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = 0.0
			rowTriggered[i] = true
		}
	}

	for _, t := range rowTriggered {
		if t {
			triggeredRows++
		}
	}

	return out, triggeredRows, nil
}
