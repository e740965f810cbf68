package program

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gosymreg/gpsym/function"
)

func testFuncs() function.Set {
	return function.DefaultSet(false)
}

func tok(name string, funcs function.Set) Token {
	return Token{Kind: TokenFunction, Func: funcs.ByName(name)}
}

func feat(i int) Token {
	return Token{Kind: TokenFeature, Feature: i}
}

func cst(v float64) Token {
	return Token{Kind: TokenConstant, Const: v}
}

// scenario1Tokens builds ['mul2','div2',8,1,'sub2',9,0.5].
func scenario1Tokens(funcs function.Set) []Token {
	return []Token{
		tok("mul2", funcs),
		tok("div2", funcs),
		feat(8),
		feat(1),
		tok("sub2", funcs),
		feat(9),
		cst(0.5),
	}
}

// uniformMatrix does not reproduce numpy's uniform(size=50).reshape(5,10)
// draws (out of scope without numpy); it builds a fixed deterministic matrix
// from Go's math/rand for exercising Execute's shape/finiteness contract. Exact published
// values from spec.md §8 scenario 1 require bit-identical upstream RNG
// draws this Go port does not reproduce; that scenario is exercised in
// TestExecuteShapeAndFinite instead of asserting the literal numbers.
func uniformMatrix(seed int64, rows, cols int) [][]float64 {
	r := rand.New(rand.NewSource(seed))
	X := make([][]float64, rows)
	for i := range X {
		X[i] = make([]float64, cols)
		for j := range X[i] {
			X[i][j] = r.Float64()
		}
	}
	return X
}

func TestExecuteShapeAndFinite(t *testing.T) {
	funcs := testFuncs()
	p, err := New(scenario1Tokens(funcs), funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	X := uniformMatrix(415, 5, 10)
	out, err := p.Execute(X)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 outputs, got %d", len(out))
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("output %d not finite: %v", i, v)
		}
	}
}

func TestExecuteSingleFeature(t *testing.T) {
	funcs := testFuncs()
	p, err := New([]Token{feat(2)}, funcs, 5, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	X := [][]float64{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}}
	out, err := p.Execute(X)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{3, 8}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestExecuteSingleConstant(t *testing.T) {
	funcs := testFuncs()
	p, err := New([]Token{cst(0.25)}, funcs, 5, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	X := [][]float64{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}, {0, 0, 0, 0, 0}}
	out, err := p.Execute(X)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != 0.25 {
			t.Errorf("out[%d] = %v, want 0.25", i, v)
		}
	}
}

func TestExecuteStatsCountsProtectedTriggers(t *testing.T) {
	funcs := testFuncs()
	// div2(X0, X1): row 0 has a non-zero denominator (no trigger), row 1's
	// denominator is inside the protected threshold (triggers the fallback).
	p, err := New([]Token{tok("div2", funcs), feat(0), feat(1)}, funcs, 2, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	X := [][]float64{{1, 2}, {1, 0}}
	out, triggeredRows, err := p.ExecuteStats(X)
	if err != nil {
		t.Fatal(err)
	}
	if triggeredRows != 1 {
		t.Errorf("triggeredRows = %d, want 1", triggeredRows)
	}
	if out[0] != 0.5 || out[1] != 1.0 {
		t.Errorf("out = %v, want [0.5 1.0]", out)
	}
}

func TestExecuteStatsNoTriggerWhenUnprotected(t *testing.T) {
	funcs := testFuncs()
	p, err := New([]Token{tok("add2", funcs), feat(0), feat(1)}, funcs, 2, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	X := [][]float64{{1, 2}, {3, 4}}
	_, triggeredRows, err := p.ExecuteStats(X)
	if err != nil {
		t.Fatal(err)
	}
	if triggeredRows != 0 {
		t.Errorf("triggeredRows = %d, want 0", triggeredRows)
	}
}

func TestPrettyPrint(t *testing.T) {
	funcs := testFuncs()
	p, err := New(scenario1Tokens(funcs), funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	got := p.String()
	want := "mul(div(X8, X1), sub(X9, 0.500))"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestExportGraphviz(t *testing.T) {
	funcs := testFuncs()
	p, err := New(scenario1Tokens(funcs), funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	got := p.ExportGraphviz()
	want := "digraph program {\n" +
		"node [style=filled]0 [label=\"mul\", fillcolor=\"#3499cd\"] ;\n" +
		"1 [label=\"div\", fillcolor=\"#3499cd\"] ;\n" +
		"2 [label=\"X8\", fillcolor=\"#f89939\"] ;\n" +
		"3 [label=\"X1\", fillcolor=\"#f89939\"] ;\n" +
		"1 -> 3 ;\n1 -> 2 ;\n" +
		"4 [label=\"sub\", fillcolor=\"#3499cd\"] ;\n" +
		"5 [label=\"X9\", fillcolor=\"#f89939\"] ;\n" +
		"6 [label=\"0.500\", fillcolor=\"#f89939\"] ;\n" +
		"4 -> 6 ;\n4 -> 5 ;\n0 -> 4 ;\n0 -> 1 ;\n}"

	if got != want {
		t.Errorf("ExportGraphviz() =\n%q\nwant\n%q", got, want)
	}
}

func TestExportGraphvizDegenerate(t *testing.T) {
	funcs := testFuncs()
	p, err := New([]Token{feat(1)}, funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	got := p.ExportGraphviz()
	want := "digraph program {\n" +
		"node [style=filled]0 [label=\"X1\", fillcolor=\"#f89939\"] ;\n}"

	if got != want {
		t.Errorf("ExportGraphviz() =\n%q\nwant\n%q", got, want)
	}
}

func TestValidateGoodSequence(t *testing.T) {
	funcs := testFuncs()
	tokens := []Token{
		tok("sub2", funcs),
		tok("abs1", funcs),
		tok("sqrt1", funcs),
		tok("log1", funcs),
		tok("log1", funcs),
		tok("sqrt1", funcs),
		feat(7),
		tok("abs1", funcs),
		tok("abs1", funcs),
		tok("abs1", funcs),
		tok("log1", funcs),
		tok("sqrt1", funcs),
		feat(2),
	}

	if _, err := New(tokens, funcs, 10, [2]float64{-1, 1}); err != nil {
		t.Fatalf("expected valid sequence, got error: %v", err)
	}

	short := tokens[:len(tokens)-1]
	if _, err := New(short, funcs, 10, [2]float64{-1, 1}); err == nil {
		t.Error("expected ProgramValidationError for truncated sequence")
	}

	long := append(append([]Token{}, tokens...), feat(0))
	if _, err := New(long, funcs, 10, [2]float64{-1, 1}); err == nil {
		t.Error("expected ProgramValidationError for sequence with extra tokens")
	}
}

func TestValidateUnknownFunction(t *testing.T) {
	funcs := testFuncs()
	tokens := []Token{{Kind: TokenFunction, Func: 999}}
	if _, err := New(tokens, funcs, 10, [2]float64{-1, 1}); err == nil {
		t.Error("expected error for unknown function index")
	}
}

func TestValidateFeatureOutOfRange(t *testing.T) {
	funcs := testFuncs()
	tokens := []Token{feat(50)}
	if _, err := New(tokens, funcs, 10, [2]float64{-1, 1}); err == nil {
		t.Error("expected error for out-of-range feature index")
	}
}

func TestValidateConstantOutOfRange(t *testing.T) {
	funcs := testFuncs()
	tokens := []Token{cst(5.0)}
	if _, err := New(tokens, funcs, 10, [2]float64{-1, 1}); err == nil {
		t.Error("expected error for out-of-range constant")
	}
}

func TestValidateDegenerateSingleTerminal(t *testing.T) {
	funcs := testFuncs()
	if _, err := New([]Token{feat(0)}, funcs, 10, [2]float64{-1, 1}); err != nil {
		t.Errorf("degenerate single terminal should be valid: %v", err)
	}
}

func TestLengthAndDepth(t *testing.T) {
	funcs := testFuncs()
	p, err := New(scenario1Tokens(funcs), funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if p.Length() != 7 {
		t.Errorf("Length() = %d, want 7", p.Length())
	}
	if p.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", p.Depth())
	}
}

func TestReconstructionRoundtrip(t *testing.T) {
	funcs := testFuncs()
	tokens := scenario1Tokens(funcs)
	p1, err := New(tokens, funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := New(p1.Tokens, funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(p1.Tokens) != len(p2.Tokens) {
		t.Fatal("token length mismatch after roundtrip")
	}
	for i := range p1.Tokens {
		if p1.Tokens[i] != p2.Tokens[i] {
			t.Errorf("token %d differs after roundtrip", i)
		}
	}
}

func TestGetSubtreeDeterministic(t *testing.T) {
	funcs := testFuncs()
	p, err := New(scenario1Tokens(funcs), funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	r1 := rand.New(rand.NewSource(415))
	r2 := rand.New(rand.NewSource(415))

	s1, e1 := p.GetSubtree(r1)
	s2, e2 := GetSubtree(r2, p.Tokens, p.Funcs)

	if s1 != s2 || e1 != e2 {
		t.Errorf("GetSubtree diverged: (%d,%d) vs (%d,%d)", s1, e1, s2, e2)
	}
}

func TestGetSubtreeValidSlice(t *testing.T) {
	funcs := testFuncs()
	p, err := New(scenario1Tokens(funcs), funcs, 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatal(err)
	}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		start, end := p.GetSubtree(r)
		if start < 0 || end > len(p.Tokens) || start >= end {
			t.Fatalf("invalid subtree bounds (%d,%d)", start, end)
		}
		sub := p.Tokens[start:end]
		if err := Validate(sub, funcs, p.NFeatures, p.ConstRange); err != nil {
			t.Fatalf("subtree [%d:%d] not independently valid: %v", start, end, err)
		}
	}
}

func TestNewRandomFullReachesMaxDepth(t *testing.T) {
	funcs := testFuncs()
	opts := Options{Method: Full, MinDepth: 6, MaxDepth: 6, Funcs: funcs, NFeatures: 10, ConstRange: [2]float64{-1, 1}}

	for i := 0; i < 20; i++ {
		r := rand.New(rand.NewSource(int64(415 + i)))
		p := NewRandom(r, opts)
		if p.Depth() != 6 {
			t.Errorf("sample %d: full method depth = %d, want 6", i, p.Depth())
		}
	}
}

func TestNewRandomMeanLengthOrdering(t *testing.T) {
	funcs := testFuncs()
	const n = 20

	mean := func(method Method) (float64, float64) {
		var lenSum, depthSum float64
		for i := 0; i < n; i++ {
			r := rand.New(rand.NewSource(int64(415 + i)))
			opts := Options{Method: method, MinDepth: 2, MaxDepth: 6, Funcs: funcs, NFeatures: 10, ConstRange: [2]float64{-1, 1}}
			p := NewRandom(r, opts)
			lenSum += float64(p.Length())
			depthSum += float64(p.Depth())
		}
		return lenSum / n, depthSum / n
	}

	fullLen, fullDepth := mean(Full)
	hnhLen, hnhDepth := mean(HalfAndHalf)
	growLen, growDepth := mean(Grow)

	if !(fullLen > hnhLen && hnhLen > growLen) {
		t.Errorf("expected full(%v) > half_and_half(%v) > grow(%v) mean length", fullLen, hnhLen, growLen)
	}
	if !(fullDepth > hnhDepth && hnhDepth > growDepth) {
		t.Errorf("expected full(%v) > half_and_half(%v) > grow(%v) mean depth", fullDepth, hnhDepth, growDepth)
	}
}

func TestNewRandomGrowNotAlwaysMaxDepth(t *testing.T) {
	funcs := testFuncs()
	sawShallower := false
	for i := 0; i < 20; i++ {
		r := rand.New(rand.NewSource(int64(415 + i)))
		opts := Options{Method: Grow, MinDepth: 6, MaxDepth: 6, Funcs: funcs, NFeatures: 10, ConstRange: [2]float64{-1, 1}}
		p := NewRandom(r, opts)
		if p.Depth() < 6 {
			sawShallower = true
		}
	}
	if !sawShallower {
		t.Error("expected grow method to sometimes terminate before the depth bound")
	}
}
