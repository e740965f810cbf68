package operators

import (
	"math/rand"
	"testing"

	"github.com/gosymreg/gpsym/function"
	"github.com/gosymreg/gpsym/program"
)

func funcs() function.Set {
	return function.DefaultSet(false)
}

func mustProgram(t *testing.T, toks []program.Token) *program.Program {
	t.Helper()
	p, err := program.New(toks, funcs(), 10, [2]float64{-1, 1})
	if err != nil {
		t.Fatalf("building test program: %v", err)
	}
	return p
}

func randomProgram(t *testing.T, seed int64, depth int) *program.Program {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	opts := program.Options{
		Method: program.HalfAndHalf, MinDepth: 2, MaxDepth: depth,
		Funcs: funcs(), NFeatures: 10, ConstRange: [2]float64{-1, 1},
	}
	return program.NewRandom(r, opts)
}

func TestReproduceCopiesTokensExactly(t *testing.T) {
	p := randomProgram(t, 1, 4)
	res := Reproduce(p, 3)

	if len(res.Tokens) != len(p.Tokens) {
		t.Fatalf("length mismatch")
	}
	for i := range p.Tokens {
		if res.Tokens[i] != p.Tokens[i] {
			t.Errorf("token %d differs", i)
		}
	}
	if res.Method != Reproduction || res.ParentIndex != 3 || res.DonorIndex != -1 {
		t.Errorf("unexpected provenance: %+v", res)
	}
}

func TestReproduceDoesNotAliasSourceSlice(t *testing.T) {
	p := randomProgram(t, 2, 4)
	orig := make([]program.Token, len(p.Tokens))
	copy(orig, p.Tokens)

	res := Reproduce(p, 0)
	for i := range res.Tokens {
		res.Tokens[i] = program.Token{Kind: program.TokenConstant, Const: 0.999}
	}

	for i := range orig {
		if p.Tokens[i] != orig[i] {
			t.Fatalf("source program was mutated by aliasing at index %d", i)
		}
	}
}

func TestCrossoverProducesValidProgram(t *testing.T) {
	self := randomProgram(t, 10, 4)
	donor := randomProgram(t, 11, 4)

	for seed := int64(0); seed < 30; seed++ {
		r := rand.New(rand.NewSource(seed))
		res := Crossover(self, donor, 0, 1, r)
		if err := program.Validate(res.Tokens, funcs(), 10, [2]float64{-1, 1}); err != nil {
			t.Fatalf("seed %d: crossover child invalid: %v\ntokens: %+v", seed, err, res.Tokens)
		}
		if res.Method != MethodCrossover || res.ParentIndex != 0 || res.DonorIndex != 1 {
			t.Errorf("seed %d: unexpected provenance %+v", seed, res)
		}
	}
}

func TestCrossoverDoesNotMutateParents(t *testing.T) {
	self := randomProgram(t, 20, 4)
	donor := randomProgram(t, 21, 4)
	selfOrig := append([]program.Token{}, self.Tokens...)
	donorOrig := append([]program.Token{}, donor.Tokens...)

	r := rand.New(rand.NewSource(1))
	Crossover(self, donor, 0, 1, r)

	for i := range selfOrig {
		if self.Tokens[i] != selfOrig[i] {
			t.Fatalf("self mutated at %d", i)
		}
	}
	for i := range donorOrig {
		if donor.Tokens[i] != donorOrig[i] {
			t.Fatalf("donor mutated at %d", i)
		}
	}
}

func TestSubtreeMutationProducesValidProgram(t *testing.T) {
	self := randomProgram(t, 30, 4)
	initOpts := program.Options{
		Method: program.HalfAndHalf, MinDepth: 2, MaxDepth: 4,
		Funcs: funcs(), NFeatures: 10, ConstRange: [2]float64{-1, 1},
	}

	for seed := int64(0); seed < 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		res := SubtreeMutation(self, 5, initOpts, r)
		if err := program.Validate(res.Tokens, funcs(), 10, [2]float64{-1, 1}); err != nil {
			t.Fatalf("seed %d: subtree mutation child invalid: %v", seed, err)
		}
		if res.Method != MethodSubtreeMutation {
			t.Errorf("seed %d: wrong method tag %v", seed, res.Method)
		}
	}
}

func TestHoistMutationShrinksOrPreserves(t *testing.T) {
	self := randomProgram(t, 40, 6)

	for seed := int64(0); seed < 30; seed++ {
		r := rand.New(rand.NewSource(seed))
		res := HoistMutation(self, 2, r)
		if err := program.Validate(res.Tokens, funcs(), 10, [2]float64{-1, 1}); err != nil {
			t.Fatalf("seed %d: hoist mutation child invalid: %v", seed, err)
		}
		if len(res.Tokens) > len(self.Tokens) {
			t.Errorf("seed %d: hoist mutation grew the program from %d to %d tokens", seed, len(self.Tokens), len(res.Tokens))
		}
	}
}

func TestHoistMutationDoesNotMutateParent(t *testing.T) {
	self := randomProgram(t, 41, 6)
	orig := append([]program.Token{}, self.Tokens...)

	r := rand.New(rand.NewSource(7))
	HoistMutation(self, 0, r)

	for i := range orig {
		if self.Tokens[i] != orig[i] {
			t.Fatalf("self mutated at %d", i)
		}
	}
}

func TestPointMutationPreservesLength(t *testing.T) {
	self := randomProgram(t, 50, 5)

	for seed := int64(0); seed < 20; seed++ {
		r := rand.New(rand.NewSource(seed))
		res := PointMutation(self, 0, 0.5, 10, [2]float64{-1, 1}, r)
		if len(res.Tokens) != len(self.Tokens) {
			t.Fatalf("seed %d: point mutation changed length from %d to %d", seed, len(self.Tokens), len(res.Tokens))
		}
		if err := program.Validate(res.Tokens, funcs(), 10, [2]float64{-1, 1}); err != nil {
			t.Fatalf("seed %d: point mutation child invalid: %v", seed, err)
		}
	}
}

func TestPointMutationZeroProbabilityIsIdentity(t *testing.T) {
	self := randomProgram(t, 51, 5)
	r := rand.New(rand.NewSource(9))
	res := PointMutation(self, 0, 0.0, 10, [2]float64{-1, 1}, r)

	if len(res.RemovedIndices) != 0 {
		t.Errorf("expected no replaced positions at p=0, got %v", res.RemovedIndices)
	}
	for i := range self.Tokens {
		if res.Tokens[i] != self.Tokens[i] {
			t.Errorf("token %d differs despite p_point_replace=0", i)
		}
	}
}

func TestPointMutationSameArityReplacement(t *testing.T) {
	p := mustProgram(t, []program.Token{
		{Kind: program.TokenFunction, Func: funcs().ByName("add2")},
		{Kind: program.TokenFeature, Feature: 0},
		{Kind: program.TokenFeature, Feature: 1},
	})

	for seed := int64(0); seed < 30; seed++ {
		r := rand.New(rand.NewSource(seed))
		res := PointMutation(p, 0, 1.0, 10, [2]float64{-1, 1}, r)
		if res.Tokens[0].Kind == program.TokenFunction {
			if funcs()[res.Tokens[0].Func].Arity != 2 {
				t.Fatalf("seed %d: replaced function has wrong arity", seed)
			}
		}
	}
}

func TestOperatorsDoNotAliasTokenSlices(t *testing.T) {
	self := randomProgram(t, 60, 4)
	res := Reproduce(self, 0)
	if &res.Tokens[0] == &self.Tokens[0] {
		t.Error("reproduce aliased the backing array")
	}
}
