// Package function holds the named arithmetic primitives evolved programs
// are built from: fixed arity, vectorized, and numerically protected so that
// no evaluation ever raises or produces a non-finite result.
package function

import "math"

// div2/log1/inv1 thresholds, per the protected semantics contract.
const epsilon = 0.001

// Function is a named primitive with a fixed arity and a vectorized,
// protected evaluator.
type Function struct {
	Name      string
	Arity     int
	Protected bool
	op        func(args ...[]float64) (out []float64, triggered []bool)
}

// Eval applies the function element-wise to its arguments, returning the
// result alongside a per-row mask of where a protected fallback fired (nil
// for an unprotected function). Any still-non-finite output is clamped to
// 0.0 and counted as triggered too, as a last-resort backstop.
func (f Function) Eval(args ...[]float64) ([]float64, []bool) {
	out, triggered := f.op(args...)
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = 0.0
			if triggered == nil {
				triggered = make([]bool, len(out))
			}
			triggered[i] = true
		}
	}
	return out, triggered
}

// Set is an ordered, named collection of functions available to a Program.
type Set []Function

// ByName returns the index of the function named name in s, or -1 if absent.
func (s Set) ByName(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// DefaultSet returns the standard arithmetic primitives, optionally extended
// with the trigonometric primitives when trig is true (spec: trigonometric
// primitives are optional and enabled by configuration).
func DefaultSet(trig bool) Set {
	s := Set{
		binary("add2", func(a, b float64) float64 { return a + b }),
		binary("sub2", func(a, b float64) float64 { return a - b }),
		binary("mul2", func(a, b float64) float64 { return a * b }),
		protectedBinary("div2", func(a, b float64) (float64, bool) {
			if math.Abs(b) < epsilon {
				return 1.0, true
			}
			return a / b, false
		}),
		protectedUnary("sqrt1", func(a float64) (float64, bool) {
			if a < 0 {
				return math.Sqrt(-a), true
			}
			return math.Sqrt(a), false
		}),
		protectedUnary("log1", func(a float64) (float64, bool) {
			if math.Abs(a) > epsilon {
				return math.Log(math.Abs(a)), false
			}
			return 0.0, true
		}),
		unary("abs1", math.Abs),
		unary("neg1", func(a float64) float64 { return -a }),
		protectedUnary("inv1", func(a float64) (float64, bool) {
			if math.Abs(a) > epsilon {
				return 1.0 / a, false
			}
			return 0.0, true
		}),
		binary("max2", math.Max),
		binary("min2", math.Min),
	}

	if trig {
		s = append(s,
			unary("sin1", math.Sin),
			unary("cos1", math.Cos),
			unary("tan1", math.Tan),
		)
	}

	return s
}

func unary(name string, f func(float64) float64) Function {
	return Function{
		Name:  name,
		Arity: 1,
		op: func(args ...[]float64) ([]float64, []bool) {
			x := args[0]
			out := make([]float64, len(x))
			for i, v := range x {
				out[i] = f(v)
			}
			return out, nil
		},
	}
}

// protectedUnary takes a function returning both the value and whether the
// fallback branch fired, so callers can track the protected-operator
// trigger fraction spec.md §7's NumericWarning depends on.
func protectedUnary(name string, f func(float64) (float64, bool)) Function {
	return Function{
		Name:      name,
		Arity:     1,
		Protected: true,
		op: func(args ...[]float64) ([]float64, []bool) {
			x := args[0]
			out := make([]float64, len(x))
			triggered := make([]bool, len(x))
			for i, v := range x {
				out[i], triggered[i] = f(v)
			}
			return out, triggered
		},
	}
}

func binary(name string, f func(a, b float64) float64) Function {
	return Function{
		Name:  name,
		Arity: 2,
		op: func(args ...[]float64) ([]float64, []bool) {
			x, y := args[0], args[1]
			out := make([]float64, len(x))
			for i := range x {
				out[i] = f(x[i], y[i])
			}
			return out, nil
		},
	}
}

func protectedBinary(name string, f func(a, b float64) (float64, bool)) Function {
	return Function{
		Name:      name,
		Arity:     2,
		Protected: true,
		op: func(args ...[]float64) ([]float64, []bool) {
			x, y := args[0], args[1]
			out := make([]float64, len(x))
			triggered := make([]bool, len(x))
			for i := range x {
				out[i], triggered[i] = f(x[i], y[i])
			}
			return out, triggered
		},
	}
}
