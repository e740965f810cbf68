// Package rng implements the random-state discipline required for
// reproducible, parallelism-invariant evolution: every piece of randomness
// traces back to a single master seed, and per-generation, per-slot
// generators are derived by a deterministic hash rather than by consuming
// the master generator's own sequence (which would depend on dispatch
// order under concurrency).
package rng

import "math/rand"

// Stream is a splittable source of per-slot random generators, analogous to
// the teacher's tree.RandState(int64) option but generalized to derive many
// independent, order-independent children from one seed.
type Stream struct {
	seed   int64
	master *rand.Rand
}

// New returns a Stream rooted at seed. A seed of 0 is valid and, like any
// other seed, reproducible.
func New(seed int64) *Stream {
	return &Stream{seed: seed, master: rand.New(rand.NewSource(seed))}
}

// Seed returns the master seed this Stream was constructed with.
func (s *Stream) Seed() int64 {
	return s.seed
}

// Master returns the generator seeded directly from the master seed, for
// randomness that is inherently sequential and single-threaded. The
// generation loop does not use it: tournament sampling and every other
// per-child draw come from Child. Do not share this generator across
// goroutines.
func (s *Stream) Master() *rand.Rand {
	return s.master
}

// Child derives a fresh, independent *rand.Rand for the given generation and
// slot index. Calling Child repeatedly with the same (generation, slot) from
// any goroutine, at any time, in any order, always yields a generator with
// the same initial state: the result depends only on (seed, generation,
// slot), never on wall-clock time, goroutine/thread id, or call order.
func (s *Stream) Child(generation, slot int) *rand.Rand {
	h := mix(uint64(s.seed), uint64(generation), uint64(slot))
	return rand.New(rand.NewSource(int64(h)))
}

// mix combines three 64-bit values into one well-distributed 64-bit value
// using splitmix64-style avalanche mixing, applied once per input.
func mix(a, b, c uint64) uint64 {
	x := splitmix64(a)
	x = splitmix64(x ^ (b + 0x9E3779B97F4A7C15))
	x = splitmix64(x ^ (c + 0xBF58476D1CE4E5B9))
	return x
}

// splitmix64 is the standard splitmix64 output mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
