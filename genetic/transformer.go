package genetic

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gosymreg/gpsym/fitness"
	"github.com/gosymreg/gpsym/program"
)

// Transformer evolves a population and emits NComponents low-mutually-
// correlated programs usable as engineered features (spec.md §4.E
// "Transformer mode").
type Transformer struct {
	cfg        *Config
	nFeatures  int
	Components []*program.Program
	History    *History
	Logger     *zap.Logger

	// FitDuration is the wall-clock time the most recent Fit call spent
	// evolving, persisted alongside the fitted state (SPEC_FULL.md §3).
	FitDuration time.Duration
}

// NewTransformer returns a Transformer configured per options, applied
// over NewConfig's defaults.
func NewTransformer(options ...Option) *Transformer {
	return &Transformer{cfg: NewConfig(options...)}
}

// Fit validates the configuration, evolves the population, and from the
// final population's top HallOfFame individuals (by fitness) greedily
// selects NComponents programs minimizing absolute Pearson correlation
// between each candidate and the already-picked set's outputs on X.
func (t *Transformer) Fit(X [][]float64, y, sampleWeight []float64) error {
	if err := t.cfg.Validate(); err != nil {
		return err
	}
	if len(X) != len(y) {
		return configErrorf("X has %d rows, y has %d", len(X), len(y))
	}
	if sampleWeight != nil && len(sampleWeight) != len(y) {
		return configErrorf("sample_weight has %d entries, y has %d", len(sampleWeight), len(y))
	}
	if matrixHasNaN(X) {
		return configErrorf("X contains NaN")
	}
	if vectorHasNaN(y) {
		return configErrorf("y contains NaN")
	}
	if vectorHasNaN(sampleWeight) {
		return configErrorf("sample_weight contains NaN")
	}

	t.nFeatures = len(X[0])

	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	engine := NewEngine(t.cfg, t.nFeatures, logger)
	h, err := engine.Run(X, y, sampleWeight)
	if err != nil {
		return err
	}
	t.FitDuration = time.Since(start)
	t.History = h

	gib := t.cfg.greaterIsBetter()
	hof := topHallOfFame(h.FinalPopulation, t.cfg.HallOfFame, gib)

	components, err := greedyDecorrelate(hof, X, t.cfg.NComponents)
	if err != nil {
		return err
	}
	t.Components = components

	return nil
}

// Transform evaluates every retained component over X, returning an
// n_samples x n_components array, column j = component j's output.
func (t *Transformer) Transform(X [][]float64) ([][]float64, error) {
	if t.Components == nil {
		return nil, configErrorf("transform called before fit")
	}
	if len(X) > 0 && len(X[0]) != t.nFeatures {
		return nil, &ShapeError{Got: len(X[0]), Want: t.nFeatures}
	}

	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(t.Components))
	}

	for j, comp := range t.Components {
		col, err := comp.Execute(X)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			out[i][j] = v
		}
	}

	return out, nil
}

// topHallOfFame returns the top n individuals by fitness, best first.
func topHallOfFame(population []*Individual, n int, greaterIsBetter bool) []*Individual {
	sorted := make([]*Individual, len(population))
	copy(sorted, population)

	sort.Slice(sorted, func(i, j int) bool {
		return fitness.Better(sorted[i].Fitness, sorted[j].Fitness, greaterIsBetter)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// greedyDecorrelate picks n programs from candidates, greedily minimizing
// the maximum absolute Pearson correlation of each new pick's output
// against the outputs already selected. The first pick is always the
// highest-fitness candidate (candidates is assumed pre-sorted best-first).
func greedyDecorrelate(candidates []*Individual, X [][]float64, n int) ([]*program.Program, error) {
	if n > len(candidates) {
		n = len(candidates)
	}
	if n == 0 {
		return nil, nil
	}

	outputs := make([][]float64, len(candidates))
	for i, ind := range candidates {
		out, err := ind.Program.Execute(X)
		if err != nil {
			return nil, err
		}
		outputs[i] = out
	}

	picked := []int{0}
	result := []*program.Program{candidates[0].Program}

	for len(result) < n {
		bestIdx := -1
		bestScore := math.Inf(1)

		for i := range candidates {
			if contains(picked, i) {
				continue
			}
			maxAbsCorr := 0.0
			for _, p := range picked {
				c, err := fitness.Raw(fitness.Pearson, outputs[i], outputs[p], nil)
				if err != nil {
					return nil, err
				}
				if a := math.Abs(c); a > maxAbsCorr {
					maxAbsCorr = a
				}
			}
			if maxAbsCorr < bestScore {
				bestScore = maxAbsCorr
				bestIdx = i
			}
		}

		picked = append(picked, bestIdx)
		result = append(result, candidates[bestIdx].Program)
	}

	return result, nil
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
