// Package genetic implements the generational evolutionary loop shared by
// Regressor and Transformer: tournament selection, the five genetic
// operators, bootstrap/subsample with out-of-bag scoring, adaptive
// parsimony, and n_jobs-invariant parallel batch evaluation.
package genetic

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gosymreg/gpsym/fitness"
	"github.com/gosymreg/gpsym/operators"
	"github.com/gosymreg/gpsym/program"
	"github.com/gosymreg/gpsym/rng"
)

// Engine runs the shared generation loop for a given configuration and
// input shape. Regressor and Transformer each wrap an Engine and interpret
// its resulting History differently (single best program vs. a
// decorrelated hall-of-fame).
type Engine struct {
	cfg       *Config
	nFeatures int
	stream    *rng.Stream
	logger    *zap.Logger
	runID     uuid.UUID
}

// NewEngine returns an Engine for cfg over a dataset with nFeatures
// columns. cfg.Validate is not called here; callers must validate first.
func NewEngine(cfg *Config, nFeatures int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		nFeatures: nFeatures,
		stream:    rng.New(cfg.RandomState),
		logger:    logger,
		runID:     uuid.New(),
	}
}

// Run evolves PopulationSize individuals for Generations generations over
// X/y/sampleWeight, returning the full per-generation History.
func (e *Engine) Run(X [][]float64, y, sampleWeight []float64) (*History, error) {
	n := len(y)
	h := &History{RunID: e.runID}

	var population []*Individual
	parsimonyCoeff := e.cfg.ParsimonyCoeff

	for gen := 0; gen < e.cfg.Generations; gen++ {
		start := time.Now()
		prev := population // nil on generation 0; initializer branches on it

		next, err := e.produceGeneration(gen, prev, X, y, sampleWeight, n, parsimonyCoeff)
		if err != nil {
			return nil, err
		}
		population = next

		if e.cfg.ParsimonyAuto {
			lengths := make([]float64, len(population))
			raws := make([]float64, len(population))
			for i, ind := range population {
				lengths[i] = float64(ind.Program.Length())
				raws[i] = ind.RawFitness
			}
			parsimonyCoeff = fitness.ParsimonyCoefficient(lengths, raws)
		}

		rec := summarizeGeneration(gen, population, e.cfg.greaterIsBetter(), time.Since(start))
		h.Generations = append(h.Generations, rec)
		h.Populations = append(h.Populations, summarizePopulation(population))

		if e.cfg.Verbose {
			h.appendVerboseLine(rec, e.cfg.Generations)
		}

		e.checkNumericHealth(gen, population)
	}

	h.FinalPopulation = population
	return h, nil
}

// produceGeneration builds one generation's population, in parallel across
// cfg.NumJobs workers, scattering results into a slot-indexed slice so the
// outcome never depends on dispatch/arrival order (spec.md §4.E/§5).
func (e *Engine) produceGeneration(gen int, prev []*Individual, X [][]float64, y, w []float64, n int, parsimonyCoeff float64) ([]*Individual, error) {
	size := e.cfg.PopulationSize
	result := make([]*Individual, size)
	errs := make([]error, size)

	type job struct{ slot int }
	in := make(chan job)
	out := make(chan int)

	nWorkers := e.cfg.NumJobs
	if nWorkers < 1 {
		nWorkers = 1
	}

	for i := 0; i < nWorkers; i++ {
		go func() {
			for jb := range in {
				ind, err := e.produceOne(gen, jb.slot, prev, X, y, w, n, parsimonyCoeff)
				result[jb.slot] = ind
				errs[jb.slot] = err
				out <- jb.slot
			}
		}()
	}

	go func() {
		for slot := 0; slot < size; slot++ {
			in <- job{slot: slot}
		}
		close(in)
	}()

	for i := 0; i < size; i++ {
		<-out
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// produceOne derives slot's deterministic generator, grows or breeds a
// child program, and evaluates it. Every draw from slotRNG — operator
// choice, tournament sampling, operator-internal draws, bootstrap/subsample
// row selection — happens in this fixed order, so identical (seed,
// generation, slot) always yields an identical child regardless of which
// worker executes it or when.
func (e *Engine) produceOne(gen, slot int, prev []*Individual, X [][]float64, y, w []float64, n int, parsimonyCoeff float64) (*Individual, error) {
	slotRNG := e.stream.Child(gen, slot)
	cfg := e.cfg
	gib := cfg.greaterIsBetter()

	initOpts := program.Options{
		Method: cfg.InitMethod, MinDepth: cfg.InitMinDepth, MaxDepth: cfg.InitMaxDepth,
		Funcs: cfg.Funcs, NFeatures: e.nFeatures, ConstRange: cfg.ConstRange,
	}

	var ind *Individual

	if prev == nil {
		p := program.NewRandom(slotRNG, initOpts)
		ind = &Individual{Program: p, Method: operators.Reproduction, ParentIndex: -1, DonorIndex: -1}
	} else {
		res, err := e.breed(prev, slotRNG, initOpts, gib)
		if err != nil {
			return nil, err
		}
		p, err := program.New(res.Tokens, cfg.Funcs, e.nFeatures, cfg.ConstRange)
		if err != nil {
			return nil, wrapf(err, "generation %d slot %d: %s produced an invalid child", gen, slot, res.Method)
		}
		ind = &Individual{
			Program: p, Method: res.Method, ParentIndex: res.ParentIndex,
			DonorIndex: res.DonorIndex, RemovedIndices: res.RemovedIndices,
		}
	}

	rows, oobRows := selectRows(n, cfg, slotRNG)
	if err := evaluateWithCoeff(ind, X, y, w, rows, oobRows, cfg.Metric, ind.Program.Length(), parsimonyCoeff, gib); err != nil {
		return nil, err
	}

	return ind, nil
}

// breed draws the operator and applies it, per the weighted probabilities
// in cfg: crossover, subtree mutation, hoist mutation, point mutation, and
// (the remainder) reproduction.
func (e *Engine) breed(prev []*Individual, r *rand.Rand, initOpts program.Options, gib bool) (operators.Result, error) {
	cfg := e.cfg
	u := r.Float64()

	parentIdx := tournament(prev, cfg.TournamentSize, r, gib)
	parent := prev[parentIdx].Program

	switch {
	case u < cfg.PCrossover:
		donorIdx := tournament(prev, cfg.TournamentSize, r, gib)
		donor := prev[donorIdx].Program
		return operators.Crossover(parent, donor, parentIdx, donorIdx, r), nil

	case u < cfg.PCrossover+cfg.PSubtreeMutation:
		return operators.SubtreeMutation(parent, parentIdx, initOpts, r), nil

	case u < cfg.PCrossover+cfg.PSubtreeMutation+cfg.PHoistMutation:
		return operators.HoistMutation(parent, parentIdx, r), nil

	case u < cfg.PCrossover+cfg.PSubtreeMutation+cfg.PHoistMutation+cfg.PPointMutation:
		return operators.PointMutation(parent, parentIdx, cfg.PPointReplace, e.nFeatures, cfg.ConstRange, r), nil

	default:
		return operators.Reproduce(parent, parentIdx), nil
	}
}

// tournament samples size candidate indices uniformly with replacement and
// returns the one with the best fitness under orientation gib.
func tournament(population []*Individual, size int, r *rand.Rand, gib bool) int {
	best := r.Intn(len(population))
	for i := 1; i < size; i++ {
		cand := r.Intn(len(population))
		if fitness.Better(population[cand].Fitness, population[best].Fitness, gib) {
			best = cand
		}
	}
	return best
}

// selectRows implements the bootstrap/subsample row-selection contract: if
// Bootstrap is set, draw MaxSamples*n indices with replacement (rows not
// drawn become the OOB set); else if MaxSamples < 1, draw a fraction without
// replacement (the complement is the OOB set); else use every row with no
// OOB set.
func selectRows(n int, cfg *Config, r *rand.Rand) (rows, oob []int) {
	if cfg.Bootstrap {
		return bootstrapRows(n, cfg.MaxSamples, r)
	}
	if cfg.MaxSamples < 1.0 {
		return subsampleRows(n, cfg.MaxSamples, r)
	}

	rows = make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows, nil
}

func bootstrapRows(n int, fraction float64, r *rand.Rand) (rows, oob []int) {
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	inBag := make([]bool, n)
	rows = make([]int, k)
	for i := range rows {
		id := r.Intn(n)
		rows[i] = id
		inBag[id] = true
	}
	for i, in := range inBag {
		if !in {
			oob = append(oob, i)
		}
	}
	return rows, oob
}

func subsampleRows(n int, fraction float64, r *rand.Rand) (rows, oob []int) {
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	perm := r.Perm(n)
	rows = append([]int{}, perm[:k]...)
	oob = append([]int{}, perm[k:]...)
	return rows, oob
}

// checkNumericHealth logs a NumericWarning when the fraction of rows, across
// the generation's evaluations, where a protected operator's fallback fired
// exceeds cfg.NumericWarningThreshold (spec.md §7). This is a non-fatal,
// logged-not-raised condition; the teacher has no equivalent since its
// splits (gini/MSE) have no protected-operator analogue.
func (e *Engine) checkNumericHealth(gen int, population []*Individual) {
	var triggered, total int
	for _, ind := range population {
		triggered += ind.TriggeredRows
		total += ind.RowsEvaluated
	}
	if total == 0 {
		return
	}

	frac := float64(triggered) / float64(total)
	if frac <= e.cfg.NumericWarningThreshold {
		return
	}

	w := &NumericWarning{
		Generation: gen,
		Fraction:   frac,
		Message: fmt.Sprintf("protected operators triggered on %.1f%% of evaluated rows (threshold %.1f%%)",
			frac*100, e.cfg.NumericWarningThreshold*100),
	}
	e.logger.Warn(w.Message, zap.Int("generation", gen), zap.Float64("fraction", frac))
}
