package genetic

import (
	"time"

	"go.uber.org/zap"

	"github.com/gosymreg/gpsym/fitness"
	"github.com/gosymreg/gpsym/program"
)

// Regressor evolves a single program to predict y from X (spec.md §6).
type Regressor struct {
	cfg       *Config
	nFeatures int
	Best      *program.Program
	History   *History
	Logger    *zap.Logger

	// FitDuration is the wall-clock time the most recent Fit call spent
	// evolving, persisted alongside the fitted state (SPEC_FULL.md §3).
	FitDuration time.Duration
}

// NewRegressor returns a Regressor configured per options, applied over
// NewConfig's defaults.
func NewRegressor(options ...Option) *Regressor {
	return &Regressor{cfg: NewConfig(options...)}
}

// Fit validates the configuration, then evolves PopulationSize programs for
// Generations generations, retaining the single best program by Fitness.
func (r *Regressor) Fit(X [][]float64, y, sampleWeight []float64) error {
	// hall_of_fame and n_components only apply to transformer mode.
	check := *r.cfg
	check.HallOfFame, check.NComponents = 0, 0
	if err := check.Validate(); err != nil {
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

	r.nFeatures = len(X[0])

	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	engine := NewEngine(r.cfg, r.nFeatures, logger)
	h, err := engine.Run(X, y, sampleWeight)
	if err != nil {
		return err
	}
	r.FitDuration = time.Since(start)

	r.History = h
	gib := r.cfg.greaterIsBetter()

	best := h.FinalPopulation[0]
	for _, ind := range h.FinalPopulation[1:] {
		if fitness.Better(ind.Fitness, best.Fitness, gib) {
			best = ind
		}
	}
	r.Best = best.Program

	return nil
}

// Predict evaluates the fitted best program over X.
func (r *Regressor) Predict(X [][]float64) ([]float64, error) {
	if r.Best == nil {
		return nil, configErrorf("predict called before fit")
	}
	if len(X) > 0 && len(X[0]) != r.nFeatures {
		return nil, &ShapeError{Got: len(X[0]), Want: r.nFeatures}
	}
	return r.Best.Execute(X)
}
