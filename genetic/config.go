package genetic

import (
	"github.com/gosymreg/gpsym/fitness"
	"github.com/gosymreg/gpsym/function"
	"github.com/gosymreg/gpsym/program"
)

// Config bundles the evolutionary run's options (spec.md §4.E). Zero value
// is not directly usable; build one with NewConfig and functional options,
// mirroring the teacher's forestConfiger convention.
type Config struct {
	PopulationSize int
	Generations    int
	TournamentSize int

	PCrossover       float64
	PSubtreeMutation float64
	PHoistMutation   float64
	PPointMutation   float64
	PPointReplace    float64

	InitMinDepth int
	InitMaxDepth int
	InitMethod   program.Method

	Funcs          function.Set
	Trigonometric  bool
	ConstRange     [2]float64
	Metric         string
	ParsimonyAuto  bool
	ParsimonyCoeff float64

	Bootstrap    bool
	MaxSamples   float64
	HallOfFame   int
	NComponents  int

	NumJobs     int
	RandomState int64
	Verbose     bool

	// NumericWarningThreshold is the protected-operator trigger fraction
	// (spec.md §7) a generation's evaluations must exceed before a
	// NumericWarning is logged.
	NumericWarningThreshold float64
}

// methods for the configer interface
func (c *Config) setPopulationSize(n int)       { c.PopulationSize = n }
func (c *Config) setGenerations(n int)          { c.Generations = n }
func (c *Config) setTournamentSize(n int)       { c.TournamentSize = n }
func (c *Config) setPCrossover(p float64)       { c.PCrossover = p }
func (c *Config) setPSubtreeMutation(p float64) { c.PSubtreeMutation = p }
func (c *Config) setPHoistMutation(p float64)   { c.PHoistMutation = p }
func (c *Config) setPPointMutation(p float64)   { c.PPointMutation = p }
func (c *Config) setPPointReplace(p float64)    { c.PPointReplace = p }
func (c *Config) setInitDepth(min, max int)     { c.InitMinDepth = min; c.InitMaxDepth = max }
func (c *Config) setInitMethod(m program.Method) { c.InitMethod = m }
func (c *Config) setFunctionSet(s function.Set) { c.Funcs = s }
func (c *Config) setTrigonometric()             { c.Trigonometric = true }
func (c *Config) setConstRange(lo, hi float64)  { c.ConstRange = [2]float64{lo, hi} }
func (c *Config) setMetric(m string)            { c.Metric = m }
func (c *Config) setParsimonyAuto()             { c.ParsimonyAuto = true }
func (c *Config) setParsimonyCoeff(v float64)   { c.ParsimonyCoeff = v }
func (c *Config) setBootstrap()                 { c.Bootstrap = true }
func (c *Config) setMaxSamples(v float64)       { c.MaxSamples = v }
func (c *Config) setHallOfFame(n int)           { c.HallOfFame = n }
func (c *Config) setNComponents(n int)          { c.NComponents = n }
func (c *Config) setNumJobs(n int)              { c.NumJobs = n }
func (c *Config) setRandomState(n int64)        { c.RandomState = n }
func (c *Config) setVerbose()                   { c.Verbose = true }
func (c *Config) setNumericWarningThreshold(v float64) { c.NumericWarningThreshold = v }

// Option configures a Config. Build values with the functions below
// (PopulationSize, Metric, Bootstrap, ...); the configer interface they
// close over stays unexported, following the teacher's forestConfiger
// convention.
type Option func(configer)

type configer interface {
	setPopulationSize(n int)
	setGenerations(n int)
	setTournamentSize(n int)
	setPCrossover(p float64)
	setPSubtreeMutation(p float64)
	setPHoistMutation(p float64)
	setPPointMutation(p float64)
	setPPointReplace(p float64)
	setInitDepth(min, max int)
	setInitMethod(m program.Method)
	setFunctionSet(s function.Set)
	setTrigonometric()
	setConstRange(lo, hi float64)
	setMetric(m string)
	setParsimonyAuto()
	setParsimonyCoeff(v float64)
	setBootstrap()
	setMaxSamples(v float64)
	setHallOfFame(n int)
	setNComponents(n int)
	setNumJobs(n int)
	setRandomState(n int64)
	setVerbose()
	setNumericWarningThreshold(v float64)
}

// PopulationSize sets the number of programs per generation.
func PopulationSize(n int) Option { return func(c configer) { c.setPopulationSize(n) } }

// Generations sets the number of generations to evolve.
func Generations(n int) Option { return func(c configer) { c.setGenerations(n) } }

// TournamentSize sets the number of programs sampled per tournament.
func TournamentSize(n int) Option { return func(c configer) { c.setTournamentSize(n) } }

// PCrossover sets the crossover probability.
func PCrossover(p float64) Option { return func(c configer) { c.setPCrossover(p) } }

// PSubtreeMutation sets the subtree mutation probability.
func PSubtreeMutation(p float64) Option {
	return func(c configer) { c.setPSubtreeMutation(p) }
}

// PHoistMutation sets the hoist mutation probability.
func PHoistMutation(p float64) Option { return func(c configer) { c.setPHoistMutation(p) } }

// PPointMutation sets the point mutation probability.
func PPointMutation(p float64) Option { return func(c configer) { c.setPPointMutation(p) } }

// PPointReplace sets the per-token replacement probability used within
// point mutation.
func PPointReplace(p float64) Option { return func(c configer) { c.setPPointReplace(p) } }

// InitDepth sets the (min, max) depth range drawn from at initialization.
func InitDepth(min, max int) Option { return func(c configer) { c.setInitDepth(min, max) } }

// InitMethod sets the initialization method (Full, Grow, or HalfAndHalf).
func InitMethod(m program.Method) Option { return func(c configer) { c.setInitMethod(m) } }

// FunctionSet sets the active function registry.
func FunctionSet(s function.Set) Option { return func(c configer) { c.setFunctionSet(s) } }

// Trigonometric enables sin/cos/tan in the default function set; has no
// effect if FunctionSet was also supplied.
func Trigonometric() Option { return func(c configer) { c.setTrigonometric() } }

// ConstRange sets the inclusive bounds constants are drawn from.
func ConstRange(lo, hi float64) Option { return func(c configer) { c.setConstRange(lo, hi) } }

// Metric selects the fitness metric by name (see package fitness).
func Metric(m string) Option { return func(c configer) { c.setMetric(m) } }

// ParsimonyAuto enables the adaptive ('auto') parsimony coefficient.
func ParsimonyAuto() Option { return func(c configer) { c.setParsimonyAuto() } }

// ParsimonyCoeff sets a fixed parsimony coefficient. If ParsimonyAuto was
// also supplied, it is used for the first generation only; later
// generations use the adaptive coefficient.
func ParsimonyCoeff(v float64) Option { return func(c configer) { c.setParsimonyCoeff(v) } }

// Bootstrap enables bootstrap resampling with out-of-bag scoring.
func Bootstrap() Option { return func(c configer) { c.setBootstrap() } }

// MaxSamples sets the subsample fraction used per individual evaluation
// (1.0 means use every row; values below 1.0 enable OOB scoring even
// without Bootstrap).
func MaxSamples(v float64) Option { return func(c configer) { c.setMaxSamples(v) } }

// HallOfFame sets the number of top individuals retained for transformer
// mode's decorrelation pass.
func HallOfFame(n int) Option { return func(c configer) { c.setHallOfFame(n) } }

// NComponents sets the number of decorrelated components a transformer
// emits.
func NComponents(n int) Option { return func(c configer) { c.setNComponents(n) } }

// NumJobs sets the number of parallel workers used per generation.
func NumJobs(n int) Option { return func(c configer) { c.setNumJobs(n) } }

// RandomState sets the master seed; identical seeds (with identical
// NumJobs-independent configuration) reproduce identical runs.
func RandomState(n int64) Option { return func(c configer) { c.setRandomState(n) } }

// Verbose enables per-generation progress reporting (spec.md §6).
func Verbose() Option { return func(c configer) { c.setVerbose() } }

// NumericWarningThreshold sets the protected-operator trigger fraction a
// generation's evaluations must exceed before a NumericWarning is logged
// (spec.md §7; default 0.5).
func NumericWarningThreshold(v float64) Option {
	return func(c configer) { c.setNumericWarningThreshold(v) }
}

// NewConfig returns a Config initialized to spec.md §4.E's defaults, with
// options applied on top.
func NewConfig(options ...Option) *Config {
	c := &Config{
		PopulationSize:   1000,
		Generations:      20,
		TournamentSize:   20,
		PCrossover:       0.9,
		PSubtreeMutation: 0.01,
		PHoistMutation:   0.01,
		PPointMutation:   0.01,
		PPointReplace:    0.05,
		InitMinDepth:     2,
		InitMaxDepth:     6,
		InitMethod:       program.HalfAndHalf,
		ConstRange:       [2]float64{-1, 1},
		Metric:           fitness.MAE,
		ParsimonyCoeff:   0.001,
		MaxSamples:       1.0,
		HallOfFame:              100,
		NComponents:             10,
		NumJobs:                 1,
		NumericWarningThreshold: 0.5,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.Funcs == nil {
		c.Funcs = function.DefaultSet(c.Trigonometric)
	}

	return c
}

// Validate checks the configuration against spec.md §7's ConfigurationError
// conditions.
func (c *Config) Validate() error {
	if c.InitMinDepth > c.InitMaxDepth {
		return configErrorf("init_depth min %d > max %d", c.InitMinDepth, c.InitMaxDepth)
	}
	if c.ConstRange[0] > c.ConstRange[1] {
		return configErrorf("const_range min %v > max %v", c.ConstRange[0], c.ConstRange[1])
	}
	if c.InitMethod != program.Full && c.InitMethod != program.Grow && c.InitMethod != program.HalfAndHalf {
		return configErrorf("unknown init_method %d", c.InitMethod)
	}

	sum := c.PCrossover + c.PSubtreeMutation + c.PHoistMutation + c.PPointMutation
	if sum > 1.0+1e-9 {
		return configErrorf("operator probabilities sum to %v, must be <= 1", sum)
	}
	for name, p := range map[string]float64{
		"p_crossover": c.PCrossover, "p_subtree_mutation": c.PSubtreeMutation,
		"p_hoist_mutation": c.PHoistMutation, "p_point_mutation": c.PPointMutation,
		"p_point_replace": c.PPointReplace,
	} {
		if p < 0 || p > 1 {
			return configErrorf("%s = %v out of range [0,1]", name, p)
		}
	}

	if _, err := fitness.GreaterIsBetter(c.Metric); err != nil {
		return configErrorf("unknown metric %q", c.Metric)
	}

	if c.HallOfFame > c.PopulationSize {
		return configErrorf("hall_of_fame %d > population_size %d", c.HallOfFame, c.PopulationSize)
	}
	if c.NComponents > c.HallOfFame {
		return configErrorf("n_components %d > hall_of_fame %d", c.NComponents, c.HallOfFame)
	}

	if c.MaxSamples <= 0 || c.MaxSamples > 1.0 {
		return configErrorf("max_samples %v out of range (0,1]", c.MaxSamples)
	}

	if c.NumericWarningThreshold < 0 || c.NumericWarningThreshold > 1 {
		return configErrorf("numeric_warning_threshold %v out of range [0,1]", c.NumericWarningThreshold)
	}

	if c.PopulationSize < 1 {
		return configErrorf("population_size must be >= 1, got %d", c.PopulationSize)
	}
	if c.TournamentSize < 1 {
		return configErrorf("tournament_size must be >= 1, got %d", c.TournamentSize)
	}

	return nil
}

func (c *Config) greaterIsBetter() bool {
	g, _ := fitness.GreaterIsBetter(c.Metric)
	return g
}
