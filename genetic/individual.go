package genetic

import (
	"github.com/gosymreg/gpsym/fitness"
	"github.com/gosymreg/gpsym/operators"
	"github.com/gosymreg/gpsym/program"
)

// Individual is a program plus its fitness bookkeeping and parentage for
// one generation. It is the genetic-domain analogue of a fitted tree in the
// teacher's forest: owned by exactly one population slot, never mutated
// after its generation completes.
type Individual struct {
	Program *program.Program

	RawFitness float64
	Fitness    float64
	HasOOB     bool
	OOBFitness float64

	// RowsEvaluated and TriggeredRows feed the generation-level
	// protected-operator trigger fraction (spec.md §7's NumericWarning):
	// TriggeredRows counts the rows, among RowsEvaluated, where the
	// program's Execute hit a protected operator's fallback branch.
	RowsEvaluated int
	TriggeredRows int

	Method         operators.Method
	ParentIndex    int
	DonorIndex     int
	RemovedIndices []int
}

// evaluateWithCoeff scores ind against X/y restricted to rows, with the
// matching sample weight slice, under the named metric and an explicit
// parsimony coefficient (the caller resolves 'auto' per-generation before
// calling this), and stores raw/adjusted fitness on ind. If oobRows is
// non-empty, oob fitness is also computed and HasOOB is set.
func evaluateWithCoeff(ind *Individual, X [][]float64, y, w []float64, rows, oobRows []int, metric string, length int, parsimonyCoeff float64, greaterIsBetter bool) error {
	pred, triggered, err := executeRows(ind.Program, X, rows)
	if err != nil {
		return err
	}
	ind.RowsEvaluated = len(rows)
	ind.TriggeredRows = triggered

	yRows := gather(y, rows)
	wRows := gatherWeights(w, rows)

	raw, err := fitness.Raw(metric, pred, yRows, wRows)
	if err != nil {
		return err
	}

	ind.RawFitness = raw
	ind.Fitness = fitness.Fitness(raw, length, parsimonyCoeff, greaterIsBetter)

	if len(oobRows) > 0 {
		oobPred, _, err := executeRows(ind.Program, X, oobRows)
		if err != nil {
			return err
		}
		oobY := gather(y, oobRows)
		oobW := gatherWeights(w, oobRows)
		oobRaw, err := fitness.Raw(metric, oobPred, oobY, oobW)
		if err != nil {
			return err
		}
		ind.OOBFitness = oobRaw
		ind.HasOOB = true
	}

	return nil
}

func executeRows(p *program.Program, X [][]float64, rows []int) ([]float64, int, error) {
	sub := make([][]float64, len(rows))
	for i, r := range rows {
		sub[i] = X[r]
	}
	return p.ExecuteStats(sub)
}

func gather(v []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = v[r]
	}
	return out
}

func gatherWeights(w []float64, rows []int) []float64 {
	if w == nil {
		return nil
	}
	return gather(w, rows)
}
