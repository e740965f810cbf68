// Package fitness implements the weighted regression and correlation
// metrics used to score programs, plus the parsimony-adjusted fitness
// transform described in SPEC_FULL.md §4.C.
package fitness

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metric names understood by Raw and GreaterIsBetter.
const (
	MAE      = "mean_absolute_error"
	MSE      = "mean_square_error"
	RMSE     = "rmse"
	RMSLE    = "rmsle"
	Pearson  = "pearson"
	Spearman = "spearman"
)

// GreaterIsBetter reports a metric's orientation: true for the two
// correlation metrics, false for the four error metrics. Unknown names
// return an error.
func GreaterIsBetter(metric string) (bool, error) {
	switch metric {
	case MAE, MSE, RMSE, RMSLE:
		return false, nil
	case Pearson, Spearman:
		return true, nil
	default:
		return false, fmt.Errorf("fitness: unknown metric %q", metric)
	}
}

// Raw computes the named metric between yPred and yTrue with sample
// weights w (nil means unweighted/uniform weight).
func Raw(metric string, yPred, yTrue, w []float64) (float64, error) {
	switch metric {
	case MAE:
		return meanAbsoluteError(yPred, yTrue, w), nil
	case MSE:
		return meanSquareError(yPred, yTrue, w), nil
	case RMSE:
		return math.Sqrt(meanSquareError(yPred, yTrue, w)), nil
	case RMSLE:
		return rootMeanSquaredLogError(yPred, yTrue, w), nil
	case Pearson:
		return weightedPearson(yPred, yTrue, w), nil
	case Spearman:
		return weightedSpearman(yPred, yTrue, w), nil
	default:
		return 0, fmt.Errorf("fitness: unknown metric %q", metric)
	}
}

func meanAbsoluteError(yPred, yTrue, w []float64) float64 {
	var wsum, acc float64
	for i := range yPred {
		wi := weightAt(w, i)
		acc += wi * math.Abs(yPred[i]-yTrue[i])
		wsum += wi
	}
	return acc / wsum
}

func meanSquareError(yPred, yTrue, w []float64) float64 {
	var wsum, acc float64
	for i := range yPred {
		wi := weightAt(w, i)
		d := yPred[i] - yTrue[i]
		acc += wi * d * d
		wsum += wi
	}
	return acc / wsum
}

func rootMeanSquaredLogError(yPred, yTrue, w []float64) float64 {
	var wsum, acc float64
	for i := range yPred {
		wi := weightAt(w, i)
		lp := math.Log1p(math.Max(0, yPred[i]))
		lt := math.Log1p(math.Max(0, yTrue[i]))
		d := lp - lt
		acc += wi * d * d
		wsum += wi
	}
	return math.Sqrt(acc / wsum)
}

func weightAt(w []float64, i int) float64 {
	if w == nil {
		return 1.0
	}
	return w[i]
}

func weights(w []float64, n int) []float64 {
	if w != nil {
		return w
	}
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1.0
	}
	return ones
}

// weightedPearson implements spec.md §4.C: weighted means, weighted
// covariance and variances, cov / sqrt(varx*vary).
func weightedPearson(x, y, w []float64) float64 {
	ws := weights(w, len(x))
	return stat.Correlation(x, y, ws)
}

// weightedSpearman ranks x and y with average ranks on ties, then applies
// weighted Pearson on the ranks.
func weightedSpearman(x, y, w []float64) float64 {
	rx := averageRank(x)
	ry := averageRank(y)
	return weightedPearson(rx, ry, w)
}

// ParsimonyCoefficient computes the 'auto' adaptive coefficient: the
// covariance of program length against raw fitness divided by the
// variance of length, over one generation's populations (Poli & McPhee).
func ParsimonyCoefficient(lengths, rawFitness []float64) float64 {
	fLengths := make([]float64, len(lengths))
	copy(fLengths, lengths)

	cov := stat.Covariance(fLengths, rawFitness, nil)
	varLen := stat.Variance(fLengths, nil)

	if varLen == 0 {
		return 0
	}
	return cov / varLen
}

// Fitness applies the parsimony penalty to a raw metric value. The sign is
// chosen so that longer programs are always pushed toward a worse value,
// regardless of the metric's orientation: subtract the penalty when the
// metric is maximized (greaterIsBetter), add it when minimized.
func Fitness(raw float64, length int, parsimonyCoefficient float64, greaterIsBetter bool) float64 {
	penalty := parsimonyCoefficient * float64(length)
	if greaterIsBetter {
		return raw - penalty
	}
	return raw + penalty
}

// Better reports whether a is a better fitness value than b under the
// given orientation.
func Better(a, b float64, greaterIsBetter bool) bool {
	if greaterIsBetter {
		return a > b
	}
	return a < b
}
