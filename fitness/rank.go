package fitness

import "sort"

// averageRank returns the rank of each element of x (1-based, ascending),
// with tied values receiving the average of the ranks they span. Used by
// weightedSpearman; implemented against the standard library because no
// example repo's ecosystem carries a ranking routine distinct from a plain
// sort (see DESIGN.md).
func averageRank(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		// positions i..j (0-based) tie; average rank is the mean of the
		// 1-based ranks i+1..j+1.
		avg := float64(i+j+2) / 2.0
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
