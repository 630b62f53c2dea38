// Package aggregation implements Byzantine-resilient reducers:
// coordinate-wise median, trimmed mean, Krum, and naive averaging. Every
// reducer takes a non-empty list of same-length float vectors and returns a
// vector of that length, together with its documented tolerance and
// complexity class.
package aggregation

import (
	"math"
	"sort"

	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// Result is a reducer's output plus the documented Byzantine tolerance and
// complexity class it carries.
type Result struct {
	Output     []float64
	Tolerance  string
	Complexity string
}

func validateVectors(vectors [][]float64) (n, dim int, err error) {
	n = len(vectors)
	if n == 0 {
		return 0, 0, swarmerr.New(swarmerr.KindInsufficientUpdates, "aggregation requires at least one update")
	}
	dim = len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return 0, 0, swarmerr.Newf(swarmerr.KindValidationFailure,
				"update %d has length %d, expected %d", i, len(v), dim)
		}
	}
	return n, dim, nil
}

// lessTotal orders float64 values with NaN treated as equal to itself
// (never unordered), sorting NaN to the high end — keeping every sort in
// this package a total, panic-free operation regardless of input. The
// gradient validator is expected to have rejected NaN far upstream of
// here; this is a total-function guarantee, not a tolerance policy.
func lessTotal(a, b float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return false
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a < b
	}
}

// sortedCoordinate extracts coordinate i across all vectors and returns it
// sorted ascending (stable, NaN-total).
func sortedCoordinate(vectors [][]float64, i int) []float64 {
	col := make([]float64, len(vectors))
	for j, v := range vectors {
		col[j] = v[i]
	}
	sort.SliceStable(col, func(a, b int) bool { return lessTotal(col[a], col[b]) })
	return col
}
