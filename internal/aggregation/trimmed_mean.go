package aggregation

import (
	"fmt"

	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// TrimmedMean returns the per-coordinate trimmed mean: sort ascending, drop
// floor(n*r) values from each end, average the rest. trimRatio is clamped
// to [0, 0.49]. Fails with InsufficientUpdates if n <= 2*floor(n*r)
// (nothing left to average).
func TrimmedMean(vectors [][]float64, trimRatio float64) (Result, error) {
	n, dim, err := validateVectors(vectors)
	if err != nil {
		return Result{}, err
	}
	r := clampTrimRatio(trimRatio)
	k := int(float64(n) * r)
	if n <= 2*k {
		return Result{}, swarmerr.Newf(swarmerr.KindInsufficientUpdates,
			"trimmed mean requires n > 2*floor(n*r); got n=%d, trim=%d per side", n, k)
	}
	out := make([]float64, dim)
	kept := n - 2*k
	for i := 0; i < dim; i++ {
		col := sortedCoordinate(vectors, i)
		var sum float64
		for _, v := range col[k : n-k] {
			sum += v
		}
		out[i] = sum / float64(kept)
	}
	return Result{
		Output:     out,
		Tolerance:  fmt.Sprintf("floor(n*%.2f) per coordinate", r),
		Complexity: "O(n*d*log n)",
	}, nil
}

func clampTrimRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 0.49 {
		return 0.49
	}
	return r
}
