package aggregation

import "gonum.org/v1/gonum/stat"

// Mean returns the coordinate-wise arithmetic mean. It has zero Byzantine
// tolerance: a single adversarial update can move the result arbitrarily.
func Mean(vectors [][]float64) (Result, error) {
	n, dim, err := validateVectors(vectors)
	if err != nil {
		return Result{}, err
	}
	out := make([]float64, dim)
	col := make([]float64, n)
	for i := 0; i < dim; i++ {
		for j, v := range vectors {
			col[j] = v[i]
		}
		out[i] = stat.Mean(col, nil)
	}
	return Result{Output: out, Tolerance: "0", Complexity: "O(n*d)"}, nil
}
