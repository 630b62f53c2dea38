package aggregation

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// Krum returns the single update whose sum of squared-L2 distances to its
// n-f-2 closest neighbors (excluding itself) is smallest. Requires
// n >= 2f+3 to guarantee the selected update is honest; Byzantine
// tolerance is f out of n. Complexity is O(n^2*d) for the distance
// matrix plus O(n^2*log n) for the per-row neighbor sort.
func Krum(vectors [][]float64, f int) (Result, error) {
	n, _, err := validateVectors(vectors)
	if err != nil {
		return Result{}, err
	}
	if f < 0 {
		return Result{}, swarmerr.New(swarmerr.KindValidationFailure, "krum: f must be non-negative")
	}
	if n < 2*f+3 {
		return Result{}, swarmerr.Newf(swarmerr.KindInsufficientUpdates,
			"krum requires n >= 2f+3; got n=%d, f=%d", n, f)
	}

	dist := squaredDistanceMatrix(vectors)
	neighbors := n - f - 2

	bestIdx := 0
	bestScore := krumScore(dist, 0, neighbors)
	for i := 1; i < n; i++ {
		score := krumScore(dist, i, neighbors)
		if score < bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	out := make([]float64, len(vectors[bestIdx]))
	copy(out, vectors[bestIdx])
	return Result{Output: out, Tolerance: "f (n>=2f+3)", Complexity: "O(n^2)"}, nil
}

// squaredDistanceMatrix computes the full n x n pairwise squared-L2
// distance matrix via gonum's Euclidean distance, squared.
func squaredDistanceMatrix(vectors [][]float64) [][]float64 {
	n := len(vectors)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(vectors[i], vectors[j], 2)
			sq := d * d
			m[i][j] = sq
			m[j][i] = sq
		}
	}
	return m
}

// krumScore sums the distances from row i to its `neighbors` closest other
// points, excluding i itself.
func krumScore(dist [][]float64, i, neighbors int) float64 {
	row := make([]float64, 0, len(dist)-1)
	for j, d := range dist[i] {
		if j == i {
			continue
		}
		row = append(row, d)
	}
	sort.Float64s(row)
	if neighbors > len(row) {
		neighbors = len(row)
	}
	var sum float64
	for _, d := range row[:neighbors] {
		sum += d
	}
	return sum
}
