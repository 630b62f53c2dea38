// Package gradient implements NaN/Inf, per-coordinate, and L2-norm bound
// checks on a gradient update, failing fast with the offending index and
// value so callers can diagnose.
package gradient

import (
	"math"

	"github.com/swarmic/SwarmTorch/internal/buildinfo"
	"github.com/swarmic/SwarmTorch/internal/swarmerr"
)

// Bounds configures the validator's acceptance limits. The zero value is
// not valid; use DefaultBounds() or Bounds{MaxNorm: x, MaxCoordinate: y}.
type Bounds struct {
	MaxNorm       float64
	MaxCoordinate float64
}

// DefaultBounds returns the standard defaults: max_norm=10, max_coordinate=100.
func DefaultBounds() Bounds {
	return Bounds{
		MaxNorm:       buildinfo.DefaultGradientMaxNorm,
		MaxCoordinate: buildinfo.DefaultGradientMaxCoordinate,
	}
}

// These field names say which bound a coordinate or vector failed, carried
// in the wrapped swarmerr.Error via WithField for diagnostics.
const (
	fieldNaN              = "nan"
	fieldInfinite         = "infinite"
	fieldCoordinateTooBig = "coordinate_too_large"
	fieldNormTooBig       = "norm_too_large"
)

// Validate rejects g if any coordinate is NaN or +/-Inf, any |g_i| exceeds
// bounds.MaxCoordinate, or the L2 norm exceeds bounds.MaxNorm. Coordinate
// checks run before the norm check so a NaN/Inf value is always reported
// by index rather than poisoning the norm computation.
func Validate(g []float64, bounds Bounds) error {
	var sumSquares float64
	for i, v := range g {
		if math.IsNaN(v) {
			return swarmerr.Newf(swarmerr.KindInvalidGradient, "gradient coordinate is NaN").
				WithField(fieldNaN).WithIndex(i)
		}
		if math.IsInf(v, 0) {
			return swarmerr.Newf(swarmerr.KindInvalidGradient, "gradient coordinate is infinite (value=%v)", v).
				WithField(fieldInfinite).WithIndex(i)
		}
		if math.Abs(v) > bounds.MaxCoordinate {
			return swarmerr.Newf(swarmerr.KindInvalidGradient,
				"gradient coordinate %v exceeds max_coordinate %v", v, bounds.MaxCoordinate).
				WithField(fieldCoordinateTooBig).WithIndex(i)
		}
		sumSquares += v * v
	}
	norm := math.Sqrt(sumSquares)
	if norm > bounds.MaxNorm {
		return swarmerr.Newf(swarmerr.KindInvalidGradient,
			"gradient L2 norm %v exceeds max_norm %v", norm, bounds.MaxNorm).
			WithField(fieldNormTooBig)
	}
	return nil
}

// ValidateDefault validates g against DefaultBounds().
func ValidateDefault(g []float64) error {
	return Validate(g, DefaultBounds())
}
