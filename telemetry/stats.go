// Package telemetry collects per-step residual and timing diagnostics for
// the solver and writes them as CSV.
package telemetry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ResidualSample is one telemetry.csv row: divergence residuals around a
// single projection.
type ResidualSample struct {
	Tick      int     `csv:"tick"`
	Time      float64 `csv:"time"`
	MaxDivPre float64 `csv:"max_div_pre"`
	MaxDiv    float64 `csv:"max_div_post"`
	L2Div     float64 `csv:"l2_div_post"`
	StepMs    float64 `csv:"step_ms"`
}

// ResidualStats summarises an interior divergence snapshot.
func ResidualStats(div []float64) (maxAbs, l2 float64) {
	if len(div) == 0 {
		return 0, 0
	}
	for _, v := range div {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	return maxAbs, floats.Norm(div, 2)
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values) / float64(len(values))
}

// Percentile returns the linearly interpolated p-quantile (p in [0,1]) of an
// ascending-sorted slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
