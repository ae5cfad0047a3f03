package linalg

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// TwoSidedPValue returns 2·(1 − T_df(|t|)) for the Student-t distribution with
// df degrees of freedom.
//
// It evaluates the regularized incomplete beta I_{df/(df+t²)}(df/2, 1/2)
// directly instead of subtracting the CDF from one, so the result decays
// smoothly toward 0 for large |t|. NaN t or non-positive df yield NaN.
func TwoSidedPValue(t, df float64) float64 {
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}

	x := df / (df + t*t)

	return mathext.RegIncBeta(df/2, 0.5, x)
}

// StudentTQuantile returns the p-quantile of the standard Student-t distribution
// with df degrees of freedom. Invalid arguments yield NaN.
func StudentTQuantile(p, df float64) float64 {
	if math.IsNaN(p) || p < 0 || p > 1 || math.IsNaN(df) || df <= 0 {
		return math.NaN()
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

	return dist.Quantile(p)
}
