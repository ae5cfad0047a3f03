package linalg

import "math"

// CompensatedAdd adds v to the Neumaier pair (sum, comp).
func CompensatedAdd(sum, comp *float64, v float64) {
	s := *sum
	t := s + v
	if math.Abs(s) >= math.Abs(v) {
		*comp += (s - t) + v
	} else {
		*comp += (v - t) + s
	}
	*sum = t
}

// AxpyCompensated computes (sum, comp) += alpha*x element-wise.
func AxpyCompensated(sum, comp []float64, alpha float64, x []float64) {
	for i, v := range x {
		CompensatedAdd(&sum[i], &comp[i], alpha*v)
	}
}

// AddOuterPackedCompensated computes (sum, comp) += outer(x, x) on packed storage.
func AddOuterPackedCompensated(sum, comp []float64, x []float64) {
	k := 0
	for i, xi := range x {
		for _, xj := range x[i:] {
			CompensatedAdd(&sum[k], &comp[k], xi*xj)
			k++
		}
	}
}

// MergeCompensated folds the pair (otherSum, otherComp) into (sum, comp).
// otherComp may be nil when the other side kept bare sums.
func MergeCompensated(sum, comp, otherSum, otherComp []float64) {
	for i, v := range otherSum {
		CompensatedAdd(&sum[i], &comp[i], v)
	}
	if otherComp != nil {
		Add(comp, otherComp)
	}
}

// Resolve writes sum + comp into dst. comp may be nil.
func Resolve(dst, sum, comp []float64) {
	copy(dst, sum)
	if comp != nil {
		Add(dst, comp)
	}
}
