package linalg

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// Dot returns the dot product of a and b. The slices must have equal length.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// Axpy computes dst += alpha*x.
func Axpy(dst []float64, alpha float64, x []float64) {
	floats.AddScaled(dst, alpha, x)
}

// Add computes dst += src element-wise.
func Add(dst, src []float64) {
	floats.Add(dst, src)
}

// PackedLen returns the number of elements of a packed symmetric p×p matrix.
func PackedLen(p int) int {
	return p * (p + 1) / 2
}

// PackedIndex returns the position of element (i, j) in packed storage of width p.
// The arguments may be given in either order.
func PackedIndex(i, j, p int) int {
	if i > j {
		i, j = j, i
	}

	return i*p - i*(i-1)/2 + (j - i)
}

// AddOuterPacked computes dst += outer(x, x) on packed storage, a symmetric
// packed rank-1 update (BLAS dspr) on the upper triangle.
func AddOuterPacked(dst []float64, x []float64) {
	blas64.Spr(1,
		blas64.Vector{N: len(x), Inc: 1, Data: x},
		blas64.SymmetricPacked{Uplo: blas.Upper, N: len(x), Data: dst},
	)
}

// Unpack writes the packed symmetric matrix of width p into dst as a full
// row-major p×p matrix. len(dst) must be at least p*p.
func Unpack(dst []float64, packed []float64, p int) {
	k := 0
	for i := range p {
		for j := i; j < p; j++ {
			v := packed[k]
			dst[i*p+j] = v
			dst[j*p+i] = v
			k++
		}
	}
}

// FirstNonFinite returns the index of the first NaN or infinite element, or -1.
func FirstNonFinite(x []float64) int {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}

	return -1
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
