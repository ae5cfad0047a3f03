package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultRankTolerance is the relative eigenvalue cutoff used to decide rank.
// It applies to X'X after scaling to unit diagonal.
const DefaultRankTolerance = 1e-12

// nullSpaceTolerance bounds the squared null-space weight of an identifiable coordinate.
const nullSpaceTolerance = 1e-10

// ErrEigenFailed is returned if the symmetric eigen-decomposition does not converge.
var ErrEigenFailed = errors.New("linalg: symmetric eigen decomposition failed")

// PseudoInverse is the result of SymPseudoInverse.
type PseudoInverse struct {
	// Inverse is A⁺ = D·S⁺·D, a symmetric reflexive generalized inverse of A
	// (A·A⁺·A = A and A⁺·A·A⁺ = A⁺). It equals A⁻¹ when A is non-singular.
	Inverse *mat.SymDense
	// Rank is the number of eigenvalues of S above the cutoff.
	Rank int
	// Identifiable[i] is false when the null space of A has a non-negligible
	// component along coordinate i, i.e. e_i is not in the row space.
	Identifiable []bool
	// Eigenvalues of the scaled matrix S in ascending order.
	Eigenvalues []float64
}

// FullRank reports whether no eigenvalue was dropped.
func (p *PseudoInverse) FullRank() bool {
	return p.Rank == len(p.Identifiable)
}

// SymPseudoInverse computes a generalized inverse of the symmetric positive
// semi-definite matrix a.
//
// The matrix is first equilibrated to S = D·a·D with D = diag(a)^-½, so the
// rank decision does not depend on the units or offsets of the predictors.
// Eigenpairs of S whose eigenvalue is at most max(rtol, n·ε)·max|λ| are dropped,
// and the result is scaled back as D·S⁺·D. A coordinate with a zero diagonal
// entry is unidentifiable. A non-positive rtol selects DefaultRankTolerance.
//
// Complexity: O(n³) time, O(n²) memory.
func SymPseudoInverse(a mat.Symmetric, rtol float64) (*PseudoInverse, error) {
	n := a.SymmetricDim()
	if n == 0 {
		return nil, fmt.Errorf("SymPseudoInverse: empty matrix")
	}
	if rtol <= 0 {
		rtol = DefaultRankTolerance
	}
	rtol = math.Max(rtol, float64(n)*epsilon)

	d := make([]float64, n)
	for i := range n {
		if v := a.At(i, i); v > 0 {
			d[i] = 1 / math.Sqrt(v)
		}
	}
	scaled := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, d[i]*a.At(i, j)*d[j])
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(scaled, true); !ok {
		return nil, ErrEigenFailed
	}
	values := es.Values(nil)

	var vectors mat.Dense
	es.VectorsTo(&vectors)

	maxAbs := 0.0
	for _, v := range values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	cutoff := rtol * maxAbs

	inv := mat.NewSymDense(n, nil)
	nullWeight := make([]float64, n)
	rank := 0
	for k, lambda := range values {
		if maxAbs == 0 || lambda <= cutoff {
			for i := range n {
				v := vectors.At(i, k)
				nullWeight[i] += v * v
			}
			continue
		}
		rank++
		recip := 1 / lambda
		for i := range n {
			vi := vectors.At(i, k) * recip * d[i]
			for j := i; j < n; j++ {
				inv.SetSym(i, j, inv.At(i, j)+vi*vectors.At(j, k)*d[j])
			}
		}
	}

	identifiable := make([]bool, n)
	for i, w := range nullWeight {
		identifiable[i] = d[i] > 0 && w <= nullSpaceTolerance
	}

	return &PseudoInverse{
		Inverse:      inv,
		Rank:         rank,
		Identifiable: identifiable,
		Eigenvalues:  values,
	}, nil
}

// epsilon is the unit roundoff of float64.
const epsilon = 0x1p-52
