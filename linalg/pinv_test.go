package linalg

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSymPseudoInverse_FullRank(t *testing.T) {
	a := mat.NewSymDense(2, []float64{
		4, 10,
		10, 30,
	})

	pinv, err := SymPseudoInverse(a, 0)
	require.NoError(t, err)
	require.Equal(t, 2, pinv.Rank)
	require.True(t, pinv.FullRank())
	require.Equal(t, []bool{true, true}, pinv.Identifiable)

	// det = 20, inverse = [30 -10; -10 4] / 20
	require.InDelta(t, 1.5, pinv.Inverse.At(0, 0), 1e-12)
	require.InDelta(t, -0.5, pinv.Inverse.At(0, 1), 1e-12)
	require.InDelta(t, 0.2, pinv.Inverse.At(1, 1), 1e-12)

	var prod mat.Dense
	prod.Mul(a, pinv.Inverse)
	require.True(t, mat.EqualApprox(&prod, eye(2), 1e-12))
}

func TestSymPseudoInverse_RankDeficient(t *testing.T) {
	// X'X for columns [1, x, 2x] with x = 1..4.
	x := []float64{1, 2, 3, 4}
	packed := make([]float64, PackedLen(3))
	for _, xi := range x {
		AddOuterPacked(packed, []float64{1, xi, 2 * xi})
	}
	full := make([]float64, 9)
	Unpack(full, packed, 3)
	a := mat.NewSymDense(3, full)

	pinv, err := SymPseudoInverse(a, 0)
	require.NoError(t, err)
	require.Equal(t, 2, pinv.Rank)
	require.False(t, pinv.FullRank())
	require.Equal(t, []bool{true, false, false}, pinv.Identifiable)

	// Generalized inverse conditions: A A⁺ A = A and A⁺ A A⁺ = A⁺.
	var aap, aapa mat.Dense
	aap.Mul(a, pinv.Inverse)
	aapa.Mul(&aap, a)
	require.True(t, mat.EqualApprox(&aapa, a, 1e-9))

	var pap, papa mat.Dense
	pap.Mul(pinv.Inverse, a)
	papa.Mul(&pap, pinv.Inverse)
	require.True(t, mat.EqualApprox(&papa, pinv.Inverse, 1e-9))
}

func TestSymPseudoInverse_BadlyScaled(t *testing.T) {
	// The eigenvalue ratio is 1e-18, yet the matrix is diagonal and well posed.
	a := mat.NewSymDense(2, []float64{
		1e12, 0,
		0, 1e-6,
	})

	pinv, err := SymPseudoInverse(a, 0)
	require.NoError(t, err)
	require.Equal(t, 2, pinv.Rank)
	require.Equal(t, []bool{true, true}, pinv.Identifiable)
	require.InDelta(t, 1e-12, pinv.Inverse.At(0, 0), 1e-24)
	require.InDelta(t, 1e6, pinv.Inverse.At(1, 1), 1e-6)
	require.InDelta(t, 0, pinv.Inverse.At(0, 1), 1e-20)
}

func TestSymPseudoInverse_OffsetPredictor(t *testing.T) {
	// X'X and X'y for columns [1, year] with year = 2000..2020 and
	// y = 3 + 0.5·(year - 2000).
	packed := make([]float64, PackedLen(2))
	xy := make([]float64, 2)
	for yr := 2000.0; yr <= 2020; yr++ {
		x := []float64{1, yr}
		AddOuterPacked(packed, x)
		Axpy(xy, 3+0.5*(yr-2000), x)
	}
	full := make([]float64, 4)
	Unpack(full, packed, 2)
	a := mat.NewSymDense(2, full)

	pinv, err := SymPseudoInverse(a, 0)
	require.NoError(t, err)
	require.True(t, pinv.FullRank())
	require.Equal(t, []bool{true, true}, pinv.Identifiable)

	var beta mat.VecDense
	beta.MulVec(pinv.Inverse, mat.NewVecDense(2, xy))
	require.InDelta(t, -997, beta.AtVec(0), 1e-4)
	require.InDelta(t, 0.5, beta.AtVec(1), 1e-7)
}

func TestSymPseudoInverse_ZeroColumn(t *testing.T) {
	a := mat.NewSymDense(2, []float64{
		4, 0,
		0, 0,
	})

	pinv, err := SymPseudoInverse(a, 0)
	require.NoError(t, err)
	require.Equal(t, 1, pinv.Rank)
	require.Equal(t, []bool{true, false}, pinv.Identifiable)
	require.InDelta(t, 0.25, pinv.Inverse.At(0, 0), 1e-15)
	require.Zero(t, pinv.Inverse.At(1, 1))
}

func TestSymPseudoInverse_Zero(t *testing.T) {
	pinv, err := SymPseudoInverse(mat.NewSymDense(2, nil), 0)
	require.NoError(t, err)
	require.Zero(t, pinv.Rank)
	require.Equal(t, []bool{false, false}, pinv.Identifiable)
	require.Zero(t, pinv.Inverse.At(0, 0))
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}

	return m
}
