package linalg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoSidedPValue(t *testing.T) {
	t.Run("closed form for df=2", func(t *testing.T) {
		// With two degrees of freedom p = 1 - |t|/sqrt(t²+2).
		for _, tv := range []float64{0.3, 1, 1.4596008983995234, -2.5, 10} {
			want := 1 - math.Abs(tv)/math.Sqrt(tv*tv+2)
			assert.InDelta(t, want, TwoSidedPValue(tv, 2), 1e-12, "t=%v", tv)
		}
	})

	t.Run("df=1 is Cauchy", func(t *testing.T) {
		// p = 1 - 2/π·atan(|t|)
		for _, tv := range []float64{0.5, 1, 3} {
			want := 1 - 2/math.Pi*math.Atan(tv)
			assert.InDelta(t, want, TwoSidedPValue(tv, 1), 1e-12)
		}
	})

	t.Run("symmetric and bounded", func(t *testing.T) {
		require.Equal(t, 1.0, TwoSidedPValue(0, 10))
		require.Equal(t, TwoSidedPValue(1.7, 15), TwoSidedPValue(-1.7, 15))
	})

	t.Run("large t underflows to zero not NaN", func(t *testing.T) {
		for _, tv := range []float64{50, 1e3, 1e8, 1e200, math.Inf(1), math.Inf(-1)} {
			p := TwoSidedPValue(tv, 30)
			require.False(t, math.IsNaN(p), "t=%v", tv)
			require.GreaterOrEqual(t, p, 0.0)
			require.Less(t, p, 1e-20)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		require.True(t, math.IsNaN(TwoSidedPValue(math.NaN(), 3)))
		require.True(t, math.IsNaN(TwoSidedPValue(1, 0)))
		require.True(t, math.IsNaN(TwoSidedPValue(1, -2)))
	})
}

func TestStudentTQuantile(t *testing.T) {
	// Well-known critical values.
	assert.InDelta(t, 12.7062047, StudentTQuantile(0.975, 1), 1e-6)
	assert.InDelta(t, 4.30265273, StudentTQuantile(0.975, 2), 1e-6)
	assert.InDelta(t, 2.22813885, StudentTQuantile(0.975, 10), 1e-6)
	assert.InDelta(t, 0, StudentTQuantile(0.5, 7), 1e-12)
	assert.InDelta(t, -StudentTQuantile(0.9, 5), StudentTQuantile(0.1, 5), 1e-10)

	require.True(t, math.IsNaN(StudentTQuantile(1.5, 3)))
	require.True(t, math.IsNaN(StudentTQuantile(0.5, 0)))
}

func TestQuantileInvertsPValue(t *testing.T) {
	for _, df := range []float64{1, 3, 12, 100} {
		q := StudentTQuantile(0.975, df)
		assert.InDelta(t, 0.05, TwoSidedPValue(q, df), 1e-9, "df=%v", df)
	}
}
