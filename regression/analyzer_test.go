package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/olsagg/errs"
)

func generate(n int, fn func(x float64) float64) []Point {
	points := make([]Point, n)
	for i := range points {
		x := float64(i + 1)
		points[i] = Point{X: x, Y: fn(x)}
	}

	return points
}

func TestBasisState_ExactModels(t *testing.T) {
	tests := []struct {
		model  ModelType
		fn     func(float64) float64
		coeffs []float64
	}{
		{ModelTypeLinear, func(x float64) float64 { return 1.5 - 0.25*x }, []float64{1.5, -0.25}},
		{ModelTypeHyperbolic, func(x float64) float64 { return 3 + 2/x }, []float64{3, 2}},
		{ModelTypeLogarithmic, func(x float64) float64 { return 4 + 1.2*math.Log(x) }, []float64{4, 1.2}},
		{ModelTypePower, func(x float64) float64 { return 2 * math.Pow(x, 1.5) }, []float64{2, 1.5}},
		{ModelTypeExponential, func(x float64) float64 { return 0.5 * math.Exp(0.3*x) }, []float64{0.5, 0.3}},
		{ModelTypePolynomial, func(x float64) float64 { return 1 + 2*x + 0.5*x*x }, []float64{1, 2, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.model.String(), func(t *testing.T) {
			bs, err := NewBasisState(tt.model)
			require.NoError(t, err)
			require.Equal(t, tt.model, bs.Model())

			for _, pt := range generate(20, tt.fn) {
				require.NoError(t, bs.Observe(pt.X, pt.Y))
			}
			require.Equal(t, uint64(20), bs.State().N())

			m, err := bs.Fit()
			require.NoError(t, err)
			assert.Equal(t, tt.model, m.Type)
			assert.InDeltaSlice(t, tt.coeffs, m.Coefficients, 1e-6)
			assert.InDelta(t, 1.0, m.RSquared, 1e-9)
			assert.Less(t, m.RMSE, 1e-6)
			assert.NotEmpty(t, m.Formula)
			assert.Contains(t, m.String(), tt.model.String())

			assert.InDelta(t, tt.fn(7.5), m.Estimator.Estimate(7.5), 1e-6)
		})
	}
}

func TestBasisState_Domain(t *testing.T) {
	tests := []struct {
		model ModelType
		x, y  float64
	}{
		{ModelTypeHyperbolic, 0, 1},
		{ModelTypeLogarithmic, -1, 1},
		{ModelTypePower, 1, 0},
		{ModelTypePower, 0, 1},
		{ModelTypeExponential, 1, -2},
		{ModelTypeLinear, math.NaN(), 1},
		{ModelTypePolynomial, 1, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.model.String(), func(t *testing.T) {
			bs, err := NewBasisState(tt.model)
			require.NoError(t, err)
			require.ErrorIs(t, bs.Observe(tt.x, tt.y), errs.ErrInvalidValue)
			require.True(t, bs.State().Empty())
		})
	}

	_, err := NewBasisState(ModelType(99))
	require.ErrorIs(t, err, errs.ErrInvalidValue)
}

func TestBasisState_Merge(t *testing.T) {
	points := generate(30, func(x float64) float64 { return 3 + 2/x })

	a, err := NewBasisState(ModelTypeHyperbolic)
	require.NoError(t, err)
	b, err := NewBasisState(ModelTypeHyperbolic)
	require.NoError(t, err)
	for i, pt := range points {
		target := a
		if i%2 == 1 {
			target = b
		}
		require.NoError(t, target.Observe(pt.X, pt.Y))
	}
	require.NoError(t, a.Merge(b))

	m, err := a.Fit()
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{3, 2}, m.Coefficients, 1e-9)

	other, err := NewBasisState(ModelTypeLinear)
	require.NoError(t, err)
	require.ErrorIs(t, a.Merge(other), errs.ErrDimensionMismatch)
}

func TestAnalyze(t *testing.T) {
	t.Run("selects best model", func(t *testing.T) {
		points := generate(25, func(x float64) float64 { return 2 * math.Pow(x, 1.5) })

		result, err := Analyze(points)
		require.NoError(t, err)
		require.Equal(t, ModelTypePower, result.BestFit.Type)
		require.Len(t, result.AllModels, len(AllModelTypes()))
		require.Empty(t, result.Skipped)

		for i := 1; i < len(result.AllModels); i++ {
			require.GreaterOrEqual(t, result.AllModels[i-1].RSquared, result.AllModels[i].RSquared)
		}
		require.Contains(t, result.String(), "power")
	})

	t.Run("subset of models", func(t *testing.T) {
		points := generate(10, func(x float64) float64 { return 5 - x })

		result, err := Analyze(points, ModelTypeLinear, ModelTypeHyperbolic)
		require.NoError(t, err)
		require.Len(t, result.AllModels, 2)
		require.Equal(t, ModelTypeLinear, result.BestFit.Type)
	})

	t.Run("domain violations skip models", func(t *testing.T) {
		points := []Point{{0, 1}, {1, 3}, {2, 5}, {3, 7.5}}

		result, err := Analyze(points)
		require.NoError(t, err)
		for _, mt := range []ModelType{ModelTypeHyperbolic, ModelTypeLogarithmic, ModelTypePower} {
			require.ErrorIs(t, result.Skipped[mt], errs.ErrInvalidValue, mt.String())
		}
		require.Len(t, result.AllModels, 3)
	})

	t.Run("constant response ranks last", func(t *testing.T) {
		points := generate(5, func(float64) float64 { return 2 })

		result, err := Analyze(points, ModelTypeLinear)
		require.NoError(t, err)
		require.True(t, math.IsNaN(result.BestFit.RSquared))
		require.True(t, result.BestFit.Summary.Condition.Has(CondDegenerateResult))
	})

	t.Run("no model fits", func(t *testing.T) {
		_, err := Analyze([]Point{{math.NaN(), 1}, {1, 2}, {2, 3}})
		require.ErrorIs(t, err, errs.ErrInvalidValue)

		_, err = Analyze([]Point{{1, 2}})
		require.ErrorIs(t, err, errs.ErrInsufficientData)

		_, err = Analyze(nil)
		require.ErrorIs(t, err, errs.ErrInsufficientData)
	})
}

func TestAnalyzeEach(t *testing.T) {
	groups := [][]Point{
		generate(10, func(x float64) float64 { return 1 + 2*x }),
		generate(10, func(x float64) float64 { return 3 + 4/x }),
	}

	results, err := AnalyzeEach(groups, ModelTypeLinear, ModelTypeHyperbolic)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, ModelTypeLinear, results[0].BestFit.Type)
	require.Equal(t, ModelTypeHyperbolic, results[1].BestFit.Type)

	_, err = AnalyzeEach(nil)
	require.ErrorIs(t, err, errs.ErrInsufficientData)

	_, err = AnalyzeEach([][]Point{groups[0], nil})
	require.ErrorIs(t, err, errs.ErrInsufficientData)
}

func TestCompareFit(t *testing.T) {
	hi := &Model{RSquared: 0.9}
	lo := &Model{RSquared: 0.1}
	nan := &Model{RSquared: math.NaN()}

	require.Negative(t, compareFit(hi, lo))
	require.Positive(t, compareFit(lo, hi))
	require.Positive(t, compareFit(nan, lo))
	require.Negative(t, compareFit(lo, nan))
	require.Zero(t, compareFit(nan, nan))
}
