package regression

import (
	"fmt"
	"math"

	"github.com/arloliu/olsagg/errs"
)

// BasisState accumulates one single-predictor model by expanding each (x, y)
// point into a design row with an intercept and a transformed response.
type BasisState struct {
	model ModelType
	st    *State
	row   [3]float64
}

// NewBasisState creates an empty accumulator for mt.
func NewBasisState(mt ModelType, opts ...StateOption) (*BasisState, error) {
	if !mt.valid() {
		return nil, fmt.Errorf("%w: unknown model type %d", errs.ErrInvalidValue, int(mt))
	}

	st, err := NewState(opts...)
	if err != nil {
		return nil, err
	}

	return &BasisState{model: mt, st: st}, nil
}

// Model returns the model type being accumulated.
func (b *BasisState) Model() ModelType { return b.model }

// State returns the underlying transition state.
func (b *BasisState) State() *State { return b.st }

// Observe folds the point (x, y).
//
// Returns an error wrapping errs.ErrInvalidValue for non-finite input or a
// point outside the model's domain: x <= 0 for hyperbolic, logarithmic and
// power models, y <= 0 for power and exponential models.
func (b *BasisState) Observe(x, y float64) error {
	row, resp, err := b.expand(x, y)
	if err != nil {
		return err
	}

	return b.st.Transition(resp, row)
}

func (b *BasisState) expand(x, y float64) ([]float64, float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return nil, 0, fmt.Errorf("%w: point (%v, %v)", errs.ErrInvalidValue, x, y)
	}

	row := b.row[:b.model.NumCoefficients()]
	row[0] = 1
	switch b.model {
	case ModelTypeLinear, ModelTypeExponential:
		row[1] = x
	case ModelTypeHyperbolic:
		if x <= 0 {
			return nil, 0, fmt.Errorf("%w: %s model needs x > 0, got %v", errs.ErrInvalidValue, b.model, x)
		}
		row[1] = 1 / x
	case ModelTypeLogarithmic, ModelTypePower:
		if x <= 0 {
			return nil, 0, fmt.Errorf("%w: %s model needs x > 0, got %v", errs.ErrInvalidValue, b.model, x)
		}
		row[1] = math.Log(x)
	case ModelTypePolynomial:
		row[1] = x
		row[2] = x * x
	}

	if b.model.logResponse() {
		if y <= 0 {
			return nil, 0, fmt.Errorf("%w: %s model needs y > 0, got %v", errs.ErrInvalidValue, b.model, y)
		}
		y = math.Log(y)
	}

	return row, y, nil
}

// Merge folds other into b and consumes other. Both must accumulate the same model.
func (b *BasisState) Merge(other *BasisState) error {
	if b.model != other.model {
		return fmt.Errorf("%w: cannot merge %s into %s", errs.ErrDimensionMismatch, other.model, b.model)
	}

	return b.st.Merge(other.st)
}

// Fit summarizes the accumulated state into a Model.
//
// R² and RMSE are measured on the fitted scale, i.e. on ln(y) for power and
// exponential models.
func (b *BasisState) Fit(opts ...SummaryOption) (*Model, error) {
	sum, err := Summarize(b.st, opts...)
	if err != nil {
		return nil, fmt.Errorf("fit %s model: %w", b.model, err)
	}

	coeffs := make([]float64, len(sum.Coefficients))
	copy(coeffs, sum.Coefficients)
	if b.model.logResponse() {
		coeffs[0] = math.Exp(coeffs[0])
	}

	est, err := NewEstimator(b.model, coeffs)
	if err != nil {
		return nil, err
	}

	return &Model{
		Type:         b.model,
		Coefficients: coeffs,
		RSquared:     sum.RSquared,
		RMSE:         math.Sqrt(sum.RSS / float64(sum.N)),
		Formula:      formula(b.model, coeffs),
		Estimator:    est,
		Summary:      sum,
	}, nil
}

func formula(mt ModelType, c []float64) string {
	switch mt {
	case ModelTypeLinear:
		return fmt.Sprintf("y = %.4g + %.4g*x", c[0], c[1])
	case ModelTypeHyperbolic:
		return fmt.Sprintf("y = %.4g + %.4g/x", c[0], c[1])
	case ModelTypeLogarithmic:
		return fmt.Sprintf("y = %.4g + %.4g*ln(x)", c[0], c[1])
	case ModelTypePower:
		return fmt.Sprintf("y = %.4g * x^%.4g", c[0], c[1])
	case ModelTypeExponential:
		return fmt.Sprintf("y = %.4g * e^(%.4g*x)", c[0], c[1])
	case ModelTypePolynomial:
		return fmt.Sprintf("y = %.4g + %.4g*x + %.4g*x²", c[0], c[1], c[2])
	default:
		return "unknown"
	}
}
