package regression

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/linalg"
)

// ModelType identifies a single-predictor model fitted by basis expansion.
type ModelType int

const (
	// ModelTypeLinear represents y = a + b*x
	ModelTypeLinear ModelType = iota
	// ModelTypeHyperbolic represents y = a + b/x
	ModelTypeHyperbolic
	// ModelTypeLogarithmic represents y = a + b*ln(x)
	ModelTypeLogarithmic
	// ModelTypePower represents y = a * x^b, fitted as ln(y) = ln(a) + b*ln(x)
	ModelTypePower
	// ModelTypeExponential represents y = a * e^(b*x), fitted as ln(y) = ln(a) + b*x
	ModelTypeExponential
	// ModelTypePolynomial represents y = a + b*x + c*x²
	ModelTypePolynomial
)

var modelTypeNames = [...]string{
	ModelTypeLinear:      "linear",
	ModelTypeHyperbolic:  "hyperbolic",
	ModelTypeLogarithmic: "logarithmic",
	ModelTypePower:       "power",
	ModelTypeExponential: "exponential",
	ModelTypePolynomial:  "polynomial",
}

// AllModelTypes returns every supported model type in declaration order.
func AllModelTypes() []ModelType {
	return []ModelType{
		ModelTypeLinear,
		ModelTypeHyperbolic,
		ModelTypeLogarithmic,
		ModelTypePower,
		ModelTypeExponential,
		ModelTypePolynomial,
	}
}

// String returns the lower-case name of the model type.
func (mt ModelType) String() string {
	if mt.valid() {
		return modelTypeNames[mt]
	}

	return "unknown"
}

func (mt ModelType) valid() bool {
	return mt >= ModelTypeLinear && mt <= ModelTypePolynomial
}

// ParseModelType returns the model type for a case-insensitive name.
func ParseModelType(name string) (ModelType, error) {
	idx := slices.Index(modelTypeNames[:], strings.ToLower(strings.TrimSpace(name)))
	if idx < 0 {
		return 0, fmt.Errorf("%w: unknown model type %q", errs.ErrInvalidValue, name)
	}

	return ModelType(idx), nil
}

// NumCoefficients returns the number of fitted coefficients of the model.
func (mt ModelType) NumCoefficients() int {
	if mt == ModelTypePolynomial {
		return 3
	}

	return 2
}

// logResponse reports whether the model is fitted on ln(y).
func (mt ModelType) logResponse() bool {
	return mt == ModelTypePower || mt == ModelTypeExponential
}

// Estimator evaluates a fitted single-predictor model.
type Estimator interface {
	// Estimate returns the predicted response for x, or NaN when x is outside
	// the model's domain.
	Estimate(x float64) float64
	// Type returns the model type.
	Type() ModelType
	// Coefficients returns a copy of the model coefficients in formula order.
	Coefficients() []float64
	// SetCoefficients replaces the coefficients. The count must match the model.
	SetCoefficients(coeffs []float64) error
}

// ScalarEstimator implements Estimator for every ModelType.
type ScalarEstimator struct {
	model  ModelType
	coeffs []float64
}

var _ Estimator = (*ScalarEstimator)(nil)

// NewEstimator creates an estimator for the given model and coefficients.
//
// Coefficients are in formula order: [a, b] for two-parameter models and
// [a, b, c] for the polynomial model. For power and exponential models a is
// the multiplicative constant, not its logarithm.
//
// Example:
//
//	est, err := regression.NewEstimator(regression.ModelTypeHyperbolic, []float64{10, 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	y := est.Estimate(100) // 10.05
func NewEstimator(mt ModelType, coeffs []float64) (*ScalarEstimator, error) {
	if !mt.valid() {
		return nil, fmt.Errorf("%w: unknown model type %d", errs.ErrInvalidValue, int(mt))
	}

	e := &ScalarEstimator{model: mt}
	if err := e.SetCoefficients(coeffs); err != nil {
		return nil, err
	}

	return e, nil
}

// Estimate evaluates the model at x.
func (e *ScalarEstimator) Estimate(x float64) float64 {
	c := e.coeffs
	switch e.model {
	case ModelTypeLinear:
		return c[0] + c[1]*x
	case ModelTypeHyperbolic:
		if x <= 0 {
			return math.NaN()
		}

		return c[0] + c[1]/x
	case ModelTypeLogarithmic:
		if x <= 0 {
			return math.NaN()
		}

		return c[0] + c[1]*math.Log(x)
	case ModelTypePower:
		if x <= 0 {
			return math.NaN()
		}

		return c[0] * math.Pow(x, c[1])
	case ModelTypeExponential:
		return c[0] * math.Exp(c[1]*x)
	case ModelTypePolynomial:
		return c[0] + x*(c[1]+x*c[2])
	default:
		return math.NaN()
	}
}

// Type returns the model type.
func (e *ScalarEstimator) Type() ModelType {
	return e.model
}

// Coefficients returns a copy of the coefficients.
func (e *ScalarEstimator) Coefficients() []float64 {
	return slices.Clone(e.coeffs)
}

// SetCoefficients replaces the coefficients.
func (e *ScalarEstimator) SetCoefficients(coeffs []float64) error {
	if want := e.model.NumCoefficients(); len(coeffs) != want {
		return fmt.Errorf("%w: %s model expects %d coefficients, got %d",
			errs.ErrDimensionMismatch, e.model, want, len(coeffs))
	}
	e.coeffs = slices.Clone(coeffs)

	return nil
}

// LinearEstimator predicts ŷ = β·x for a multi-predictor fit.
type LinearEstimator struct {
	coeffs []float64
}

// NewLinearEstimator creates a predictor from a copy of coeffs.
func NewLinearEstimator(coeffs []float64) *LinearEstimator {
	return &LinearEstimator{coeffs: slices.Clone(coeffs)}
}

// Predict returns β·x.
func (e *LinearEstimator) Predict(x []float64) (float64, error) {
	if len(x) != len(e.coeffs) {
		return math.NaN(), fmt.Errorf("%w: got %d predictors, model has %d",
			errs.ErrDimensionMismatch, len(x), len(e.coeffs))
	}

	return linalg.Dot(e.coeffs, x), nil
}

// Coefficients returns a copy of the coefficients.
func (e *LinearEstimator) Coefficients() []float64 {
	return slices.Clone(e.coeffs)
}
