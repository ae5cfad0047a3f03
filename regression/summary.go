package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/olsagg/alloc"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/linalg"
)

// degenerateTolerance is the relative size of TSS against y'y below which the
// response is considered constant.
const degenerateTolerance = 1e-12

// Summary is the complete result of the final computation.
type Summary struct {
	// N is the number of rows.
	N uint64
	// P is the number of predictors.
	P int
	// DF is the residual degrees of freedom n - p. It may be zero or negative
	// only when N == P, in which case the inference fields are nil.
	DF int64
	// Rank is the numerical rank of X'X.
	Rank int

	Coefficients []float64
	// Identifiable[i] is false when coefficient i is not determined by the
	// data. The reported value is then the component of the solution with
	// minimum norm in unit-diagonal coordinates.
	Identifiable []bool

	RSquared         float64
	AdjustedRSquared float64
	RSS              float64
	TSS              float64
	ResidualVariance float64

	StdErrors   []float64
	TStatistics []float64
	PValues     []float64

	Condition Condition
}

// Summarize performs the final computation of an OLS aggregate.
//
// One pseudo-inverse of X'X yields the coefficients β = (X'X)⁺X'y, then
//
//	RSS = y'y - β'X'y          (clamped at 0)
//	TSS = y'y - (Σy)²/n
//	R²  = 1 - RSS/TSS
//	σ²  = RSS / (n - p)
//	se_i = sqrt(σ² (X'X)⁺_ii),  t_i = β_i / se_i
//
// and two-sided p-values from Student's t with n - p degrees of freedom.
// The state is not modified and may keep accumulating afterwards.
//
// Parameters:
//   - st: Transition state
//   - opts: WithScratchAllocator, WithRankTolerance
//
// Returns:
//   - *Summary: Result with Condition flags for recoverable issues
//   - error: ErrInsufficientData if n == 0 or n < p, ErrInvalidValue if the
//     statistics leave the float64 range, ErrStateConsumed, ErrOutOfMemory
//
// Example:
//
//	sum, err := regression.Summarize(st)
//	if err != nil {
//	    return err
//	}
//	if sum.Condition.Has(regression.CondRankDeficient) {
//	    log.Printf("unidentifiable coefficients: %v", sum.Identifiable)
//	}
func Summarize(st *State, opts ...SummaryOption) (*Summary, error) {
	if st.consumed {
		return nil, fmt.Errorf("summarize: %w", errs.ErrStateConsumed)
	}
	if st.n == 0 {
		return nil, fmt.Errorf("%w: no rows", errs.ErrInsufficientData)
	}
	if st.n < uint64(st.p) {
		return nil, fmt.Errorf("%w: %d rows for %d predictors", errs.ErrInsufficientData, st.n, st.p)
	}

	cfg := SummaryConfig{RankTolerance: linalg.DefaultRankTolerance}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	var sum *Summary
	run := func(a alloc.Allocator) error {
		var err error
		sum, err = summarize(st, cfg.RankTolerance, a)

		return err
	}

	if cfg.Allocator != nil {
		if err := run(cfg.Allocator); err != nil {
			return nil, err
		}

		return sum, nil
	}
	if err := alloc.Do(run, alloc.WithScope(alloc.ScopeCall)); err != nil {
		return nil, err
	}

	return sum, nil
}

func summarize(st *State, rtol float64, a alloc.Allocator) (*Summary, error) {
	p := st.p
	scratch, err := a.Allocate(p + linalg.PackedLen(p) + p*p)
	if err != nil {
		return nil, fmt.Errorf("summarize scratch: %w", err)
	}
	defer a.Release(scratch)

	xy := scratch[:p]
	packed := scratch[p : p+linalg.PackedLen(p)]
	full := scratch[p+linalg.PackedLen(p):]

	sumY, yy := st.resolved(xy, packed)
	if !linalg.IsFinite(sumY) || !linalg.IsFinite(yy) || linalg.FirstNonFinite(xy) >= 0 || linalg.FirstNonFinite(packed) >= 0 {
		return nil, fmt.Errorf("%w: accumulated statistics are not finite", errs.ErrInvalidValue)
	}
	linalg.Unpack(full, packed, p)

	pinv, err := linalg.SymPseudoInverse(mat.NewSymDense(p, full), rtol)
	if err != nil {
		return nil, fmt.Errorf("pseudo-inverse of X'X: %w", err)
	}

	n := float64(st.n)
	out := &Summary{
		N:                st.n,
		P:                p,
		DF:               int64(st.n) - int64(p),
		Rank:             pinv.Rank,
		Coefficients:     make([]float64, p),
		Identifiable:     pinv.Identifiable,
		AdjustedRSquared: math.NaN(),
		ResidualVariance: math.NaN(),
	}
	if !pinv.FullRank() {
		out.Condition |= CondRankDeficient
	}

	for i := range p {
		var b float64
		for j := range p {
			b += pinv.Inverse.At(i, j) * xy[j]
		}
		out.Coefficients[i] = b
	}

	out.RSS = math.Max(yy-linalg.Dot(out.Coefficients, xy), 0)
	out.TSS = math.Max(yy-sumY*(sumY/n), 0)
	if !linalg.IsFinite(out.RSS) || !linalg.IsFinite(out.TSS) || linalg.FirstNonFinite(out.Coefficients) >= 0 {
		return nil, fmt.Errorf("%w: statistics overflow float64 range", errs.ErrInvalidValue)
	}
	if out.TSS <= degenerateTolerance*yy {
		out.RSquared = math.NaN()
		out.Condition |= CondDegenerateResult
	} else {
		out.RSquared = 1 - out.RSS/out.TSS
	}

	if out.DF <= 0 {
		return out, nil
	}

	df := float64(out.DF)
	out.ResidualVariance = out.RSS / df
	if !math.IsNaN(out.RSquared) {
		out.AdjustedRSquared = 1 - (1-out.RSquared)*(n-1)/df
	}

	out.StdErrors = make([]float64, p)
	out.TStatistics = make([]float64, p)
	out.PValues = make([]float64, p)
	for i := range p {
		if !out.Identifiable[i] {
			out.StdErrors[i] = math.NaN()
			out.TStatistics[i] = math.NaN()
			out.PValues[i] = math.NaN()

			continue
		}
		se := math.Sqrt(out.ResidualVariance * math.Max(pinv.Inverse.At(i, i), 0))
		t := out.Coefficients[i] / se
		out.StdErrors[i] = se
		out.TStatistics[i] = t
		out.PValues[i] = linalg.TwoSidedPValue(t, df)
	}

	return out, nil
}

// ConfidenceIntervals returns two-sided confidence intervals for the
// coefficients at the given level, e.g. 0.95.
// Bounds of unidentifiable coefficients are NaN.
func (s *Summary) ConfidenceIntervals(level float64) ([][2]float64, error) {
	if !(level > 0 && level < 1) {
		return nil, fmt.Errorf("%w: confidence level %v must be in (0, 1)", errs.ErrInvalidValue, level)
	}
	if s.DF <= 0 {
		return nil, fmt.Errorf("%w: %d rows for %d predictors", errs.ErrInsufficientDegreesOfFreedom, s.N, s.P)
	}

	q := linalg.StudentTQuantile(1-(1-level)/2, float64(s.DF))
	out := make([][2]float64, s.P)
	for i, b := range s.Coefficients {
		half := q * s.StdErrors[i]
		out[i] = [2]float64{b - half, b + half}
	}

	return out, nil
}

// Estimator returns a predictor backed by a copy of the coefficients.
func (s *Summary) Estimator() *LinearEstimator {
	return NewLinearEstimator(s.Coefficients)
}

// Coefficients returns β. The condition reports CondRankDeficient only.
//
// Returns:
//   - []float64: Coefficients, minimum scaled-norm when X'X is singular
//   - Condition: CondRankDeficient when X'X is singular
//   - error: ErrInsufficientData if n == 0 or n < p
func Coefficients(st *State, opts ...SummaryOption) ([]float64, Condition, error) {
	s, err := Summarize(st, opts...)
	if err != nil {
		return nil, CondOK, err
	}

	return s.Coefficients, s.Condition & CondRankDeficient, nil
}

// RSquared returns the coefficient of determination.
// It is NaN with CondDegenerateResult when the response is constant.
func RSquared(st *State, opts ...SummaryOption) (float64, Condition, error) {
	s, err := Summarize(st, opts...)
	if err != nil {
		return math.NaN(), CondOK, err
	}

	return s.RSquared, s.Condition, nil
}

// TStatistics returns β_i / se_i for every coefficient. Entries of
// unidentifiable coefficients are NaN.
//
// Returns an error wrapping errs.ErrInsufficientDegreesOfFreedom when n <= p.
func TStatistics(st *State, opts ...SummaryOption) ([]float64, Condition, error) {
	s, err := summarizeWithDF(st, opts...)
	if err != nil {
		return nil, CondOK, err
	}

	return s.TStatistics, s.Condition & CondRankDeficient, nil
}

// PValues returns two-sided p-values of the t-statistics.
//
// Returns an error wrapping errs.ErrInsufficientDegreesOfFreedom when n <= p.
func PValues(st *State, opts ...SummaryOption) ([]float64, Condition, error) {
	s, err := summarizeWithDF(st, opts...)
	if err != nil {
		return nil, CondOK, err
	}

	return s.PValues, s.Condition & CondRankDeficient, nil
}

func summarizeWithDF(st *State, opts ...SummaryOption) (*Summary, error) {
	s, err := Summarize(st, opts...)
	if err != nil {
		return nil, err
	}
	if s.DF <= 0 {
		return nil, fmt.Errorf("%w: %d rows for %d predictors", errs.ErrInsufficientDegreesOfFreedom, s.N, s.P)
	}

	return s, nil
}
