package regression

import (
	"fmt"
	"math"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/format"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/linalg"
)

// State is the transition state of an OLS aggregate.
//
// It holds the additive sufficient statistics of every row folded so far:
// the row count n, X'X in packed upper-triangular form, X'y, y'y and Σy.
// With compensated accumulation each running sum carries its own Neumaier
// compensation term.
//
// A State is not safe for concurrent use. Partitions processed in parallel
// should each own a State and be combined with Merge.
type State struct {
	cfg StateConfig

	n    uint64
	p    int
	sumY float64
	yy   float64
	xy   []float64
	xx   []float64

	sumYComp float64
	yyComp   float64
	xyComp   []float64
	xxComp   []float64

	buf      []float64
	consumed bool
}

// NewState creates an empty transition state.
//
// The predictor width is not fixed until the first row is folded or a
// non-empty state is merged in.
//
// Parameters:
//   - opts: WithAllocator, WithAccumulation
//
// Returns:
//   - *State: An empty state
//   - error: Option validation error
func NewState(opts ...StateOption) (*State, error) {
	cfg := defaultStateConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &State{cfg: cfg}, nil
}

// N returns the number of rows folded into the state.
func (s *State) N() uint64 { return s.n }

// P returns the predictor width, or 0 while the state is empty.
func (s *State) P() int { return s.p }

// Empty reports whether no row has been folded yet.
func (s *State) Empty() bool { return s.n == 0 }

// Consumed reports whether the state was merged into another state or released.
func (s *State) Consumed() bool { return s.consumed }

// Accumulation returns the summation mode of the state.
func (s *State) Accumulation() format.AccumulationType { return s.cfg.Accumulation }

func (s *State) compensated() bool {
	return s.cfg.Accumulation == format.AccumulationCompensated
}

// Transition folds one observation into the state.
//
// The first call fixes the predictor width to len(x). A row is validated in
// full before any field is touched, so a rejected row leaves the state as it was.
//
// Parameters:
//   - y: Response value
//   - x: Predictor vector. Include a constant 1 to fit an intercept.
//
// Returns:
//   - error: ErrDimensionMismatch if len(x) is 0 or differs from the established width,
//     ErrInvalidValue if y or any x_i is NaN or infinite or its square would overflow
//     the running sums, ErrStateConsumed if the state
//     was merged away, ErrOutOfMemory if the first row's buffers cannot be allocated
//
// Example:
//
//	st, _ := regression.NewState()
//	_ = st.Transition(2.0, []float64{1, 1})
//	_ = st.Transition(4.0, []float64{1, 2})
func (s *State) Transition(y float64, x []float64) error {
	if s.consumed {
		return fmt.Errorf("transition: %w", errs.ErrStateConsumed)
	}
	if len(x) == 0 {
		return fmt.Errorf("%w: empty predictor vector", errs.ErrDimensionMismatch)
	}
	if s.p != 0 && len(x) != s.p {
		return fmt.Errorf("%w: row has %d predictors, state has %d", errs.ErrDimensionMismatch, len(x), s.p)
	}
	if !linalg.IsFinite(y) {
		return fmt.Errorf("%w: response %v", errs.ErrInvalidValue, y)
	}
	if i := linalg.FirstNonFinite(x); i >= 0 {
		return fmt.Errorf("%w: predictor %d is %v", errs.ErrInvalidValue, i, x[i])
	}
	if err := s.checkRowBounds(y, x); err != nil {
		return err
	}

	if s.p == 0 {
		if err := s.init(len(x)); err != nil {
			return err
		}
	}

	if s.compensated() {
		linalg.CompensatedAdd(&s.sumY, &s.sumYComp, y)
		linalg.CompensatedAdd(&s.yy, &s.yyComp, y*y)
		linalg.AxpyCompensated(s.xy, s.xyComp, y, x)
		linalg.AddOuterPackedCompensated(s.xx, s.xxComp, x)
	} else {
		s.sumY += y
		s.yy += y * y
		linalg.Axpy(s.xy, y, x)
		linalg.AddOuterPacked(s.xx, x)
	}
	s.n++

	return nil
}

// init allocates zeroed buffers for width p. One allocation backs every vector.
func (s *State) init(p int) error {
	vlen := p + linalg.PackedLen(p)
	size := vlen
	if s.compensated() {
		size *= 2
	}

	buf, err := s.cfg.Allocator.Allocate(size)
	if err != nil {
		return fmt.Errorf("allocate state for %d predictors: %w", p, err)
	}
	clear(buf)

	s.buf = buf
	s.p = p
	s.xy = buf[:p:p]
	s.xx = buf[p:vlen:vlen]
	if s.compensated() {
		s.xyComp = buf[vlen : vlen+p : vlen+p]
		s.xxComp = buf[vlen+p : size : size]
	}

	return nil
}

// Merge folds other into s and consumes other.
//
// An empty operand on either side is the identity. Both states must have the
// same predictor width. On error neither state is modified.
//
// When s keeps compensation terms and other does not, other's sums are folded
// as plain values. When s is plain, other's compensated sums are resolved first.
//
// Returns:
//   - error: ErrDimensionMismatch for different widths, ErrStateConsumed if either
//     state was already consumed, ErrInvalidValue when merging a state into itself
//     or when the merged sums would overflow
func (s *State) Merge(other *State) error {
	if s.consumed || other.consumed {
		return fmt.Errorf("merge: %w", errs.ErrStateConsumed)
	}
	if s == other {
		return fmt.Errorf("%w: cannot merge a state into itself", errs.ErrInvalidValue)
	}
	if other.n == 0 {
		other.Release()
		return nil
	}
	if s.n != 0 && s.p != other.p {
		return fmt.Errorf("%w: cannot merge width %d into width %d", errs.ErrDimensionMismatch, other.p, s.p)
	}

	if err := s.checkMergeBounds(other); err != nil {
		return err
	}

	if s.p == 0 {
		if err := s.init(other.p); err != nil {
			return err
		}
	}
	s.add(other)
	other.Release()

	return nil
}

func (s *State) add(other *State) {
	switch {
	case s.compensated() && other.compensated():
		linalg.CompensatedAdd(&s.sumY, &s.sumYComp, other.sumY)
		s.sumYComp += other.sumYComp
		linalg.CompensatedAdd(&s.yy, &s.yyComp, other.yy)
		s.yyComp += other.yyComp
		linalg.MergeCompensated(s.xy, s.xyComp, other.xy, other.xyComp)
		linalg.MergeCompensated(s.xx, s.xxComp, other.xx, other.xxComp)
	case s.compensated():
		linalg.CompensatedAdd(&s.sumY, &s.sumYComp, other.sumY)
		linalg.CompensatedAdd(&s.yy, &s.yyComp, other.yy)
		linalg.MergeCompensated(s.xy, s.xyComp, other.xy, nil)
		linalg.MergeCompensated(s.xx, s.xxComp, other.xx, nil)
	default:
		s.sumY += other.sumY + other.sumYComp
		s.yy += other.yy + other.yyComp
		linalg.Add(s.xy, other.xy)
		linalg.Add(s.xx, other.xx)
		if other.compensated() {
			linalg.Add(s.xy, other.xyComp)
			linalg.Add(s.xx, other.xxComp)
		}
	}
	s.n += other.n
}

// Merge combines a and b into a new state and consumes both.
//
// The result uses a's configuration. Nothing is consumed when the widths differ
// or the merged sums would overflow.
func Merge(a, b *State) (*State, error) {
	if a.consumed || b.consumed {
		return nil, fmt.Errorf("merge: %w", errs.ErrStateConsumed)
	}
	if a == b {
		return nil, fmt.Errorf("%w: cannot merge a state with itself", errs.ErrInvalidValue)
	}
	if a.n != 0 && b.n != 0 && a.p != b.p {
		return nil, fmt.Errorf("%w: cannot merge width %d with width %d", errs.ErrDimensionMismatch, a.p, b.p)
	}
	if b.n != 0 {
		if err := a.checkMergeBounds(b); err != nil {
			return nil, err
		}
	}

	out := &State{cfg: a.cfg}
	if err := out.Merge(a); err != nil {
		return nil, err
	}
	if err := out.Merge(b); err != nil {
		return nil, err
	}

	return out, nil
}

// Release returns the state's buffers to its allocator and marks it consumed.
// Releasing twice is a no-op.
func (s *State) Release() {
	if s.consumed {
		return
	}
	if s.buf != nil {
		s.cfg.Allocator.Release(s.buf)
	}
	s.buf, s.xy, s.xx, s.xyComp, s.xxComp = nil, nil, nil, nil, nil
	s.consumed = true
}

// resolved writes the effective X'y and packed X'X (sum plus compensation)
// into xy and xx and returns the effective Σy and y'y.
func (s *State) resolved(xy, xx []float64) (sumY, yy float64) {
	linalg.Resolve(xy, s.xy, s.xyComp)
	linalg.Resolve(xx, s.xx, s.xxComp)

	return s.sumY + s.sumYComp, s.yy + s.yyComp
}

// statisticLimit bounds y'y and the diagonal of X'X. By Cauchy-Schwarz every
// entry of X'X and X'y, and Σy/√n, stays below it too; the halving leaves
// room for rounding.
const statisticLimit = math.MaxFloat64 / 2

func withinLimit(v float64) bool {
	return math.Abs(v) < statisticLimit
}

// checkRowBounds rejects a row whose squares would overflow the running sums.
func (s *State) checkRowBounds(y float64, x []float64) error {
	if !withinLimit(s.yy + y*y) {
		return fmt.Errorf("%w: response %v overflows y'y", errs.ErrInvalidValue, y)
	}
	for i, v := range x {
		var diag float64
		if s.p != 0 {
			diag = s.xx[linalg.PackedIndex(i, i, s.p)]
		}
		if !withinLimit(diag + v*v) {
			return fmt.Errorf("%w: predictor %d value %v overflows X'X", errs.ErrInvalidValue, i, v)
		}
	}

	return nil
}

// checkMergeBounds rejects a merge whose sums would overflow. other is non-empty.
func (s *State) checkMergeBounds(other *State) error {
	if s.n == 0 {
		return nil
	}
	if !withinLimit(s.yy + other.yy) {
		return fmt.Errorf("%w: merged y'y overflows", errs.ErrInvalidValue)
	}
	for i := range s.p {
		k := linalg.PackedIndex(i, i, s.p)
		if !withinLimit(s.xx[k] + other.xx[k]) {
			return fmt.Errorf("%w: merged X'X diagonal %d overflows", errs.ErrInvalidValue, i)
		}
	}

	return nil
}
