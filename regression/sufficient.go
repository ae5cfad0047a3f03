package regression

import (
	"fmt"
	"slices"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/linalg"
)

// Sufficient is a detached copy of a state's accumulated statistics.
//
// XX holds the upper triangle of X'X row by row, see linalg.PackedIndex.
// The compensation fields are set only when Compensated is true.
type Sufficient struct {
	N           uint64
	P           int
	SumY        float64
	YY          float64
	XY          []float64
	XX          []float64
	Compensated bool
	SumYComp    float64
	YYComp      float64
	XYComp      []float64
	XXComp      []float64
}

// Snapshot returns a deep copy of the state's statistics.
// A consumed state yields the zero Sufficient.
func (s *State) Snapshot() Sufficient {
	if s.consumed {
		return Sufficient{}
	}

	out := Sufficient{
		N:           s.n,
		P:           s.p,
		SumY:        s.sumY,
		YY:          s.yy,
		XY:          slices.Clone(s.xy),
		XX:          slices.Clone(s.xx),
		Compensated: s.compensated(),
	}
	if out.Compensated {
		out.SumYComp = s.sumYComp
		out.YYComp = s.yyComp
		out.XYComp = slices.Clone(s.xyComp)
		out.XXComp = slices.Clone(s.xxComp)
	}

	return out
}

// Validate checks that the vectors have the lengths implied by P and that
// every value is finite.
func (f *Sufficient) Validate() error {
	if f.N == 0 {
		if f.P != 0 || len(f.XY) != 0 || len(f.XX) != 0 {
			return fmt.Errorf("%w: empty state carries %d predictors", errs.ErrDimensionMismatch, f.P)
		}

		return nil
	}
	if f.P <= 0 {
		return fmt.Errorf("%w: non-empty state has width %d", errs.ErrDimensionMismatch, f.P)
	}
	if len(f.XY) != f.P {
		return fmt.Errorf("%w: X'y has %d entries, want %d", errs.ErrDimensionMismatch, len(f.XY), f.P)
	}
	if want := linalg.PackedLen(f.P); len(f.XX) != want {
		return fmt.Errorf("%w: packed X'X has %d entries, want %d", errs.ErrDimensionMismatch, len(f.XX), want)
	}
	if f.Compensated {
		if len(f.XYComp) != len(f.XY) || len(f.XXComp) != len(f.XX) {
			return fmt.Errorf("%w: compensation terms do not match sums", errs.ErrDimensionMismatch)
		}
	}

	scalars := []float64{f.SumY, f.YY, f.SumYComp, f.YYComp}
	for _, vec := range [][]float64{scalars, f.XY, f.XX, f.XYComp, f.XXComp} {
		if i := linalg.FirstNonFinite(vec); i >= 0 {
			return fmt.Errorf("%w: non-finite statistic %v", errs.ErrInvalidValue, vec[i])
		}
	}

	return nil
}

// Restore rebuilds a State from a snapshot.
//
// The accumulation mode follows the snapshot unless overridden by
// WithAccumulation; restoring compensated statistics into a plain state
// folds the compensation terms into the sums.
func Restore(f Sufficient, opts ...StateOption) (*State, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	src := &State{
		n:        f.N,
		p:        f.P,
		sumY:     f.SumY,
		yy:       f.YY,
		xy:       f.XY,
		xx:       f.XX,
		sumYComp: f.SumYComp,
		yyComp:   f.YYComp,
		xyComp:   f.XYComp,
		xxComp:   f.XXComp,
		cfg:      StateConfig{Accumulation: accumulationOf(f.Compensated)},
	}

	st, err := NewState(append([]StateOption{WithAccumulation(src.cfg.Accumulation)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if f.N == 0 {
		return st, nil
	}
	if err := st.init(f.P); err != nil {
		return nil, err
	}
	st.add(src)

	return st, nil
}
