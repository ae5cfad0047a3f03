package regression

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/olsagg/alloc"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/format"
	"github.com/arloliu/olsagg/linalg"
)

type row struct {
	y float64
	x []float64
}

// simpleRows is y = [2, 4, 5, 4] against x = [1, 2, 3, 4] with an intercept.
var simpleRows = []row{
	{2, []float64{1, 1}},
	{4, []float64{1, 2}},
	{5, []float64{1, 3}},
	{4, []float64{1, 4}},
}

func newTestState(t testing.TB, opts ...StateOption) *State {
	t.Helper()
	st, err := NewState(opts...)
	require.NoError(t, err)

	return st
}

func fold(t testing.TB, st *State, rows []row) *State {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, st.Transition(r.y, r.x))
	}

	return st
}

func randomRows(rng *rand.Rand, n, p int) []row {
	beta := make([]float64, p)
	for i := range beta {
		beta[i] = rng.NormFloat64() * 3
	}

	rows := make([]row, n)
	for i := range rows {
		x := make([]float64, p)
		x[0] = 1
		for j := 1; j < p; j++ {
			x[j] = rng.NormFloat64()*10 + float64(j)
		}
		rows[i] = row{y: linalg.Dot(beta, x) + rng.NormFloat64(), x: x}
	}

	return rows
}

func TestNewState_Options(t *testing.T) {
	st := newTestState(t)
	require.True(t, st.Empty())
	require.Zero(t, st.P())
	require.Equal(t, format.AccumulationCompensated, st.Accumulation())

	st = newTestState(t, WithAccumulation(format.AccumulationPlain), WithAllocator(nil))
	require.Equal(t, format.AccumulationPlain, st.Accumulation())

	_, err := NewState(WithAccumulation(format.AccumulationType(42)))
	require.ErrorIs(t, err, errs.ErrInvalidValue)
}

func TestTransition(t *testing.T) {
	t.Run("first row fixes width", func(t *testing.T) {
		st := fold(t, newTestState(t), simpleRows)
		require.Equal(t, uint64(4), st.N())
		require.Equal(t, 2, st.P())

		snap := st.Snapshot()
		require.Equal(t, 15.0, snap.SumY+snap.SumYComp)
		require.Equal(t, 61.0, snap.YY+snap.YYComp)
		require.Equal(t, []float64{15, 41}, snap.XY)
		require.Equal(t, []float64{4, 10, 30}, snap.XX)
	})

	t.Run("empty predictor vector", func(t *testing.T) {
		st := newTestState(t)
		require.ErrorIs(t, st.Transition(1, nil), errs.ErrDimensionMismatch)
		require.True(t, st.Empty())
	})

	t.Run("width mismatch leaves state untouched", func(t *testing.T) {
		st := fold(t, newTestState(t), simpleRows)
		before := st.Snapshot()

		require.ErrorIs(t, st.Transition(1, []float64{1, 2, 3}), errs.ErrDimensionMismatch)
		require.ErrorIs(t, st.Transition(1, []float64{1}), errs.ErrDimensionMismatch)
		require.Equal(t, before, st.Snapshot())
	})

	t.Run("non-finite values are rejected", func(t *testing.T) {
		st := fold(t, newTestState(t), simpleRows)
		before := st.Snapshot()

		require.ErrorIs(t, st.Transition(math.NaN(), []float64{1, 1}), errs.ErrInvalidValue)
		require.ErrorIs(t, st.Transition(math.Inf(1), []float64{1, 1}), errs.ErrInvalidValue)
		require.ErrorIs(t, st.Transition(1, []float64{1, math.Inf(-1)}), errs.ErrInvalidValue)
		require.ErrorIs(t, st.Transition(1, []float64{math.NaN(), 1}), errs.ErrInvalidValue)
		require.Equal(t, before, st.Snapshot())
	})

	t.Run("overflowing squares are rejected", func(t *testing.T) {
		st := newTestState(t)
		for i, y := range []float64{1e200, 2e200, 3e200} {
			require.ErrorIs(t, st.Transition(y, []float64{1, float64(i)}), errs.ErrInvalidValue)
		}
		require.True(t, st.Empty())

		require.ErrorIs(t, st.Transition(1, []float64{1, 1e160}), errs.ErrInvalidValue)
		require.True(t, st.Empty())

		// Each square fits, but the running sum would not.
		big := math.Sqrt(math.MaxFloat64 / 3)
		require.NoError(t, st.Transition(big, []float64{1, 1}))
		before := st.Snapshot()
		require.ErrorIs(t, st.Transition(big, []float64{1, 1}), errs.ErrInvalidValue)
		require.Equal(t, before, st.Snapshot())
	})

	t.Run("rejected first row does not fix width", func(t *testing.T) {
		st := newTestState(t)
		require.ErrorIs(t, st.Transition(math.NaN(), []float64{1, 2, 3}), errs.ErrInvalidValue)
		require.Zero(t, st.P())
		require.NoError(t, st.Transition(1, []float64{1, 2}))
		require.Equal(t, 2, st.P())
	})

	t.Run("packed X'X stays symmetric under unpack", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		st := fold(t, newTestState(t), randomRows(rng, 50, 4))
		snap := st.Snapshot()

		full := make([]float64, 16)
		linalg.Unpack(full, snap.XX, 4)
		for i := range 4 {
			for j := range 4 {
				require.Equal(t, full[i*4+j], full[j*4+i])
			}
		}
	})
}

func TestCompensatedAccumulation(t *testing.T) {
	rows := []row{
		{1e16, []float64{1}},
		{1, []float64{1}},
		{-1e16, []float64{1}},
	}

	comp := fold(t, newTestState(t), rows).Snapshot()
	require.True(t, comp.Compensated)
	require.Equal(t, 1.0, comp.SumY+comp.SumYComp)
	require.Equal(t, 1.0, comp.XY[0]+comp.XYComp[0])

	plain := fold(t, newTestState(t, WithAccumulation(format.AccumulationPlain)), rows).Snapshot()
	require.False(t, plain.Compensated)
	require.Zero(t, plain.SumY)
	require.Nil(t, plain.XYComp)
}

func TestMerge(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)

	t.Run("empty operand is identity", func(t *testing.T) {
		st := fold(t, newTestState(t), simpleRows)
		before := st.Snapshot()

		require.NoError(t, st.Merge(newTestState(t)))
		require.Equal(t, before, st.Snapshot())

		empty := newTestState(t)
		require.NoError(t, empty.Merge(st))
		require.Equal(t, before, empty.Snapshot())
	})

	t.Run("consumes right operand", func(t *testing.T) {
		a := fold(t, newTestState(t), simpleRows[:2])
		b := fold(t, newTestState(t), simpleRows[2:])
		require.NoError(t, a.Merge(b))

		require.True(t, b.Consumed())
		require.ErrorIs(t, b.Transition(1, []float64{1, 1}), errs.ErrStateConsumed)
		require.ErrorIs(t, a.Merge(b), errs.ErrStateConsumed)
		require.ErrorIs(t, b.Merge(a), errs.ErrStateConsumed)
		_, err := Summarize(b)
		require.ErrorIs(t, err, errs.ErrStateConsumed)
		require.Equal(t, Sufficient{}, b.Snapshot())

		whole := fold(t, newTestState(t), simpleRows)
		require.Equal(t, whole.Snapshot(), a.Snapshot())
	})

	t.Run("overflowing merge is rejected", func(t *testing.T) {
		big := math.Sqrt(math.MaxFloat64 / 3)
		a := newTestState(t)
		require.NoError(t, a.Transition(big, []float64{1, 1}))
		b := newTestState(t)
		require.NoError(t, b.Transition(big, []float64{1, 1}))

		before := a.Snapshot()
		require.ErrorIs(t, a.Merge(b), errs.ErrInvalidValue)
		require.Equal(t, before, a.Snapshot())
		require.False(t, b.Consumed())

		_, err := Merge(a, b)
		require.ErrorIs(t, err, errs.ErrInvalidValue)
		require.False(t, a.Consumed())
		require.False(t, b.Consumed())
	})

	t.Run("one-row states merged pairwise match the sequential fit", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(7, 11))
		rows := randomRows(rng, 257, 3)
		whole := fold(t, newTestState(t), rows)

		level := make([]*State, len(rows))
		for i, r := range rows {
			level[i] = fold(t, newTestState(t), []row{r})
		}
		for len(level) > 1 {
			next := make([]*State, 0, (len(level)+1)/2)
			for i := 0; i+1 < len(level); i += 2 {
				require.NoError(t, level[i].Merge(level[i+1]))
				next = append(next, level[i])
			}
			if len(level)%2 == 1 {
				next = append(next, level[len(level)-1])
			}
			level = next
		}

		want, err := Summarize(whole)
		require.NoError(t, err)
		got, err := Summarize(level[0])
		require.NoError(t, err)
		require.Equal(t, want.N, got.N)
		require.Empty(t, cmp.Diff(want.Coefficients, got.Coefficients, cmpopts.EquateApprox(1e-8, 1e-12)))
		require.Empty(t, cmp.Diff(want.TStatistics, got.TStatistics, cmpopts.EquateApprox(1e-8, 1e-12)))
		require.InDelta(t, want.RSquared, got.RSquared, 1e-10)
	})

	t.Run("width mismatch", func(t *testing.T) {
		a := fold(t, newTestState(t), simpleRows)
		b := newTestState(t)
		require.NoError(t, b.Transition(1, []float64{1, 2, 3}))

		before := a.Snapshot()
		require.ErrorIs(t, a.Merge(b), errs.ErrDimensionMismatch)
		require.Equal(t, before, a.Snapshot())
		require.False(t, b.Consumed())

		_, err := Merge(a, b)
		require.ErrorIs(t, err, errs.ErrDimensionMismatch)
		require.False(t, a.Consumed())
		require.False(t, b.Consumed())
	})

	t.Run("self merge is rejected", func(t *testing.T) {
		a := fold(t, newTestState(t), simpleRows)
		require.ErrorIs(t, a.Merge(a), errs.ErrInvalidValue)
		_, err := Merge(a, a)
		require.ErrorIs(t, err, errs.ErrInvalidValue)
	})

	t.Run("partition invariance", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(7, 11))
		rows := randomRows(rng, 300, 3)

		whole, err := Summarize(fold(t, newTestState(t), rows))
		require.NoError(t, err)

		for _, cuts := range [][2]int{{1, 2}, {100, 200}, {0, 300}, {37, 38}, {299, 300}} {
			a := fold(t, newTestState(t), rows[:cuts[0]])
			b := fold(t, newTestState(t), rows[cuts[0]:cuts[1]])
			c := fold(t, newTestState(t), rows[cuts[1]:])

			// (a ⊕ b) ⊕ c
			ab, err := Merge(a, b)
			require.NoError(t, err)
			left, err := Merge(ab, c)
			require.NoError(t, err)

			sum, err := Summarize(left)
			require.NoError(t, err)
			require.Equal(t, whole.N, sum.N)
			require.True(t, cmp.Equal(whole.Coefficients, sum.Coefficients, approx),
				cmp.Diff(whole.Coefficients, sum.Coefficients, approx))
			require.InDelta(t, whole.RSquared, sum.RSquared, 1e-9)
		}
	})

	t.Run("commutative and associative", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 5))
		rows := randomRows(rng, 90, 3)
		build := func(lo, hi int) *State { return fold(t, newTestState(t), rows[lo:hi]) }

		ab, err := Merge(build(0, 30), build(30, 60))
		require.NoError(t, err)
		abc, err := Merge(ab, build(60, 90))
		require.NoError(t, err)

		cb, err := Merge(build(60, 90), build(30, 60))
		require.NoError(t, err)
		cba, err := Merge(cb, build(0, 30))
		require.NoError(t, err)

		s1, s2 := abc.Snapshot(), cba.Snapshot()
		resolve := func(s Sufficient) ([]float64, []float64) {
			xy := make([]float64, len(s.XY))
			xx := make([]float64, len(s.XX))
			linalg.Resolve(xy, s.XY, s.XYComp)
			linalg.Resolve(xx, s.XX, s.XXComp)

			return xy, xx
		}
		xy1, xx1 := resolve(s1)
		xy2, xx2 := resolve(s2)
		require.Equal(t, s1.N, s2.N)
		require.True(t, cmp.Equal(xy1, xy2, approx), cmp.Diff(xy1, xy2, approx))
		require.True(t, cmp.Equal(xx1, xx2, approx), cmp.Diff(xx1, xx2, approx))
	})

	t.Run("mixed accumulation modes", func(t *testing.T) {
		plain := fold(t, newTestState(t, WithAccumulation(format.AccumulationPlain)), simpleRows[:2])
		comp := fold(t, newTestState(t), simpleRows[2:])

		require.NoError(t, plain.Merge(comp))
		require.Equal(t, format.AccumulationPlain, plain.Accumulation())

		want := fold(t, newTestState(t), simpleRows).Snapshot()
		got := plain.Snapshot()
		require.Equal(t, want.XY, got.XY)
		require.Equal(t, want.XX, got.XX)

		comp2 := fold(t, newTestState(t), simpleRows[:2])
		plain2 := fold(t, newTestState(t, WithAccumulation(format.AccumulationPlain)), simpleRows[2:])
		require.NoError(t, comp2.Merge(plain2))
		require.Equal(t, want, comp2.Snapshot())
	})
}

func TestSnapshotRestore(t *testing.T) {
	st := fold(t, newTestState(t), simpleRows)
	snap := st.Snapshot()

	restored, err := Restore(snap)
	require.NoError(t, err)
	require.Equal(t, snap, restored.Snapshot())

	// Snapshot is detached from the state.
	snap.XY[0] = 1000
	require.Equal(t, 15.0, st.Snapshot().XY[0])

	plain, err := Restore(st.Snapshot(), WithAccumulation(format.AccumulationPlain))
	require.NoError(t, err)
	require.Equal(t, format.AccumulationPlain, plain.Accumulation())
	require.Equal(t, []float64{15, 41}, plain.Snapshot().XY)

	empty, err := Restore(Sufficient{})
	require.NoError(t, err)
	require.True(t, empty.Empty())

	tests := []struct {
		name   string
		mutate func(*Sufficient)
		err    error
	}{
		{"short XY", func(s *Sufficient) { s.XY = s.XY[:1] }, errs.ErrDimensionMismatch},
		{"short XX", func(s *Sufficient) { s.XX = s.XX[:2] }, errs.ErrDimensionMismatch},
		{"zero width", func(s *Sufficient) { s.P = 0 }, errs.ErrDimensionMismatch},
		{"empty with width", func(s *Sufficient) { s.N = 0 }, errs.ErrDimensionMismatch},
		{"comp length", func(s *Sufficient) { s.XXComp = nil }, errs.ErrDimensionMismatch},
		{"NaN sum", func(s *Sufficient) { s.YY = math.NaN() }, errs.ErrInvalidValue},
		{"Inf entry", func(s *Sufficient) { s.XX[1] = math.Inf(1) }, errs.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := st.Snapshot()
			tt.mutate(&s)
			_, err := Restore(s)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestStateAllocator(t *testing.T) {
	t.Run("arena buffers are released on merge", func(t *testing.T) {
		arena, err := alloc.NewArena(alloc.WithScope(alloc.ScopeAggregate))
		require.NoError(t, err)
		defer arena.Close()

		a := fold(t, newTestState(t, WithAllocator(arena)), simpleRows[:2])
		b := fold(t, newTestState(t, WithAllocator(arena)), simpleRows[2:])
		require.Equal(t, 2, arena.Outstanding())

		require.NoError(t, a.Merge(b))
		require.Equal(t, 1, arena.Outstanding())

		a.Release()
		a.Release()
		require.Zero(t, arena.Outstanding())
		require.Zero(t, arena.BytesInUse())
	})

	t.Run("budget exhaustion", func(t *testing.T) {
		arena, err := alloc.NewArena(alloc.WithByteLimit(8))
		require.NoError(t, err)
		defer arena.Close()

		st := newTestState(t, WithAllocator(arena))
		require.ErrorIs(t, st.Transition(1, []float64{1, 2}), errs.ErrOutOfMemory)
		require.True(t, st.Empty())
		require.Zero(t, st.P())
	})

	t.Run("scoped acquisition", func(t *testing.T) {
		err := alloc.Do(func(a alloc.Allocator) error {
			st := fold(t, newTestState(t, WithAllocator(a)), simpleRows)
			_, err := Summarize(st, WithScratchAllocator(a))

			return err
		}, alloc.WithScope(alloc.ScopeAggregate))
		require.NoError(t, err)
	})
}
