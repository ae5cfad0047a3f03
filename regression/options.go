package regression

import (
	"fmt"

	"github.com/arloliu/olsagg/alloc"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/format"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/linalg"
)

// StateConfig holds the configuration of a transition state.
type StateConfig struct {
	// Allocator provides the state's accumulation buffers. Defaults to alloc.Heap.
	Allocator alloc.Allocator
	// Accumulation selects plain or compensated running sums.
	Accumulation format.AccumulationType
}

// StateOption is a functional option for StateConfig.
type StateOption = options.Option[*StateConfig]

func defaultStateConfig() StateConfig {
	return StateConfig{
		Allocator:    alloc.Heap{},
		Accumulation: format.AccumulationCompensated,
	}
}

// WithAllocator makes the state draw its buffers from a.
// A nil allocator selects alloc.Heap.
func WithAllocator(a alloc.Allocator) StateOption {
	return options.NoError(func(cfg *StateConfig) {
		if a == nil {
			a = alloc.Heap{}
		}
		cfg.Allocator = a
	})
}

// WithAccumulation selects the summation mode.
//
// format.AccumulationCompensated (the default) keeps a Neumaier compensation
// term beside every running sum; format.AccumulationPlain keeps bare sums and
// halves the state size.
func WithAccumulation(t format.AccumulationType) StateOption {
	return options.New(func(cfg *StateConfig) error {
		switch t {
		case format.AccumulationPlain, format.AccumulationCompensated:
			cfg.Accumulation = t
			return nil
		default:
			return fmt.Errorf("%w: unknown accumulation type %d", errs.ErrInvalidValue, t)
		}
	})
}

// SummaryConfig holds the configuration of Summarize.
type SummaryConfig struct {
	// Allocator provides scratch buffers. When nil, Summarize opens a
	// call-scoped arena and closes it before returning.
	Allocator alloc.Allocator
	// RankTolerance is the relative eigenvalue cutoff for the pseudo-inverse.
	RankTolerance float64
}

// SummaryOption is a functional option for SummaryConfig.
type SummaryOption = options.Option[*SummaryConfig]

// WithScratchAllocator makes Summarize draw its scratch from a.
func WithScratchAllocator(a alloc.Allocator) SummaryOption {
	return options.NoError(func(cfg *SummaryConfig) {
		cfg.Allocator = a
	})
}

// WithRankTolerance sets the relative eigenvalue cutoff below which X'X is
// treated as singular along that direction. The default is
// linalg.DefaultRankTolerance.
func WithRankTolerance(rtol float64) SummaryOption {
	return options.New(func(cfg *SummaryConfig) error {
		if !linalg.IsFinite(rtol) || rtol <= 0 || rtol >= 1 {
			return fmt.Errorf("%w: rank tolerance %v must be in (0, 1)", errs.ErrInvalidValue, rtol)
		}
		cfg.RankTolerance = rtol

		return nil
	})
}

func accumulationOf(compensated bool) format.AccumulationType {
	if compensated {
		return format.AccumulationCompensated
	}

	return format.AccumulationPlain
}
