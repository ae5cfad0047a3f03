package regression

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/olsagg/errs"
)

// Point is one (x, y) observation for single-predictor model selection.
type Point struct {
	X float64
	Y float64
}

// Analyze fits every candidate model to points in a single pass and returns
// them ranked by R².
//
// A model whose domain excludes some point (for example the logarithmic model
// with x <= 0) is skipped and recorded in Result.Skipped rather than failing
// the whole analysis.
//
// Parameters:
//   - points: Observations
//   - models: Candidate models; all model types when empty
//
// Returns:
//   - *Result: Best-fit model and all ranked candidates
//   - error: ErrInsufficientData if points is empty, or the joined reasons when
//     no candidate could be fitted
//
// Example:
//
//	result, err := regression.Analyze(points, regression.ModelTypeLinear, regression.ModelTypePower)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.BestFit.Formula)
//	y := result.BestFit.Estimator.Estimate(42)
func Analyze(points []Point, models ...ModelType) (*Result, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", errs.ErrInsufficientData)
	}
	if len(models) == 0 {
		models = AllModelTypes()
	}

	result := &Result{Skipped: make(map[ModelType]error)}
	states := make([]*BasisState, 0, len(models))
	for _, mt := range models {
		bs, err := NewBasisState(mt)
		if err != nil {
			return nil, err
		}
		states = append(states, bs)
	}

	for _, pt := range points {
		for i, bs := range states {
			if bs == nil {
				continue
			}
			if err := bs.Observe(pt.X, pt.Y); err != nil {
				result.Skipped[bs.Model()] = err
				states[i] = nil
			}
		}
	}

	for _, bs := range states {
		if bs == nil {
			continue
		}
		m, err := bs.Fit()
		if err != nil {
			result.Skipped[bs.Model()] = err
			continue
		}
		result.AllModels = append(result.AllModels, m)
	}

	if len(result.AllModels) == 0 {
		reasons := make([]error, 0, len(result.Skipped))
		for _, mt := range models {
			if err, ok := result.Skipped[mt]; ok {
				reasons = append(reasons, err)
			}
		}

		return nil, fmt.Errorf("no model could be fitted: %w", errors.Join(reasons...))
	}

	slices.SortStableFunc(result.AllModels, compareFit)
	result.BestFit = result.AllModels[0]

	return result, nil
}

// AnalyzeEach runs Analyze on every group separately, which is useful for
// spotting drift between periods or partitions.
func AnalyzeEach(groups [][]Point, models ...ModelType) ([]*Result, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no groups", errs.ErrInsufficientData)
	}

	results := make([]*Result, len(groups))
	for i, g := range groups {
		r, err := Analyze(g, models...)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		results[i] = r
	}

	return results, nil
}

// compareFit orders models by descending R² with NaN last.
func compareFit(a, b *Model) int {
	an, bn := math.IsNaN(a.RSquared), math.IsNaN(b.RSquared)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}

	return cmp.Compare(b.RSquared, a.RSquared)
}
