// Package regression computes ordinary-least-squares fits from additive
// sufficient statistics, so that a fit over a partitioned dataset can be built
// from independently accumulated partial states.
//
// # Lifecycle
//
// A fit moves through three phases:
//
//  1. Transition: each observation (y, x) is folded into a State. The first
//     observation fixes the predictor width p; every later row must match it.
//  2. Merge: states built over disjoint partitions are combined field by field.
//     Merge is commutative and associative, and an empty state is its identity.
//  3. Final: Summarize computes coefficients, R², standard errors, t-statistics
//     and two-sided p-values from the merged state with one pseudo-inverse of X'X.
//
// The accumulated quantities are n, X'X (packed upper triangle), X'y, y'y and Σy.
// Their size depends only on p, never on the number of rows.
//
// # Basic Usage
//
//	st, err := regression.NewState()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range rows {
//	    if err := st.Transition(row.Y, []float64{1, row.X}); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
//	sum, err := regression.Summarize(st)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sum.Coefficients, sum.RSquared, sum.PValues)
//
// # Conditions and Errors
//
// Fatal problems (dimension mismatch, non-finite input, too few rows) are
// returned as errors wrapping the sentinels in package errs. Two situations
// still produce a result and are reported through Condition instead:
//
//   - CondRankDeficient: X'X is singular. Coefficients are the minimum scaled-norm
//     solution and Summary.Identifiable marks the ones the data cannot determine.
//   - CondDegenerateResult: the response is constant, so R² is NaN.
//
// Hosts that prefer errors can call Condition.Err.
//
// # Model Selection
//
// BasisState and Analyze fit single-predictor models (linear, hyperbolic,
// logarithmic, power, exponential, polynomial) by expanding x into a design
// row, and rank the candidates by R²:
//
//	result, err := regression.Analyze(points)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.BestFit.Formula)
package regression
