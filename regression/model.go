package regression

import "fmt"

// Model is a fitted single-predictor model.
type Model struct {
	// Type is the model type.
	Type ModelType
	// Coefficients are in formula order, already transformed back from log space.
	Coefficients []float64
	// RSquared is the coefficient of determination on the fitted scale.
	RSquared float64
	// RMSE is sqrt(RSS/n) on the fitted scale.
	RMSE float64
	// Formula is a human-readable representation of the model.
	Formula string
	// Estimator evaluates the model.
	Estimator Estimator
	// Summary is the underlying OLS summary of the expanded design.
	Summary *Summary
}

// String returns a one-line description of the model.
func (m *Model) String() string {
	return fmt.Sprintf("Model{Type: %s, R²: %.4f, RMSE: %.4f, Formula: %s}",
		m.Type, m.RSquared, m.RMSE, m.Formula)
}

// Result is the outcome of Analyze.
type Result struct {
	// BestFit is the model with the highest R².
	BestFit *Model
	// AllModels contains every fitted model ranked by R², best first.
	// Models with an undefined R² come last.
	AllModels []*Model
	// Skipped records the models that could not be fitted and why.
	Skipped map[ModelType]error
}

// String returns a one-line description of the result.
func (r *Result) String() string {
	if r.BestFit == nil {
		return "Result{BestFit: nil}"
	}

	return fmt.Sprintf("Result{BestFit: %s, TotalModels: %d}", r.BestFit, len(r.AllModels))
}
