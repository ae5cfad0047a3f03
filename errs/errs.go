// Package errs defines the sentinel errors shared by every olsagg package.
//
// Errors are always returned wrapped with context, so callers should test them
// with errors.Is:
//
//	if errors.Is(err, errs.ErrDimensionMismatch) {
//	    // reject the partition
//	}
package errs

import "errors"

// Fatal errors: the current aggregate computation must be abandoned.
var (
	// ErrDimensionMismatch is returned when a predictor vector length differs from the
	// state's established width, or when two merged states have different widths.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidValue is returned for non-finite inputs or values outside a model's domain.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInsufficientData is returned when fewer observations than predictors were folded.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInsufficientDegreesOfFreedom is returned when n <= p and a residual variance is required.
	ErrInsufficientDegreesOfFreedom = errors.New("insufficient degrees of freedom")
	// ErrStateConsumed is returned when a state is used after being merged into another state.
	ErrStateConsumed = errors.New("transition state already consumed")
	// ErrOutOfMemory is returned when an allocator cannot satisfy a request within its budget.
	ErrOutOfMemory = errors.New("out of memory")
)

// Recoverable conditions: a best-effort result is still returned.
var (
	// ErrRankDeficient reports that X'X is singular and some coefficients are unidentifiable.
	ErrRankDeficient = errors.New("rank deficient design matrix")
	// ErrDegenerateResult reports a statistic that is undefined for the data, e.g. R² of a constant response.
	ErrDegenerateResult = errors.New("degenerate result")
)

// Wire format errors.
var (
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidHeaderFlags = errors.New("invalid header flags")
	ErrChecksumMismatch   = errors.New("payload checksum mismatch")
	ErrInvalidPayload     = errors.New("invalid state payload")
)
