// Package olsagg fits ordinary-least-squares linear models over data that is
// split across partitions, goroutines or machines.
//
// Every partition folds its rows into a regression.State holding the
// sufficient statistics n, Σy, Σy², X'y and the upper triangle of X'X. States
// merge associatively and commutatively, so partial results can be combined
// in any order, shipped between processes in the compact wire format and
// finalised once into coefficients, R², t statistics and p-values.
//
// # Core Features
//
//   - Single-pass, mergeable aggregation with O(p²) state per partition
//   - Neumaier-compensated accumulation, optional plain summation
//   - Rank-deficient designs handled through an eigen-decomposition pseudo-inverse
//   - Concurrent partition reduction with errgroup and structured zap logging
//   - Versioned binary state envelope with optional Zstd, S2 or LZ4 compression
//   - Pluggable buffer allocation with byte-limited arenas
//
// # Basic Usage
//
// Fitting rows held in memory:
//
//	parts := []aggregate.Partition{
//	    aggregate.FromRows([]aggregate.Row{{Y: 2, X: []float64{1, 1}}, {Y: 4, X: []float64{1, 2}}}),
//	    aggregate.FromRows([]aggregate.Row{{Y: 5, X: []float64{1, 3}}, {Y: 4, X: []float64{1, 4}}}),
//	}
//	sum, err := olsagg.Fit(ctx, parts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sum.Coefficients, sum.RSquared)
//
// Shipping a partial state to another process:
//
//	blob, _ := olsagg.Encode(st)
//	// ... on the receiving side
//	merged, _ := olsagg.MergeEncoded(ctx, [][]byte{blob, other})
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the regression,
// aggregate and wire packages for the most common use cases. For fine-grained
// control, use those packages directly.
package olsagg

import (
	"context"

	"github.com/arloliu/olsagg/aggregate"
	"github.com/arloliu/olsagg/format"
	"github.com/arloliu/olsagg/internal/hash"
	"github.com/arloliu/olsagg/regression"
	"github.com/arloliu/olsagg/wire"
)

var defaultStateOptions = []regression.StateOption{
	regression.WithAccumulation(format.AccumulationCompensated),
}

var defaultWireOptions = []wire.Option{
	wire.WithLittleEndian(),
	wire.WithCompression(format.CompressionNone),
}

// NewState creates an empty aggregation state with custom options.
//
// Parameters:
//   - opts: regression.WithAllocator, regression.WithAccumulation
//
// Returns:
//   - *regression.State: The empty state; its width is fixed by the first row
//   - error: An error if an option is invalid
//
// Example:
//
//	st, err := olsagg.NewState(regression.WithAccumulation(format.AccumulationPlain))
func NewState(opts ...regression.StateOption) (*regression.State, error) {
	return regression.NewState(opts...)
}

// NewDefaultState creates an empty state with compensated accumulation on the heap.
//
// This is the recommended constructor for most use cases.
func NewDefaultState() (*regression.State, error) {
	return regression.NewState(defaultStateOptions...)
}

// Fit reduces the partitions concurrently and summarizes the merged state.
//
// A rank-deficient or degenerate fit is not an error: inspect
// Summary.Condition. Fatal conditions such as a width mismatch between rows,
// a non-finite value or fewer rows than predictors are returned as errors.
//
// Parameters:
//   - ctx: Cancels the reduction
//   - partitions: Row sources, see aggregate.FromRows and the source package
//   - opts: aggregate.WithWorkers, aggregate.WithLogger, aggregate.WithStateOptions,
//     aggregate.WithSummaryOptions
//
// Returns:
//   - *regression.Summary: The fitted model
//   - error: The first source, transition or summary error
func Fit(ctx context.Context, partitions []aggregate.Partition, opts ...aggregate.Option) (*regression.Summary, error) {
	return aggregate.Fit(ctx, partitions, opts...)
}

// NewEncoder creates a state encoder with custom options.
//
// Available options:
//   - wire.WithLittleEndian() / wire.WithBigEndian() / wire.WithNativeEndian()
//   - wire.WithCompression(format.CompressionNone|Zstd|S2|LZ4)
func NewEncoder(opts ...wire.Option) (*wire.Encoder, error) {
	return wire.NewEncoder(opts...)
}

// NewDefaultEncoder creates a little-endian, uncompressed state encoder.
func NewDefaultEncoder() (*wire.Encoder, error) {
	return wire.NewEncoder(defaultWireOptions...)
}

// NewDecoder creates a state decoder. Byte order and compression are read
// from each envelope, so the only meaningful option is wire.WithStateOptions.
func NewDecoder(opts ...wire.Option) (*wire.Decoder, error) {
	return wire.NewDecoder(opts...)
}

// Encode serializes st with the default encoder settings.
func Encode(st *regression.State) ([]byte, error) {
	return wire.Marshal(st, defaultWireOptions...)
}

// Decode restores a state from an envelope produced by Encode or any Encoder.
func Decode(data []byte, opts ...regression.StateOption) (*regression.State, error) {
	return wire.Unmarshal(data, wire.WithStateOptions(opts...))
}

// MergeEncoded decodes envelopes concurrently and merges them into one state.
func MergeEncoded(ctx context.Context, blobs [][]byte, opts ...aggregate.Option) (*regression.State, error) {
	return aggregate.MergeEncoded(ctx, blobs, opts...)
}

// KeyID returns the 64-bit xxHash of a routing key.
//
// Two keys with the same KeyID are always routed to the same partition by
// aggregate.Route and aggregate.Repartition.
func KeyID(key string) uint64 {
	return hash.ID(key)
}
