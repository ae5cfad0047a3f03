package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/regression"
	"github.com/arloliu/olsagg/wire"
)

// Fit reduces the partitions and summarizes the merged state with the
// options given by WithSummaryOptions. The merged state is released before
// Fit returns.
func Fit(ctx context.Context, partitions []Partition, opts ...Option) (*regression.Summary, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	st, err := Reduce(ctx, partitions, opts...)
	if err != nil {
		return nil, err
	}
	defer st.Release()

	return regression.Summarize(st, cfg.SummaryOptions...)
}

// Reduce accumulates every partition into its own state and merges the
// results into one state.
//
// Partitions run concurrently, at most Config.Workers at a time. The first
// error cancels the remaining partitions and is returned wrapped with the
// partition index and row number. With no partitions the result is an empty
// state.
//
// Parameters:
//   - ctx: Cancels the computation
//   - partitions: Row sources, one state each
//   - opts: WithWorkers, WithLogger, WithStateOptions, WithCheckEvery
//
// Returns:
//   - *regression.State: The merged state, owned by the caller
//   - error: The first transition, source or context error
func Reduce(ctx context.Context, partitions []Partition, opts ...Option) (*regression.State, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	log := cfg.Logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int("partitions", len(partitions)),
	)
	start := time.Now()
	log.Debug("reduce started", zap.Int("workers", cfg.Workers))

	states := make([]*regression.State, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, part := range partitions {
		g.Go(func() error {
			st, err := accumulate(gctx, part, &cfg)
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			states[i] = st
			log.Debug("partition accumulated", zap.Int("partition", i), zap.Uint64("rows", st.N()))

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		releaseAll(states)
		log.Warn("reduce failed", zap.Error(err))

		return nil, err
	}

	merged, err := mergeTree(ctx, states, &cfg)
	if err != nil {
		log.Warn("merge failed", zap.Error(err))
		return nil, err
	}
	log.Info("reduce finished",
		zap.Uint64("rows", merged.N()),
		zap.Int("predictors", merged.P()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return merged, nil
}

func accumulate(ctx context.Context, part Partition, cfg *Config) (*regression.State, error) {
	st, err := regression.NewState(cfg.StateOptions...)
	if err != nil {
		return nil, err
	}

	var n int
	for r, err := range part {
		if err != nil {
			st.Release()
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		if n%cfg.CheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				st.Release()
				return nil, err
			}
		}
		if err := st.Transition(r.Y, r.X); err != nil {
			st.Release()
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		n++
	}

	return st, nil
}

// MergeStates merges states pairwise as a balanced tree and returns the root.
// Every input is consumed. With no input the result is an empty state.
func MergeStates(ctx context.Context, states []*regression.State, opts ...Option) (*regression.State, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return mergeTree(ctx, states, &cfg)
}

// mergeTree merges adjacent pairs level by level. Pairs on one level are
// independent and merged concurrently.
func mergeTree(ctx context.Context, states []*regression.State, cfg *Config) (*regression.State, error) {
	if len(states) == 0 {
		return regression.NewState(cfg.StateOptions...)
	}

	level := states
	for len(level) > 1 {
		next := make([]*regression.State, (len(level)+1)/2)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next[i/2] = level[i]
				continue
			}
			left, right := level[i], level[i+1]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := left.Merge(right); err != nil {
					return fmt.Errorf("merge states %d and %d: %w", i, i+1, err)
				}
				next[i/2] = left

				return nil
			})
		}
		if err := g.Wait(); err != nil {
			releaseAll(level)
			return nil, err
		}
		level = next
	}

	return level[0], nil
}

// MergeEncoded decodes wire envelopes concurrently and merges them.
//
// Every envelope must describe the same predictor width; empty states are
// allowed and act as the identity.
func MergeEncoded(ctx context.Context, blobs [][]byte, opts ...Option) (*regression.State, error) {
	cfg := defaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	dec, err := wire.NewDecoder(wire.WithStateOptions(cfg.StateOptions...))
	if err != nil {
		return nil, err
	}

	states := make([]*regression.State, len(blobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, blob := range blobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, err := dec.Decode(blob)
			if err != nil {
				return fmt.Errorf("decode state %d: %w", i, err)
			}
			states[i] = st

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		releaseAll(states)
		cfg.Logger.Warn("decode failed", zap.Error(err))

		return nil, err
	}
	cfg.Logger.Debug("states decoded", zap.Int("states", len(states)))

	return mergeTree(ctx, states, &cfg)
}

func releaseAll(states []*regression.State) {
	for _, st := range states {
		if st != nil {
			st.Release()
		}
	}
}
