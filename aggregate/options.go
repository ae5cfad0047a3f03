package aggregate

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/internal/options"
	"github.com/arloliu/olsagg/regression"
)

// Config holds the settings of Reduce and MergeEncoded.
type Config struct {
	// Workers bounds the number of partitions processed at once.
	Workers int
	// Logger receives progress and failure events. Defaults to a no-op logger.
	Logger *zap.Logger
	// StateOptions configure every partial state.
	StateOptions []regression.StateOption
	// CheckEvery is the number of rows between context checks inside a partition.
	CheckEvery int
	// SummaryOptions configure the final computation of Fit.
	SummaryOptions []regression.SummaryOption
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

func defaultConfig() Config {
	return Config{
		Workers:    runtime.GOMAXPROCS(0),
		Logger:     zap.NewNop(),
		CheckEvery: 1024,
	}
}

// WithWorkers bounds the number of concurrently processed partitions.
func WithWorkers(n int) Option {
	return options.New(func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: worker count %d", errs.ErrInvalidValue, n)
		}
		cfg.Workers = n

		return nil
	})
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return options.NoError(func(cfg *Config) {
		if l == nil {
			l = zap.NewNop()
		}
		cfg.Logger = l
	})
}

// WithStateOptions configures the partial states, e.g. with an allocator.
func WithStateOptions(opts ...regression.StateOption) Option {
	return options.NoError(func(cfg *Config) {
		cfg.StateOptions = append(cfg.StateOptions, opts...)
	})
}

// WithSummaryOptions configures the summary computed by Fit, e.g. with
// regression.WithConfidence or regression.WithRankTolerance. Reduce ignores it.
func WithSummaryOptions(opts ...regression.SummaryOption) Option {
	return options.NoError(func(cfg *Config) {
		cfg.SummaryOptions = append(cfg.SummaryOptions, opts...)
	})
}

// WithCheckEvery sets how many rows are folded between context checks.
func WithCheckEvery(n int) Option {
	return options.New(func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: check interval %d", errs.ErrInvalidValue, n)
		}
		cfg.CheckEvery = n

		return nil
	})
}
