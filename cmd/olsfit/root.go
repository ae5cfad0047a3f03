package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arloliu/olsagg/aggregate"
	"github.com/arloliu/olsagg/alloc"
	"github.com/arloliu/olsagg/regression"
	"github.com/arloliu/olsagg/source"
	"github.com/arloliu/olsagg/wire"
)

// app carries state shared by all subcommands.
type app struct {
	verbose    bool
	configPath string
	timeout    time.Duration

	logger *zap.Logger
	cfg    Config

	// arena backs every state of a run when memory_limit is set.
	arena *alloc.Arena
}

// newRootCmd builds the command tree. A non-nil logger replaces the
// production logger built from the flags.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:   "olsfit",
		Short: "olsfit - partitioned ordinary least squares",
		Long: `olsfit fits linear models over data that is split across files or machines.

Every partition is reduced to a small sufficient-statistics state. States
merge in any order and are finalised once into coefficients, R², t statistics
and p-values. States can be encoded to files with "state encode" and combined
later with "state merge".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger == nil {
				config := zap.NewProductionConfig()
				if a.verbose {
					config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				logger, err := config.Build()
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				a.logger = logger
			}

			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.arena != nil {
				a.arena.Close()
				a.arena = nil
			}
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Abort after this duration (0 = no limit)")

	root.AddCommand(
		newFitCmd(a),
		newStateCmd(a),
		newAnalyzeCmd(a),
	)

	return root
}

// runContext derives the run context from the command, honoring --timeout.
func (a *app) runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}

	return context.WithCancel(ctx)
}

// stateOptions translates the configuration into state options.
func (a *app) stateOptions() ([]regression.StateOption, error) {
	acc, err := a.cfg.AccumulationType()
	if err != nil {
		return nil, err
	}
	opts := []regression.StateOption{regression.WithAccumulation(acc)}

	if a.cfg.MemoryLimit > 0 {
		if a.arena == nil {
			arena, err := alloc.NewArena(
				alloc.WithScope(alloc.ScopeAggregate),
				alloc.WithByteLimit(a.cfg.MemoryLimit),
			)
			if err != nil {
				return nil, err
			}
			a.arena = arena
		}
		opts = append(opts, regression.WithAllocator(a.arena))
	}

	return opts, nil
}

func (a *app) aggregateOptions() ([]aggregate.Option, error) {
	stateOpts, err := a.stateOptions()
	if err != nil {
		return nil, err
	}
	opts := []aggregate.Option{
		aggregate.WithLogger(a.logger),
		aggregate.WithStateOptions(stateOpts...),
	}
	if a.cfg.Workers > 0 {
		opts = append(opts, aggregate.WithWorkers(a.cfg.Workers))
	}

	return opts, nil
}

func (a *app) summaryOptions() []regression.SummaryOption {
	if a.cfg.RankTolerance > 0 {
		return []regression.SummaryOption{regression.WithRankTolerance(a.cfg.RankTolerance)}
	}

	return nil
}

func (a *app) wireOptions() ([]wire.Option, error) {
	ct, err := a.cfg.CompressionType()
	if err != nil {
		return nil, err
	}

	return []wire.Option{wire.WithCompression(ct)}, nil
}

// openPartitions opens every path as a CSV partition. The returned closer
// closes all files.
func (a *app) openPartitions(paths []string) ([]aggregate.Partition, func(), error) {
	files := make([]*os.File, 0, len(paths))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	parts := make([]aggregate.Partition, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
		parts = append(parts, source.CSV(f, a.cfg.CSV))
		a.logger.Debug("partition opened", zap.String("path", path))
	}

	if a.cfg.Partitions > 0 {
		split, err := aggregate.Repartition(chain(parts), a.cfg.Partitions, rowKey)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		parts = split
	}

	return parts, closeAll, nil
}

// chain concatenates partitions in order.
func chain(parts []aggregate.Partition) aggregate.Partition {
	return func(yield func(aggregate.Row, error) bool) {
		for _, part := range parts {
			for r, err := range part {
				if !yield(r, err) || err != nil {
					return
				}
			}
		}
	}
}

// rowKey routes rows by their predictor vector, so identical design points
// land in the same partition.
func rowKey(r aggregate.Row) string {
	var sb strings.Builder
	for i, v := range r.X {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}

	return sb.String()
}
