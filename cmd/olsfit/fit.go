package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/arloliu/olsagg/aggregate"
	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/regression"
	"github.com/arloliu/olsagg/source"
)

func newFitCmd(a *app) *cobra.Command {
	var (
		sqlitePath string
		query      string
		flags      csvFlags
	)

	cmd := &cobra.Command{
		Use:   "fit [csv files...]",
		Short: "Fit a linear model over CSV files or a SQLite query",
		Long: `Each CSV file is one partition. With --partitions N the rows of all files
are re-split into N partitions by a hash of their predictor values.

With --sqlite the first column of the query result is the response and the
remaining columns are predictors, taken as is.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, &a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := a.runContext(cmd)
			defer cancel()

			aggOpts, err := a.aggregateOptions()
			if err != nil {
				return err
			}

			var parts []aggregate.Partition
			switch {
			case sqlitePath != "":
				if query == "" {
					return errors.New("--query is required with --sqlite")
				}
				db, err := sql.Open("sqlite", sqlitePath)
				if err != nil {
					return fmt.Errorf("open %s: %w", sqlitePath, err)
				}
				defer db.Close()
				parts = []aggregate.Partition{source.SQL(ctx, db, query)}
			case len(args) > 0:
				opened, closeAll, err := a.openPartitions(args)
				if err != nil {
					return err
				}
				defer closeAll()
				parts = opened
			default:
				return errors.New("no input: pass CSV files or --sqlite with --query")
			}

			sum, err := aggregate.Fit(ctx, parts,
				append(aggOpts, aggregate.WithSummaryOptions(a.summaryOptions()...))...)
			if err != nil {
				return err
			}

			return a.print(cmd, sum)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file")
	cmd.Flags().StringVar(&query, "query", "", "Query returning the response followed by the predictors")
	flags.register(cmd)

	return cmd
}

// report summarizes st and prints the result to the command's output.
func (a *app) report(cmd *cobra.Command, st *regression.State) error {
	sum, err := regression.Summarize(st, a.summaryOptions()...)
	if err != nil {
		return err
	}

	return a.print(cmd, sum)
}

// print writes sum to the command's output. Rank deficiency and degenerate
// fits are logged but do not fail the command.
func (a *app) print(cmd *cobra.Command, sum *regression.Summary) error {
	if sum.Condition != regression.CondOK {
		a.logger.Warn("fit is not fully determined",
			zap.Stringer("condition", sum.Condition),
			zap.Int("rank", sum.Rank),
		)
	}

	level := a.cfg.Confidence
	if sum.DF <= 0 {
		a.logger.Warn("no residual degrees of freedom",
			zap.Error(errs.ErrInsufficientDegreesOfFreedom))
		level = 0
	}

	return printSummary(cmd.OutOrStdout(), sum, a.cfg.Names, level)
}

// csvFlags are the command-line overrides of the CSV and run configuration.
type csvFlags struct {
	response     int
	predictors   []int
	names        []string
	noHeader     bool
	noIntercept  bool
	workers      int
	partitions   int
	accumulation string
	compression  string
}

func (f *csvFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.response, "response", 0, "Zero-based index of the response column")
	fs.IntSliceVar(&f.predictors, "predictors", nil, "Zero-based indices of the predictor columns")
	fs.StringSliceVar(&f.names, "names", nil, "Coefficient labels used in the report")
	fs.BoolVar(&f.noHeader, "no-header", false, "CSV files have no header record")
	fs.BoolVar(&f.noIntercept, "no-intercept", false, "Do not add an intercept column")
	fs.IntVarP(&f.workers, "workers", "w", 0, "Partitions processed concurrently (0 = GOMAXPROCS)")
	fs.IntVarP(&f.partitions, "partitions", "p", 0, "Re-split rows into this many partitions by hash")
	fs.StringVar(&f.accumulation, "accumulation", "", "Summation mode: compensated or plain")
	fs.StringVar(&f.compression, "compression", "", "State compression: none, zstd, s2 or lz4")
}

// apply copies the flags that were set explicitly over cfg.
func (f *csvFlags) apply(cmd *cobra.Command, cfg *Config) {
	fs := cmd.Flags()
	if fs.Changed("response") {
		cfg.CSV.Response = f.response
		cfg.CSV.ResponseName = ""
	}
	if fs.Changed("predictors") {
		cfg.CSV.Predictors = f.predictors
		cfg.CSV.PredictorNames = nil
	}
	if fs.Changed("names") {
		cfg.Names = f.names
	}
	if fs.Changed("no-header") {
		cfg.CSV.Header = !f.noHeader
	}
	if fs.Changed("no-intercept") {
		cfg.CSV.Intercept = !f.noIntercept
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("partitions") {
		cfg.Partitions = f.partitions
	}
	if fs.Changed("accumulation") {
		cfg.Accumulation = f.accumulation
	}
	if fs.Changed("compression") {
		cfg.Compression = f.compression
	}
}
