package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/olsagg/regression"
	"github.com/arloliu/olsagg/source"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		models   []string
		xCol     int
		yCol     int
		noHeader bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [csv file]",
		Short: "Rank single-predictor curve models by R²",
		Long: `Fits the linear, hyperbolic, logarithmic, power, exponential and polynomial
models of y on x and prints them best first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("models") {
				a.cfg.Models = models
			}
			mts, err := a.cfg.ModelTypes()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			csvCfg := source.CSVConfig{
				Response:   yCol,
				Predictors: []int{xCol},
				Header:     !noHeader,
				Comma:      a.cfg.CSV.Comma,
				Comment:    a.cfg.CSV.Comment,
			}
			var points []regression.Point
			for r, err := range source.CSV(f, csvCfg) {
				if err != nil {
					return err
				}
				points = append(points, regression.Point{X: r.X[0], Y: r.Y})
			}

			res, err := regression.Analyze(points, mts...)
			if err != nil {
				return err
			}
			for mt, skipErr := range res.Skipped {
				a.logger.Debug("model skipped", zap.Stringer("model", mt), zap.Error(skipErr))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "model\tR²\tRMSE\tformula")
			for _, m := range res.AllModels {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Type, num(m.RSquared), num(m.RMSE), m.Formula)
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringSliceVar(&models, "models", nil, "Models to try (default all)")
	cmd.Flags().IntVar(&xCol, "x", 0, "Zero-based index of the x column")
	cmd.Flags().IntVar(&yCol, "y", 1, "Zero-based index of the y column")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "The file has no header record")

	return cmd
}
