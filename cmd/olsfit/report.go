package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/arloliu/olsagg/regression"
)

// printSummary writes a coefficient table followed by the fit statistics.
func printSummary(w io.Writer, sum *regression.Summary, names []string, level float64) error {
	var intervals [][2]float64
	if level > 0 && sum.DF > 0 {
		ci, err := sum.ConfidenceIntervals(level)
		if err != nil {
			return err
		}
		intervals = ci
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := "term\tcoef\tstd err\tt\tp\t"
	if intervals != nil {
		header += "[" + num((1-level)/2) + "\t" + num(1-(1-level)/2) + "]\t"
	}
	fmt.Fprintln(tw, header)

	for i := range sum.P {
		name := "x" + strconv.Itoa(i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t", name,
			num(sum.Coefficients[i]), num(at(sum.StdErrors, i)),
			num(at(sum.TStatistics, i)), num(at(sum.PValues, i)))
		if intervals != nil {
			fmt.Fprintf(tw, "%s\t%s\t", num(intervals[i][0]), num(intervals[i][1]))
		}
		if !sum.Identifiable[i] {
			fmt.Fprint(tw, "not identifiable\t")
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nobservations: %d  predictors: %d  rank: %d  df: %d\n", sum.N, sum.P, sum.Rank, sum.DF)
	fmt.Fprintf(w, "R²: %s  adjusted R²: %s  residual variance: %s\n",
		num(sum.RSquared), num(sum.AdjustedRSquared), num(sum.ResidualVariance))
	fmt.Fprintf(w, "condition: %s\n", sum.Condition)

	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// at returns v[i], or NaN when the statistic was not computed (df <= 0).
func at(v []float64, i int) float64 {
	if i >= len(v) {
		return math.NaN()
	}

	return v[i]
}
