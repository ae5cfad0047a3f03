package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arloliu/olsagg/aggregate"
	"github.com/arloliu/olsagg/errs"
)

// SQL returns a partition over the result of query.
//
// The first result column is the response and the remaining columns are the
// predictors, so an intercept is written into the query itself:
//
//	part := source.SQL(ctx, db, "SELECT price, 1, sqft, rooms FROM houses WHERE region = ?", region)
//
// NULL values yield an error wrapping errs.ErrInvalidValue. The query runs when
// iteration starts and the rows are closed when it stops.
func SQL(ctx context.Context, db *sql.DB, query string, args ...any) aggregate.Partition {
	return func(yield func(aggregate.Row, error) bool) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(aggregate.Row{}, fmt.Errorf("query: %w", err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(aggregate.Row{}, fmt.Errorf("columns: %w", err))
			return
		}
		if len(cols) < 2 {
			yield(aggregate.Row{}, fmt.Errorf("%w: query returns %d columns, need a response and at least one predictor",
				errs.ErrDimensionMismatch, len(cols)))

			return
		}

		vals := make([]sql.NullFloat64, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}

		n := 0
		for rows.Next() {
			if err := rows.Scan(dest...); err != nil {
				yield(aggregate.Row{}, fmt.Errorf("scan row %d: %w", n, err))
				return
			}

			row, err := toRow(vals, cols)
			if err != nil {
				if !yield(aggregate.Row{}, fmt.Errorf("row %d: %w", n, err)) {
					return
				}
				n++

				continue
			}
			if !yield(row, nil) {
				return
			}
			n++
		}
		if err := rows.Err(); err != nil {
			yield(aggregate.Row{}, fmt.Errorf("iterate rows: %w", err))
		}
	}
}

func toRow(vals []sql.NullFloat64, cols []string) (aggregate.Row, error) {
	for i, v := range vals {
		if !v.Valid {
			return aggregate.Row{}, fmt.Errorf("%w: column %q is NULL", errs.ErrInvalidValue, cols[i])
		}
	}

	x := make([]float64, len(vals)-1)
	for i, v := range vals[1:] {
		x[i] = v.Float64
	}

	return aggregate.Row{Y: vals[0].Float64, X: x}, nil
}
