package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/olsagg/aggregate"
	"github.com/arloliu/olsagg/errs"
)

// CSVConfig describes how to map CSV records onto rows.
//
// Columns can be selected by index or, when Header is set, by name. Names take
// precedence over indices. When no predictor column is given, every column
// other than the response is a predictor.
type CSVConfig struct {
	// Response is the zero-based index of the response column.
	Response int `yaml:"response"`
	// Predictors are the zero-based indices of the predictor columns.
	Predictors []int `yaml:"predictors"`
	// ResponseName selects the response column by header name.
	ResponseName string `yaml:"response_name"`
	// PredictorNames select the predictor columns by header name.
	PredictorNames []string `yaml:"predictor_names"`
	// Header skips the first record and enables name lookups.
	Header bool `yaml:"header"`
	// Intercept prepends a constant 1 to every predictor vector.
	Intercept bool `yaml:"intercept"`
	// Comma is the field delimiter. Defaults to ','.
	Comma rune `yaml:"comma"`
	// Comment marks lines to ignore when it is the first character.
	Comment rune `yaml:"comment"`
}

// CSV returns a partition reading rows from r.
//
// Fields are parsed with strconv.ParseFloat after trimming spaces. A field that
// does not parse yields an error wrapping errs.ErrInvalidValue with the line number.
func CSV(r io.Reader, cfg CSVConfig) aggregate.Partition {
	return func(yield func(aggregate.Row, error) bool) {
		cr := csv.NewReader(r)
		cr.ReuseRecord = true
		if cfg.Comma != 0 {
			cr.Comma = cfg.Comma
		}
		cr.Comment = cfg.Comment

		var cols *columns
		if cfg.Header {
			header, err := cr.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(aggregate.Row{}, fmt.Errorf("read csv header: %w", err))

				return
			}
			cols, err = resolveColumns(cfg, header)
			if err != nil {
				yield(aggregate.Row{}, err)
				return
			}
		}

		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(aggregate.Row{}, fmt.Errorf("read csv: %w", err))
				return
			}
			line, _ := cr.FieldPos(0)
			if cols == nil {
				if cols, err = resolveColumns(cfg, indexHeader(len(rec))); err != nil {
					yield(aggregate.Row{}, err)
					return
				}
			}

			row, err := cols.row(rec)
			if err != nil {
				if !yield(aggregate.Row{}, fmt.Errorf("line %d: %w", line, err)) {
					return
				}

				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

type columns struct {
	response   int
	predictors []int
	intercept  bool
}

func indexHeader(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = strconv.Itoa(i)
	}

	return h
}

func resolveColumns(cfg CSVConfig, header []string) (*columns, error) {
	lookup := func(name string) (int, error) {
		idx := slices.IndexFunc(header, func(h string) bool { return strings.TrimSpace(h) == name })
		if idx < 0 {
			return 0, fmt.Errorf("%w: no column named %q", errs.ErrDimensionMismatch, name)
		}

		return idx, nil
	}

	c := &columns{response: cfg.Response, predictors: slices.Clone(cfg.Predictors), intercept: cfg.Intercept}
	if cfg.ResponseName != "" {
		if !cfg.Header {
			return nil, fmt.Errorf("%w: column names need a header row", errs.ErrInvalidValue)
		}
		idx, err := lookup(cfg.ResponseName)
		if err != nil {
			return nil, err
		}
		c.response = idx
	}
	if len(cfg.PredictorNames) > 0 {
		if !cfg.Header {
			return nil, fmt.Errorf("%w: column names need a header row", errs.ErrInvalidValue)
		}
		c.predictors = c.predictors[:0]
		for _, name := range cfg.PredictorNames {
			idx, err := lookup(name)
			if err != nil {
				return nil, err
			}
			c.predictors = append(c.predictors, idx)
		}
	}
	if len(c.predictors) == 0 {
		for i := range header {
			if i != c.response {
				c.predictors = append(c.predictors, i)
			}
		}
	}

	width := len(header)
	if c.response < 0 || c.response >= width {
		return nil, fmt.Errorf("%w: response column %d out of range for %d columns", errs.ErrDimensionMismatch, c.response, width)
	}
	for _, p := range c.predictors {
		if p < 0 || p >= width {
			return nil, fmt.Errorf("%w: predictor column %d out of range for %d columns", errs.ErrDimensionMismatch, p, width)
		}
	}
	if len(c.predictors) == 0 && !c.intercept {
		return nil, fmt.Errorf("%w: no predictor columns", errs.ErrDimensionMismatch)
	}

	return c, nil
}

func (c *columns) row(rec []string) (aggregate.Row, error) {
	y, err := parseField(rec, c.response)
	if err != nil {
		return aggregate.Row{}, err
	}

	x := make([]float64, 0, len(c.predictors)+1)
	if c.intercept {
		x = append(x, 1)
	}
	for _, idx := range c.predictors {
		v, err := parseField(rec, idx)
		if err != nil {
			return aggregate.Row{}, err
		}
		x = append(x, v)
	}

	return aggregate.Row{Y: y, X: x}, nil
}

func parseField(rec []string, idx int) (float64, error) {
	if idx >= len(rec) {
		return 0, fmt.Errorf("%w: record has %d fields, need column %d", errs.ErrDimensionMismatch, len(rec), idx)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column %d: %w", errs.ErrInvalidValue, idx, err)
	}

	return v, nil
}
