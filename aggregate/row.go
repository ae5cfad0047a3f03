package aggregate

import (
	"fmt"
	"iter"

	"github.com/arloliu/olsagg/errs"
	"github.com/arloliu/olsagg/internal/hash"
)

// Row is one observation: the response Y and the predictor vector X.
type Row struct {
	Y float64
	X []float64
}

// Partition yields the rows of one partition. A non-nil error aborts the
// partition and, through Reduce, the whole computation.
type Partition = iter.Seq2[Row, error]

// FromRows returns a partition over an in-memory slice.
func FromRows(rows []Row) Partition {
	return func(yield func(Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Route assigns a key to one of n partitions using xxHash64.
// It panics if n is not positive.
func Route(key string, n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("aggregate: Route needs a positive partition count, got %d", n))
	}

	return hash.Bucket(key, n)
}

// Repartition drains src and redistributes its rows over n partitions by the
// routing key of each row. Rows with the same key always land together.
func Repartition(src Partition, n int, key func(Row) string) ([]Partition, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: partition count %d", errs.ErrInvalidValue, n)
	}

	buckets := make([][]Row, n)
	for r, err := range src {
		if err != nil {
			return nil, err
		}
		b := Route(key(r), n)
		buckets[b] = append(buckets[b], r)
	}

	parts := make([]Partition, n)
	for i, rows := range buckets {
		parts[i] = FromRows(rows)
	}

	return parts, nil
}
