// Package aggregate is a reference host for the regression engine: it fans
// partitions out to goroutines, accumulates one transition state per
// partition, and merges the partial states as a balanced tree.
//
// The engine itself is single-threaded; all concurrency lives here.
//
//	parts := []aggregate.Partition{
//	    aggregate.FromRows(rowsA),
//	    source.CSV(fileB, cfg),
//	}
//	st, err := aggregate.Reduce(ctx, parts, aggregate.WithWorkers(4), aggregate.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	sum, err := regression.Summarize(st)
//
// Partial states produced elsewhere and shipped with package wire can be
// combined with MergeEncoded.
package aggregate
