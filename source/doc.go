// Package source turns tabular inputs into aggregate partitions.
//
// CSV reads delimited text with one response column and any number of
// predictor columns; SQL runs a query whose first column is the response.
// Both stream rows lazily, so a partition never has to fit in memory.
package source
