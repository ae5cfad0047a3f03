// Command olsfit fits ordinary-least-squares models over partitioned CSV or
// SQLite inputs and ships partial aggregation states between machines.
//
// Usage:
//
//	olsfit fit --config fit.yaml part-*.csv
//	olsfit fit --sqlite data.db --query "SELECT y, 1, x FROM obs"
//	olsfit state encode --out part1.state part1.csv
//	olsfit state merge part1.state part2.state
//	olsfit analyze --models linear,power points.csv
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
