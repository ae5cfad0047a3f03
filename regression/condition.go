package regression

import (
	"errors"
	"strings"

	"github.com/arloliu/olsagg/errs"
)

// Condition is a set of recoverable conditions attached to a result.
type Condition uint8

const (
	// CondRankDeficient marks a singular X'X. Some coefficients are not identifiable.
	CondRankDeficient Condition = 1 << iota
	// CondDegenerateResult marks a statistic that is undefined for the data,
	// such as R² of a constant response.
	CondDegenerateResult
)

// CondOK is the empty condition set.
const CondOK Condition = 0

// Has reports whether every flag in f is set in c.
func (c Condition) Has(f Condition) bool {
	return c&f == f
}

// Err converts the condition set into an error joining errs.ErrRankDeficient
// and errs.ErrDegenerateResult as applicable. It returns nil for CondOK.
func (c Condition) Err() error {
	var list []error
	if c.Has(CondRankDeficient) {
		list = append(list, errs.ErrRankDeficient)
	}
	if c.Has(CondDegenerateResult) {
		list = append(list, errs.ErrDegenerateResult)
	}

	return errors.Join(list...)
}

func (c Condition) String() string {
	if c == CondOK {
		return "ok"
	}

	var parts []string
	if c.Has(CondRankDeficient) {
		parts = append(parts, "rank_deficient")
	}
	if c.Has(CondDegenerateResult) {
		parts = append(parts, "degenerate_result")
	}

	return strings.Join(parts, "|")
}
