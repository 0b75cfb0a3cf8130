package script

import (
	"math"
	"strconv"
	"strings"
)

// DefaultTolerance is the per-component probe tolerance.
const DefaultTolerance = 0.01

// Tolerance is the per-component slack of fuzzy comparisons. When Percent
// is set each value is a percentage of the expected value.
type Tolerance struct {
	Values  [4]float64
	Percent bool
}

// DefaultTolerances returns DefaultTolerance for every component.
func DefaultTolerances() Tolerance {
	return Tolerance{Values: [4]float64{DefaultTolerance, DefaultTolerance, DefaultTolerance, DefaultTolerance}}
}

// Equal reports whether observed is within the tolerance of component i of
// expected.
func (t Tolerance) Equal(i int, observed, expected float64) bool {
	slack := t.Values[i%len(t.Values)]
	if t.Percent {
		slack = math.Abs(slack / 100 * expected)
	}
	return math.Abs(observed-expected) <= slack
}

// parseTolerance reads one value for every component or up to four. Either
// all values are percentages written as "N%" or none are.
func parseTolerance(vals []any) (Tolerance, error) {
	tol := DefaultTolerances()
	if len(vals) == 0 {
		return tol, nil
	}
	if len(vals) > len(tol.Values) {
		return tol, invalid("expected at most %d tolerance values, got %d", len(tol.Values), len(vals))
	}
	nums := make([]any, len(vals))
	percents := 0
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			nums[i] = v
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil || !strings.HasSuffix(s, "%") {
			return tol, invalid("bad tolerance %q", s)
		}
		nums[i] = n
		percents++
	}
	if percents != 0 && percents != len(vals) {
		return tol, invalid("either all tolerance values must be a percentage or none")
	}
	tol.Percent = percents > 0
	if err := vector(tol.Values[:], nums, DefaultTolerance); err != nil {
		return tol, err
	}
	for _, v := range tol.Values {
		if v < 0 {
			return tol, invalid("negative tolerance %g", v)
		}
	}
	return tol, nil
}

// Comparison is how probe_buffer compares observed and expected values.
type Comparison int

const (
	// FuzzyEqual compares floats within the tolerance and integers exactly.
	FuzzyEqual Comparison = iota
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

var comparisonNames = [...]string{
	FuzzyEqual:   "~=",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
}

func (c Comparison) String() string { return comparisonNames[c] }

func parseComparison(s string) (Comparison, bool) {
	if s == "" {
		return FuzzyEqual, true
	}
	for c, name := range comparisonNames {
		if name == s {
			return Comparison(c), true
		}
	}
	return 0, false
}

// Compare reports whether observed stands in relation c to expected.
// Component i selects the tolerance of a fuzzy float comparison.
func (c Comparison) Compare(t DataType, tol Tolerance, i int, observed, expected float64) bool {
	switch c {
	case FuzzyEqual:
		if t.IsFloat() {
			return tol.Equal(i, observed, expected)
		}
		return observed == expected
	case Equal:
		return observed == expected
	case NotEqual:
		return observed != expected
	case Less:
		return observed < expected
	case LessEqual:
		return observed <= expected
	case Greater:
		return observed > expected
	default:
		return observed >= expected
	}
}
