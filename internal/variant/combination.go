package variant

import (
	"math"
	"sort"
	"strings"
)

const (
	pairSep  = "\x1f"
	entrySep = "\x1e"
)

// CombinationKey identifies a combination by its set of {optionId, value} pairs.
// Value ids and ranks are not part of the key; editing the value text produces a new key.
func CombinationKey(values []OptionValue) string {
	pairs := make([]string, len(values))
	for i, v := range values {
		pairs[i] = v.OptionID + pairSep + v.Value
	}
	sort.Strings(pairs)
	return strings.Join(pairs, entrySep)
}

// CountCombinations returns the number of variants Generate would produce for options.
// The result saturates at math.MaxInt.
func CountCombinations(options []Option) int {
	if len(options) == 0 {
		return 0
	}
	total := 1
	for _, o := range options {
		n := len(o.Values)
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}
