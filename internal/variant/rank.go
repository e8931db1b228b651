package variant

import (
	"sort"
	"strings"
)

// SortByRank returns a copy of options ordered by rank, with each option's values
// ordered by rank. Ties keep their input order.
func SortByRank(options []Option) []Option {
	out := cloneOptions(options)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	for i := range out {
		vals := out[i].Values
		sort.SliceStable(vals, func(a, b int) bool { return vals[a].Rank < vals[b].Rank })
	}
	return out
}

// Rerank sorts options like SortByRank, then renumbers option and value ranks 1..n and
// sets every value's OptionID to its owning option.
func Rerank(options []Option) []Option {
	out := SortByRank(options)
	for i := range out {
		out[i].Rank = i + 1
		for j := range out[i].Values {
			out[i].Values[j].Rank = j + 1
			out[i].Values[j].OptionID = out[i].ID
		}
	}
	return out
}

// AssignIDs returns a copy of options where blank option and value ids are filled from
// the given sources. Nil sources default to NewOptionID and NewOptionValueID.
func AssignIDs(options []Option, newOptionID, newValueID func() string) []Option {
	if newOptionID == nil {
		newOptionID = NewOptionID
	}
	if newValueID == nil {
		newValueID = NewOptionValueID
	}
	out := cloneOptions(options)
	for i := range out {
		if strings.TrimSpace(out[i].ID) == "" {
			out[i].ID = newOptionID()
		}
		for j := range out[i].Values {
			if strings.TrimSpace(out[i].Values[j].ID) == "" {
				out[i].Values[j].ID = newValueID()
			}
		}
	}
	return out
}

func cloneOptions(options []Option) []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		out[i] = o
		out[i].Values = append([]OptionValue(nil), o.Values...)
	}
	return out
}

// SortVariants orders variants the way Generate emits them for rank-normalized options:
// by the ranks of their option values, compared left to right. Ties keep input order.
func SortVariants(variants []Variant) {
	sort.SliceStable(variants, func(i, j int) bool {
		a, b := variants[i].OptionValues, variants[j].OptionValues
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k].Rank != b[k].Rank {
				return a[k].Rank < b[k].Rank
			}
		}
		return len(a) < len(b)
	})
}
