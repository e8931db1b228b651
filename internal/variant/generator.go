package variant

// Generator produces variant lists. NewID supplies ids for combinations seen for the
// first time; a nil NewID falls back to the package NewID.
type Generator struct {
	NewID func() string
}

// Generate returns one variant per combination of option values using the default
// id source. See Generator.Generate.
func Generate(options []Option, existing []Variant, defaults Defaults) []Variant {
	return Generator{}.Generate(options, existing, defaults)
}

// Generate returns the Cartesian product of the option values as variants, in
// lexicographic order with the last option varying fastest. Options and values are
// combined in the order given; callers pass them rank-sorted (see SortByRank).
//
// Each combination is looked up in existing by CombinationKey. A match keeps its id,
// price, inventory quantity and image while taking the freshly computed option values.
// Combinations without a match get a new id, the defaults and no image.
//
// An option without values yields no combinations, so the whole result is empty.
func (g Generator) Generate(options []Option, existing []Variant, defaults Defaults) []Variant {
	if len(options) == 0 {
		return []Variant{}
	}

	newID := g.NewID
	if newID == nil {
		newID = NewID
	}

	index := indexByCombination(existing)
	combos := combinations(options)

	out := make([]Variant, 0, len(combos))
	for _, combo := range combos {
		if match, ok := index[CombinationKey(combo)]; ok {
			out = append(out, Variant{
				ID:                match.ID,
				Price:             match.Price,
				InventoryQuantity: match.InventoryQuantity,
				Image:             copyImage(match.Image),
				OptionValues:      combo,
			})
			continue
		}
		out = append(out, Variant{
			ID:                newID(),
			Price:             defaults.Price,
			InventoryQuantity: defaults.InventoryQuantity,
			Image:             nil,
			OptionValues:      combo,
		})
	}
	return out
}

// combinations expands options into every selection of one value per option. The first
// option's value is prepended to each combination of the remaining options; with no
// options left there is exactly one, empty, combination.
func combinations(options []Option) [][]OptionValue {
	if len(options) == 0 {
		return [][]OptionValue{{}}
	}

	head := options[0]
	rest := combinations(options[1:])

	out := make([][]OptionValue, 0, len(head.Values)*len(rest))
	for _, v := range head.Values {
		for _, tail := range rest {
			combo := make([]OptionValue, 0, len(tail)+1)
			combo = append(combo, OptionValue{
				ID:       v.ID,
				Value:    v.Value,
				Rank:     v.Rank,
				OptionID: head.ID,
			})
			combo = append(combo, tail...)
			out = append(out, combo)
		}
	}
	return out
}

// indexByCombination maps combination keys to existing variants. The first variant
// wins when several share a key.
func indexByCombination(existing []Variant) map[string]Variant {
	index := make(map[string]Variant, len(existing))
	for _, v := range existing {
		key := CombinationKey(v.OptionValues)
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = v
	}
	return index
}

func copyImage(img *string) *string {
	if img == nil {
		return nil
	}
	s := *img
	return &s
}
