package variant

// SyncPlan is the minimal set of writes that turns the stored variants of a product into
// a generated target list.
type SyncPlan struct {
	Insert []Variant
	Update []Variant
	Delete []Variant
}

// Empty reports whether the plan has nothing to write.
func (p SyncPlan) Empty() bool {
	return len(p.Insert) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Plan diffs stored against target by variant id. Target variants unknown to storage are
// inserted, stored variants missing from target are deleted, and variants present in both
// are updated only when a field changed.
func Plan(stored, target []Variant) SyncPlan {
	byID := make(map[string]Variant, len(stored))
	for _, v := range stored {
		byID[v.ID] = v
	}
	inTarget := make(map[string]bool, len(target))

	var plan SyncPlan
	for _, t := range target {
		inTarget[t.ID] = true
		s, ok := byID[t.ID]
		if !ok {
			plan.Insert = append(plan.Insert, t)
			continue
		}
		if !Equal(s, t) {
			plan.Update = append(plan.Update, t)
		}
	}
	for _, s := range stored {
		if !inTarget[s.ID] {
			plan.Delete = append(plan.Delete, s)
		}
	}
	return plan
}

// Equal reports whether two variants carry the same data, including option value order.
func Equal(a, b Variant) bool {
	if a.ID != b.ID || !a.Price.Equal(b.Price) || a.InventoryQuantity != b.InventoryQuantity {
		return false
	}
	if (a.Image == nil) != (b.Image == nil) {
		return false
	}
	if a.Image != nil && *a.Image != *b.Image {
		return false
	}
	if len(a.OptionValues) != len(b.OptionValues) {
		return false
	}
	for i := range a.OptionValues {
		if a.OptionValues[i] != b.OptionValues[i] {
			return false
		}
	}
	return true
}

// OrphanedImages returns images held by deleted variants that no target variant still
// references.
func OrphanedImages(plan SyncPlan, target []Variant) []string {
	used := make(map[string]bool, len(target))
	for _, t := range target {
		if t.Image != nil {
			used[*t.Image] = true
		}
	}
	var out []string
	seen := map[string]bool{}
	for _, d := range plan.Delete {
		if d.Image == nil || used[*d.Image] || seen[*d.Image] {
			continue
		}
		seen[*d.Image] = true
		out = append(out, *d.Image)
	}
	return out
}
