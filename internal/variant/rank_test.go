package variant

import "testing"

func TestSortByRankDoesNotMutateInput(t *testing.T) {
	opts := []Option{
		{ID: "b", Rank: 2, Values: []OptionValue{{ID: "b2", Rank: 2}, {ID: "b1", Rank: 1}}},
		{ID: "a", Rank: 1, Values: []OptionValue{{ID: "a1", Rank: 1}}},
	}

	got := SortByRank(opts)

	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("options not sorted: %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].Values[0].ID != "b1" {
		t.Fatalf("values not sorted: %+v", got[1].Values)
	}
	if opts[0].ID != "b" || opts[0].Values[0].ID != "b2" {
		t.Fatal("input was mutated")
	}
}

func TestRerankRenumbersContiguously(t *testing.T) {
	opts := []Option{
		{ID: "size", Rank: 7, Values: []OptionValue{{ID: "m", Rank: 10}, {ID: "s", Rank: 3}}},
		{ID: "color", Rank: 3, Values: []OptionValue{{ID: "red", Rank: 5, OptionID: "wrong"}}},
	}

	got := Rerank(opts)

	if got[0].ID != "color" || got[0].Rank != 1 || got[1].Rank != 2 {
		t.Fatalf("unexpected option ranks: %+v", got)
	}
	if got[0].Values[0].OptionID != "color" || got[0].Values[0].Rank != 1 {
		t.Fatalf("value not rebound: %+v", got[0].Values[0])
	}
	if got[1].Values[0].ID != "s" || got[1].Values[0].Rank != 1 || got[1].Values[1].Rank != 2 {
		t.Fatalf("values not renumbered: %+v", got[1].Values)
	}
}

func TestAssignIDsFillsBlanksOnly(t *testing.T) {
	opts := []Option{
		{ID: "", Title: "Color", Values: []OptionValue{{ID: "keep", Value: "Red"}, {ID: " ", Value: "Blue"}}},
		{ID: "opt_x", Title: "Size"},
	}
	n := 0
	next := func() string { n++; return "gen" + string(rune('0'+n)) }

	got := AssignIDs(opts, next, next)

	if got[0].ID != "gen1" {
		t.Errorf("option id: got %q", got[0].ID)
	}
	if got[0].Values[0].ID != "keep" {
		t.Errorf("existing value id replaced: %q", got[0].Values[0].ID)
	}
	if got[0].Values[1].ID != "gen2" {
		t.Errorf("blank value id: got %q", got[0].Values[1].ID)
	}
	if got[1].ID != "opt_x" {
		t.Errorf("existing option id replaced: %q", got[1].ID)
	}
	if opts[0].ID != "" {
		t.Error("input was mutated")
	}
}

func TestSortVariantsRestoresGenerationOrder(t *testing.T) {
	opts := Rerank([]Option{
		{ID: "color", Values: []OptionValue{{ID: "red", Value: "Red"}, {ID: "blue", Value: "Blue"}}},
		{ID: "size", Values: []OptionValue{{ID: "s", Value: "S"}, {ID: "m", Value: "M"}}},
	})
	want := Generator{NewID: seqIDs()}.Generate(opts, nil, Defaults{})

	shuffled := []Variant{want[3], want[1], want[0], want[2]}
	SortVariants(shuffled)

	for i := range want {
		if shuffled[i].ID != want[i].ID {
			t.Fatalf("position %d: got %s, want %s", i, shuffled[i].ID, want[i].ID)
		}
	}
}
