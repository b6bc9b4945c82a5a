package ranker

import (
	"reflect"
	"testing"
)

type scored struct {
	id    string
	score float64
}

func byScore(s scored) float64 { return s.score }

func ids(items []scored) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestRank(t *testing.T) {
	items := []scored{
		{"a", -5},
		{"b", -2_000_000},
		{"c", -1},
		{"d", -5},
		{"e", -1_000_000},
		{"f", -3},
	}
	got := ids(Rank(items, byScore, 0))
	if want := []string{"c", "f", "a", "d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
}

func TestRankLimit(t *testing.T) {
	items := []scored{{"a", -3}, {"b", -1}, {"c", -2}}
	got := ids(Rank(items, byScore, 2))
	if want := []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
	if got := Rank(items, byScore, 10); len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	items := []scored{{"a", -3}, {"b", -1}}
	_ = Rank(items, byScore, 0)
	if items[0].id != "a" || items[1].id != "b" {
		t.Fatalf("input reordered: %v", items)
	}
}

func TestRankEmpty(t *testing.T) {
	got := Rank[scored](nil, byScore, 0)
	if got == nil || len(got) != 0 {
		t.Fatalf("Rank(nil) = %#v, want empty non-nil slice", got)
	}
}
