package searcher

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/matcher"
)

func TestHighlight(t *testing.T) {
	text := "the quick brown fox"
	tests := []struct {
		name  string
		marks []matcher.Mark
		want  string
	}{
		{"none", nil, text},
		{"two marks", []matcher.Mark{{Offset: 4, Length: 5}, {Offset: 16, Length: 3}}, "the [quick] brown [fox]"},
		{"unordered marks", []matcher.Mark{{Offset: 16, Length: 3}, {Offset: 0, Length: 3}}, "[the] quick brown [fox]"},
		{"out of range", []matcher.Mark{{Offset: 16, Length: 10}}, text},
		{"negative offset", []matcher.Mark{{Offset: -1, Length: 2}}, text},
		{"overlap keeps the rightmost", []matcher.Mark{{Offset: 4, Length: 8}, {Offset: 10, Length: 5}}, "the quick [brown] fox"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(text, tt.marks, "[", "]"); got != tt.want {
				t.Fatalf("Highlight = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHighlightMultibyte(t *testing.T) {
	text := "café über"
	e := newEngine(t, nil)
	results, err := e.SearchText(t.Context(), text, "uber", QueryOptions{})
	if err != nil || len(results) != 1 {
		t.Fatalf("SearchText = %v, %v", results, err)
	}
	if got, want := Highlight(text, results[0].Marks, "<", ">"), "café <über>"; got != want {
		t.Fatalf("Highlight = %q, want %q", got, want)
	}
}
