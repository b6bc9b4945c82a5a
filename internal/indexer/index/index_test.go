package index

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/analyzer"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
)

func TestNGrams(t *testing.T) {
	tests := []struct {
		word string
		n    int
		want []string
	}{
		{"hello", 2, []string{"he", "el", "ll", "lo"}},
		{"hello", 3, []string{"hel", "ell", "llo"}},
		{"aaaa", 2, []string{"aa"}},
		{"abab", 2, []string{"ab", "ba"}},
		{"a", 2, []string{"a"}},
		{"ab", 2, []string{"ab"}},
		{"ab", 1, []string{"a", "b"}},
		{"über", 2, []string{"üb", "be", "er"}},
	}
	for _, tt := range tests {
		if got := NGrams(tt.word, tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("NGrams(%q, %d) = %v, want %v", tt.word, tt.n, got, tt.want)
		}
	}
}

func TestNewBuilderRejectsInvalidSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewBuilder(n, nil)
		if !errors.Is(err, apperrors.ErrInvalidConfig) {
			t.Errorf("NewBuilder(%d) error = %v, want ErrInvalidConfig", n, err)
		}
	}
}

func mustBuilder(t testing.TB, n int, a analyzer.Analyzer) *Builder {
	t.Helper()
	b, err := NewBuilder(n, a)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestBuild(t *testing.T) {
	b := mustBuilder(t, 2, nil)
	idx := b.Build("Hello, World hello", "")

	he := idx["he"]
	want := PostingList{
		{Order: 0, Word: "hello", Offset: 0, Length: 5},
		{Order: 2, Word: "hello", Offset: 13, Length: 5},
	}
	if !reflect.DeepEqual(he, want) {
		t.Fatalf(`idx["he"] = %+v, want %+v`, he, want)
	}
	if got := idx["wo"]; len(got) != 1 || got[0].Order != 1 || got[0].Offset != 7 {
		t.Fatalf(`idx["wo"] = %+v`, got)
	}
	if idx.WordCount() != 3 {
		t.Fatalf("WordCount() = %d, want 3", idx.WordCount())
	}
}

func TestBuildInvariants(t *testing.T) {
	text := "The quick brown fox; the lazy dog. A fox again, and again!"
	b := mustBuilder(t, 2, nil)
	idx := b.Build(text, "en")
	for key, pl := range idx {
		for i, p := range pl {
			if i > 0 && p.Order <= pl[i-1].Order {
				t.Errorf("postings of %q not strictly increasing at %d", key, i)
			}
			if analyzer.Normalize(text[p.Offset:p.Offset+p.Length], "en") != p.Word {
				t.Errorf("posting %+v does not point back at its word", p)
			}
			found := false
			for _, g := range NGrams(p.Word, 2) {
				if g == key {
					found = true
				}
			}
			if !found {
				t.Errorf("key %q is not an n-gram of %q", key, p.Word)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	text := "Fuzzy matching tolerates spelling errors and word reordering."
	b := mustBuilder(t, 3, nil)
	if !reflect.DeepEqual(b.Build(text, ""), b.Build(text, "")) {
		t.Fatal("two builds of the same text differ")
	}
}

func TestBuildOrdersAfterFiltering(t *testing.T) {
	a := analyzer.New(analyzer.WithFilter(analyzer.StopWords))
	b := mustBuilder(t, 2, a)
	idx := b.Build("the cat and the hat", "en")
	if idx.WordCount() != 2 {
		t.Fatalf("WordCount() = %d, want 2", idx.WordCount())
	}
	if got := idx["ha"]; len(got) != 1 || got[0].Order != 1 || got[0].Offset != 16 {
		t.Fatalf(`idx["ha"] = %+v, want order 1 at offset 16`, got)
	}
	if _, ok := idx["th"]; ok {
		t.Fatal("stop word was indexed")
	}
}

func TestBuildSkipsEmptyNormalizedWords(t *testing.T) {
	drop := func(word, _ string) string {
		if word == "skip" {
			return ""
		}
		return word
	}
	b := mustBuilder(t, 2, analyzer.New(analyzer.WithNormalizer(drop)))
	idx := b.Build("keep skip keep", "")
	pl := idx["ke"]
	if len(pl) != 2 || pl[1].Order != 1 {
		t.Fatalf(`idx["ke"] = %+v, want two postings with orders 0 and 1`, pl)
	}
}

func TestBuildEmpty(t *testing.T) {
	b := mustBuilder(t, 2, nil)
	if idx := b.Build("  ...  ", ""); len(idx) != 0 {
		t.Fatalf("expected empty index, got %v", idx)
	}
}

func TestPostingListFrom(t *testing.T) {
	pl := PostingList{{Order: 1}, {Order: 3}, {Order: 5}}
	tests := []struct {
		from, wantLen int
	}{
		{-1, 3}, {0, 3}, {1, 3}, {2, 2}, {5, 1}, {6, 0},
	}
	for _, tt := range tests {
		if got := pl.From(tt.from); len(got) != tt.wantLen {
			t.Errorf("From(%d) has %d postings, want %d", tt.from, len(got), tt.wantLen)
		}
	}
}

func TestEntriesAreSorted(t *testing.T) {
	idx := mustBuilder(t, 2, nil).Build("zebra apple mango", "")
	entries := idx.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key >= entries[i].Key {
			t.Fatalf("entries out of order: %q before %q", entries[i-1].Key, entries[i].Key)
		}
	}
	if len(entries) != len(idx) {
		t.Fatalf("Entries() has %d entries, index has %d keys", len(entries), len(idx))
	}
}

func BenchmarkBuild(b *testing.B) {
	text := ""
	for i := 0; i < 50; i++ {
		text += "Distributed fuzzy search tolerates spelling errors and reorders words. "
	}
	builder := mustBuilder(b, 2, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = builder.Build(text, "en")
	}
}
