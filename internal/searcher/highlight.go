package searcher

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/matcher"
)

// Highlight wraps every mark of text in open and close. Marks outside text
// are ignored, and a mark overlapping one further right is skipped.
func Highlight(text string, marks []matcher.Mark, open, close string) string {
	sorted := make([]matcher.Mark, len(marks))
	copy(sorted, marks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset > sorted[j].Offset })

	out := text
	limit := len(text)
	for _, m := range sorted {
		end := m.Offset + m.Length
		if m.Offset < 0 || m.Length <= 0 || end > limit {
			continue
		}
		var b strings.Builder
		b.Grow(len(out) + len(open) + len(close))
		b.WriteString(out[:m.Offset])
		b.WriteString(open)
		b.WriteString(out[m.Offset:end])
		b.WriteString(close)
		b.WriteString(out[end:])
		out = b.String()
		limit = m.Offset
	}
	return out
}
