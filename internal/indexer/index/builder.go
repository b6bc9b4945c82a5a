package index

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
)

// DefaultNGramSize is the n-gram length used when none is configured.
const DefaultNGramSize = 2

// Builder turns document text into an Index.
type Builder struct {
	ngramSize int
	analyzer  analyzer.Analyzer
}

// NewBuilder validates the n-gram size and returns a Builder. A nil analyzer
// selects analyzer.New().
func NewBuilder(ngramSize int, a analyzer.Analyzer) (*Builder, error) {
	if ngramSize < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, http.StatusBadRequest,
			"n-gram size must be at least 1, got %d", ngramSize)
	}
	if a == nil {
		a = analyzer.New()
	}
	return &Builder{ngramSize: ngramSize, analyzer: a}, nil
}

// NGramSize returns the configured n-gram length.
func (b *Builder) NGramSize() int {
	return b.ngramSize
}

// Build indexes text. Orders are assigned after filtering, so dropped words
// leave no gap. Building the same text twice yields identical indexes.
func (b *Builder) Build(text, locale string) Index {
	idx := make(Index)
	order := 0
	for tok := range tokenizer.Tokenize(text) {
		if !b.analyzer.Keep(tok.Word, locale) {
			continue
		}
		word := b.analyzer.Normalize(tok.Word, locale)
		if word == "" {
			continue
		}
		p := Posting{
			Order:  order,
			Word:   word,
			Offset: tok.Offset,
			Length: tok.Length,
		}
		for _, key := range NGrams(word, b.ngramSize) {
			idx[key] = append(idx[key], p)
		}
		order++
	}
	return idx
}
