// Package parser turns a free-text query into the normalized terms the
// matcher places in document order.
package parser

import (
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/tokenizer"
)

// QueryPlan is a parsed query.
type QueryPlan struct {
	Terms    []string
	Locale   string
	RawQuery string
}

// Parse splits query on the tokenizer's delimiters, drops words rejected by
// a, and normalizes the rest. Words that normalize to nothing are dropped so
// query terms line up with indexed words. A nil analyzer uses the default
// pipeline.
func Parse(query, locale string, a analyzer.Analyzer) *QueryPlan {
	if a == nil {
		a = analyzer.New()
	}
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		Locale:   locale,
		RawQuery: query,
	}
	for tok := range tokenizer.Tokenize(query) {
		if !a.Keep(tok.Word, locale) {
			continue
		}
		if term := a.Normalize(tok.Word, locale); term != "" {
			plan.Terms = append(plan.Terms, term)
		}
	}
	return plan
}

// Empty reports whether the query has nothing left to match.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
