package searcher

import (
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/config"
)

const (
	DefaultSimilarity = 0.6
	defaultWorkers    = 8
)

// Options configures an Engine.
type Options struct {
	// Similarity is the minimum word similarity in [0, 1] for a fuzzy match.
	Similarity float64
	// NGramSize is the n-gram length used for indexing and candidate lookup.
	NGramSize int
	// MatchPrefix is accepted for compatibility and has no effect yet.
	MatchPrefix bool
	// Workers bounds how many documents are matched in parallel.
	Workers int
	// MaxDocuments caps the documents accepted by one Search call. Zero
	// means no cap.
	MaxDocuments int
	// DefaultLocale is used when a query carries no locale.
	DefaultLocale string
	// Analyzer filters and normalizes words. Nil uses analyzer.New().
	Analyzer analyzer.Analyzer
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Similarity: DefaultSimilarity,
		NGramSize:  index.DefaultNGramSize,
		Workers:    defaultWorkers,
	}
}

// OptionsFromConfig maps the search section of the service configuration to
// engine options, assembling the analyzer from the stop word and stemming
// switches.
func OptionsFromConfig(cfg config.SearchConfig) Options {
	var opts []analyzer.Option
	if cfg.StopWords {
		opts = append(opts, analyzer.WithFilter(analyzer.StopWords))
	}
	if cfg.Stemming {
		opts = append(opts, analyzer.WithNormalizer(analyzer.Stemmer(analyzer.Normalize)))
	}
	return Options{
		Similarity:    cfg.Similarity,
		NGramSize:     cfg.NGramSize,
		MatchPrefix:   cfg.MatchPrefix,
		Workers:       cfg.Workers,
		MaxDocuments:  cfg.MaxDocuments,
		DefaultLocale: cfg.DefaultLocale,
		Analyzer:      analyzer.New(opts...),
	}
}

// QueryOptions are the per-call switches of a search.
type QueryOptions struct {
	Exact       bool   `json:"exact"`
	Consecutive bool   `json:"consecutive"`
	Locale      string `json:"locale,omitempty"`
	// Limit caps the number of results. Zero returns all of them.
	Limit int `json:"limit,omitempty"`
}
