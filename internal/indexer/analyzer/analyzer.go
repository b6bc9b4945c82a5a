// Package analyzer holds the word-level hooks applied to every token before it
// reaches the index or the query matcher: an optional Filter that can drop a
// word entirely, and a Normalizer that produces the word's canonical form.
package analyzer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Filter reports whether a word should be kept. Dropped words do not consume
// an order slot in the index.
type Filter func(word, locale string) bool

// Normalizer maps a word to its canonical form. It must be referentially
// transparent: index reproducibility depends on it.
type Normalizer func(word, locale string) string

// Analyzer is the capability set the indexer and query parser depend on.
type Analyzer interface {
	Keep(word, locale string) bool
	Normalize(word, locale string) string
}

// Pipeline is the standard Analyzer: an optional chain of filters followed by
// a single normalizer.
type Pipeline struct {
	filters   []Filter
	normalize Normalizer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFilter appends a filter. All filters must keep a word for it to survive.
func WithFilter(f Filter) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.filters = append(p.filters, f)
		}
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.normalize = n
		}
	}
}

// New builds a Pipeline. Without options it keeps every word and applies
// Normalize.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{normalize: Normalize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Keep(word, locale string) bool {
	for _, f := range p.filters {
		if !f(word, locale) {
			return false
		}
	}
	return true
}

func (p *Pipeline) Normalize(word, locale string) string {
	return p.normalize(word, locale)
}

// Normalize lowercases word using the casing rules of locale and folds common
// accented characters to their base letter. Under the "ca" locale the
// Catalan geminate "l·l" is folded to "ll".
func Normalize(word, locale string) string {
	lower := cases.Lower(tag(locale)).String(word)
	return FoldAccents(lower, locale)
}

// FoldAccents applies only the accent-folding table.
func FoldAccents(word, locale string) string {
	if isPrintableASCII(word) {
		return word
	}
	word = norm.NFC.String(word)
	if LanguageOf(locale) == "ca" {
		return catalanFolder.Replace(word)
	}
	return accentFolder.Replace(word)
}

func tag(locale string) language.Tag {
	if locale == "" {
		return language.Und
	}
	t, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return t
}

func isPrintableASCII(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

// LanguageOf returns the base language subtag of locale, e.g. "fr" for
// "fr-CA", or "" when locale is empty or unparsable.
func LanguageOf(locale string) string {
	t := tag(locale)
	if t == language.Und {
		return ""
	}
	base, _ := t.Base()
	return strings.ToLower(base.String())
}
