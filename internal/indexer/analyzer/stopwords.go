package analyzer

import (
	"strings"

	"github.com/kljensen/snowball"
)

var englishStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// StopWords drops common English function words. Words in other locales are
// always kept.
func StopWords(word, locale string) bool {
	if lang := LanguageOf(locale); lang != "" && lang != "en" {
		return true
	}
	_, stop := englishStopWords[strings.ToLower(word)]
	return !stop
}

// snowballLanguages maps base language subtags to the stemmers shipped with
// snowball.
var snowballLanguages = map[string]string{
	"en": "english",
	"es": "spanish",
	"fr": "french",
	"ru": "russian",
	"sv": "swedish",
	"no": "norwegian",
	"nb": "norwegian",
	"hu": "hungarian",
}

// Stemmer wraps base with a snowball stemmer for the locale's language. An
// empty locale stems as English; unsupported languages pass through base
// unchanged.
func Stemmer(base Normalizer) Normalizer {
	if base == nil {
		base = Normalize
	}
	return func(word, locale string) string {
		normalized := base(word, locale)
		lang := LanguageOf(locale)
		if lang == "" {
			lang = "en"
		}
		stemmerLang, ok := snowballLanguages[lang]
		if !ok {
			return normalized
		}
		stemmed, err := snowball.Stem(normalized, stemmerLang, true)
		if err != nil || stemmed == "" {
			return normalized
		}
		return stemmed
	}
}
