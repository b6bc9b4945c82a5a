// Package tokenizer splits raw text into words on a fixed delimiter class:
// Unicode whitespace plus a set of ASCII punctuation. Each word keeps its
// byte offset and byte length in the original text so matches can be
// highlighted without re-scanning.
package tokenizer

import (
	"iter"
	"slices"
	"strings"
	"unicode"
)

const punctuation = `.?,;!:()[]@#$%^&*-_+<>=/\"'`

// Token is a single word and its location in the source text.
type Token struct {
	Word   string
	Offset int
	Length int
}

// IsDelimiter reports whether r separates words.
func IsDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(punctuation, r)
}

// Tokenize lazily yields the words of text in order. Delimiters are never
// part of a word and empty runs yield nothing.
func Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		start := -1
		for i, r := range text {
			if !IsDelimiter(r) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if !yield(Token{Word: text[start:i], Offset: start, Length: i - start}) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			yield(Token{Word: text[start:], Offset: start, Length: len(text) - start})
		}
	}
}

// Words collects every token of text.
func Words(text string) []Token {
	return slices.Collect(Tokenize(text))
}
