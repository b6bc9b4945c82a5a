// Package matcher finds the best ordered assignment of query terms to word
// occurrences in one document's n-gram index.
//
// Terms are matched strictly left to right against increasing document
// order. For each term the posting lists of its n-grams are merged into a
// candidate set; candidates are compared with a bounded Damerau-Levenshtein
// automaton and every accepted candidate recursively tries to place the
// remaining terms after it. The highest scoring complete assignment wins.
package matcher

import (
	"context"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/matcher/automaton"
)

// NoMatchScore is assigned to documents that fail to match so they fall
// below any downstream score threshold.
const NoMatchScore = -2_000_000

// fuzzPenalty weighs (1 - similarity) against word-position drift.
const fuzzPenalty = 10

// Mark is a matched span of the original document text.
type Mark struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Result is the outcome of matching one document. Marks are ordered by term.
type Result struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Marks   []Mark  `json:"marks"`
}

// NoMatch returns the failed-match result.
func NoMatch() Result {
	return Result{Score: NoMatchScore, Marks: []Mark{}}
}

// Options controls a single match.
type Options struct {
	// Exact disables fuzzy comparison: a word that differs from the term has
	// similarity 0, so it only matches when Threshold is 0.
	Exact bool
	// Consecutive requires terms to occupy adjacent word positions.
	Consecutive bool
	// Threshold is the minimum similarity for a word to match a term.
	Threshold float64
	// NGramSize must equal the size the index was built with.
	NGramSize int
}

// Source supplies the posting list of an n-gram key for one document. A nil
// list means the key has no postings.
type Source interface {
	Postings(ctx context.Context, key string) (index.PostingList, error)
}

type indexSource index.Index

// FromIndex adapts an in-memory Index to a Source.
func FromIndex(idx index.Index) Source {
	return indexSource(idx)
}

func (s indexSource) Postings(_ context.Context, key string) (index.PostingList, error) {
	return s[key], nil
}

// Match scores terms against the document behind src. Failing to match is
// reported through Result.Matched and NoMatchScore; an error is returned only
// when src fails.
func Match(ctx context.Context, terms []string, src Source, opts Options) (Result, error) {
	if len(terms) == 0 {
		return NoMatch(), nil
	}
	if opts.NGramSize < 1 {
		opts.NGramSize = index.DefaultNGramSize
	}
	r := newRun(terms, src, opts)
	b, ok, err := r.match(ctx, 0, -1, -1)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return NoMatch(), nil
	}
	return Result{Matched: true, Score: b.score, Marks: b.marks}, nil
}

type branch struct {
	score float64
	marks []Mark
}

type outcome struct {
	branch
	ok bool
}

type memoKey struct {
	term, from, first int
}

type termPlan struct {
	word      string
	length    int
	budget    int
	grams     []string
	automaton *automaton.Automaton
}

// run holds the per-match state. It is owned by a single goroutine.
type run struct {
	terms []termPlan
	src   Source
	opts  Options
	memo  map[memoKey]outcome
}

func newRun(terms []string, src Source, opts Options) *run {
	plans := make([]termPlan, len(terms))
	for i, t := range terms {
		length := utf8.RuneCountInString(t)
		k := automaton.Budget(opts.Threshold, length)
		plans[i] = termPlan{
			word:      t,
			length:    length,
			budget:    k,
			grams:     index.NGrams(t, opts.NGramSize),
			automaton: automaton.New(t, k),
		}
	}
	return &run{
		terms: plans,
		src:   src,
		opts:  opts,
		memo:  make(map[memoKey]outcome),
	}
}

// match places term i at or after document order from. first is the order of
// term 0's match, or -1 before it is placed.
func (r *run) match(ctx context.Context, i, from, first int) (branch, bool, error) {
	if i >= len(r.terms) {
		return branch{}, true, nil
	}
	key := memoKey{term: i, from: from}
	if r.opts.Consecutive {
		key.first = first
	}
	if o, seen := r.memo[key]; seen {
		return o.branch, o.ok, nil
	}
	b, ok, err := r.place(ctx, i, from, first)
	if err != nil {
		return branch{}, false, err
	}
	r.memo[key] = outcome{branch: b, ok: ok}
	return b, ok, nil
}

func (r *run) place(ctx context.Context, i, from, first int) (branch, bool, error) {
	term := r.terms[i]
	candidates, intersections, err := r.candidates(ctx, term, from)
	if err != nil {
		return branch{}, false, err
	}
	if len(candidates) == 0 || term.length-r.opts.NGramSize-intersections > term.budget {
		return branch{}, false, nil
	}

	var best branch
	found := false
	for _, p := range candidates {
		if r.opts.Consecutive && i > 0 && p.Order > first+i {
			break
		}
		sim := r.similarity(term, p.Word)
		if sim < r.opts.Threshold {
			continue
		}
		nextFirst := first
		if i == 0 {
			nextFirst = p.Order
		}
		rest, ok, err := r.match(ctx, i+1, p.Order+1, nextFirst)
		if err != nil {
			return branch{}, false, err
		}
		if !ok {
			continue
		}
		score := float64(from-p.Order) - (1-sim)*fuzzPenalty + rest.score
		if found && score <= best.score {
			continue
		}
		marks := make([]Mark, 0, len(rest.marks)+1)
		marks = append(marks, Mark{Offset: p.Offset, Length: p.Length})
		marks = append(marks, rest.marks...)
		best = branch{score: score, marks: marks}
		found = true
	}
	return best, found, nil
}

func (r *run) similarity(term termPlan, word string) float64 {
	switch {
	case word == term.word:
		return 1
	case r.opts.Exact:
		return 0
	default:
		return term.automaton.Match(word)
	}
}

// candidates merges the posting lists of the term's n-grams, restricted to
// orders >= from. A merged key counts as an intersection when it shares at
// least one order with the keys merged before it.
func (r *run) candidates(ctx context.Context, term termPlan, from int) (index.PostingList, int, error) {
	var merged index.PostingList
	intersections := 0
	for _, g := range term.grams {
		pl, err := r.src.Postings(ctx, g)
		if err != nil {
			return nil, 0, err
		}
		var hit bool
		merged, hit = merge(merged, pl.From(from))
		if hit {
			intersections++
		}
	}
	return merged, intersections, nil
}

// merge unions two order-sorted lists, keeping one posting per order.
func merge(a, b index.PostingList) (index.PostingList, bool) {
	if len(b) == 0 {
		return a, false
	}
	if len(a) == 0 {
		return b, false
	}
	out := make(index.PostingList, 0, len(a)+len(b))
	hit := false
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Order < b[j].Order:
			out = append(out, a[i])
			i++
		case a[i].Order > b[j].Order:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
			hit = true
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out, hit
}
