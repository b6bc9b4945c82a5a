// Package index builds the per-document n-gram index: every normalized word
// is split into overlapping n-grams and a Posting for the word is appended to
// the list of each of its n-grams.
package index

import "sort"

// Posting records one occurrence of a normalized word. Order is the word's
// sequential position among indexed words; Offset and Length locate the
// original, pre-normalization text in bytes.
type Posting struct {
	Order  int    `json:"o"`
	Word   string `json:"w"`
	Offset int    `json:"s"`
	Length int    `json:"l"`
}

// PostingList is sorted by strictly increasing Order.
type PostingList []Posting

// From returns the suffix of the list whose orders are >= order.
func (pl PostingList) From(order int) PostingList {
	i := sort.Search(len(pl), func(i int) bool {
		return pl[i].Order >= order
	})
	return pl[i:]
}

// Index maps an n-gram key to its posting list. An Index is derived from
// exactly one document snapshot and is not modified after Build returns.
type Index map[string]PostingList

// Keys returns the n-gram keys in lexical order.
func (idx Index) Keys() []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WordCount returns the number of indexed words, i.e. one more than the
// highest order present.
func (idx Index) WordCount() int {
	count := 0
	for _, pl := range idx {
		if n := len(pl); n > 0 && pl[n-1].Order+1 > count {
			count = pl[n-1].Order + 1
		}
	}
	return count
}

// TermEntry pairs a key with its postings, used when an Index is written out
// in key order.
type TermEntry struct {
	Key      string
	Postings PostingList
}

// Entries returns the index flattened in key order.
func (idx Index) Entries() []TermEntry {
	keys := idx.Keys()
	entries := make([]TermEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, TermEntry{Key: k, Postings: idx[k]})
	}
	return entries
}
