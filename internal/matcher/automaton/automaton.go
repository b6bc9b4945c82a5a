// Package automaton simulates a bounded Damerau-Levenshtein automaton over a
// fixed pattern word. A candidate word is consumed one rune at a time and the
// state tracks every pattern position reachable within the error budget,
// together with the cheapest edit distance to reach it.
package automaton

import "math"

// Frontier is the set of reachable pattern positions, in ascending order,
// with the edit distance of each. Costs never exceed the automaton budget.
type Frontier struct {
	Positions []int
	Costs     []int
}

// Len returns the number of reachable positions.
func (f Frontier) Len() int {
	return len(f.Positions)
}

// State is the automaton state after consuming a prefix of a candidate. It
// keeps the frontier from one step back and the last consumed rune so the
// transposition rule can look two steps into the past.
type State struct {
	Current  Frontier
	Previous Frontier
	Last     rune
	HasLast  bool
}

// Automaton matches candidates against pattern with at most k edits.
type Automaton struct {
	pattern []rune
	word    string
	k       int
}

// Budget returns the edit budget for a term of length runes under a
// similarity threshold: round((1 - threshold) * length).
func Budget(threshold float64, length int) int {
	return int(math.Round((1 - threshold) * float64(length)))
}

// New builds an automaton for word. k is clamped to [0, len(word)].
func New(word string, k int) *Automaton {
	pattern := []rune(word)
	k = max(0, min(k, len(pattern)))
	return &Automaton{pattern: pattern, word: word, k: k}
}

// K returns the effective error budget.
func (a *Automaton) K() int {
	return a.k
}

// Initial seeds positions 0..k with cost equal to the position, allowing up
// to k pattern characters to be skipped before the first consumed rune.
func (a *Automaton) Initial() State {
	f := Frontier{
		Positions: make([]int, a.k+1),
		Costs:     make([]int, a.k+1),
	}
	for i := 0; i <= a.k; i++ {
		f.Positions[i] = i
		f.Costs[i] = i
	}
	return State{Current: f}
}

// Transition consumes c and returns the next state. The input state is not
// modified.
func (a *Automaton) Transition(s State, c rune) State {
	n := len(a.pattern)
	dead := a.k + 1
	cur := a.dense(s.Current)
	back := a.dense(s.Previous)
	next := make([]int, n+1)

	f := Frontier{
		Positions: make([]int, 0, len(s.Current.Positions)+1),
		Costs:     make([]int, 0, len(s.Current.Positions)+1),
	}
	for p := 0; p <= n; p++ {
		v := dead
		if cur[p] < dead {
			// insertion: consume c without advancing in the pattern
			v = cur[p] + 1
		}
		if p > 0 {
			if cur[p-1] < dead {
				d := 1
				if a.pattern[p-1] == c {
					d = 0
				}
				v = min(v, cur[p-1]+d)
			}
			if next[p-1] < dead {
				// deletion: skip pattern[p-1]
				v = min(v, next[p-1]+1)
			}
			if p > 1 && s.HasLast && a.pattern[p-2] == c && a.pattern[p-1] == s.Last && back[p-2] < dead {
				v = min(v, back[p-2]+1)
			}
		}
		if v > a.k {
			v = dead
		} else {
			f.Positions = append(f.Positions, p)
			f.Costs = append(f.Costs, v)
		}
		next[p] = v
	}
	return State{
		Current:  f,
		Previous: s.Current,
		Last:     c,
		HasLast:  true,
	}
}

// Terminal reports whether the whole pattern has been aligned.
func (a *Automaton) Terminal(s State) bool {
	m := len(s.Current.Positions)
	return m > 0 && s.Current.Positions[m-1] == len(a.pattern)
}

// Match returns the similarity of candidate to the pattern in [0, 1]: one
// minus the edit distance divided by the pattern length, or 0 when the
// distance exceeds the budget.
func (a *Automaton) Match(candidate string) float64 {
	if candidate == a.word {
		return 1
	}
	n := len(a.pattern)
	if n == 0 {
		return 0
	}
	s := a.Initial()
	for _, c := range candidate {
		s = a.Transition(s, c)
		if s.Current.Len() == 0 {
			return 0
		}
	}
	if !a.Terminal(s) {
		return 0
	}
	cost := s.Current.Costs[len(s.Current.Costs)-1]
	return 1 - float64(cost)/float64(n)
}

// dense expands f into a slice indexed by pattern position, with k+1 marking
// unreachable positions.
func (a *Automaton) dense(f Frontier) []int {
	out := make([]int, len(a.pattern)+1)
	for i := range out {
		out[i] = a.k + 1
	}
	for i, p := range f.Positions {
		out[p] = f.Costs[i]
	}
	return out
}
