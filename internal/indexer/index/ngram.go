package index

// NGrams returns the distinct overlapping n-grams of word, measured in runes,
// in order of first occurrence. A word shorter than n is its own single
// n-gram.
func NGrams(word string, n int) []string {
	runes := []rune(word)
	count := len(runes) - n + 1
	if count < 1 {
		return []string{word}
	}
	grams := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		g := string(runes[i : i+n])
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		grams = append(grams, g)
	}
	return grams
}
