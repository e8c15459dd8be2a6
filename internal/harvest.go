package internal

import (
	"math/rand/v2"
	"slices"
	"strings"

	"crosswarped.com/bee/pkg/primitives"
)

// DefaultHarvestThreshold is the frequency a word must exceed to seed a puzzle.
const DefaultHarvestThreshold = 7e-6

// FrequencyOracle reports how common a word is. 0 means the word is not recognized.
type FrequencyOracle interface {
	Frequency(word string) float64
}

// HarvestCandidates returns every word that has exactly AlphabetSize distinct letters
// and a frequency above threshold, sorted by word.
func HarvestCandidates(words []string, freq FrequencyOracle, threshold float64) []Candidate {
	seen := make(map[string]bool)
	var out []Candidate
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if seen[word] {
			continue
		}
		mask, err := primitives.MakeLetterMask(word)
		if err != nil || mask.Count() != AlphabetSize {
			continue
		}
		if freq.Frequency(word) <= threshold {
			continue
		}
		seen[word] = true

		var letters Letters
		for _, r := range mask.Letters() {
			letters = append(letters, string(r))
		}
		out = append(out, Candidate{Word: word, DistinctLetters: letters})
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		return strings.Compare(a.Word, b.Word)
	})
	return out
}

// SampleCandidates returns up to n distinct candidates chosen at random.
func SampleCandidates(rng *rand.Rand, candidates []Candidate, n int) []Candidate {
	n = max(0, min(n, len(candidates)))
	perm := rng.Perm(len(candidates))
	out := make([]Candidate, 0, n)
	for _, i := range perm[:n] {
		out = append(out, candidates[i])
	}
	return out
}
