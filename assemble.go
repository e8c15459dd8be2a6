package bee

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"crosswarped.com/bee/internal"
	"crosswarped.com/bee/pkg/primitives"
)

var (
	ErrInvalidLetterCount            = internal.ErrInvalidLetterCount
	ErrThresholdUnsatisfied          = internal.ErrThresholdUnsatisfied
	ErrNoCandidateSatisfiesThreshold = internal.ErrNoCandidateSatisfiesThreshold

	// ErrInvalidCenter reports a center letter outside the puzzle alphabet.
	ErrInvalidCenter = errors.New("invalid center letter")
)

const (
	DefaultMinWordLength    = internal.DefaultMinWordLength
	DefaultMinWordsRequired = internal.DefaultMinWordsRequired
	DefaultHarvestThreshold = internal.DefaultHarvestThreshold
)

type (
	Candidate      = internal.Candidate
	Letters        = internal.Letters
	CandidateError = internal.CandidateError
)

type AssembleParams struct {
	// FrequencyThreshold is the frequency at which a word counts as well established
	// for FilterDerivatives. nil means DefaultFrequencyThreshold.
	FrequencyThreshold *float64
	// MinWordLength is recorded on the puzzle for Check. 0 means DefaultMinWordLength.
	MinWordLength int
	// DropUnknownWords removes words the FrequencyOracle reports as 0.
	DropUnknownWords bool
	// Rule defaults to SimpleAffixRule.
	Rule   DerivativeRule
	Logger logr.Logger
	// Version is copied onto the puzzle.
	Version string
}

// Assemble attaches frequencies and definitions to words, filters derivatives and
// orders the result by frequency (descending), then word.
//
// words are expected to come from a successful search for candidate and center;
// Assemble does not query the index.
func Assemble(candidate Candidate, center rune, words []string, dict DefinitionLookup, freq FrequencyOracle, p AssembleParams) (Puzzle, error) {
	alphabet, err := candidate.Alphabet()
	if err != nil {
		return Puzzle{}, err
	}
	if !alphabet.Contains(center) {
		return Puzzle{}, fmt.Errorf("%w: %q is not one of %s", ErrInvalidCenter, center, alphabet)
	}

	threshold := DefaultFrequencyThreshold
	if p.FrequencyThreshold != nil {
		threshold = *p.FrequencyThreshold
	}
	minLength := p.MinWordLength
	if minLength <= 0 {
		minLength = DefaultMinWordLength
	}
	log := p.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	seen := make(map[string]bool, len(words))
	entries := make([]PuzzleWordEntry, 0, len(words))
	unknown := 0
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true

		f := freq.Frequency(w)
		if p.DropUnknownWords && f == 0 {
			unknown++
			continue
		}
		mask, _ := primitives.MakeLetterMask(w)
		entries = append(entries, PuzzleWordEntry{
			Word:       w,
			Frequency:  f,
			Definition: dict.Definition(w),
			IsPangram:  mask == alphabet,
		})
	}
	if unknown > 0 {
		log.V(1).Info("dropped unknown words", "count", unknown)
	}

	entries, drops := FilterDerivatives(entries, threshold, p.Rule)
	logDrops(log, drops)

	slices.SortFunc(entries, func(a, b PuzzleWordEntry) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return strings.Compare(a.Word, b.Word)
	})

	letters := make([]string, 0, internal.AlphabetSize)
	for _, r := range alphabet.Letters() {
		letters = append(letters, string(r))
	}

	return Puzzle{
		SeedWord:        candidate.Word,
		SeedWordClue:    candidate.Clue,
		DistinctLetters: letters,
		CenterLetter:    string(center),
		TotalWords:      len(entries),
		Words:           entries,
		MinWordLength:   minLength,
		Version:         p.Version,
	}, nil
}
