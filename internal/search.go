package internal

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-logr/logr"

	"crosswarped.com/bee/pkg/primitives"
)

// DefaultMinWordLength is the shortest word a puzzle accepts.
const DefaultMinWordLength = 4

// DefaultMinWordsRequired is the smallest word list a puzzle may have.
const DefaultMinWordsRequired = 20

type SearchParams struct {
	MinWordsRequired int
	MinWordLength    *int
	Logger           logr.Logger
}

type params struct {
	minWordsRequired int
	minWordLength    int
	log              logr.Logger
}

func asParams(p SearchParams) params {
	pp := params{
		minWordsRequired: p.MinWordsRequired,
		log:              p.Logger,
	}

	if pp.minWordsRequired <= 0 {
		pp.minWordsRequired = DefaultMinWordsRequired
	}

	if p.MinWordLength == nil {
		pp.minWordLength = DefaultMinWordLength
	} else {
		pp.minWordLength = *p.MinWordLength
	}

	if pp.log.GetSink() == nil {
		pp.log = logr.Discard()
	}

	return pp
}

// Selection is a candidate together with a center letter that met the threshold.
type Selection struct {
	Candidate Candidate
	Alphabet  primitives.LetterMask
	Center    rune
	Words     []string
}

// wordsFor queries ix and drops anything shorter than minWordLength. The index
// normally enforces this already; the check matters when it was built with a
// smaller minimum.
func wordsFor(ix *primitives.WordIndex, alphabet primitives.LetterMask, center rune, minWordLength int) []string {
	words := ix.Query(alphabet, primitives.Bit(center))
	if ix.MinLength() >= minWordLength {
		return words
	}
	kept := words[:0]
	for _, w := range words {
		if len(w) >= minWordLength {
			kept = append(kept, w)
		}
	}
	return kept
}

// EvaluateCandidate tries the candidate's letters as center letters in random order
// and returns the first one whose word list reaches p.MinWordsRequired.
//
// The first satisfying center wins, not the one with the largest yield.
func EvaluateCandidate(ix *primitives.WordIndex, c Candidate, rng *rand.Rand, p SearchParams) (Selection, error) {
	pp := asParams(p)

	alphabet, err := c.Alphabet()
	if err != nil {
		return Selection{}, err
	}

	centers := alphabet.Letters()
	rng.Shuffle(len(centers), func(i, j int) {
		centers[i], centers[j] = centers[j], centers[i]
	})

	for _, center := range centers {
		words := wordsFor(ix, alphabet, center, pp.minWordLength)
		if len(words) >= pp.minWordsRequired {
			pp.log.Info("accepted candidate", "candidate", c.Word, "center", string(center), "words", len(words))
			return Selection{
				Candidate: c,
				Alphabet:  alphabet,
				Center:    center,
				Words:     words,
			}, nil
		}
		pp.log.V(1).Info("center below threshold", "candidate", c.Word, "center", string(center), "words", len(words), "need", pp.minWordsRequired)
	}

	return Selection{}, &CandidateError{
		Word: c.Word,
		Err:  fmt.Errorf("%w: no center letter of %s yields %d words", ErrThresholdUnsatisfied, alphabet, pp.minWordsRequired),
	}
}

// PickCandidateAndCenter shuffles a copy of candidates and returns the first
// successful EvaluateCandidate result. Per-candidate failures are logged and skipped;
// only exhausting the pool is an error.
func PickCandidateAndCenter(ix *primitives.WordIndex, candidates []Candidate, rng *rand.Rand, p SearchParams) (Selection, error) {
	pp := asParams(p)

	shuffled := make([]Candidate, len(candidates))
	copy(shuffled, candidates)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, c := range shuffled {
		sel, err := EvaluateCandidate(ix, c, rng, p)
		if err == nil {
			return sel, nil
		}
		pp.log.V(1).Info("skipping candidate", "candidate", c.Word, "reason", err.Error())
	}

	return Selection{}, fmt.Errorf("%w: tried %d candidates, none yielded %d words", ErrNoCandidateSatisfiesThreshold, len(candidates), pp.minWordsRequired)
}
