package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"crosswarped.com/bee/pkg/primitives"
)

// AlphabetSize is the number of distinct letters in every puzzle.
const AlphabetSize = 7

var (
	// ErrInvalidLetterCount reports a candidate that does not reduce to exactly
	// AlphabetSize distinct letters. Retrying the same candidate cannot succeed.
	ErrInvalidLetterCount = errors.New("invalid letter count")

	// ErrThresholdUnsatisfied reports that no center letter of a candidate yields
	// enough words.
	ErrThresholdUnsatisfied = errors.New("threshold unsatisfied")

	// ErrNoCandidateSatisfiesThreshold reports that every candidate was exhausted.
	ErrNoCandidateSatisfiesThreshold = errors.New("no candidate satisfies threshold")
)

// CandidateError ties a per-candidate failure to the candidate's seed word.
type CandidateError struct {
	Word string
	Err  error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate %q: %v", e.Word, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// Letters is a list of single letters. In JSON it may be an array of strings or a
// single string such as "['w', 'a', 'l']", from which every ASCII letter is taken.
type Letters []string

func (l *Letters) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("distinct_letters must be a list or a string: %w", err)
	}
	var letters Letters
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			letters = append(letters, string(unicode.ToLower(r)))
		}
	}
	*l = letters
	return nil
}

// Candidate is a seed word proposed for a puzzle, together with its distinct letters.
type Candidate struct {
	Word            string  `json:"word"`
	DistinctLetters Letters `json:"distinct_letters"`
	Clue            string  `json:"clue,omitempty"`
}

// Alphabet returns the candidate's letters as a mask.
//
// DistinctLetters is used when present, otherwise the letters of Word. Either way the
// result must hold exactly AlphabetSize letters.
func (c Candidate) Alphabet() (primitives.LetterMask, error) {
	var mask primitives.LetterMask
	if len(c.DistinctLetters) == 0 {
		for _, r := range strings.ToLower(strings.TrimSpace(c.Word)) {
			if err := mask.Add(r); err != nil {
				return 0, &CandidateError{Word: c.Word, Err: fmt.Errorf("%w: %v", ErrInvalidLetterCount, err)}
			}
		}
	} else {
		for _, l := range c.DistinctLetters {
			l = strings.ToLower(strings.TrimSpace(l))
			r := []rune(l)
			if len(r) != 1 {
				return 0, &CandidateError{Word: c.Word, Err: fmt.Errorf("%w: %q is not a single letter", ErrInvalidLetterCount, l)}
			}
			if err := mask.Add(r[0]); err != nil {
				return 0, &CandidateError{Word: c.Word, Err: fmt.Errorf("%w: %v", ErrInvalidLetterCount, err)}
			}
		}
	}

	if n := mask.Count(); n != AlphabetSize {
		return 0, &CandidateError{Word: c.Word, Err: fmt.Errorf("%w: got %d distinct letters, want %d", ErrInvalidLetterCount, n, AlphabetSize)}
	}
	return mask, nil
}
