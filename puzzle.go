package bee

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"

	"crosswarped.com/bee/internal"
	"crosswarped.com/bee/pkg/primitives"
)

// PangramBonus is added to the score of a word that uses every puzzle letter.
const PangramBonus = 7

// PuzzleWordEntry is one accepted word of a puzzle.
type PuzzleWordEntry struct {
	Word       string  `json:"word"`
	Frequency  float64 `json:"frequency"`
	Definition string  `json:"definition"`
	IsPangram  bool    `json:"is_pangram"`
}

// Puzzle is a finished puzzle. It is built once by Assemble and never changed.
type Puzzle struct {
	ID              string            `json:"id,omitempty"`
	SeedWord        string            `json:"seed_word"`
	SeedWordClue    string            `json:"seed_word_clue"`
	DistinctLetters []string          `json:"distinct_letters"`
	CenterLetter    string            `json:"center_letter"`
	TotalWords      int               `json:"total_words"`
	Words           []PuzzleWordEntry `json:"words"`
	// MinWordLength is the shortest word the puzzle accepts. 0 means
	// DefaultMinWordLength.
	MinWordLength int `json:"min_word_length,omitempty"`
	// Version fingerprints the word data and settings the puzzle was built from.
	Version string `json:"version,omitempty"`
}

// Alphabet returns the puzzle letters as a mask.
func (p Puzzle) Alphabet() primitives.LetterMask {
	var m primitives.LetterMask
	for _, l := range p.DistinctLetters {
		for _, r := range l {
			_ = m.Add(r)
		}
	}
	return m
}

// Center returns the center letter, or 0 if the puzzle has none.
func (p Puzzle) Center() rune {
	for _, r := range p.CenterLetter {
		return r
	}
	return 0
}

func (p Puzzle) minWordLength() int {
	if p.MinWordLength <= 0 {
		return internal.DefaultMinWordLength
	}
	return p.MinWordLength
}

// Pangrams returns the words that use every puzzle letter, in puzzle order.
func (p Puzzle) Pangrams() []string {
	var out []string
	for _, e := range p.Words {
		if e.IsPangram {
			out = append(out, e.Word)
		}
	}
	return out
}

// WordScore scores a found word: 1 point for a four-letter word, one point per
// letter otherwise, plus PangramBonus for a pangram.
func WordScore(word string, pangram bool) int {
	points := len(word)
	if points == 4 {
		points = 1
	}
	if pangram {
		points += PangramBonus
	}
	return points
}

// MaxScore is the score for finding every word.
func (p Puzzle) MaxScore() int {
	total := 0
	for _, e := range p.Words {
		total += WordScore(e.Word, e.IsPangram)
	}
	return total
}

type CheckReason string

const (
	CheckAccepted       CheckReason = "accepted"
	CheckEmpty          CheckReason = "empty"
	CheckInvalidLetters CheckReason = "invalid-letters"
	CheckMissingCenter  CheckReason = "missing-center"
	CheckTooShort       CheckReason = "too-short"
	CheckNotInList      CheckReason = "not-in-list"
)

// CheckResult is the outcome of guessing a word.
type CheckResult struct {
	Valid     bool             `json:"valid"`
	Reason    CheckReason      `json:"reason"`
	Message   string           `json:"message"`
	IsPangram bool             `json:"is_pangram,omitempty"`
	Points    int              `json:"points,omitempty"`
	Entry     *PuzzleWordEntry `json:"word_data,omitempty"`
}

// Check judges a guessed word against the puzzle.
func (p Puzzle) Check(guess string) CheckResult {
	word := strings.ToLower(strings.TrimSpace(guess))
	if word == "" {
		return CheckResult{Reason: CheckEmpty, Message: "Please enter a word"}
	}

	alphabet := p.Alphabet()
	var invalid []string
	seen := make(map[rune]bool)
	for _, r := range word {
		if !alphabet.Contains(r) && !seen[r] {
			seen[r] = true
			invalid = append(invalid, string(r))
		}
	}
	if len(invalid) > 0 {
		return CheckResult{
			Reason:  CheckInvalidLetters,
			Message: fmt.Sprintf("Word contains invalid letters: %s", strings.Join(invalid, ", ")),
		}
	}

	if center := p.Center(); center != 0 && !strings.ContainsRune(word, center) {
		return CheckResult{
			Reason:  CheckMissingCenter,
			Message: fmt.Sprintf("Word must contain center letter: %s", strings.ToUpper(string(center))),
		}
	}

	if minLength := p.minWordLength(); len(word) < minLength {
		return CheckResult{
			Reason:  CheckTooShort,
			Message: fmt.Sprintf("Word must be at least %d letters", minLength),
		}
	}

	for i := range p.Words {
		e := p.Words[i]
		if e.Word != word {
			continue
		}
		points := WordScore(e.Word, e.IsPangram)
		msg := fmt.Sprintf("Correct! +%d points", points)
		if e.IsPangram {
			msg = fmt.Sprintf("Pangram! +%d points", points)
		}
		return CheckResult{
			Valid:     true,
			Reason:    CheckAccepted,
			Message:   msg,
			IsPangram: e.IsPangram,
			Points:    points,
			Entry:     &e,
		}
	}

	return CheckResult{Reason: CheckNotInList, Message: "Not in word list"}
}

// HintGrid summarizes a puzzle's words without revealing them.
type HintGrid struct {
	// ByLetterAndLength counts words by upper-case first letter, then by length.
	ByLetterAndLength map[string]map[int]int `json:"matrix"`
	// TwoLetterPrefixes counts words by their upper-case first two letters.
	TwoLetterPrefixes map[string]int `json:"two_letter_list"`
}

func (p Puzzle) HintGrid() HintGrid {
	g := HintGrid{
		ByLetterAndLength: make(map[string]map[int]int),
		TwoLetterPrefixes: make(map[string]int),
	}
	for _, e := range p.Words {
		if e.Word == "" {
			continue
		}
		first := strings.ToUpper(e.Word[:1])
		if g.ByLetterAndLength[first] == nil {
			g.ByLetterAndLength[first] = make(map[int]int)
		}
		g.ByLetterAndLength[first][len(e.Word)]++
		if len(e.Word) >= 2 {
			g.TwoLetterPrefixes[strings.ToUpper(e.Word[:2])]++
		}
	}
	return g
}

// Repr renders the puzzle letters with the center letter upper-cased, followed by
// one word per line.
func (p Puzzle) Repr() string {
	var sb strings.Builder
	center := p.Center()
	for _, l := range p.DistinctLetters {
		if strings.ContainsRune(l, center) {
			l = strings.ToUpper(l)
		}
		sb.WriteString(l)
	}
	for _, e := range p.Words {
		sb.WriteByte('\n')
		sb.WriteString(e.Word)
	}
	return sb.String()
}

func (p Puzzle) DebugString() string {
	return pretty.Sprint(p)
}
