package primitives

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"
)

const (
	minLetter  = 'a'
	maxLetter  = 'z'
	numLetters = maxLetter - minLetter + 1
)

// FullMask has every letter from a to z set.
const FullMask LetterMask = 1<<numLetters - 1

// LetterMask efficiently represents the set of distinct letters in a word.
//
// Bit i is set iff rune('a'+i) occurs at least once. Letter counts and order are ignored.
type LetterMask uint32

// Bit returns the mask holding only r, or 0 if r is not a lowercase ASCII letter.
func Bit(r rune) LetterMask {
	if r < minLetter || r > maxLetter {
		return 0
	}
	return 1 << (r - minLetter)
}

// MakeLetterMask returns the mask of all letters in word.
func MakeLetterMask(word string) (LetterMask, error) {
	var m LetterMask
	for _, r := range word {
		if err := m.Add(r); err != nil {
			return 0, fmt.Errorf("word %q: %w", word, err)
		}
	}
	return m, nil
}

// Add adds a letter to the mask.
func (m *LetterMask) Add(r rune) error {
	b := Bit(r)
	if b == 0 {
		return fmt.Errorf("character %q is out of range", r)
	}
	*m |= b
	return nil
}

// Contains checks if a letter is in the mask.
func (m LetterMask) Contains(r rune) bool {
	b := Bit(r)
	return b != 0 && m&b == b
}

// Count returns the number of distinct letters in the mask.
func (m LetterMask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// IsSubsetOf reports whether every letter of m is also in other.
func (m LetterMask) IsSubsetOf(other LetterMask) bool {
	return m&other == m
}

// Letters returns the letters of the mask in alphabetical order.
func (m LetterMask) Letters() []rune {
	letters := make([]rune, 0, m.Count())
	for rest := uint32(m); rest != 0; rest &= rest - 1 {
		letters = append(letters, minLetter+rune(bits.TrailingZeros32(rest)))
	}
	return letters
}

func (m LetterMask) String() string {
	var sb strings.Builder
	for _, r := range m.Letters() {
		sb.WriteRune(r)
	}
	return sb.String()
}

// Submasks yields every non-empty subset of m exactly once, starting with m itself.
//
// It uses the standard (sub-1)&m walk, so a mask with k bits yields 2^k-1 values
// regardless of which letters are set.
func Submasks(m LetterMask) iter.Seq[LetterMask] {
	return func(yield func(LetterMask) bool) {
		for sub := m; sub != 0; sub = (sub - 1) & m {
			if !yield(sub) {
				return
			}
		}
	}
}
