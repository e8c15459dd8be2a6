package primitives

import "slices"

// WordIndex groups dictionary words by their exact LetterMask.
//
// A WordIndex is immutable once BuildIndex returns, so it can be shared by any
// number of concurrent readers without locking.
type WordIndex struct {
	minLength int
	buckets   map[LetterMask][]string
	size      int
	skipped   int
}

// BuildIndex indexes every word of at least minLength letters.
//
// Words containing anything other than lowercase ASCII letters cannot be masked and
// are skipped, as are repeated entries. Bucket order follows input order.
func BuildIndex(words []string, minLength int) *WordIndex {
	ix := &WordIndex{
		minLength: minLength,
		buckets:   make(map[LetterMask][]string),
	}

	seen := make(map[string]bool, len(words))
	for _, word := range words {
		if len(word) < minLength {
			continue
		}
		if seen[word] {
			continue
		}
		mask, err := MakeLetterMask(word)
		if err != nil || mask == 0 {
			ix.skipped++
			continue
		}
		seen[word] = true
		ix.buckets[mask] = append(ix.buckets[mask], word)
		ix.size++
	}
	return ix
}

// MinLength returns the shortest word length admitted into the index.
func (ix *WordIndex) MinLength() int {
	return ix.minLength
}

// Len returns the number of indexed words.
func (ix *WordIndex) Len() int {
	return ix.size
}

// NumBuckets returns the number of distinct masks in the index.
func (ix *WordIndex) NumBuckets() int {
	return len(ix.buckets)
}

// Skipped returns how many words were rejected for containing non-letters.
func (ix *WordIndex) Skipped() int {
	return ix.skipped
}

// Bucket returns a copy of the words whose mask is exactly mask.
func (ix *WordIndex) Bucket(mask LetterMask) []string {
	return slices.Clone(ix.buckets[mask])
}

// Query returns every indexed word whose letters all come from puzzle and which
// contains every letter of center.
//
// Each qualifying submask is visited once and each word lives in exactly one
// bucket, so the result holds no duplicates. The cost is bounded by the number of
// submasks of puzzle, not by the dictionary size.
func (ix *WordIndex) Query(puzzle, center LetterMask) []string {
	var words []string
	for sub := range Submasks(puzzle) {
		if sub&center != center {
			continue
		}
		words = append(words, ix.buckets[sub]...)
	}
	return words
}

// Count returns len(ix.Query(puzzle, center)) without building the result.
func (ix *WordIndex) Count(puzzle, center LetterMask) int {
	n := 0
	for sub := range Submasks(puzzle) {
		if sub&center != center {
			continue
		}
		n += len(ix.buckets[sub])
	}
	return n
}
