package primitives

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testDictionary = []string{
	"walk", "walking", "wall", "walling", "lawn", "gnaw", "gnawing", "wing", "wink",
	"link", "linking", "kiln", "lank", "king", "gain", "nail", "wail", "wailing",
	"akin", "align", "laking", "talk", "walks", "wig", "win", "ilk", "aaaa",
	"don't", "walk", "linkwalk",
}

// bruteForce returns what Query must return, computed by scanning every word.
func bruteForce(words []string, minLength int, puzzle, center LetterMask) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range words {
		if len(w) < minLength || seen[w] {
			continue
		}
		m, err := MakeLetterMask(w)
		if err != nil {
			continue
		}
		seen[w] = true
		if m.IsSubsetOf(puzzle) && m&center == center {
			out = append(out, w)
		}
	}
	slices.Sort(out)
	return out
}

func TestBuildIndex(t *testing.T) {
	ix := BuildIndex(testDictionary, 4)

	if ix.MinLength() != 4 {
		t.Errorf("MinLength() = %d, want 4", ix.MinLength())
	}
	// 30 entries, minus wig/win/ilk (too short), the repeated "walk", and "don't".
	if ix.Len() != 25 {
		t.Errorf("Len() = %d, want 25", ix.Len())
	}
	if ix.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", ix.Skipped())
	}

	walk, _ := MakeLetterMask("walk")
	if diff := cmp.Diff([]string{"walk"}, ix.Bucket(walk)); diff != "" {
		t.Errorf("Bucket(walk) mismatch (-want +got):\n%s", diff)
	}

	gnaw, _ := MakeLetterMask("gnaw")
	if diff := cmp.Diff([]string{"gnaw"}, ix.Bucket(gnaw)); diff != "" {
		t.Errorf("Bucket(gnaw) mismatch (-want +got):\n%s", diff)
	}
	link, _ := MakeLetterMask("link")
	if diff := cmp.Diff([]string{"link", "kiln"}, ix.Bucket(link)); diff != "" {
		t.Errorf("Bucket(link) mismatch (-want +got):\n%s", diff)
	}

	t.Run("bucket copies are independent", func(t *testing.T) {
		b := ix.Bucket(link)
		b[0] = "mutated"
		if ix.Bucket(link)[0] != "link" {
			t.Error("mutating a returned bucket changed the index")
		}
	})
}

func TestWordIndex_Query(t *testing.T) {
	ix := BuildIndex(testDictionary, 4)
	puzzle, _ := MakeLetterMask("walking")

	for _, center := range puzzle.Letters() {
		t.Run(string(center), func(t *testing.T) {
			got := ix.Query(puzzle, Bit(center))

			seen := make(map[string]bool)
			for _, w := range got {
				if seen[w] {
					t.Errorf("duplicate word %q", w)
				}
				seen[w] = true
			}

			slices.Sort(got)
			want := bruteForce(testDictionary, 4, puzzle, Bit(center))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Query mismatch (-want +got):\n%s", diff)
			}
			if n := ix.Count(puzzle, Bit(center)); n != len(want) {
				t.Errorf("Count() = %d, want %d", n, len(want))
			}
		})
	}

	t.Run("center outside the puzzle", func(t *testing.T) {
		if got := ix.Query(puzzle, Bit('t')); len(got) != 0 {
			t.Errorf("Query() = %v, want nothing", got)
		}
	})

	t.Run("empty index", func(t *testing.T) {
		empty := BuildIndex(nil, 4)
		if got := empty.Query(puzzle, Bit('w')); len(got) != 0 {
			t.Errorf("Query() = %v, want nothing", got)
		}
	})
}

func BenchmarkWordIndex_Query(b *testing.B) {
	ix := BuildIndex(testDictionary, 4)
	puzzle, _ := MakeLetterMask("walking")
	b.ReportAllocs()
	for b.Loop() {
		ix.Query(puzzle, Bit('w'))
	}
}
