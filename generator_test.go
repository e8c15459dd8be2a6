package bee

import (
	"bufio"
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"crosswarped.com/bee/pkg/primitives"
)

func loadWords(t testing.TB) []string {
	file, err := os.Open("testdata/words.txt")
	if err != nil {
		t.Fatalf("failed to open words file: %v", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan words file: %v", err)
	}
	return words
}

// uniformFrequencies gives every word the same, well established frequency.
func uniformFrequencies(words []string) FrequencyTable {
	f := make(FrequencyTable, len(words))
	for _, w := range words {
		f[w] = 1e-5
	}
	return f
}

func newTestGenerator(t testing.TB, minWords int) *Generator {
	words := loadWords(t)
	// Use a fixed seed for reproducibility.
	rng := rand.New(rand.NewPCG(42, 1024))
	return CreateGenerator(NewWordList(words), uniformFrequencies(words), rng, GeneratorParams{
		MinWordsRequired: minWords,
		DropUnknownWords: true,
	})
}

func TestGenerate(t *testing.T) {
	gen := newTestGenerator(t, 5)
	candidates := []Candidate{
		{Word: "jukebox"},
		{Word: "walking", DistinctLetters: Letters{"w", "a", "l", "k", "i", "n", "g"}, Clue: "Moving on foot"},
		{Word: "walk"},
	}

	p, err := gen.Generate(t.Context(), candidates)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if p.SeedWord != "walking" || p.SeedWordClue != "Moving on foot" {
		t.Errorf("seed = %q (%q), want walking", p.SeedWord, p.SeedWordClue)
	}
	if diff := cmp.Diff([]string{"a", "g", "i", "k", "l", "n", "w"}, p.DistinctLetters); diff != "" {
		t.Errorf("DistinctLetters mismatch (-want +got):\n%s", diff)
	}
	if p.TotalWords != len(p.Words) {
		t.Errorf("TotalWords = %d, len(Words) = %d", p.TotalWords, len(p.Words))
	}
	if p.Version != gen.Version() {
		t.Errorf("Version = %q", p.Version)
	}

	alphabet := p.Alphabet()
	center := p.Center()
	for _, e := range p.Words {
		m, err := primitives.MakeLetterMask(e.Word)
		if err != nil {
			t.Fatalf("bad word %q: %v", e.Word, err)
		}
		if !m.IsSubsetOf(alphabet) || !m.Contains(center) || len(e.Word) < 4 {
			t.Errorf("word %q does not fit %s with center %q", e.Word, alphabet, center)
		}
		if e.IsPangram != (m == alphabet) {
			t.Errorf("word %q: IsPangram = %v", e.Word, e.IsPangram)
		}
	}

	t.Run("reproducible", func(t *testing.T) {
		again, err := newTestGenerator(t, 5).Generate(t.Context(), candidates)
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		if diff := cmp.Diff(p, again); diff != "" {
			t.Errorf("puzzles differ (-first +second):\n%s", diff)
		}
	})
}

func TestGenerate_NoCandidateSatisfiesThreshold(t *testing.T) {
	gen := newTestGenerator(t, 500)
	_, err := gen.Generate(t.Context(), []Candidate{{Word: "walking"}, {Word: "planets"}})
	if !errors.Is(err, ErrNoCandidateSatisfiesThreshold) {
		t.Fatalf("Generate() error = %v, want ErrNoCandidateSatisfiesThreshold", err)
	}

	lower := gen.WithMinWordsRequired(5)
	if lower.Index() != gen.Index() {
		t.Error("WithMinWordsRequired generator has a different index")
	}
	if _, err := lower.Generate(t.Context(), []Candidate{{Word: "walking"}}); err != nil {
		t.Errorf("Generate() with lower threshold error: %v", err)
	}
	if gen.Params().MinWordsRequired != 500 {
		t.Errorf("threshold of the receiver changed to %d", gen.Params().MinWordsRequired)
	}
}

func TestGenerate_Canceled(t *testing.T) {
	gen := newTestGenerator(t, 5)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := gen.Generate(ctx, []Candidate{{Word: "walking"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGenerateForSeed(t *testing.T) {
	gen := newTestGenerator(t, 5)

	t.Run("valid", func(t *testing.T) {
		p, err := gen.GenerateForSeed(t.Context(), "Walking", 'K')
		if err != nil {
			t.Fatalf("GenerateForSeed() error: %v", err)
		}
		if p.CenterLetter != "k" || p.SeedWord != "walking" {
			t.Errorf("got seed %q center %q", p.SeedWord, p.CenterLetter)
		}
		for _, e := range p.Words {
			if !strings.ContainsRune(e.Word, 'k') {
				t.Errorf("word %q lacks the center letter", e.Word)
			}
		}
	})

	t.Run("long seed uses first seven letters", func(t *testing.T) {
		alphabet, err := SeedAlphabet("sunflowers")
		if err != nil {
			t.Fatalf("SeedAlphabet() error: %v", err)
		}
		if alphabet.String() != "eflnors" {
			t.Errorf("alphabet = %s, want eflnors", alphabet)
		}
	})

	tests := []struct {
		name   string
		seed   string
		center rune
		want   error
	}{
		{"too few letters", "walk", 'w', ErrInvalidLetterCount},
		{"non-letters", "walk-in", 'w', ErrInvalidLetterCount},
		{"center outside alphabet", "walking", 'z', ErrInvalidCenter},
		{"center dropped from long seed", "sunflowers", 'w', ErrInvalidCenter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := gen.GenerateForSeed(t.Context(), tt.seed, tt.center); !errors.Is(err, tt.want) {
				t.Errorf("GenerateForSeed(%q, %q) error = %v, want %v", tt.seed, tt.center, err, tt.want)
			}
		})
	}
}

func TestGenerateForSeed_MinWordLength(t *testing.T) {
	words := loadWords(t)
	gen := CreateGenerator(NewWordList(words), uniformFrequencies(words), rand.New(rand.NewPCG(42, 1024)), GeneratorParams{
		MinWordLength:    3,
		DropUnknownWords: true,
	})

	p, err := gen.GenerateForSeed(t.Context(), "walking", 'w')
	if err != nil {
		t.Fatalf("GenerateForSeed() error: %v", err)
	}
	if p.MinWordLength != 3 {
		t.Errorf("MinWordLength = %d, want 3", p.MinWordLength)
	}
	got := p.Check("wig")
	if !got.Valid || got.Points != 3 {
		t.Errorf("Check(wig) = %+v, want valid for 3 points", got)
	}
}

func TestGenerator_Version(t *testing.T) {
	words := loadWords(t)
	dict := NewWordList(words)
	build := func(freq FrequencyTable, params GeneratorParams) string {
		return CreateGenerator(dict, freq, rand.New(rand.NewPCG(1, 2)), params).Version()
	}

	base := build(uniformFrequencies(words), GeneratorParams{DropUnknownWords: true})
	if again := build(uniformFrequencies(words), GeneratorParams{DropUnknownWords: true}); again != base {
		t.Errorf("equal inputs gave versions %s and %s", base, again)
	}

	rarer := uniformFrequencies(words)
	rarer["walk"] = 1e-7
	zero := 0.0
	tests := []struct {
		name   string
		freq   FrequencyTable
		params GeneratorParams
	}{
		{"frequencies", rarer, GeneratorParams{DropUnknownWords: true}},
		{"frequency threshold", uniformFrequencies(words), GeneratorParams{DropUnknownWords: true, FrequencyThreshold: &zero}},
		{"unknown words", uniformFrequencies(words), GeneratorParams{}},
		{"min word length", uniformFrequencies(words), GeneratorParams{DropUnknownWords: true, MinWordLength: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := build(tt.freq, tt.params); got == base {
				t.Errorf("Version() = %s, same as the base generator", got)
			}
		})
	}

	gen := newTestGenerator(t, 5)
	if gen.WithMinWordsRequired(50).Version() != gen.Version() {
		t.Error("MinWordsRequired changed the version")
	}
}

func TestGenerator_SharedIndex(t *testing.T) {
	gen := newTestGenerator(t, 5)
	ix := gen.Index()
	if gen.Index() != ix {
		t.Fatal("Index() rebuilt the index")
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := gen.WithRand(rand.New(rand.NewPCG(uint64(i), 7)))
			if g.Index() != ix {
				t.Error("WithRand generator has a different index")
			}
			if _, err := g.Generate(context.Background(), []Candidate{{Word: "walking"}}); err != nil {
				t.Errorf("Generate() error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestGenerator_HarvestCandidates(t *testing.T) {
	gen := newTestGenerator(t, 5)
	var got []string
	for _, c := range gen.HarvestCandidates() {
		got = append(got, c.Word)
	}
	if diff := cmp.Diff([]string{"planets", "walking"}, got); diff != "" {
		t.Errorf("HarvestCandidates() mismatch (-want +got):\n%s", diff)
	}
	if n := len(gen.SampleCandidates(1)); n != 1 {
		t.Errorf("SampleCandidates(1) returned %d", n)
	}
}

func BenchmarkGenerate(b *testing.B) {
	words := loadWords(b)
	dict := NewWordList(words)
	freq := uniformFrequencies(words)
	candidates := []Candidate{{Word: "walking"}, {Word: "planets"}}
	b.ReportAllocs()

	rng := rand.New(rand.NewPCG(42, 1024))
	gen := CreateGenerator(dict, freq, rng, GeneratorParams{MinWordsRequired: 5})
	gen.Index()
	for b.Loop() {
		if _, err := gen.Generate(b.Context(), candidates); err != nil {
			b.Fatal(err)
		}
	}
}
