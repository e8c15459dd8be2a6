package bee

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"

	"crosswarped.com/bee/internal"
	"crosswarped.com/bee/pkg/primitives"
)

type Generator struct {
	Dictionary  *Dictionary
	Frequencies FrequencyOracle

	params GeneratorParams
	rand   *rand.Rand
	log    logr.Logger

	// Shared by copies made with WithRand; use Index to read it.
	lazy *lazyIndex
}

type lazyIndex struct {
	once sync.Once
	ix   *primitives.WordIndex

	versionOnce sync.Once
	version     string
}

type GeneratorParams struct {
	MinWordLength    int
	MinWordsRequired int
	// FrequencyThreshold is the derivative filter's "well established" frequency.
	// nil means DefaultFrequencyThreshold; 0 treats every word as established.
	FrequencyThreshold *float64
	HarvestThreshold   float64
	DropUnknownWords   bool
	Rule               DerivativeRule
	Logger             logr.Logger
}

func CreateGenerator(dict *Dictionary, freq FrequencyOracle, rand *rand.Rand, params GeneratorParams) *Generator {
	if params.MinWordLength <= 0 {
		params.MinWordLength = internal.DefaultMinWordLength
	}
	if params.MinWordsRequired <= 0 {
		params.MinWordsRequired = internal.DefaultMinWordsRequired
	}
	if params.FrequencyThreshold == nil {
		threshold := DefaultFrequencyThreshold
		params.FrequencyThreshold = &threshold
	}
	if params.HarvestThreshold <= 0 {
		params.HarvestThreshold = internal.DefaultHarvestThreshold
	}
	log := params.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Generator{
		Dictionary:  dict,
		Frequencies: freq,
		params:      params,
		rand:        rand,
		log:         log,
		lazy:        &lazyIndex{},
	}
}

// WithRand returns a generator sharing g's dictionary and index but drawing from
// rng. A *rand.Rand is not safe for concurrent use, so concurrent callers each
// need their own.
func (g *Generator) WithRand(rng *rand.Rand) *Generator {
	clone := *g
	clone.rand = rng
	return &clone
}

// WithMinWordsRequired returns a generator sharing g's index with a different
// word threshold.
func (g *Generator) WithMinWordsRequired(n int) *Generator {
	clone := *g
	if n > 0 {
		clone.params.MinWordsRequired = n
	}
	return &clone
}

// Params returns the generator's parameters with defaults filled in.
func (g *Generator) Params() GeneratorParams {
	return g.params
}

// Index returns the word index, building it on first use.
func (g *Generator) Index() *primitives.WordIndex {
	g.lazy.once.Do(func() {
		g.lazy.ix = primitives.BuildIndex(g.Dictionary.Words(), g.params.MinWordLength)
		g.log.Info("built word index",
			"words", g.lazy.ix.Len(),
			"masks", g.lazy.ix.NumBuckets(),
			"skipped", g.lazy.ix.Skipped(),
			"minLength", g.params.MinWordLength)
	})
	return g.lazy.ix
}

// Version fingerprints everything that decides a puzzle's word list: the
// dictionary, the frequencies and the filtering parameters. Puzzles carry it and
// it is part of their cache key. MinWordsRequired is not included; it only decides
// whether a puzzle is accepted.
//
// The frequencies are fingerprinted when the oracle implements
// interface{ Version() string }, as FrequencyTable does.
func (g *Generator) Version() string {
	g.lazy.versionOnce.Do(func() {
		freqVersion := "unversioned"
		if v, ok := g.Frequencies.(interface{ Version() string }); ok {
			freqVersion = v.Version()
		}
		h := xxhash.New()
		fmt.Fprintf(h, "%s\x00%s\x00%d\x00%g\x00%t",
			g.Dictionary.Version(),
			freqVersion,
			g.params.MinWordLength,
			*g.params.FrequencyThreshold,
			g.params.DropUnknownWords)
		g.lazy.version = fmt.Sprintf("%016x", h.Sum64())
	})
	return g.lazy.version
}

func (g *Generator) assembleParams() AssembleParams {
	return AssembleParams{
		FrequencyThreshold: g.params.FrequencyThreshold,
		MinWordLength:      g.params.MinWordLength,
		DropUnknownWords:   g.params.DropUnknownWords,
		Rule:               g.params.Rule,
		Logger:             g.log,
		Version:            g.Version(),
	}
}

// Generate picks a candidate and center letter with at least MinWordsRequired words
// and assembles the puzzle. Nothing is assembled unless the search succeeds.
func (g *Generator) Generate(ctx context.Context, candidates []Candidate) (Puzzle, error) {
	if err := ctx.Err(); err != nil {
		return Puzzle{}, err
	}

	minLength := g.params.MinWordLength
	sel, err := internal.PickCandidateAndCenter(g.Index(), candidates, g.rand, internal.SearchParams{
		MinWordsRequired: g.params.MinWordsRequired,
		MinWordLength:    &minLength,
		Logger:           g.log,
	})
	if err != nil {
		return Puzzle{}, err
	}

	return Assemble(sel.Candidate, sel.Center, sel.Words, g.Dictionary, g.Frequencies, g.assembleParams())
}

// SeedAlphabet returns the first seven distinct letters of seed in alphabetical order.
func SeedAlphabet(seed string) (primitives.LetterMask, error) {
	word := strings.ToLower(strings.TrimSpace(seed))
	mask, err := primitives.MakeLetterMask(word)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLetterCount, err)
	}
	if mask.Count() < internal.AlphabetSize {
		return 0, fmt.Errorf("%w: seed %q has %d distinct letters, want at least %d", ErrInvalidLetterCount, seed, mask.Count(), internal.AlphabetSize)
	}

	var alphabet primitives.LetterMask
	for _, r := range mask.Letters()[:internal.AlphabetSize] {
		_ = alphabet.Add(r)
	}
	return alphabet, nil
}

// GenerateForSeed builds the puzzle for a chosen seed word and center letter with
// no minimum word count.
func (g *Generator) GenerateForSeed(ctx context.Context, seed string, center rune) (Puzzle, error) {
	if err := ctx.Err(); err != nil {
		return Puzzle{}, err
	}

	alphabet, err := SeedAlphabet(seed)
	if err != nil {
		return Puzzle{}, err
	}
	center = unicode.ToLower(center)
	if !alphabet.Contains(center) {
		return Puzzle{}, fmt.Errorf("%w: %q is not one of %s", ErrInvalidCenter, center, alphabet)
	}

	var letters Letters
	for _, r := range alphabet.Letters() {
		letters = append(letters, string(r))
	}
	c := Candidate{Word: strings.ToLower(strings.TrimSpace(seed)), DistinctLetters: letters}
	words := g.Index().Query(alphabet, primitives.Bit(center))
	return Assemble(c, center, words, g.Dictionary, g.Frequencies, g.assembleParams())
}

// HarvestCandidates lists dictionary words that could seed a puzzle.
func (g *Generator) HarvestCandidates() []Candidate {
	return internal.HarvestCandidates(g.Dictionary.Words(), g.Frequencies, g.params.HarvestThreshold)
}

// SampleCandidates draws up to n harvested candidates at random.
func (g *Generator) SampleCandidates(n int) []Candidate {
	return internal.SampleCandidates(g.rand, g.HarvestCandidates(), n)
}
