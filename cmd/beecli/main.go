package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"runtime/pprof"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/stdr"

	"crosswarped.com/bee"
	"crosswarped.com/bee/internal/config"
	"crosswarped.com/bee/internal/store"
	"crosswarped.com/bee/internal/wordsource"
)

var (
	dictFile       = flag.String("dict", "", "JSON dictionary of word -> definition")
	wordsFile      = flag.String("words", "", "Plain word list, one word per line")
	freqFile       = flag.String("freq", "", "Word frequency file (word<TAB>frequency)")
	candidatesFile = flag.String("candidates", "", "JSON file with a \"candidates\" list")
	minWords       = flag.Int("min_words", bee.DefaultMinWordsRequired, "Minimum number of words in a puzzle")
	minLength      = flag.Int("min_length", bee.DefaultMinWordLength, "Minimum word length")
	threshold      = flag.Float64("threshold", bee.DefaultFrequencyThreshold, "Frequency at or below which derivative words are dropped")
	keepUnknown    = flag.Bool("keep_unknown", false, "Keep words with no known frequency")
	seed           = flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
	seedWord       = flag.String("seed_word", "", "Build the puzzle for this seed word instead of searching candidates")
	center         = flag.String("center", "", "Center letter for -seed_word")
	harvest        = flag.Int("harvest", 0, "Write N random seed candidates from the dictionary instead of a puzzle")
	out            = flag.String("out", "", "File to write the JSON output to")
	dbPath         = flag.String("db", "", "SQLite database to cache puzzles in")
	list           = flag.Bool("list", false, "List puzzles stored in -db and exit")
	top            = flag.Int("top", 10, "Number of words to print")
	verbosity      = flag.Int("v", 0, "Log verbosity")

	timeout = flag.Duration("timeout", 1*time.Minute, "The timeout for the generator")

	profile     = flag.Bool("profile", false, "Profile the generator")
	profileFile = flag.String("profile-file", "cpu.pprof", "The file to write the CPU profile to")
)

func main() {
	flag.Parse()
	// Exit only once run has returned so its deferred cleanup has happened.
	if err := run(); err != nil {
		config.Exitf("Error: %v", err)
	}
}

func run() error {
	if *seedWord != "" && *candidatesFile != "" {
		return errors.New("cannot use both -seed_word and -candidates")
	}

	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var db *store.Store
	if *dbPath != "" {
		var err error
		if db, err = store.Open(ctx, *dbPath); err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
	}
	if *list {
		if db == nil {
			return errors.New("-list requires -db")
		}
		return listPuzzles(ctx, db)
	}

	dict, err := loadDictionary(ctx, *dictFile, *wordsFile)
	if err != nil {
		return fmt.Errorf("loading dictionary: %w", err)
	}
	fmt.Println("Dictionary words:", humanize.Comma(int64(dict.Len())))

	freq := bee.FrequencyTable{}
	if *freqFile != "" {
		fmt.Println("Loading frequencies from file...")
		f, err := wordsource.LoadFrequencies(ctx, *freqFile)
		if err != nil {
			return fmt.Errorf("loading frequencies: %w", err)
		}
		freq = bee.FrequencyTable(f)
		fmt.Println("Frequencies:", humanize.Comma(int64(len(freq))))
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	fmt.Println("Seed:", *seed)
	randSource := rand.NewPCG(*seed, *seed)

	gen := bee.CreateGenerator(dict, freq, rand.New(randSource), bee.GeneratorParams{
		MinWordLength:      *minLength,
		MinWordsRequired:   *minWords,
		FrequencyThreshold: threshold,
		DropUnknownWords:   *freqFile != "" && !*keepUnknown,
		Logger:             logger,
	})

	if *harvest > 0 {
		cands := gen.SampleCandidates(*harvest)
		fmt.Println("Harvested candidates:", humanize.Comma(int64(len(cands))))
		if err := writeJSON(*out, wordsource.CandidatesFile{Candidates: cands}); err != nil {
			return fmt.Errorf("writing candidates: %w", err)
		}
		return nil
	}

	if *profile {
		f, err := os.Create(*profileFile)
		if err != nil {
			return fmt.Errorf("creating profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var p bee.Puzzle
	if *seedWord != "" {
		p, err = seedPuzzle(ctx, gen, db, *seedWord, *center)
	} else {
		p, err = searchPuzzle(ctx, gen, db, *candidatesFile, *minWords)
	}
	if err != nil {
		return fmt.Errorf("generating puzzle: %w", err)
	}

	printSummary(p, *top)
	if *out != "" {
		if err := writeJSON(*out, p); err != nil {
			return fmt.Errorf("writing puzzle: %w", err)
		}
		fmt.Println("Wrote", *out)
	}
	return nil
}

func loadDictionary(ctx context.Context, dictFile, wordsFile string) (*bee.Dictionary, error) {
	switch {
	case dictFile != "":
		fmt.Println("Loading dictionary from file...")
		entries, err := wordsource.LoadDictionaryJSON(dictFile)
		if err != nil {
			return nil, err
		}
		return bee.NewDictionary(entries), nil
	case wordsFile != "":
		fmt.Println("Loading words from file...")
		words, err := wordsource.LoadWordList(ctx, wordsFile)
		if err != nil {
			return nil, err
		}
		return bee.NewWordList(words), nil
	}
	return nil, errors.New("one of -dict or -words is required")
}

func seedPuzzle(ctx context.Context, gen *bee.Generator, db *store.Store, seedWord, center string) (bee.Puzzle, error) {
	if utf8.RuneCountInString(center) != 1 {
		return bee.Puzzle{}, fmt.Errorf("-center must be a single letter, got %q", center)
	}
	key := store.CacheKey{Seed: seedWord, Center: center, Version: gen.Version()}
	if db != nil {
		p, err := db.Lookup(ctx, key)
		if err == nil {
			fmt.Println("Loaded cached puzzle", p.ID)
			return p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return bee.Puzzle{}, err
		}
	}

	r, _ := utf8.DecodeRuneInString(center)
	p, err := gen.GenerateForSeed(ctx, seedWord, r)
	if err != nil {
		return bee.Puzzle{}, err
	}
	return save(ctx, db, key, p)
}

func searchPuzzle(ctx context.Context, gen *bee.Generator, db *store.Store, candidatesFile string, minWords int) (bee.Puzzle, error) {
	var cands []bee.Candidate
	if candidatesFile != "" {
		fmt.Println("Loading candidates from file...")
		var err error
		if cands, err = wordsource.LoadCandidates(candidatesFile); err != nil {
			return bee.Puzzle{}, err
		}
	} else {
		fmt.Println("Harvesting candidates from dictionary...")
		cands = gen.HarvestCandidates()
	}
	fmt.Println("Candidates:", humanize.Comma(int64(len(cands))))

	start := time.Now()
	p, err := gen.Generate(ctx, cands)
	if err != nil {
		return bee.Puzzle{}, err
	}
	fmt.Println("Generated in", time.Since(start).Round(time.Millisecond))
	return save(ctx, db, store.KeyFor(p, minWords), p)
}

func save(ctx context.Context, db *store.Store, key store.CacheKey, p bee.Puzzle) (bee.Puzzle, error) {
	if db == nil {
		return p, nil
	}
	saved, err := db.SaveOrGet(ctx, key, p)
	if err != nil {
		return bee.Puzzle{}, err
	}
	fmt.Println("Saved puzzle", saved.ID)
	return saved, nil
}

func printSummary(p bee.Puzzle, top int) {
	fmt.Println("--------------------------------")
	fmt.Printf("Seed word: %s (center %s)\n", p.SeedWord, p.CenterLetter)
	fmt.Println("Letters:", strings.SplitN(p.Repr(), "\n", 2)[0])
	fmt.Println("Words:", humanize.Comma(int64(p.TotalWords)))
	fmt.Println("Max score:", humanize.Comma(int64(p.MaxScore())))
	fmt.Println("Pangrams:", p.Pangrams())
	fmt.Println("--------------------------------")

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	for i, e := range p.Words {
		if i == top {
			fmt.Fprintf(tw, "...\t\t\t\n")
			break
		}
		var mark string
		if e.IsPangram {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d%s\t%.2g\t\n", e.Word, bee.WordScore(e.Word, e.IsPangram), mark, e.Frequency)
	}
}

func listPuzzles(ctx context.Context, db *store.Store) error {
	sums, err := db.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("listing puzzles: %w", err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t\n", s.ID, s.Key.Seed, s.Key.Center, s.TotalWords, humanize.Time(s.CreatedAt))
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
