package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"crosswarped.com/bee"
	"crosswarped.com/bee/internal/config"
	"crosswarped.com/bee/internal/store"
	"crosswarped.com/bee/internal/wordsource"
)

type GeneratePuzzleRequest struct {
	Candidates []bee.Candidate `json:"candidates"`
	MinWords   int             `json:"minWords"`
	Seed       *uint64         `json:"seed"`
}

type SeedPuzzleRequest struct {
	Seed   string `json:"seed"`
	Center string `json:"center"`
}

type CheckWordRequest struct {
	Puzzle   *bee.Puzzle `json:"puzzle"`
	PuzzleID string      `json:"puzzleId"`
	Word     string      `json:"word"`
}

type PuzzleResponse struct {
	Success bool        `json:"success"`
	Puzzle  *bee.Puzzle `json:"puzzle,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type CheckWordResponse struct {
	Success bool             `json:"success"`
	Result  *bee.CheckResult `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// requestError is returned for input the caller must fix.
type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return requestError{fmt.Errorf(format, args...)}
}

type app struct {
	gen      *bee.Generator
	db       *store.Store
	minWords int
	log      logr.Logger
}

func loadGenerator(ctx context.Context, cfg config.Config, logger logr.Logger) (*bee.Generator, error) {
	var defs map[string]string
	var freq map[string]float64
	if cfg.Project != "" {
		tables, err := wordsource.BigQuerySource{
			Project:         cfg.Project,
			Location:        cfg.Location,
			DictionaryTable: cfg.DictionaryTable,
			FrequencyTable:  cfg.FrequencyTable,
		}.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load bigquery tables: %w", err)
		}
		defs, freq = tables.Definitions, tables.Frequencies
	} else {
		var err error
		if defs, err = wordsource.LoadDictionaryJSON(cfg.DictionaryPath); err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		if cfg.FrequencyPath != "" {
			if freq, err = wordsource.LoadFrequencies(ctx, cfg.FrequencyPath); err != nil {
				return nil, fmt.Errorf("load frequencies: %w", err)
			}
		}
	}
	logger.Info("loaded words", "words", len(defs), "frequencies", len(freq))

	return bee.CreateGenerator(
		bee.NewDictionary(defs),
		bee.FrequencyTable(freq),
		rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(time.Now().Nanosecond()))),
		bee.GeneratorParams{
			MinWordsRequired:   cfg.MinWords,
			FrequencyThreshold: &cfg.FrequencyThreshold,
			DropUnknownWords:   cfg.DropUnknownWords && len(freq) > 0,
			Logger:             logger,
		},
	), nil
}

func (a *app) generatePuzzle(ctx context.Context, req GeneratePuzzleRequest) (bee.Puzzle, error) {
	if req.MinWords < 0 {
		return bee.Puzzle{}, badRequest("minWords must not be negative")
	}
	minWords := a.minWords
	if req.MinWords > 0 {
		minWords = req.MinWords
	}

	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}
	gen := a.gen.WithRand(rand.New(rand.NewPCG(seed, seed)))
	if minWords != gen.Params().MinWordsRequired {
		gen = gen.WithMinWordsRequired(minWords)
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = gen.HarvestCandidates()
	}

	p, err := gen.Generate(ctx, candidates)
	if err != nil {
		return bee.Puzzle{}, err
	}
	return a.save(ctx, store.KeyFor(p, minWords), p)
}

func (a *app) seedPuzzle(ctx context.Context, req SeedPuzzleRequest) (bee.Puzzle, error) {
	if utf8.RuneCountInString(req.Center) != 1 {
		return bee.Puzzle{}, badRequest("center must be a single letter, got %q", req.Center)
	}
	key := store.CacheKey{Seed: req.Seed, Center: req.Center, Version: a.gen.Version()}
	if a.db != nil {
		p, err := a.db.Lookup(ctx, key)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return bee.Puzzle{}, err
		}
	}

	center, _ := utf8.DecodeRuneInString(req.Center)
	p, err := a.gen.GenerateForSeed(ctx, req.Seed, center)
	if err != nil {
		return bee.Puzzle{}, err
	}
	return a.save(ctx, key, p)
}

func (a *app) checkWord(ctx context.Context, req CheckWordRequest) (bee.CheckResult, error) {
	var p bee.Puzzle
	switch {
	case req.Puzzle != nil:
		p = *req.Puzzle
	case req.PuzzleID != "" && a.db != nil:
		var err error
		if p, err = a.db.Load(ctx, req.PuzzleID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return bee.CheckResult{}, badRequest("puzzle %q not found", req.PuzzleID)
			}
			return bee.CheckResult{}, err
		}
	default:
		return bee.CheckResult{}, badRequest("puzzle is required")
	}
	return p.Check(req.Word), nil
}

func (a *app) save(ctx context.Context, key store.CacheKey, p bee.Puzzle) (bee.Puzzle, error) {
	if a.db == nil {
		return p, nil
	}
	saved, err := a.db.SaveOrGet(ctx, key, p)
	if err != nil {
		// The puzzle is still usable without an ID.
		a.log.Error(err, "failed to save puzzle", "seed", key.Seed, "center", key.Center)
		return p, nil
	}
	return saved, nil
}

func statusFor(err error) int {
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, bee.ErrInvalidLetterCount),
		errors.Is(err, bee.ErrInvalidCenter):
		return http.StatusBadRequest
	case errors.Is(err, bee.ErrNoCandidateSatisfiesThreshold):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Content-Type", "application/json")
}

// handle decodes a Req from a POST body, runs fn and encodes what it returns.
// fail builds the error response.
func handle[Req, Resp any](log logr.Logger, fn func(context.Context, Req) (Resp, error), fail func(error) Resp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle OPTIONS request for CORS preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			json.NewEncoder(w).Encode(fail(fmt.Errorf("Method %s not allowed", r.Method)))
			return
		}

		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.V(1).Info("invalid request body", "path", r.URL.Path, "error", err.Error())
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(fail(fmt.Errorf("Invalid JSON: %v", err)))
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				log.Error(err, "request failed", "path", r.URL.Path)
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(fail(err))
			return
		}

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error(err, "failed to encode response", "path", r.URL.Path)
		}
	}
}

func puzzleHandler[Req any](log logr.Logger, fn func(context.Context, Req) (bee.Puzzle, error)) http.HandlerFunc {
	return handle(log,
		func(ctx context.Context, req Req) (PuzzleResponse, error) {
			p, err := fn(ctx, req)
			if err != nil {
				return PuzzleResponse{}, err
			}
			return PuzzleResponse{Success: true, Puzzle: &p}, nil
		},
		func(err error) PuzzleResponse { return PuzzleResponse{Error: err.Error()} },
	)
}

func (a *app) register(register func(path string, fn func(http.ResponseWriter, *http.Request))) {
	register("/generate-puzzle", puzzleHandler(a.log, a.generatePuzzle))
	register("/seed-puzzle", puzzleHandler(a.log, a.seedPuzzle))
	register("/check-word", handle(a.log,
		func(ctx context.Context, req CheckWordRequest) (CheckWordResponse, error) {
			res, err := a.checkWord(ctx, req)
			if err != nil {
				return CheckWordResponse{}, err
			}
			return CheckWordResponse{Success: true, Result: &res}, nil
		},
		func(err error) CheckWordResponse { return CheckWordResponse{Error: err.Error()} },
	))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}

	stdr.SetVerbosity(cfg.Verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	ctx := context.Background()
	gen, err := loadGenerator(ctx, cfg, logger)
	if err != nil {
		config.Exitf("loadGenerator: %v", err)
	}
	// Build the index before serving.
	gen.Index()

	a := &app{gen: gen, minWords: cfg.MinWords, log: logger}
	if cfg.DBPath != "" {
		if a.db, err = store.Open(ctx, cfg.DBPath); err != nil {
			config.Exitf("store.Open: %v", err)
		}
		defer a.db.Close()
	}

	a.register(func(path string, fn func(http.ResponseWriter, *http.Request)) {
		funcframework.RegisterHTTPFunction(path, fn)
	})

	if err := funcframework.StartHostPort(cfg.Hostname(), cfg.Port); err != nil {
		config.Exitf("funcframework.StartHostPort: %v", err)
	}
}
