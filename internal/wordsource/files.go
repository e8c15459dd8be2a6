// Package wordsource loads dictionaries, word frequencies and puzzle candidates
// from local files or BigQuery.
package wordsource

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"crosswarped.com/bee/internal"
)

// ErrNoCandidates is returned when a candidates file has an empty or missing list.
var ErrNoCandidates = errors.New("candidates must be a non-empty list")

// LoadDictionaryJSON reads a dictionary file. Three shapes are accepted:
//
//	{"word": "definition", ...}
//	{"word": {"definition": "..."}, ...}
//	["word", ...]
//
// Keys are normalized; the returned map is word -> definition.
func LoadDictionaryJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDictionaryJSON(data)
}

func ParseDictionaryJSON(data []byte) (map[string]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(map[string]string, len(list))
		for _, w := range list {
			if w = internal.NormalizeWord(w); w != "" {
				out[w] = ""
			}
		}
		return out, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		word := internal.NormalizeWord(key)
		if word == "" {
			continue
		}
		def, err := parseDefinition(value)
		if err != nil {
			return nil, fmt.Errorf("parse definition of %q: %w", key, err)
		}
		if existing := out[word]; existing != "" {
			continue
		}
		out[word] = def
	}
	return out, nil
}

func parseDefinition(value json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var entry struct {
		Definition string `json:"definition"`
	}
	if err := json.Unmarshal(value, &entry); err != nil {
		return "", err
	}
	return strings.TrimSpace(entry.Definition), nil
}

// LoadWordList reads one word per line, skipping blank lines and lines starting
// with '#'.
func LoadWordList(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWordList(ctx, f)
}

func ReadWordList(ctx context.Context, r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, internal.NormalizeWord(line))
	}
	return words, scanner.Err()
}

// LoadFrequencies reads a tab or space separated "word frequency" file.
func LoadFrequencies(ctx context.Context, path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrequencies(ctx, f)
}

func ReadFrequencies(ctx context.Context, r io.Reader) (map[string]float64, error) {
	freq := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want 2 fields, got %d", lineNo, len(fields))
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("line %d: negative frequency %v", lineNo, v)
		}
		freq[internal.NormalizeWord(fields[0])] = v
	}
	return freq, scanner.Err()
}

// CandidatesFile is the document read by LoadCandidates.
type CandidatesFile struct {
	Candidates []internal.Candidate `json:"candidates"`
}

// LoadCandidates reads a {"candidates": [...]} document.
func LoadCandidates(path string) ([]internal.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCandidates(data)
}

func ParseCandidates(data []byte) ([]internal.Candidate, error) {
	var doc CandidatesFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}
	if len(doc.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	for i := range doc.Candidates {
		doc.Candidates[i].Word = internal.NormalizeWord(doc.Candidates[i].Word)
	}
	return doc.Candidates, nil
}
