package wordsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/google/go-cmp/cmp"

	"crosswarped.com/bee/internal"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseDictionaryJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{
			name: "definitions",
			in:   `{"Walk": " To move on foot. ", "wing": ""}`,
			want: map[string]string{"walk": "To move on foot.", "wing": ""},
		},
		{
			name: "entries",
			in:   `{"walk": {"definition": "To move on foot.", "pos": "verb"}}`,
			want: map[string]string{"walk": "To move on foot."},
		},
		{
			name: "word list",
			in:   `["Walk", " wing ", ""]`,
			want: map[string]string{"walk": "", "wing": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDictionaryJSON([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseDictionaryJSON() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := ParseDictionaryJSON([]byte(`{"walk": 3}`)); err == nil {
		t.Error("expected error for a numeric definition")
	}
	if _, err := ParseDictionaryJSON([]byte(`nope`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadDictionaryJSON(t *testing.T) {
	path := writeFile(t, "dict.json", `{"walk": "To move on foot."}`)
	got, err := LoadDictionaryJSON(path)
	if err != nil {
		t.Fatalf("LoadDictionaryJSON() error: %v", err)
	}
	if got["walk"] != "To move on foot." {
		t.Errorf("got %v", got)
	}
	if _, err := LoadDictionaryJSON(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestLoadWordList(t *testing.T) {
	path := writeFile(t, "words.txt", "# comment\nWalk\n\n  wing \nlawn\n")
	got, err := LoadWordList(t.Context(), path)
	if err != nil {
		t.Fatalf("LoadWordList() error: %v", err)
	}
	if diff := cmp.Diff([]string{"walk", "wing", "lawn"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestReadWordList_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, err := ReadWordList(ctx, strings.NewReader("walk\n")); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestReadFrequencies(t *testing.T) {
	got, err := ReadFrequencies(t.Context(), strings.NewReader("# word\tfreq\nwalk\t1e-4\nWING 4.5e-5\n\n"))
	if err != nil {
		t.Fatalf("ReadFrequencies() error: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"walk": 1e-4, "wing": 4.5e-5}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"walk\n", "walk often\n", "walk -1\n", "walk 1 2\n"} {
		if _, err := ReadFrequencies(t.Context(), strings.NewReader(bad)); err == nil {
			t.Errorf("ReadFrequencies(%q) succeeded, want error", bad)
		}
	}
}

func TestLoadFrequencies(t *testing.T) {
	path := writeFile(t, "freq.tsv", "walk\t0.0001\n")
	got, err := LoadFrequencies(t.Context(), path)
	if err != nil {
		t.Fatalf("LoadFrequencies() error: %v", err)
	}
	if got["walk"] != 0.0001 {
		t.Errorf("got %v", got)
	}
}

func TestParseCandidates(t *testing.T) {
	got, err := ParseCandidates([]byte(`{"candidates": [
		{"word": "Walking", "distinct_letters": ["w","a","l","k","i","n","g"], "clue": "Moving on foot"},
		{"word": "planets", "distinct_letters": "['p', 'l', 'a', 'n', 'e', 't', 's']"}
	]}`))
	if err != nil {
		t.Fatalf("ParseCandidates() error: %v", err)
	}
	want := []internal.Candidate{
		{Word: "walking", DistinctLetters: internal.Letters{"w", "a", "l", "k", "i", "n", "g"}, Clue: "Moving on foot"},
		{Word: "planets", DistinctLetters: internal.Letters{"p", "l", "a", "n", "e", "t", "s"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for _, in := range []string{`{}`, `{"candidates": []}`} {
		if _, err := ParseCandidates([]byte(in)); !errors.Is(err, ErrNoCandidates) {
			t.Errorf("ParseCandidates(%s) error = %v, want ErrNoCandidates", in, err)
		}
	}
	if _, err := ParseCandidates([]byte(`[`)); err == nil || errors.Is(err, ErrNoCandidates) {
		t.Errorf("invalid JSON error = %v", err)
	}
}

func TestLoadCandidates(t *testing.T) {
	path := writeFile(t, "candidates.json", `{"candidates": [{"word": "walking"}]}`)
	got, err := LoadCandidates(path)
	if err != nil {
		t.Fatalf("LoadCandidates() error: %v", err)
	}
	if len(got) != 1 || got[0].Word != "walking" {
		t.Errorf("got %+v", got)
	}
}

func TestBigQueryRows(t *testing.T) {
	word, def, err := definitionRow([]bigquery.Value{"Walk", "To move on foot."})
	if err != nil || word != "walk" || def != "To move on foot." {
		t.Errorf("definitionRow() = %q, %q, %v", word, def, err)
	}
	if _, def, _ := definitionRow([]bigquery.Value{"walk", nil}); def != "" {
		t.Errorf("NULL definition = %q", def)
	}
	if _, _, err := definitionRow([]bigquery.Value{int64(3), "x"}); err == nil {
		t.Error("expected error for non-string word")
	}

	tests := []struct {
		row     []bigquery.Value
		want    float64
		wantErr bool
	}{
		{row: []bigquery.Value{"walk", 1e-4}, want: 1e-4},
		{row: []bigquery.Value{"walk", int64(2)}, want: 2},
		{row: []bigquery.Value{"walk", nil}, want: 0},
		{row: []bigquery.Value{"walk", "often"}, wantErr: true},
		{row: []bigquery.Value{"walk"}, wantErr: true},
	}
	for _, tt := range tests {
		_, got, err := frequencyRow(tt.row)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("frequencyRow(%v) = %v, %v", tt.row, got, err)
		}
	}
}

func TestTableName(t *testing.T) {
	for name, want := range map[string]bool{
		"words.dictionary":         true,
		"my-project.words.freq_v2": true,
		"dictionary":               false,
		"words.dict`; DROP":        false,
	} {
		if got := tableName.MatchString(name); got != want {
			t.Errorf("tableName.MatchString(%q) = %v, want %v", name, got, want)
		}
	}
}
