package bee

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"crosswarped.com/bee/internal"
)

// NoDefinition is returned by Dictionary.Definition for unknown words.
const NoDefinition = "No definition available"

// FrequencyOracle reports how common a word is. 0 means the word is not recognized.
type FrequencyOracle = internal.FrequencyOracle

// DefinitionLookup resolves a word to its definition.
type DefinitionLookup interface {
	Definition(word string) string
}

// Dictionary is an immutable set of words with their definitions.
type Dictionary struct {
	definitions map[string]string
	words       []string
	version     string
}

// NewDictionary builds a Dictionary from word -> definition pairs. Keys are
// normalized (trimmed, case-folded); when two keys normalize to the same word the
// first non-empty definition in key order wins.
func NewDictionary(entries map[string]string) *Dictionary {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	d := &Dictionary{definitions: make(map[string]string, len(entries))}
	for _, k := range keys {
		word := internal.NormalizeWord(k)
		if word == "" {
			continue
		}
		if existing, ok := d.definitions[word]; ok && existing != "" {
			continue
		}
		d.definitions[word] = strings.TrimSpace(entries[k])
	}

	d.words = make([]string, 0, len(d.definitions))
	for w := range d.definitions {
		d.words = append(d.words, w)
	}
	slices.Sort(d.words)

	h := xxhash.New()
	for _, w := range d.words {
		h.WriteString(w)
		h.Write([]byte{0})
		h.WriteString(d.definitions[w])
		h.Write([]byte{0})
	}
	d.version = fmt.Sprintf("%016x", h.Sum64())
	return d
}

// NewWordList builds a Dictionary whose words have no definitions.
func NewWordList(words []string) *Dictionary {
	entries := make(map[string]string, len(words))
	for _, w := range words {
		entries[w] = ""
	}
	return NewDictionary(entries)
}

// Len returns the number of words.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Words returns every word in alphabetical order.
func (d *Dictionary) Words() []string {
	return slices.Clone(d.words)
}

// Contains reports whether word is in the dictionary, ignoring case.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.definitions[internal.NormalizeWord(word)]
	return ok
}

// Definition returns the definition of word, ignoring case, or NoDefinition.
func (d *Dictionary) Definition(word string) string {
	def, ok := d.definitions[internal.NormalizeWord(word)]
	if !ok || def == "" {
		return NoDefinition
	}
	return def
}

// Version fingerprints the dictionary contents. Equal contents give equal versions.
func (d *Dictionary) Version() string {
	return d.version
}

// FrequencyTable is a FrequencyOracle backed by a map of normalized words.
type FrequencyTable map[string]float64

func (f FrequencyTable) Frequency(word string) float64 {
	if v, ok := f[word]; ok {
		return v
	}
	return f[internal.NormalizeWord(word)]
}

// Version fingerprints the table. Equal contents give equal versions.
func (f FrequencyTable) Version() string {
	words := make([]string, 0, len(f))
	for w := range f {
		words = append(words, w)
	}
	slices.Sort(words)

	h := xxhash.New()
	for _, w := range words {
		h.WriteString(w)
		h.Write([]byte{0})
		h.WriteString(strconv.FormatFloat(f[w], 'g', -1, 64))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
