package bee

import (
	"cmp"
	"slices"
	"strings"

	"github.com/go-logr/logr"
)

// DefaultFrequencyThreshold marks a word as well established.
const DefaultFrequencyThreshold = 5e-6

// DerivativeRule decides whether candidate is a trivial derivative of base.
type DerivativeRule interface {
	IsDerivative(base, candidate string) bool
}

// DerivativeRuleFunc adapts a function to DerivativeRule.
type DerivativeRuleFunc func(base, candidate string) bool

func (f DerivativeRuleFunc) IsDerivative(base, candidate string) bool {
	return f(base, candidate)
}

// SimpleAffixRule is the default DerivativeRule, see IsSimpleAffixVariant.
var SimpleAffixRule DerivativeRule = DerivativeRuleFunc(IsSimpleAffixVariant)

var affixSuffixes = []string{"ing", "er", "ness", "s"}

// IsSimpleAffixVariant reports whether candidate is base with a "re" prefix, or
// base with one of the suffixes -ing, -er, -ness, -s. For -ing and -er a doubled
// final letter is also accepted (run -> running).
//
// The heuristic is narrow on purpose: it misses many real derivations and can match
// unrelated words that happen to have these shapes.
func IsSimpleAffixVariant(base, candidate string) bool {
	if base == "" {
		return false
	}
	if candidate == "re"+base {
		return true
	}
	for _, suffix := range affixSuffixes {
		stem, ok := strings.CutSuffix(candidate, suffix)
		if !ok {
			continue
		}
		if stem == base {
			return true
		}
		if (suffix == "ing" || suffix == "er") && stem == base+base[len(base)-1:] {
			return true
		}
	}
	return false
}

type DropReason string

const (
	DropAffix     DropReason = "affix"
	DropFrequency DropReason = "frequency"
)

// DropDecision records why FilterDerivatives removed a word.
type DropDecision struct {
	Word          string
	Base          string
	WordFrequency float64
	BaseFrequency float64
	Reason        DropReason
}

// FilterDerivatives removes words that are redundant next to a shorter, well
// established word they contain.
//
// Entries are visited shortest first (ties alphabetical) so base forms are judged
// before their derivatives. A word is "covered" by an already kept word K when K is
// a strict substring of it and K's frequency is at least freqThreshold. A covered
// word is dropped when rule says it derives from any covering K, or when its own
// frequency is at most freqThreshold. Everything else is kept.
//
// The result keeps the input order. Filtering the result again drops nothing.
func FilterDerivatives(entries []PuzzleWordEntry, freqThreshold float64, rule DerivativeRule) ([]PuzzleWordEntry, []DropDecision) {
	if rule == nil {
		rule = SimpleAffixRule
	}

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		wa, wb := entries[a].Word, entries[b].Word
		if c := cmp.Compare(len(wa), len(wb)); c != 0 {
			return c
		}
		return strings.Compare(wa, wb)
	})

	keep := make([]bool, len(entries))
	var kept []PuzzleWordEntry
	var drops []DropDecision
	for _, i := range order {
		cur := entries[i]

		var covering *PuzzleWordEntry
		var affixBase *PuzzleWordEntry
		for k := range kept {
			base := &kept[k]
			if base.Word == cur.Word || base.Frequency < freqThreshold || !strings.Contains(cur.Word, base.Word) {
				continue
			}
			if covering == nil {
				covering = base
			}
			if rule.IsDerivative(base.Word, cur.Word) {
				affixBase = base
				break
			}
		}

		switch {
		case affixBase != nil:
			drops = append(drops, dropOf(cur, *affixBase, DropAffix))
		case covering != nil && cur.Frequency <= freqThreshold:
			drops = append(drops, dropOf(cur, *covering, DropFrequency))
		default:
			keep[i] = true
			kept = append(kept, cur)
		}
	}

	out := make([]PuzzleWordEntry, 0, len(kept))
	for i, e := range entries {
		if keep[i] {
			out = append(out, e)
		}
	}
	return out, drops
}

func dropOf(word, base PuzzleWordEntry, reason DropReason) DropDecision {
	return DropDecision{
		Word:          word.Word,
		Base:          base.Word,
		WordFrequency: word.Frequency,
		BaseFrequency: base.Frequency,
		Reason:        reason,
	}
}

func logDrops(log logr.Logger, drops []DropDecision) {
	for _, d := range drops {
		log.V(1).Info("dropped derivative",
			"word", d.Word,
			"base", d.Base,
			"wordFrequency", d.WordFrequency,
			"baseFrequency", d.BaseFrequency,
			"reason", string(d.Reason))
	}
}
