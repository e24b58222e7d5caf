package features

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/standardbeagle/lcserver/internal/fuzzy"
	"github.com/standardbeagle/lcserver/internal/lspproto"
)

// nearMissThreshold is the Jaro-Winkler similarity above which a candidate
// that internal/fuzzy rejected outright is still offered, as a second
// opinion for a typoed identifier (spec's completion post-processing,
// extended per SPEC_FULL.md §4.13 to give go-edlib a real call site).
const nearMissThreshold = 0.82

// stemBoost nudges a near-miss's score up when one of its identifier
// sub-words shares a Porter2 stem with one of the query's — "get" typed
// against "getValue" shares no edit-distance closeness with "Value", but
// splitting on word boundaries and stemming each half recovers the match
// the same way the teacher's internal/semantic.Stemmer recovers
// "authenticate"/"authentication" as the same underlying word.
const stemBoost = 0.05

// splitIdentifierWords breaks a camelCase/PascalCase/snake_case identifier
// into its lowercase component words, the way a symbol search would tokenize
// it before stemming.
func splitIdentifierWords(name string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// stemmedWordSet stems every word of an identifier and returns the
// resulting stems as a set, for cheap overlap checks against another
// identifier's stemmed words.
func stemmedWordSet(name string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range splitIdentifierWords(name) {
		if len(w) < 3 {
			continue
		}
		set[porter2.Stem(w)] = true
	}
	return set
}

// sharesStem reports whether partial and candidate have any identifier
// sub-word in common once both are split on word boundaries and stemmed.
func sharesStem(partial, candidate string) bool {
	partialStems := stemmedWordSet(partial)
	if len(partialStems) == 0 {
		return false
	}
	for stem := range stemmedWordSet(candidate) {
		if partialStems[stem] {
			return true
		}
	}
	return false
}

// Candidate is one completion candidate drawn from the compiler's
// completion consumer, prior to fuzzy ranking.
type Candidate struct {
	Name   string
	Detail string
	Kind   int
}

// Completion fuzzy-matches partial against candidates and returns them
// ranked by score, per spec §4.12/§4.13. A candidate internal/fuzzy rejects
// is still included, at a discounted score, if go-edlib's Jaro-Winkler
// similarity judges it a near-miss typo.
func Completion(partial string, candidates []Candidate) lspproto.CompletionList {
	matcher, ok := fuzzy.New(partial)
	if !ok {
		return lspproto.CompletionList{}
	}

	items := make([]lspproto.CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		if score, matched := matcher.Score(c.Name); matched {
			items = append(items, lspproto.CompletionItem{Label: c.Name, Detail: c.Detail, Kind: c.Kind, Score: score})
			continue
		}
		sim, err := edlib.StringsSimilarity(strings.ToLower(partial), strings.ToLower(c.Name), edlib.JaroWinkler)
		if err != nil || sim < nearMissThreshold {
			if sharesStem(partial, c.Name) {
				items = append(items, lspproto.CompletionItem{Label: c.Name, Detail: c.Detail, Kind: c.Kind, Score: nearMissThreshold})
			}
			continue
		}
		if sharesStem(partial, c.Name) {
			sim += stemBoost
			if sim > 1 {
				sim = 1
			}
		}
		items = append(items, lspproto.CompletionItem{Label: c.Name, Detail: c.Detail, Kind: c.Kind, Score: sim})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return lspproto.CompletionList{Items: items}
}
