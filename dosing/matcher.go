package dosing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matching thresholds. Very short queries only match exactly to avoid false
// positives on abbreviations.
const (
	minPrefixQueryLen   = 3
	minContainsQueryLen = 4
	minFuzzyScore       = 0.3
)

// diacriticFolder strips combining marks so accented catalog names compare
// equal to their plain-ASCII spellings.
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName reduces a substance name to its comparable form: diacritics
// folded, lower-cased, every non-alphanumeric rune dropped. The same rule is
// applied to queries and to catalog keys, so punctuated names like "1,4-bdo"
// still match their catalog entries.
func NormalizeName(name string) string {
	folded, _, err := transform.String(diacriticFolder, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Match finds the best catalog name for query using the strict priority
// ladder: exact normalized match, then prefix (queries of 3+ chars), then
// containment (4+ chars). The returned name is the catalog's original
// spelling. A miss is a plain "no match", never an error.
func Match(query string, names []string) (string, bool) {
	q := NormalizeName(query)
	if q == "" {
		return "", false
	}

	for _, name := range names {
		if NormalizeName(name) == q {
			return name, true
		}
	}

	if len(q) >= minPrefixQueryLen {
		for _, name := range names {
			if strings.HasPrefix(NormalizeName(name), q) {
				return name, true
			}
		}
	}

	if len(q) >= minContainsQueryLen {
		for _, name := range names {
			if strings.Contains(NormalizeName(name), q) {
				return name, true
			}
		}
	}

	return "", false
}

// Score rates how well query matches target on a 0..1 scale: exact 1.0,
// prefix 0.9, containment 0.7, otherwise a subsequence-order score that
// greedily matches each query rune to the next available position in the
// target, accumulating 1/gap per matched rune, averaged and scaled by match
// completeness.
func Score(query, target string) float64 {
	q := NormalizeName(query)
	t := NormalizeName(target)
	if q == "" || t == "" {
		return 0
	}

	switch {
	case q == t:
		return 1.0
	case strings.HasPrefix(t, q):
		return 0.9
	case strings.Contains(t, q):
		return 0.7
	}

	return subsequenceScore(q, t)
}

func subsequenceScore(q, t string) float64 {
	var sum float64
	matched := 0
	last := -1

	for _, c := range []byte(q) {
		idx := strings.IndexByte(t[last+1:], c)
		if idx < 0 {
			continue
		}
		pos := last + 1 + idx
		gap := pos - last
		sum += 1 / float64(gap)
		matched++
		last = pos
	}

	if matched == 0 {
		return 0
	}

	completeness := float64(matched) / float64(len(q))
	return (sum / float64(matched)) * completeness
}

// AliasedEntry is a catalog entry that can be matched by its primary name or
// any of its aliases.
type AliasedEntry interface {
	PrimaryName() string
	AliasNames() []string
}

// MatchAliased scores query against every entry's name and aliases and
// returns the index of the best-scoring entry. Candidates below the score
// floor are discarded; ties keep the earlier entry.
func MatchAliased[E AliasedEntry](query string, entries []E) (int, bool) {
	bestIdx := -1
	bestScore := 0.0

	for i, entry := range entries {
		score := Score(query, entry.PrimaryName())
		for _, alias := range entry.AliasNames() {
			if s := Score(query, alias); s > score {
				score = s
			}
		}
		if score >= minFuzzyScore && score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestIdx < 0 {
		return 0, false
	}
	return bestIdx, true
}
