package resolve

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultDistanceThreshold is the edit distance Matches tolerates.
const DefaultDistanceThreshold = 2

const (
	minSignificantWordLen = 3
	minSubstringLen       = 9
	minFuzzyLen           = 6
)

var (
	reAbsent        = regexp.MustCompile(`\(\s*absent\s*\)`)
	reSpaces        = regexp.MustCompile(`\s+`)
	reTrailingPunct = regexp.MustCompile(`[.,;]+$`)
	reLegalSuffix   = regexp.MustCompile(`\b(inc|llc|ltd|corp|co|gmbh|sa|s\.a|ltda)\b`)
)

// Normalize reduces an entity name to its canonical comparison form:
// lowercase, diacritics folded, "(absent)" annotations and legal-entity
// suffixes removed, punctuation stripped and whitespace collapsed.
//
// Normalize is idempotent.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = foldDiacritics(s)
	s = reAbsent.ReplaceAllString(s, "")

	// Removing suffixes and punctuation can expose new suffixes
	// ("in-c" -> "inc"), so run the reduction to a fixpoint.
	for {
		next := reduce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func reduce(s string) string {
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	s = reTrailingPunct.ReplaceAllString(s, "")
	s = reLegalSuffix.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, s)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Matches reports whether two names denote the same entity using the
// default edit distance threshold. It is symmetric.
func Matches(a, b string) bool {
	return MatchesWithin(a, b, DefaultDistanceThreshold)
}

// MatchesWithin reports whether two names denote the same entity. Names
// match when their normalized forms are equal, when they share enough
// significant words, when one long form contains the other, or when two
// similar-length forms are within threshold edits of each other.
func MatchesWithin(a, b string, threshold int) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}

	if wordsOverlap(na, nb) {
		return true
	}

	la, lb := utf8.RuneCountInString(na), utf8.RuneCountInString(nb)
	if la >= minSubstringLen && lb >= minSubstringLen {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return true
		}
	}

	if la >= minFuzzyLen && lb >= minFuzzyLen && abs(la-lb) <= threshold {
		return Levenshtein(na, nb) <= threshold
	}

	return false
}

// wordsOverlap is true when the significant words of a and b share at
// least two members, or cover every significant word of the shorter set.
func wordsOverlap(a, b string) bool {
	wa, wb := significantWords(a), significantWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	common := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	if common == 0 {
		return false
	}
	return common >= 2 || common == min(len(wa), len(wb))
}

func significantWords(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) >= minSignificantWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}

// Levenshtein returns the edit distance between a and b with unit cost
// insertions, deletions and substitutions, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
