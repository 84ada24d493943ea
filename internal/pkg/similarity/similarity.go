// Package similarity decides whether two notification titles describe the
// same underlying card event.
package similarity

import (
	"slices"
	"sort"
	"strings"
	"unicode"
)

// Threshold is the minimum score for two titles to count as the same event.
// Tuned so that reworded announcements ("20% bonus on transfers to X" vs
// "Get 20% transfer bonus to X") match while different events on the same
// card do not. Changing it requires updating the boundary tests.
const Threshold = 0.85

// IsTitleSimilar reports whether candidate is a near-duplicate of existing.
func IsTitleSimilar(existing, candidate string) bool {
	a := strings.ToLower(strings.TrimSpace(existing))
	b := strings.ToLower(strings.TrimSpace(candidate))
	if a == b {
		return true
	}
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	// Amounts identify the event: "$50 off $500" is not "$500 off $50".
	if !slices.Equal(amounts(na), amounts(nb)) {
		return false
	}
	return Score(a, b) >= Threshold
}

// Score returns a similarity in [0,1] where 1 means identical after
// normalization. It is 1 - levenshtein/len(longer), taking the better of the
// plain and the word-sorted forms so reordered phrasing is not penalised.
func Score(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	plain := ratio(na, nb)
	sorted := ratio(sortWords(na), sortWords(nb))
	if sorted > plain {
		return sorted
	}
	return plain
}

func ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein is the classic two-row dynamic programming edit distance.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// normalize lower-cases, turns punctuation other than % and $ into spaces and
// collapses whitespace.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '%', r == '$':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// amounts returns the words of a normalized title that contain a digit, in
// order of appearance.
func amounts(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if strings.ContainsFunc(w, unicode.IsDigit) {
			out = append(out, w)
		}
	}
	return out
}

func sortWords(s string) string {
	words := strings.Fields(s)
	sort.Strings(words)
	return strings.Join(words, " ")
}
