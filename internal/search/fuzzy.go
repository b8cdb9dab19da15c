package search

import (
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/EightFlix/Error/internal/media"
)

// Typo-correction limits.
const (
	MinFuzzyRunes = 3
	MaxFuzzyRunes = 15

	// MinScore is the lowest similarity a fuzzy candidate may have.
	MinScore = 0.6

	maxVariants     = 5
	queriedVariants = 3
	substitutedHead = 2
)

// lookalikes maps a character to the characters commonly typed in its place.
var lookalikes = map[rune][]string{
	'o': {"0", "oo"},
	'0': {"o"},
	'i': {"1", "l"},
	'1': {"i", "l"},
	'l': {"i", "1"},
	's': {"5", "z"},
	'5': {"s"},
	'e': {"3"},
	'a': {"4", "@"},
	't': {"7"},
}

// Qualifies reports whether q may go through typo correction: first page
// only, a short title, and no explicit resolution marker.
func Qualifies(q string, offset int) bool {
	if offset != 0 {
		return false
	}
	n := utf8.RuneCountInString(q)
	if n < MinFuzzyRunes || n > MaxFuzzyRunes {
		return false
	}
	return !media.HasQualityMarker(q)
}

// Variants returns q followed by look-alike substitutions in its first two
// characters and its space-free form. The list is unique and holds at most
// five entries.
func Variants(q string) []string {
	out := []string{q}
	seen := map[string]bool{q: true}
	add := func(v string) {
		if len(out) < maxVariants && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	lower := []rune(strings.ToLower(q))
	for i := 0; i < substitutedHead && i < len(lower); i++ {
		for _, rep := range lookalikes[lower[i]] {
			add(string(lower[:i]) + rep + string(lower[i+1:]))
		}
	}

	if compact := strings.ReplaceAll(q, " ", ""); len(compact) > 2 {
		add(compact)
	}
	return out
}

// Similarity scores name against query in [0, 1]. Both are normalized
// first; the score is the better of the whole-name ratio and the best ratio
// over runs of consecutive words in name as long as the query.
func Similarity(query, name string) float64 {
	q := media.NormalizeForMatch(query)
	n := media.NormalizeForMatch(name)
	if q == "" || n == "" {
		return 0
	}

	best := ratio(q, n)
	qWords := len(strings.Fields(q))
	words := strings.Fields(n)
	for i := 0; i+qWords <= len(words); i++ {
		if r := ratio(q, strings.Join(words[i:i+qWords], " ")); r > best {
			best = r
		}
	}
	return best
}

// ratio is difflib's SequenceMatcher ratio computed over runes.
func ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
