package search

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xrash/smetrics"

	"github.com/EightFlix/Error/internal/media"
)

const (
	// DefaultVocabulary bounds the number of learned words.
	DefaultVocabulary = 5000

	// SuggestThreshold is the minimum Jaro-Winkler similarity for a replacement.
	SuggestThreshold = 0.85

	minKeywordRunes = 3
)

// Suggester learns words from successful queries and proposes corrections
// for misspelled ones. It is safe for concurrent use.
type Suggester struct {
	mu    sync.Mutex
	words *lru.Cache[string, int]
}

// NewSuggester creates a suggester remembering at most size words.
func NewSuggester(size int) *Suggester {
	if size <= 0 {
		size = DefaultVocabulary
	}
	words, _ := lru.New[string, int](size)
	return &Suggester{words: words}
}

// Learn records the words of a query that produced results.
func (s *Suggester) Learn(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range media.Tokens(query) {
		if !keyword(w) {
			continue
		}
		n, _ := s.words.Get(w)
		s.words.Add(w, n+1)
	}
}

// Len returns the number of learned words.
func (s *Suggester) Len() int {
	return s.words.Len()
}

// Suggest rewrites each unknown word of query to the closest learned word.
// ok is false when nothing would change.
func (s *Suggester) Suggest(query string) (suggestion string, ok bool) {
	words := strings.Fields(media.NormalizeForMatch(query))
	if len(words) == 0 {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vocab := s.words.Keys()
	changed := false
	for i, w := range words {
		if !keyword(w) || s.words.Contains(w) {
			continue
		}
		if best, found := s.closest(w, vocab); found {
			words[i] = best
			changed = true
		}
	}
	if !changed {
		return "", false
	}
	return strings.Join(words, " "), true
}

// closest picks the most similar learned word, preferring the more frequent
// one on equal similarity. Caller holds mu.
func (s *Suggester) closest(w string, vocab []string) (string, bool) {
	var (
		best      string
		bestScore float64
		bestCount int
	)
	for _, cand := range vocab {
		score := smetrics.JaroWinkler(w, cand, 0.7, 4)
		if score < SuggestThreshold {
			continue
		}
		count, _ := s.words.Peek(cand)
		if score > bestScore || (score == bestScore && count > bestCount) {
			best, bestScore, bestCount = cand, score, count
		}
	}
	return best, best != ""
}

// keyword reports whether w is worth learning: long enough and not a number.
func keyword(w string) bool {
	if utf8.RuneCountInString(w) < minKeywordRunes {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
