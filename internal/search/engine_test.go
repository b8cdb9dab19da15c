package search

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/media"
)

// fakeStore is an in-memory Store that counts calls per method.
type fakeStore struct {
	mu    sync.Mutex
	recs  []media.FileRecord
	calls map[string]int

	// noText makes TextSearch find nothing, as when tokens don't overlap.
	noText bool
	// failing makes the named methods return an error.
	failing map[string]bool

	patterns []string
}

func newFakeStore(recs ...media.FileRecord) *fakeStore {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range recs {
		if recs[i].UpdatedAt.IsZero() {
			recs[i].UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		}
	}
	return &fakeStore{recs: recs, calls: map[string]int{}, failing: map[string]bool{}}
}

func (f *fakeStore) called(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.failing[method] {
		return fmt.Errorf("%s: connection refused", method)
	}
	return nil
}

func (f *fakeStore) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) newestFirst(match func(media.FileRecord) bool) []media.FileRecord {
	var out []media.FileRecord
	for _, r := range f.recs {
		if match(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b media.FileRecord) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out
}

func window(recs []media.FileRecord, offset, limit int) []media.FileRecord {
	if offset >= len(recs) {
		return nil
	}
	end := min(offset+limit, len(recs))
	return recs[offset:end]
}

func (f *fakeStore) TextSearch(_ context.Context, query string, offset, limit int) ([]media.FileRecord, int, error) {
	if err := f.called("text"); err != nil {
		return nil, 0, err
	}
	if f.noText {
		return nil, 0, nil
	}
	want := media.Tokens(query)
	hits := f.newestFirst(func(r media.FileRecord) bool {
		have := media.Tokens(r.FileName + " " + r.Caption)
		for _, w := range want {
			if slices.Contains(have, w) {
				return true
			}
		}
		return false
	})
	return window(hits, offset, limit), len(hits), nil
}

func (f *fakeStore) RegexSearch(_ context.Context, pattern string, offset, limit int) ([]media.FileRecord, int, error) {
	if err := f.called("regex"); err != nil {
		return nil, 0, err
	}
	f.mu.Lock()
	f.patterns = append(f.patterns, pattern)
	f.mu.Unlock()
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, 0, err
	}
	hits := f.newestFirst(func(r media.FileRecord) bool { return re.MatchString(r.FileName) })
	return window(hits, offset, limit), len(hits), nil
}

func (f *fakeStore) DistinctNames(_ context.Context, limit int) ([]string, error) {
	if err := f.called("distinct"); err != nil {
		return nil, err
	}
	var names []string
	for _, r := range f.newestFirst(func(media.FileRecord) bool { return true }) {
		if !slices.Contains(names, r.FileName) {
			names = append(names, r.FileName)
		}
	}
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (f *fakeStore) FindByNames(_ context.Context, names []string, limit int) ([]media.FileRecord, error) {
	if err := f.called("names"); err != nil {
		return nil, err
	}
	hits := f.newestFirst(func(r media.FileRecord) bool { return slices.Contains(names, r.FileName) })
	return window(hits, 0, limit), nil
}

func newEngine(store Store, ttl time.Duration) *Engine {
	return NewEngine(store, Options{
		PageSize:           10,
		CacheTTL:           ttl,
		CacheSize:          100,
		DistinctNamesLimit: 5000,
		Logger:             logger.Discard(),
	})
}

func fileIDs(recs []media.FileRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestSearch_ShortQueryTouchesNothing(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "x", FileName: "X Men"})
	e := newEngine(store, time.Minute)

	for _, q := range []string{"", " ", "a", "  X  "} {
		res := e.Search(context.Background(), q, 0, 10)
		assert.Empty(t, res.Files, "query %q", q)
		assert.Equal(t, "", res.NextOffset)
		assert.Equal(t, 0, res.Total)
	}
	assert.Equal(t, 0, store.total(), "short queries must not reach the store")
	assert.Equal(t, 0, e.CacheLen(), "short queries are not cached")
}

func TestSearch_TextHitShortCircuits(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "x1", FileName: "Avengers Endgame 1080p"})
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "avengers", 0, 10)
	assert.Equal(t, StageText, res.Stage)
	assert.Equal(t, []string{"x1"}, fileIDs(res.Files))
	assert.Equal(t, 1, store.count("text"))
	assert.Equal(t, 0, store.count("regex"))
	assert.Equal(t, 0, store.count("distinct"))
	assert.Equal(t, 0, store.count("names"))
}

func TestSearch_RegexFallbackIsLiteral(t *testing.T) {
	store := newFakeStore(
		media.FileRecord{ID: "lit", FileName: "a.b(c.mkv"},
		media.FileRecord{ID: "other", FileName: "axb(c.mkv"},
	)
	store.noText = true
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "a.b(c", 0, 10)
	assert.Equal(t, StageRegex, res.Stage)
	assert.Equal(t, []string{"lit"}, fileIDs(res.Files))
	require.NotEmpty(t, store.patterns)
	assert.Equal(t, regexp.QuoteMeta("a.b(c"), store.patterns[0])
}

func TestSearch_Pagination(t *testing.T) {
	var recs []media.FileRecord
	for i := 0; i < 25; i++ {
		recs = append(recs, media.FileRecord{ID: fmt.Sprintf("ep%02d", i), FileName: fmt.Sprintf("Series Episode %d", i)})
	}
	e := newEngine(newFakeStore(recs...), time.Minute)

	tests := []struct {
		offset int
		want   string
		size   int
	}{
		{0, "10", 10},
		{10, "20", 10},
		{20, "", 5},
	}
	for _, tt := range tests {
		res := e.Search(context.Background(), "series", tt.offset, 10)
		assert.Equal(t, 25, res.Total)
		assert.Equal(t, tt.want, res.NextOffset, "offset %d", tt.offset)
		assert.Len(t, res.Files, tt.size)
	}
}

func TestSearch_FuzzyCorrectsTypo(t *testing.T) {
	store := newFakeStore(
		media.FileRecord{ID: "i1", FileName: "Interstellar"},
		media.FileRecord{ID: "x1", FileName: "Avengers Endgame 1080p", Quality: media.Quality1080p},
		media.FileRecord{ID: "n1", FileName: "Notting Hill"},
	)
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "Intersteller", 0, 10)
	assert.Equal(t, StageFuzzy, res.Stage)
	assert.Equal(t, []string{"i1"}, fileIDs(res.Files))
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "", res.NextOffset)

	res = e.Search(context.Background(), "avenegrs", 0, 10)
	assert.Equal(t, StageFuzzy, res.Stage)
	assert.Equal(t, []string{"x1"}, fileIDs(res.Files))
}

func TestSearch_FuzzyVariantHit(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "o", FileName: "0ceans Eleven"})
	store.noText = true
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "oceans", 0, 10)
	assert.Equal(t, StageFuzzy, res.Stage)
	assert.Equal(t, []string{"o"}, fileIDs(res.Files))
	assert.Contains(t, store.patterns, "0ceans")
}

func TestSearch_FuzzyGating(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		offset int
	}{
		{"too short", "ab", 0},
		{"too long", "abcdefghijklmnop", 0},
		{"quality marker", "zzz 1080p", 0},
		{"glued quality marker", "zzz1080p", 0},
		{"second page", "zzzz", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(media.FileRecord{ID: "z", FileName: "Something Else"})
			e := newEngine(store, 0)

			res := e.Search(context.Background(), tt.query, tt.offset, 10)
			assert.Empty(t, res.Files)
			assert.Equal(t, StageNone, res.Stage)
			assert.Equal(t, 1, store.count("regex"), "only the literal fallback runs")
			assert.Equal(t, 0, store.count("distinct"))
		})
	}
}

func TestSearch_GluedQualityMarkerSkipsFuzzy(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "a7", FileName: "Avengers 720p", Quality: media.Quality720p})
	store.noText = true
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "avengers1080p", 0, 10)
	assert.Empty(t, res.Files)
	assert.Equal(t, StageNone, res.Stage)
	assert.Equal(t, 0, store.count("distinct"))
}

func TestSearch_FuzzyDisabled(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "i1", FileName: "Interstellar"})
	e := NewEngine(store, Options{DisableFuzzy: true, DistinctNamesLimit: 100, Logger: logger.Discard()})

	res := e.Search(context.Background(), "Intersteller", 0, 10)
	assert.Empty(t, res.Files)
	assert.False(t, e.FuzzyEnabled())
	assert.Equal(t, 0, store.count("distinct"))
}

func TestSearch_FuzzyRanksAndTruncates(t *testing.T) {
	store := newFakeStore(
		media.FileRecord{ID: "a", FileName: "Matrix Reloaded"},
		media.FileRecord{ID: "b", FileName: "The Matrix"},
		media.FileRecord{ID: "c", FileName: "Matrix"},
	)
	store.noText = true
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "matrx", 0, 2)
	assert.Equal(t, StageFuzzy, res.Stage)
	require.Len(t, res.Files, 2)
	assert.Equal(t, 2, res.Total)
	// All three score equally on the "matrix" word; newest wins ties.
	assert.Equal(t, []string{"c", "b"}, fileIDs(res.Files))
}

func TestSearch_CacheIsTransparent(t *testing.T) {
	recs := []media.FileRecord{
		{ID: "x1", FileName: "Avengers Endgame 1080p"},
		{ID: "i1", FileName: "Interstellar"},
		{ID: "l1", FileName: "a.b(c.mkv"},
	}
	queries := []string{"avengers", "Intersteller", "a.b(c", "nothing here", "Avengers"}

	cached := newEngine(newFakeStore(recs...), time.Minute)
	uncached := newEngine(newFakeStore(recs...), 0)
	for _, q := range queries {
		for round := 0; round < 2; round++ {
			a := cached.Search(context.Background(), q, 0, 10)
			b := uncached.Search(context.Background(), q, 0, 10)
			assert.Equal(t, fileIDs(b.Files), fileIDs(a.Files), "query %q", q)
			assert.Equal(t, b.Total, a.Total, "query %q", q)
			assert.Equal(t, b.NextOffset, a.NextOffset, "query %q", q)
		}
	}
}

func TestSearch_CacheHitSkipsStore(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "x1", FileName: "Avengers"})
	e := newEngine(store, time.Minute)
	ctx := context.Background()

	e.Search(ctx, "avengers", 0, 10)
	calls := store.total()
	e.Search(ctx, "AVENGERS", 0, 10)
	assert.Equal(t, calls, store.total(), "case-insensitive key hits the cache")

	e.Search(ctx, "avengers", 0, 5)
	assert.Greater(t, store.total(), calls, "page size is part of the key")

	calls = store.total()
	e.Search(ctx, "nothing matches", 0, 10)
	after := store.total()
	e.Search(ctx, "nothing matches", 0, 10)
	assert.Greater(t, after, calls)
	assert.Equal(t, after, store.total(), "empty results are cached too")

	e.ClearCache()
	e.Search(ctx, "avengers", 0, 10)
	assert.Greater(t, store.total(), after)
}

func TestSearch_StoreErrorsDegrade(t *testing.T) {
	store := newFakeStore(media.FileRecord{ID: "x1", FileName: "Avengers Endgame"})
	store.failing["text"] = true
	e := newEngine(store, 0)

	res := e.Search(context.Background(), "avengers", 0, 10)
	assert.Equal(t, StageRegex, res.Stage, "a failing text index falls through to regex")
	assert.Equal(t, []string{"x1"}, fileIDs(res.Files))

	for _, m := range []string{"regex", "distinct", "names"} {
		store.failing[m] = true
	}
	res = e.Search(context.Background(), "avenegrs", 0, 10)
	assert.Empty(t, res.Files)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, "", res.NextOffset)
}

func TestNextOffset(t *testing.T) {
	assert.Equal(t, "10", NextOffset(0, 10, 25))
	assert.Equal(t, "20", NextOffset(10, 10, 25))
	assert.Equal(t, "", NextOffset(20, 10, 25))
	assert.Equal(t, "", NextOffset(0, 10, 10))
	assert.Equal(t, "", NextOffset(0, 10, 0))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "dune part:0:10", CacheKey("Dune Part", 0, 10))
	assert.NotEqual(t, CacheKey("dune", 0, 10), CacheKey("dune", 10, 10))
}
