// Package search is the retrieval pipeline: a cascade of full-text, literal
// regex and typo-tolerant lookups against a record store, memoized by a
// short-lived result cache.
package search

import (
	"cmp"
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/EightFlix/Error/internal/cache"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/media"
)

// DefaultPageSize is used when a non-positive page size is requested.
const DefaultPageSize = 10

// MinQueryRunes is the shortest query that reaches the store.
const MinQueryRunes = 2

// Store is the query side of a record store.
type Store interface {
	TextSearch(ctx context.Context, query string, offset, limit int) ([]media.FileRecord, int, error)
	RegexSearch(ctx context.Context, pattern string, offset, limit int) ([]media.FileRecord, int, error)
	DistinctNames(ctx context.Context, limit int) ([]string, error)
	FindByNames(ctx context.Context, names []string, limit int) ([]media.FileRecord, error)
}

// Stage names the cascade step that produced a result.
type Stage string

const (
	StageNone  Stage = "none"
	StageText  Stage = "text"
	StageRegex Stage = "regex"
	StageFuzzy Stage = "fuzzy"
)

// Result is one page of search results.
type Result struct {
	Files      []media.FileRecord `json:"files"`
	NextOffset string             `json:"next_offset"`
	Total      int                `json:"total"`
	Stage      Stage              `json:"stage"`
}

// Options configures an Engine.
type Options struct {
	PageSize int

	// CacheTTL <= 0 disables result caching.
	CacheTTL  time.Duration
	CacheSize int

	// DistinctNamesLimit caps the name scan used when typo variants miss.
	// Zero skips the scan.
	DistinctNamesLimit int

	DisableFuzzy bool

	Logger *logger.Logger
}

// Engine runs searches against a Store. It is safe for concurrent use;
// concurrent identical queries may both miss the cache.
type Engine struct {
	store         Store
	cache         *cache.Cache[Result]
	pageSize      int
	distinctLimit int
	fuzzy         bool
	log           *logger.Logger
}

// NewEngine creates an engine that owns its own result cache.
func NewEngine(store Store, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Engine{
		store:         store,
		cache:         cache.New[Result]("search", opts.CacheSize, opts.CacheTTL),
		pageSize:      opts.PageSize,
		distinctLimit: opts.DistinctNamesLimit,
		fuzzy:         !opts.DisableFuzzy,
		log:           opts.Logger.WithComponent("search"),
	}
}

// PageSize returns the default page size.
func (e *Engine) PageSize() int { return e.pageSize }

// FuzzyEnabled reports whether typo correction runs.
func (e *Engine) FuzzyEnabled() bool { return e.fuzzy }

// CacheLen returns the number of cached pages.
func (e *Engine) CacheLen() int { return e.cache.Len() }

// ClearCache drops every cached page. Writers call it after mutations.
func (e *Engine) ClearCache() { e.cache.Clear() }

// CacheKey identifies a cached page.
func CacheKey(query string, offset, maxResults int) string {
	return strings.ToLower(query) + ":" + strconv.Itoa(offset) + ":" + strconv.Itoa(maxResults)
}

// NextOffset returns the offset of the following page, or "" on the last one.
func NextOffset(offset, maxResults, total int) string {
	if offset+maxResults >= total {
		return ""
	}
	return strconv.Itoa(offset + maxResults)
}

// Search returns one page of records matching query. Store failures are
// logged and degrade to an empty stage; Search never fails.
func (e *Engine) Search(ctx context.Context, query string, offset, maxResults int) Result {
	q := media.NormalizeSpace(query)
	if utf8.RuneCountInString(q) < MinQueryRunes {
		return Result{Files: []media.FileRecord{}, Stage: StageNone}
	}
	if offset < 0 {
		offset = 0
	}
	if maxResults <= 0 {
		maxResults = e.pageSize
	}

	key := CacheKey(q, offset, maxResults)
	if res, ok := e.cache.Get(key); ok {
		return res
	}

	start := time.Now()
	log := e.log.WithQuery(q, offset)
	res := e.cascade(ctx, log, q, offset, maxResults)
	observe(res, time.Since(start))

	e.cache.Set(key, res)
	return res
}

func (e *Engine) cascade(ctx context.Context, log *logger.Logger, q string, offset, maxResults int) Result {
	files, total, err := e.store.TextSearch(ctx, q, offset, maxResults)
	if err != nil {
		log.Warn("text search failed", "error", err)
	} else if len(files) > 0 {
		return pageResult(StageText, files, offset, maxResults, total)
	}

	files, total, err = e.store.RegexSearch(ctx, regexp.QuoteMeta(q), offset, maxResults)
	if err != nil {
		log.Warn("regex search failed", "error", err)
	} else if len(files) > 0 {
		return pageResult(StageRegex, files, offset, maxResults, total)
	}

	if e.fuzzy && Qualifies(q, offset) {
		if files := e.correct(ctx, log, q, maxResults); len(files) > 0 {
			return Result{Files: files, Total: len(files), Stage: StageFuzzy}
		}
	}

	return Result{Files: []media.FileRecord{}, Stage: StageNone}
}

func pageResult(stage Stage, files []media.FileRecord, offset, maxResults, total int) Result {
	return Result{
		Files:      files,
		NextOffset: NextOffset(offset, maxResults, total),
		Total:      total,
		Stage:      stage,
	}
}

type candidate struct {
	rec   media.FileRecord
	score float64
}

// correct looks up typo variants of q, then falls back to scoring distinct
// names, and returns at most maxResults records by descending similarity.
func (e *Engine) correct(ctx context.Context, log *logger.Logger, q string, maxResults int) []media.FileRecord {
	best := make(map[string]candidate)
	consider := func(recs []media.FileRecord) {
		for _, rec := range recs {
			score := Similarity(q, rec.FileName)
			if score < MinScore {
				continue
			}
			if prev, ok := best[rec.ID]; !ok || score > prev.score {
				best[rec.ID] = candidate{rec: rec, score: score}
			}
		}
	}

	variants := Variants(q)
	if len(variants) > queriedVariants {
		variants = variants[:queriedVariants]
	}
	for _, v := range variants {
		recs, _, err := e.store.RegexSearch(ctx, regexp.QuoteMeta(v), 0, 2*maxResults)
		if err != nil {
			log.Warn("fuzzy variant search failed", "variant", v, "error", err)
			continue
		}
		consider(recs)
	}

	if len(best) < maxResults && e.distinctLimit > 0 {
		if names := e.closestNames(ctx, log, q, maxResults); len(names) > 0 {
			recs, err := e.store.FindByNames(ctx, names, 2*maxResults)
			if err != nil {
				log.Warn("fuzzy name lookup failed", "error", err)
			} else {
				consider(recs)
			}
		}
	}

	ranked := make([]candidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}
	slices.SortFunc(ranked, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		if c := b.rec.UpdatedAt.Compare(a.rec.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.rec.ID, b.rec.ID)
	})
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	out := make([]media.FileRecord, len(ranked))
	for i, c := range ranked {
		out[i] = c.rec
	}
	return out
}

// closestNames returns up to n distinct file names scoring at least MinScore
// against q, best first.
func (e *Engine) closestNames(ctx context.Context, log *logger.Logger, q string, n int) []string {
	names, err := e.store.DistinctNames(ctx, e.distinctLimit)
	if err != nil {
		log.Warn("distinct names scan failed", "error", err)
		return nil
	}

	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, name := range names {
		if s := Similarity(q, name); s >= MinScore {
			hits = append(hits, scored{name, s})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int { return cmp.Compare(b.score, a.score) })
	if len(hits) > n {
		hits = hits[:n]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}
