// Package ops is the catalog service: ingestion and query operations over a
// record store, shared by the MCP, HTTP and CLI surfaces.
package ops

import (
	"context"

	"github.com/EightFlix/Error/internal/config"
	"github.com/EightFlix/Error/internal/logger"
	"github.com/EightFlix/Error/internal/media"
	"github.com/EightFlix/Error/internal/pager"
	"github.com/EightFlix/Error/internal/search"
)

// Store is a record store with both query and write sides.
type Store interface {
	search.Store

	Upsert(ctx context.Context, rec media.FileRecord) (created bool, err error)
	GetByID(ctx context.Context, id string) (*media.FileRecord, error)
	UpdateCaption(ctx context.Context, id, caption string) (bool, error)
	UpdateQuality(ctx context.Context, id string, quality media.Quality) (bool, error)
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Catalog owns the search engine, its cache and the pagination sessions for
// one store.
type Catalog struct {
	store   Store
	engine  *search.Engine
	pages   *pager.Registry
	suggest *search.Suggester
	admins  map[int64]bool
	log     *logger.Logger
}

// NewCatalog wires a catalog from configuration.
func NewCatalog(store Store, cfg *config.Config, log *logger.Logger) *Catalog {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}
	return &Catalog{
		store:  store,
		admins: admins,
		engine: search.NewEngine(store, search.Options{
			PageSize:           cfg.PageSize,
			CacheTTL:           cfg.CacheTTL(),
			CacheSize:          cfg.CacheMaxEntries,
			DistinctNamesLimit: cfg.DistinctNamesLimit,
			DisableFuzzy:       cfg.DisableFuzzy,
			Logger:             log,
		}),
		pages:   pager.NewRegistry(cfg.PageTokenMax, cfg.PageTokenTTL()),
		suggest: search.NewSuggester(search.DefaultVocabulary),
		log:     log.WithComponent("catalog"),
	}
}

// Close closes the underlying store.
func (c *Catalog) Close() error {
	return c.store.Close()
}
