package ops

import "context"

// Health statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// HealthOutput summarizes catalog state.
type HealthOutput struct {
	Status       string `json:"status"`
	TotalFiles   int64  `json:"total_files"`
	CacheSize    int    `json:"cache_size"`
	Connected    bool   `json:"connected"`
	FuzzyEnabled bool   `json:"fuzzy_enabled"`
}

// Health pings the store and reports counts. It never fails; an unreachable
// store shows as degraded.
func (c *Catalog) Health(ctx context.Context) *HealthOutput {
	out := &HealthOutput{
		Status:       StatusOK,
		CacheSize:    c.engine.CacheLen(),
		FuzzyEnabled: c.engine.FuzzyEnabled(),
	}

	if err := c.store.Ping(ctx); err != nil {
		c.log.Warn("health ping failed", "error", err)
		out.Status = StatusDegraded
		return out
	}
	out.Connected = true

	n, err := c.store.Count(ctx)
	if err != nil {
		c.log.Warn("health count failed", "error", err)
		out.Status = StatusDegraded
		return out
	}
	out.TotalFiles = n
	return out
}
