package ops

import (
	"context"
	"strings"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/media"
)

// UpdateOutput reports whether a record was changed.
type UpdateOutput struct {
	Updated bool          `json:"updated"`
	ID      string        `json:"id"`
	Quality media.Quality `json:"quality,omitempty"`
}

// UpdateCaption replaces the caption of a record, cleaning it first.
// Returns false when no record has the id. The search cache is cleared
// after a successful update.
func (c *Catalog) UpdateCaption(ctx context.Context, id, caption string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errors.NewInvalidRequest("id is required")
	}

	ok, err := c.store.UpdateCaption(ctx, id, media.CleanText(caption))
	if err != nil {
		return false, err
	}
	if ok {
		c.engine.ClearCache()
	}
	return ok, nil
}

// UpdateQuality re-derives a record's quality from newName.
// Returns false when no record has the id.
func (c *Catalog) UpdateQuality(ctx context.Context, id, newName string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errors.NewInvalidRequest("id is required")
	}

	ok, err := c.store.UpdateQuality(ctx, id, media.DetectQuality(newName))
	if err != nil {
		return false, err
	}
	if ok {
		c.engine.ClearCache()
	}
	return ok, nil
}
