package ops

import (
	"context"
	"strings"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/media"
)

// GetByID returns one record, or NOT_FOUND.
func (c *Catalog) GetByID(ctx context.Context, id string) (*media.FileRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return c.store.GetByID(ctx, id)
}
