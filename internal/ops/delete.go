package ops

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/EightFlix/Error/internal/errors"
)

// MinDeletePatternRunes guards against deleting the whole catalogue with a
// one-character pattern.
const MinDeletePatternRunes = 2

// DeleteOutput reports a bulk delete.
type DeleteOutput struct {
	Deleted int64  `json:"deleted"`
	Pattern string `json:"pattern"`
}

// DeleteByPattern removes every record whose file name contains pattern,
// matched literally and case-insensitively, and clears the search cache.
func (c *Catalog) DeleteByPattern(ctx context.Context, pattern string) (*DeleteOutput, error) {
	pattern = strings.TrimSpace(pattern)
	if utf8.RuneCountInString(pattern) < MinDeletePatternRunes {
		return nil, errors.NewInvalidRequest("pattern must be at least 2 characters")
	}

	n, err := c.store.DeleteByPattern(ctx, regexp.QuoteMeta(pattern))
	if err != nil {
		return nil, err
	}
	c.engine.ClearCache()

	c.log.Info("bulk delete", "pattern", pattern, "deleted", n)
	return &DeleteOutput{Deleted: n, Pattern: pattern}, nil
}
