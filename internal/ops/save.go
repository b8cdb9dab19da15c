package ops

import (
	"context"

	"github.com/EightFlix/Error/internal/fileid"
	"github.com/EightFlix/Error/internal/media"
)

// Save outcomes.
const (
	SaveCreated = "suc"
	SaveUpdated = "dup"
	SaveFailed  = "err"
)

// SaveInput is one media message to index.
type SaveInput struct {
	FileRef  string `json:"file_ref"` // provider file reference (base64url)
	FileName string `json:"file_name"`
	Caption  string `json:"caption,omitempty"`
	FileSize int64  `json:"file_size"`
}

// SaveOutput reports what Save did.
type SaveOutput struct {
	Result string `json:"result"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Save indexes a record, inserting it or merging it into the existing row
// with the same id. Failures are reported as SaveFailed, never as an error.
func (c *Catalog) Save(ctx context.Context, input SaveInput) SaveOutput {
	id, err := fileid.Unpack(input.FileRef)
	if err != nil {
		return c.saveFailed("", "decode", err.Error())
	}

	name := media.CleanText(input.FileName)
	if name == "" {
		return c.saveFailed(id, "validate", "file_name is empty after cleaning")
	}
	if input.FileSize < 0 {
		return c.saveFailed(id, "validate", "file_size must not be negative")
	}

	caption := media.CleanText(input.Caption)
	rec := media.FileRecord{
		ID:       id,
		FileName: name,
		Caption:  caption,
		FileSize: input.FileSize,
		Quality:  media.DetectQualityFrom(name, caption),
	}

	created, err := c.store.Upsert(ctx, rec)
	if err != nil {
		return c.saveFailed(id, "store", err.Error())
	}

	if created {
		return SaveOutput{Result: SaveCreated, ID: id}
	}
	return SaveOutput{Result: SaveUpdated, ID: id}
}

func (c *Catalog) saveFailed(id, stage, reason string) SaveOutput {
	c.log.Warn("save rejected", "id", id, "stage", stage, "reason", reason)
	return SaveOutput{Result: SaveFailed, ID: id, Reason: reason}
}
