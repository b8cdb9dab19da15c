package media

import "time"

// FileRecord is one indexed media item.
type FileRecord struct {
	// ID is the packed provider file identifier (see package fileid).
	// Re-indexing the same provider file yields the same ID.
	ID string `json:"id"`

	// FileName is the cleaned display name.
	FileName string `json:"file_name"`

	// Caption is the cleaned caption, possibly empty.
	Caption string `json:"caption"`

	// FileSize is the size in bytes.
	FileSize int64 `json:"file_size"`

	// Quality is derived from the name, not authoritative metadata.
	Quality Quality `json:"quality"`

	// UpdatedAt is the last write time.
	UpdatedAt time.Time `json:"updated_at"`
}

// Quality is a coarse resolution tag.
type Quality string

const (
	Quality2160p   Quality = "2160p"
	Quality1440p   Quality = "1440p"
	Quality1080p   Quality = "1080p"
	Quality720p    Quality = "720p"
	Quality480p    Quality = "480p"
	Quality360p    Quality = "360p"
	QualityUnknown Quality = "unknown"
)

// Qualities lists every quality tag, highest resolution first.
var Qualities = []Quality{
	Quality2160p, Quality1440p, Quality1080p, Quality720p, Quality480p, Quality360p, QualityUnknown,
}

// Valid reports whether q is one of the known tags.
func (q Quality) Valid() bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// ParseQuality maps s to a Quality. Anything unrecognised becomes QualityUnknown.
func ParseQuality(s string) Quality {
	q := Quality(s)
	if q.Valid() {
		return q
	}
	return QualityUnknown
}
