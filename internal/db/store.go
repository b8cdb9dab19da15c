package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/media"
)

// Count caps keep count queries bounded on large catalogues.
const (
	TextCountCap  = 10000
	RegexCountCap = 5000
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.FlixError{
	Code:    errors.ErrUniqueConstraint,
	Status:  409,
	Message: "unique constraint violation",
}

// Options tune query behaviour.
type Options struct {
	// UseCaptionFilter makes regex search match captions as well as names.
	UseCaptionFilter bool
}

// Store is the SQLite record store.
type Store struct {
	db   *sqlx.DB
	opts Options
}

func init() {
	// modernc registers as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewStore wraps an initialized database (see Init).
func NewStore(database *sql.DB, opts Options) *Store {
	return &Store{db: sqlx.NewDb(database, "sqlite"), opts: opts}
}

// fileRow mirrors the files table.
type fileRow struct {
	ID        string `db:"id"`
	FileName  string `db:"file_name"`
	Caption   string `db:"caption"`
	FileSize  int64  `db:"file_size"`
	Quality   string `db:"quality"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r fileRow) record() media.FileRecord {
	return media.FileRecord{
		ID:        r.ID,
		FileName:  r.FileName,
		Caption:   r.Caption,
		FileSize:  r.FileSize,
		Quality:   media.ParseQuality(r.Quality),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
}

func records(rows []fileRow) []media.FileRecord {
	out := make([]media.FileRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out
}

const selectColumns = `id, file_name, caption, file_size, quality, created_at, updated_at`

// Upsert inserts rec, or merges caption, quality, size and updated_at into the
// existing row with the same id. created reports whether a new row was made.
func (s *Store) Upsert(ctx context.Context, rec media.FileRecord) (created bool, err error) {
	now := time.Now().UnixMilli()
	row := fileRow{
		ID:        rec.ID,
		FileName:  rec.FileName,
		Caption:   rec.Caption,
		FileSize:  rec.FileSize,
		Quality:   string(media.ParseQuality(string(rec.Quality))),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.insert(ctx, row)
	if err == nil {
		return true, nil
	}
	if err != ErrUniqueConstraint {
		return false, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE files
		SET caption = ?, quality = ?, file_size = ?, updated_at = ?
		WHERE id = ?
	`, row.Caption, row.Quality, row.FileSize, row.UpdatedAt, row.ID)
	if err != nil {
		return false, errors.NewStore("upsert", err)
	}
	return false, nil
}

func (s *Store) insert(ctx context.Context, row fileRow) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO files (id, file_name, caption, file_size, quality, created_at, updated_at)
		VALUES (:id, :file_name, :caption, :file_size, :quality, :created_at, :updated_at)
	`, row)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewStore("insert", err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID returns the record with the given id, or NOT_FOUND.
func (s *Store) GetByID(ctx context.Context, id string) (*media.FileRecord, error) {
	var row fileRow
	err := s.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM files WHERE id = ?`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStore("get_by_id", err)
	}
	rec := row.record()
	return &rec, nil
}

// UpdateCaption replaces the caption of one record.
func (s *Store) UpdateCaption(ctx context.Context, id, caption string) (bool, error) {
	return s.updateOne(ctx, "update_caption", `
		UPDATE files SET caption = ?, updated_at = ? WHERE id = ?
	`, caption, time.Now().UnixMilli(), id)
}

// UpdateQuality replaces the quality tag of one record.
func (s *Store) UpdateQuality(ctx context.Context, id string, quality media.Quality) (bool, error) {
	return s.updateOne(ctx, "update_quality", `
		UPDATE files SET quality = ?, updated_at = ? WHERE id = ?
	`, string(media.ParseQuality(string(quality))), time.Now().UnixMilli(), id)
}

func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.NewStore(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewStore(op, err)
	}
	return n > 0, nil
}

// DeleteByPattern removes every record whose file name matches the
// case-insensitive RE2 pattern and returns how many were removed.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE file_name REGEXP ?`, caseInsensitive(pattern))
	if err != nil {
		return 0, errors.NewStore("delete_by_pattern", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStore("delete_by_pattern", err)
	}
	return n, nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM files`); err != nil {
		return 0, errors.NewStore("count", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStore("ping", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
