package pgstore

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/media"
)

// Count caps keep count queries bounded on large catalogues.
const (
	TextCountCap  = 10000
	RegexCountCap = 5000
)

// Options tune query behaviour.
type Options struct {
	// UseCaptionFilter makes regex search match captions as well as names.
	UseCaptionFilter bool
}

// Store is the PostgreSQL record store.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
	opts Options
}

// New wraps a connected pool. Run Migrate first.
func New(pool *pgxpool.Pool, opts Options) *Store {
	return &Store{pool: pool, db: pool, opts: opts}
}

type fileRow struct {
	ID        string    `db:"id"`
	FileName  string    `db:"file_name"`
	Caption   string    `db:"caption"`
	FileSize  int64     `db:"file_size"`
	Quality   string    `db:"quality"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r fileRow) record() media.FileRecord {
	return media.FileRecord{
		ID:        r.ID,
		FileName:  r.FileName,
		Caption:   r.Caption,
		FileSize:  r.FileSize,
		Quality:   media.ParseQuality(r.Quality),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const selectColumns = `id, file_name, caption, file_size, quality, updated_at`

func (s *Store) collect(ctx context.Context, op, query string, args ...any) ([]media.FileRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStore(op, err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[fileRow])
	if err != nil {
		return nil, errors.NewStore(op, err)
	}
	out := make([]media.FileRecord, len(found))
	for i, r := range found {
		out[i] = r.record()
	}
	return out, nil
}

func (s *Store) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.NewStore(op, err)
	}
	return n, nil
}

// TSQuery turns free text into an OR-ed to_tsquery expression.
// Returns "" when the text has no indexable words.
func TSQuery(query string) string {
	return strings.Join(media.Tokens(query), " | ")
}

// TextSearch ranks records by ts_rank over the weighted search vector,
// ties broken by recency. total is capped at TextCountCap.
func (s *Store) TextSearch(ctx context.Context, query string, offset, limit int) ([]media.FileRecord, int, error) {
	tsq := TSQuery(query)
	if tsq == "" {
		return nil, 0, nil
	}

	recs, err := s.collect(ctx, "text_search", `
		SELECT `+selectColumns+`
		FROM files, to_tsquery('simple', $1) q
		WHERE search_vector @@ q
		ORDER BY ts_rank(search_vector, q) DESC, updated_at DESC, id DESC
		LIMIT $2 OFFSET $3`, tsq, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, "text_search_count", `
		SELECT count(*) FROM (
			SELECT 1 FROM files WHERE search_vector @@ to_tsquery('simple', $1) LIMIT $2
		) t`, tsq, TextCountCap)
	if err != nil {
		return nil, 0, err
	}

	return recs, total, nil
}

// RegexSearch matches pattern case-insensitively (~*) against file names,
// and captions when enabled, newest first. total is capped at RegexCountCap.
func (s *Store) RegexSearch(ctx context.Context, pattern string, offset, limit int) ([]media.FileRecord, int, error) {
	where := `file_name ~* $1`
	if s.opts.UseCaptionFilter {
		where = `(file_name ~* $1 OR caption ~* $1)`
	}

	recs, err := s.collect(ctx, "regex_search", `
		SELECT `+selectColumns+`
		FROM files
		WHERE `+where+`
		ORDER BY updated_at DESC, id DESC
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.count(ctx, "regex_search_count", `
		SELECT count(*) FROM (
			SELECT 1 FROM files WHERE `+where+` LIMIT $2
		) t`, pattern, RegexCountCap)
	if err != nil {
		return nil, 0, err
	}

	return recs, total, nil
}

// DistinctNames returns up to limit distinct file names, most recently updated first.
func (s *Store) DistinctNames(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT file_name FROM files
		GROUP BY file_name
		ORDER BY MAX(updated_at) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.NewStore("distinct_names", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.NewStore("distinct_names", err)
	}
	return names, nil
}

// FindByNames returns records whose file name is one of names, newest first.
func (s *Store) FindByNames(ctx context.Context, names []string, limit int) ([]media.FileRecord, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return s.collect(ctx, "find_by_names", `
		SELECT `+selectColumns+`
		FROM files
		WHERE file_name = ANY($1)
		ORDER BY updated_at DESC, id DESC
		LIMIT $2`, names, limit)
}

// Upsert inserts rec or merges caption, quality, size and updated_at into the
// existing row. created reports whether a new row was made.
func (s *Store) Upsert(ctx context.Context, rec media.FileRecord) (created bool, err error) {
	err = s.db.QueryRow(ctx, `
		INSERT INTO files (id, file_name, caption, file_size, quality, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			caption = EXCLUDED.caption,
			quality = EXCLUDED.quality,
			file_size = EXCLUDED.file_size,
			updated_at = now()
		RETURNING (xmax = 0) AS is_insert`,
		rec.ID, rec.FileName, rec.Caption, rec.FileSize, string(media.ParseQuality(string(rec.Quality))),
	).Scan(&created)
	if err != nil {
		return false, errors.NewStore("upsert", err)
	}
	return created, nil
}

// GetByID returns the record with the given id, or NOT_FOUND.
func (s *Store) GetByID(ctx context.Context, id string) (*media.FileRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT `+selectColumns+` FROM files WHERE id = $1`, id)
	if err != nil {
		return nil, errors.NewStore("get_by_id", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[fileRow])
	if stderrors.Is(err, pgx.ErrNoRows) {
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
	tag, err := s.db.Exec(ctx, `UPDATE files SET caption = $1, updated_at = now() WHERE id = $2`, caption, id)
	if err != nil {
		return false, errors.NewStore("update_caption", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateQuality replaces the quality tag of one record.
func (s *Store) UpdateQuality(ctx context.Context, id string, quality media.Quality) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE files SET quality = $1, updated_at = now() WHERE id = $2`,
		string(media.ParseQuality(string(quality))), id)
	if err != nil {
		return false, errors.NewStore("update_quality", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByPattern removes every record whose file name matches pattern
// case-insensitively and returns how many were removed.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM files WHERE file_name ~* $1`, pattern)
	if err != nil {
		return 0, errors.NewStore("delete_by_pattern", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, errors.NewStore("count", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errors.NewStore("ping", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
