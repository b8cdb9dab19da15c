package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/EightFlix/Error/internal/errors"
	"github.com/EightFlix/Error/internal/media"
)

// MatchExpression turns free text into an FTS5 MATCH expression: every word
// quoted and OR-ed, so user input is never parsed as query syntax.
// Returns "" when the text has no indexable words.
func MatchExpression(query string) string {
	tokens := media.Tokens(query)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = `"` + tok + `"`
	}
	return strings.Join(terms, " OR ")
}

// TextSearch ranks records by BM25 over name (weighted 5x) and caption,
// ties broken by recency. total is capped at TextCountCap.
func (s *Store) TextSearch(ctx context.Context, query string, offset, limit int) ([]media.FileRecord, int, error) {
	match := MatchExpression(query)
	if match == "" {
		return nil, 0, nil
	}

	var rows []fileRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT f.id, f.file_name, f.caption, f.file_size, f.quality, f.created_at, f.updated_at
		FROM files_fts
		JOIN files f ON f.seq = files_fts.rowid
		WHERE files_fts MATCH ?
		ORDER BY bm25(files_fts, 5.0, 1.0), f.updated_at DESC, f.seq DESC
		LIMIT ? OFFSET ?
	`, match, limit, offset)
	if err != nil {
		return nil, 0, errors.NewStore("text_search", err)
	}

	var total int
	err = s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM (
			SELECT 1 FROM files_fts WHERE files_fts MATCH ? LIMIT ?
		)
	`, match, TextCountCap)
	if err != nil {
		return nil, 0, errors.NewStore("text_search_count", err)
	}

	return records(rows), total, nil
}

// RegexSearch matches the RE2 pattern case-insensitively against file names
// (and captions when enabled), newest first. total is capped at RegexCountCap.
func (s *Store) RegexSearch(ctx context.Context, pattern string, offset, limit int) ([]media.FileRecord, int, error) {
	where := `file_name REGEXP ?`
	args := []any{caseInsensitive(pattern)}
	if s.opts.UseCaptionFilter {
		where = `(file_name REGEXP ? OR caption REGEXP ?)`
		args = append(args, caseInsensitive(pattern))
	}

	var rows []fileRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+selectColumns+`
		FROM files
		WHERE `+where+`
		ORDER BY updated_at DESC, seq DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewStore("regex_search", err)
	}

	var total int
	err = s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM (
			SELECT 1 FROM files WHERE `+where+` LIMIT ?
		)
	`, append(args, RegexCountCap)...)
	if err != nil {
		return nil, 0, errors.NewStore("regex_search_count", err)
	}

	return records(rows), total, nil
}

// DistinctNames returns up to limit distinct file names, most recently
// updated first.
func (s *Store) DistinctNames(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `
		SELECT file_name FROM files
		GROUP BY file_name
		ORDER BY MAX(updated_at) DESC
		LIMIT ?
	`, limit)
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

	query, args, err := sqlx.In(`
		SELECT `+selectColumns+`
		FROM files
		WHERE file_name IN (?)
		ORDER BY updated_at DESC, seq DESC
		LIMIT ?
	`, names, limit)
	if err != nil {
		return nil, errors.NewStore("find_by_names", err)
	}

	var rows []fileRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.NewStore("find_by_names", err)
	}
	return records(rows), nil
}
