package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"foldersort/internal/errkind"
)

// FileRecord is one row per discovered file, progressively filled in by
// the scan and classify stages.
type FileRecord struct {
	Path         string
	SourceRoot   string
	Size         int64
	Mime         string
	ModTime      time.Time
	ContentHash  string
	Status       string
	Category     string
	Destination  string
	RuleCategory string
	AICategory   string
	MetadataJSON string
	Preview      string
	FileNodeJSON string
	Note         string
	ClassifiedAt time.Time
}

// File status values for FileRecord.Status's lifecycle: scanned ->
// planned -> moved, with error terminal for a row but never fatal to
// the run.
const (
	StatusScanned = "scanned"
	StatusPlanned = "planned"
	StatusMoved   = "moved"
	StatusError   = "error"
)

// BulkInsert inserts freshly scanned files, ignoring rows whose path
// already exists (a rerun of scan should never clobber classification
// results from a prior classify pass). Returns the number of rows
// actually inserted.
func (s *Store) BulkInsert(ctx context.Context, records []FileRecord) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO files (path, source_root, size, mime, mod_time, hash, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("preparing bulk insert: %w: %w", errkind.Database, err)
		}
		defer stmt.Close()

		for _, r := range records {
			status := r.Status
			if status == "" {
				status = StatusScanned
			}
			res, err := stmt.ExecContext(ctx, r.Path, r.SourceRoot, r.Size, r.Mime, r.ModTime, r.ContentHash, status)
			if err != nil {
				return fmt.Errorf("inserting file %s: %w: %w", r.Path, errkind.Database, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
		return nil
	})
	return inserted, err
}

// SelectUnclassified returns every file row with no category whose
// hash is known (non-NULL and non-empty) and status is still "scanned",
// excluding paths that fall under a KEEP folder action (those are moved
// as a unit and never individually classified), ordered by ascending
// path depth so the classifier orchestrator processes parents before
// children.
func (s *Store) SelectUnclassified(ctx context.Context, limit int) ([]FileRecord, error) {
	query := `
		SELECT f.path, f.source_root, f.size, f.mime, f.mod_time, f.hash, f.status
		FROM files f
		WHERE f.category IS NULL
		AND f.hash IS NOT NULL
		AND f.hash != ''
		AND f.status = 'scanned'
		AND NOT EXISTS (
			SELECT 1 FROM folder_actions fa
			WHERE fa.action = 'keep'
			AND (f.path = fa.path OR f.path LIKE fa.path || '/%')
		)
		ORDER BY (LENGTH(f.path) - LENGTH(REPLACE(f.path, '/', ''))) ASC, f.path ASC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting unclassified files: %w: %w", errkind.Database, err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var r FileRecord
		var modTime sql.NullTime
		var hash, status sql.NullString
		if err := rows.Scan(&r.Path, &r.SourceRoot, &r.Size, &r.Mime, &modTime, &hash, &status); err != nil {
			return nil, fmt.Errorf("scanning file row: %w: %w", errkind.Database, err)
		}
		if modTime.Valid {
			r.ModTime = modTime.Time
		}
		r.ContentHash = hash.String
		r.Status = status.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateCategoryDest writes back the classification result for one file.
func (s *Store) UpdateCategoryDest(ctx context.Context, r FileRecord) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE files
		SET category = ?, destination = ?, rule_category = ?, ai_category = ?,
			metadata_json = ?, preview = ?, file_node_json = ?, status = ?, classified_at = ?
		WHERE path = ?
	`, r.Category, r.Destination, r.RuleCategory, r.AICategory, r.MetadataJSON, r.Preview, r.FileNodeJSON, StatusPlanned, nowUTC(), r.Path)
	if err != nil {
		return fmt.Errorf("updating classification for %s: %w: %w", r.Path, errkind.Database, err)
	}
	return nil
}

// UpdateCategoryDestBatch applies UpdateCategoryDest for every record
// in a single transaction.
func (s *Store) UpdateCategoryDestBatch(ctx context.Context, records []FileRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE files
			SET category = ?, destination = ?, rule_category = ?, ai_category = ?,
				metadata_json = ?, preview = ?, file_node_json = ?, status = ?, classified_at = ?
			WHERE path = ?
		`)
		if err != nil {
			return fmt.Errorf("preparing batch update: %w: %w", errkind.Database, err)
		}
		defer stmt.Close()

		now := nowUTC()
		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.Category, r.Destination, r.RuleCategory, r.AICategory, r.MetadataJSON, r.Preview, r.FileNodeJSON, StatusPlanned, now, r.Path); err != nil {
				return fmt.Errorf("updating classification for %s: %w: %w", r.Path, errkind.Database, err)
			}
		}
		return nil
	})
}

// MarkMoved flags every path in paths as moved, once the mover has
// physically relocated them.
func (s *Store) MarkMoved(ctx context.Context, paths []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE files SET status = ? WHERE path = ?`)
		if err != nil {
			return fmt.Errorf("preparing mark-moved: %w: %w", errkind.Database, err)
		}
		defer stmt.Close()
		for _, p := range paths {
			if _, err := stmt.ExecContext(ctx, StatusMoved, p); err != nil {
				return fmt.Errorf("marking %s moved: %w: %w", p, errkind.Database, err)
			}
		}
		return nil
	})
}

// MarkError flags path as errored with a human-readable note, a terminal
// state for that row that never fails the surrounding batch.
func (s *Store) MarkError(ctx context.Context, path, note string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE files SET status = ?, note = ? WHERE path = ?`, StatusError, note, path)
	if err != nil {
		return fmt.Errorf("marking %s error: %w: %w", path, errkind.Database, err)
	}
	return nil
}

// AllClassified returns every file row that has a destination planned,
// used by the report stage.
func (s *Store) AllClassified(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, source_root, size, mime, category, destination, status
		FROM files
		WHERE classified_at IS NOT NULL
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("selecting classified files: %w: %w", errkind.Database, err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var r FileRecord
		var category, destination, mime, status sql.NullString
		if err := rows.Scan(&r.Path, &r.SourceRoot, &r.Size, &mime, &category, &destination, &status); err != nil {
			return nil, fmt.Errorf("scanning classified row: %w: %w", errkind.Database, err)
		}
		r.Mime = mime.String
		r.Category = category.String
		r.Destination = destination.String
		r.Status = status.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllFiles returns every row in the files table regardless of
// classification status, used by the folder-action resolver to rebuild
// complete ancestor-directory child listings (including already
// classified siblings) on a classify run that isn't in the same process
// as the scan that produced them.
func (s *Store) AllFiles(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, source_root, size, mime, hash FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("selecting all files: %w: %w", errkind.Database, err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var r FileRecord
		var mime, hash sql.NullString
		if err := rows.Scan(&r.Path, &r.SourceRoot, &r.Size, &mime, &hash); err != nil {
			return nil, fmt.Errorf("scanning file row: %w: %w", errkind.Database, err)
		}
		r.Mime = mime.String
		r.ContentHash = hash.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// DumpAll streams every column of every row, used by the `db-dump` CLI.
func (s *Store) DumpAll(ctx context.Context) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, source_root, size, mime, mod_time, hash, status, category,
			destination, rule_category, ai_category, metadata_json, preview,
			file_node_json, note, classified_at
		FROM files ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("dumping files: %w: %w", errkind.Database, err)
	}
	return rows, nil
}
