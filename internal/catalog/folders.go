package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"foldersort/internal/errkind"
)

// FolderHashRecord is a content fingerprint over one folder's entire
// descendant subtree, used to flag duplicate folder trees across
// source roots.
type FolderHashRecord struct {
	Path        string
	ContentHash string
	FileCount   int
	ByteSize    int64
	ComputedAt  time.Time
}

// FolderActionRecord is the persisted resolution for one folder, either
// derived this run or carried over from a previous one.
type FolderActionRecord struct {
	Path           string
	Action         string
	DecisionSource string
	DecidedAt      time.Time
}

// UpsertFolderHashes writes (or overwrites) the content hash for every
// folder in records.
func (s *Store) UpsertFolderHashes(ctx context.Context, records []FolderHashRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO folder_hashes (path, content_hash, file_count, byte_size, computed_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				content_hash = excluded.content_hash,
				file_count = excluded.file_count,
				byte_size = excluded.byte_size,
				computed_at = excluded.computed_at
		`)
		if err != nil {
			return fmt.Errorf("preparing folder hash upsert: %w: %w", errkind.Database, err)
		}
		defer stmt.Close()

		now := nowUTC()
		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.Path, r.ContentHash, r.FileCount, r.ByteSize, now); err != nil {
				return fmt.Errorf("upserting folder hash %s: %w: %w", r.Path, errkind.Database, err)
			}
		}
		return nil
	})
}

// DuplicateFolderGroup is one set of folders sharing a content hash.
type DuplicateFolderGroup struct {
	ContentHash string
	FileCount   int
	ByteSize    int64
	Paths       []string
}

// SelectDuplicateFolders returns every content hash shared by two or more
// folders, grouped, for the duplicate-folder report.
func (s *Store) SelectDuplicateFolders(ctx context.Context) ([]DuplicateFolderGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, path, file_count, byte_size
		FROM folder_hashes
		WHERE content_hash IN (
			SELECT content_hash FROM folder_hashes
			GROUP BY content_hash
			HAVING COUNT(*) > 1
		)
		ORDER BY content_hash, path
	`)
	if err != nil {
		return nil, fmt.Errorf("selecting duplicate folders: %w: %w", errkind.Database, err)
	}
	defer rows.Close()

	var groups []DuplicateFolderGroup
	var current *DuplicateFolderGroup
	for rows.Next() {
		var hash, path string
		var fileCount int
		var byteSize int64
		if err := rows.Scan(&hash, &path, &fileCount, &byteSize); err != nil {
			return nil, fmt.Errorf("scanning duplicate folder row: %w: %w", errkind.Database, err)
		}
		if current == nil || current.ContentHash != hash {
			groups = append(groups, DuplicateFolderGroup{ContentHash: hash})
			current = &groups[len(groups)-1]
		}
		current.Paths = append(current.Paths, path)
		current.FileCount += fileCount
		current.ByteSize += byteSize
	}
	return groups, rows.Err()
}

// SaveFolderActions persists the resolver's decisions so a subsequent
// run can treat them as authoritative (see folderaction.Resolve's
// persisted-decision precedence).
func (s *Store) SaveFolderActions(ctx context.Context, records []FolderActionRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO folder_actions (path, action, decision_source, decided_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				action = excluded.action,
				decision_source = excluded.decision_source,
				decided_at = excluded.decided_at
		`)
		if err != nil {
			return fmt.Errorf("preparing folder action save: %w: %w", errkind.Database, err)
		}
		defer stmt.Close()

		now := nowUTC()
		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.Path, r.Action, r.DecisionSource, now); err != nil {
				return fmt.Errorf("saving folder action %s: %w: %w", r.Path, errkind.Database, err)
			}
		}
		return nil
	})
}

// GetFolderActions returns every persisted folder action, keyed by path.
func (s *Store) GetFolderActions(ctx context.Context) (map[string]FolderActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, action, decision_source, decided_at FROM folder_actions`)
	if err != nil {
		return nil, fmt.Errorf("selecting folder actions: %w: %w", errkind.Database, err)
	}
	defer rows.Close()

	out := make(map[string]FolderActionRecord)
	for rows.Next() {
		var r FolderActionRecord
		var source sql.NullString
		var decided sql.NullTime
		if err := rows.Scan(&r.Path, &r.Action, &source, &decided); err != nil {
			return nil, fmt.Errorf("scanning folder action row: %w: %w", errkind.Database, err)
		}
		r.DecisionSource = source.String
		if decided.Valid {
			r.DecidedAt = decided.Time
		}
		out[r.Path] = r
	}
	return out, rows.Err()
}
