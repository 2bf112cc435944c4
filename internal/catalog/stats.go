package catalog

import (
	"context"
	"fmt"

	"foldersort/internal/errkind"
)

// Stats summarizes the files table for the end-of-run report.
type Stats struct {
	Total     int
	Scanned   int
	Planned   int
	Moved     int
	Errored   int
	TotalSize int64
}

// Summarize computes Stats in one pass over the files table.
func (s *Store) Summarize(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'scanned' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'planned' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'moved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(size), 0)
		FROM files
	`)
	if err := row.Scan(&st.Total, &st.Scanned, &st.Planned, &st.Moved, &st.Errored, &st.TotalSize); err != nil {
		return Stats{}, fmt.Errorf("summarizing catalog: %w: %w", errkind.Database, err)
	}
	return st, nil
}
