package catalog

import (
	"database/sql"
	"fmt"

	"foldersort/internal/logging"
)

// columnMigration is one idempotent "add this column if missing" step:
// ALTER TABLE ... ADD COLUMN guarded by a PRAGMA table_info check rather
// than a numbered migration chain.
type columnMigration struct {
	table  string
	column string
	def    string
}

var baseTables = []string{
	`CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		source_root TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		mime TEXT,
		mod_time DATETIME,
		hash TEXT,
		status TEXT NOT NULL DEFAULT 'scanned',
		category TEXT,
		destination TEXT,
		rule_category TEXT,
		ai_category TEXT,
		metadata_json TEXT,
		preview TEXT,
		file_node_json TEXT,
		note TEXT,
		classified_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS folder_hashes (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		file_count INTEGER NOT NULL DEFAULT 0,
		byte_size INTEGER NOT NULL DEFAULT 0,
		computed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS folder_actions (
		path TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		decision_source TEXT,
		decided_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_classified ON files(classified_at)`,
	`CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash)`,
	`CREATE INDEX IF NOT EXISTS idx_files_size ON files(size)`,
	`CREATE INDEX IF NOT EXISTS idx_folder_hashes_hash ON folder_hashes(content_hash)`,
}

// columnMigrations lists columns added after the original three tables
// were designed, applied idempotently to databases created by an older
// binary.
var columnMigrations = []columnMigration{
	{"files", "rule_category", "TEXT"},
	{"files", "ai_category", "TEXT"},
	{"files", "file_node_json", "TEXT"},
	{"files", "hash", "TEXT"},
	{"files", "status", "TEXT NOT NULL DEFAULT 'scanned'"},
	{"files", "note", "TEXT"},
	{"folder_actions", "decision_source", "TEXT"},
	{"folder_hashes", "byte_size", "INTEGER NOT NULL DEFAULT 0"},
}

// migrate creates the base tables if absent, then applies every pending
// column migration. A migration failure on one column is logged and
// skipped rather than aborting the run, tolerating a column that may
// already exist in a different form.
func migrate(db *sql.DB) error {
	for _, stmt := range baseTables {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying base schema: %w", err)
		}
	}

	for _, m := range columnMigrations {
		if columnExists(db, m.table, m.column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.def)
		if _, err := db.Exec(stmt); err != nil {
			logging.Get(logging.CategoryStore).Warn("column migration failed (may already exist): %s.%s: %v", m.table, m.column, err)
			continue
		}
		logging.Get(logging.CategoryStore).Info("added column %s.%s", m.table, m.column)
	}
	return nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
