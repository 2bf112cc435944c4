package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"foldersort/internal/catalog"
)

var dbDumpCmd = &cobra.Command{
	Use:   "db-dump",
	Short: "Stream the catalog's files table as newline-delimited JSON",
	Long: `db-dump opens the catalog database at --config's db_path and writes one
JSON object per row of the files table to stdout, in path order, for
offline inspection or piping into jq.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalog.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.DumpAll(cmd.Context())
		if err != nil {
			return err
		}
		defer rows.Close()

		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		enc := json.NewEncoder(w)

		count := 0
		for rows.Next() {
			var (
				path, sourceRoot string
				size             int64
				mime, hash, status, category, destination       sql.NullString
				ruleCategory, aiCategory, metadataJSON, preview  sql.NullString
				fileNodeJSON, note                               sql.NullString
				modTime, classifiedAt                            sql.NullTime
			)
			if err := rows.Scan(&path, &sourceRoot, &size, &mime, &modTime, &hash, &status,
				&category, &destination, &ruleCategory, &aiCategory, &metadataJSON, &preview,
				&fileNodeJSON, &note, &classifiedAt); err != nil {
				return err
			}

			record := map[string]any{
				"path":          path,
				"source_root":   sourceRoot,
				"size":          size,
				"mime":          mime.String,
				"hash":          hash.String,
				"status":        status.String,
				"category":      category.String,
				"destination":   destination.String,
				"rule_category": ruleCategory.String,
				"ai_category":   aiCategory.String,
				"metadata_json": metadataJSON.String,
				"preview":       preview.String,
				"note":          note.String,
			}
			if modTime.Valid {
				record["mod_time"] = modTime.Time
			}
			if classifiedAt.Valid {
				record["classified_at"] = classifiedAt.Time
			}
			if err := enc.Encode(record); err != nil {
				return err
			}
			count++
		}
		if err := rows.Err(); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "db-dump: %d row(s) written\n", count)
		return nil
	},
}
