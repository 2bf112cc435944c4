package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"foldersort/internal/catalog"
)

func TestWriteCleanupReportFixedColumnOrder(t *testing.T) {
	var sb strings.Builder
	err := WriteCleanupReport(&sb, []catalog.FileRecord{
		{Path: "src/a.pdf", Destination: "Documents/a.pdf", Category: "Documents", RuleCategory: "Documents", Size: 100, Status: "planned"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "source_path|destination|category|rule_category|ai_category|size|status", lines[0])
	require.Equal(t, "src/a.pdf|Documents/a.pdf|Documents|Documents||100|planned", lines[1])
}

func TestWriteDuplicateFoldersReportColumnOrder(t *testing.T) {
	var sb strings.Builder
	err := WriteDuplicateFoldersReport(&sb, []catalog.DuplicateFolderGroup{
		{ContentHash: "abc123", FileCount: 4, ByteSize: 4096, Paths: []string{"A/Photos", "B/Photos"}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Equal(t, "folder_hash|file_count|byte_size|paths", lines[0])
	require.Equal(t, "abc123|4|4096|A/Photos,B/Photos", lines[1])
}
