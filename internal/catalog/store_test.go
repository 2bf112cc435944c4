package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	var count int
	err := s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='files'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestBulkInsertAndSelectUnclassified(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	n, err := s.BulkInsert(ctx, []FileRecord{
		{Path: "Docs/a.pdf", SourceRoot: "Docs", Size: 100, Mime: "application/pdf", ModTime: time.Now(), ContentHash: "h1"},
		{Path: "Docs/sub/b.pdf", SourceRoot: "Docs", Size: 200, Mime: "application/pdf", ModTime: time.Now(), ContentHash: "h2"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	unclassified, err := s.SelectUnclassified(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unclassified, 2)
	require.Equal(t, "Docs/a.pdf", unclassified[0].Path, "shallower path should sort first")
}

func TestBulkInsertIgnoresDuplicatePath(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, err := s.BulkInsert(ctx, []FileRecord{{Path: "a.txt", SourceRoot: ".", ContentHash: "h1"}})
	require.NoError(t, err)
	require.NoError(t, s.UpdateCategoryDest(ctx, FileRecord{Path: "a.txt", Category: "Documents", Destination: "Documents/a.txt"}))
	n, err := s.BulkInsert(ctx, []FileRecord{{Path: "a.txt", SourceRoot: ".", ContentHash: "h1"}})
	require.NoError(t, err)
	require.Equal(t, 0, n, "rescanning an existing path must not re-insert")

	classified, err := s.AllClassified(ctx)
	require.NoError(t, err)
	require.Len(t, classified, 1, "rescanning must not wipe a prior classification")
}

func TestSelectUnclassifiedSkipsNoHashOrNonScanned(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, err := s.BulkInsert(ctx, []FileRecord{
		{Path: "no-hash.txt", SourceRoot: "."},
		{Path: "has-hash.txt", SourceRoot: ".", ContentHash: "h1"},
		{Path: "planned.txt", SourceRoot: ".", ContentHash: "h2", Status: StatusPlanned},
	})
	require.NoError(t, err)

	unclassified, err := s.SelectUnclassified(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unclassified, 1)
	require.Equal(t, "has-hash.txt", unclassified[0].Path)
}

func TestSelectUnclassifiedExcludesKeepDescendants(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, err := s.BulkInsert(ctx, []FileRecord{
		{Path: "Projects/app/main.go", SourceRoot: "Projects", ContentHash: "h1"},
		{Path: "Projects/app/src/util.go", SourceRoot: "Projects", ContentHash: "h2"},
		{Path: "Projects/notes.txt", SourceRoot: "Projects", ContentHash: "h3"},
	})
	require.NoError(t, err)
	require.NoError(t, s.SaveFolderActions(ctx, []FolderActionRecord{
		{Path: "Projects/app", Action: "keep", DecisionSource: "test"},
	}))

	unclassified, err := s.SelectUnclassified(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unclassified, 1)
	require.Equal(t, "Projects/notes.txt", unclassified[0].Path)
}

func TestDuplicateFolderGrouping(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.UpsertFolderHashes(ctx, []FolderHashRecord{
		{Path: "A/Photos", ContentHash: "hash1", FileCount: 3, ByteSize: 300},
		{Path: "B/Photos", ContentHash: "hash1", FileCount: 3, ByteSize: 300},
		{Path: "C/Other", ContentHash: "hash2", FileCount: 1, ByteSize: 10},
	}))

	groups, err := s.SelectDuplicateFolders(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "hash1", groups[0].ContentHash)
	require.ElementsMatch(t, []string{"A/Photos", "B/Photos"}, groups[0].Paths)
}

func TestFolderActionsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.SaveFolderActions(ctx, []FolderActionRecord{
		{Path: "Archive", Action: "keep_except", DecisionSource: "ai:decision"},
	}))

	actions, err := s.GetFolderActions(ctx)
	require.NoError(t, err)
	require.Equal(t, "keep_except", actions["Archive"].Action)

	require.NoError(t, s.SaveFolderActions(ctx, []FolderActionRecord{
		{Path: "Archive", Action: "disaggregate", DecisionSource: "ai:override"},
	}))
	actions, err = s.GetFolderActions(ctx)
	require.NoError(t, err)
	require.Equal(t, "disaggregate", actions["Archive"].Action, "saving again must overwrite, not duplicate")
}
