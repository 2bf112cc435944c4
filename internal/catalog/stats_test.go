package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeCountsByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := t.Context()

	_, err := s.BulkInsert(ctx, []FileRecord{
		{Path: "a.txt", SourceRoot: ".", Size: 10, ContentHash: "h1"},
		{Path: "b.txt", SourceRoot: ".", Size: 20, ContentHash: "h2"},
	})
	require.NoError(t, err)
	require.NoError(t, s.UpdateCategoryDest(ctx, FileRecord{Path: "a.txt", Category: "Documents", Destination: "Documents/a.txt"}))
	require.NoError(t, s.MarkMoved(ctx, []string{"a.txt"}))
	require.NoError(t, s.MarkError(ctx, "b.txt", "permission denied"))

	st, err := s.Summarize(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.Total)
	require.Equal(t, 1, st.Moved)
	require.Equal(t, 1, st.Errored)
	require.Equal(t, int64(30), st.TotalSize)
}
