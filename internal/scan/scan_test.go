package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalkBuildsFilesAndFolderSamples(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644))

	result, err := Walk(t.Context(), []string{root}, 2)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)

	rootSample, ok := result.FolderSamples[filepath.ToSlash(root)]
	require.True(t, ok)
	require.Len(t, rootSample.Children, 2) // a.txt + sub/
	require.Equal(t, 2, rootSample.TotalFiles)

	subSample, ok := result.FolderSamples[filepath.ToSlash(filepath.Join(root, "sub"))]
	require.True(t, ok)
	require.Len(t, subSample.Children, 1)
}

func TestHashDescendantsIsOrderIndependent(t *testing.T) {
	a := []string{"b.txt:hashB", "a.txt:hashA"}
	b := []string{"a.txt:hashA", "b.txt:hashB"}
	require.Equal(t, hashDescendants(a), hashDescendants(b))
}

func TestDuplicateFoldersHashIdentically(t *testing.T) {
	r1 := t.TempDir()
	r2 := t.TempDir()
	for _, root := range []string{r1, r2} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "Proj"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "Proj", "a.txt"), []byte("same-content-a"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "Proj", "b.txt"), []byte("same-content-b"), 0o644))
	}

	result, err := Walk(t.Context(), []string{r1, r2}, 2)
	require.NoError(t, err)

	h1 := findFolderHash(t, result, filepath.Join(r1, "Proj"))
	h2 := findFolderHash(t, result, filepath.Join(r2, "Proj"))
	require.NotEmpty(t, h1)
	require.Equal(t, h1, h2)
}

func findFolderHash(t *testing.T, result *Result, path string) string {
	t.Helper()
	target := filepath.ToSlash(path)
	for _, h := range result.FolderHashes {
		if h.Path == target {
			return h.ContentHash
		}
	}
	return ""
}
