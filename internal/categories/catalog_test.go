package categories

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := NewCatalog()
	require.NoError(t, cat.Insert(CategoryPath{"Media", "Music"}, ParseTemplate("Media/Music/{artist|Unknown Artist}/{album|Unknown Album}")))
	require.NoError(t, cat.Insert(CategoryPath{"Media", "Video"}, nil))
	require.NoError(t, cat.Insert(CategoryPath{"Documents"}, ParseTemplate("Documents/{year}")))
	cat.SetDefaultTemplate(ParseTemplate("Misc/{suffix}"))
	return cat
}

func TestCatalogNormalizeExactMatch(t *testing.T) {
	cat := buildTestCatalog(t)
	got, ok := cat.Normalize(CategoryPath{"media", "music"})
	require.True(t, ok)
	require.Equal(t, "Media/Music", got.String())
}

func TestCatalogNormalizeOneExtraSegmentAllowed(t *testing.T) {
	cat := buildTestCatalog(t)
	got, ok := cat.Normalize(CategoryPath{"media", "music", "Jazz"})
	require.True(t, ok)
	require.Equal(t, "Media/Music/Jazz", got.String())
}

func TestCatalogNormalizeTooManyExtraSegmentsRejected(t *testing.T) {
	cat := buildTestCatalog(t)
	cat.AllowExtraSuffixSegments = 1
	_, ok := cat.Normalize(CategoryPath{"media", "music", "Jazz", "Fusion"})
	require.False(t, ok)
}

func TestCatalogNormalizeUnknownRoot(t *testing.T) {
	cat := buildTestCatalog(t)
	_, ok := cat.Normalize(CategoryPath{"Spreadsheets"})
	require.False(t, ok)
}

func TestCatalogTemplateForFallsBackToDefault(t *testing.T) {
	cat := buildTestCatalog(t)
	require.NotNil(t, cat.TemplateFor(CategoryPath{"Media", "Video"}))
	require.Same(t, cat.defaultTemplate, cat.TemplateFor(CategoryPath{"Media"}))

	tmpl := cat.TemplateFor(CategoryPath{"Spreadsheets"})
	require.NotNil(t, tmpl)
}

func TestCatalogChildrenAndRoots(t *testing.T) {
	cat := buildTestCatalog(t)
	require.ElementsMatch(t, []string{"Documents", "Media"}, cat.Roots())
	require.ElementsMatch(t, []string{"Music", "Video"}, cat.Children(CategoryPath{"Media"}))
	require.Nil(t, cat.Children(CategoryPath{"Spreadsheets"}))
}

func TestCatalogCompactJSON(t *testing.T) {
	cat := buildTestCatalog(t)
	js, err := cat.CompactJSON()
	require.NoError(t, err)
	require.Contains(t, js, "Media")
	require.Contains(t, js, "Documents")
}
