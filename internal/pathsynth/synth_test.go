package pathsynth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"foldersort/internal/categories"
)

func mustCatalog(t *testing.T, insert func(c *categories.Catalog)) *categories.Catalog {
	t.Helper()
	c := categories.NewCatalog()
	insert(c)
	return c
}

// Scenario: a folder marked KEEP via a rule structural marker (e.g. a
// ".git" child) is carried through to the destination as a single unit.
func TestScenarioKeepPivotViaRuleMarker(t *testing.T) {
	cat := mustCatalog(t, func(c *categories.Catalog) {
		require.NoError(t, c.Insert(categories.CategoryPath{"Projects"}, categories.ParseTemplate("{suffix}")))
	})

	in := FileInput{
		Parents: []ParentEntry{
			{Name: "Downloads", Action: ""},
			{Name: "myapp", Action: "keep"},
			{Name: "src", Action: ""},
		},
		Category: categories.CategoryPath{"Projects"},
		Filename: "main.go",
	}

	out := Synthesize(in, cat, Options{Sanitize: true})
	require.Equal(t, "Projects/myapp/src/main.go", out.Destination)
	require.Equal(t, []string{"myapp", "src"}, out.KeptPath)
}

// Scenario: a purely organizational folder (no keep pivot anywhere in
// the chain) is flattened away entirely; only category + filename
// survive.
func TestScenarioFlattenOrganizationalFolder(t *testing.T) {
	cat := mustCatalog(t, func(c *categories.Catalog) {
		require.NoError(t, c.Insert(categories.CategoryPath{"Documents"}, categories.ParseTemplate("{suffix}")))
	})

	in := FileInput{
		Parents: []ParentEntry{
			{Name: "Inbox", Action: "disaggregate"},
			{Name: "2023", Action: "disaggregate"},
			{Name: "Q3", Action: "disaggregate"},
		},
		Category: categories.CategoryPath{"Documents"},
		Filename: "invoice.pdf",
	}

	out := Synthesize(in, cat, Options{Sanitize: true})
	require.Equal(t, "Documents/invoice.pdf", out.Destination)
	require.Empty(t, out.KeptPath)
}

// Scenario: a music file with tag metadata renders through a
// metadata-driven template, ignoring the (disaggregated) parent chain.
func TestScenarioMusicWithTags(t *testing.T) {
	cat := mustCatalog(t, func(c *categories.Catalog) {
		require.NoError(t, c.Insert(categories.CategoryPath{"Media", "Music"}, categories.ParseTemplate("{artist|Unknown Artist}/{album|Unknown Album}/{title|filename}")))
	})

	in := FileInput{
		Parents:  []ParentEntry{{Name: "Downloads", Action: "disaggregate"}},
		Category: categories.CategoryPath{"Media", "Music"},
		Metadata: map[string]string{"artist": "Boards of Canada", "album": "Geogaddi", "title": "Gyroscope"},
		Filename: "track07.flac",
	}

	out := Synthesize(in, cat, Options{Sanitize: true})
	require.Equal(t, "Media/Music/Boards of Canada/Geogaddi/Gyroscope.flac", out.Destination)
}

// Scenario: a KEEP_EXCEPT folder whose inner child is explicitly
// disaggregated flips from that point onward, so everything before the
// flip is kept verbatim and everything from the flip onward is dropped
// back to per-file category templating.
func TestScenarioKeepExceptWithInnerDisaggregate(t *testing.T) {
	cat := mustCatalog(t, func(c *categories.Catalog) {
		require.NoError(t, c.Insert(categories.CategoryPath{"Archives"}, categories.ParseTemplate("{suffix}")))
	})

	in := FileInput{
		Parents: []ParentEntry{
			{Name: "Website", Action: "keep_except"},
			{Name: "node_modules", Action: "disaggregate"},
			{Name: "some-pkg", Action: ""},
		},
		Category: categories.CategoryPath{"Archives"},
		Filename: "index.js",
	}

	out := Synthesize(in, cat, Options{Sanitize: true})
	require.Equal(t, "Archives/Website/index.js", out.Destination)
	require.Equal(t, []string{"Website"}, out.KeptPath)
}

// Scenario: a wrapper folder named after a backup tool is stripped
// before any pivot detection runs.
func TestScenarioBackupWrapperStripped(t *testing.T) {
	cat := mustCatalog(t, func(c *categories.Catalog) {
		require.NoError(t, c.Insert(categories.CategoryPath{"Photos"}, categories.ParseTemplate("{suffix}")))
	})

	in := FileInput{
		Parents: []ParentEntry{
			{Name: "Backup_2022-01-01", Action: ""},
			{Name: "Vacation", Action: "keep"},
		},
		Category: categories.CategoryPath{"Photos"},
		Filename: "beach.jpg",
	}

	out := Synthesize(in, cat, Options{Sanitize: true, SourceWrapperRegexp: prefixMatcher("Backup_")})
	require.Equal(t, "Photos/Vacation/beach.jpg", out.Destination)
}

// Scenario: a parent folder whose name duplicates the resolved
// category's leading segment does not appear twice in the destination.
func TestScenarioCategoryPrefixStripped(t *testing.T) {
	cat := mustCatalog(t, func(c *categories.Catalog) {
		require.NoError(t, c.Insert(categories.CategoryPath{"Music"}, categories.ParseTemplate("{suffix}")))
	})

	in := FileInput{
		Parents: []ParentEntry{
			{Name: "Music", Action: "keep"},
			{Name: "Albums", Action: ""},
		},
		Category: categories.CategoryPath{"Music"},
		Filename: "song.mp3",
	}

	out := Synthesize(in, cat, Options{Sanitize: true})
	require.Equal(t, "Music/Albums/song.mp3", out.Destination)
}

type prefixMatcher string

func (p prefixMatcher) MatchString(s string) bool {
	return len(s) >= len(p) && s[:len(p)] == string(p)
}
