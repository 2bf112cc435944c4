package categories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCSVBasic(t *testing.T) {
	csv := strings.TrimSpace(`
# comment line, ignored
Media/Music,Media/Music/{artist|Unknown Artist}/{album}
Media/Video,
__default__,Misc/{suffix}
`)
	cat, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	got, ok := cat.Normalize(CategoryPath{"media", "music"})
	require.True(t, ok)
	require.Equal(t, "Media/Music", got.String())

	require.NotNil(t, cat.TemplateFor(CategoryPath{"Media", "Music"}))
	require.NotNil(t, cat.TemplateFor(CategoryPath{"Media", "Video"}))
	require.NotNil(t, cat.TemplateFor(CategoryPath{"Somewhere", "Else"}))
}

func TestParseCSVRejectsInvalidPath(t *testing.T) {
	csv := "Media//Music,template"
	_, err := ParseCSV(strings.NewReader(csv))
	require.Error(t, err)
}

func TestParseJSONNestedTree(t *testing.T) {
	data := []byte(`{
		"__default__": "Misc/{suffix}",
		"Media": {
			"_template": "Media/{category}",
			"Music": "Media/Music/{artist}/{album}",
			"Video": {}
		},
		"Documents": ["Taxes", "Receipts"]
	}`)
	cat, err := ParseJSON(data)
	require.NoError(t, err)

	require.NotNil(t, cat.TemplateFor(CategoryPath{"Media"}))
	require.NotNil(t, cat.TemplateFor(CategoryPath{"Media", "Music"}))

	_, ok := cat.Normalize(CategoryPath{"Documents", "Taxes"})
	require.True(t, ok)

	require.NotNil(t, cat.TemplateFor(CategoryPath{"Anything"}))
}
