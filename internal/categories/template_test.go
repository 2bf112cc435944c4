package categories

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateRenderBasicPlaceholders(t *testing.T) {
	tmpl := ParseTemplate("{artist|Unknown Artist}/{album|Unknown Album}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"artist": "Radiohead", "album": "OK Computer"},
		CategoryPath: CategoryPath{"Media", "Music"},
		Filename:     "01 Airbag.flac",
		Sanitize:     true,
	})
	require.Equal(t, "Media/Music/Radiohead/OK Computer/01 Airbag.flac", out)
}

func TestTemplateRenderFallsBackWhenMetadataMissing(t *testing.T) {
	tmpl := ParseTemplate("{artist|Unknown Artist}/{album|Unknown Album}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{},
		CategoryPath: CategoryPath{"Media", "Music"},
		Filename:     "track.mp3",
		Sanitize:     true,
	})
	require.Equal(t, "Media/Music/Unknown Artist/Unknown Album/track.mp3", out)
}

func TestTemplateRenderSuffixDedupesKeptPath(t *testing.T) {
	tmpl := ParseTemplate("Backups/{year}/{month}/{suffix}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"year": "2025", "month": "07"},
		CategoryPath: CategoryPath{"Archive"},
		KeptPath:     []string{"2025", "07", "ab_20250728_030001"},
		Filename:     "image.jpg",
		Sanitize:     true,
	})
	// "2025" and "07" already rendered via {year}/{month}; suffix drops
	// the duplicate segments and keeps only the unique tail.
	require.Equal(t, "Archive/Backups/2025/07/ab_20250728_030001/image.jpg", out)
}

func TestTemplateRenderKeptPathAppendedWhenNoSuffixToken(t *testing.T) {
	tmpl := ParseTemplate("Documents/{year}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"year": "2024"},
		CategoryPath: CategoryPath{"Documents"},
		KeptPath:     []string{"Taxes", "Receipts"},
		Filename:     "invoice.pdf",
		Sanitize:     true,
	})
	require.Equal(t, "Documents/Documents/2024/Taxes/Receipts/invoice.pdf", out)
}

func TestTemplateRenderFilenameKeyConsumesFilenameAndExtension(t *testing.T) {
	tmpl := ParseTemplate("{category}/{title}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"category": "Books", "title": "Dune"},
		CategoryPath: CategoryPath{"Media"},
		KeptPath:     []string{"Leftover"},
		Filename:     "dune.epub",
		Sanitize:     true,
	})
	require.Equal(t, "Media/Books/Dune.epub", out)
}

func TestTemplateRenderAICategoryStripsRedundantPrefix(t *testing.T) {
	tmpl := ParseTemplate("{ai_category}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"ai_category": "Media/Obscure Bootlegs", "category": "Media"},
		CategoryPath: CategoryPath{"Media"},
		Filename:     "track.flac",
		Sanitize:     true,
	})
	require.Equal(t, "Media/Obscure Bootlegs/track.flac", out)
}

func TestTemplateRenderSanitizesDisallowedCharacters(t *testing.T) {
	tmpl := ParseTemplate("{title}")
	out := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"title": "Q&A: What<Now>?"},
		CategoryPath: CategoryPath{"Docs"},
		Filename:     "q.txt",
		Sanitize:     true,
	})
	require.Equal(t, "Docs/Q&A WhatNow.txt", out)
}

func TestTemplateRenderIdempotentUnderWhitespaceTrim(t *testing.T) {
	tmpl := ParseTemplate("{artist}")
	a := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"artist": "  Radiohead  "},
		CategoryPath: CategoryPath{"Media"},
		Filename:     "f.mp3",
		Sanitize:     true,
	})
	b := tmpl.Render(RenderOptions{
		Metadata:     map[string]string{"artist": "Radiohead"},
		CategoryPath: CategoryPath{"Media"},
		Filename:     "f.mp3",
		Sanitize:     true,
	})
	require.Equal(t, a, b)
}
