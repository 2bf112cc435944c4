package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPlanChunksByFileCount(t *testing.T) {
	var items []CopyItem
	for i := 0; i < 450; i++ {
		items = append(items, CopyItem{SourcePath: "src/f", DestPath: "dst/f", ByteSize: 1, Category: "Documents"})
	}

	batches := BuildPlan(items)
	require.Len(t, batches, 3)
	require.Equal(t, 200, batches[0].TotalFiles)
	require.Equal(t, 200, batches[1].TotalFiles)
	require.Equal(t, 50, batches[2].TotalFiles)
}

func TestBuildPlanChunksByByteSize(t *testing.T) {
	items := []CopyItem{
		{SourcePath: "src/a", DestPath: "dst/a", ByteSize: 3 * 1 << 30},
		{SourcePath: "src/b", DestPath: "dst/b", ByteSize: 3 * 1 << 30},
		{SourcePath: "src/c", DestPath: "dst/c", ByteSize: 1 << 20},
	}

	batches := BuildPlan(items)
	require.Len(t, batches, 2)
	require.Len(t, batches[0].Items, 1, "second 3 GiB item would push the first batch over 5 GiB")
	require.Len(t, batches[1].Items, 2)
}

func TestRenderScriptIncludesMkdirAndRsync(t *testing.T) {
	batches := BuildPlan([]CopyItem{
		{SourcePath: "/src/Projects/app", DestPath: "/target/Software/app", IsDir: true, ByteSize: 1024, Category: "Software"},
		{SourcePath: "/src/notes.txt", DestPath: "/target/Documents/notes.txt", ByteSize: 64, Category: "Documents"},
	})

	script := RenderScript(batches)
	require.True(t, strings.HasPrefix(script, "#!/bin/sh\n"))
	require.Contains(t, script, "mkdir -p '/target/Software/app'")
	require.Contains(t, script, "mkdir -p '/target/Documents'")
	require.Contains(t, script, "rsync -a --partial --append-verify '/src/Projects/app/' '/target/Software/app/'")
	require.Contains(t, script, "rsync -a --partial --append-verify '/src/notes.txt' '/target/Documents/notes.txt'")
	require.Contains(t, script, "categories=Documents,Software")
}
