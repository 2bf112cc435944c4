package preview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextExtractorReadsPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	reg := NewRegistry()
	out, err := reg.Extract(path, "text/plain", 4096)
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestTextExtractorFlagsBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0xff}, 0o644))

	reg := NewRegistry()
	out, err := reg.Extract(path, "application/octet-stream", 4096)
	require.NoError(t, err)
	require.Contains(t, out, "binary content")
}

func TestRegistryPrefersLaterRegisteredExtractor(t *testing.T) {
	reg := NewRegistry()
	reg.Register(EmailExtractor{})
	reg.Register(PDFExtractor{})
	require.Equal(t, []string{"preview.PDFExtractor", "preview.EmailExtractor"}, reg.Registered())
}
