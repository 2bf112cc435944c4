package metadata

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectStatOnlyFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	m, err := Collect(path, "text/plain")
	require.NoError(t, err)
	require.Equal(t, "notes.txt", m["filename"])
	require.Equal(t, "txt", m["ext"])
	require.Equal(t, "5", m["size"])
	require.NotEmpty(t, m["year"])
}

func buildVorbisCommentBlock(fields map[string]string) []byte {
	var block []byte
	vendor := "foldersort-test"
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(len(vendor)))
	block = append(block, buf...)
	block = append(block, []byte(vendor)...)

	binary.LittleEndian.PutUint32(buf, uint32(len(fields)))
	block = append(block, buf...)

	for k, v := range fields {
		entry := k + "=" + v
		binary.LittleEndian.PutUint32(buf, uint32(len(entry)))
		block = append(block, buf...)
		block = append(block, []byte(entry)...)
	}
	return block
}

func TestParseVorbisComments(t *testing.T) {
	block := buildVorbisCommentBlock(map[string]string{
		"ARTIST": "Tagged Artist",
		"ALBUM":  "Tagged Album",
		"TITLE":  "Tagged Title",
	})
	tags := parseVorbisComments(block)
	require.Equal(t, "Tagged Artist", tags["artist"])
	require.Equal(t, "Tagged Album", tags["album"])
	require.Equal(t, "Tagged Title", tags["title"])
}

func TestReadFLACVorbisCommentsFromSyntheticFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.flac")

	block := buildVorbisCommentBlock(map[string]string{"ARTIST": "Tagged Artist"})
	header := []byte{0x80 | flacVorbisCommentBlockType, byte(len(block) >> 16), byte(len(block) >> 8), byte(len(block))}

	var data []byte
	data = append(data, []byte("fLaC")...)
	data = append(data, header...)
	data = append(data, block...)

	require.NoError(t, os.WriteFile(path, data, 0o644))

	tags, err := readFLACVorbisComments(path)
	require.NoError(t, err)
	require.Equal(t, "Tagged Artist", tags["artist"])
}
