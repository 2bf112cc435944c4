package metadata

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"foldersort/internal/errkind"
)

const flacVorbisCommentBlockType = 4

// flacVorbisFields maps lower-cased Vorbis comment field names to the
// metadata keys templates reference.
var flacVorbisFields = map[string]string{
	"title":  "title",
	"artist": "artist",
	"album":  "album",
	"date":   "year",
	"genre":  "genre",
}

// readFLACVorbisComments walks a FLAC file's metadata block chain
// looking for the VORBIS_COMMENT block (type 4).
func readFLACVorbisComments(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for flac tags: %w: %w", path, errkind.IO, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != "fLaC" {
		return nil, fmt.Errorf("%s is not a flac stream: %w", path, errkind.Parse)
	}

	for {
		header := make([]byte, 4)
		if _, err := io.ReadFull(f, header); err != nil {
			return nil, fmt.Errorf("reading flac block header of %s: %w", path, err)
		}
		last := header[0]&0x80 != 0
		blockType := header[0] & 0x7f
		length := int(header[1])<<16 | int(header[2])<<8 | int(header[3])

		if blockType != flacVorbisCommentBlockType {
			if _, err := f.Seek(int64(length), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seeking past flac block in %s: %w", path, err)
			}
			if last {
				return nil, fmt.Errorf("%s has no vorbis comment block: %w", path, errkind.Parse)
			}
			continue
		}

		block := make([]byte, length)
		if _, err := io.ReadFull(f, block); err != nil {
			return nil, fmt.Errorf("reading flac vorbis comment block of %s: %w", path, err)
		}
		return parseVorbisComments(block), nil
	}
}

func parseVorbisComments(block []byte) map[string]string {
	out := make(map[string]string)
	pos := 0
	if pos+4 > len(block) {
		return out
	}
	vendorLen := int(binary.LittleEndian.Uint32(block[pos : pos+4]))
	pos += 4 + vendorLen
	if pos+4 > len(block) {
		return out
	}
	count := int(binary.LittleEndian.Uint32(block[pos : pos+4]))
	pos += 4

	for i := 0; i < count && pos+4 <= len(block); i++ {
		entryLen := int(binary.LittleEndian.Uint32(block[pos : pos+4]))
		pos += 4
		if pos+entryLen > len(block) {
			break
		}
		entry := string(block[pos : pos+entryLen])
		pos += entryLen

		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		key := strings.ToLower(entry[:eq])
		if mapped, ok := flacVorbisFields[key]; ok {
			out[mapped] = entry[eq+1:]
		}
	}
	return out
}
