package metadata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"foldersort/internal/errkind"
)

// id3FrameFields maps the ID3v2.3/2.4 text frame IDs we care about to
// the metadata keys templates reference.
var id3FrameFields = map[string]string{
	"TIT2": "title",
	"TPE1": "artist",
	"TALB": "album",
	"TYER": "year",
	"TDRC": "year",
	"TCON": "genre",
	"TRCK": "track",
}

// readID3v2 parses the leading ID3v2.3/2.4 tag of an MP3 file. ID3v2.2
// (three-letter frame IDs) is not recognized and yields an empty map
// rather than an error, so the caller falls back to stat-only metadata.
func readID3v2(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for id3: %w: %w", path, errkind.IO, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("reading id3 header of %s: %w", path, err)
	}
	if string(header[0:3]) != "ID3" {
		return nil, fmt.Errorf("%s has no id3v2 header: %w", path, errkind.Parse)
	}
	majorVersion := header[3]
	tagSize := syncsafeToInt(header[6:10])

	body := make([]byte, tagSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading id3 body of %s: %w", path, err)
	}

	out := make(map[string]string)
	pos := 0
	for pos+10 <= len(body) {
		id := string(body[pos : pos+4])
		if id == "\x00\x00\x00\x00" {
			break
		}
		var size int
		if majorVersion >= 4 {
			size = syncsafeToInt(body[pos+4 : pos+8])
		} else {
			size = int(binary.BigEndian.Uint32(body[pos+4 : pos+8]))
		}
		frameStart := pos + 10
		frameEnd := frameStart + size
		if size < 0 || frameEnd > len(body) || frameEnd < frameStart {
			break
		}

		if key, ok := id3FrameFields[id]; ok {
			out[key] = decodeID3Text(body[frameStart:frameEnd])
		}
		pos = frameEnd
	}
	return out, nil
}

func syncsafeToInt(b []byte) int {
	return int(b[0])<<21 | int(b[1])<<14 | int(b[2])<<7 | int(b[3])
}

// decodeID3Text strips the leading encoding byte and any trailing NULs.
// Full UTF-16 decoding is not implemented; the common case (latin1/utf8,
// encoding byte 0 or 3) is handled directly, and UTF-16 frames are
// returned with their BOM and NUL padding trimmed on a best-effort basis.
func decodeID3Text(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	encoding := data[0]
	text := data[1:]
	switch encoding {
	case 0, 3:
		return strings.Trim(string(text), "\x00")
	default:
		// UTF-16: drop a leading BOM, then every NUL byte (good enough for
		// ASCII-range tags).
		if len(text) >= 2 && ((text[0] == 0xFF && text[1] == 0xFE) || (text[0] == 0xFE && text[1] == 0xFF)) {
			text = text[2:]
		}
		var sb strings.Builder
		for _, b := range text {
			if b != 0 {
				sb.WriteByte(b)
			}
		}
		return strings.TrimSpace(sb.String())
	}
}
