// Package metadata implements the metadata collector: a normalized
// string map built from filesystem stat data, and, where the MIME type
// warrants it, audio tags or Office document core properties. The
// audio-tag and Office-properties readers are hand-rolled against the
// documented file formats directly; see DESIGN.md for why.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"foldersort/internal/errkind"
)

// Collect builds the metadata map for one file: stat fields are always
// present; format-specific tags are merged in on top when recognized,
// and collection never fails the caller outright — a tag-parse error is
// swallowed and only the stat fields are returned.
func Collect(path, mime string) (map[string]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w: %w", path, errkind.IO, err)
	}

	m := map[string]string{
		"filename": info.Name(),
		"ext":      strings.TrimPrefix(strings.ToLower(filepath.Ext(info.Name())), "."),
		"size":     strconv.FormatInt(info.Size(), 10),
		"mtime":    info.ModTime().UTC().Format(time.RFC3339),
		"year":     info.ModTime().UTC().Format("2006"),
		"month":    info.ModTime().UTC().Format("01"),
	}

	switch {
	case strings.EqualFold(mime, "audio/mpeg") || m["ext"] == "mp3":
		if tags, err := readID3v2(path); err == nil {
			mergeNonEmpty(m, tags)
		}
	case strings.EqualFold(mime, "audio/flac") || m["ext"] == "flac":
		if tags, err := readFLACVorbisComments(path); err == nil {
			mergeNonEmpty(m, tags)
		}
	case strings.Contains(strings.ToLower(mime), "officedocument"):
		if props, err := readOfficeCoreProperties(path); err == nil {
			mergeNonEmpty(m, props)
		}
	}

	return m, nil
}

func mergeNonEmpty(dst, src map[string]string) {
	for k, v := range src {
		v = strings.TrimSpace(v)
		if v != "" {
			dst[k] = v
		}
	}
}
