// Package scan implements the filesystem walker that builds the inputs
// every later stage depends on: flat file records (with a 1 MiB-chunked
// content hash) for the catalog, and one-level-deep folder samples for
// the folder-action resolver. Deep paths are never flattened into a
// folder's listing; a FolderSample only ever holds its direct children.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"foldersort/internal/catalog"
	"foldersort/internal/errkind"
	"foldersort/internal/folderaction"
	"foldersort/internal/logging"
)

// chunkSize is the read buffer used to hash file content: a 1
// MiB-chunked content hash.
const chunkSize = 1 << 20

// Result is everything one source root's walk produced.
type Result struct {
	Files         []catalog.FileRecord
	FolderSamples map[string]folderaction.FolderSample
	FolderHashes  []catalog.FolderHashRecord
}

// Walk scans every root in sourceRoots with up to workers concurrent
// goroutines (one per root, since a single root's walk is inherently
// sequential over its own tree), merging results into one Result.
func Walk(ctx context.Context, sourceRoots []string, workers int) (*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*Result, len(sourceRoots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, root := range sourceRoots {
		i, root := i, root
		g.Go(func() error {
			r, err := walkRoot(gctx, root)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Result{FolderSamples: make(map[string]folderaction.FolderSample)}
	for _, r := range results {
		merged.Files = append(merged.Files, r.Files...)
		merged.FolderHashes = append(merged.FolderHashes, r.FolderHashes...)
		for path, sample := range r.FolderSamples {
			merged.FolderSamples[path] = sample
		}
	}
	return merged, nil
}

// folderState accumulates everything needed to compute one folder's
// FolderSample and content-addressed hash as the walk visits its
// children (files only ever get registered in their direct parent's
// children slice; descendants propagate up separately).
type folderState struct {
	children    []folderaction.ChildSample
	directFiles int
	directBytes int64
	// descendants holds "relative/path:filehash" lines for every file
	// in this folder's subtree, relative to this folder, used to compute
	// the content-addressed folder hash.
	descendants []string
}

// walkRoot walks a single source root, hashing each file's content and
// accumulating every ancestor folder's descendant listing so folder
// hashes are computed from file content, not merely names and sizes --
// two folders with identical file content hash identically regardless
// of which source root or absolute path they live under.
func walkRoot(ctx context.Context, root string) (*Result, error) {
	logging.Get(logging.CategoryScan).Info("scanning root %s", root)

	root = filepath.Clean(root)
	states := make(map[string]*folderState)
	states[toSlash(root)] = &folderState{}

	var files []catalog.FileRecord

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logging.Get(logging.CategoryScan).Warn("skipping %s: %v", path, err)
			return nil
		}
		if path == root {
			return nil
		}

		parent := toSlash(filepath.Dir(path))
		fullPath := toSlash(path)

		if info.IsDir() {
			states[fullPath] = &folderState{}
			states[parent].children = append(states[parent].children, folderaction.ChildSample{
				Name: info.Name(), IsDir: true,
			})
			return nil
		}

		mimeType := GuessMime(path)
		fileHash, hashErr := hashFile(path)
		if hashErr != nil {
			logging.Get(logging.CategoryScan).Warn("hashing %s: %v", path, hashErr)
			return nil
		}

		states[parent].children = append(states[parent].children, folderaction.ChildSample{
			Name: info.Name(), IsDir: false, Mime: mimeType, Size: info.Size(),
		})
		states[parent].directFiles++
		states[parent].directBytes += info.Size()

		registerDescendant(states, root, path, info.Name(), fileHash)

		files = append(files, catalog.FileRecord{
			Path:        fullPath,
			SourceRoot:  toSlash(root),
			Size:        info.Size(),
			Mime:        mimeType,
			ModTime:     info.ModTime(),
			ContentHash: fileHash,
			Status:      catalog.StatusScanned,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w: %w", root, errkind.IO, err)
	}

	samples := make(map[string]folderaction.FolderSample, len(states))
	var hashes []catalog.FolderHashRecord
	totals := rollupTotals(states)
	for path, st := range states {
		total := totals[path]
		samples[path] = folderaction.FolderSample{Path: path, Children: st.children, TotalFiles: total.files}
		hashes = append(hashes, catalog.FolderHashRecord{
			Path:        path,
			ContentHash: hashDescendants(st.descendants),
			FileCount:   total.files,
			ByteSize:    total.bytes,
		})
	}

	return &Result{Files: files, FolderSamples: samples, FolderHashes: hashes}, nil
}

// registerDescendant appends "relpath:filehash" to every ancestor
// folder's descendant list, from the file's direct parent up to root
// inclusive, with relpath computed relative to each ancestor.
func registerDescendant(states map[string]*folderState, root string, filePath, fileName, fileHash string) {
	rel := fileName
	cur := filepath.Dir(filePath)
	for {
		curSlash := toSlash(cur)
		if st, ok := states[curSlash]; ok {
			st.descendants = append(st.descendants, rel+":"+fileHash)
		}
		if filepath.Clean(cur) == filepath.Clean(root) {
			return
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return
		}
		rel = filepath.Base(cur) + "/" + rel
		cur = parent
	}
}

type folderTotal struct {
	files int
	bytes int64
}

// rollupTotals sums each folder's own direct file count/bytes with every
// descendant subfolder's totals, by processing folders deepest-first.
func rollupTotals(states map[string]*folderState) map[string]folderTotal {
	paths := make([]string, 0, len(states))
	for p := range states {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return depth(paths[i]) > depth(paths[j]) })

	totals := make(map[string]folderTotal, len(states))
	for _, p := range paths {
		st := states[p]
		t := folderTotal{files: st.directFiles, bytes: st.directBytes}
		for _, c := range st.children {
			if c.IsDir {
				childPath := toSlash(filepath.Join(p, c.Name))
				if sub, ok := totals[childPath]; ok {
					t.files += sub.files
					t.bytes += sub.bytes
				}
			}
		}
		totals[p] = t
	}
	return totals
}

func depth(path string) int {
	path = strings.Trim(path, "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/")
}

func toSlash(p string) string {
	return filepath.ToSlash(p)
}

// GuessMime resolves a MIME type from the file extension, falling back
// to a generic octet-stream when unrecognized. Exported so ancillary
// commands (e.g. the single-file analyze CLI) can resolve a MIME type
// the same way the scan stage does, without re-walking a source root.
func GuessMime(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return "application/octet-stream"
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// hashFile computes a sha256 content hash over path, reading in
// chunkSize chunks so arbitrarily large files never need to be held
// entirely in memory.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashDescendants fingerprints a folder by its full subtree: every
// descendant's relative path joined to its content hash, sorted
// lexicographically, one per line, then sha256-summed into a single
// FolderHashRecord. Two folders with an identical
// {relative path -> file hash} multiset hash identically, regardless of
// their own absolute location.
func hashDescendants(entries []string) string {
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, e := range sorted {
		h.Write([]byte(e))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
