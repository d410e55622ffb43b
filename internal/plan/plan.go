// Package plan reconciles a remote file listing against the local
// output directory and decides what needs downloading.
package plan

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/azmtag/nextcloud-share-downloader/internal/dav"
)

// File is a remote file bound to its local destination.
type File struct {
	dav.Item
	Dest      string
	LocalSize int64 // populated for mismatched files only
}

// Plan partitions the remote listing into download work. Each bucket is
// sorted by remote path; the buckets are mutually exclusive. A plan is
// built once per run and never mutated afterwards.
type Plan struct {
	New        []File // no local file
	Mismatched []File // local file with a different size
	Existing   []File // local file with the advertised size
}

// Downloads returns the files to fetch: mismatched first, then new.
func (p *Plan) Downloads() []File {
	out := make([]File, 0, len(p.Mismatched)+len(p.New))
	out = append(out, p.Mismatched...)
	out = append(out, p.New...)
	return out
}

// TotalSize sums the advertised sizes of all files to fetch.
func (p *Plan) TotalSize() int64 {
	var total int64
	for _, f := range p.Downloads() {
		total += f.Size()
	}
	return total
}

// Build computes the download plan for a remote listing. Destination
// paths are the percent-decoded remote paths joined under outDir. When
// globs are given, only files whose destination path matches at least
// one pattern are kept; wildcards cross directory separators, so *.txt
// selects matching files at any depth. When outDir is missing or
// empty every file is new and the filesystem is not probed at all.
func Build(items []dav.Item, outDir string, globs []string) (*Plan, error) {
	files := make([]File, 0, len(items))
	for _, it := range items {
		rel, err := decodePath(it.Path)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Item: it, Dest: filepath.Join(outDir, filepath.FromSlash(rel))})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	if len(globs) > 0 {
		kept := files[:0]
		for _, f := range files {
			ok, err := matchAny(globs, f.Dest)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	p := &Plan{}
	if !DirNotEmpty(outDir) {
		p.New = files
		return p, nil
	}

	for _, f := range files {
		info, err := os.Stat(f.Dest)
		if err != nil || !info.Mode().IsRegular() {
			p.New = append(p.New, f)
			continue
		}
		if info.Size() == f.Size() {
			p.Existing = append(p.Existing, f)
		} else {
			f.LocalSize = info.Size()
			p.Mismatched = append(p.Mismatched, f)
		}
	}
	return p, nil
}

// DirNotEmpty reports whether path is a directory with at least one entry.
func DirNotEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// decodePath percent-decodes a remote path and strips the leading slash.
func decodePath(remotePath string) (string, error) {
	decoded, err := url.PathUnescape(remotePath)
	if err != nil {
		return "", errors.Wrapf(err, "decode remote path %q", remotePath)
	}
	return strings.TrimPrefix(decoded, "/"), nil
}

// flatSep replaces directory separators during glob matching. It can
// never occur in a path, so the glob engine sees no separators at all
// and * and ? cross directory boundaries, fnmatch-style.
const flatSep = "\x00"

// matchAny is an OR over the patterns, matched against the full
// destination path treated as one flat string: *, ?, and [...] work as
// in the shell, and *.txt selects matching files at any depth.
func matchAny(globs []string, dest string) (bool, error) {
	name := strings.ReplaceAll(filepath.ToSlash(dest), "/", flatSep)
	for _, g := range globs {
		ok, err := doublestar.Match(strings.ReplaceAll(g, "/", flatSep), name)
		if err != nil {
			return false, errors.Wrapf(err, "bad glob pattern %q", g)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
