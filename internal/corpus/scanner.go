// Package corpus finds and reads the document files named on the command line.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"docchat/internal/indexer"
)

// ScannedFile represents a document file found during scanning.
type ScannedFile struct {
	Path string // Path as matched, relative to the working directory when the pattern was
	Name string // Slash-separated name used as the document source
	Size int64
}

// Scan expands each argument into the ingestible files it names.
// An argument may be a file, a directory (searched recursively), or a
// doublestar glob such as "docs/**/*.pdf". Hidden directories are skipped
// and results are deduplicated and sorted.
func Scan(ctx context.Context, args []string) ([]ScannedFile, error) {
	seen := make(map[string]bool)
	var scanned []ScannedFile

	add := func(path string, info fs.FileInfo) {
		clean := filepath.Clean(path)
		if seen[clean] || !info.Mode().IsRegular() || !indexer.SupportedExtension(clean) {
			return
		}
		seen[clean] = true
		scanned = append(scanned, ScannedFile{
			Path: clean,
			Name: filepath.ToSlash(clean),
			Size: info.Size(),
		})
	}

	for _, arg := range args {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if IsPattern(arg) {
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			for _, match := range matches {
				if hiddenPath(match) {
					continue
				}
				info, err := os.Stat(match)
				if err != nil {
					return nil, fmt.Errorf("failed to stat %s: %w", match, err)
				}
				add(match, info)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg, info)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("failed to access path %s: %w", path, err)
			}
			if d.IsDir() {
				if path != arg && isHidden(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}
			add(path, info)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", arg, err)
		}
	}

	sort.Slice(scanned, func(i, j int) bool {
		return scanned[i].Path < scanned[j].Path
	})
	return scanned, nil
}

// IsPattern reports whether arg contains glob metacharacters.
func IsPattern(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// Roots returns the directories that must be watched to see changes to
// files matched by args.
func Roots(args []string) []string {
	seen := make(map[string]bool)
	var roots []string
	addRoot := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}

	for _, arg := range args {
		switch {
		case IsPattern(arg):
			base, _ := doublestar.SplitPattern(filepath.ToSlash(arg))
			addRoot(filepath.FromSlash(base))
		default:
			info, err := os.Stat(arg)
			if err == nil && info.IsDir() {
				addRoot(arg)
			} else {
				addRoot(filepath.Dir(arg))
			}
		}
	}
	sort.Strings(roots)
	return roots
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".") && name != ".."
}

func hiddenPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}
