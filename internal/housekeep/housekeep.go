// Package housekeep finalizes a processed corpus: record directories
// move up beside the output tables, unwanted file types disappear, and
// the pipeline's scratch directories are erased.
package housekeep

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/r-shadoff/figmine/internal/pmc"
)

// DefaultRemoveExts are the file types stripped from finished records.
var DefaultRemoveExts = []string{".gif", ".doc", ".docx", ".html", ".mov"}

// scratch reports whether name is one of the pipeline's own working
// directories, which never count as records.
func scratch(name string) bool {
	return name == pmc.DownloadDir || name == pmc.UnpackDir || name == pmc.SortedDir
}

// Shuttle moves every record out of root/Sorted up into root, so the
// source packages end up beside the output tables. A record whose name
// already exists at the destination is skipped with a warning. A missing
// Sorted directory means there is nothing to do.
func Shuttle(root string) (int, error) {
	src := filepath.Join(root, pmc.SortedDir)
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", src, err)
	}

	moved := 0
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(root, e.Name())
		if _, err := os.Stat(to); err == nil {
			slog.Warn("Skipping move, destination exists", "name", e.Name())
			continue
		}
		if err := os.Rename(from, to); err != nil {
			return moved, fmt.Errorf("failed to move %s: %w", e.Name(), err)
		}
		moved++
		slog.Debug("Moved record up", "record", e.Name())
	}
	return moved, nil
}

// RemoveByExtension deletes files matching any of the given extensions
// one level inside each record directory under root. Matching is
// case-sensitive.
func RemoveByExtension(root string, exts []string) (int, error) {
	unwanted := make(map[string]bool, len(exts))
	for _, ext := range exts {
		unwanted[ext] = true
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", root, err)
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || scratch(e.Name()) {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, f := range files {
			if f.IsDir() || !unwanted[filepath.Ext(f.Name())] {
				continue
			}
			path := filepath.Join(dir, f.Name())
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", path, err)
			}
			removed++
			slog.Debug("Deleted file", "path", path)
		}
	}
	return removed, nil
}

// UniqueExtensions returns the sorted set of file extensions surviving
// in the record directories under root. Records without a PDF draw a
// warning, since finished packages normally keep one.
func UniqueExtensions(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() || scratch(e.Name()) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		hasPDF := false
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			ext := filepath.Ext(f.Name())
			if ext == "" {
				continue
			}
			seen[ext] = true
			if ext == ".pdf" {
				hasPDF = true
			}
		}
		if !hasPDF {
			slog.Warn("Record has no PDF file", "record", e.Name())
		}
	}

	exts := make([]string, 0, len(seen))
	for ext := range seen {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts, nil
}

// RemoveTrace deletes the scratch directories left behind by fetching,
// unpacking, and sorting. Missing directories are not an error.
func RemoveTrace(root string) error {
	for _, name := range []string{pmc.DownloadDir, pmc.UnpackDir, pmc.SortedDir} {
		dir := filepath.Join(root, name)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}
