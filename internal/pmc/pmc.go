// Package pmc understands the on-disk layout of PubMed Central open
// access packages: record directories named by accession, each holding
// an article .nxml and its image files.
package pmc

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/r-shadoff/figmine/internal/jats"
)

// Scratch directories the pipeline creates under the corpus root.
const (
	DownloadDir = "Downloaded_Files"
	UnpackDir   = "Uncompressed"
	SortedDir   = "Sorted"
)

var accessionRE = regexp.MustCompile(`PMC\d+`)

// IsRecord reports whether name carries a PMC accession.
func IsRecord(name string) bool {
	return accessionRE.MatchString(name)
}

// Image formats that count toward viability. Matching is case-sensitive,
// as the archive produces lowercase extensions.
var imageExts = []string{".png", ".jpg", ".gif"}

// RecordID extracts the PMC accession from a record directory name,
// falling back to the bare directory name when there is none.
func RecordID(path string) string {
	base := filepath.Base(path)
	if m := accessionRE.FindString(base); m != "" {
		return m
	}
	return base
}

// FindArticleFile returns the first .nxml file in dir, in name order.
func FindArticleFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read record directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".nxml") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no article file in %s", dir)
}

// HasImage reports whether dir contains at least one image file.
func HasImage(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("failed to read record directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, ext := range imageExts {
			if strings.HasSuffix(e.Name(), ext) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Viable reports whether a record has what figure extraction needs: at
// least one image file and an article with at least one figure element.
func Viable(dir string) (bool, error) {
	hasImage, err := HasImage(dir)
	if err != nil {
		return false, err
	}
	if !hasImage {
		return false, nil
	}
	article, err := FindArticleFile(dir)
	if err != nil {
		return false, nil
	}
	doc, err := jats.ParseFile(article)
	if err != nil {
		return false, err
	}
	return doc.HasFigures(), nil
}

// Records returns the record directories directly under root, in name
// order.
func Records(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}

// Sort moves viable records from src into dst and deletes the rest.
// A missing src counts as empty. Directories without a PMC accession in
// their name are left in place. A record that fails the viability check
// with an error counts as not viable and is removed like the rest.
func Sort(src, dst string) (viable, removed int, err error) {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	records, err := Records(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	for _, dir := range records {
		base := filepath.Base(dir)
		if !IsRecord(base) {
			slog.Debug("Skipping non-record directory", "dir", base)
			continue
		}
		ok, verr := Viable(dir)
		if verr != nil {
			slog.Warn("Viability check failed, removing record", "record", base, "err", verr)
		}
		if ok {
			if err := os.Rename(dir, filepath.Join(dst, base)); err != nil {
				return viable, removed, fmt.Errorf("failed to move record %s: %w", base, err)
			}
			viable++
			slog.Debug("Record sorted for processing", "record", base)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return viable, removed, fmt.Errorf("failed to remove record %s: %w", base, err)
		}
		removed++
		slog.Debug("Removed record without usable figure data", "record", base)
	}
	return viable, removed, nil
}
