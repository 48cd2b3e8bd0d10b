// Package archive unpacks downloaded .tar.gz article packages.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// UnpackAll extracts every .tar.gz in downloadDir into destDir and
// returns the number of archives extracted. A missing downloadDir
// counts as empty. Empty archives are removed, corrupt ones logged and
// skipped; neither fails the batch.
func UnpackAll(ctx context.Context, downloadDir, destDir string) (int, error) {
	entries, err := os.ReadDir(downloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No download directory, nothing to unpack", "dir", downloadDir)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read download directory: %w", err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	count := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tar.gz") {
			continue
		}
		path := filepath.Join(downloadDir, e.Name())
		info, err := e.Info()
		if err != nil {
			return count, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.Size() == 0 {
			if err := os.Remove(path); err != nil {
				return count, fmt.Errorf("failed to remove empty archive: %w", err)
			}
			slog.Debug("Removed empty archive", "archive", e.Name())
			continue
		}
		if err := unpack(path, destDir); err != nil {
			slog.Warn("Skipping corrupt archive", "archive", e.Name(), "err", err)
			continue
		}
		count++
		slog.Debug("Unpacked archive", "archive", e.Name())
	}
	return count, nil
}

func unpack(path, destDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip header: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}
		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			if err := writeEntry(target, tr); err != nil {
				return err
			}
		default:
			// Links and special files never appear in these packages.
			slog.Debug("Skipping archive entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}
}

func writeEntry(target string, r io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	return out.Close()
}

// securePath joins name under dest, rejecting entries that escape it.
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}
