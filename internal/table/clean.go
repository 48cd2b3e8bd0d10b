package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/r-shadoff/figmine/internal/textclean"
)

// CleanFile rewrites every cell of the TSV at path through clean and
// writes the result alongside it with a _cleaned suffix, returning the
// output path. The header row only gets whitespace normalization so
// column names come through intact.
func CleanFile(path string, clean func(string) string) (string, error) {
	rows, err := readTSVAny(path)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s has no header row", path)
	}

	ext := filepath.Ext(path)
	outPath := strings.TrimSuffix(path, ext) + "_cleaned" + ext

	w, err := NewWriter(outPath, cleanRow(rows[0], textclean.Simple))
	if err != nil {
		return "", err
	}
	for _, row := range rows[1:] {
		if err := w.Write(cleanRow(row, clean)); err != nil {
			w.Close()
			return "", fmt.Errorf("failed to write cleaned row: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish %s: %w", outPath, err)
	}
	return outPath, nil
}

func cleanRow(row []string, clean func(string) string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = clean(cell)
	}
	return out
}
