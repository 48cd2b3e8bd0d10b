package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Sink persists typed rows in one of the output formats. The extraction
// driver streams per-record batches into a sink from a single collector
// goroutine; sinks are not safe for concurrent use.
type Sink[T any] interface {
	Write(rows []T) error
	Close() error
}

// NewSink creates dir/base.<format> and returns a sink plus the path it
// writes to. toRow converts one row to TSV fields; the parquet encoding
// uses the struct tags instead.
func NewSink[T any](dir, base string, format Format, columns []string, toRow func(T) []string) (Sink[T], string, error) {
	path := filepath.Join(dir, FileName(base, format))
	switch format {
	case FormatTSV:
		w, err := NewWriter(path, columns)
		if err != nil {
			return nil, "", err
		}
		return &tsvSink[T]{w: w, toRow: toRow}, path, nil
	case FormatParquet:
		f, err := os.Create(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
		}
		return &parquetSink[T]{f: f, w: parquet.NewGenericWriter[T](f)}, path, nil
	}
	return nil, "", fmt.Errorf("unknown output format %q", format)
}

type tsvSink[T any] struct {
	w     *Writer
	toRow func(T) []string
}

func (s *tsvSink[T]) Write(rows []T) error {
	for _, r := range rows {
		if err := s.w.Write(s.toRow(r)); err != nil {
			return err
		}
	}
	return nil
}

func (s *tsvSink[T]) Close() error {
	return s.w.Close()
}

type parquetSink[T any] struct {
	f *os.File
	w *parquet.GenericWriter[T]
}

func (s *parquetSink[T]) Write(rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := s.w.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}

func (s *parquetSink[T]) Close() error {
	err := s.w.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadParquet loads every row of a parquet file into memory.
func ReadParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	out := make([]T, 0, pf.NumRows())
	rows := make([]T, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			out = append(out, rows[:n]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to read parquet rows: %w", err)
			}
			break
		}
	}
	return out, nil
}
