package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeArchive builds a .tar.gz at path from name -> content pairs.
func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader failed: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestUnpackAll(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "Uncompressed")

	writeArchive(t, filepath.Join(root, "PMC1.tar.gz"), map[string]string{
		"PMC1/article.nxml": "<article/>",
		"PMC1/figure.png":   "png bytes",
	})
	writeArchive(t, filepath.Join(root, "PMC2.tar.gz"), map[string]string{
		"PMC2/article.nxml": "<article/>",
	})
	// Not an archive, must be ignored.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	count, err := UnpackAll(context.Background(), root, dest)
	if err != nil {
		t.Fatalf("UnpackAll failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 archives unpacked, got %d", count)
	}

	content, err := os.ReadFile(filepath.Join(dest, "PMC1", "article.nxml"))
	if err != nil {
		t.Fatalf("Expected extracted article: %v", err)
	}
	if string(content) != "<article/>" {
		t.Errorf("Expected article content, got %q", content)
	}
	if _, err := os.Stat(filepath.Join(dest, "PMC2", "article.nxml")); err != nil {
		t.Errorf("Expected second archive extracted: %v", err)
	}
}

func TestUnpackAllSkipsCorruptArchive(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "Uncompressed")

	if err := os.WriteFile(filepath.Join(root, "bad.tar.gz"), []byte("not gzip at all"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	writeArchive(t, filepath.Join(root, "good.tar.gz"), map[string]string{
		"PMC3/article.nxml": "<article/>",
	})

	count, err := UnpackAll(context.Background(), root, dest)
	if err != nil {
		t.Fatalf("UnpackAll failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 archive unpacked, got %d", count)
	}
}

func TestUnpackAllRemovesEmptyArchive(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty.tar.gz")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	count, err := UnpackAll(context.Background(), root, filepath.Join(root, "Uncompressed"))
	if err != nil {
		t.Fatalf("UnpackAll failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 archives unpacked, got %d", count)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Errorf("Expected empty archive removed, got %v", err)
	}
}

func TestUnpackRejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "Uncompressed")

	writeArchive(t, filepath.Join(root, "evil.tar.gz"), map[string]string{
		"../escaped.txt": "outside",
	})

	count, err := UnpackAll(context.Background(), root, dest)
	if err != nil {
		t.Fatalf("UnpackAll failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected traversal archive skipped, got count %d", count)
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.txt")); !os.IsNotExist(err) {
		t.Errorf("Expected no file outside destination, got %v", err)
	}
}

func TestUnpackAllMissingDownloadDir(t *testing.T) {
	root := t.TempDir()
	n, err := UnpackAll(context.Background(), filepath.Join(root, "Downloaded_Files"), filepath.Join(root, "Uncompressed"))
	if err != nil {
		t.Fatalf("UnpackAll failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 archives, got %d", n)
	}
}

func TestUnpackAllHonorsContext(t *testing.T) {
	root := t.TempDir()
	writeArchive(t, filepath.Join(root, "PMC1.tar.gz"), map[string]string{
		"PMC1/article.nxml": "<article/>",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := UnpackAll(ctx, root, filepath.Join(root, "Uncompressed")); err == nil {
		t.Error("Expected context error")
	}
}
