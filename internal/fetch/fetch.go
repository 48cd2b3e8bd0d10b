// Package fetch downloads article packages from the PMC open access FTP
// host.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	// DefaultHost is the public PMC open access FTP endpoint.
	DefaultHost = "ftp.ncbi.nlm.nih.gov:21"

	// Package archives live two directory levels below this root,
	// oa_package/<dir>/<subdir>/<accession>.tar.gz.
	BasePath = "/pub/pmc/oa_package"

	// HostEnv overrides the archive host, mainly for mirrors.
	HostEnv = "FIGMINE_FTP_HOST"

	dialTimeout   = 30 * time.Second
	progressEvery = 25
)

// HostFromEnv returns the configured archive host, preferring the
// FIGMINE_FTP_HOST environment variable.
func HostFromEnv() string {
	if host := os.Getenv(HostEnv); host != "" {
		return host
	}
	return DefaultHost
}

// Client wraps an authenticated connection to the archive host.
type Client struct {
	conn *ftp.ServerConn
}

// Dial connects to host and performs the anonymous login the public
// archive expects.
func Dial(ctx context.Context, host string) (*Client, error) {
	if host == "" {
		host = DefaultHost
	}
	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(dialTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	if err := conn.Login("anonymous", "anonymous"); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close ends the FTP session.
func (c *Client) Close() error {
	return c.conn.Quit()
}

// FetchShard downloads every package archive under
// oa_package/<dir>/<subdir> into destDir and returns the number fetched.
// Archives already present locally are kept and skipped.
func (c *Client) FetchShard(ctx context.Context, dir, subdir, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	remoteDir := path.Join(BasePath, dir, subdir)
	names, err := c.conn.NameList(remoteDir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", remoteDir, err)
	}
	slog.Info("Listed remote shard", "shard", dir+"/"+subdir, "files", len(names))

	fetched := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		base := path.Base(name)
		if !strings.HasSuffix(base, ".tar.gz") {
			continue
		}
		destPath := filepath.Join(destDir, base)
		if _, err := os.Stat(destPath); err == nil {
			slog.Debug("Archive already downloaded", "archive", base)
			continue
		}
		if err := c.fetchOne(path.Join(remoteDir, base), destPath); err != nil {
			return fetched, err
		}
		fetched++
		if fetched%progressEvery == 0 {
			slog.Info("Download progress", "fetched", fetched, "total", len(names))
		}
	}
	slog.Info("Shard downloaded", "shard", dir+"/"+subdir, "archives", fetched)
	return fetched, nil
}

// fetchOne retrieves a single archive through a temporary file so an
// interrupted transfer never leaves a half-written .tar.gz behind.
func (c *Client) fetchOne(remotePath, destPath string) error {
	resp, err := c.conn.Retr(remotePath)
	if err != nil {
		return fmt.Errorf("failed to retrieve %s: %w", remotePath, err)
	}
	defer resp.Close()

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, resp); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finish %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}
