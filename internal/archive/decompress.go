// Package archive decompresses the collection shards to disk.
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/pgzip"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 100 * 1024

// Archive errors.
var (
	ErrArchiveMissing = errors.New("archive not found")
	ErrArchiveCorrupt = errors.New("archive is corrupt or truncated")
	ErrUnknownFormat  = errors.New("unknown archive format")
)

// Format is a compression format.
type Format string

// Supported formats.
const (
	FormatAuto  Format = "auto"
	FormatBzip2 Format = "bzip2"
	FormatGzip  Format = "gzip"
)

var (
	bzip2Magic = []byte("BZh")
	gzipMagic  = []byte{0x1f, 0x8b}
)

// ShardPath names the archive of shard i, e.g. "byweb.xml.%d.bz2" -> "byweb.xml.3.bz2".
func ShardPath(pattern string, i int) string {
	return fmt.Sprintf(pattern, i)
}

// DecompressedPath names the XML file shard i decompresses to inside workDir.
func DecompressedPath(workDir, pattern string, i int) string {
	return filepath.Join(workDir, fmt.Sprintf(pattern, i))
}

// Options tune a decompression run.
type Options struct {
	Format    Format
	ChunkSize int
}

// Stats describes a finished decompression.
type Stats struct {
	Format            Format
	CompressedBytes   int64
	DecompressedBytes int64
	Duration          time.Duration
}

// Decompress streams src into dst, chunkSize bytes at a time. Output goes to
// a ".part" file that is renamed on success and removed on failure, so a
// corrupt archive never leaves a file at dst.
func Decompress(src, dst string, opts Options) (Stats, error) {
	start := time.Now()

	stats := Stats{Format: opts.Format}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, fmt.Errorf("%w: %s", ErrArchiveMissing, src)
		}

		return stats, fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer in.Close()

	counted := &countingReader{r: in}
	buffered := bufio.NewReaderSize(counted, chunk)

	format, err := resolveFormat(opts.Format, src, buffered)
	if err != nil {
		return stats, err
	}

	stats.Format = format

	rc, err := open(format, buffered)
	if err != nil {
		return stats, fmt.Errorf("%w: %s: %w", ErrArchiveCorrupt, src, err)
	}
	defer rc.Close()

	if mkErr := os.MkdirAll(filepath.Dir(dst), 0755); mkErr != nil {
		return stats, fmt.Errorf("failed to create directory for %s: %w", dst, mkErr)
	}

	part := dst + ".part"

	out, err := os.Create(part)
	if err != nil {
		return stats, fmt.Errorf("failed to create %s: %w", part, err)
	}

	n, copyErr := io.CopyBuffer(out, rc, make([]byte, chunk))
	closeErr := out.Close()

	stats.DecompressedBytes = n
	stats.CompressedBytes = counted.n
	stats.Duration = time.Since(start)

	if copyErr != nil {
		_ = os.Remove(part)

		return stats, fmt.Errorf("%w: %s after %d bytes: %w", ErrArchiveCorrupt, src, n, copyErr)
	}

	if closeErr != nil {
		_ = os.Remove(part)

		return stats, fmt.Errorf("failed to close %s: %w", part, closeErr)
	}

	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)

		return stats, fmt.Errorf("failed to move %s into place: %w", dst, err)
	}

	return stats, nil
}

// resolveFormat settles FormatAuto by extension, then by magic bytes.
func resolveFormat(format Format, path string, r *bufio.Reader) (Format, error) {
	switch format {
	case FormatBzip2, FormatGzip:
		return format, nil
	case FormatAuto, "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".bz2":
		return FormatBzip2, nil
	case ".gz":
		return FormatGzip, nil
	}

	head, _ := r.Peek(3)

	switch {
	case bytes.HasPrefix(head, bzip2Magic):
		return FormatBzip2, nil
	case bytes.HasPrefix(head, gzipMagic):
		return FormatGzip, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func open(format Format, r io.Reader) (io.ReadCloser, error) {
	switch format {
	case FormatBzip2:
		return bzip2.NewReader(r, nil)
	case FormatGzip:
		return pgzip.NewReader(r)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}
