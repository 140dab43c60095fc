// Package export writes the final tables as CSV files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"

	"byweb/internal/models"
)

// ErrRaggedRow is returned when a row does not match the header width.
var ErrRaggedRow = errors.New("row width differs from header")

// Stats describes a written file.
type Stats struct {
	Path string
	Rows int
}

// WriteTable writes the header and rows of t to path. Paths ending in ".gz"
// are gzip-compressed. The file is written next to path and renamed into
// place, so a failed export never leaves a partial file behind.
func WriteTable(path string, t models.Table) (Stats, error) {
	stats := Stats{Path: path}

	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return stats, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrRaggedRow, i, len(row), len(t.Header))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return stats, fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}

	err = encode(tmp, path, t)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return stats, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())

		return stats, fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	stats.Rows = len(t.Rows)

	return stats, nil
}

func encode(w io.Writer, path string, t models.Table) error {
	var gz *pgzip.Writer

	if strings.HasSuffix(path, ".gz") {
		gz = pgzip.NewWriter(w)
		w = gz
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(t.Header); err != nil {
		return err
	}

	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}

	if gz != nil {
		return gz.Close()
	}

	return nil
}

// ReadTable reads a file written by WriteTable.
func ReadTable(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f

	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return models.Table{}, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()

		r = gz
	}

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(records) == 0 {
		return models.Table{}, nil
	}

	return models.Table{Header: records[0], Rows: records[1:]}, nil
}
