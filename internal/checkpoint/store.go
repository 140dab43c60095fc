// Package checkpoint persists the extracted documents of each shard so an
// interrupted run resumes without reprocessing finished shards.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"byweb/internal/models"
	"byweb/pkg/metadata"
)

// Snapshot errors.
var (
	ErrNoSnapshot      = errors.New("no snapshot for shard")
	ErrSnapshotCorrupt = errors.New("snapshot is corrupt")
)

const snapshotExt = ".parquet"

// Store keeps one parquet snapshot and one signed sidecar per shard.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the snapshot file of shard i.
func (s *Store) Path(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("doc%d%s", i, snapshotExt))
}

// Save writes the documents of shard i and signs the snapshot.
func (s *Store) Save(i int, docs []models.Document, skipped int) (*metadata.Metadata, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := s.Path(i)
	tmp := path + ".tmp"

	if err := parquet.WriteFile(tmp, docs); err != nil {
		_ = os.Remove(tmp)

		return nil, fmt.Errorf("failed to write snapshot %d: %w", i, err)
	}

	// A stale sidecar must not vouch for the new file.
	_ = os.Remove(metadata.SidecarPath(path))

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)

		return nil, fmt.Errorf("failed to move snapshot %d into place: %w", i, err)
	}

	meta, err := metadata.Sign(path, metadata.Metadata{
		Shard:     i,
		Documents: len(docs),
		Skipped:   skipped,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign snapshot %d: %w", i, err)
	}

	return meta, nil
}

// Exists reports whether shard i has a snapshot and a sidecar.
func (s *Store) Exists(i int) bool {
	path := s.Path(i)

	if _, err := os.Stat(path); err != nil {
		return false
	}

	_, err := os.Stat(metadata.SidecarPath(path))

	return err == nil
}

// Load reads and verifies the snapshot of shard i.
func (s *Store) Load(i int) ([]models.Document, *metadata.Metadata, error) {
	path := s.Path(i)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w %d", ErrNoSnapshot, i)
		}

		return nil, nil, fmt.Errorf("failed to stat snapshot %d: %w", i, err)
	}

	meta, err := metadata.Verify(path)
	if err != nil {
		if errors.Is(err, metadata.ErrNoMetadata) {
			return nil, nil, fmt.Errorf("%w %d: %w", ErrNoSnapshot, i, err)
		}

		return nil, nil, fmt.Errorf("%w: shard %d: %w", ErrSnapshotCorrupt, i, err)
	}

	if meta.Shard != i {
		return nil, nil, fmt.Errorf("%w: shard %d sidecar names shard %d", ErrSnapshotCorrupt, i, meta.Shard)
	}

	docs, err := parquet.ReadFile[models.Document](path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: shard %d: %w", ErrSnapshotCorrupt, i, err)
	}

	if len(docs) != meta.Documents {
		return nil, nil, fmt.Errorf("%w: shard %d holds %d documents, sidecar says %d",
			ErrSnapshotCorrupt, i, len(docs), meta.Documents)
	}

	return docs, meta, nil
}

// Resign recreates the sidecar of shard i from the snapshot contents. It
// recovers a snapshot whose sidecar was lost or written by an older run.
func (s *Store) Resign(i int) (*metadata.Metadata, error) {
	path := s.Path(i)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w %d", ErrNoSnapshot, i)
		}

		return nil, fmt.Errorf("failed to stat snapshot %d: %w", i, err)
	}

	docs, err := parquet.ReadFile[models.Document](path)
	if err != nil {
		return nil, fmt.Errorf("%w: shard %d: %w", ErrSnapshotCorrupt, i, err)
	}

	skipped := 0
	if old, err := metadata.Read(path); err == nil {
		skipped = old.Skipped
	}

	return metadata.Sign(path, metadata.Metadata{Shard: i, Documents: len(docs), Skipped: skipped})
}

// LoadAll merges the snapshots of shards in the given order. Shards without
// a snapshot are left out; a corrupt snapshot is an error.
func (s *Store) LoadAll(shards []int) ([]models.Document, []int, error) {
	var (
		docs   []models.Document
		loaded []int
	)

	for _, i := range shards {
		shardDocs, _, err := s.Load(i)
		if errors.Is(err, ErrNoSnapshot) {
			continue
		}

		if err != nil {
			return nil, nil, err
		}

		docs = append(docs, shardDocs...)
		loaded = append(loaded, i)
	}

	return docs, loaded, nil
}

// Reset deletes every snapshot and sidecar in the store.
func (s *Store) Reset() error {
	for _, pattern := range []string{"doc*" + snapshotExt, "doc*" + metadata.SidecarSuffix, "doc*" + snapshotExt + ".tmp"} {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, m := range matches {
			if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove %s: %w", m, err)
			}
		}
	}

	return nil
}
