// Package metadata signs data files with a YAML sidecar holding their
// SHA-256 hash and bookkeeping fields, and verifies them later.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is written into every sidecar.
const Version = "1"

// SidecarSuffix replaces the data file extension to name its sidecar.
const SidecarSuffix = ".meta.yaml"

// Metadata verification errors.
var (
	ErrNoMetadata   = errors.New("no metadata sidecar found")
	ErrNoHashFound  = errors.New("no hash found in metadata")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Metadata describes a signed data file.
type Metadata struct {
	LastModify time.Time `yaml:"last_modify"`
	Version    string    `yaml:"version"`
	Hash       string    `yaml:"hash"`
	Shard      int       `yaml:"shard"`
	Documents  int       `yaml:"documents"`
	Skipped    int       `yaml:"skipped"`
	Validation bool      `yaml:"validation"`
}

// SidecarPath returns the sidecar of dataPath: "doc3.parquet" -> "doc3.meta.yaml".
func SidecarPath(dataPath string) string {
	return strings.TrimSuffix(dataPath, filepath.Ext(dataPath)) + SidecarSuffix
}

// CalculateHash computes the SHA-256 hash of everything read from r.
func CalculateHash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile computes the SHA-256 hash of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return CalculateHash(f)
}

// Sign hashes dataPath and writes meta, with fresh hash, version and
// timestamp, to its sidecar.
func Sign(dataPath string, meta Metadata) (*Metadata, error) {
	hash, err := HashFile(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", dataPath, err)
	}

	meta.Hash = hash
	meta.Version = Version
	meta.LastModify = time.Now().UTC().Truncate(time.Second)
	meta.Validation = true

	data, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(SidecarPath(dataPath), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	return &meta, nil
}

// Read loads the sidecar of dataPath.
func Read(dataPath string) (*Metadata, error) {
	data, err := os.ReadFile(SidecarPath(dataPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoMetadata, dataPath)
		}

		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &meta, nil
}

// Verify checks that dataPath still matches the hash in its sidecar.
func Verify(dataPath string) (*Metadata, error) {
	meta, err := Read(dataPath)
	if err != nil {
		return nil, err
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	calculated, err := HashFile(dataPath)
	if err != nil {
		return meta, fmt.Errorf("failed to hash %s: %w", dataPath, err)
	}

	if calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
