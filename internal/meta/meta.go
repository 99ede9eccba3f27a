// Package meta reads and writes the metadata file that makes a store
// directory self-describing.
//
// The file is meta.json with the fields n_partition, compression and by,
// the format pdpart directories use. Compression is null for
// uncompressed stores and by is null when no key column was recorded.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Filename is the name of the metadata file inside a store directory.
const Filename = "meta.json"

var (
	// ErrNotFound indicates the directory has no metadata file.
	ErrNotFound = errors.New("meta: metadata file not found")

	// ErrInvalid indicates the metadata file exists but cannot be used.
	ErrInvalid = errors.New("meta: invalid metadata")
)

// Meta is the persisted store configuration.
type Meta struct {
	// Partitions is the number of shards.
	Partitions int `json:"n_partition"`

	// Compression is the codec name, nil for none.
	Compression *string `json:"compression"`

	// By is the key column, nil if not recorded.
	By *string `json:"by"`

	// Strategy names the partition function. Omitted for the default.
	Strategy string `json:"strategy,omitempty"`
}

// New builds a Meta, mapping empty strings to null fields.
func New(partitions int, compression, by, strategy string) *Meta {
	m := &Meta{Partitions: partitions, Strategy: strategy}
	if compression != "" {
		m.Compression = &compression
	}
	if by != "" {
		m.By = &by
	}
	return m
}

// CompressionName returns the codec name, or empty string for none.
func (m *Meta) CompressionName() string {
	if m.Compression == nil {
		return ""
	}
	return *m.Compression
}

// KeyColumn returns the key column, or empty string if not recorded.
func (m *Meta) KeyColumn() string {
	if m.By == nil {
		return ""
	}
	return *m.By
}

// Validate checks the fields that every store needs.
func (m *Meta) Validate() error {
	if m.Partitions <= 0 {
		return fmt.Errorf("%w: n_partition must be positive, got %d", ErrInvalid, m.Partitions)
	}
	switch m.CompressionName() {
	case "", "gzip", "zstd":
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalid, m.CompressionName())
	}
	return nil
}

// Encode serializes m.
func Encode(m *Meta) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates metadata.
func Decode(data []byte) (*Meta, error) {
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Write stores the metadata file in dir. The file is written to a
// temporary name and renamed, so readers never see a partial file.
func Write(dir string, m *Meta) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := Encode(m)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, Filename)
	tmp, err := os.CreateTemp(dir, Filename+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Read loads the metadata file from dir.
func Read(dir string) (*Meta, error) {
	path := filepath.Join(dir, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
