// Package chipstore persists static chip capability snapshots so that
// capability queries can be answered before the driver is up. The on-disk
// format is a JSON array of {chipId, chipCapabilities, availableModes}.
package chipstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wifidm/internal/common/fsutil"
	"wifidm/pkg/types"
)

// Store reads and writes the static-chip-info snapshot.
type Store interface {
	Load() ([]types.StaticChipInfo, error)
	Save(infos []types.StaticChipInfo) error
}

// FileStore keeps the snapshot in a single JSON file. Writes go through a
// temp file + rename so a crash never leaves a truncated snapshot.
type FileStore struct {
	path string
}

// NewFileStore builds a store at path, expanding a leading '~'.
func NewFileStore(path string) (*FileStore, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: p}, nil
}

// Load returns the persisted snapshot, or an empty slice when the file does
// not exist yet.
func (s *FileStore) Load() ([]types.StaticChipInfo, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chip info: %w", err)
	}
	var infos []types.StaticChipInfo
	if err := json.Unmarshal(b, &infos); err != nil {
		return nil, fmt.Errorf("decode chip info: %w", err)
	}
	return infos, nil
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(infos []types.StaticChipInfo) error {
	b, err := json.Marshal(infos)
	if err != nil {
		return fmt.Errorf("encode chip info: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".chipinfo-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write chip info: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close chip info: %w", err)
	}
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename chip info: %w", err)
	}
	return nil
}

// MemStore is an in-memory store for tests.
type MemStore struct {
	infos []types.StaticChipInfo
	saves int
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Load() ([]types.StaticChipInfo, error) {
	return append([]types.StaticChipInfo(nil), s.infos...), nil
}

func (s *MemStore) Save(infos []types.StaticChipInfo) error {
	s.infos = append([]types.StaticChipInfo(nil), infos...)
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemStore) Saves() int { return s.saves }
