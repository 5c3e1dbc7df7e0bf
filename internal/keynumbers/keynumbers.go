// Package keynumbers maintains the key_numbers.json document shared by all
// pipelines. Each run merges its indicators into the existing document so
// pipelines can update independently without clobbering each other's
// numbers.
package keynumbers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and updates a key numbers JSON document on disk.
type Store struct {
	path string
}

// NewStore returns a store backed by the file at path. The file is created
// on first update.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Update merges the provided indicators into the document, overwriting any
// indicator that already exists.
func (s *Store) Update(indicators map[string]string) error {
	if len(indicators) == 0 {
		return nil
	}

	current, err := s.Load()
	if err != nil {
		return err
	}
	for name, value := range indicators {
		current[name] = value
	}

	data, err := json.MarshalIndent(current, "", "    ")
	if err != nil {
		return fmt.Errorf("encode key numbers: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Load reads the current document. A missing file yields an empty map.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return out, nil
}
