package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every lead in one human-readable JSON array. Each append
// rewrites the whole file through a temp file and rename, so a failed write
// never truncates what was already there. The mutex serializes writers in
// this process only; run a single writer per file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store at path. The file and its directory are
// created on first append.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("leads: file store path required")
	}
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// LoadAll reads the file. A missing or empty file is an empty store.
func (s *FileStore) LoadAll(ctx context.Context) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Append adds lead to the end of the array.
func (s *FileStore) Append(ctx context.Context, lead Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		return err
	}
	for _, l := range existing {
		if l.ID == lead.ID {
			return ErrDuplicateLead
		}
	}
	return s.write(append(existing, lead))
}

func (s *FileStore) read() ([]Lead, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leads: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []Lead{}, nil
	}
	var leads []Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("leads: decode %s: %w", s.path, err)
	}
	if leads == nil {
		leads = []Lead{}
	}
	return leads, nil
}

func (s *FileStore) write(leads []Lead) error {
	data, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return fmt.Errorf("leads: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("leads: create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("leads: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("leads: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("leads: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("leads: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("leads: replace %s: %w", s.path, err)
	}
	return nil
}
