package tokenstore

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps the tokens in a JSON file so that a restart of the process keeps the session.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(_ context.Context) (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore Get] read")
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "[FileStore Get] decode")
	}
	if p.AccessToken == "" && p.RefreshToken == "" {
		return nil, ErrNotFound
	}
	return p.pair(), nil
}

// Set replaces the stored pair. The file is written to a temp file first and renamed into place
// so a crash never leaves half a token pair behind.
func (s *FileStore) Set(_ context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(persisted{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	if err != nil {
		return errors.Wrap(err, "[FileStore Set] encode")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[FileStore Set] mkdir")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "[FileStore Set] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileStore Set] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileStore Set] chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[FileStore Set] close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "[FileStore Set] rename")
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "[FileStore Clear] remove")
	}
	return nil
}
