package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/spf13/afero"
)

// LocalURLPrefix is where the router serves LocalStore objects.
const LocalURLPrefix = "/uploads/"

// LocalStore writes objects below the root of an afero filesystem.
type LocalStore struct {
	fs afero.Fs
}

// NewLocalStore roots the store at dir on the OS filesystem.
func NewLocalStore(dir string) (*LocalStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return NewLocalStoreFs(afero.NewBasePathFs(osFs, dir)), nil
}

// NewLocalStoreFs uses fs as the store root. Tests pass afero.NewMemMapFs().
func NewLocalStoreFs(fs afero.Fs) *LocalStore {
	return &LocalStore{fs: fs}
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if dir := path.Dir(key); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create object dir: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, key, data, 0o644); err != nil {
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	return LocalURLPrefix + key, nil
}

// Handler serves stored objects; mount it under LocalURLPrefix with the prefix stripped.
func (s *LocalStore) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
}
