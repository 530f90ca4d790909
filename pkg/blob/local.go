package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on disk below root.
type LocalStore struct {
	root         string
	publicPrefix string
}

func NewLocalStore(root, publicPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	if publicPrefix == "" {
		publicPrefix = "/storage"
	}
	return &LocalStore{root: root, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

// Root is the directory served under the public prefix.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(name string) (string, error) {
	c, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(c)), nil
}

func (s *LocalStore) Put(_ context.Context, name string, data []byte, _ string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(name string) string {
	return s.publicPrefix + "/" + strings.TrimLeft(name, "/")
}
