package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/hupe1980/vecknn/internal/mmap"
)

// LocalStore implements Store on the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open maps the file read-only.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mmap.Open(s.path(name), mmap.AccessSequential)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create writes to a temporary file in the target directory and renames it
// into place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.path(name)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{f: f, path: path}, nil
}

type localWritableBlob struct {
	f      *os.File
	path   string
	closed bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	if b.closed {
		return 0, os.ErrClosed
	}
	return b.f.Write(p)
}

func (b *localWritableBlob) Close() error {
	if b.closed {
		return os.ErrClosed
	}
	b.closed = true

	tmp := b.f.Name()
	err := errors.Join(b.f.Sync(), b.f.Close())
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (b *localWritableBlob) Abort() error {
	if b.closed {
		return os.ErrClosed
	}
	b.closed = true

	tmp := b.f.Name()
	return errors.Join(b.f.Close(), os.Remove(tmp))
}

var _ Blob = (*mmap.Mapping)(nil)
