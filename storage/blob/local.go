package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStore keeps blobs as files in a directory
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed and returns a LocalStore
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "blob: could not create upload directory")
	}
	return &LocalStore{dir: dir}, nil
}

// Name implements the Store interface
func (*LocalStore) Name() string {
	return BackendLocal
}

// Put implements the Store interface
func (s *LocalStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if err := validKey(key); err != nil {
		return err
	}
	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return errors.Wrap(err, "blob: could not create file")
	}
	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return errors.Wrap(err, "blob: could not write file")
	}
	return errors.Wrap(f.Close(), "blob: could not close file")
}

// Open implements the Store interface
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "blob: could not open file")
	}
	return f, nil
}

// Delete implements the Store interface. Deleting a missing blob is not an
// error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "blob: could not delete file")
	}
	return nil
}
