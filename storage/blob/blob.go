// Package blob stores the contents of uploaded files, either in a local
// directory or in an S3 compatible bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Backend names
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// ErrNotFound is returned when a blob does not exist
var ErrNotFound = errors.New("blob not found")

// Store persists file contents under a key
type Store interface {
	Name() string
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by stores that can hand out temporary direct
// download URLs
type Presigner interface {
	PresignGet(ctx context.Context, key, downloadName string, ttl time.Duration) (string, error)
}

// NewKey returns a fresh storage key keeping the extension of originalName
func NewKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return fmt.Sprintf("%s%s", uuid.New(), ext)
}

func validKey(key string) error {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return errors.Errorf("invalid blob key '%s'", key)
	}
	return nil
}
