package auth

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FallbackSalt is used only when the salt file can neither be read nor
// written.
const FallbackSalt = "scripts-manager-fallback-salt-2024"

const saltLen = 32

// SaltFileName is the name of the salt file inside the data directory
const SaltFileName = "auth.salt"

// SaltSource provides the deployment salt
type SaltSource interface {
	GetOrCreate() (string, error)
}

// SaltStore is a file backed SaltSource. The salt is generated once,
// persisted as hex text and reused for the lifetime of the deployment.
type SaltStore struct {
	path string

	mu       sync.Mutex
	salt     string
	degraded bool
}

// NewSaltStore returns a SaltStore persisting to the passed file path
func NewSaltStore(path string) *SaltStore {
	return &SaltStore{path: path}
}

// Path returns the salt file path
func (s *SaltStore) Path() string {
	return s.path
}

// Degraded reports whether the store fell back to FallbackSalt
func (s *SaltStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// GetOrCreate returns the persisted salt and creates it if it does not exist
// yet. Concurrent callers always observe the same value.
func (s *SaltStore) GetOrCreate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.salt != "" {
		return s.salt, nil
	}

	salt, err := s.readSalt()
	switch {
	case err == nil:
		s.salt = salt
		return salt, nil
	case errors.Is(err, errCorruptSalt):
		log.WithError(err).WithField("path", s.path).Warn("replacing corrupt salt file")
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.WithError(rmErr).WithField("path", s.path).Error("could not remove corrupt salt file")
		}
	case !errors.Is(err, os.ErrNotExist):
		log.WithError(err).WithField("path", s.path).Error("could not read salt file")
	}

	salt, err = s.createSalt()
	if err != nil {
		log.WithError(err).WithField("path", s.path).Warn(
			"SECURITY: salt storage unavailable, using the built-in fallback salt",
		)
		s.salt = FallbackSalt
		s.degraded = true
		return s.salt, nil
	}
	s.salt = salt
	return salt, nil
}

var errCorruptSalt = errors.New("salt file is corrupt")

func (s *SaltStore) readSalt() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	salt := strings.TrimSpace(string(data))
	if salt == "" {
		return "", errors.Wrap(errCorruptSalt, "empty")
	}
	if _, err = hex.DecodeString(salt); err != nil {
		return "", errors.Wrap(errCorruptSalt, "not hex")
	}
	return salt, nil
}

// createSalt writes a new salt to a temporary file and links it into place.
// The link fails if the salt file exists, so only a completely written file
// is ever visible under the salt path and racing writers converge on it.
func (s *SaltStore) createSalt() (string, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrap(err, "salt: could not create data directory")
	}
	salt, err := randomSalt()
	if err != nil {
		return "", err
	}
	tmp, err := writeTempSalt(dir, salt)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	if err = os.Link(tmp, s.path); err != nil {
		if errors.Is(err, os.ErrExist) {
			// another writer won the race
			return s.readSalt()
		}
		return "", errors.Wrap(err, "salt: could not move salt file into place")
	}
	log.WithField("path", s.path).Info("created new authentication salt")
	return salt, nil
}

func writeTempSalt(dir, salt string) (string, error) {
	f, err := os.CreateTemp(dir, "."+SaltFileName+"-*")
	if err != nil {
		return "", errors.Wrap(err, "salt: could not create temporary file")
	}
	name := f.Name()
	if _, err = f.WriteString(salt); err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", errors.Wrap(err, "salt: could not write salt file")
	}
	return name, nil
}

func randomSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "salt: could not read random bytes")
	}
	return hex.EncodeToString(b), nil
}
