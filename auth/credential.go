package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// HashIterations is the PBKDF2 iteration count shared with the login page
	HashIterations = 100000
	hashKeyLen     = 32
)

// DeriveHash returns the hex encoded PBKDF2-HMAC-SHA256 of secret. The hex
// text of the salt is used as PBKDF2 salt input, the same bytes a browser
// gets from TextEncoder().encode(salt).
func DeriveHash(secret, salt string) string {
	return deriveHash(secret, salt, HashIterations)
}

func deriveHash(secret, salt string, iterations int) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), iterations, hashKeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// Verifier checks client side password hashes against the configured admin
// secret
type Verifier struct {
	secret string
	salts  SaltSource

	mu         sync.Mutex
	cachedSalt string
	cachedHash []byte
}

// NewVerifier creates a new Verifier
func NewVerifier(adminSecret string, salts SaltSource) *Verifier {
	return &Verifier{
		secret: adminSecret,
		salts:  salts,
	}
}

// Verify reports whether clientHash equals the hash of the admin secret.
// The comparison runs in constant time.
func (v *Verifier) Verify(clientHash string) bool {
	if clientHash == "" {
		return false
	}
	expected, err := v.expectedHash()
	if err != nil {
		log.WithError(err).Error("could not derive admin password hash")
		return false
	}
	got := []byte(strings.ToLower(clientHash))
	return subtle.ConstantTimeCompare(got, expected) == 1
}

func (v *Verifier) expectedHash() ([]byte, error) {
	salt, err := v.salts.GetOrCreate()
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cachedHash == nil || v.cachedSalt != salt {
		v.cachedHash = []byte(DeriveHash(v.secret, salt))
		v.cachedSalt = salt
	}
	return v.cachedHash, nil
}
