package auth

import (
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultSessionLifetime is the validity window of a session token
const DefaultSessionLifetime = 24 * time.Hour

const claimAuthenticated = "authenticated"

// Tokens issues and verifies HS256 signed session tokens
type Tokens struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// TokenOption configures Tokens
type TokenOption func(*Tokens)

// WithClock sets the time source used for issuing and verifying tokens
func WithClock(now func() time.Time) TokenOption {
	return func(t *Tokens) {
		t.now = now
	}
}

// WithLifetime sets the validity window of issued tokens
func WithLifetime(d time.Duration) TokenOption {
	return func(t *Tokens) {
		if d > 0 {
			t.lifetime = d
		}
	}
}

// NewTokens creates a new Tokens signing with secret
func NewTokens(secret []byte, opts ...TokenOption) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: token signing secret must not be empty")
	}
	t := &Tokens{
		key:      secret,
		lifetime: DefaultSessionLifetime,
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Lifetime returns the validity window of issued tokens
func (t *Tokens) Lifetime() time.Duration {
	return t.lifetime
}

// Issue creates a new signed session token
func (t *Tokens) Issue() (string, error) {
	now := t.now().Truncate(time.Second)
	tok, err := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(t.lifetime)).
		Claim(claimAuthenticated, true).
		Build()
	if err != nil {
		return "", errors.Wrap(err, "auth: could not build token")
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), t.key))
	if err != nil {
		return "", errors.Wrap(err, "auth: could not sign token")
	}
	return string(signed), nil
}

// Verify reports whether token carries a valid signature, lies within its
// validity window and asserts authentication. It never panics.
func (t *Tokens) Verify(token string) (ok bool) {
	if token == "" {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("recovered while verifying session token")
			ok = false
		}
	}()
	tok, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(jwa.HS256(), t.key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(t.now)),
	)
	if err != nil {
		log.WithError(err).Debug("session token rejected")
		return false
	}
	now := t.now()
	iat, found := tok.IssuedAt()
	if !found || now.Before(iat.Add(-time.Second)) {
		return false
	}
	exp, found := tok.Expiration()
	if !found || now.After(exp) {
		return false
	}
	var authenticated bool
	if err = tok.Get(claimAuthenticated, &authenticated); err != nil {
		return false
	}
	return authenticated
}
