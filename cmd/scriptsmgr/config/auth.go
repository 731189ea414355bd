package config

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/scriptsmgr/scriptsmgr/auth"
)

// authConf configures the admin credential and session tokens.
// admin_password and jwt_secret have no defaults; they usually come from the
// ADMIN_PASSWORD and JWT_SECRET environment variables.
type authConf struct {
	AdminPassword   string                  `yaml:"admin_password"`
	JWTSecret       string                  `yaml:"jwt_secret"`
	SessionLifetime duration.DurationOption `yaml:"session_lifetime"`
	// DataDir holds the persisted salt
	DataDir string `yaml:"data_dir"`
}

func (c *authConf) validate() error {
	if c.AdminPassword == "" {
		return errors.New("admin_password must be set (or ADMIN_PASSWORD)")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret must be set (or JWT_SECRET)")
	}
	if c.SessionLifetime.Duration() <= 0 {
		c.SessionLifetime = defaultAuthConf.SessionLifetime
	}
	if c.DataDir == "" {
		c.DataDir = defaultAuthConf.DataDir
	}
	return nil
}

// SaltFile is the path of the persisted salt
func (c authConf) SaltFile() string {
	return filepath.Join(c.DataDir, auth.SaltFileName)
}

var defaultAuthConf = authConf{
	SessionLifetime: duration.DurationOption(auth.DefaultSessionLifetime),
	DataDir:         "data",
}

// Lifetime returns the session lifetime
func (c authConf) Lifetime() time.Duration {
	return c.SessionLifetime.Duration()
}
