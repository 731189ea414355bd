package adminapi

import (
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/scriptsmgr/scriptsmgr/auth"
)

// TokenVerifier decides whether a session token is valid
type TokenVerifier interface {
	Verify(token string) bool
}

// GateConf lists the protected path prefixes
type GateConf struct {
	// APIPrefixes answer unauthenticated requests with a 401 JSON error
	APIPrefixes []string
	// UIPrefixes redirect unauthenticated requests to LoginPath
	UIPrefixes []string
	LoginPath  string
}

// DefaultGateConf protects the admin API and the admin UI
var DefaultGateConf = GateConf{
	APIPrefixes: []string{
		"/api/scripts",
		"/api/stats",
		"/api/upload",
		"/api/categories",
	},
	UIPrefixes: []string{"/admin"},
	LoginPath:  "/login",
}

func hasPathPrefix(p, prefix string) bool {
	prefix = strings.ToLower(prefix)
	return p == prefix || strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/")
}

// normalizePath folds a request path the way the router matches it: case
// insensitive, with duplicate slashes and dot segments removed.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return strings.ToLower(path.Clean("/" + p))
}

func matchesAny(p string, prefixes []string) bool {
	p = normalizePath(p)
	for _, prefix := range prefixes {
		if hasPathPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// Gate returns a middleware that lets requests to protected paths through
// only with a valid session token. It is the single place where access to
// the admin surface is decided.
func Gate(tokens TokenVerifier, conf GateConf) fiber.Handler {
	if conf.LoginPath == "" {
		conf.LoginPath = DefaultGateConf.LoginPath
	}
	return func(c *fiber.Ctx) error {
		p := c.Path()
		isAPI := matchesAny(p, conf.APIPrefixes)
		if !isAPI && !matchesAny(p, conf.UIPrefixes) {
			return c.Next()
		}
		if token := auth.TokenFromCtx(c); token != "" && tokens.Verify(token) {
			return c.Next()
		}
		if isAPI {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Redirect(conf.LoginPath, fiber.StatusFound)
	}
}
