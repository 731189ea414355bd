package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CookieName is the name of the session cookie
const CookieName = "auth-token"

const bearerPrefix = "Bearer "

// Extract returns the session token from an Authorization header value or,
// if that carries no bearer token, from the session cookie value.
func Extract(authorization, cookie string) string {
	if strings.HasPrefix(authorization, bearerPrefix) {
		if tok := strings.TrimSpace(authorization[len(bearerPrefix):]); tok != "" {
			return tok
		}
	}
	return cookie
}

// TokenFromCtx extracts the session token of a request
func TokenFromCtx(c *fiber.Ctx) string {
	return Extract(c.Get(fiber.HeaderAuthorization), c.Cookies(CookieName))
}
