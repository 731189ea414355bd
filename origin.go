package scriptsmgr

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const unknownIP = "unknown"

// requestOrigin returns the externally visible origin of the request.
// Forwarded proto and host headers win over the Host header; without any
// host the configured fallback is used.
func requestOrigin(c *fiber.Ctx, fallback string) string {
	host := firstHeaderValue(c.Get(fiber.HeaderXForwardedHost))
	if host == "" {
		host = string(c.Request().Host())
	}
	if host == "" {
		return strings.TrimSuffix(fallback, "/")
	}
	proto := firstHeaderValue(c.Get(fiber.HeaderXForwardedProto))
	if proto == "" {
		proto = c.Protocol()
	}
	return proto + "://" + host
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// clientIP returns the address recorded for script usage: the forwarding
// chain if present, else the real ip header, else unknown.
func clientIP(c *fiber.Ctx) string {
	if v := c.Get(fiber.HeaderXForwardedFor); v != "" {
		return v
	}
	if v := c.Get("X-Real-Ip"); v != "" {
		return v
	}
	return unknownIP
}
