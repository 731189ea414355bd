package scriptsmgr

import (
	"github.com/gofiber/fiber/v2"
)

const loginPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Scripts Manager</title></head>
<body>
<h1>Scripts Manager</h1>
<p>Sign in through the admin client. It fetches <code>/api/auth/salt</code>,
derives the password hash and posts it to <code>/api/auth/login</code>.</p>
</body>
</html>
`

const adminPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Scripts Manager Admin</title></head>
<body>
<h1>Scripts Manager Admin</h1>
<p>The admin API is served below <code>/api</code>; see <a href="/api/openapi.yaml">openapi.yaml</a>.</p>
</body>
</html>
`

func sendHTML(c *fiber.Ctx, html string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// registerPages serves placeholders for the admin client; the admin paths
// are protected by the gate
func (sm *ScriptsManager) registerPages() {
	sm.server.Get(
		"/login", func(c *fiber.Ctx) error {
			return sendHTML(c, loginPage)
		},
	)
	sm.server.Get(
		"/admin", func(c *fiber.Ctx) error {
			return sendHTML(c, adminPage)
		},
	)
	sm.server.Get(
		"/admin/*", func(c *fiber.Ctx) error {
			return sendHTML(c, adminPage)
		},
	)
}
