package scriptsmgr

import (
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/auth"
)

type loginRequest struct {
	PasswordHash string `json:"passwordHash"`
}

func (sm *ScriptsManager) sessionCookie(token string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   sm.serverConf.Production,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (sm *ScriptsManager) registerAuth() {
	g := sm.server.Group("/api/auth")

	g.Get(
		"/salt", func(c *fiber.Ctx) error {
			salt, err := sm.deps.Salts.GetOrCreate()
			if err != nil {
				log.WithError(err).Error("could not provide salt")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.JSON(fiber.Map{"salt": salt})
		},
	)

	g.Post(
		"/login", func(c *fiber.Ctx) error {
			var req loginRequest
			if err := c.BodyParser(&req); err != nil {
				log.WithError(err).Warn("malformed login request")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			if !sm.deps.Verifier.Verify(req.PasswordHash) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid password"})
			}
			token, err := sm.deps.Tokens.Issue()
			if err != nil {
				log.WithError(err).Error("could not issue session token")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			c.Cookie(sm.sessionCookie(token, int(sm.deps.Tokens.Lifetime()/time.Second)))
			return c.JSON(
				fiber.Map{
					"success": true,
					"token":   token,
				},
			)
		},
	)

	g.Get(
		"/check", func(c *fiber.Ctx) error {
			token := auth.TokenFromCtx(c)
			return c.JSON(fiber.Map{"authenticated": token != "" && sm.deps.Tokens.Verify(token)})
		},
	)

	g.Post(
		"/logout", func(c *fiber.Ctx) error {
			c.Cookie(sm.sessionCookie("", -1))
			return c.JSON(fiber.Map{"success": true})
		},
	)

	sm.server.Get(
		"/api/config", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"appUrl": sm.deps.AppURL})
		},
	)
}
