package adminapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/internal/cache"
)

// menuCacheInvalidationMiddleware clears all cached menus for requests that
// successfully modify scripts or categories.
// It should be attached only to non-GET routes.
func menuCacheInvalidationMiddleware(c cache.Cache) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return err
		}
		status := ctx.Response().StatusCode()
		if status >= 200 && status < 400 {
			if err := c.Clear(ctx.UserContext(), cache.KeyMenu); err != nil {
				log.WithError(err).Warn("could not invalidate menu cache")
			}
		}
		return nil
	}
}
