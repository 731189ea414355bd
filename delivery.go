package scriptsmgr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/internal/cache"
	"github.com/scriptsmgr/scriptsmgr/shellgen"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

func sendScript(c *fiber.Ctx, text string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

func (sm *ScriptsManager) registerLoader() {
	sm.server.Get(
		"/", func(c *fiber.Ctx) error {
			origin := requestOrigin(c, sm.deps.AppURL)
			action := shellgen.Dispatch(c.Get(fiber.HeaderUserAgent), origin)
			if action.Redirect != "" {
				return c.Redirect(action.Redirect, fiber.StatusFound)
			}
			return sendScript(c, action.Script)
		},
	)
	sm.server.Get(
		"/s", func(c *fiber.Ctx) error {
			return sendScript(c, shellgen.LoaderScript(requestOrigin(c, sm.deps.AppURL)))
		},
	)
}

func menuCatalog(scripts []model.Script) []shellgen.MenuScript {
	catalog := make([]shellgen.MenuScript, len(scripts))
	for i, s := range scripts {
		entry := shellgen.MenuScript{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
		}
		if s.Category != nil {
			entry.Category = &shellgen.MenuCategory{
				ID:    s.Category.ID,
				Name:  s.Category.Name,
				Order: s.Category.Order,
			}
		}
		catalog[i] = entry
	}
	return catalog
}

func (sm *ScriptsManager) menu(c *fiber.Ctx, lang shellgen.Lang, baseURL string) (string, error) {
	ctx := c.UserContext()
	key := cache.Key(cache.KeyMenu, string(lang), baseURL)
	if cached, found, err := sm.deps.Menus.Get(ctx, key); err != nil {
		log.WithError(err).Warn("menu cache lookup failed")
	} else if found {
		return string(cached), nil
	}
	scripts, err := sm.deps.Backends.Scripts.Catalog()
	if err != nil {
		return "", err
	}
	text := shellgen.SynthesizeMenu(menuCatalog(scripts), lang, baseURL)
	if err = sm.deps.Menus.Set(ctx, key, []byte(text), sm.deps.MenuLifetime); err != nil {
		log.WithError(err).Warn("could not cache menu")
	}
	return text, nil
}

func (sm *ScriptsManager) registerMenu() {
	sm.server.Get(
		"/s/menu/:lang", func(c *fiber.Ctx) error {
			lang := shellgen.ParseLang(c.Params("lang"))
			text, err := sm.menu(c, lang, requestOrigin(c, sm.deps.AppURL))
			if err != nil {
				log.WithError(err).Error("could not build menu")
				c.Status(fiber.StatusInternalServerError)
				return sendScript(c, shellgen.MenuErrorNotice(lang))
			}
			return sendScript(c, text)
		},
	)
}

func (sm *ScriptsManager) registerRun() {
	sm.server.Get(
		"/api/run/:id", func(c *fiber.Ctx) error {
			id := c.Params("id")
			script, err := sm.deps.Backends.Scripts.Get(id)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Script not found"})
				}
				log.WithError(err).WithField("script", id).Error("could not load script")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			if sm.deps.Usage != nil && c.Query(shellgen.ElevatedParam) != "1" {
				sm.deps.Usage.Record(script.ID, clientIP(c))
			}
			return sendScript(
				c, shellgen.Synthesize(
					shellgen.ScriptSource{
						ID:                    script.ID,
						Content:               script.Content,
						RequireAdmin:          script.RequireAdmin,
						BypassExecutionPolicy: script.BypassExecutionPolicy,
					}, requestOrigin(c, sm.deps.AppURL),
				),
			)
		},
	)
}
