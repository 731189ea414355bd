package adminapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/scriptsmgr/scriptsmgr/internal/cache"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

var scriptPatchFields = []string{
	"id",
	"name",
	"description",
	"content",
	"requireAdmin",
	"bypassExecutionPolicy",
	"tags",
	"categoryId",
}

type scriptPatch struct {
	ID string `json:"id"`
	model.UpdateScript
}

func tagsQuery(c *fiber.Ctx) []string {
	var tags []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("tag") {
		for _, t := range strings.Split(string(raw), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func scriptStoreError(c *fiber.Ctx, err error) error {
	var notFoundError model.NotFoundError
	if errors.As(err, &notFoundError) {
		return errorResponse(c, fiber.StatusNotFound, "Script not found")
	}
	var validationError model.ValidationError
	if errors.As(err, &validationError) {
		return errorResponse(c, fiber.StatusBadRequest, string(validationError))
	}
	return serverError(c, err, "script operation failed")
}

// registerScripts wires script handlers using a ScriptsStore abstraction.
func registerScripts(r fiber.Router, store model.ScriptsStore, menus cache.Cache) {
	g := r.Group("/scripts")
	invalidate := menuCacheInvalidationMiddleware(menus)

	g.Get(
		"/", func(c *fiber.Ctx) error {
			if id := c.Query("id"); id != "" {
				item, err := store.Get(id)
				if err != nil {
					return scriptStoreError(c, err)
				}
				return c.JSON(item)
			}
			items, err := store.List(model.ScriptFilter{Tags: tagsQuery(c)})
			if err != nil {
				return serverError(c, err, "could not list scripts")
			}
			return c.JSON(items)
		},
	)

	g.Post(
		"/", invalidate, func(c *fiber.Ctx) error {
			var req model.AddScript
			if err := c.BodyParser(&req); err != nil {
				return errorResponse(c, fiber.StatusBadRequest, "Invalid body")
			}
			if req.Name == "" || req.Content == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Name and content are required")
			}
			if req.CategoryID != nil && *req.CategoryID == "" {
				req.CategoryID = nil
			}
			item, err := store.Create(req)
			if err != nil {
				return scriptStoreError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(item)
		},
	)

	g.Patch(
		"/", invalidate, func(c *fiber.Ctx) error {
			var req scriptPatch
			raw, err := parsePatchBody(c, &req, scriptPatchFields)
			if err != nil {
				return fiberErrorResponse(c, err)
			}
			if req.ID == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Script ID is required")
			}
			update := req.UpdateScript
			if v, ok := raw["categoryId"]; ok && (isJSONNull(v) || (update.CategoryID != nil && *update.CategoryID == "")) {
				update.CategoryID = nil
				update.ClearCategory = true
			}
			if update.Name != nil && *update.Name == "" {
				update.Name = nil
			}
			if update.Content != nil && *update.Content == "" {
				update.Content = nil
			}
			item, err := store.Update(req.ID, update)
			if err != nil {
				return scriptStoreError(c, err)
			}
			return c.JSON(item)
		},
	)

	g.Delete(
		"/", invalidate, func(c *fiber.Ctx) error {
			id := c.Query("id")
			if id == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Script ID is required")
			}
			if err := store.Delete(id); err != nil {
				return scriptStoreError(c, err)
			}
			return c.JSON(fiber.Map{"success": true})
		},
	)
}
