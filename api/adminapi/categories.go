package adminapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/scriptsmgr/scriptsmgr/internal/cache"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

var categoryPatchFields = []string{"id", "name", "order"}

type categoryPatch struct {
	ID string `json:"id"`
	model.UpdateCategory
}

func categoryStoreError(c *fiber.Ctx, err error) error {
	var notFoundError model.NotFoundError
	if errors.As(err, &notFoundError) {
		return errorResponse(c, fiber.StatusNotFound, "Category not found")
	}
	var alreadyExistsError model.AlreadyExistsError
	if errors.As(err, &alreadyExistsError) {
		return errorResponse(c, fiber.StatusConflict, "Category already exists")
	}
	var validationError model.ValidationError
	if errors.As(err, &validationError) {
		return errorResponse(c, fiber.StatusBadRequest, string(validationError))
	}
	return serverError(c, err, "category operation failed")
}

// registerCategories wires category handlers using a CategoriesStore abstraction.
func registerCategories(r fiber.Router, store model.CategoriesStore, menus cache.Cache) {
	g := r.Group("/categories")
	invalidate := menuCacheInvalidationMiddleware(menus)

	g.Get(
		"/", func(c *fiber.Ctx) error {
			if id := c.Query("id"); id != "" {
				item, err := store.Get(id)
				if err != nil {
					return categoryStoreError(c, err)
				}
				return c.JSON(item)
			}
			items, err := store.List()
			if err != nil {
				return serverError(c, err, "could not list categories")
			}
			return c.JSON(items)
		},
	)

	g.Post(
		"/", invalidate, func(c *fiber.Ctx) error {
			var req model.AddCategory
			if err := c.BodyParser(&req); err != nil {
				return errorResponse(c, fiber.StatusBadRequest, "Invalid body")
			}
			if strings.TrimSpace(req.Name) == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Category name is required")
			}
			item, err := store.Create(req)
			if err != nil {
				return categoryStoreError(c, err)
			}
			return c.Status(fiber.StatusCreated).JSON(item)
		},
	)

	g.Patch(
		"/", invalidate, func(c *fiber.Ctx) error {
			var req categoryPatch
			if _, err := parsePatchBody(c, &req, categoryPatchFields); err != nil {
				return fiberErrorResponse(c, err)
			}
			if req.ID == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Category ID is required")
			}
			if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Category name cannot be empty")
			}
			item, err := store.Update(req.ID, req.UpdateCategory)
			if err != nil {
				return categoryStoreError(c, err)
			}
			return c.JSON(item)
		},
	)

	g.Delete(
		"/", invalidate, func(c *fiber.Ctx) error {
			id := c.Query("id")
			if id == "" {
				return errorResponse(c, fiber.StatusBadRequest, "Category ID is required")
			}
			if err := store.Delete(id); err != nil {
				return categoryStoreError(c, err)
			}
			return c.JSON(fiber.Map{"success": true})
		},
	)
}
