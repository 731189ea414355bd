package adminapi

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"tideland.dev/go/slices"
)

func errorResponse(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func serverError(c *fiber.Ctx, err error, msg string) error {
	log.WithError(err).WithField("path", c.Path()).Error(msg)
	return errorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}

// parsePatchBody decodes a PATCH body into out and returns the raw fields.
// Fields not listed in allowed are rejected.
func parsePatchBody(c *fiber.Ctx, out any, allowed []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid body")
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	if unsupported := slices.Subtract(keys, allowed); len(unsupported) > 0 {
		sort.Strings(unsupported)
		return nil, fiber.NewError(
			fiber.StatusBadRequest,
			fmt.Sprintf("Unsupported fields: %v", unsupported),
		)
	}
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid body")
	}
	return raw, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func fiberErrorResponse(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return errorResponse(c, e.Code, e.Message)
	}
	return serverError(c, err, "request failed")
}
