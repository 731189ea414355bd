package adminapi

import (
	"embed"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/scriptsmgr/scriptsmgr/internal/cache"
	"github.com/scriptsmgr/scriptsmgr/storage/blob"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

//go:embed openapi.yaml
var assets embed.FS

// Deps holds what the admin API needs to serve requests
type Deps struct {
	Backends model.Backends
	Blobs    blob.Store
	// MaxUploadSize limits uploads in bytes; 0 disables the check
	MaxUploadSize int64
	// Menus is invalidated after successful script or category changes
	Menus cache.Cache
}

// Register mounts all admin API routes under the provided group. Access
// control is not done here; Gate must run before these routes.
func Register(r fiber.Router, serverURL string, deps Deps) error {
	openapiRaw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "adminapi: failed to read openapi.yaml")
	}
	openapiData := updateOpenAPIServers(openapiRaw, serverURL)
	openapiData = ensureBearerSecurity(openapiData)

	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)

	menus := deps.Menus
	if menus == nil {
		menus = cache.Noop{}
	}
	registerScripts(r, deps.Backends.Scripts, menus)
	registerCategories(r, deps.Backends.Categories, menus)
	registerUpload(r, deps.Backends.Files, deps.Blobs, deps.MaxUploadSize)
	registerStats(r, deps.Backends.Usage)
	return nil
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if len(serverURL) == 0 {
		return doc
	}
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	full["servers"] = []map[string]any{
		{
			"url":         serverURL,
			"description": "This instance",
		},
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}

// ensureBearerSecurity injects the session token security scheme and a global
// security requirement into the OpenAPI document, if not already present.
func ensureBearerSecurity(doc []byte) []byte {
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil {
		return doc
	}
	components, _ := full["components"].(map[string]any)
	if components == nil {
		components = map[string]any{}
		full["components"] = components
	}
	securitySchemes, _ := components["securitySchemes"].(map[string]any)
	if securitySchemes == nil {
		securitySchemes = map[string]any{}
		components["securitySchemes"] = securitySchemes
	}
	if _, exists := securitySchemes["sessionToken"]; !exists {
		securitySchemes["sessionToken"] = map[string]any{
			"type":         "http",
			"scheme":       "bearer",
			"bearerFormat": "JWT",
		}
	}
	if _, exists := securitySchemes["sessionCookie"]; !exists {
		securitySchemes["sessionCookie"] = map[string]any{
			"type": "apiKey",
			"in":   "cookie",
			"name": "auth-token",
		}
	}
	if _, exists := full["security"]; !exists {
		full["security"] = []map[string]any{
			{"sessionToken": []any{}},
			{"sessionCookie": []any{}},
		}
	}
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}
