package scriptsmgr

import (
	"mime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/storage/blob"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// DefaultPresignTTL is used when no presign lifetime is configured
const DefaultPresignTTL = 15 * time.Minute

func (sm *ScriptsManager) registerFiles() {
	sm.server.Get(
		"/api/files/:id", func(c *fiber.Ctx) error {
			file, err := sm.deps.Backends.Files.Get(c.Params("id"))
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
				}
				log.WithError(err).Error("could not load file record")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			if presigner, ok := sm.deps.Blobs.(blob.Presigner); ok {
				ttl := sm.deps.PresignTTL
				if ttl <= 0 {
					ttl = DefaultPresignTTL
				}
				url, err := presigner.PresignGet(c.UserContext(), file.StoredName, file.OriginalName, ttl)
				if err != nil {
					log.WithError(err).WithField("file", file.ID).Error("could not presign download")
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
				}
				return c.Redirect(url, fiber.StatusFound)
			}
			rc, err := sm.deps.Blobs.Open(c.UserContext(), file.StoredName)
			if err != nil {
				if errors.Is(err, blob.ErrNotFound) {
					return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
				}
				log.WithError(err).WithField("file", file.ID).Error("could not open stored file")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			contentType := file.MimeType
			if contentType == "" {
				contentType = fiber.MIMEOctetStream
			}
			c.Set(fiber.HeaderContentType, contentType)
			c.Set(fiber.HeaderContentDisposition, attachmentDisposition(file.OriginalName))
			return c.SendStream(rc, int(file.Size))
		},
	)
}

// attachmentDisposition encodes name per RFC 6266, using the RFC 2231
// extended form for non-ASCII names.
func attachmentDisposition(name string) string {
	if d := mime.FormatMediaType("attachment", map[string]string{"filename": name}); d != "" {
		return d
	}
	return "attachment"
}
