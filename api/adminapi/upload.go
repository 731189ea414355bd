package adminapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/storage/blob"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// FileURL is the public download path of an uploaded file
func FileURL(id string) string {
	return "/api/files/" + id
}

func withURL(f model.UploadedFile) model.UploadedFile {
	f.URL = FileURL(f.ID)
	return f
}

// registerUpload wires file hosting handlers. Blobs go to store, records to
// files.
func registerUpload(r fiber.Router, files model.FilesStore, store blob.Store, maxSize int64) {
	g := r.Group("/upload")

	g.Post(
		"/", func(c *fiber.Ctx) error {
			header, err := c.FormFile("file")
			if err != nil {
				return errorResponse(c, fiber.StatusBadRequest, "No file provided")
			}
			if maxSize > 0 && header.Size > maxSize {
				return errorResponse(c, fiber.StatusRequestEntityTooLarge, "File too large")
			}
			src, err := header.Open()
			if err != nil {
				return serverError(c, err, "could not open uploaded file")
			}
			defer src.Close()

			key := blob.NewKey(header.Filename)
			mimeType := header.Header.Get(fiber.HeaderContentType)
			if err = store.Put(c.UserContext(), key, mimeType, src, header.Size); err != nil {
				log.WithError(err).Error("could not store uploaded file")
				return errorResponse(c, fiber.StatusInternalServerError, "Failed to upload file")
			}
			item, err := files.Create(
				model.UploadedFile{
					OriginalName: header.Filename,
					StoredName:   key,
					MimeType:     mimeType,
					Size:         header.Size,
					Backend:      store.Name(),
				},
			)
			if err != nil {
				_ = store.Delete(c.UserContext(), key)
				log.WithError(err).Error("could not record uploaded file")
				return errorResponse(c, fiber.StatusInternalServerError, "Failed to upload file")
			}
			return c.JSON(withURL(*item))
		},
	)

	g.Get(
		"/", func(c *fiber.Ctx) error {
			items, err := files.List()
			if err != nil {
				log.WithError(err).Error("could not list files")
				return errorResponse(c, fiber.StatusInternalServerError, "Failed to fetch files")
			}
			for i := range items {
				items[i] = withURL(items[i])
			}
			return c.JSON(items)
		},
	)

	g.Delete(
		"/", func(c *fiber.Ctx) error {
			id := c.Query("id")
			if id == "" {
				return errorResponse(c, fiber.StatusBadRequest, "File ID is required")
			}
			item, err := files.Get(id)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return errorResponse(c, fiber.StatusNotFound, "File not found")
				}
				return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete file")
			}
			if err = store.Delete(c.UserContext(), item.StoredName); err != nil {
				log.WithError(err).WithField("file", item.ID).Warn("could not delete stored blob")
			}
			if err = files.Delete(id); err != nil {
				log.WithError(err).Error("could not delete file record")
				return errorResponse(c, fiber.StatusInternalServerError, "Failed to delete file")
			}
			return c.JSON(fiber.Map{"success": true})
		},
	)
}
