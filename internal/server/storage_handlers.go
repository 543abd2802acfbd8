package server

import (
	"errors"
	"os"

	"crwn/internal/models"
	"crwn/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type objectResolver interface {
	Resolve(bucket, objectPath string) (string, error)
}

// ServeObject handles GET /storage/v1/object/public/:bucket/* for buckets
// kept on local disk.
func (s *Server) ServeObject(c *fiber.Ctx) error {
	bucket, objectPath := c.Params("bucket"), c.Params("*")

	resolver, ok := s.remote.Storage.(objectResolver)
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Object", objectPath))
	}
	file, err := resolver.Resolve(bucket, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid object path"))
		}
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Object", objectPath))
	}
	if info, err := os.Stat(file); err != nil || info.IsDir() {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Object", objectPath))
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendFile(file)
}
