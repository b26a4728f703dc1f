package server

import (
	"io"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage accepts a multipart image, optimizes it and stores it as a
// temporary upload awaiting attachment to a post.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Image file is required in the 'file' field"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	img, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
		AltText:     c.FormValue("alt_text"),
		Caption:     c.FormValue("caption"),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":           true,
		"url":               img.URL(s.siteBaseURL(c)),
		"filename":          img.Filename(),
		"original_filename": img.OriginalFilename,
		"size":              img.FileSize,
		"width":             img.Width,
		"height":            img.Height,
	})
}

// GetTempImage returns info for an uploaded-but-unattached image.
func (s *Server) GetTempImage(c *fiber.Ctx) error {
	filename := c.Params("filename")

	img, err := s.imageService.GetTempImage(c.UserContext(), filename)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"filename": img.Filename(),
		"exists":   true,
		"url":      img.URL(s.siteBaseURL(c)),
		"size":     img.FileSize,
	})
}

// DeleteImage soft-deletes the image row and removes the file from disk.
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	filename := c.Params("filename")

	if err := s.imageService.DeleteImage(c.UserContext(), filename); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Image " + filename + " deleted successfully",
	})
}

// TriggerCleanup runs the orphan/purge sweeps on demand. ?force=true drops
// the orphan age cutoff so freshly uploaded strays are reclaimed too.
func (s *Server) TriggerCleanup(c *fiber.Ctx) error {
	force := c.QueryBool("force", false)

	summary, err := s.cleanupService.Run(c.UserContext(), force)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
