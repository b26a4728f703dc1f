package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost creates a new post and links any referenced uploads to it.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts returns a paginated listing, optionally filtered by status,
// category, tags and a search term.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	skip, limit := parsePagination(c)

	list, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Status:       c.Query("status", models.PostStatusPublished),
		CategorySlug: c.Query("category"),
		Tags:         parseTags(c.Query("tags")),
		Search:       c.Query("search"),
		Skip:         skip,
		Limit:        limit,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

// GetTags returns the distinct tags across published posts.
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.postService.ListTags(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"tags": tags})
}

// GetPost returns a single post by numeric ID.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// GetPostBySlug returns a single post by its URL slug.
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Slug is required"))
	}

	post, err := s.postService.GetPostBySlug(c.UserContext(), slug)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// UpdatePost applies a partial update; absent fields are left untouched.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	var req service.UpdatePostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// DeletePost soft-deletes by default; ?permanent=true removes the row and
// releases its images to the cleanup job.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	permanent := c.QueryBool("permanent", false)
	if err := s.postService.DeletePost(c.UserContext(), id, permanent); err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":   "Post deleted",
		"permanent": permanent,
	})
}

// RecordView counts a view, deduplicated per client IP within a window.
func (s *Server) RecordView(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondServiceError(c, err)
	}

	if err := s.postService.RecordView(c.UserContext(), id, c.IP()); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
