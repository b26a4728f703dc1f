package server

import (
	"strconv"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a positive integer route parameter.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + param + " parameter")
	}
	return uint(id), nil
}

// parsePagination reads skip/limit query parameters with sane defaults.
// Range clamping happens in the service layer.
func parsePagination(c *fiber.Ctx) (skip, limit int) {
	skip = c.QueryInt("skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit = c.QueryInt("limit", 10)
	return skip, limit
}

// parseTags splits a comma-separated tags query parameter.
func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// respondServiceError maps a service-layer error onto the right HTTP status.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// siteBaseURL resolves the absolute base URL used for image URLs and Open
// Graph tags. SITE_URL wins when configured; otherwise it is derived from
// the request, honoring reverse-proxy forwarding headers.
func (s *Server) siteBaseURL(c *fiber.Ctx) string {
	if s.config.SiteURL != "" {
		return strings.TrimRight(s.config.SiteURL, "/")
	}
	proto := c.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = c.Protocol()
	}
	host := c.Get("X-Forwarded-Host")
	if host == "" {
		host = c.Hostname()
	}
	return proto + "://" + host
}
