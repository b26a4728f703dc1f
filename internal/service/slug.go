package service

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalidPattern   = regexp.MustCompile(`[^\w\s-]`)
	slugSeparatorPattern = regexp.MustCompile(`[-\s]+`)
)

const maxSlugLen = 250

// GenerateSlug derives a URL slug from a post title and its ID. The ID
// suffix makes slugs unique even for identical titles, and the result is
// deterministic for a given (title, id) pair.
func GenerateSlug(title string, id uint) string {
	slug := strings.ToLower(title)
	slug = slugInvalidPattern.ReplaceAllString(slug, "")
	slug = slugSeparatorPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "post"
	}

	suffix := fmt.Sprintf("-%d", id)
	if len(slug)+len(suffix) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen-len(suffix)], "-")
	}
	return slug + suffix
}
