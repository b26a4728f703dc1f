package server

import (
	"fmt"
	"html/template"

	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

const ogDescriptionMaxLen = 200

// Minimal HTML shell for social media crawlers. Human visitors are
// redirected to the real page by the meta refresh.
var ogPageTemplate = template.Must(template.New("og").Parse(`<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{.Title}} - {{.SiteName}}</title>

    <meta property="og:type" content="article" />
    <meta property="og:title" content="{{.Title}}" />
    <meta property="og:description" content="{{.Description}}" />
    <meta property="og:url" content="{{.URL}}" />
    <meta property="og:site_name" content="{{.SiteName}}" />
{{- if .Image}}
    <meta property="og:image" content="{{.Image}}" />
    <meta name="twitter:image" content="{{.Image}}" />
{{- end}}

    <meta name="twitter:card" content="{{.TwitterCard}}" />
    <meta name="twitter:title" content="{{.Title}}" />
    <meta name="twitter:description" content="{{.Description}}" />

    <meta name="description" content="{{.Description}}" />

    <meta http-equiv="refresh" content="0;url={{.URL}}" />
</head>
<body>
    <p><a href="{{.URL}}">{{.Title}}</a></p>
</body>
</html>`))

type ogPageData struct {
	Title       string
	Description string
	URL         string
	Image       string
	SiteName    string
	TwitterCard string
}

func (d *ogPageData) render(c *fiber.Ctx, status int) error {
	d.TwitterCard = "summary"
	if d.Image != "" {
		d.TwitterCard = "summary_large_image"
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Status(status)
	return ogPageTemplate.Execute(c.Response().BodyWriter(), d)
}

// OGBoardPage serves a post's Open Graph meta tags as a standalone HTML
// page. A reverse proxy routes social media crawlers hitting /board/:id
// here so link previews work without rendering the SPA.
func (s *Server) OGBoardPage(c *fiber.Ctx) error {
	siteURL := s.siteBaseURL(c)

	id, err := parseID(c, "id")
	if err != nil {
		return s.ogNotFound(c, siteURL)
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return s.ogNotFound(c, siteURL)
	}

	description := post.Excerpt
	if description == "" {
		description = truncateText(service.StripMarkdown(post.Content), ogDescriptionMaxLen)
	}

	image := post.Thumbnail()
	if image != "" {
		image = siteURL + "/uploads/" + image
	} else {
		image = siteURL + "/android-chrome-512x512.png"
	}

	data := &ogPageData{
		Title:       post.Title,
		Description: description,
		URL:         fmt.Sprintf("%s/board/%d", siteURL, post.ID),
		Image:       image,
		SiteName:    s.config.SiteName,
	}
	return data.render(c, fiber.StatusOK)
}

func (s *Server) ogNotFound(c *fiber.Ctx, siteURL string) error {
	data := &ogPageData{
		Title:       s.config.SiteName,
		Description: "Page not found.",
		URL:         siteURL,
		SiteName:    s.config.SiteName,
	}
	return data.render(c, fiber.StatusNotFound)
}

func truncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
