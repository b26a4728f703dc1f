package service

import "regexp"

// Patterns stripped from user-supplied text before storage. Content is
// rendered as markdown by clients, so raw script vectors never belong in it.
var (
	scriptTagPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	scriptOpenPattern    = regexp.MustCompile(`(?i)<script[^>]*>`)
	javascriptURLPattern = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerPattern  = regexp.MustCompile(`(?i)\son\w+\s*=`)
)

// SanitizeText removes script tags, javascript: URLs, and inline event
// handlers from text.
func SanitizeText(text string) string {
	text = scriptTagPattern.ReplaceAllString(text, "")
	text = scriptOpenPattern.ReplaceAllString(text, "")
	text = javascriptURLPattern.ReplaceAllString(text, "")
	text = eventHandlerPattern.ReplaceAllString(text, " ")
	return text
}
