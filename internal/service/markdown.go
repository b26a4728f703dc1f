package service

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// storageKeyPattern pulls the storage key out of an upload URL, e.g.
// "/uploads/images/20240208_120000_ab12cd34.jpg" -> "images/20240208_120000_ab12cd34.jpg".
var storageKeyPattern = regexp.MustCompile(`uploads/(images/[^?#\s]+)`)

// ExtractImageURLs returns the destination of every markdown image in
// document order, duplicates included.
func ExtractImageURLs(content string) []string {
	src := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var urls []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			urls = append(urls, string(img.Destination))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return urls
}

// ExtractStorageKeys maps the markdown images in content to the set of
// storage keys they reference. URLs that do not point into the uploads
// directory are ignored. The result is deduplicated.
func ExtractStorageKeys(content string) []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, u := range ExtractImageURLs(content) {
		m := storageKeyPattern.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}

// StripMarkdown flattens markdown to plain text for previews and meta
// descriptions. Image alt text and code blocks are dropped.
func StripMarkdown(content string) string {
	src := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(sb.String()), " ")
}
