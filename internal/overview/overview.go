// Package overview renders a project's markdown overview page next to its
// generated API reference.
package overview

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// pageTemplate keeps the overview page self-contained; the stylesheet link
// matches what the post-processing step injects into reference pages.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
%s</head>
<body>
<div class="contents">
%s
</div>
</body>
</html>
`

// Render converts the markdown file at mdPath into overview.html inside
// htmlDir. Returns the written file path.
func Render(mdPath, htmlDir, title, stylesheetHref string) (string, error) {
	source, err := os.ReadFile(mdPath)
	if err != nil {
		return "", fmt.Errorf("read overview markdown: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		return "", fmt.Errorf("render overview markdown: %w", err)
	}

	stylesheet := ""
	if stylesheetHref != "" {
		stylesheet = fmt.Sprintf("<link rel=\"stylesheet\" type=\"text/css\" href=\"%s\">\n", stylesheetHref)
	}
	page := fmt.Sprintf(pageTemplate, html.EscapeString(title), stylesheet, body.String())
	outPath := filepath.Join(htmlDir, "overview.html")
	if err := os.WriteFile(outPath, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("write overview page: %w", err)
	}
	return outPath, nil
}
