// Package postprocess patches generated Doxygen HTML so pages embed cleanly:
// extra stylesheet injection and output sanity checks.
package postprocess

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	apperrors "github.com/ekumenlabs/autodox/internal/errors"
)

// InjectStylesheet ensures every page in dir links the given stylesheet.
// Returns the number of files modified.
func InjectStylesheet(dir, href string) (int, error) {
	modified := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		changed, err := injectStylesheetFile(path, href)
		if err != nil {
			return err
		}
		if changed {
			modified++
		}
		return nil
	})
	if err != nil {
		return modified, apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityError,
			fmt.Sprintf("post-process HTML under %s", dir))
	}
	return modified, nil
}

func injectStylesheetFile(path, href string) (bool, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return false, err
	}
	doc, err := html.Parse(f)
	_ = f.Close()
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}

	head := findElement(doc, "head")
	if head == nil {
		return false, nil
	}
	if hasStylesheet(head, href) {
		return false, nil
	}

	link := &html.Node{
		Type: html.ElementNode,
		Data: "link",
		Attr: []html.Attribute{
			{Key: "rel", Val: "stylesheet"},
			{Key: "type", Val: "text/css"},
			{Key: "href", Val: href},
		},
	}
	head.AppendChild(link)

	out, err := os.Create(path)
	if err != nil {
		return false, err
	}
	if err := html.Render(out, doc); err != nil {
		out.Close()
		return false, fmt.Errorf("render %s: %w", path, err)
	}
	return true, out.Close()
}

// findElement returns the first element with the given tag name, depth-first.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func hasStylesheet(head *html.Node, href string) bool {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "link" {
			continue
		}
		if getAttr(c, "rel") == "stylesheet" && getAttr(c, "href") == href {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// VerifyIndex checks that the converted HTML directory contains the index
// page authors will reference.
func VerifyIndex(htmlDir string) error {
	indexPath := filepath.Join(htmlDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryConvert, apperrors.SeverityFatal,
			fmt.Sprintf("expected output missing: %s", indexPath))
	}
	return nil
}

// Title extracts the <title> text of an HTML document, "" if absent.
func Title(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}
	title := findElement(doc, "title")
	if title == nil || title.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(title.FirstChild.Data)
}
