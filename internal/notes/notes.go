// Package notes renders the README.md of a media directory.
package notes

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// FileName is the note file looked up in every directory.
const FileName = "README.md"

// MaxSize caps how much of a note is read.
const MaxSize = 1 << 20

// Renderer turns directory notes into HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with GitHub flavoured markdown and code
// highlighting. Raw HTML in notes is dropped.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)}
}

// Render converts markdown source to HTML.
func (r *Renderer) Render(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderDir renders the note of dir. ok is false when dir has none.
func (r *Renderer) RenderDir(dir string) (out template.HTML, ok bool, err error) {
	p, found := find(dir)
	if !found {
		return "", false, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return "", false, fmt.Errorf("reading note: %w", err)
	}
	if info.Size() > MaxSize {
		return "", false, fmt.Errorf("note %s is larger than %d bytes", p, MaxSize)
	}

	src, err := os.ReadFile(p)
	if err != nil {
		return "", false, fmt.Errorf("reading note: %w", err)
	}
	out, err = r.Render(src)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// find locates the note, ignoring the case of its name.
func find(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), FileName) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}
