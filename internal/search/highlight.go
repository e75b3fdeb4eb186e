// Package search marks the part of a caption that matched a search query.
package search

import (
	"html/template"
	"strings"
)

// Segment is a piece of a caption. Match is true for the matched part.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Index returns the rune offset and rune length of the first
// case-insensitive occurrence of query in text, or -1. Case folding follows
// Unicode, so "über" finds "Über".
func Index(text, query string) (int, int) {
	n := len([]rune(query))
	if n == 0 {
		return -1, 0
	}
	runes := []rune(text)
	for i := 0; i+n <= len(runes); i++ {
		if strings.EqualFold(string(runes[i:i+n]), query) {
			return i, n
		}
	}
	return -1, 0
}

// Contains reports whether query occurs in text under the same folding as
// Highlight.
func Contains(text, query string) bool {
	i, _ := Index(text, query)
	return i >= 0
}

// Highlight splits text around the first case-insensitive occurrence of
// query. An empty query or no match yields the whole text as one segment.
func Highlight(text, query string) []Segment {
	i, n := Index(text, query)
	if i < 0 {
		return []Segment{{Text: text}}
	}

	runes := []rune(text)
	var segs []Segment
	if i > 0 {
		segs = append(segs, Segment{Text: string(runes[:i])})
	}
	segs = append(segs, Segment{Text: string(runes[i : i+n]), Match: true})
	if i+n < len(runes) {
		segs = append(segs, Segment{Text: string(runes[i+n:])})
	}
	return segs
}

// HTML renders segments with matches wrapped in <mark>. All text is escaped.
func HTML(segs []Segment) template.HTML {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString(`<mark class="hit">`)
			b.WriteString(template.HTMLEscapeString(s.Text))
			b.WriteString(`</mark>`)
			continue
		}
		b.WriteString(template.HTMLEscapeString(s.Text))
	}
	return template.HTML(b.String())
}

// Caption highlights and renders in one step.
func Caption(text, query string) template.HTML {
	return HTML(Highlight(text, query))
}
