// Package render turns model narratives (markdown) into HTML for the web
// dashboard and plain text for reports.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Raw HTML in model output is escaped, goldmark's default
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts markdown to an HTML fragment
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

const blocks = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td, th"

// PlainText flattens an HTML fragment to one line per block element. List
// items are prefixed with "- ".
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var lines []string
	doc.Find(blocks).Each(func(_ int, s *goquery.Selection) {
		// Blocks nested in another block are printed by their parent.
		if s.ParentsFiltered(blocks).Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if goquery.NodeName(s) == "pre" {
			text = strings.TrimSpace(s.Text())
		}
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}

// Narrative renders markdown to both HTML and plain text
func Narrative(markdown string) (html, text string, err error) {
	html, err = HTML(markdown)
	if err != nil {
		return "", "", err
	}
	text, err = PlainText(html)
	if err != nil {
		return html, "", err
	}
	return html, text, nil
}
