package model

import (
	"html"
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
)

var (
	blockEnd   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|pre|blockquote|tr|table|ul|ol)>|<br\s*/?>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

func renderMarkdown(md string, width int) (string, error) {
	if width < 40 {
		width = 40
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func renderMarkdownToANSI(md string, width int) string {
	if width < 40 {
		width = 40
	}
	return string(markdown.Render(md, width-4, 4))
}

// renderBody renders page body text for the viewer, falling back to the
// plain terminal renderer when glamour fails.
func renderBody(body string, width int) string {
	if strings.TrimSpace(body) == "" {
		return helpStyle.Render("(empty page)")
	}
	if out, err := renderMarkdown(body, width); err == nil {
		return out
	}
	return renderMarkdownToANSI(body, width)
}

// htmlToText reduces the rendered body the server returns after an in-place
// save to text the viewer can show.
func htmlToText(body string) string {
	s := blockEnd.ReplaceAllString(body, "$0\n\n")
	s = bluemonday.StrictPolicy().Sanitize(s)
	s = html.UnescapeString(s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
