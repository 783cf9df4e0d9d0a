// Package page splits wiki page sources into their header and body.
//
// A source starts with key=value lines and ends its header with a line of
// tildes:
//
//	title=New Page
//	status=published
//	~~~~~~
//
//	Body text.
package page

import (
	"strings"
)

const Separator = "~~~~~~"

// NewPageTemplate is loaded into the editor when a new page is started.
const NewPageTemplate = "title=New Page\n" +
	"date=\n" +
	"type=page\n" +
	"tags=\n" +
	"status=published\n" +
	Separator + "\n" +
	"\n" +
	"New text.\n"

type Field struct {
	Key   string
	Value string
}

// Header keeps the fields in source order.
type Header []Field

func (h Header) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, f := range h {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (h Header) Title() string {
	v, _ := h.Get("title")
	return v
}

func (h Header) Tags() []string {
	v, _ := h.Get("tags")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Split returns the header fields and the body. Without a separator line the
// whole source is body.
func Split(source string) (Header, string) {
	src := strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(src, "\n")

	sep := -1
	for i, ln := range lines {
		if strings.TrimSpace(ln) == Separator {
			sep = i
			break
		}
	}
	if sep == -1 {
		return nil, source
	}

	var h Header
	for _, ln := range lines[:sep] {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		k, v, ok := strings.Cut(ln, "=")
		if !ok {
			// not a header after all
			return nil, source
		}
		h = append(h, Field{Key: strings.ToLower(strings.TrimSpace(k)), Value: strings.TrimSpace(v)})
	}

	body := strings.Join(lines[sep+1:], "\n")
	return h, strings.TrimLeft(body, "\n")
}

// Title picks a display title: the header title, else the first body line,
// else fallback.
func Title(source, fallback string) string {
	h, body := Split(source)
	if t := h.Title(); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}
		trim = strings.TrimLeft(trim, "#= ")
		if len(trim) > 50 {
			return trim[:47] + "..."
		}
		if trim != "" {
			return trim
		}
	}
	return fallback
}
