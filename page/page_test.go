package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageTemplate(t *testing.T) {
	h, body := Split(NewPageTemplate)

	assert.Equal(t, "New Page", h.Title())
	v, ok := h.Get("date")
	assert.True(t, ok)
	assert.Empty(t, v)
	v, _ = h.Get("type")
	assert.Equal(t, "page", v)
	assert.Empty(t, h.Tags())
	v, _ = h.Get("status")
	assert.Equal(t, "published", v)
	assert.Equal(t, "New text.\n", body)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		wantTitle string
		wantBody  string
		wantLen   int
	}{
		{
			name:      "header and body",
			source:    "title=Post\ndate=2020-01-01\n~~~~~~\n\nHello",
			wantTitle: "Post",
			wantBody:  "Hello",
			wantLen:   2,
		},
		{
			name:     "no separator",
			source:   "just text\nmore",
			wantBody: "just text\nmore",
		},
		{
			name:      "windows line endings",
			source:    "Title = Post\r\n~~~~~~\r\nBody",
			wantTitle: "Post",
			wantBody:  "Body",
			wantLen:   1,
		},
		{
			name:     "separator without key value lines above",
			source:   "intro\n~~~~~~\nBody",
			wantBody: "intro\n~~~~~~\nBody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, body := Split(tt.source)
			assert.Equal(t, tt.wantTitle, h.Title())
			assert.Equal(t, tt.wantBody, body)
			assert.Len(t, h, tt.wantLen)
		})
	}
}

func TestTags(t *testing.T) {
	h, _ := Split("tags=go, wiki ,,notes\n~~~~~~\n")
	assert.Equal(t, []string{"go", "wiki", "notes"}, h.Tags())
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Post", Title("title=Post\n~~~~~~\nbody", "x"))
	assert.Equal(t, "Heading", Title("\n# Heading\ntext", "x"))
	assert.Equal(t, "fallback.md", Title("", "fallback.md"))
}
