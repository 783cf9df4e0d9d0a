package model

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/electr1fy0/bluewiki/editor"
)

type revs struct {
	content int
	uri     int
	viewer  int
}

// binding is the state the controller reads and writes from its command
// goroutines. The Model copies it into its widgets after each operation.
type binding struct {
	mu sync.Mutex

	content    string
	uri        string
	title      string
	body       string
	visibility editor.Visibility
	revs       revs

	alerts   []string
	navigate string

	// send delivers a message to the running program.
	send func(tea.Msg)
}

type snapshot struct {
	content    string
	uri        string
	title      string
	body       string
	visibility editor.Visibility
	revs       revs
	alerts     []string
	navigate   string
}

func (b *binding) EditorContent() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

func (b *binding) SetEditorContent(s string) {
	b.mu.Lock()
	b.content = s
	b.revs.content++
	b.mu.Unlock()
}

func (b *binding) URIField() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uri
}

func (b *binding) SetURIField(s string) {
	b.mu.Lock()
	b.uri = s
	b.revs.uri++
	b.mu.Unlock()
}

func (b *binding) SetViewer(title, body string) {
	b.mu.Lock()
	b.title, b.body = title, body
	b.revs.viewer++
	b.mu.Unlock()
}

func (b *binding) Visibility() editor.Visibility {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visibility
}

func (b *binding) SetVisibility(v editor.Visibility) {
	b.mu.Lock()
	b.visibility = v
	b.mu.Unlock()
}

func (b *binding) Alert(msg string) {
	b.mu.Lock()
	b.alerts = append(b.alerts, msg)
	b.mu.Unlock()
}

// Navigate records the target; the Model loads it once the operation that
// asked for it has finished.
func (b *binding) Navigate(_ context.Context, uri string) error {
	b.mu.Lock()
	b.navigate = uri
	b.mu.Unlock()
	return nil
}

// Confirm blocks the calling command until the user answers or ctx ends.
func (b *binding) Confirm(ctx context.Context, prompt string) bool {
	if b.send == nil {
		return false
	}
	reply := make(chan bool, 1)
	b.send(confirmMsg{prompt: prompt, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

// sync stores what the user typed without bumping revisions.
func (b *binding) sync(content, uri string) {
	b.mu.Lock()
	b.content = content
	b.uri = uri
	b.mu.Unlock()
}

// take returns the current state and clears pending alerts and navigation.
func (b *binding) take() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := snapshot{
		content:    b.content,
		uri:        b.uri,
		title:      b.title,
		body:       b.body,
		visibility: b.visibility,
		revs:       b.revs,
		alerts:     b.alerts,
		navigate:   b.navigate,
	}
	b.alerts = nil
	b.navigate = ""
	return s
}
