package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveEditor picks the configured editor, then $EDITOR, then nvim, vi, ed.
func ResolveEditor(configured string) string {
	if configured != "" {
		return configured
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return ed
	}
	// prefer nvim if available
	if p, err := exec.LookPath("nvim"); err == nil {
		return p
	}
	if p, err := exec.LookPath("vi"); err == nil {
		return p
	}
	return "ed"
}

// EditorSession is a temp file holding page source while an external editor
// runs on it.
type EditorSession struct {
	Cmd  *exec.Cmd
	path string
}

// PrepareEditor writes initial to a temp file named after the page uri so
// the editor picks a matching syntax, and returns the command to run on it.
func PrepareEditor(editor, initial, uri string) (*EditorSession, error) {
	ext := filepath.Ext(uri)
	if ext == "" {
		ext = ".md"
	}
	tmp, err := os.CreateTemp("", "bluewiki-*"+ext)
	if err != nil {
		return nil, err
	}
	defer tmp.Close()

	if _, err := tmp.WriteString(initial); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	args := strings.Fields(ResolveEditor(editor))
	args = append(args, tmp.Name())
	cmd := exec.Command(args[0], args[1:]...)
	return &EditorSession{Cmd: cmd, path: tmp.Name()}, nil
}

// Finish reads the edited content back and removes the temp file.
func (s *EditorSession) Finish() (string, error) {
	defer os.Remove(s.path)
	b, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// OpenEditorWithContent runs the editor attached to the current terminal and
// returns what was saved.
func OpenEditorWithContent(editor, initial, uri string) (string, error) {
	s, err := PrepareEditor(editor, initial, uri)
	if err != nil {
		return "", err
	}
	s.Cmd.Stdin = os.Stdin
	s.Cmd.Stdout = os.Stdout
	s.Cmd.Stderr = os.Stderr

	if err := s.Cmd.Run(); err != nil {
		os.Remove(s.path)
		return "", err
	}
	return s.Finish()
}
