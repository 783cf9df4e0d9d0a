package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/electr1fy0/bluewiki/editor"
	"github.com/electr1fy0/bluewiki/storage"
)

// console runs the editor controller without a screen. The editor and
// identifier fields are plain strings, confirmations are read from stdin.
type console struct {
	content    string
	uri        string
	visibility editor.Visibility

	in  *bufio.Reader
	out io.Writer
	yes bool

	alert     string
	navigated string
}

func newConsole(cmd *cobra.Command, yes bool) *console {
	return &console{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
		yes: yes,
	}
}

func (c *console) controller(client editor.Client, uri string, drafts *storage.Vault) (*editor.Controller, error) {
	opts := editor.Options{
		Client:     client,
		View:       c,
		Notifier:   c,
		Confirmer:  c,
		Navigator:  c,
		CurrentURI: uri,
	}
	if drafts != nil {
		opts.Drafts = drafts
	}
	return editor.New(opts)
}

func (c *console) EditorContent() string { return c.content }
func (c *console) SetEditorContent(s string) { c.content = s }
func (c *console) URIField() string { return c.uri }
func (c *console) SetURIField(s string) { c.uri = s }
func (c *console) SetViewer(title, body string) { log.Printf("viewer: %s", title) }
func (c *console) Visibility() editor.Visibility { return c.visibility }
func (c *console) SetVisibility(v editor.Visibility) { c.visibility = v }

func (c *console) Alert(msg string) {
	log.Println(msg)
	c.alert = msg
}

func (c *console) Navigate(_ context.Context, uri string) error {
	c.navigated = uri
	return nil
}

func (c *console) Confirm(_ context.Context, prompt string) bool {
	if c.yes {
		return true
	}
	fmt.Fprint(c.out, prompt+" [y/N]: ")
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// failure prefers the alert the controller raised over the wrapped error.
func (c *console) failure(err error) error {
	if c.alert != "" {
		return errors.New(c.alert)
	}
	return err
}
