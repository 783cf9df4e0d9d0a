// Package editor holds the page editor controller: it switches a page
// between its rendered view and its raw source, saves edits, starts new
// pages and deletes pages, using a wiki server for every durable change.
//
// The controller never touches a screen directly. A View holds the editor
// buffer, the identifier field and the viewer, a Notifier shows alerts, a
// Confirmer asks yes/no questions and a Navigator moves to another page.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/electr1fy0/bluewiki/page"
	"github.com/electr1fy0/bluewiki/wiki"
)

type Visibility int

const (
	Viewing Visibility = iota
	Editing
)

func (v Visibility) String() string {
	if v == Editing {
		return "editing"
	}
	return "viewing"
}

// SaveMode decides what happens after a successful save.
type SaveMode int

const (
	// SaveReload always navigates to the uri the server returns.
	SaveReload SaveMode = iota
	// SaveInPlace updates the viewer without navigating when the page was
	// saved under the identifier it was loaded from.
	SaveInPlace
)

func ParseSaveMode(s string) (SaveMode, error) {
	switch s {
	case "", "reload":
		return SaveReload, nil
	case "in_place", "in-place", "inplace":
		return SaveInPlace, nil
	}
	return SaveReload, fmt.Errorf("unknown save mode %q", s)
}

var (
	ErrBusy           = errors.New("a request is already in flight")
	ErrAlreadyEditing = errors.New("already editing")
)

const (
	msgAlreadyEditing = "Already editing, save or cancel the current page first."
)

type Client interface {
	Source(ctx context.Context, uri string) (string, error)
	Update(ctx context.Context, uri, source string, create bool) (*wiki.UpdateResult, error)
	Delete(ctx context.Context, uri string) (*wiki.DeleteResult, error)
}

type View interface {
	EditorContent() string
	SetEditorContent(string)
	URIField() string
	SetURIField(string)
	SetViewer(title, body string)
	Visibility() Visibility
	SetVisibility(Visibility)
}

type Notifier interface {
	Alert(msg string)
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type Navigator interface {
	Navigate(ctx context.Context, uri string) error
}

// Drafts keeps editor content whose save failed.
type Drafts interface {
	Stash(uri, content string) error
	Drop(uri string) error
}

type Options struct {
	Client     Client
	View       View
	Notifier   Notifier
	Confirmer  Confirmer
	Navigator  Navigator
	Drafts     Drafts
	CurrentURI string
	SaveMode   SaveMode
}

type Controller struct {
	client    Client
	view      View
	notifier  Notifier
	confirmer Confirmer
	navigator Navigator
	drafts    Drafts
	saveMode  SaveMode

	mu       sync.Mutex
	current  string
	creating bool
	inFlight bool
}

func New(opts Options) (*Controller, error) {
	switch {
	case opts.Client == nil:
		return nil, errors.New("editor: client is required")
	case opts.View == nil:
		return nil, errors.New("editor: view is required")
	case opts.Notifier == nil:
		return nil, errors.New("editor: notifier is required")
	case opts.Confirmer == nil:
		return nil, errors.New("editor: confirmer is required")
	case opts.Navigator == nil:
		return nil, errors.New("editor: navigator is required")
	}
	return &Controller{
		client:    opts.Client,
		view:      opts.View,
		notifier:  opts.Notifier,
		confirmer: opts.Confirmer,
		navigator: opts.Navigator,
		drafts:    opts.Drafts,
		saveMode:  opts.SaveMode,
		current:   opts.CurrentURI,
	}, nil
}

func (c *Controller) CurrentURI() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Creating reports whether the editor holds a page started with CreateNew
// that has not been saved yet.
func (c *Controller) Creating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creating
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Reset points the controller at a freshly loaded page.
func (c *Controller) Reset(uri string) {
	c.mu.Lock()
	c.current = uri
	c.creating = false
	c.mu.Unlock()

	c.view.SetURIField(uri)
	c.view.SetVisibility(Viewing)
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// ToggleEdit loads the page source into the editor when viewing and saves
// the editor when editing.
func (c *Controller) ToggleEdit(ctx context.Context) error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	if c.view.Visibility() == Viewing {
		return c.loadSource(ctx)
	}
	return c.save(ctx)
}

func (c *Controller) loadSource(ctx context.Context) error {
	uri := c.CurrentURI()
	src, err := c.client.Source(ctx, uri)
	if err != nil {
		c.notifier.Alert("Loading source failed: " + describe(err))
		return fmt.Errorf("load source %s: %w", uri, err)
	}

	c.view.SetEditorContent(src)
	c.view.SetURIField(uri)
	c.view.SetVisibility(Editing)
	return nil
}

func (c *Controller) save(ctx context.Context) error {
	source := c.view.EditorContent()
	target := c.view.URIField()

	c.mu.Lock()
	original, create := c.current, c.creating
	c.mu.Unlock()

	res, err := c.client.Update(ctx, target, source, create)
	if err != nil {
		c.notifier.Alert("Saving failed: " + describe(err))
		if c.drafts != nil && target != "" {
			if derr := c.drafts.Stash(target, source); derr != nil {
				log.Printf("stash draft for %s: %v", target, derr)
			}
		}
		return fmt.Errorf("save %s: %w", target, err)
	}

	if c.drafts != nil {
		if derr := c.drafts.Drop(target); derr != nil {
			log.Printf("drop draft for %s: %v", target, derr)
		}
	}

	if c.saveMode == SaveInPlace && target == original && !create {
		title := res.Title
		if title == "" {
			title = page.Title(source, target)
		}
		c.view.SetViewer(title, res.Body)
		c.view.SetVisibility(Viewing)
		return nil
	}

	c.mu.Lock()
	c.creating = false
	c.mu.Unlock()
	return c.navigate(ctx, res.URI)
}

// CreateNew fills the editor with the new page template. The page is only
// stored by the next ToggleEdit.
func (c *Controller) CreateNew() error {
	if c.Busy() {
		return ErrBusy
	}
	if c.view.Visibility() == Editing {
		c.notifier.Alert(msgAlreadyEditing)
		return ErrAlreadyEditing
	}

	c.mu.Lock()
	uri := c.current
	c.creating = true
	c.mu.Unlock()

	c.view.SetEditorContent(page.NewPageTemplate)
	c.view.SetURIField(uri)
	c.view.SetVisibility(Editing)
	return nil
}

// Cancel leaves the editor without saving. It refuses while a request is in
// flight, since the response would land in the editor afterwards.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	c.creating = false
	uri := c.current
	c.mu.Unlock()

	c.view.SetURIField(uri)
	c.view.SetVisibility(Viewing)
	return nil
}

// DeletePage asks for confirmation and deletes the current page. A declined
// confirmation is not an error.
func (c *Controller) DeletePage(ctx context.Context) error {
	uri := c.CurrentURI()
	if !c.confirmer.Confirm(ctx, fmt.Sprintf("Delete page '%s'?", uri)) {
		return nil
	}

	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	res, err := c.client.Delete(ctx, uri)
	if err != nil {
		c.notifier.Alert("Deleting failed: " + describe(err))
		return fmt.Errorf("delete %s: %w", uri, err)
	}
	return c.navigate(ctx, res.URI)
}

func (c *Controller) navigate(ctx context.Context, uri string) error {
	if err := c.navigator.Navigate(ctx, uri); err != nil {
		return fmt.Errorf("navigate to %s: %w", uri, err)
	}
	return nil
}

func describe(err error) string {
	if re, ok := wiki.AsRequestError(err); ok {
		return fmt.Sprintf("%s (%d) %s", re.Status, re.StatusCode, re.URL)
	}
	return err.Error()
}
