package model

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/electr1fy0/bluewiki/editor"
	"github.com/electr1fy0/bluewiki/storage"
	"github.com/electr1fy0/bluewiki/wiki"
)

type state int

const (
	stateView state = iota
	stateEdit
	stateConfirm
	stateHistory
)

// focus inside the editor screen
type focus int

const (
	focusSource focus = iota
	focusURI
)

type operation string

const (
	opToggle operation = "toggle"
	opDelete operation = "delete"
)

// messages

type pageLoadedMsg struct {
	uri     string
	pageURI string
	source  string
	err     error
}

type opDoneMsg struct {
	op  operation
	err error
}

type confirmMsg struct {
	prompt string
	reply  chan bool
}

type editorFinishedMsg struct {
	content string
	err     error
}

type Model struct {
	state state
	focus focus

	ctx    context.Context
	cancel context.CancelFunc

	client *wiki.Client
	ctrl   *editor.Controller
	b      *binding
	drafts *storage.Vault
	editor string

	width  int
	height int

	source   textarea.Model
	uriInput textinput.Model
	viewer   viewport.Model
	history  list.Model

	title      string
	pageURI    string
	pageSource string
	viewerBody string
	loading    bool
	seenRevs   revs

	confirmMsg   string
	confirmReply chan bool
	prevState    state

	status    string
	lastError string
}
