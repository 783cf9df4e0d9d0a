package model

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/electr1fy0/bluewiki/editor"
	"github.com/electr1fy0/bluewiki/page"
	"github.com/electr1fy0/bluewiki/storage"
	"github.com/electr1fy0/bluewiki/utils"
	"github.com/electr1fy0/bluewiki/wiki"
)

type Options struct {
	Client   *wiki.Client
	URI      string
	SaveMode editor.SaveMode
	Drafts   *storage.Vault
	Editor   string
}

func NewModel(opts Options) (Model, error) {
	if opts.Client == nil {
		return Model{}, errors.New("wiki client is required")
	}

	b := &binding{uri: opts.URI}
	eopts := editor.Options{
		Client:     opts.Client,
		View:       b,
		Notifier:   b,
		Confirmer:  b,
		Navigator:  b,
		CurrentURI: opts.URI,
		SaveMode:   opts.SaveMode,
	}
	if opts.Drafts != nil {
		eopts.Drafts = opts.Drafts
	}
	ctrl, err := editor.New(eopts)
	if err != nil {
		return Model{}, err
	}

	ta := textarea.New()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.Placeholder = "page source"

	ti := textinput.New()
	ti.Prompt = "uri: "
	ti.Placeholder = "path/to/page.md"
	ti.CharLimit = 256
	ti.Width = 60
	ti.SetValue(opts.URI)

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "History"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		state:    stateView,
		ctx:      ctx,
		cancel:   cancel,
		client:   opts.Client,
		ctrl:     ctrl,
		b:        b,
		drafts:   opts.Drafts,
		editor:   opts.Editor,
		source:   ta,
		uriInput: ti,
		viewer:   viewport.New(80, 20),
		history:  l,
		title:    opts.URI,
		loading:  true,
	}
	m.resize(80, 24)
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return m.loadPage(m.ctrl.CurrentURI())
}

func (m Model) loadPage(uri string) tea.Cmd {
	return m.fetch(uri, "")
}

// fetch loads the source stored under uri. pageURI is the address the server
// reported for the rendered page, if known.
func (m Model) fetch(uri, pageURI string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		src, err := client.Source(ctx, uri)
		return pageLoadedMsg{uri: uri, pageURI: pageURI, source: src, err: err}
	}
}

// run executes a controller operation off the event loop.
func (m Model) run(op operation) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		var err error
		switch op {
		case opToggle:
			err = ctrl.ToggleEdit(ctx)
		case opDelete:
			err = ctrl.DeletePage(ctx)
		}
		return opDoneMsg{op: op, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.renderViewer()
		return m, nil
	case pageLoadedMsg:
		m.handlePageLoaded(msg)
		return m, nil
	case opDoneMsg:
		return m.handleOpDone(msg)
	case confirmMsg:
		if m.state != stateConfirm {
			m.prevState = m.state
		}
		m.confirmMsg = msg.prompt
		m.confirmReply = msg.reply
		m.state = stateConfirm
		return m, nil
	case editorFinishedMsg:
		if msg.err != nil {
			m.setError("Editor failed: " + msg.err.Error())
			return m, nil
		}
		m.source.SetValue(msg.content)
		m.setStatus("Loaded changes from external editor")
		return m, nil
	}

	switch m.state {
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateHistory:
		return m.updateHistory(msg)
	case stateEdit:
		return m.updateEdit(msg)
	default:
		return m.updateView(msg)
	}
}

func (m Model) updateView(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit
	case "e", "n", "d":
		if m.loading {
			m.setStatus("Still loading " + m.ctrl.CurrentURI())
			return m, nil
		}
	}

	switch key.String() {
	case "e":
		m.setStatus("Loading source...")
		return m, m.run(opToggle)
	case "n":
		m.createNew()
		return m, nil
	case "d":
		return m, m.run(opDelete)
	case "h":
		m.state = stateHistory
		return m, nil
	case "r":
		m.loading = true
		m.setStatus("Reloading " + m.ctrl.CurrentURI())
		return m, m.loadPage(m.ctrl.CurrentURI())
	case "x":
		if err := m.exportPage(); err != nil {
			m.setError("Export failed: " + err.Error())
		}
		return m, nil
	case "y":
		target := m.client.PageURL(m.pageAddress())
		if err := clipboard.WriteAll(target); err != nil {
			m.setError("Copy failed: " + err.Error())
		} else {
			m.setStatus("Copied " + target)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewer, cmd = m.viewer.Update(msg)
	return m, cmd
}

func (m Model) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "ctrl+s":
			m.b.sync(m.source.Value(), m.uriInput.Value())
			m.setStatus("Saving " + m.uriInput.Value() + "...")
			return m, m.run(opToggle)
		case "ctrl+n":
			m.createNew()
			return m, nil
		case "esc":
			if err := m.ctrl.Cancel(); err != nil {
				m.setStatus(waitingStatus)
				return m, nil
			}
			m.pull()
			m.setStatus("Edit cancelled")
			return m, nil
		case "tab":
			m.switchFocus()
			return m, nil
		case "ctrl+e":
			return m, m.openExternalEditor()
		case "ctrl+r":
			m.restoreDraft()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == focusURI {
		m.uriInput, cmd = m.uriInput.Update(msg)
	} else {
		m.source, cmd = m.source.Update(msg)
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer(true)
	case "n", "N", "esc":
		m.answer(false)
		m.setStatus("Cancelled")
	case "ctrl+c":
		m.answer(false)
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) answer(ok bool) {
	if m.confirmReply != nil {
		m.confirmReply <- ok
		m.confirmReply = nil
	}
	m.state = m.prevState
}

func (m Model) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		case "esc", "h", "b":
			m.state = stateView
			return m, nil
		case "enter":
			m.state = stateView
			if it, ok := m.history.SelectedItem().(listItem); ok {
				m.loading = true
				return m, m.loadPage(it.uri)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// createNew starts a page from the template. When editing already, the
// controller's alert is surfaced by pull.
func (m *Model) createNew() {
	err := m.ctrl.CreateNew()
	m.pull()
	switch {
	case errors.Is(err, editor.ErrBusy):
		m.setStatus(waitingStatus)
	case err == nil:
		m.setStatus("New page: set the identifier, then ctrl+s to create it")
	}
}

func (m *Model) handlePageLoaded(msg pageLoadedMsg) {
	m.loading = false
	if m.state == stateEdit || m.ctrl.Creating() {
		log.Printf("dropping late load of %s while editing", msg.uri)
		return
	}
	m.ctrl.Reset(msg.uri)
	m.pull()
	m.state = stateView
	m.pageURI = msg.pageURI

	if msg.err != nil {
		m.title = msg.uri
		m.pageSource = ""
		m.viewerBody = ""
		m.viewer.SetContent("")
		if errors.Is(msg.err, wiki.ErrNotFound) {
			m.viewer.SetContent(helpStyle.Render("This page does not exist yet. Press n to create it."))
		}
		m.setError("Loading page failed: " + describe(msg.err))
		return
	}

	_, body := page.Split(msg.source)
	m.title = page.Title(msg.source, msg.uri)
	m.pageSource = msg.source
	m.viewerBody = body
	m.renderViewer()
	m.recordVisit(msg.uri, msg.source)
	m.setStatus("Loaded " + msg.uri)
}

func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	s := m.pull()

	switch {
	case len(s.alerts) > 0:
		m.setError(s.alerts[len(s.alerts)-1])
		return m, nil
	case errors.Is(msg.err, editor.ErrBusy):
		m.setStatus(waitingStatus)
		return m, nil
	case msg.err != nil:
		m.setError(msg.err.Error())
		return m, nil
	}

	switch {
	case msg.op == opDelete && s.navigate != "":
		return m.afterDelete(s.navigate)
	case msg.op == opToggle && s.navigate != "":
		// The server answers with the rendered page address; the source
		// stays under the identifier it was saved to.
		target := s.uri
		m.ctrl.Reset(target)
		m.pull()
		m.loading = true
		m.setStatus("Saved " + target)
		return m, m.fetch(target, s.navigate)
	case msg.op == opToggle && s.visibility == editor.Editing:
		m.setStatus("Editing " + s.uri)
	case msg.op == opToggle:
		m.setStatus("Saved " + s.uri)
	}
	return m, nil
}

// afterDelete goes back to the most recently visited other page. With none
// left the viewer stays on the deleted identifier so n can recreate it.
func (m Model) afterDelete(pageURI string) (tea.Model, tea.Cmd) {
	deleted := m.ctrl.CurrentURI()
	m.forget(deleted)
	m.setStatus(fmt.Sprintf("Deleted %s, the server moved on to %s", deleted, pageURI))

	if items := m.history.Items(); len(items) > 0 {
		if it, ok := items[0].(listItem); ok {
			m.loading = true
			return m, m.loadPage(it.uri)
		}
	}

	m.title = deleted
	m.pageURI = ""
	m.pageSource = ""
	m.viewerBody = ""
	m.viewer.SetContent(helpStyle.Render("This page was deleted. Press n to create it again."))
	return m, nil
}

// pageAddress is the rendered page path when the server reported one.
func (m Model) pageAddress() string {
	if m.pageURI != "" {
		return m.pageURI
	}
	return m.ctrl.CurrentURI()
}

// pull copies controller-side changes into the widgets.
func (m *Model) pull() snapshot {
	s := m.b.take()
	if s.revs.content != m.seenRevs.content {
		m.source.SetValue(s.content)
	}
	if s.revs.uri != m.seenRevs.uri {
		m.uriInput.SetValue(s.uri)
	}
	if s.revs.viewer != m.seenRevs.viewer {
		m.title = s.title
		m.pageSource = s.content
		if s.body != "" {
			m.viewerBody = htmlToText(s.body)
		} else {
			_, m.viewerBody = page.Split(s.content)
		}
		m.renderViewer()
	}
	m.seenRevs = s.revs

	if len(s.alerts) > 0 {
		m.setError(s.alerts[len(s.alerts)-1])
	}

	if s.visibility == editor.Editing {
		if m.state != stateEdit {
			m.state = stateEdit
			m.focus = focusSource
			m.source.Focus()
			m.uriInput.Blur()
		}
	} else if m.state == stateEdit {
		m.state = stateView
		m.source.Blur()
		m.uriInput.Blur()
	}
	return s
}

func (m *Model) switchFocus() {
	if m.focus == focusSource {
		m.focus = focusURI
		m.source.Blur()
		m.uriInput.Focus()
		return
	}
	m.focus = focusSource
	m.uriInput.Blur()
	m.source.Focus()
}

func (m *Model) openExternalEditor() tea.Cmd {
	sess, err := utils.PrepareEditor(m.editor, m.source.Value(), m.uriInput.Value())
	if err != nil {
		m.setError("Editor failed: " + err.Error())
		return nil
	}
	return tea.ExecProcess(sess.Cmd, func(err error) tea.Msg {
		content, ferr := sess.Finish()
		if err != nil {
			return editorFinishedMsg{err: err}
		}
		return editorFinishedMsg{content: content, err: ferr}
	})
}

func (m *Model) restoreDraft() {
	if m.drafts == nil {
		m.setError("Drafts are disabled: set a draft passphrase to keep failed saves")
		return
	}
	uri := m.uriInput.Value()
	d, ok := m.drafts.Get(uri)
	if !ok {
		m.setStatus("No draft for " + uri)
		return
	}
	m.source.SetValue(d.Content)
	m.setStatus(fmt.Sprintf("Restored draft from %s", d.SavedAt.Format("2006-01-02 15:04")))
}

func (m *Model) renderViewer() {
	if m.viewerBody == "" {
		return
	}
	m.viewer.SetContent(renderBody(m.viewerBody, m.viewer.Width))
	m.viewer.GotoTop()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	m.viewer.Width = width
	m.viewer.Height = max(height-6, 3)
	m.source.SetWidth(width)
	m.source.SetHeight(max(height-9, 3))
	m.uriInput.Width = max(width-10, 10)
	m.history.SetSize(width, max(height-6, 3))
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.lastError = ""
}

func (m *Model) setError(s string) {
	m.status = s
	m.lastError = s
}

const waitingStatus = "Still waiting for the server"

func describe(err error) string {
	if re, ok := wiki.AsRequestError(err); ok {
		return fmt.Sprintf("%s (%d) %s", re.Status, re.StatusCode, re.URL)
	}
	return err.Error()
}
