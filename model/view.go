package model

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(m.title))
	s.WriteString("  ")
	s.WriteString(uriStyle.Render(m.ctrl.CurrentURI()))
	if m.pageURI != "" && m.pageURI != m.ctrl.CurrentURI() {
		s.WriteString(uriStyle.Render(" → " + m.pageURI))
	}
	if m.loading || m.ctrl.Busy() {
		s.WriteString("  ")
		s.WriteString(helpStyle.Render("loading..."))
	}
	s.WriteString("\n\n")

	switch m.state {
	case stateConfirm:
		s.WriteString(warningStyle.Render(m.confirmMsg))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("y: confirm  n/esc: cancel"))

	case stateHistory:
		s.WriteString(m.history.View())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("enter: open  esc: back  q: quit"))

	case stateEdit:
		s.WriteString(labelStyle.Render("Identifier"))
		s.WriteString("\n")
		s.WriteString(m.uriInput.View())
		s.WriteString("\n\n")
		s.WriteString(m.source.View())
		s.WriteString("\n")
		if m.ctrl.Creating() {
			s.WriteString(warningStyle.Render("new page: saving will not overwrite an existing page"))
			s.WriteString("\n")
		}
		s.WriteString(helpStyle.Render("ctrl+s: save  tab: identifier/source  ctrl+e: $EDITOR  ctrl+r: restore draft  esc: cancel"))

	default:
		s.WriteString(m.viewer.View())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("e:edit  n:new  d:delete  h:history  r:reload  x:export  y:copy url  q:quit"))
	}

	if m.status != "" {
		s.WriteString("\n")
		status := m.status
		if m.width > 0 {
			status = wordwrap.String(status, m.width)
		}
		if m.lastError != "" {
			s.WriteString(errorStyle.Render(status))
		} else {
			s.WriteString(successStyle.Render(status))
		}
	}

	return s.String()
}

// Run starts the TUI and blocks until it exits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.b.send = p.Send
	defer m.cancel()

	_, err := p.Run()
	return err
}
