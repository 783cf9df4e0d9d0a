package model

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/electr1fy0/bluewiki/page"
)

type listItem struct {
	uri   string
	title string
	tags  []string
}

func (i listItem) FilterValue() string { return i.uri }

func (i listItem) Title() string {
	if i.title == "" || i.title == i.uri {
		return i.uri
	}
	return i.title
}

func (i listItem) Description() string {
	description := i.uri
	if len(i.tags) > 0 {
		description += " • tags: " + strings.Join(i.tags, ",")
	}
	return description
}

// recordVisit moves uri to the front of the history and refreshes the list.
func (m *Model) recordVisit(uri, source string) {
	h, _ := page.Split(source)
	item := listItem{uri: uri, title: page.Title(source, uri), tags: h.Tags()}

	items := []list.Item{item}
	for _, it := range m.history.Items() {
		if li, ok := it.(listItem); ok && li.uri != uri {
			items = append(items, li)
		}
	}
	m.history.SetItems(items)
}

// forget removes uri from the history.
func (m *Model) forget(uri string) {
	var items []list.Item
	for _, it := range m.history.Items() {
		if li, ok := it.(listItem); ok && li.uri != uri {
			items = append(items, li)
		}
	}
	m.history.SetItems(items)
}
