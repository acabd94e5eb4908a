package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	submit   key.Binding
	next     key.Binding
	prev     key.Binding
	mode     key.Binding
	save     key.Binding
	reload   key.Binding
	scrollUp key.Binding
	scrollDn key.Binding
	logout   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		mode:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/register")),
		save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save summary")),
		reload:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		scrollUp: key.NewBinding(key.WithKeys("up", "pgup"), key.WithHelp("↑/pgup", "scroll up")),
		scrollDn: key.NewBinding(key.WithKeys("down", "pgdown"), key.WithHelp("↓/pgdn", "scroll down")),
		logout:   key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "log out")),
		quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.submit, k.next, k.prev},
		{k.mode, k.save, k.reload},
		{k.scrollUp, k.scrollDn, k.logout, k.quit},
	}
}
