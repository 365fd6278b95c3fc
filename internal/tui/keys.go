package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines keyboard shortcuts. Implements help.KeyMap so the help
// bar renders automatically.
type keyMap struct {
	Send        key.Binding
	NewChat     key.Binding
	NextFocus   key.Binding
	Search      key.Binding
	CycleModel  key.Binding
	PrevVersion key.Binding
	NextVersion key.Binding
	PrevMsg     key.Binding
	NextMsg     key.Binding
	Edit        key.Binding
	Regenerate  key.Binding
	DeleteChat  key.Binding
	Cancel      key.Binding
	Quit        key.Binding
	ShowHelp    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Search: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "search"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "model"),
		),
		PrevVersion: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev version"),
		),
		NextVersion: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next version"),
		),
		PrevMsg: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev message"),
		),
		NextMsg: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next message"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "regenerate"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "delete chat"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ShowHelp: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.Search, k.NextFocus, k.ShowHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.NewChat, k.Search, k.CycleModel},
		{k.PrevMsg, k.NextMsg, k.PrevVersion, k.NextVersion},
		{k.Edit, k.Regenerate, k.DeleteChat, k.Cancel},
		{k.NextFocus, k.ShowHelp, k.Quit},
	}
}
