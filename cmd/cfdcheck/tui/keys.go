package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the explorer key bindings.
type keyMap struct {
	CellsUp      key.Binding
	CellsDown    key.Binding
	CoresUp      key.Binding
	CoresDown    key.Binding
	RAMUp        key.Binding
	RAMDown      key.Binding
	ChannelsUp   key.Binding
	ChannelsDown key.Binding
	GPU          key.Binding
	Reset        key.Binding
	Logs         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		CellsUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "cells ×2"),
		),
		CellsDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "cells ÷2"),
		),
		CoresUp: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "cores +1"),
		),
		CoresDown: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "cores -1"),
		),
		RAMUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "RAM ×2"),
		),
		RAMDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "RAM ÷2"),
		),
		ChannelsUp: key.NewBinding(
			key.WithKeys("}"),
			key.WithHelp("}", "channels +1"),
		),
		ChannelsDown: key.NewBinding(
			key.WithKeys("{"),
			key.WithHelp("{", "channels -1"),
		),
		GPU: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "cycle GPU"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logs"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CellsUp, k.CellsDown, k.CoresUp, k.CoresDown, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CellsUp, k.CellsDown, k.CoresUp, k.CoresDown},
		{k.RAMUp, k.RAMDown, k.ChannelsUp, k.ChannelsDown},
		{k.GPU, k.Reset, k.Logs, k.Quit},
	}
}
