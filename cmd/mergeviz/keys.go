package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Step    key.Binding
	Play    key.Binding
	Reset   key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Seed    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Step: key.NewBinding(
			key.WithKeys("n", " "),
			key.WithHelp("n/space", "step"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "play/pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "slower"),
		),
		Seed: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "edit seed"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply seed"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Step, k.Play, k.Reset, k.Faster, k.Slower, k.Seed, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Step, k.Play, k.Reset},
		{k.Faster, k.Slower},
		{k.Seed, k.Confirm, k.Cancel},
		{k.Quit},
	}
}

func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}
