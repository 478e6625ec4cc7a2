package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"termtodo/internal/config"
)

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Add       key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Yes       key.Binding
	No        key.Binding
}

func newKeyMap(k config.Keymap) keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys(keys("up", k.Up)...),
			key.WithHelp("↑/"+k.Up, "up"),
		),
		Down: key.NewBinding(
			key.WithKeys(keys("down", k.Down)...),
			key.WithHelp("↓/"+k.Down, "down"),
		),
		Add: key.NewBinding(
			key.WithKeys(k.Add),
			key.WithHelp(k.Add, "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(k.Toggle),
			key.WithHelp(k.Toggle, "complete/incomplete"),
		),
		Delete: key.NewBinding(
			key.WithKeys(k.Delete),
			key.WithHelp(k.Delete, "delete"),
		),
		Quit: key.NewBinding(
			key.WithKeys(k.Quit),
			key.WithHelp(k.Quit, "quit"),
		),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
		Confirm: key.NewBinding(
			key.WithKeys(k.Confirm),
			key.WithHelp(k.Confirm, "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys(k.Cancel),
			key.WithHelp(k.Cancel, "cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "delete"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", k.Cancel),
			key.WithHelp("n", "keep"),
		),
	}
}

func (k keyMap) viewingHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Add, k.Toggle, k.Delete, k.Quit}
}

func (k keyMap) addingHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k keyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

// keys drops empty and duplicate entries.
func keys(ks ...string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, k := range ks {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
