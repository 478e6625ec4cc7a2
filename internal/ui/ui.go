package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"termtodo/internal/config"
	"termtodo/internal/storage"
)

// screen is the active interaction mode. Each value has its own update and
// view function.
type screen int

const (
	screenViewing screen = iota
	screenAdding
)

// Gateway is the part of storage.Store the interactive view needs.
type Gateway interface {
	AddTask(ctx context.Context, name string) error
	ListTasks(ctx context.Context) ([]storage.Task, error)
	ToggleTask(ctx context.Context, name string) error
	DeleteTask(ctx context.Context, id int64) error
}

type Model struct {
	ctx        context.Context
	store      Gateway
	keys       keyMap
	help       help.Model
	tasks      []storage.Task
	cursor     int
	screen     screen
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *storage.Task
	width      int
	quitting   bool
	err        error
}

// Run loads the task list and blocks until the user quits. A store failure
// ends the program and is returned once the terminal has been restored.
func Run(ctx context.Context, store Gateway, cfg config.Config) error {
	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return err
	}

	m := New(ctx, store, cfg.Keys, tasks)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func New(ctx context.Context, store Gateway, km config.Keymap, tasks []storage.Task) Model {
	ti := textinput.New()
	ti.Placeholder = "Task name"
	ti.CharLimit = 256
	ti.Width = 40

	return Model{
		ctx:    ctx,
		store:  store,
		keys:   newKeyMap(km),
		help:   help.New(),
		tasks:  tasks,
		input:  ti,
		screen: screenViewing,
		status: fmt.Sprintf("Press '%s' to add, %s to toggle, '%s' to quit.", km.Add, km.Toggle, km.Quit),
	}
}

// Err reports the store failure that stopped the program, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg)
		}
		switch m.screen {
		case screenAdding:
			return m.updateAdding(msg)
		default:
			return m.updateViewing(msg)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-10, 10)
	}
	return m, nil
}

func (m Model) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if len(m.tasks) > 0 {
			m.cursor = wrapIndex(m.cursor-1, len(m.tasks))
		}
	case key.Matches(msg, m.keys.Down):
		if len(m.tasks) > 0 {
			m.cursor = wrapIndex(m.cursor+1, len(m.tasks))
		}
	case key.Matches(msg, m.keys.Add):
		m.screen = screenAdding
		m.status = "Add mode: type a name and press Enter"
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.selected()
		if !ok {
			m.status = "No task selected"
			return m, nil
		}
		if err := m.store.ToggleTask(m.ctx, task.Name); err != nil {
			return m.fail(err)
		}
		if err := m.reload(); err != nil {
			return m.fail(err)
		}
		m.status = fmt.Sprintf("Toggled %q", task.Name)
	case key.Matches(msg, m.keys.Delete):
		task, ok := m.selected()
		if !ok {
			m.status = "No task selected"
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &task
		m.status = fmt.Sprintf("Delete %q? y/n", task.Name)
	}
	return m, nil
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.screen = screenViewing
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.status = "Name cannot be empty"
			return m, nil
		}
		if err := m.store.AddTask(m.ctx, name); err != nil {
			return m.fail(err)
		}
		if err := m.reload(); err != nil {
			return m.fail(err)
		}
		m.input.SetValue("")
		m.input.Blur()
		m.screen = screenViewing
		m.status = fmt.Sprintf("Added %q", name)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.No):
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case key.Matches(msg, m.keys.Yes):
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		if err := m.store.DeleteTask(m.ctx, m.pendingDel.ID); err != nil {
			return m.fail(err)
		}
		if err := m.reload(); err != nil {
			return m.fail(err)
		}
		m.cursor = clampCursor(m.cursor, len(m.tasks))
		m.status = fmt.Sprintf("Deleted %q", m.pendingDel.Name)
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

// reload replaces the task list with a fresh read. The cursor is left alone.
func (m *Model) reload() error {
	tasks, err := m.store.ListTasks(m.ctx)
	if err != nil {
		return err
	}
	m.tasks = tasks
	return nil
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	m.quitting = true
	return m, tea.Quit
}

func (m Model) selected() (storage.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return storage.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
