package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	panelTitle      = " Terminal Todo List "
	highlightSymbol = "» "
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var panel string
	switch m.screen {
	case screenAdding:
		panel = m.viewAdding()
	default:
		panel = m.viewTasks()
	}

	bindings := m.keys.viewingHelp()
	switch {
	case m.confirmDel:
		bindings = m.keys.confirmHelp()
	case m.screen == screenAdding:
		bindings = m.keys.addingHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panel,
		m.fit(statusStyle.Render(m.status)),
		m.fit(m.help.ShortHelpView(bindings)),
	)
}

// fit cuts a footer line to the terminal width so JoinVertical does not
// pad the panel past it.
func (m Model) fit(line string) string {
	if m.width <= 0 {
		return line
	}
	return truncate.StringWithTail(line, uint(m.width), "…")
}

func (m Model) viewTasks() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(panelTitle))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString("No tasks yet. Press '" + m.keys.Add.Help().Key + "' to add one.")
		return m.panel(b.String())
	}

	limit := m.nameWidth()
	for i, t := range m.tasks {
		name := t.Name
		if limit > 0 {
			name = truncate.StringWithTail(name, uint(limit), "…")
		}
		if t.Completed {
			name = doneStyle.Render(name)
		}

		if i == m.cursor {
			b.WriteString(selectedStyle.Render(highlightSymbol) + name)
		} else {
			b.WriteString(strings.Repeat(" ", lipgloss.Width(highlightSymbol)) + name)
		}
		if i < len(m.tasks)-1 {
			b.WriteString("\n")
		}
	}
	return m.panel(b.String())
}

func (m Model) viewAdding() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(panelTitle))
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render("Create New Task"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return m.panel(b.String())
}

func (m Model) panel(content string) string {
	style := panelStyle
	if m.width > 0 {
		style = style.Width(max(m.width-2, 1))
	}
	return style.Render(content)
}

// nameWidth is the room left for a task name on one panel line, or 0 when
// the terminal size is not known yet.
func (m Model) nameWidth() int {
	if m.width <= 0 {
		return 0
	}
	inner := m.width - 2 - panelStyle.GetHorizontalPadding()
	return max(inner-lipgloss.Width(highlightSymbol), 1)
}
