package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"termtodo/internal/storage"
)

// printTasks writes one "<id>. <name>" line per task. Completed names are
// green and struck through, open ones blue.
func printTasks(w io.Writer, tasks []storage.Task) {
	r := lipgloss.NewRenderer(w)
	done := r.NewStyle().Foreground(lipgloss.Color("2")).Strikethrough(true)
	open := r.NewStyle().Foreground(lipgloss.Color("4"))

	for _, t := range tasks {
		style := open
		if t.Completed {
			style = done
		}
		fmt.Fprintf(w, "%d. %s\n", t.ID, style.Render(t.Name))
	}
}
