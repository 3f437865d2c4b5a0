package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// RenderCommand formats a command echoed to w before it runs. The color
// profile is detected on w, so colors are dropped when w is not a terminal.
func RenderCommand(w io.Writer, command string) string {
	r := lipgloss.NewRenderer(w)
	prompt := r.NewStyle().Foreground(lipgloss.Color("8"))
	cmd := r.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	return prompt.Render("$") + " " + cmd.Render(command)
}
