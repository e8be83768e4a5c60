// Package ui renders items and status lines for the non-interactive
// commands and shares its styles with the TUI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/freetodo/internal/model"
)

// Row renders the item at 0-based index as " 1. goal - deadline - people".
func Row(index int, it model.Item) string {
	return fmt.Sprintf("%2d. %s", index+1, it.String())
}

// Rows renders every item, or a muted placeholder for an empty list.
func Rows(items []model.Item) []string {
	if len(items) == 0 {
		return []string{current.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		out = append(out, Row(i, it))
	}
	return out
}

// Header is the title line with the item count.
func Header(n int) string {
	return fmt.Sprintf("%s  %s %d",
		current.Title.Render("Todos"),
		current.Accent.Render("Total"), n,
	)
}

// PanelString frames content in the theme border.
func PanelString(content string) string {
	return lipgloss.NewStyle().
		Border(current.Border).
		BorderForeground(current.BorderColor).
		Padding(0, 1).
		Render(content)
}

// Panel frames lines, one per row.
func Panel(lines []string) string {
	return PanelString(strings.Join(lines, "\n"))
}

// Truncate shortens s to at most width cells, ending in "...".
func Truncate(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Success.Render(current.SymOK+" "+msg))
}

func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Error.Render(current.SymFail+" "+msg))
}

func Hint(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Muted.Render("Hint: "+msg))
}
