package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/pebble-catalog/internal/queries"
)

// ConfirmationDialog represents a yes/no confirmation dialog
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
	OnConfirm   func() tea.Cmd
	OnCancel    func() tea.Cmd
}

// NewConfirmationDialog creates a new confirmation dialog
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{
		Title:       title,
		Message:     message,
		YesSelected: false,
	}
}

// Update handles confirmation dialog updates
func (d *ConfirmationDialog) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			d.YesSelected = true
			return nil
		case "right", "l":
			d.YesSelected = false
			return nil
		case "enter":
			if d.YesSelected && d.OnConfirm != nil {
				return d.OnConfirm()
			}
			if !d.YesSelected && d.OnCancel != nil {
				return d.OnCancel()
			}
			return nil
		}
	}
	return nil
}

// View renders the confirmation dialog
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yesButton := inactiveButtonStyle.Render("Yes")
	noButton := inactiveButtonStyle.Render("No")

	if d.YesSelected {
		yesButton = activeButtonStyle.Render("Yes")
	} else {
		noButton = activeButtonStyle.Render("No")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yesButton, "  ", noButton))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(FormatKey("←/→", "navigate") + " • " + FormatKey("enter", "confirm") + " • " + FormatKey("esc/q", "cancel")))

	return boxStyle.Render(b.String())
}

// QueryItem represents a named query in the list
type QueryItem struct {
	Def queries.Definition
}

func (i QueryItem) FilterValue() string { return i.Def.Name }
func (i QueryItem) Title() string {
	return fmt.Sprintf("%s %s", FormatKind(i.Def.Mutates), i.Def.Name)
}
func (i QueryItem) Description() string {
	if len(i.Def.Params) == 0 {
		return mutedStyle.Render(i.Def.Description)
	}
	params := make([]string, len(i.Def.Params))
	for n, p := range i.Def.Params {
		params[n] = p.Name + "=" + p.Default
	}
	return mutedStyle.Render(i.Def.Description + " (" + strings.Join(params, " ") + ")")
}

// QueryItemDelegate is a custom delegate for query list items
type QueryItemDelegate struct{}

func (d QueryItemDelegate) Height() int                             { return 2 }
func (d QueryItemDelegate) Spacing() int                            { return 1 }
func (d QueryItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d QueryItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(QueryItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}
