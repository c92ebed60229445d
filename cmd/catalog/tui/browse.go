package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/queries"
)

// BrowseMode represents the current mode of the query browser
type BrowseMode int

const (
	ModeList BrowseMode = iota
	ModeConfirm
	ModeRunning
	ModeResult
	ModeError
)

// BrowseModel is the Bubbletea model for browsing and running named queries
type BrowseModel struct {
	ctx          context.Context
	lib          *queries.Library
	mode         BrowseMode
	list         list.Model
	confirmation ConfirmationDialog
	viewport     viewport.Model
	current      queries.Definition
	rows         int
	err          error
	width        int
	height       int
}

// NewBrowseModel creates a browser over every named query
func NewBrowseModel(ctx context.Context, lib *queries.Library) BrowseModel {
	defs := queries.Definitions()
	items := make([]list.Item, len(defs))
	for i, def := range defs {
		items[i] = QueryItem{Def: def}
	}

	l := list.New(items, QueryItemDelegate{}, 0, 0)
	l.Title = "Catalog Queries"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return BrowseModel{
		ctx:      ctx,
		lib:      lib,
		mode:     ModeList,
		list:     l,
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model
func (m BrowseModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Messages
type queryResultMsg struct {
	def    queries.Definition
	result any
	err    error
}

type confirmedMsg struct{}

type cancelledMsg struct{}

// Commands
func runQueryCmd(ctx context.Context, lib *queries.Library, def queries.Definition) tea.Cmd {
	return func() tea.Msg {
		result, err := def.Run(ctx, lib, nil)
		return queryResultMsg{def: def, result: result, err: err}
	}
}

// Update handles messages
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6
		return m, nil

	case queryResultMsg:
		if msg.err != nil {
			m.mode = ModeError
			m.err = msg.err
			return m, nil
		}
		m.mode = ModeResult
		m.viewport.SetContent(m.render(msg))
		m.viewport.GotoTop()
		return m, nil

	case confirmedMsg:
		m.mode = ModeRunning
		return m, runQueryCmd(m.ctx, m.lib, m.current)

	case cancelledMsg:
		m.mode = ModeList
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit

			case "enter":
				item, ok := m.list.SelectedItem().(QueryItem)
				if !ok {
					return m, nil
				}
				m.current = item.Def

				if !item.Def.Mutates {
					m.mode = ModeRunning
					return m, runQueryCmd(m.ctx, m.lib, item.Def)
				}

				m.confirmation = NewConfirmationDialog(
					"Confirm Write",
					fmt.Sprintf("%s changes data:\n%s", item.Def.Name, item.Def.Description),
				)
				m.confirmation.OnConfirm = func() tea.Cmd {
					return func() tea.Msg { return confirmedMsg{} }
				}
				m.confirmation.OnCancel = func() tea.Cmd {
					return func() tea.Msg { return cancelledMsg{} }
				}
				m.mode = ModeConfirm
				return m, nil
			}

		case ModeConfirm:
			switch msg.String() {
			case "ctrl+c", "q", "esc":
				m.mode = ModeList
				return m, nil
			default:
				return m, m.confirmation.Update(msg)
			}

		case ModeRunning:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil

		case ModeResult, ModeError:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc", "backspace":
				m.mode = ModeList
				m.err = nil
				return m, nil
			}
			if m.mode == ModeResult {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			return m, nil
		}
	}

	if m.mode == ModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *BrowseModel) render(msg queryResultMsg) string {
	if msg.def.Mutates {
		m.rows = 0
		if n, ok := msg.result.(int64); ok {
			m.rows = int(n)
			return successStyle.Render(fmt.Sprintf("✓ %s changed %d row(s)", msg.def.Name, n))
		}
		return successStyle.Render("✓ " + msg.def.Name + " done")
	}

	t := queries.Tabulate(msg.result)
	m.rows = len(t.Rows)
	return output.Table(t.Headers, t.Rows, queries.Null)
}

// View renders the UI
func (m BrowseModel) View() string {
	switch m.mode {
	case ModeList:
		help := helpStyle.Render(
			FormatKey("↑/↓", "navigate") + " • " +
				FormatKey("/", "filter") + " • " +
				FormatKey("enter", "run") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left,
			m.list.View(),
			help,
		)

	case ModeConfirm:
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			m.confirmation.View(),
		)

	case ModeRunning:
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(infoStyle.Render("Running "+m.current.Name+"...")),
		)

	case ModeResult:
		title := titleStyle.Render(m.current.Name) + " " + mutedStyle.Render(fmt.Sprintf("%d row(s)", m.rows))
		help := helpStyle.Render(
			FormatKey("↑/↓", "scroll") + " • " +
				FormatKey("esc", "back") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), help)

	case ModeError:
		msg := titleStyle.Render(m.current.Name+" failed") + "\n\n" +
			errorStyle.Render(m.err.Error()) + "\n\n" +
			helpStyle.Render(FormatKey("esc", "back")+" • "+FormatKey("q", "quit"))

		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(msg),
		)
	}

	return "Unknown mode"
}

// RunBrowser starts the interactive query browser
func RunBrowser(ctx context.Context, lib *queries.Library) error {
	p := tea.NewProgram(NewBrowseModel(ctx, lib), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
