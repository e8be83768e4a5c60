// Package tui is the interactive Bubble Tea front end over a controller.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/freetodo/internal/controller"
	"github.com/Makepad-fr/freetodo/internal/model"
	"github.com/Makepad-fr/freetodo/internal/ui"
)

type focus int

const (
	focusInput focus = iota
	focusList
)

// eventMsg carries a controller event into the program.
type eventMsg controller.Event

// addDoneMsg arrives when a background add has finished.
type addDoneMsg struct {
	pending *controller.PendingAdd
	err     error
}

type keyMap struct {
	Add, Delete, Remove, Focus, Dismiss, Quit key.Binding
}

var keys = keyMap{
	Add:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
	Delete:  key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),
	Remove:  key.NewBinding(key.WithKeys("delete"), key.WithHelp("del", "delete")),
	Focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
	Dismiss: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "dismiss error")),
	Quit:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
}

// listItem adapts model.Item to bubbles/list.Item.
type listItem struct {
	index int
	item  model.Item
}

func (i listItem) Title() string       { return ui.Row(i.index, i.item) }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Goal }

// itemDelegate renders one row per item.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	line := it.Title()
	if width := m.Width(); width > 2 {
		line = ui.Truncate(line, width-2)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+line)
}

// Model is the Bubble Tea model. It never holds list state of its own; the
// list view is rebuilt from the controller after every event.
type Model struct {
	ctx  context.Context
	ctrl *controller.Controller

	list    list.Model
	input   textinput.Model
	spinner spinner.Model
	focus   focus

	busy    bool
	ticking bool
	err     error
	pending []*controller.PendingAdd

	width, height int
}

// New builds a model over an initialized controller.
func New(ctx context.Context, ctrl *controller.Controller) Model {
	th := ui.Current()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = th.Help
	l.SetStatusBarItemName("item", "items")

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What do you need to do?"
	ti.CharLimit = 0
	ti.SetValue(ctrl.PendingInput())
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.Pending

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		list:    l,
		input:   ti,
		spinner: sp,
		width:   80,
		height:  24,
	}
	m.sync()
	m.resize()
	return m
}

// Run starts the program in the alternate screen and blocks until the user
// quits or ctx is done. Adds still in flight at exit are cancelled and
// waited for, so a response that already arrived is still written back
// before the caller releases the store.
func Run(ctx context.Context, ctrl *controller.Controller, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, ctrl), opts...)

	// Events raised from inside Update would block on Send, so deliver them
	// from their own goroutine. sync reads the controller, so order is moot.
	unsubscribe := ctrl.Subscribe(func(ev controller.Event) {
		go p.Send(eventMsg(ev))
	})
	defer unsubscribe()

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.cancelPending()
		fm.waitPending()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case eventMsg:
		return m, m.sync()

	case addDoneMsg:
		m.dropPending(msg.pending)
		return m, m.sync()

	case spinner.TickMsg:
		if !m.busy {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.cancelPending()
		return m, tea.Quit

	case key.Matches(msg, keys.Focus):
		if m.focus == focusInput {
			m.focus = focusList
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, keys.Dismiss):
		m.ctrl.ClearError()
		m.err = nil
		return m, nil

	case key.Matches(msg, keys.Delete),
		m.focus == focusList && key.Matches(msg, keys.Remove):
		return m, m.deleteSelected()

	case m.focus == focusInput && key.Matches(msg, keys.Add):
		return m, m.add()
	}

	var cmd tea.Cmd
	if m.focus == focusList {
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.ctrl.SetPendingInput(v)
	}
	return m, cmd
}

func (m *Model) add() tea.Cmd {
	p := m.ctrl.AddItemAsync(m.ctx)
	m.pending = append(m.pending, p)
	m.busy = true
	wait := func() tea.Msg { return addDoneMsg{pending: p, err: p.Wait()} }
	return tea.Batch(wait, m.startSpinner())
}

func (m *Model) deleteSelected() tea.Cmd {
	if len(m.list.Items()) == 0 {
		return nil
	}
	// The error, if any, is kept by the controller and shown in the error bar.
	_ = m.ctrl.DeleteItem(m.ctx, m.list.Index())
	return m.sync()
}

// sync pulls the controller state into the view.
func (m *Model) sync() tea.Cmd {
	items := m.ctrl.Items()
	rows := make([]list.Item, len(items))
	for i, it := range items {
		rows[i] = listItem{index: i, item: it}
	}
	sel := m.list.Index()
	m.list.SetItems(rows)
	if sel >= len(rows) {
		sel = len(rows) - 1
	}
	if sel >= 0 {
		m.list.Select(sel)
	}

	if in := m.ctrl.PendingInput(); in != m.input.Value() {
		m.input.SetValue(in)
		m.input.CursorEnd()
	}
	m.err = m.ctrl.LastError()
	m.busy = m.ctrl.Busy()
	if m.busy {
		return m.startSpinner()
	}
	return nil
}

func (m *Model) startSpinner() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

func (m *Model) dropPending(p *controller.PendingAdd) {
	for i, q := range m.pending {
		if q == p {
			m.pending = append(m.pending[:i:i], m.pending[i+1:]...)
			return
		}
	}
}

func (m Model) cancelPending() {
	for _, p := range m.pending {
		p.Cancel()
	}
}

func (m Model) waitPending() {
	for _, p := range m.pending {
		_ = p.Wait()
	}
}

func (m *Model) resize() {
	// header, input box (3), status, help and the outer frame (2)
	h := m.height - 9
	if h < 1 {
		h = 1
	}
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	m.list.SetSize(w, h)
	m.input.Width = w - 7
}

func (m Model) View() string {
	th := ui.Current()

	var b strings.Builder
	b.WriteString(ui.Header(len(m.list.Items())))
	b.WriteString("\n")
	if len(m.list.Items()) == 0 {
		b.WriteString(th.Muted.Render("no items yet, type below and press enter"))
	} else {
		b.WriteString(m.list.View())
	}
	b.WriteString("\n")

	boxColor := th.BorderColor
	if m.focus == focusInput {
		boxColor = th.Accent.GetForeground()
	}
	box := lipgloss.NewStyle().
		Border(th.Border).
		BorderForeground(boxColor).
		Padding(0, 1)
	b.WriteString(box.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(th.Help.Render(m.helpLine()))
	return ui.PanelString(b.String())
}

func (m Model) statusLine() string {
	th := ui.Current()
	switch {
	case m.err != nil:
		return th.Error.Render(th.SymFail+" "+m.err.Error()) + " " + th.Muted.Render("(ctrl+l to dismiss)")
	case m.busy:
		return m.spinner.View() + " " + th.Pending.Render("creating items...")
	default:
		return th.Muted.Render("ready")
	}
}

func (m Model) helpLine() string {
	bindings := []key.Binding{keys.Add, keys.Delete, keys.Focus, keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
