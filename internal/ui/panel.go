// Package ui implements the interactive strings panel.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"strview/internal/elfx"
	"strview/internal/scan"
	"strview/internal/view"
)

type panelMode int

const (
	modeTable panelMode = iota
	modeXrefs
	modeHelp
)

// Panel is the bubbletea model for the strings panel.
type Panel struct {
	filepath string
	opts     scan.Options

	im    *elfx.Image
	store *view.Store
	rows  *view.View
	coord *view.Coordinator

	// events carries coordinator callbacks onto the bubbletea loop.
	events chan tea.Msg

	xrefView viewport.Model
	helpView viewport.Model
	spinner  spinner.Model

	mode       panelMode
	cursor     int
	top        int // first visible row of the table
	filtering  bool
	filterText string
	refreshing bool
	loading    bool
	notice     string
	width      int
	height     int
}

// Message types
type imageOpenedMsg struct {
	im  *elfx.Image
	err error
}

type refreshDoneMsg struct {
	count   int
	version uint64
}

type refreshErrMsg struct {
	err error
}

type xrefsMsg struct {
	target view.Entry
	refs   []scan.Xref
	err    error
}

// Commands
func openImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		im, err := elfx.Open(path)
		return imageOpenedMsg{im: im, err: err}
	}
}

func (m Panel) listenCmd() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m Panel) findXrefsCmd(target view.Entry) tea.Cmd {
	im := m.im
	return func() tea.Msg {
		refs, err := scan.FindXrefs(context.Background(), im, target.Address)
		return xrefsMsg{target: target, refs: refs, err: err}
	}
}

func NewPanel(filepath string, opts scan.Options) Panel {
	xv := viewport.New()
	xv.SetWidth(80)
	xv.SetHeight(24)

	hv := viewport.New()
	hv.SetWidth(80)
	hv.SetHeight(24)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	store := view.NewStore()
	return Panel{
		filepath: filepath,
		opts:     opts,
		store:    store,
		rows:     view.NewView(store),
		events:   make(chan tea.Msg, 8),
		xrefView: xv,
		helpView: hv,
		spinner:  s,
		loading:  true,
		width:    80,
		height:   24,
	}
}

func (m Panel) Init() tea.Cmd {
	return tea.Batch(
		openImageCmd(m.filepath),
		m.listenCmd(),
		m.spinner.Tick,
	)
}

func (m Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case imageOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.im = msg.im
		events := m.events
		scanner := scan.NewScanner(m.im, m.opts)
		m.coord = view.NewCoordinator(m.store, scanner.Producer(),
			view.WithOnData(func(count int, version uint64) {
				events <- refreshDoneMsg{count: count, version: version}
			}),
			view.WithOnError(func(err error) {
				events <- refreshErrMsg{err: err}
			}),
		)
		m.refreshing = true
		m.coord.Refresh()
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		m.notice = ""
		m.clampCursor()
		slog.Debug("Dataset installed", "count", msg.count, "version", msg.version)
		return m, m.listenCmd()

	case refreshErrMsg:
		m.refreshing = false
		m.notice = fmt.Sprintf("refresh failed: %v", msg.err)
		return m, m.listenCmd()

	case xrefsMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("xrefs failed: %v", msg.err)
			return m, nil
		}
		m.mode = modeXrefs
		m.xrefView.SetContent(renderXrefs(msg.target, msg.refs))
		m.xrefView.GotoTop()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading || m.refreshing {
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.xrefView.SetWidth(msg.Width)
			m.xrefView.SetHeight(msg.Height - 2)
			m.helpView.SetWidth(msg.Width)
			m.helpView.SetHeight(msg.Height - 2)
			m.clampCursor()
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	switch m.mode {
	case modeXrefs:
		m.xrefView, cmd = m.xrefView.Update(msg)
	case modeHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	return m, cmd
}

func (m Panel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Quit works everywhere, including while a refresh is in flight.
	if key == "ctrl+c" || (key == "q" && !m.filtering) {
		m.shutdown()
		return m, tea.Quit
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch m.mode {
	case modeXrefs, modeHelp:
		switch key {
		case "esc", "enter":
			m.mode = modeTable
			return m, nil
		}
		var cmd tea.Cmd
		if m.mode == modeXrefs {
			m.xrefView, cmd = m.xrefView.Update(msg)
		} else {
			m.helpView, cmd = m.helpView.Update(msg)
		}
		return m, cmd
	}

	switch key {
	case "/":
		m.filtering = true
		m.notice = ""
		return m, nil

	case "esc":
		if m.rows.Filter() != "" {
			m.rows.SetFilter("")
			m.filterText = ""
			m.clampCursor()
		}
		return m, nil

	case "1", "2", "3", "4", "5":
		m.setSortKey(key)
		return m, nil

	case "r", "f5":
		if m.coord == nil {
			return m, nil
		}
		m.refreshing = true
		m.notice = ""
		m.coord.Refresh()
		return m, m.spinner.Tick

	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "pgup":
		m.moveCursor(-m.visibleRows())
		return m, nil
	case "pgdown":
		m.moveCursor(m.visibleRows())
		return m, nil
	case "g", "home":
		m.cursor = 0
		m.clampCursor()
		return m, nil
	case "G", "end":
		m.cursor = m.rows.RowCount() - 1
		m.clampCursor()
		return m, nil

	case "enter":
		e, err := m.rows.RowAt(m.cursor)
		if err != nil || m.im == nil {
			return m, nil
		}
		m.notice = ""
		return m, m.findXrefsCmd(e)

	case "y":
		if e, err := m.rows.RowAt(m.cursor); err == nil {
			if err := clipboard.WriteAll(e.Text); err != nil {
				m.notice = fmt.Sprintf("copy failed: %v", err)
			} else {
				m.notice = "copied string"
			}
		}
		return m, nil
	case "Y":
		if e, err := m.rows.RowAt(m.cursor); err == nil {
			if err := clipboard.WriteAll(e.AddressString()); err != nil {
				m.notice = fmt.Sprintf("copy failed: %v", err)
			} else {
				m.notice = "copied address"
			}
		}
		return m, nil

	case "?":
		m.mode = modeHelp
		m.helpView.SetContent(m.renderHelp())
		m.helpView.GotoTop()
		return m, nil
	}

	return m, nil
}

func (m Panel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc":
		m.filtering = false
		m.filterText = ""
		m.rows.SetFilter("")
		m.clampCursor()
		return m, nil
	case "enter":
		m.filtering = false
		return m, nil
	case "backspace":
		if len(m.filterText) > 0 {
			runes := []rune(m.filterText)
			m.filterText = string(runes[:len(runes)-1])
			m.rows.SetFilter(m.filterText)
			m.clampCursor()
		}
		return m, nil
	}

	// The filter narrows live, one keystroke at a time.
	if key == "space" {
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 {
		m.filterText += key
		m.rows.SetFilter(m.filterText)
		m.clampCursor()
	}
	return m, nil
}

// setSortKey maps the number row to columns. Hitting the active column's key
// flips the direction.
func (m *Panel) setSortKey(key string) {
	columns := map[string]view.Column{
		"1": view.ColAddress,
		"2": view.ColText,
		"3": view.ColKind,
		"4": view.ColLength,
		"5": view.ColSize,
	}
	col := columns[key]
	current, ascending := m.rows.Sort()
	if current == col {
		m.rows.SetSort(col, !ascending)
	} else {
		m.rows.SetSort(col, true)
	}
}

func (m *Panel) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Panel) clampCursor() {
	count := m.rows.RowCount()
	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	visible := m.visibleRows()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+visible {
		m.top = m.cursor - visible + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

// visibleRows is the table body height: total minus header, status and menu.
func (m Panel) visibleRows() int {
	rows := m.height - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Panel) shutdown() {
	if m.coord != nil {
		m.coord.Close()
	}
	if m.im != nil {
		m.im.Close()
	}
}
