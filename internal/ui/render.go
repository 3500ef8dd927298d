package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"strview/internal/scan"
	"strview/internal/strview/styles"
	"strview/internal/ui/colorize"
	"strview/internal/view"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("237")).Foreground(lipgloss.Color("230"))
	addrStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (m Panel) View() string {
	var content string
	switch m.mode {
	case modeXrefs:
		content = m.xrefView.View()
	case modeHelp:
		content = m.helpView.View()
	default:
		content = m.renderTable()
	}

	var menu string
	switch m.mode {
	case modeXrefs:
		menu = " Esc: back • ↑/↓: scroll • Q: quit "
	case modeHelp:
		menu = " Esc: back • Q: quit "
	default:
		if m.filtering {
			menu = " Enter: apply • Esc: clear "
		} else {
			menu = " /: filter • 1-5: sort • Enter: xrefs • R: refresh • Y: copy • ?: help • Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

// renderTable draws the visible slice of rows plus header and status line.
func (m Panel) renderTable() string {
	var b strings.Builder

	textWidth := m.width - 46 // fixed columns: address, kind, length, size
	if textWidth < 10 {
		textWidth = 10
	}

	sortCol, ascending := m.rows.Sort()
	header := fmt.Sprintf("  %-12s %-*s %-8s %7s %7s",
		columnHeader(view.ColAddress, sortCol, ascending),
		textWidth, columnHeader(view.ColText, sortCol, ascending),
		columnHeader(view.ColKind, sortCol, ascending),
		columnHeader(view.ColLength, sortCol, ascending),
		columnHeader(view.ColSize, sortCol, ascending))
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	visible := m.visibleRows()
	count := m.rows.RowCount()
	for i := m.top; i < m.top+visible; i++ {
		if i >= count {
			b.WriteString("\n")
			continue
		}
		e, err := m.rows.RowAt(i)
		if err != nil {
			b.WriteString("\n")
			continue
		}

		addr := fmt.Sprintf("%-12s", e.AddressString())
		rest := fmt.Sprintf("%-*s %-8s %7d %7d",
			textWidth, truncate(e.Text, textWidth),
			e.Kind, e.Length, e.Size)

		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + addr + rest))
		} else {
			b.WriteString("  " + addrStyle.Render(addr) + rest)
		}
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Panel) renderStatus() string {
	var parts []string

	switch {
	case m.filtering:
		parts = append(parts, fmt.Sprintf("/%s▌", m.filterText))
	case m.rows.Filter() != "":
		parts = append(parts, fmt.Sprintf("filter: %q", m.rows.Filter()))
	}

	if m.loading {
		parts = append(parts, fmt.Sprintf("%s loading %s", m.spinner.View(), m.filepath))
	} else if m.refreshing {
		parts = append(parts, fmt.Sprintf("%s refreshing", m.spinner.View()))
	} else {
		parts = append(parts, fmt.Sprintf("%d strings", m.rows.RowCount()))
	}

	status := statusStyle.Render(strings.Join(parts, " • "))
	if m.notice != "" {
		status += "  " + noticeStyle.Render(m.notice)
	}
	return status
}

// columnHeader marks the active sort column with a direction arrow.
func columnHeader(col, active view.Column, ascending bool) string {
	if col != active {
		return col.String()
	}
	if ascending {
		return col.String() + " ↑"
	}
	return col.String() + " ↓"
}

func renderXrefs(target view.Entry, refs []scan.Xref) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Xrefs to %s  %s\n\n", target.AddressString(), truncate(target.Text, 60))

	if len(refs) == 0 {
		b.WriteString("  no code references found\n")
		return b.String()
	}

	for _, r := range refs {
		line := fmt.Sprintf("0x%08x  %s", r.VA, r.Text)
		if r.Symbol != "" {
			line += " ; " + r.Symbol
		}
		b.WriteString("  " + colorize.XrefLine(line) + "\n")
	}
	return b.String()
}

func (m Panel) renderHelp() string {
	markdown := `# Strings Panel

Extracted strings from the data sections of the loaded binary.

## Keys

- ` + "`/`" + ` filter rows (case-insensitive substring)
- ` + "`Esc`" + ` clear the active filter
- ` + "`1`-`5`" + ` sort by address, string, type, length, size; repeat to flip
- ` + "`Enter`" + ` find code references to the selected string
- ` + "`R` / `F5`" + ` rescan the binary
- ` + "`y` / `Y`" + ` copy the selected string / its address
- ` + "`q`" + ` quit

## Columns

- **Length** is the number of characters
- **Size** is the encoded byte size including the terminator
`

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	renderer := styles.MarkdownRenderer(width)
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(rendered, "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
