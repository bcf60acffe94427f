package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width sizes the column to its
// widest cell.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates a new table.
func NewTable(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render returns the full table as a string.
// Cells are padded by hand so lipgloss never wraps a cell that fills its
// column exactly.
func (t *Table) Render() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	widths := t.widths()

	headers := make([]string, len(t.Columns))
	divider := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = headerStyle.Render(fit(col.Title, widths[i]))
		divider[i] = StyleDim.Render(strings.Repeat("-", widths[i]))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divider, " ") + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells[j] = cellStyle.Render(fit(val, widths[j]))
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}
	return sb.String()
}

func (t *Table) widths() []int {
	w := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			w[i] = col.Width
			continue
		}
		w[i] = lipgloss.Width(col.Title)
		for _, row := range t.Rows {
			if i < len(row) && lipgloss.Width(row[i]) > w[i] {
				w[i] = lipgloss.Width(row[i])
			}
		}
	}
	return w
}

// fit left-aligns s within exactly width cells, truncating with an ellipsis.
func fit(s string, width int) string {
	n := lipgloss.Width(s)
	switch {
	case n == width:
		return s
	case n < width:
		return s + strings.Repeat(" ", width-n)
	case width <= 1:
		return string([]rune(s)[:width])
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// KeyValueBlock renders key-value pairs in a bordered box. Keys are aligned
// to the longest one.
func KeyValueBlock(title string, pairs [][2]string) string {
	keyWidth := 0
	for _, p := range pairs {
		if n := lipgloss.Width(p[0]) + 1; n > keyWidth {
			keyWidth = n
		}
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for i, p := range pairs {
		key := StyleMeta.Render(fit(p[0]+":", keyWidth))
		sb.WriteString(key + "  " + StyleValue.Render(p[1]))
		if i < len(pairs)-1 {
			sb.WriteString("\n")
		}
	}
	return StyleBorder.Render(sb.String())
}
