package output

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Align controls cell alignment within a column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table is a simple styled table renderer with per-column alignment.
type Table struct {
	headers []string
	aligns  []Align
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with the given column headers. Columns
// default to left alignment.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		aligns:  make([]Align, len(headers)),
		widths:  widths,
	}
}

// AlignColumns sets the alignment per column, in header order.
func (t *Table) AlignColumns(aligns ...Align) *Table {
	for i, a := range aligns {
		if i < len(t.aligns) {
			t.aligns[i] = a
		}
	}
	return t
}

// AddRow adds a row of values to the table. The number of values should
// match the number of headers.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := range t.headers {
		if i < len(values) {
			row[i] = values[i]
		}
		if visualLen(row[i]) > t.widths[i] {
			t.widths[i] = visualLen(row[i])
		}
	}
	t.rows = append(t.rows, row)
}

// Render returns the formatted table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	var sb strings.Builder

	for i, h := range t.headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(headerStyle.Render(t.pad(h, i)))
	}
	sb.WriteString("\n")

	for i, w := range t.widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(StyleMuted.Render(strings.Repeat("─", w)))
	}
	sb.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(t.pad(cell, i))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	return t.Render()
}

// pad fits s to column i's width respecting its alignment. Widths are
// measured on the visible text so styled cells still line up.
func (t *Table) pad(s string, i int) string {
	w := t.widths[i]
	if visualLen(s) >= w {
		return s
	}
	fill := strings.Repeat(" ", w-visualLen(s))
	if t.aligns[i] == AlignRight {
		return fill + s
	}
	return s + fill
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visualLen is the display width of s with ANSI escape sequences removed.
func visualLen(s string) int {
	return len([]rune(ansiPattern.ReplaceAllString(s, "")))
}
