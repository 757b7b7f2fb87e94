// Package table renders aligned ASCII tables. Cell values may contain ANSI
// color codes; column widths are computed on the visible text.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alignment controls how a cell's text is padded within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// visibleWidth is the cell width as seen in a terminal, with color codes
// excluded.
func visibleWidth(s string) int {
	return len([]rune(stripAnsi(s)))
}

// Table renders rows of string cells with a header and border lines.
type Table struct {
	writer          io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

// NewTable creates a table that renders to the given writer.
func NewTable(writer io.Writer) *Table {
	return &Table{writer: writer}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(alignment []Alignment) *Table {
	t.columnAlignment = alignment
	return t
}

func (t *Table) WithHeaderAlignment(alignment []Alignment) *Table {
	t.headerAlignment = alignment
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render writes the table. Headers default to centered and cells to
// left-aligned when no alignment is configured for a column.
func (t *Table) Render() {
	columns := len(t.header)
	for _, row := range t.rows {
		if len(row) > columns {
			columns = len(row)
		}
	}
	if columns == 0 {
		return
	}

	widths := make([]int, columns)
	for i, cell := range t.header {
		if w := visibleWidth(cell); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sep strings.Builder
	sep.WriteString("+")
	for _, w := range widths {
		sep.WriteString(strings.Repeat("-", w+2))
		sep.WriteString("+")
	}
	separator := sep.String()

	fmt.Fprintln(t.writer, separator)
	if len(t.header) > 0 {
		t.writeRow(t.header, widths, t.headerAlignment, AlignCenter)
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		t.writeRow(row, widths, t.columnAlignment, AlignLeft)
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *Table) writeRow(row []string, widths []int, alignment []Alignment, fallback Alignment) {
	var line strings.Builder
	line.WriteString("|")
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		align := fallback
		if i < len(alignment) {
			align = alignment[i]
		}
		line.WriteString(" ")
		line.WriteString(pad(cell, w, align))
		line.WriteString(" |")
	}
	fmt.Fprintln(t.writer, line.String())
}

func pad(s string, width int, align Alignment) string {
	gap := width - visibleWidth(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
