package bubbletea

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	analyst "github.com/ledgerline/analyst"
	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var _ MessageBlock = (*TableResultBlock)(nil)

const (
	maxCellWidth = 32
	maxBarWidth  = 40
)

// TableResultBlock renders an executed query result as a bordered table.
// Two-column numeric results additionally get a bar chart. The block is
// collapsible; it starts expanded.
type TableResultBlock struct {
	block     analyst.TableBlock
	collapsed bool
	styles    Styles
}

// NewTableResultBlock creates a TableResultBlock.
func NewTableResultBlock(block analyst.TableBlock, styles Styles) *TableResultBlock {
	return &TableResultBlock{block: block, styles: styles}
}

func (b *TableResultBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *TableResultBlock) View(width int) string {
	if b.collapsed {
		header := b.styles.Table.Render("▶ query results") + " " +
			b.styles.Success.Render("✓") + "  " + b.styles.Muted.Render(b.rowSummary())
		return lipgloss.NewStyle().Width(width).Render(header)
	}

	var out strings.Builder
	out.WriteString(b.styles.Table.Render("▼ query results") + " " + b.styles.Success.Render("✓"))
	out.WriteString("\n")
	out.WriteString(b.renderTable())
	out.WriteString("\n")
	out.WriteString(b.styles.Muted.Render(b.rowSummary()))

	if chart := b.renderChart(); chart != "" {
		out.WriteString("\n\n")
		out.WriteString(chart)
	}
	return out.String()
}

func (b *TableResultBlock) rowSummary() string {
	summary := fmt.Sprintf("%d rows", b.block.TotalRows)
	if b.block.TotalRows == 1 {
		summary = "1 row"
	}
	if b.block.Truncated {
		summary += fmt.Sprintf(" (showing first %d)", len(b.block.Rows))
	}
	return summary
}

func (b *TableResultBlock) renderTable() string {
	rows := make([][]string, len(b.block.Rows))
	for i, row := range b.block.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = truncateCell(cell, maxCellWidth)
		}
		rows[i] = cells
	}
	headers := make([]string, len(b.block.Columns))
	for i, col := range b.block.Columns {
		headers[i] = truncateCell(col, maxCellWidth)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(b.styles.Table).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return b.styles.Table.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// renderChart draws a horizontal bar chart when the result has exactly two
// columns and every value in the second parses as a number. This covers
// the common "dimension, measure" shape of analyst queries.
func (b *TableResultBlock) renderChart() string {
	if len(b.block.Columns) != 2 || len(b.block.Rows) == 0 {
		return ""
	}

	values := make([]float64, len(b.block.Rows))
	var maxVal float64
	labelWidth := 0
	for i, row := range b.block.Rows {
		if len(row) != 2 {
			return ""
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(row[1], ",", ""), 64)
		if err != nil || v < 0 {
			return ""
		}
		values[i] = v
		if v > maxVal {
			maxVal = v
		}
		if w := uniseg.StringWidth(row[0]); w > labelWidth {
			labelWidth = w
		}
	}
	if maxVal == 0 {
		return ""
	}
	if labelWidth > maxCellWidth {
		labelWidth = maxCellWidth
	}

	var out strings.Builder
	for i, row := range b.block.Rows {
		label := rw.FillRight(truncateCell(row[0], labelWidth), labelWidth)
		barLen := int(values[i] / maxVal * maxBarWidth)
		if barLen == 0 && values[i] > 0 {
			barLen = 1
		}
		out.WriteString(b.styles.Muted.Render(label))
		out.WriteString(" ")
		out.WriteString(b.styles.Chart.Render(strings.Repeat("█", barLen)))
		out.WriteString(" ")
		out.WriteString(row[1])
		if i < len(b.block.Rows)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

// truncateCell cuts s to at most width display columns, appending an
// ellipsis when anything was removed. Cutting happens on grapheme cluster
// boundaries so wide characters and combining marks stay intact.
func truncateCell(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := rw.StringWidth(g.Str())
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	return b.String() + "…"
}
