// ABOUTME: Terminal rendering for report tables
// ABOUTME: Lipgloss-styled grid with a highlighted totals row
package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/cbaraj14/hubspot-reporting/report"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	totalsStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Padding(0, 1)
)

// RenderTable lays a finished report table out for the terminal. The
// totals row, when present, renders last in a distinct style.
func RenderTable(t *report.Table) string {
	rows := make([][]string, 0, len(t.Rows)+1)
	for _, row := range t.Rows {
		rows = append(rows, formatCells(row))
	}
	totalsIndex := -1
	if len(t.Totals) > 0 {
		totalsIndex = len(rows)
		rows = append(rows, formatCells(t.Totals))
	}

	tbl := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Header...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return headerStyle
			case row == totalsIndex:
				return totalsStyle
			default:
				return cellStyle
			}
		})

	return tbl.Render()
}

// formatCells renders numeric cells with two decimals and leaves zero
// amounts blank so sparse months read as gaps, not noise.
func formatCells(cells []any) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		switch v := cell.(type) {
		case float64:
			if v == 0 {
				out[i] = ""
			} else {
				out[i] = fmt.Sprintf("%.2f", v)
			}
		case string:
			out[i] = v
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
