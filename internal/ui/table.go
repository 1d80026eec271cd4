package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arguslabs/argus/pkg/service/ec2"
)

// Column describes one table column.
type Column struct {
	Title string
	Width int
	Style lipgloss.Style
	// StyleFunc overrides Style per cell value when set.
	StyleFunc func(value string) lipgloss.Style
}

// Table renders rows in a styled box table.
type Table struct {
	columns []Column
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// Render builds the boxed table for the given rows.
func (t *Table) Render(rows [][]string) string {
	var sb strings.Builder

	t.writeBorder(&sb, TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for _, col := range t.columns {
		cell := " " + padRight(col.Title, col.Width) + " "
		sb.WriteString(HeaderStyle.Render(cell))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	t.writeBorder(&sb, LeftT, Cross, RightT)

	for _, row := range rows {
		sb.WriteString(BorderStyle.Render(Vertical))
		for i, col := range t.columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			style := col.Style
			if col.StyleFunc != nil {
				style = col.StyleFunc(value)
			}
			cell := " " + padRight(value, col.Width) + " "
			sb.WriteString(style.Render(cell))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	t.writeBorder(&sb, BottomLeft, BottomT, BottomRight)

	return sb.String()
}

// Print renders the table to stdout.
func (t *Table) Print(rows [][]string) {
	fmt.Print(t.Render(rows))
}

func (t *Table) writeBorder(sb *strings.Builder, left, mid, right string) {
	sb.WriteString(BorderStyle.Render(left))
	for i, col := range t.columns {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, col.Width+2)))
		if i < len(t.columns)-1 {
			sb.WriteString(BorderStyle.Render(mid))
		}
	}
	sb.WriteString(BorderStyle.Render(right))
	sb.WriteString("\n")
}

// PrintInstanceTable prints EC2 instances in a styled box table
func PrintInstanceTable(instances []ec2.Instance) {
	t := NewTable(
		Column{Title: "ID", Width: 22, Style: IDStyle},
		Column{Title: "Name", Width: 26, Style: NameStyle},
		Column{Title: "Private IP", Width: 14, Style: ValueStyle},
		Column{Title: "State", Width: 12, StyleFunc: StateStyle},
		Column{Title: "Type", Width: 12, Style: ValueStyle},
		Column{Title: "AZ", Width: 18, Style: ValueStyle},
	)

	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, []string{
			inst.ID,
			inst.Name,
			inst.PrivateIP,
			StateIndicator(inst.State),
			inst.Type,
			inst.Zone,
		})
	}
	t.Print(rows)

	printInstanceSummary(instances)
}

func printInstanceSummary(instances []ec2.Instance) {
	counts := make(map[string]int)
	for _, inst := range instances {
		counts[inst.State]++
	}

	var parts []string
	if c := counts["running"]; c > 0 {
		parts = append(parts, OKStyle.Render(fmt.Sprintf("%d running", c)))
	}
	if c := counts["stopped"]; c > 0 {
		parts = append(parts, DimStyle.Render(fmt.Sprintf("%d stopped", c)))
	}
	if c := counts["pending"]; c > 0 {
		parts = append(parts, WarnStyle.Render(fmt.Sprintf("%d pending", c)))
	}
	if c := counts["stopping"]; c > 0 {
		parts = append(parts, WarnStyle.Render(fmt.Sprintf("%d stopping", c)))
	}

	summary := fmt.Sprintf("  %d instances", len(instances))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}

	fmt.Println(summary)
}
