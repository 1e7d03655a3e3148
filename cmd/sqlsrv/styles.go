package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

var (
	colorPurple    = lipgloss.Color("#7D56F4")
	colorGreen     = lipgloss.Color("#04B575")
	colorRed       = lipgloss.Color("#FF4141")
	colorGray      = lipgloss.Color("#626262")
	colorLightGray = lipgloss.Color("#9e9e9e")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true).
			PaddingRight(2)

	styleCell = lipgloss.NewStyle().PaddingRight(2)

	styleMuted = lipgloss.NewStyle().Foreground(colorLightGray)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)
)

// renderTable lays out rows under headers with left-aligned columns.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(styleHeader.Width(widths[i] + 2).Render(h))
	}
	sb.WriteString("\n")
	for _, r := range rows {
		for i, c := range r {
			if i >= len(widths) {
				break
			}
			sb.WriteString(styleCell.Width(widths[i] + 2).Render(c))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderColumns(title string, cols []driver.Column) string {
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		flags := []string{}
		if c.Primary {
			flags = append(flags, "PK")
		}
		if c.AutoIncrement {
			flags = append(flags, "IDENTITY")
		}
		if c.NotNull {
			flags = append(flags, "NOT NULL")
		}
		def := ""
		if c.Default != nil {
			def = *c.Default
		}
		position := "first"
		if !c.First {
			position = "after " + c.After
		}
		rows = append(rows, []string{
			c.Name,
			c.Type.String(),
			c.BindType.String(),
			fmt.Sprintf("%d", c.Size),
			strings.Join(flags, " "),
			def,
			styleMuted.Render(position),
		})
	}
	table := renderTable([]string{"COLUMN", "TYPE", "BIND", "SIZE", "FLAGS", "DEFAULT", "POSITION"}, rows)
	return styleTitle.Render(title) + "\n" + styleBox.Render(table)
}

func renderIndexes(indexes []driver.Index) string {
	rows := make([][]string, 0, len(indexes))
	for _, ix := range indexes {
		rows = append(rows, []string{ix.Name, strings.Join(ix.Columns, ", ")})
	}
	return styleTitle.Render("Indexes") + "\n" + styleBox.Render(renderTable([]string{"INDEX", "COLUMNS"}, rows))
}

func renderReferences(refs []driver.Reference) string {
	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		target := r.ReferencedTable
		if r.ReferencedSchema != "" {
			target = r.ReferencedSchema + "." + target
		}
		rows = append(rows, []string{
			r.Name,
			strings.Join(r.Columns, ", "),
			fmt.Sprintf("%s(%s)", target, strings.Join(r.ReferencedColumns, ", ")),
		})
	}
	return styleTitle.Render("References") + "\n" +
		styleBox.Render(renderTable([]string{"CONSTRAINT", "COLUMNS", "REFERENCES"}, rows))
}
