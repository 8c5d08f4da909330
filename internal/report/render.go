package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

// Formats lists the accepted Render formats.
var Formats = []string{"md", "csv", "json"}

// Render writes r as md, csv or json. An unknown format falls back to md.
func Render(w io.Writer, r Report, format string, projects []model.Project) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "csv":
		return renderCSV(w, r)
	default:
		return renderMarkdown(w, r, projects)
	}
}

func renderCSV(w io.Writer, r Report) error {
	var b strings.Builder
	b.WriteString("date,project,hours,description\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "%s,%s,%d,%s\n",
			csvEscape(row.Date),
			csvEscape(row.Project),
			row.Hours,
			csvEscape(row.Description),
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Title describes the filter, e.g. "All projects, 2024-01-01 .. 2024-01-31".
func Title(f Filter, projects []model.Project) string {
	scope := "All projects"
	if !f.all() {
		scope = projectLabel(projects, f.Project)
	}
	start, end := f.Start, f.End
	if start == "" {
		start = "beginning"
	}
	if end == "" {
		end = "today"
	}
	return fmt.Sprintf("%s, %s .. %s", scope, start, end)
}

func renderMarkdown(w io.Writer, r Report, projects []model.Project) error {
	var b strings.Builder
	fmt.Fprintln(&b, Title(r.Filter, projects))
	fmt.Fprintln(&b, "--------------------------------")
	if r.Count == 0 {
		fmt.Fprintln(&b, "No work logs in this range.")
		_, err := io.WriteString(w, b.String())
		return err
	}
	for _, bar := range r.Chart {
		fmt.Fprintf(&b, "%-20s%s\n", bar.Name, timecalc.FormatHours(bar.Hours))
	}
	fmt.Fprintln(&b, "--------------------------------")
	fmt.Fprintf(&b, "%-20s%s (%d entries)\n", "Total", timecalc.FormatHours(r.TotalHours), r.Count)
	fmt.Fprintln(&b)
	for _, row := range r.Rows {
		line := fmt.Sprintf("%s  %-24s %3dh", row.Date, row.Project, row.Hours)
		if row.Description != "" {
			line += "  " + row.Description
		}
		fmt.Fprintln(&b, line)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
