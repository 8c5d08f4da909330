// Package report filters work logs and aggregates them for the reports screen.
package report

import (
	"sort"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

// AllProjects selects every project in a Filter.
const AllProjects = "all"

// Filter restricts the logs a report covers. Start and End are inclusive
// YYYY-MM-DD bounds; an empty bound is open.
type Filter struct {
	Project string `json:"project"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func (f Filter) all() bool {
	return f.Project == "" || f.Project == AllProjects
}

// Match reports whether l passes the filter. Dates compare as strings, which
// orders correctly for YYYY-MM-DD.
func (f Filter) Match(l model.WorkLog) bool {
	if f.Start != "" && l.Date < f.Start {
		return false
	}
	if f.End != "" && l.Date > f.End {
		return false
	}
	return f.all() || l.ProjectID == f.Project
}

// Bar is one chart column.
type Bar struct {
	Name  string `json:"name"`
	Hours int    `json:"hours"`
	Color string `json:"color"`
}

// Row is one detail line of the report.
type Row struct {
	Date        string `json:"date"`
	Project     string `json:"project"`
	Hours       int    `json:"hours"`
	Description string `json:"description,omitempty"`
}

type Report struct {
	Filter     Filter `json:"filter"`
	TotalHours int    `json:"total_hours"`
	Count      int    `json:"count"`
	Chart      []Bar  `json:"chart"`
	Rows       []Row  `json:"rows"`
}

// Build applies f to logs. With every project selected the chart has one bar
// per project that has hours, in project list order; for a single project it
// has one bar per day, in the order days first appear in logs.
func Build(projects []model.Project, logs []model.WorkLog, f Filter) Report {
	var matched []model.WorkLog
	for _, l := range logs {
		if f.Match(l) {
			matched = append(matched, l)
		}
	}

	r := Report{Filter: f, Count: len(matched), Chart: []Bar{}, Rows: make([]Row, 0, len(matched))}
	for _, l := range matched {
		r.TotalHours += l.Hours
	}

	if f.all() {
		r.Chart = byProject(projects, matched)
	} else {
		r.Chart = byDay(projects, f.Project, matched)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date > matched[j].Date })
	for _, l := range matched {
		r.Rows = append(r.Rows, Row{
			Date:        l.Date,
			Project:     projectLabel(projects, l.ProjectID),
			Hours:       l.Hours,
			Description: l.Description,
		})
	}
	return r
}

func byProject(projects []model.Project, logs []model.WorkLog) []Bar {
	hours := map[string]int{}
	for _, l := range logs {
		hours[l.ProjectID] += l.Hours
	}
	bars := []Bar{}
	for _, p := range projects {
		if h := hours[p.ID]; h > 0 {
			bars = append(bars, Bar{Name: p.Name, Hours: h, Color: p.Color})
		}
	}
	return bars
}

func byDay(projects []model.Project, projectID string, logs []model.WorkLog) []Bar {
	color := model.DefaultColor
	if p := model.FindProject(projects, projectID); p != nil && p.Color != "" {
		color = p.Color
	}
	index := map[string]int{}
	bars := []Bar{}
	for _, l := range logs {
		label := timecalc.DayLabel(l.Date)
		i, ok := index[label]
		if !ok {
			i = len(bars)
			index[label] = i
			bars = append(bars, Bar{Name: label, Color: color})
		}
		bars[i].Hours += l.Hours
	}
	return bars
}

func projectLabel(projects []model.Project, id string) string {
	if p := model.FindProject(projects, id); p != nil {
		return p.Label()
	}
	return "Unknown"
}
