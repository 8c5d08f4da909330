package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/report"
	"github.com/Tiliavir/architrack/internal/timecalc"
	"github.com/Tiliavir/architrack/internal/tracker"
)

// recentLogs is how many logs the register view lists under the form.
const recentLogs = 5

// RegisterView shows the projects hours can be logged against and the most
// recent entries.
type RegisterView struct {
	Tracker *tracker.Service
	Now     func() time.Time
}

func (v RegisterView) Render(ctx context.Context, w io.Writer) error {
	projects, _ := v.Tracker.ListProjects(ctx)
	logs, _ := v.Tracker.ListLogs(ctx)

	var b strings.Builder
	fmt.Fprintf(&b, "Register hours (%s)\n", timecalc.Today(now(v.Now)))
	fmt.Fprintln(&b, "--------------------------------")
	if len(projects) == 0 {
		fmt.Fprintln(&b, "No projects yet. Create one in the Projects tab.")
	}
	for _, p := range projects {
		fmt.Fprintf(&b, "  %s\n", p.Label())
	}
	if len(logs) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Recent")
		for i, l := range logs {
			if i == recentLogs {
				break
			}
			fmt.Fprintf(&b, "  %s  %-24s %s\n", l.Date, label(projects, l.ProjectID), timecalc.FormatHours(l.Hours))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ProjectsView lists every project with its colour and logged hours.
type ProjectsView struct {
	Tracker *tracker.Service
}

func (v ProjectsView) Render(ctx context.Context, w io.Writer) error {
	projects, _ := v.Tracker.ListProjects(ctx)
	logs, _ := v.Tracker.ListLogs(ctx)

	hours := map[string]int{}
	for _, l := range logs {
		hours[l.ProjectID] += l.Hours
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Projects (%d)\n", len(projects))
	fmt.Fprintln(&b, "--------------------------------")
	for _, p := range projects {
		fmt.Fprintf(&b, "  %-28s %s  %s\n", p.Label(), p.Color, timecalc.FormatHours(hours[p.ID]))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ReportsView shows the report for all projects up to today.
type ReportsView struct {
	Tracker *tracker.Service
	Now     func() time.Time
	// Filter overrides the default filter when set.
	Filter *report.Filter
}

func (v ReportsView) Render(ctx context.Context, w io.Writer) error {
	projects, _ := v.Tracker.ListProjects(ctx)
	logs, _ := v.Tracker.ListLogs(ctx)

	f := report.Filter{Project: report.AllProjects, End: timecalc.Today(now(v.Now))}
	if v.Filter != nil {
		f = *v.Filter
	}
	return report.Render(w, report.Build(projects, logs, f), "md", projects)
}

// Views returns the three screens wired to svc.
func Views(svc *tracker.Service, clock func() time.Time) map[Tab]View {
	return map[Tab]View{
		TabRegister: RegisterView{Tracker: svc, Now: clock},
		TabProjects: ProjectsView{Tracker: svc},
		TabReports:  ReportsView{Tracker: svc, Now: clock},
	}
}

func now(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now()
	}
	return clock()
}

func label(projects []model.Project, id string) string {
	if p := model.FindProject(projects, id); p != nil {
		return p.Label()
	}
	return "Unknown"
}
