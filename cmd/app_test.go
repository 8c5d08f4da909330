package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/report"
	"github.com/Tiliavir/architrack/internal/tracker"
)

var testProjects = []model.Project{
	{ID: "3f1c", Code: "LIB", Name: "Library", Color: "#f97316"},
	{ID: "9a2b", Code: "HOS", Name: "Hospital", Color: "#3b82f6"},
}

func TestResolveProject(t *testing.T) {
	tests := []struct {
		ref     string
		wantID  string
		wantErr bool
	}{
		{"3f1c", "3f1c", false},
		{"LIB", "3f1c", false},
		{"hos", "9a2b", false},
		{"  HOS ", "9a2b", false},
		{"SCH", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		p, err := resolveProject(testProjects, tt.ref)
		if tt.wantErr {
			if err == nil {
				t.Errorf("resolveProject(%q) = %v, want error", tt.ref, p)
			}
			continue
		}
		if err != nil || p.ID != tt.wantID {
			t.Errorf("resolveProject(%q) = %q, %v, want %q", tt.ref, p.ID, err, tt.wantID)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.input), &out, "Delete?")
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if out.String() != "Delete? [y/N] " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	printList(&buf, nil)
	if got := buf.String(); got != "No work logs found.\n" {
		t.Errorf("empty list = %q", got)
	}

	buf.Reset()
	printList(&buf, []report.Row{
		{Date: "2024-01-16", Project: "[LIB] Library", Hours: 3, Description: "plans"},
		{Date: "2024-01-16", Project: "[HOS] Hospital", Hours: 2},
		{Date: "2024-01-15", Project: "[LIB] Library", Hours: 4},
	})
	out := buf.String()
	if strings.Count(out, "2024-01-16\n") != 1 {
		t.Errorf("day header not grouped:\n%s", out)
	}
	if !strings.Contains(out, "3.0 h  plans") {
		t.Errorf("missing description:\n%s", out)
	}
	if strings.Index(out, "2024-01-16") > strings.Index(out, "2024-01-15") {
		t.Errorf("rows reordered:\n%s", out)
	}
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	printProjects(&buf, nil)
	if got := buf.String(); got != "No projects found.\n" {
		t.Errorf("empty projects = %q", got)
	}

	buf.Reset()
	printProjects(&buf, testProjects)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "LIB") || !strings.HasSuffix(lines[0], "3f1c") {
		t.Errorf("line = %q", lines[0])
	}
}

func TestSyncRange(t *testing.T) {
	now := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		date, from, to   string
		wantFrom, wantTo string
		wantErr          bool
	}{
		{wantFrom: "2024-01-31", wantTo: "2024-01-31"},
		{date: "2024-01-15", wantFrom: "2024-01-15", wantTo: "2024-01-15"},
		{from: "2024-01-01", wantFrom: "2024-01-01", wantTo: "2024-01-31"},
		{from: "2024-01-01", to: "2024-01-07", wantFrom: "2024-01-01", wantTo: "2024-01-07"},
		{to: "2024-01-07", wantErr: true},
		{from: "2024-01-07", to: "2024-01-01", wantErr: true},
		{date: "15.01.2024", wantErr: true},
	}
	t.Cleanup(func() { outlookSyncDate, outlookSyncFrom, outlookSyncTo = "", "", "" })
	for _, tt := range tests {
		outlookSyncDate, outlookSyncFrom, outlookSyncTo = tt.date, tt.from, tt.to
		from, to, err := syncRange(now)
		if tt.wantErr {
			if err == nil {
				t.Errorf("syncRange(%+v) succeeded, want error", tt)
			}
			continue
		}
		if err != nil {
			t.Errorf("syncRange(%+v): %v", tt, err)
			continue
		}
		if got := from.Format("2006-01-02"); got != tt.wantFrom {
			t.Errorf("from = %s, want %s", got, tt.wantFrom)
		}
		if got := to.Format("2006-01-02"); got != tt.wantTo {
			t.Errorf("to = %s, want %s", got, tt.wantTo)
		}
		if !to.After(from) {
			t.Errorf("range %s..%s is empty", from, to)
		}
	}
}

func TestAlertDestination(t *testing.T) {
	if _, ok := (appOptions{}).alerts().(tracker.ConsoleNotifier); !ok {
		t.Errorf("default alerts = %T, want tracker.ConsoleNotifier", (appOptions{}).alerts())
	}

	// serve already logs every failure to stderr.
	opts := serveOptions()
	if opts.logTo != os.Stderr {
		t.Errorf("serve logs to %v, want stderr", opts.logTo)
	}
	if got := opts.alerts(); got != tracker.Discard {
		t.Errorf("serve alerts = %T, want tracker.Discard", got)
	}
}
