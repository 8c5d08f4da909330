package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/architrack/internal/model"
)

var (
	projects = []model.Project{
		{ID: "p2", Code: "HOS", Name: "Hospital", Color: "#3b82f6"},
		{ID: "p1", Code: "LIB", Name: "Library", Color: "#ec4899"},
		{ID: "p3", Code: "IDL", Name: "Idle", Color: "#10b981"},
	}
	logs = []model.WorkLog{
		{ID: "l1", ProjectID: "p1", Date: "2023-12-31", Hours: 2},
		{ID: "l2", ProjectID: "p1", Date: "2024-01-31", Hours: 3, Description: "facade, north"},
		{ID: "l3", ProjectID: "p2", Date: "2024-02-01", Hours: 5},
		{ID: "l4", ProjectID: "p2", Date: "2024-01-15", Hours: 4},
		{ID: "l5", ProjectID: "gone", Date: "2024-01-10", Hours: 1},
		{ID: "l6", ProjectID: "p1", Date: "2024-01-31", Hours: 1},
	}
)

func TestFilterAllOpenStart(t *testing.T) {
	r := Build(projects, logs, Filter{Project: AllProjects, End: "2024-01-31"})

	assert.Equal(t, 5, r.Count)
	assert.Equal(t, 11, r.TotalHours)
	assert.Equal(t, []Bar{
		{Name: "Hospital", Hours: 4, Color: "#3b82f6"},
		{Name: "Library", Hours: 6, Color: "#ec4899"},
	}, r.Chart, "projects without hours are left out")

	var dates []string
	for _, row := range r.Rows {
		dates = append(dates, row.Date)
	}
	assert.Equal(t, []string{"2024-01-31", "2024-01-31", "2024-01-15", "2024-01-10", "2023-12-31"}, dates)
	assert.Equal(t, "Unknown", r.Rows[3].Project)
	assert.Equal(t, "[LIB] Library", r.Rows[0].Project)
}

func TestFilterBounds(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"open", Filter{}, 6},
		{"inclusive start", Filter{Start: "2024-01-31"}, 3},
		{"inclusive both", Filter{Start: "2024-01-15", End: "2024-01-31"}, 3},
		{"single project", Filter{Project: "p2"}, 2},
		{"empty range", Filter{Start: "2025-01-01"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Build(projects, logs, tt.filter).Count; got != tt.want {
				t.Errorf("Count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChartByDay(t *testing.T) {
	r := Build(projects, logs, Filter{Project: "p1"})
	assert.Equal(t, []Bar{
		{Name: "31/12", Hours: 2, Color: "#ec4899"},
		{Name: "31/01", Hours: 4, Color: "#ec4899"},
	}, r.Chart)

	r = Build(projects, logs, Filter{Project: "gone"})
	assert.Equal(t, []Bar{{Name: "10/01", Hours: 1, Color: model.DefaultColor}}, r.Chart)
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	r := Build(projects, logs, Filter{Project: "p1", Start: "2024-01-01"})
	require.NoError(t, Render(&buf, r, "csv", projects))

	want := "date,project,hours,description\n" +
		"2024-01-31,[LIB] Library,3,\"facade, north\"\n" +
		"2024-01-31,[LIB] Library,1,\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := Build(projects, logs, Filter{Project: AllProjects, End: "2024-01-31"})
	require.NoError(t, Render(&buf, r, "json", projects))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, r.TotalHours, got.TotalHours)
	assert.Len(t, got.Rows, 5)
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := Build(projects, logs, Filter{Project: AllProjects, End: "2024-01-31"})
	require.NoError(t, Render(&buf, r, "md", projects))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "All projects, beginning .. 2024-01-31\n"))
	assert.Contains(t, out, "Library             6.0 h")
	assert.Contains(t, out, "11.0 h (5 entries)")
	assert.Contains(t, out, "facade, north")

	buf.Reset()
	require.NoError(t, Render(&buf, Build(projects, nil, Filter{}), "md", projects))
	assert.Contains(t, buf.String(), "No work logs in this range.")
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "[HOS] Hospital, 2024-01-01 .. today", Title(Filter{Project: "p2", Start: "2024-01-01"}, projects))
}

func TestCsvEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"with,comma", `"with,comma"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", "\"with\nnewline\""},
		{"with\rreturn", "\"with\rreturn\""},
		{"", ""},
	}
	for _, tt := range tests {
		got := csvEscape(tt.input)
		if got != tt.want {
			t.Errorf("csvEscape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
