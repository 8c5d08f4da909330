package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/store"
	"github.com/Tiliavir/architrack/internal/store/memory"
)

func TestForeignKey(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	p, err := s.InsertProject(ctx, model.Project{Name: "Library", Code: "LIB"})
	require.NoError(t, err)
	_, err = s.InsertWorkLog(ctx, model.WorkLog{ProjectID: p.ID, Date: "2024-01-15", Hours: 2})
	require.NoError(t, err)

	_, err = s.InsertWorkLog(ctx, model.WorkLog{ProjectID: "nope", Date: "2024-01-15", Hours: 2})
	assert.True(t, store.IsForeignKeyViolation(err))

	assert.True(t, store.IsForeignKeyViolation(s.DeleteProject(ctx, p.ID)))

	require.NoError(t, s.DeleteWorkLogsByProject(ctx, p.ID))
	require.NoError(t, s.DeleteProject(ctx, p.ID))

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestOrdering(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a, _ := s.InsertProject(ctx, model.Project{Name: "A", Code: "A"})
	b, _ := s.InsertProject(ctx, model.Project{Name: "B", Code: "B"})
	for _, d := range []string{"2024-01-02", "2024-03-01", "2024-02-10"} {
		_, err := s.InsertWorkLog(ctx, model.WorkLog{ProjectID: a.ID, Date: d, Hours: 1})
		require.NoError(t, err)
	}

	projects, _ := s.ListProjects(ctx)
	assert.Equal(t, []string{b.ID, a.ID}, []string{projects[0].ID, projects[1].ID})

	logs, _ := s.ListWorkLogs(ctx)
	var dates []string
	for _, l := range logs {
		dates = append(dates, l.Date)
	}
	assert.Equal(t, []string{"2024-03-01", "2024-02-10", "2024-01-02"}, dates)
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	boom := errors.New("boom")
	s.FailOn("ListWorkLogs", boom)

	_, err := s.ListProjects(ctx)
	require.NoError(t, err)
	_, err = s.ListWorkLogs(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, s.Calls())

	_, err = s.UpdateProject(ctx, "missing", "x", "X")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
