package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/architrack/internal/logger"
	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/store"
	"github.com/Tiliavir/architrack/internal/store/memory"
	"github.com/Tiliavir/architrack/internal/tracker"
)

func newService() (*tracker.Service, *memory.Store, *tracker.Recorder) {
	s := memory.New()
	rec := &tracker.Recorder{}
	return tracker.NewService(s, rec, logger.Discard()), s, rec
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService()

	p, err := svc.CreateProject(ctx, "  Library  ", " lib ")
	require.NoError(t, err)
	assert.Equal(t, "Library", p.Name)
	assert.Equal(t, "LIB", p.Code)
	assert.Contains(t, model.Palette, p.Color)
	assert.NotEmpty(t, p.ID)
	assert.Empty(t, rec.Alerts())
}

func TestCreateProjectRejectsBlankFields(t *testing.T) {
	tests := []struct {
		name, code string
	}{
		{"", "LIB"},
		{"Library", "   "},
		{" ", ""},
	}
	for _, tt := range tests {
		svc, s, rec := newService()
		_, err := svc.CreateProject(context.Background(), tt.name, tt.code)
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.Zero(t, s.Calls(), "store must not be called for %q/%q", tt.name, tt.code)
		assert.Len(t, rec.Alerts(), 1)
	}
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService()
	p, err := svc.CreateProject(ctx, "Library", "LIB")
	require.NoError(t, err)

	updated, err := svc.UpdateProject(ctx, p.ID, "City Library", "clib")
	require.NoError(t, err)
	assert.Equal(t, "CLIB", updated.Code)
	assert.Equal(t, p.Color, updated.Color)

	_, err = svc.UpdateProject(ctx, "missing", "x", "X")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{"could not update: " + store.ErrNotFound.Error()}, rec.Alerts())
}

func TestLogHoursRejectsZeroBeforeNetwork(t *testing.T) {
	svc, s, rec := newService()
	_, err := svc.LogHours(context.Background(), model.WorkLog{ProjectID: "p1", Date: "2024-01-15", Hours: 0})
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, s.Calls())
	require.Len(t, rec.Alerts(), 1)
	assert.Contains(t, rec.Alerts()[0], "hours must be at least 1")

	var alert *tracker.Alert
	assert.True(t, errors.As(err, &alert))
}

func TestLogHours(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService()
	p, err := svc.CreateProject(ctx, "Library", "LIB")
	require.NoError(t, err)

	l, err := svc.LogHours(ctx, model.WorkLog{ProjectID: p.ID, Date: "2024-01-15", Hours: 3, Description: " plans "})
	require.NoError(t, err)
	assert.Equal(t, "plans", l.Description)

	logs, err := svc.ListLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeleteProjectRemovesLogsFirst(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService()
	p, err := svc.CreateProject(ctx, "Library", "LIB")
	require.NoError(t, err)
	_, err = svc.LogHours(ctx, model.WorkLog{ProjectID: p.ID, Date: "2024-01-15", Hours: 3})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(ctx, p.ID))

	projects, _ := svc.ListProjects(ctx)
	logs, _ := svc.ListLogs(ctx)
	assert.Empty(t, projects)
	assert.Empty(t, logs)
	assert.Empty(t, rec.Alerts())
}

func TestDeleteProjectForeignKeyMessage(t *testing.T) {
	ctx := context.Background()
	svc, s, rec := newService()
	p, err := svc.CreateProject(ctx, "Library", "LIB")
	require.NoError(t, err)
	_, err = svc.LogHours(ctx, model.WorkLog{ProjectID: p.ID, Date: "2024-01-15", Hours: 3})
	require.NoError(t, err)

	// Row level security refuses the logs delete.
	s.FailOn("DeleteWorkLogsByProject", &store.Error{Code: "42501", Message: "permission denied"})

	err = svc.DeleteProject(ctx, p.ID)
	assert.True(t, store.IsForeignKeyViolation(err))
	assert.Equal(t, []string{tracker.CascadeMessage}, rec.Alerts())

	projects, _ := svc.ListProjects(ctx)
	assert.Len(t, projects, 1)
}

func TestDeleteProjectOtherErrors(t *testing.T) {
	ctx := context.Background()

	svc, s, rec := newService()
	s.FailOn("DeleteProject", &store.Error{Code: "42501", Message: "permission denied"})
	require.Error(t, svc.DeleteProject(ctx, "p1"))
	assert.Equal(t, []string{"could not delete: permission denied (code 42501)"}, rec.Alerts())

	svc, s, rec = newService()
	s.FailOn("DeleteProject", errors.New("connection refused"))
	require.Error(t, svc.DeleteProject(ctx, "p1"))
	assert.Equal(t, []string{"unexpected error while deleting the project: connection refused"}, rec.Alerts())
}

func TestListFailuresReturnEmpty(t *testing.T) {
	ctx := context.Background()
	svc, s, rec := newService()
	s.FailOn("", errors.New("offline"))

	projects, err := svc.ListProjects(ctx)
	assert.Error(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	logs, err := svc.ListLogs(ctx)
	assert.Error(t, err)
	assert.Empty(t, logs)

	assert.Equal(t, []string{"could not load projects: offline", "could not load work logs: offline"}, rec.Alerts())
}
