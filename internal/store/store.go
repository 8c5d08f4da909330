// Package store reads and writes projects and work logs in the hosted database.
package store

import (
	"context"

	"github.com/Tiliavir/architrack/internal/model"
)

// Table names in the hosted database.
const (
	TableProjects = "projects"
	TableWorkLogs = "work_logs"
)

// Store is the remote data access used by the tracker. Lists come back newest
// first: projects by created_at, logs by date.
type Store interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	InsertProject(ctx context.Context, p model.Project) (model.Project, error)
	// UpdateProject changes name and code only.
	UpdateProject(ctx context.Context, id, name, code string) (model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListWorkLogs(ctx context.Context) ([]model.WorkLog, error)
	InsertWorkLog(ctx context.Context, l model.WorkLog) (model.WorkLog, error)
	DeleteWorkLogsByProject(ctx context.Context, projectID string) error
}
