// Package tracker holds the rules behind the register, project and report
// screens: input clean-up, validation, and turning store failures into alerts.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/store"
)

// CascadeMessage is shown when the database refuses to delete a project that
// still has work logs.
const CascadeMessage = "cannot delete the project: it still has registered hours and the database " +
	"refuses to remove them (foreign key constraint). Ask an administrator to enable " +
	"ON DELETE CASCADE on work_logs.project_id."

// Alert is a failure that has already been shown to the user.
type Alert struct {
	Msg string
	Err error
}

func (a *Alert) Error() string { return a.Msg }
func (a *Alert) Unwrap() error { return a.Err }

type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewService(s store.Store, notifier Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, notifier: notifier, logger: logger}
}

func (s *Service) fail(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, "error", err)
	s.notifier.Alert(ctx, msg)
	return &Alert{Msg: msg, Err: err}
}

// storeMessage extracts the database's own message when there is one.
func storeMessage(err error) string {
	var se *store.Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}

// ListProjects returns projects newest first. On failure the user is alerted
// and an empty list comes back together with the error.
func (s *Service) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return []model.Project{}, s.fail(ctx, "could not load projects: "+storeMessage(err), err)
	}
	return projects, nil
}

// ListLogs returns work logs by date, newest first. Failures behave as in
// ListProjects.
func (s *Service) ListLogs(ctx context.Context) ([]model.WorkLog, error) {
	logs, err := s.store.ListWorkLogs(ctx)
	if err != nil {
		return []model.WorkLog{}, s.fail(ctx, "could not load work logs: "+storeMessage(err), err)
	}
	return logs, nil
}

// CreateProject stores a new project with a random palette colour.
func (s *Service) CreateProject(ctx context.Context, name, code string) (model.Project, error) {
	p := model.Project{Name: name, Code: code}.Normalize()
	if err := model.ValidateProject(p); err != nil {
		return model.Project{}, s.fail(ctx, err.Error(), err)
	}
	p.Color = model.RandomColor()

	created, err := s.store.InsertProject(ctx, p)
	if err != nil {
		return model.Project{}, s.fail(ctx, "could not save: "+storeMessage(err), err)
	}
	s.logger.InfoContext(ctx, "project created", "id", created.ID, "code", created.Code)
	return created, nil
}

// UpdateProject renames a project and/or changes its code. The colour stays.
func (s *Service) UpdateProject(ctx context.Context, id, name, code string) (model.Project, error) {
	p := model.Project{ID: id, Name: name, Code: code}.Normalize()
	if err := model.ValidateProject(p); err != nil {
		return model.Project{}, s.fail(ctx, err.Error(), err)
	}

	updated, err := s.store.UpdateProject(ctx, p.ID, p.Name, p.Code)
	if err != nil {
		return model.Project{}, s.fail(ctx, "could not update: "+storeMessage(err), err)
	}
	return updated, nil
}

// DeleteProject removes a project's logs and then the project itself.
//
// The logs delete is best effort: with no logs there is nothing to do, and if
// it was refused the project delete fails with the foreign key error, which
// produces the more useful message.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteWorkLogsByProject(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "deleting project logs failed", "project", id, "error", err)
	}

	err := s.store.DeleteProject(ctx, id)
	if err == nil {
		s.logger.InfoContext(ctx, "project deleted", "id", id)
		return nil
	}
	if store.IsForeignKeyViolation(err) {
		return s.fail(ctx, CascadeMessage, err)
	}
	var se *store.Error
	if errors.As(err, &se) {
		return s.fail(ctx, fmt.Sprintf("could not delete: %s (code %s)", se.Message, se.Code), err)
	}
	return s.fail(ctx, "unexpected error while deleting the project: "+err.Error(), err)
}

// LogHours registers a work log. Bad input never reaches the store.
func (s *Service) LogHours(ctx context.Context, l model.WorkLog) (model.WorkLog, error) {
	l = l.Normalize()
	if err := model.ValidateWorkLog(l); err != nil {
		return model.WorkLog{}, s.fail(ctx, err.Error(), err)
	}

	created, err := s.store.InsertWorkLog(ctx, l)
	if err != nil {
		return model.WorkLog{}, s.fail(ctx, "could not register hours: "+storeMessage(err), err)
	}
	s.logger.InfoContext(ctx, "hours registered", "project", created.ProjectID, "date", created.Date, "hours", created.Hours)
	return created, nil
}
