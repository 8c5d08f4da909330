// Package memory is an in-process store.Store that enforces the same
// foreign key between work logs and projects as the hosted database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/store"
)

type Store struct {
	mu       sync.Mutex
	projects []model.Project
	logs     []model.WorkLog
	calls    int
	now      func() time.Time

	failures map[string]error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// Calls counts every method invocation, failed ones included.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// FailOn makes the named method (e.g. "DeleteProject") return err without
// touching data. An empty method name fails every call.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures == nil {
		s.failures = map[string]error{}
	}
	s.failures[method] = err
}

func (s *Store) begin(method string) error {
	s.calls++
	if err := s.failures[method]; err != nil {
		return err
	}
	return s.failures[""]
}

func (s *Store) ListProjects(context.Context) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("ListProjects"); err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(s.projects))
	for i := len(s.projects) - 1; i >= 0; i-- {
		out = append(out, s.projects[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) InsertProject(_ context.Context, p model.Project) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("InsertProject"); err != nil {
		return model.Project{}, err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()
	s.projects = append(s.projects, p)
	return p, nil
}

func (s *Store) UpdateProject(_ context.Context, id, name, code string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("UpdateProject"); err != nil {
		return model.Project{}, err
	}
	p := model.FindProject(s.projects, id)
	if p == nil {
		return model.Project{}, store.ErrNotFound
	}
	p.Name, p.Code = name, code
	return *p, nil
}

func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("DeleteProject"); err != nil {
		return err
	}
	for _, l := range s.logs {
		if l.ProjectID == id {
			return &store.Error{
				Code:    store.CodeForeignKeyViolation,
				Message: `update or delete on table "projects" violates foreign key constraint "work_logs_project_id_fkey" on table "work_logs"`,
				Details: fmt.Sprintf(`Key (id)=(%s) is still referenced from table "work_logs".`, id),
			}
		}
	}
	kept := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.projects = kept
	return nil
}

func (s *Store) ListWorkLogs(context.Context) ([]model.WorkLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("ListWorkLogs"); err != nil {
		return nil, err
	}
	out := append([]model.WorkLog(nil), s.logs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Store) InsertWorkLog(_ context.Context, l model.WorkLog) (model.WorkLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("InsertWorkLog"); err != nil {
		return model.WorkLog{}, err
	}
	if model.FindProject(s.projects, l.ProjectID) == nil {
		return model.WorkLog{}, &store.Error{
			Code:    store.CodeForeignKeyViolation,
			Message: `insert or update on table "work_logs" violates foreign key constraint "work_logs_project_id_fkey"`,
		}
	}
	l.ID = uuid.NewString()
	l.CreatedAt = s.now().UTC()
	s.logs = append(s.logs, l)
	return l, nil
}

func (s *Store) DeleteWorkLogsByProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("DeleteWorkLogsByProject"); err != nil {
		return err
	}
	kept := s.logs[:0]
	for _, l := range s.logs {
		if l.ProjectID != projectID {
			kept = append(kept, l)
		}
	}
	s.logs = kept
	return nil
}
