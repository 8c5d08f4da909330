// Package postgres implements store.Store directly against the Postgres
// database behind the hosted REST service.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn and pings the database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

const projectColumns = `id::text, code, name, coalesce(color, ''), created_at`

func scanProject(row pgx.Row) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Color, &p.CreatedAt)
	return p, err
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	const q = `select ` + projectColumns + ` from projects order by created_at desc;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError("list projects", err)
	}
	defer rows.Close()

	out := make([]model.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, mapError("list projects", err)
		}
		out = append(out, p)
	}
	return out, mapError("list projects", rows.Err())
}

func (s *Store) InsertProject(ctx context.Context, p model.Project) (model.Project, error) {
	const q = `
insert into projects (name, code, color)
values ($1, $2, nullif($3, ''))
returning ` + projectColumns + `;
`
	out, err := scanProject(s.pool.QueryRow(ctx, q, p.Name, p.Code, p.Color))
	if err != nil {
		return model.Project{}, mapError("insert project", err)
	}
	return out, nil
}

func (s *Store) UpdateProject(ctx context.Context, id, name, code string) (model.Project, error) {
	const q = `
update projects
set name = $2, code = $3
where id::text = $1
returning ` + projectColumns + `;
`
	out, err := scanProject(s.pool.QueryRow(ctx, q, id, name, code))
	if err != nil {
		return model.Project{}, mapError("update project", err)
	}
	return out, nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `delete from projects where id::text = $1;`, id)
	return mapError("delete project", err)
}

const workLogColumns = `id::text, project_id::text, date::text, hours, coalesce(description, ''), created_at`

func scanWorkLog(row pgx.Row) (model.WorkLog, error) {
	var l model.WorkLog
	err := row.Scan(&l.ID, &l.ProjectID, &l.Date, &l.Hours, &l.Description, &l.CreatedAt)
	return l, err
}

func (s *Store) ListWorkLogs(ctx context.Context) ([]model.WorkLog, error) {
	const q = `select ` + workLogColumns + ` from work_logs order by date desc;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError("list work logs", err)
	}
	defer rows.Close()

	out := make([]model.WorkLog, 0, 64)
	for rows.Next() {
		l, err := scanWorkLog(rows)
		if err != nil {
			return nil, mapError("list work logs", err)
		}
		out = append(out, l)
	}
	return out, mapError("list work logs", rows.Err())
}

func (s *Store) InsertWorkLog(ctx context.Context, l model.WorkLog) (model.WorkLog, error) {
	const q = `
insert into work_logs (project_id, date, hours, description)
values ((select id from projects where id::text = $1), $2::text::date, $3, $4)
returning ` + workLogColumns + `;
`
	out, err := scanWorkLog(s.pool.QueryRow(ctx, q, l.ProjectID, l.Date, l.Hours, l.Description))
	if err != nil {
		return model.WorkLog{}, mapError("insert work log", err)
	}
	return out, nil
}

func (s *Store) DeleteWorkLogsByProject(ctx context.Context, projectID string) error {
	_, err := s.pool.Exec(ctx, `delete from work_logs where project_id::text = $1;`, projectID)
	return mapError("delete work logs", err)
}

// mapError turns driver errors into the store's error shape so callers see
// the same codes as over REST.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, &store.Error{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}
