package store

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Tiliavir/architrack/internal/model"
)

type projectInput struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Color string `json:"color,omitempty"`
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	q := url.Values{"select": {"*"}, "order": {"created_at.desc"}}
	var rows []model.Project
	if err := c.do(ctx, http.MethodGet, TableProjects, q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) InsertProject(ctx context.Context, p model.Project) (model.Project, error) {
	var rows []model.Project
	in := projectInput{Name: p.Name, Code: p.Code, Color: p.Color}
	if err := c.do(ctx, http.MethodPost, TableProjects, nil, []projectInput{in}, &rows); err != nil {
		return model.Project{}, err
	}
	return single(rows)
}

func (c *Client) UpdateProject(ctx context.Context, id, name, code string) (model.Project, error) {
	var rows []model.Project
	q := url.Values{"id": {eq(id)}}
	if err := c.do(ctx, http.MethodPatch, TableProjects, q, projectInput{Name: name, Code: code}, &rows); err != nil {
		return model.Project{}, err
	}
	return single(rows)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, TableProjects, url.Values{"id": {eq(id)}}, nil, nil)
}
