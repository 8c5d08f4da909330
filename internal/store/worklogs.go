package store

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Tiliavir/architrack/internal/model"
)

type workLogInput struct {
	ProjectID   string `json:"project_id"`
	Date        string `json:"date"`
	Hours       int    `json:"hours"`
	Description string `json:"description"`
}

func (c *Client) ListWorkLogs(ctx context.Context) ([]model.WorkLog, error) {
	q := url.Values{"select": {"*"}, "order": {"date.desc"}}
	var rows []model.WorkLog
	if err := c.do(ctx, http.MethodGet, TableWorkLogs, q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) InsertWorkLog(ctx context.Context, l model.WorkLog) (model.WorkLog, error) {
	in := workLogInput{ProjectID: l.ProjectID, Date: l.Date, Hours: l.Hours, Description: l.Description}
	var rows []model.WorkLog
	if err := c.do(ctx, http.MethodPost, TableWorkLogs, nil, []workLogInput{in}, &rows); err != nil {
		return model.WorkLog{}, err
	}
	return single(rows)
}

func (c *Client) DeleteWorkLogsByProject(ctx context.Context, projectID string) error {
	q := url.Values{"project_id": {eq(projectID)}}
	return c.do(ctx, http.MethodDelete, TableWorkLogs, q, nil, nil)
}
