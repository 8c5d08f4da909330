package model

import (
	"strings"
	"time"
)

// WorkLog is a number of whole hours registered against a project on a day.
// Logs are immutable once stored; they disappear together with their project.
type WorkLog struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id" validate:"required"`
	Date        string    `json:"date" validate:"required,datetime=2006-01-02"`
	Hours       int       `json:"hours" validate:"min=1"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Normalize trims the free-text fields.
func (l WorkLog) Normalize() WorkLog {
	l.ProjectID = strings.TrimSpace(l.ProjectID)
	l.Date = strings.TrimSpace(l.Date)
	l.Description = strings.TrimSpace(l.Description)
	return l
}
