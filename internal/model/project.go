package model

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Project is a named bucket that hours are logged against.
type Project struct {
	ID        string    `json:"id"`
	Code      string    `json:"code" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Palette is the fixed set of accent colours assigned to new projects.
var Palette = []string{
	"#f97316", // orange
	"#ec4899", // pink
	"#10b981", // emerald
	"#f59e0b", // amber
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#f43f5e", // rose
	"#14b8a6", // teal
}

// DefaultColor is used wherever a project colour is unknown.
const DefaultColor = "#f97316"

// RandomColor picks a palette colour for a new project.
func RandomColor() string {
	return Palette[rand.IntN(len(Palette))]
}

// Normalize trims name and code and upper-cases the code.
func (p Project) Normalize() Project {
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	return p
}

// Label returns the "[CODE] Name" form used in listings.
func (p Project) Label() string {
	return fmt.Sprintf("[%s] %s", p.Code, p.Name)
}

// FindProject returns the project with the given id, or nil.
func FindProject(projects []Project, id string) *Project {
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i]
		}
	}
	return nil
}
