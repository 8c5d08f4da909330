// Package shell is the presentation layer: a tab switcher over the register,
// projects and reports views, served to a terminal or over HTTP.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Tab is one of the three screens.
type Tab int

const (
	TabRegister Tab = iota
	TabProjects
	TabReports
)

// Tabs lists the screens in navigation bar order.
var Tabs = []Tab{TabRegister, TabProjects, TabReports}

func (t Tab) String() string {
	switch t {
	case TabProjects:
		return "projects"
	case TabReports:
		return "reports"
	}
	return "register"
}

// Title is the label shown in the navigation bar.
func (t Tab) Title() string {
	switch t {
	case TabProjects:
		return "Projects"
	case TabReports:
		return "Reports"
	}
	return "Register"
}

// ParseTab maps a tab name to a Tab. Anything unknown is TabRegister.
func ParseTab(s string) Tab {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "projects":
		return TabProjects
	case "reports":
		return TabReports
	}
	return TabRegister
}

// View renders one screen.
type View interface {
	Render(ctx context.Context, w io.Writer) error
}

// Controller owns the current tab. It is the only state shared between views.
type Controller struct {
	views map[Tab]View

	mu      sync.RWMutex
	current Tab
}

// NewController starts on TabRegister.
func NewController(views map[Tab]View) *Controller {
	return &Controller{views: views, current: TabRegister}
}

func (c *Controller) Current() Tab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Controller) Navigate(t Tab) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Render draws the current tab's view followed by the navigation bar.
func (c *Controller) Render(ctx context.Context, w io.Writer) error {
	tab := c.Current()
	v, ok := c.views[tab]
	if !ok {
		return fmt.Errorf("no view for tab %s", tab)
	}
	if err := v.Render(ctx, w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", NavBar(tab))
	return err
}

// NavBar renders the bottom navigation with the active tab in brackets.
func NavBar(active Tab) string {
	parts := make([]string, 0, len(Tabs))
	for _, t := range Tabs {
		if t == active {
			parts = append(parts, "["+t.Title()+"]")
		} else {
			parts = append(parts, " "+t.Title()+" ")
		}
	}
	return strings.Join(parts, "  ")
}
