package shell

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/offline"
	"github.com/Tiliavir/architrack/internal/report"
	"github.com/Tiliavir/architrack/internal/store"
	"github.com/Tiliavir/architrack/internal/timecalc"
	"github.com/Tiliavir/architrack/internal/tracker"
)

// Deps is everything the HTTP shell needs.
type Deps struct {
	Tracker      *tracker.Service
	Controller   *Controller
	Registration *offline.Registration
	// Origin is where app shell assets are fetched from.
	Origin      string
	CORSOrigins []string
	Logger      *slog.Logger
	Now         func() time.Time
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine for `architrack serve`.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handler{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(d.Logger), CORS(d.CORSOrigins))

	r.GET("/healthz", h.health)
	r.GET("/", h.renderTab)
	r.GET("/tabs/:tab", h.navigate)
	r.GET("/sw/status", h.workerStatus)
	r.GET("/shell/*path", h.shellAsset)

	api := r.Group("/api/v1")
	api.GET("/projects", h.listProjects)
	api.POST("/projects", h.createProject)
	api.PATCH("/projects/:id", h.updateProject)
	api.DELETE("/projects/:id", h.deleteProject)
	api.GET("/logs", h.listLogs)
	api.POST("/logs", h.createLog)
	api.GET("/reports", h.report)

	return r
}

func (h *handler) today() string {
	return timecalc.Today(now(h.Now))
}

func (h *handler) health(c *gin.Context) {
	version := ""
	if w := h.Registration.Active(); w != nil {
		version = w.Version()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "architrack",
		"cache":     version,
	})
}

func (h *handler) renderTab(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Controller.Render(c.Request.Context(), &buf); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *handler) navigate(c *gin.Context) {
	h.Controller.Navigate(ParseTab(c.Param("tab")))
	h.renderTab(c)
}

// errorStatus maps service errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case store.IsForeignKeyViolation(err):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

// fail answers with the mapped status and logs the failure under the
// request id, so a client report can be matched to the server log.
func (h *handler) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status := errorStatus(err)
	h.Logger.WarnContext(ctx, "request failed", "id", GetRequestID(ctx), "status", status, "error", err)
	c.JSON(status, gin.H{"ok": false, "error": err.Error()})
}

func (h *handler) listProjects(c *gin.Context) {
	projects, err := h.Tracker.ListProjects(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": projects})
}

type projectReq struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *handler) createProject(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	p, err := h.Tracker.CreateProject(c.Request.Context(), req.Name, req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *handler) updateProject(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	p, err := h.Tracker.UpdateProject(c.Request.Context(), c.Param("id"), req.Name, req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *handler) deleteProject(c *gin.Context) {
	if err := h.Tracker.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listLogs(c *gin.Context) {
	logs, err := h.Tracker.ListLogs(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "logs": logs})
}

func (h *handler) createLog(c *gin.Context) {
	var req model.WorkLog
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		req.Date = h.today()
	}
	l, err := h.Tracker.LogHours(c.Request.Context(), model.WorkLog{
		ProjectID:   req.ProjectID,
		Date:        req.Date,
		Hours:       req.Hours,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "log": l})
}

func (h *handler) report(c *gin.Context) {
	f := report.Filter{
		Project: c.DefaultQuery("project", report.AllProjects),
		Start:   c.Query("start"),
		End:     c.DefaultQuery("end", h.today()),
	}
	ctx := c.Request.Context()
	projects, err := h.Tracker.ListProjects(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	logs, err := h.Tracker.ListLogs(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	r := report.Build(projects, logs, f)

	switch format := c.DefaultQuery("format", "json"); format {
	case "md", "csv":
		var buf bytes.Buffer
		if err := report.Render(&buf, r, format, projects); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		contentType := "text/plain; charset=utf-8"
		if format == "csv" {
			contentType = "text/csv; charset=utf-8"
		}
		c.Data(http.StatusOK, contentType, buf.Bytes())
	default:
		c.JSON(http.StatusOK, r)
	}
}

func (h *handler) workerStatus(c *gin.Context) {
	w := h.Registration.Active()
	if w == nil {
		c.JSON(http.StatusOK, gin.H{"state": "none"})
		return
	}
	st, err := w.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// shellAsset fetches an app shell resource from Origin through the offline
// worker, so it is served from cache when the origin is unreachable.
func (h *handler) shellAsset(c *gin.Context) {
	target := strings.TrimRight(h.Origin, "/") + c.Param("path")
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.Registration.RoundTrip(req)
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "shell asset unavailable", "url", target, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "offline and not cached: " + err.Error()})
		return
	}
	defer resp.Body.Close()

	for _, k := range []string{"Content-Type", "Cache-Control", "ETag", offline.CacheHeader} {
		if v := resp.Header.Get(k); v != "" {
			c.Header(k, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.Logger.WarnContext(c.Request.Context(), "copying shell asset", "url", target, "error", err)
	}
}
