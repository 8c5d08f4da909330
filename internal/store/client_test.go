package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/architrack/internal/logger"
	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/offline"
	"github.com/Tiliavir/architrack/internal/storage"
	"github.com/Tiliavir/architrack/internal/store"
)

const apiKey = "anon-key"

func newServer(t *testing.T, h http.HandlerFunc) *store.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+apiKey, r.Header.Get("Authorization"))
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return store.NewClient(context.Background(), srv.URL+"/", apiKey, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListProjects(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		io.WriteString(w, `[
			{"id":"p2","code":"HOS","name":"Hospital","color":"#3b82f6","created_at":"2024-02-01T10:00:00.123+00:00"},
			{"id":"p1","code":"LIB","name":"Library","color":"#f97316","created_at":"2024-01-01T10:00:00+00:00"}
		]`)
	})

	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)
	assert.Equal(t, "[LIB] Library", projects[1].Label())
	assert.Equal(t, 2024, projects[0].CreatedAt.Year())
}

func TestListWorkLogs(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/work_logs", r.URL.Path)
		assert.Equal(t, "date.desc", r.URL.Query().Get("order"))
		io.WriteString(w, `[{"id":"l1","project_id":"p1","date":"2024-01-15","hours":3,"description":"plans"}]`)
	})

	logs, err := c.ListWorkLogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.WorkLog{{ID: "l1", ProjectID: "p1", Date: "2024-01-15", Hours: 3, Description: "plans"}}, logs)
}

func TestInsertProject(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, []map[string]string{{"name": "Library", "code": "LIB", "color": "#ec4899"}}, in)

		writeJSON(w, http.StatusCreated, []map[string]string{{
			"id": "p9", "name": "Library", "code": "LIB", "color": "#ec4899",
		}})
	})

	p, err := c.InsertProject(context.Background(), model.Project{Name: "Library", Code: "LIB", Color: "#ec4899"})
	require.NoError(t, err)
	assert.Equal(t, "p9", p.ID)
}

func TestInsertWorkLog(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var in []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Len(t, in, 1)
		assert.Equal(t, "p1", in[0]["project_id"])
		assert.Equal(t, float64(4), in[0]["hours"])
		assert.NotContains(t, in[0], "id")
		writeJSON(w, http.StatusCreated, []map[string]any{{
			"id": "l7", "project_id": "p1", "date": "2024-01-15", "hours": 4,
		}})
	})

	l, err := c.InsertWorkLog(context.Background(), model.WorkLog{ProjectID: "p1", Date: "2024-01-15", Hours: 4})
	require.NoError(t, err)
	assert.Equal(t, "l7", l.ID)
}

func TestUpdateProject(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, map[string]any{"name": "Hospital", "code": "HOS"}, in)

		if r.URL.Query().Get("id") == "eq.missing" {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, []map[string]string{{"id": "p1", "name": "Hospital", "code": "HOS"}})
	})

	p, err := c.UpdateProject(context.Background(), "p1", "Hospital", "HOS")
	require.NoError(t, err)
	assert.Equal(t, "HOS", p.Code)

	_, err = c.UpdateProject(context.Background(), "missing", "Hospital", "HOS")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteErrors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/rest/v1/projects":
			writeJSON(w, http.StatusConflict, map[string]string{
				"code":    "23503",
				"message": `update or delete on table "projects" violates foreign key constraint`,
				"details": `Key (id)=(p1) is still referenced from table "work_logs".`,
			})
		case "/rest/v1/work_logs":
			assert.Equal(t, "eq.p1", r.URL.Query().Get("project_id"))
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "upstream exploded\n")
		}
	})

	err := c.DeleteProject(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, store.IsForeignKeyViolation(err))
	var se *store.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Contains(t, se.Details, "work_logs")

	err = c.DeleteWorkLogsByProject(context.Background(), "p1")
	require.True(t, errors.As(err, &se))
	assert.False(t, store.IsForeignKeyViolation(err))
	assert.Equal(t, "upstream exploded", se.Message)
	assert.Equal(t, "upstream exploded", err.Error())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  store.Error
		want string
	}{
		{store.Error{Code: "42501", Message: "permission denied"}, "permission denied (code 42501)"},
		{store.Error{Message: "bad gateway"}, "bad gateway"},
		{store.Error{Status: 503}, "store request failed with status 503"},
		{store.Error{}, "store request failed"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

// Store traffic goes through the offline worker but never lands in its cache.
func TestClientThroughWorker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	caches, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	w := offline.NewWorker(offline.Options{
		Version: "architrack-v3",
		Rules:   offline.Rules{DatabaseURL: srv.URL},
		Caches:  caches,
		Logger:  logger.Discard(),
	})
	c := store.NewClient(context.Background(), srv.URL, apiKey, w)

	_, err = c.ListProjects(context.Background())
	require.NoError(t, err)
	w.Wait()

	names, err := caches.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
