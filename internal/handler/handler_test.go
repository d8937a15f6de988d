package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quix/internal/domain/models"
	"quix/internal/filetree"
	"quix/internal/httputil"
	"quix/internal/repository/memory"
	authsvc "quix/internal/service/auth"
	"quix/internal/service/eventsourcing"
	"quix/internal/service/workspace"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	bus := eventsourcing.NewEventBus(store, memory.NewTransactionManager(), eventsourcing.Config{
		Clock: func() time.Time { return now },
	}, logger)

	mux := http.NewServeMux()
	Routes(mux, NewEventsHandler(bus, logger), NewWorkspaceHandler(workspace.NewService(store, authsvc.NewOwnerBasedAuthorizer(store), logger), logger))

	// stand-in for the auth middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, httputil.WithActor(r, r.Header.Get("X-User-ID")))
	})
}

func do(t *testing.T, h http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func batch(t *testing.T, actions ...models.Action) EmitRequest {
	t.Helper()
	return EmitRequest{Actions: actions}
}

func act(t *testing.T, typ models.ActionType, id string, payload interface{}) models.Action {
	t.Helper()
	a, err := models.NewAction(typ, id, payload)
	require.NoError(t, err)
	return a
}

func TestEmitAndRead(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/events", "u1", batch(t,
		act(t, models.ActionFileCreate, "F1", map[string]interface{}{"name": "Reports", "type": "folder"}),
		act(t, models.ActionNotebookCreate, "N1", map[string]interface{}{
			"name": "Queries",
			"path": []models.PathItem{{ID: "F1", Name: "Reports"}},
		}),
		act(t, models.ActionNoteCreate, "a", map[string]string{"notebookId": "N1", "name": "a", "type": "sql"}),
		act(t, models.ActionNoteCreate, "b", map[string]string{"notebookId": "N1", "name": "b", "type": "sql"}),
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var applied models.BatchApplied
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &applied))
	assert.Equal(t, "u1", applied.ActorID)
	assert.Len(t, applied.Actions, 4)
	assert.NotEmpty(t, applied.BatchID)

	rec = do(t, h, http.MethodGet, "/api/files", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []filetree.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	root := filetree.BuildTree(records)
	require.Len(t, root.Folders(), 1)
	require.Len(t, root.Folders()[0].Files(), 1)
	assert.Equal(t, "Queries", root.Folders()[0].Files()[0].Name())

	rec = do(t, h, http.MethodGet, "/api/files/F1/children", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var children []models.FileNode
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &children))
	require.Len(t, children, 1)
	assert.Equal(t, "N1", children[0].ID)

	rec = do(t, h, http.MethodGet, "/api/files/F1/descendants", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/notebooks/N1", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var nb models.NotebookWithNotes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nb))
	require.Len(t, nb.Notes, 2)
	assert.Equal(t, "a", nb.Notes[0].ID)
	assert.Equal(t, 1, nb.Notes[1].Rank)

	rec = do(t, h, http.MethodGet, "/api/journal", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var journal []models.JournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &journal))
	assert.Len(t, journal, 4)
}

func TestEmitErrors(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/events", "u1", batch(t,
		act(t, models.ActionNotebookCreate, "N1", map[string]interface{}{"name": "n"}),
	))
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name      string
		user      string
		body      EmitRequest
		wantCode  int
		wantIndex float64
		wantType  string
		wantID    string
	}{
		{
			name:      "duplicate id",
			user:      "u1",
			body:      batch(t, act(t, models.ActionNotebookCreate, "N1", map[string]interface{}{"name": "again"})),
			wantCode:  http.StatusConflict,
			wantType:  string(models.ActionNotebookCreate),
			wantIndex: 0,
			wantID:    "N1",
		},
		{
			name: "unknown aggregate at index 1",
			user: "u1",
			body: batch(t,
				act(t, models.ActionNoteCreate, "a", map[string]string{"notebookId": "N1", "name": "a", "type": "sql"}),
				act(t, models.ActionNoteUpdateName, "missing", map[string]string{"name": "x"}),
			),
			wantCode:  http.StatusNotFound,
			wantType:  string(models.ActionNoteUpdateName),
			wantIndex: 1,
			wantID:    "missing",
		},
		{
			name:      "foreign notebook is invisible",
			user:      "u2",
			body:      batch(t, act(t, models.ActionNotebookUpdateName, "N1", map[string]string{"name": "mine"})),
			wantCode:  http.StatusNotFound,
			wantType:  string(models.ActionNotebookUpdateName),
			wantIndex: 0,
		},
		{
			name:      "rank out of range",
			user:      "u1",
			body:      batch(t, act(t, models.ActionNoteCreate, "c", map[string]string{"notebookId": "N1", "name": "c", "type": "sql"}), act(t, models.ActionNoteReorder, "c", map[string]int{"to": 7})),
			wantCode:  http.StatusUnprocessableEntity,
			wantType:  string(models.ActionNoteReorder),
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/events", tt.user, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["action_type"])
			assert.Equal(t, tt.wantIndex, problem["action_index"])
			assert.NotEmpty(t, problem["action_id"])
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, problem["aggregate_id"])
			}
		})
	}

	// the failed batches left nothing behind
	rec = do(t, h, http.MethodGet, "/api/notebooks/N1", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var nb models.NotebookWithNotes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nb))
	assert.Equal(t, "n", nb.Name)
	assert.Empty(t, nb.Notes)
}

func TestRequestErrors(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/events", "u1", EmitRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(`{"actions":[],"batchId":"b1"}`))
	req.Header.Set("X-User-ID", "u1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown request fields are rejected")

	rec = do(t, h, http.MethodGet, "/api/notebooks/nope", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/files/nope/children", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
