package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quix/internal/domain"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestRespondProblem(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
		wantExtras map[string]interface{}
	}{
		{
			name:       "missing aggregate inside a batch",
			err:        &domain.ActionError{Index: 2, ActionID: "n1", ActionType: "note.update.name", Err: &domain.AggregateNotFoundError{Kind: "note", ID: "n1"}},
			wantStatus: http.StatusNotFound,
			wantExtras: map[string]interface{}{
				"action_id": "n1", "action_type": "note.update.name", "action_index": float64(2),
				"aggregate_kind": "note", "aggregate_id": "n1",
			},
		},
		{
			name:       "duplicate id",
			err:        &domain.ActionError{ActionID: "N1", ActionType: "notebook.create", Err: &domain.DuplicateIDError{Kind: "notebook", ID: "N1"}},
			wantStatus: http.StatusConflict,
			wantExtras: map[string]interface{}{"aggregate_kind": "notebook", "aggregate_id": "N1", "action_index": float64(0)},
		},
		{
			name:       "orphan node",
			err:        &domain.ActionError{ActionID: "F2", ActionType: "file.create", Err: &domain.ParentNotFoundError{ID: "F2", ParentID: "F9"}},
			wantStatus: http.StatusNotFound,
			wantExtras: map[string]interface{}{"aggregate_id": "F2", "parent_id": "F9"},
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("notebook N1: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantDetail: "notebook N1: not found",
		},
		{
			name:       "store failure is opaque",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondProblem(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			problem := decodeProblem(t, rec)
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
			assert.Equal(t, http.StatusText(tt.wantStatus), problem["title"])
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, problem["detail"])
			}
			for k, v := range tt.wantExtras {
				assert.Equal(t, v, problem[k], k)
			}
			if tt.wantExtras == nil {
				assert.NotContains(t, problem, "action_id")
				assert.NotContains(t, problem, "aggregate_id")
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusUnauthorized, "missing bearer token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, "missing bearer token", problem["detail"])
	assert.Equal(t, "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1", problem["type"])
}

func TestParseJSON(t *testing.T) {
	type body struct {
		Actions []string `json:"actions"`
	}

	tests := []struct {
		name       string
		input      string
		wantErr    bool
		wantStatus int
	}{
		{name: "valid", input: `{"actions":["a"]}` + "\n"},
		{name: "malformed", input: `{"actions":`, wantErr: true, wantStatus: http.StatusBadRequest},
		{name: "unknown field", input: `{"actions":[],"extra":1}`, wantErr: true, wantStatus: http.StatusBadRequest},
		{name: "trailing document", input: `{"actions":[]}{"actions":[]}`, wantErr: true, wantStatus: http.StatusBadRequest},
		{name: "too large", input: `{"actions":["` + strings.Repeat("x", MaxBodyBytes) + `"]}`, wantErr: true, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(tt.input))
			var dest body
			err := ParseJSON(httptest.NewRecorder(), r, &dest)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, []string{"a"}, dest.Actions)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, StatusOf(err))
		})
	}
}

func TestActor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	assert.Equal(t, "", Actor(r.Context()))
	assert.Equal(t, "u1", Actor(WithActor(r, "u1").Context()))
}
