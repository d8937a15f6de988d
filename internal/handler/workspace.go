package handler

import (
	"log/slog"
	"net/http"

	"quix/internal/domain/services"
	"quix/internal/httputil"
)

// WorkspaceHandler serves the read side of a workspace
type WorkspaceHandler struct {
	workspace services.WorkspaceService
	logger    *slog.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspace services.WorkspaceService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspace: workspace,
		logger:    logger,
	}
}

// HealthCheck returns the health status
func (h *WorkspaceHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListFiles returns the flat path-annotated records of the caller's tree
func (h *WorkspaceHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.workspace.Tree(r.Context(), httputil.Actor(r.Context()))
	if err != nil {
		httputil.RespondProblem(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, records)
}

// GetChildren lists the direct children of a node
func (h *WorkspaceHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.workspace.Children(r.Context(), httputil.Actor(r.Context()), r.PathValue("id"))
	if err != nil {
		httputil.RespondProblem(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// GetDescendants lists every node below a node
func (h *WorkspaceHandler) GetDescendants(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.workspace.Descendants(r.Context(), httputil.Actor(r.Context()), r.PathValue("id"))
	if err != nil {
		httputil.RespondProblem(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// GetNotebook returns a notebook with its notes in rank order
func (h *WorkspaceHandler) GetNotebook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Notebook ID is required")
		return
	}

	notebook, err := h.workspace.Notebook(r.Context(), httputil.Actor(r.Context()), id)
	if err != nil {
		httputil.RespondProblem(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, notebook)
}

// GetJournal returns the caller's committed actions in commit order
func (h *WorkspaceHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := h.workspace.Journal(r.Context(), httputil.Actor(r.Context()))
	if err != nil {
		httputil.RespondProblem(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}

// Routes registers every workspace and event route on mux
func Routes(mux *http.ServeMux, events *EventsHandler, workspace *WorkspaceHandler) {
	mux.HandleFunc("GET /health", workspace.HealthCheck)

	mux.HandleFunc("POST /api/events", events.Emit)

	mux.HandleFunc("GET /api/files", workspace.ListFiles)
	mux.HandleFunc("GET /api/files/{id}/children", workspace.GetChildren)
	mux.HandleFunc("GET /api/files/{id}/descendants", workspace.GetDescendants)
	mux.HandleFunc("GET /api/notebooks/{id}", workspace.GetNotebook)
	mux.HandleFunc("GET /api/journal", workspace.GetJournal)
}
