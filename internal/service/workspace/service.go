// Package workspace answers read-side queries over committed workspace state
package workspace

import (
	"context"
	"fmt"
	"log/slog"

	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
	"quix/internal/domain/services"
	"quix/internal/filetree"
	"quix/internal/mpath"
)

type workspaceService struct {
	store      repositories.WorkspaceStore
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewService creates a new workspace service
func NewService(store repositories.WorkspaceStore, authorizer services.ResourceAuthorizer, logger *slog.Logger) services.WorkspaceService {
	return &workspaceService{
		store:      store,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Tree returns every node of the owner as a path-annotated record. Paths are
// rebuilt from mpath segments; a segment whose node is missing keeps its id
// as the name so the record still lands in the right place.
func (s *workspaceService) Tree(ctx context.Context, owner string) ([]filetree.Record, error) {
	nodes, err := s.store.ListByPathPrefix(ctx, owner, "")
	if err != nil {
		return nil, fmt.Errorf("list tree: %w", err)
	}

	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.ID] = n.Name
	}

	records := make([]filetree.Record, 0, len(nodes))
	for _, n := range nodes {
		segments := mpath.Segments(mpath.Parent(n.Mpath))
		path := make([]models.PathItem, 0, len(segments))
		for _, id := range segments {
			name, ok := names[id]
			if !ok {
				s.logger.Warn("tree node references a missing ancestor", "node_id", n.ID, "ancestor_id", id)
				name = id
			}
			path = append(path, models.PathItem{ID: id, Name: name})
		}

		records = append(records, filetree.Record{
			ID:   n.ID,
			Name: n.Name,
			Type: string(n.Type),
			Path: path,
			Data: map[string]interface{}{
				"dateCreated": n.DateCreated,
				"dateUpdated": n.DateUpdated,
			},
		})
	}
	return records, nil
}

func (s *workspaceService) Children(ctx context.Context, owner, id string) ([]models.FileNode, error) {
	if id == "" {
		return s.store.ListChildren(ctx, owner, nil)
	}
	if _, err := s.authorizer.AuthorizeNode(ctx, owner, id); err != nil {
		return nil, err
	}
	return s.store.ListChildren(ctx, owner, &id)
}

func (s *workspaceService) Descendants(ctx context.Context, owner, id string) ([]models.FileNode, error) {
	if id == "" {
		return s.store.ListByPathPrefix(ctx, owner, "")
	}
	node, err := s.authorizer.AuthorizeNode(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListByPathPrefix(ctx, owner, mpath.DescendantPrefix(node.Mpath))
}

func (s *workspaceService) Notebook(ctx context.Context, owner, id string) (*models.NotebookWithNotes, error) {
	nb, err := s.authorizer.AuthorizeNotebook(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return &models.NotebookWithNotes{Notebook: *nb, Notes: notes}, nil
}

func (s *workspaceService) Journal(ctx context.Context, owner string) ([]models.JournalEntry, error) {
	return s.store.ListJournal(ctx, owner)
}
