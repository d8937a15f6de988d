package services

import (
	"context"

	"quix/internal/domain/models"
)

// ResourceAuthorizer checks if a user can access resources.
// Current implementation: ownership-based (the user owns the aggregate).
//
// A denied check is reported as *domain.AggregateNotFoundError, so ids owned
// by someone else are indistinguishable from ids that do not exist.
type ResourceAuthorizer interface {
	// AuthorizeNotebook returns the notebook if userID may read it
	AuthorizeNotebook(ctx context.Context, userID, notebookID string) (*models.Notebook, error)

	// AuthorizeNode returns the tree node if userID may read it
	AuthorizeNode(ctx context.Context, userID, nodeID string) (*models.FileNode, error)
}
