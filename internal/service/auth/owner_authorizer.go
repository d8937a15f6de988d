package auth

import (
	"context"
	"errors"
	"fmt"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access an aggregate if they own it.
type OwnerBasedAuthorizer struct {
	store repositories.WorkspaceStore
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(store repositories.WorkspaceStore) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{store: store}
}

// AuthorizeNotebook checks if user owns the notebook
func (a *OwnerBasedAuthorizer) AuthorizeNotebook(ctx context.Context, userID, notebookID string) (*models.Notebook, error) {
	nb, err := a.store.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, notFound(models.KindNotebook, notebookID, err)
	}
	if nb.Owner != userID {
		return nil, &domain.AggregateNotFoundError{Kind: string(models.KindNotebook), ID: notebookID}
	}
	return nb, nil
}

// AuthorizeNode checks if user owns the tree node
func (a *OwnerBasedAuthorizer) AuthorizeNode(ctx context.Context, userID, nodeID string) (*models.FileNode, error) {
	node, err := a.store.GetNode(ctx, nodeID)
	if err != nil {
		return nil, notFound(models.KindFile, nodeID, err)
	}
	if node.Owner != userID {
		return nil, &domain.AggregateNotFoundError{Kind: string(models.KindFile), ID: nodeID}
	}
	return node, nil
}

func notFound(kind models.AggregateKind, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.AggregateNotFoundError{Kind: string(kind), ID: id}
	}
	return fmt.Errorf("check %s access: %w", kind, err)
}
