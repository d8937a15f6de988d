package services

import (
	"context"

	"quix/internal/domain/models"
	"quix/internal/filetree"
)

// WorkspaceService answers read-side queries over committed state
type WorkspaceService interface {
	// Tree returns the owner's tree as flat path-annotated records
	Tree(ctx context.Context, owner string) ([]filetree.Record, error)

	// Children lists the direct children of a node (empty id = root level)
	Children(ctx context.Context, owner, id string) ([]models.FileNode, error)

	// Descendants lists every node below a node (empty id = whole workspace)
	Descendants(ctx context.Context, owner, id string) ([]models.FileNode, error)

	// Notebook returns a notebook with its notes ordered by rank
	Notebook(ctx context.Context, owner, id string) (*models.NotebookWithNotes, error)

	// Journal returns the actor's committed actions in order
	Journal(ctx context.Context, owner string) ([]models.JournalEntry, error)
}
