package repositories

import (
	"context"

	"quix/internal/domain/models"
)

// WorkspaceStore is the durable keyed record store behind the event bus.
// Reads participate in the caller's transaction when one is present in ctx.
// Lookups of missing ids return an error matching domain.ErrNotFound.
type WorkspaceStore interface {
	// GetNotebook retrieves a notebook by ID
	GetNotebook(ctx context.Context, id string) (*models.Notebook, error)

	// GetNote retrieves a note by ID
	GetNote(ctx context.Context, id string) (*models.Note, error)

	// ListNotes returns the notes of a notebook ordered by rank
	ListNotes(ctx context.Context, notebookID string) ([]models.Note, error)

	// GetNode retrieves a file tree node by ID
	GetNode(ctx context.Context, id string) (*models.FileNode, error)

	// ListChildren returns the direct children of parentID (nil = root level) for an owner
	ListChildren(ctx context.Context, owner string, parentID *string) ([]models.FileNode, error)

	// ListByPathPrefix returns an owner's nodes whose mpath starts with prefix,
	// ordered by mpath. An empty prefix returns every node of the owner.
	ListByPathPrefix(ctx context.Context, owner, prefix string) ([]models.FileNode, error)

	// SaveBatch persists a change set atomically
	SaveBatch(ctx context.Context, changes *models.ChangeSet) error

	// ListJournal returns an actor's journal entries in commit order
	ListJournal(ctx context.Context, actorID string) ([]models.JournalEntry, error)
}
