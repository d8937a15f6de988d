// Package memory is an in-process WorkspaceStore for tests, the CLI and
// STORE_DRIVER=memory. Every read returns copies; SaveBatch applies a change
// set under one write lock so readers never observe half a batch.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
)

// Store keeps every table in maps guarded by one RWMutex
type Store struct {
	mu        sync.RWMutex
	notebooks map[string]models.Notebook
	notes     map[string]models.Note
	nodes     map[string]models.FileNode
	journal   []models.JournalEntry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		notebooks: make(map[string]models.Notebook),
		notes:     make(map[string]models.Note),
		nodes:     make(map[string]models.FileNode),
	}
}

var _ repositories.WorkspaceStore = (*Store)(nil)

func (s *Store) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nb, ok := s.notebooks[id]
	if !ok {
		return nil, notFound("notebook", id)
	}
	return &nb, nil
}

func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, notFound("note", id)
	}
	return &n, nil
}

func (s *Store) ListNotes(ctx context.Context, notebookID string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Note{}
	for _, n := range s.notes {
		if n.NotebookID == notebookID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetNode(ctx context.Context, id string) (*models.FileNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, notFound("file", id)
	}
	return cloneNode(n), nil
}

func (s *Store) ListChildren(ctx context.Context, owner string, parentID *string) ([]models.FileNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.FileNode{}
	for _, n := range s.nodes {
		if n.Owner != owner {
			continue
		}
		if parentID == nil && n.ParentID == nil || parentID != nil && n.ParentID != nil && *n.ParentID == *parentID {
			out = append(out, *cloneNode(n))
		}
	}
	sortByPath(out)
	return out, nil
}

func (s *Store) ListByPathPrefix(ctx context.Context, owner, prefix string) ([]models.FileNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.FileNode{}
	for _, n := range s.nodes {
		if n.Owner == owner && strings.HasPrefix(n.Mpath, prefix) {
			out = append(out, *cloneNode(n))
		}
	}
	sortByPath(out)
	return out, nil
}

// SaveBatch applies deletions, then upserts, then appends the journal. An
// upsert over a record of another owner fails the whole batch untouched.
func (s *Store) SaveBatch(ctx context.Context, changes *models.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, nb := range changes.Notebooks {
		if cur, ok := s.notebooks[nb.ID]; ok && cur.Owner != nb.Owner {
			return &domain.DuplicateIDError{Kind: string(models.KindNotebook), ID: nb.ID}
		}
	}
	for _, n := range changes.Notes {
		if cur, ok := s.notes[n.ID]; ok && cur.Owner != n.Owner {
			return &domain.DuplicateIDError{Kind: string(models.KindNote), ID: n.ID}
		}
	}
	for _, n := range changes.Nodes {
		if cur, ok := s.nodes[n.ID]; ok && cur.Owner != n.Owner {
			return &domain.DuplicateIDError{Kind: string(models.KindFile), ID: n.ID}
		}
	}

	for _, id := range changes.DeletedNotes {
		delete(s.notes, id)
	}
	for _, id := range changes.DeletedNotebooks {
		delete(s.notebooks, id)
	}
	for _, id := range changes.DeletedNodes {
		delete(s.nodes, id)
	}

	for _, nb := range changes.Notebooks {
		s.notebooks[nb.ID] = nb
	}
	for _, n := range changes.Notes {
		s.notes[n.ID] = n
	}
	for _, n := range changes.Nodes {
		s.nodes[n.ID] = *cloneNode(n)
	}

	s.journal = append(s.journal, changes.Journal...)
	return nil
}

func (s *Store) ListJournal(ctx context.Context, actorID string) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.JournalEntry{}
	for _, e := range s.journal {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func notFound(kind, id string) error {
	return &domain.AggregateNotFoundError{Kind: kind, ID: id}
}

func cloneNode(n models.FileNode) *models.FileNode {
	if n.ParentID != nil {
		parentID := *n.ParentID
		n.ParentID = &parentID
	}
	return &n
}

func sortByPath(nodes []models.FileNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Mpath < nodes[j].Mpath })
}
