package eventsourcing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
	"quix/internal/mpath"
	"quix/internal/rank"
)

// session is the unit of work of one batch. It caches every aggregate the
// batch touches, so later actions observe the effects of earlier ones
// before anything is persisted. Loaded records are snapshotted; the change
// set is the diff between snapshots and current state.
type session struct {
	ctx   context.Context
	store repositories.WorkspaceStore
	actor string
	now   time.Time

	notebooks map[string]*models.Notebook
	notes     map[string]*models.Note
	nodes     map[string]*models.FileNode

	// live notes per notebook in rank order
	siblings map[string][]*models.Note

	notebookSnap map[string]models.Notebook
	noteSnap     map[string]models.Note
	nodeSnap     map[string]models.FileNode

	seen    []models.AggregateRef
	known   map[models.AggregateRef]bool
	deleted map[models.AggregateRef]bool
}

func newSession(ctx context.Context, store repositories.WorkspaceStore, actor string, now time.Time) *session {
	return &session{
		ctx:          ctx,
		store:        store,
		actor:        actor,
		now:          now,
		notebooks:    make(map[string]*models.Notebook),
		notes:        make(map[string]*models.Note),
		nodes:        make(map[string]*models.FileNode),
		siblings:     make(map[string][]*models.Note),
		notebookSnap: make(map[string]models.Notebook),
		noteSnap:     make(map[string]models.Note),
		nodeSnap:     make(map[string]models.FileNode),
		known:        make(map[models.AggregateRef]bool),
		deleted:      make(map[models.AggregateRef]bool),
	}
}

func (s *session) track(ref models.AggregateRef) {
	if !s.known[ref] {
		s.known[ref] = true
		s.seen = append(s.seen, ref)
	}
}

func (s *session) isDeleted(kind models.AggregateKind, id string) bool {
	return s.deleted[models.AggregateRef{Kind: kind, ID: id}]
}

func (s *session) markDeleted(kind models.AggregateKind, id string) {
	ref := models.AggregateRef{Kind: kind, ID: id}
	s.track(ref)
	s.deleted[ref] = true
}

func notFound(kind models.AggregateKind, id string) error {
	return &domain.AggregateNotFoundError{Kind: string(kind), ID: id}
}

// lookupErr converts a store miss into AggregateNotFound and wraps anything else
func lookupErr(kind models.AggregateKind, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(kind, id)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

// ensureAbsent fails with DuplicateId when id is active or was deleted
// earlier in this batch. Ids are global: another owner's record counts.
func (s *session) ensureAbsent(kind models.AggregateKind, id string) error {
	if s.isDeleted(kind, id) {
		return &domain.DuplicateIDError{Kind: string(kind), ID: id}
	}

	var err error
	switch kind {
	case models.KindNotebook:
		if _, ok := s.notebooks[id]; ok {
			return &domain.DuplicateIDError{Kind: string(kind), ID: id}
		}
		_, err = s.store.GetNotebook(s.ctx, id)
	case models.KindNote:
		if _, ok := s.notes[id]; ok {
			return &domain.DuplicateIDError{Kind: string(kind), ID: id}
		}
		_, err = s.store.GetNote(s.ctx, id)
	case models.KindFile:
		if _, ok := s.nodes[id]; ok {
			return &domain.DuplicateIDError{Kind: string(kind), ID: id}
		}
		_, err = s.store.GetNode(s.ctx, id)
	}

	switch {
	case err == nil:
		return &domain.DuplicateIDError{Kind: string(kind), ID: id}
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check %s %s: %w", kind, id, err)
	}
}

// notebook returns the active notebook id owned by the actor
func (s *session) notebook(id string) (*models.Notebook, error) {
	if s.isDeleted(models.KindNotebook, id) {
		return nil, notFound(models.KindNotebook, id)
	}
	if nb, ok := s.notebooks[id]; ok {
		return nb, nil
	}

	nb, err := s.store.GetNotebook(s.ctx, id)
	if err != nil {
		return nil, lookupErr(models.KindNotebook, id, err)
	}
	if nb.Owner != s.actor {
		return nil, notFound(models.KindNotebook, id)
	}

	s.notebooks[id] = nb
	s.notebookSnap[id] = *nb
	s.track(models.AggregateRef{Kind: models.KindNotebook, ID: id})
	return nb, nil
}

func (s *session) addNotebook(nb *models.Notebook) {
	s.notebooks[nb.ID] = nb
	s.siblings[nb.ID] = []*models.Note{}
	s.track(models.AggregateRef{Kind: models.KindNotebook, ID: nb.ID})
}

// noteSiblings returns the live notes of a notebook in rank order, loading
// them once per batch. Persisted ranks that are not dense are repaired here.
func (s *session) noteSiblings(notebookID string) ([]*models.Note, error) {
	if list, ok := s.siblings[notebookID]; ok {
		return list, nil
	}

	stored, err := s.store.ListNotes(s.ctx, notebookID)
	if err != nil {
		return nil, fmt.Errorf("load notes of notebook %s: %w", notebookID, err)
	}
	sort.SliceStable(stored, func(i, j int) bool { return stored[i].Rank < stored[j].Rank })

	list := make([]*models.Note, 0, len(stored))
	for i := range stored {
		n := &stored[i]
		if s.isDeleted(models.KindNote, n.ID) {
			continue
		}
		if cached, ok := s.notes[n.ID]; ok {
			n = cached
		} else {
			s.notes[n.ID] = n
			s.noteSnap[n.ID] = *n
			s.track(models.AggregateRef{Kind: models.KindNote, ID: n.ID})
		}
		list = append(list, n)
	}
	rank.Renumber(list)

	s.siblings[notebookID] = list
	return list, nil
}

// note returns the active note id owned by the actor
func (s *session) note(id string) (*models.Note, error) {
	if s.isDeleted(models.KindNote, id) {
		return nil, notFound(models.KindNote, id)
	}
	if n, ok := s.notes[id]; ok {
		return n, nil
	}

	stored, err := s.store.GetNote(s.ctx, id)
	if err != nil {
		return nil, lookupErr(models.KindNote, id, err)
	}
	if stored.Owner != s.actor {
		return nil, notFound(models.KindNote, id)
	}
	if _, err := s.noteSiblings(stored.NotebookID); err != nil {
		return nil, err
	}

	n, ok := s.notes[id]
	if !ok {
		return nil, notFound(models.KindNote, id)
	}
	return n, nil
}

func (s *session) addNote(n *models.Note) {
	s.notes[n.ID] = n
	s.track(models.AggregateRef{Kind: models.KindNote, ID: n.ID})
}

// deleteNotebook removes a notebook with all of its notes
func (s *session) deleteNotebook(nb *models.Notebook) error {
	list, err := s.noteSiblings(nb.ID)
	if err != nil {
		return err
	}
	for _, n := range list {
		s.markDeleted(models.KindNote, n.ID)
	}
	s.siblings[nb.ID] = []*models.Note{}
	s.markDeleted(models.KindNotebook, nb.ID)
	return nil
}

// node returns the active tree node id owned by the actor
func (s *session) node(id string) (*models.FileNode, error) {
	if s.isDeleted(models.KindFile, id) {
		return nil, notFound(models.KindFile, id)
	}
	if n, ok := s.nodes[id]; ok {
		return n, nil
	}

	n, err := s.store.GetNode(s.ctx, id)
	if err != nil {
		return nil, lookupErr(models.KindFile, id, err)
	}
	if n.Owner != s.actor {
		return nil, notFound(models.KindFile, id)
	}

	s.cacheNode(n)
	return n, nil
}

// optionalNode is node for callers that tolerate a missing node
func (s *session) optionalNode(id string) (*models.FileNode, error) {
	n, err := s.node(id)
	if errors.Is(err, domain.ErrAggregateNotFound) {
		return nil, nil
	}
	return n, err
}

func (s *session) cacheNode(n *models.FileNode) *models.FileNode {
	if cached, ok := s.nodes[n.ID]; ok {
		return cached
	}
	s.nodes[n.ID] = n
	s.nodeSnap[n.ID] = *n
	s.track(models.AggregateRef{Kind: models.KindFile, ID: n.ID})
	return n
}

func (s *session) addNode(n *models.FileNode) {
	s.nodes[n.ID] = n
	s.track(models.AggregateRef{Kind: models.KindFile, ID: n.ID})
}

// resolveParent returns the folder childID attaches to and the mpath it
// gets there; parentID nil means the root. The ParentNotFound rule is
// mpath.Compute's; a parent that is not a folder is invalid.
func (s *session) resolveParent(childID string, parentID *string) (*models.FileNode, string, error) {
	var parent *models.FileNode
	path, err := mpath.Compute(childID, parentID, func(id string) (*models.FileNode, error) {
		n, err := s.node(id)
		if err != nil {
			return nil, err
		}
		if !n.IsFolder() {
			return nil, domain.NewValidationError("parent %s of %s is a %s, not a folder", id, childID, n.Type)
		}
		parent = n
		return n, nil
	})
	if err != nil {
		return nil, "", err
	}
	return parent, path, nil
}

// subtree returns every live node strictly below node, using the current
// in-batch paths. Persisted descendants come from one prefix query; nodes
// created or moved earlier in the batch come from the cache.
func (s *session) subtree(node *models.FileNode) ([]*models.FileNode, error) {
	stored, err := s.store.ListByPathPrefix(s.ctx, s.actor, mpath.DescendantPrefix(node.Mpath))
	if err != nil {
		return nil, fmt.Errorf("load subtree of %s: %w", node.ID, err)
	}
	for i := range stored {
		if !s.isDeleted(models.KindFile, stored[i].ID) {
			s.cacheNode(&stored[i])
		}
	}

	var out []*models.FileNode
	for _, ref := range s.seen {
		if ref.Kind != models.KindFile || s.deleted[ref] {
			continue
		}
		n := s.nodes[ref.ID]
		if mpath.IsDescendant(n.Mpath, node.Mpath) {
			out = append(out, n)
		}
	}
	return out, nil
}

// changes builds the change set of the batch. Records created and deleted
// within the batch never reach the store.
func (s *session) changes(batchID string, actions []models.Action) *models.ChangeSet {
	cs := &models.ChangeSet{}

	for _, ref := range s.seen {
		switch ref.Kind {
		case models.KindNotebook:
			snap, persisted := s.notebookSnap[ref.ID]
			if s.deleted[ref] {
				if persisted {
					cs.DeletedNotebooks = append(cs.DeletedNotebooks, ref.ID)
				}
				continue
			}
			if cur := *s.notebooks[ref.ID]; !persisted || cur != snap {
				cs.Notebooks = append(cs.Notebooks, cur)
			}
		case models.KindNote:
			snap, persisted := s.noteSnap[ref.ID]
			if s.deleted[ref] {
				if persisted {
					cs.DeletedNotes = append(cs.DeletedNotes, ref.ID)
				}
				continue
			}
			if cur := *s.notes[ref.ID]; !persisted || cur != snap {
				cs.Notes = append(cs.Notes, cur)
			}
		case models.KindFile:
			snap, persisted := s.nodeSnap[ref.ID]
			if s.deleted[ref] {
				if persisted {
					cs.DeletedNodes = append(cs.DeletedNodes, ref.ID)
				}
				continue
			}
			if cur := *s.nodes[ref.ID]; !persisted || !sameNode(cur, snap) {
				cs.Nodes = append(cs.Nodes, cur)
			}
		}
	}

	cs.Journal = make([]models.JournalEntry, 0, len(actions))
	for i, a := range actions {
		cs.Journal = append(cs.Journal, models.JournalEntry{
			ID:        ulid.Make().String(),
			BatchID:   batchID,
			Seq:       i,
			ActorID:   s.actor,
			Type:      a.Type,
			TargetID:  a.ID,
			Payload:   normalizePayload(a.Payload),
			CreatedAt: s.now,
		})
	}

	return cs
}

func sameNode(a, b models.FileNode) bool {
	if (a.ParentID == nil) != (b.ParentID == nil) {
		return false
	}
	if a.ParentID != nil && *a.ParentID != *b.ParentID {
		return false
	}
	a.ParentID, b.ParentID = nil, nil
	return a == b
}

func normalizePayload(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
