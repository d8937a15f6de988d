package eventsourcing

import (
	"quix/internal/domain/models"
	"quix/internal/rank"
)

// createNote appends a note to its notebook. The rank is the live sibling
// count at the time the action is folded, which includes notes created
// earlier in the same batch.
func createNote(s *session, a models.Action) error {
	var p noteCreatePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	if err := s.ensureAbsent(models.KindNote, a.ID); err != nil {
		return err
	}
	if _, err := s.notebook(p.NotebookID); err != nil {
		return err
	}
	siblings, err := s.noteSiblings(p.NotebookID)
	if err != nil {
		return err
	}

	n := &models.Note{
		ID:          a.ID,
		NotebookID:  p.NotebookID,
		Name:        p.Name,
		Type:        p.Type,
		Content:     p.Content,
		Owner:       s.actor,
		DateCreated: s.now,
		DateUpdated: s.now,
	}
	s.siblings[p.NotebookID] = rank.Insert(siblings, n)
	s.addNote(n)
	return nil
}

func renameNote(s *session, a models.Action) error {
	var p namePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	n, err := s.note(a.ID)
	if err != nil {
		return err
	}
	n.Name = p.Name
	n.DateUpdated = s.now
	return nil
}

func updateNoteContent(s *session, a models.Action) error {
	var p contentPayload
	if err := decode(a, &p); err != nil {
		return err
	}
	n, err := s.note(a.ID)
	if err != nil {
		return err
	}
	n.Content = *p.Content
	n.DateUpdated = s.now
	return nil
}

func deleteNote(s *session, a models.Action) error {
	n, err := s.note(a.ID)
	if err != nil {
		return err
	}
	if err := s.detachNote(n); err != nil {
		return err
	}
	s.markDeleted(models.KindNote, n.ID)
	return nil
}

func reorderNote(s *session, a models.Action) error {
	var p reorderPayload
	if err := decode(a, &p); err != nil {
		return err
	}
	n, err := s.note(a.ID)
	if err != nil {
		return err
	}
	siblings, err := s.noteSiblings(n.NotebookID)
	if err != nil {
		return err
	}

	reordered, err := rank.Reorder(siblings, n.Rank, *p.To)
	if err != nil {
		return err
	}
	s.siblings[n.NotebookID] = reordered
	n.DateUpdated = s.now
	return nil
}

// moveNote removes the note from its notebook's order and appends it to the
// destination notebook. Moving into the same notebook sends it to the end.
func moveNote(s *session, a models.Action) error {
	var p noteMovePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	n, err := s.note(a.ID)
	if err != nil {
		return err
	}
	if _, err := s.notebook(p.NotebookID); err != nil {
		return err
	}
	if err := s.detachNote(n); err != nil {
		return err
	}

	dest, err := s.noteSiblings(p.NotebookID)
	if err != nil {
		return err
	}
	n.NotebookID = p.NotebookID
	n.DateUpdated = s.now
	s.siblings[p.NotebookID] = rank.Insert(dest, n)
	return nil
}

// detachNote removes n from its notebook's sibling order, closing the gap
func (s *session) detachNote(n *models.Note) error {
	siblings, err := s.noteSiblings(n.NotebookID)
	if err != nil {
		return err
	}
	remaining, _, err := rank.Delete(siblings, n.Rank)
	if err != nil {
		return err
	}
	s.siblings[n.NotebookID] = remaining
	return nil
}
