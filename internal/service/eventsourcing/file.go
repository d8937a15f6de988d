package eventsourcing

import (
	"errors"

	"quix/internal/config"
	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/mpath"
)

func createFile(s *session, a models.Action) error {
	var p fileCreatePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	if err := s.ensureAbsent(models.KindFile, a.ID); err != nil {
		return err
	}

	node := &models.FileNode{
		ID:          a.ID,
		Owner:       s.actor,
		Type:        p.Type,
		Name:        p.Name,
		DateCreated: s.now,
		DateUpdated: s.now,
	}
	if err := s.attachToPath(node, p.Path); err != nil {
		return err
	}
	s.addNode(node)
	return nil
}

func renameFile(s *session, a models.Action) error {
	var p namePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	node, err := s.node(a.ID)
	if err != nil {
		return err
	}
	node.Name = p.Name
	node.DateUpdated = s.now

	if node.Type != models.FileTypeNotebook {
		return nil
	}
	nb, err := s.optionalNotebook(node.ID)
	if err != nil {
		return err
	}
	if nb != nil {
		nb.Name = p.Name
		nb.DateUpdated = s.now
	}
	return nil
}

// moveFile reattaches a node and rebases the mpath of its whole subtree
func moveFile(s *session, a models.Action) error {
	var p fileMovePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	node, err := s.node(a.ID)
	if err != nil {
		return err
	}

	parent, newPath, err := s.resolveParent(node.ID, p.ParentID)
	if err != nil {
		return err
	}

	descendants, err := s.subtree(node)
	if err != nil {
		return err
	}

	// deepest descendant, counted in levels below node
	below := 0
	for _, d := range descendants {
		if h := mpath.Depth(d.Mpath) - mpath.Depth(node.Mpath); h > below {
			below = h
		}
	}
	if mpath.Depth(newPath)+below > config.MaxTreeDepth {
		return domain.NewValidationError("moving %s would exceed the maximum tree depth of %d", node.ID, config.MaxTreeDepth)
	}

	if _, err := mpath.MoveSubtree(node, parent, descendants); err != nil {
		return err
	}
	node.DateUpdated = s.now
	return nil
}

// deleteFile removes a node and every descendant found by mpath prefix.
// Notebook nodes take their notebook and its notes with them.
func deleteFile(s *session, a models.Action) error {
	node, err := s.node(a.ID)
	if err != nil {
		return err
	}
	descendants, err := s.subtree(node)
	if err != nil {
		return err
	}

	for _, n := range append(descendants, node) {
		if n.Type == models.FileTypeNotebook {
			nb, err := s.optionalNotebook(n.ID)
			if err != nil {
				return err
			}
			if nb != nil {
				if err := s.deleteNotebook(nb); err != nil {
					return err
				}
			}
		}
		s.markDeleted(models.KindFile, n.ID)
	}
	return nil
}

func (s *session) optionalNotebook(id string) (*models.Notebook, error) {
	nb, err := s.notebook(id)
	if errors.Is(err, domain.ErrAggregateNotFound) {
		return nil, nil
	}
	return nb, err
}
