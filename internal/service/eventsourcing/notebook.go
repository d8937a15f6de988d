package eventsourcing

import (
	"quix/internal/config"
	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/mpath"
)

// createNotebook creates the notebook and the notebook node that places it
// in the tree. The last path entry is the parent folder; an empty path
// attaches the node at the root.
func createNotebook(s *session, a models.Action) error {
	var p notebookCreatePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	if err := s.ensureAbsent(models.KindNotebook, a.ID); err != nil {
		return err
	}
	if err := s.ensureAbsent(models.KindFile, a.ID); err != nil {
		return err
	}

	node := &models.FileNode{
		ID:          a.ID,
		Owner:       s.actor,
		Type:        models.FileTypeNotebook,
		Name:        p.Name,
		DateCreated: s.now,
		DateUpdated: s.now,
	}
	if err := s.attachToPath(node, p.Path); err != nil {
		return err
	}

	s.addNotebook(&models.Notebook{
		ID:          a.ID,
		Name:        p.Name,
		Owner:       s.actor,
		IsLiked:     p.IsLiked,
		DateCreated: s.now,
		DateUpdated: s.now,
	})
	s.addNode(node)
	return nil
}

func renameNotebook(s *session, a models.Action) error {
	var p namePayload
	if err := decode(a, &p); err != nil {
		return err
	}
	nb, err := s.notebook(a.ID)
	if err != nil {
		return err
	}
	nb.Name = p.Name
	nb.DateUpdated = s.now

	node, err := s.optionalNode(a.ID)
	if err != nil {
		return err
	}
	if node != nil {
		node.Name = p.Name
		node.DateUpdated = s.now
	}
	return nil
}

func toggleNotebookLiked(s *session, a models.Action) error {
	var p likedPayload
	if err := decode(a, &p); err != nil {
		return err
	}
	nb, err := s.notebook(a.ID)
	if err != nil {
		return err
	}
	nb.IsLiked = *p.IsLiked
	nb.DateUpdated = s.now
	return nil
}

func deleteNotebook(s *session, a models.Action) error {
	nb, err := s.notebook(a.ID)
	if err != nil {
		return err
	}
	if err := s.deleteNotebook(nb); err != nil {
		return err
	}

	node, err := s.optionalNode(a.ID)
	if err != nil {
		return err
	}
	if node != nil {
		s.markDeleted(models.KindFile, node.ID)
	}
	return nil
}

// attachToPath attaches node under the last folder of path
func (s *session) attachToPath(node *models.FileNode, path []models.PathItem) error {
	var parentID *string
	if len(path) > 0 {
		parentID = &path[len(path)-1].ID
	}

	parent, nodePath, err := s.resolveParent(node.ID, parentID)
	if err != nil {
		return err
	}
	if mpath.Depth(nodePath) > config.MaxTreeDepth {
		return domain.NewValidationError("%s would exceed the maximum tree depth of %d", node.ID, config.MaxTreeDepth)
	}
	mpath.Attach(node, parent)
	return nil
}
