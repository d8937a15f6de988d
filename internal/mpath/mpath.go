// Package mpath maintains materialized paths: every tree node stores the
// dot-joined ids of its ancestors followed by its own id, so children and
// descendants are answerable with a prefix comparison instead of a
// recursive walk.
package mpath

import (
	"errors"
	"strings"

	"quix/internal/domain"
	"quix/internal/domain/models"
)

// Separator joins path segments. Node ids must not contain it.
const Separator = "."

// Join appends id to parentPath. An empty parentPath is the root.
func Join(parentPath, id string) string {
	if parentPath == "" {
		return id
	}
	return parentPath + Separator + id
}

// Segments splits a path into its ids, root first
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Depth is the number of segments in path
func Depth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, Separator) + 1
}

// Parent strips the last segment. The parent of a root node is "".
func Parent(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// DescendantPrefix is the prefix every strict descendant of path starts with
func DescendantPrefix(path string) string {
	if path == "" {
		return ""
	}
	return path + Separator
}

// IsDescendant reports whether path lies strictly below ancestor.
// Every non-empty path is a descendant of the root ("").
func IsDescendant(path, ancestor string) bool {
	if ancestor == "" {
		return path != ""
	}
	return strings.HasPrefix(path, ancestor+Separator)
}

// Rebase rewrites path from under oldPrefix to under newPrefix. It reports
// false when path is neither oldPrefix nor below it.
func Rebase(path, oldPrefix, newPrefix string) (string, bool) {
	if path == oldPrefix {
		return newPrefix, true
	}
	if !IsDescendant(path, oldPrefix) {
		return path, false
	}
	return newPrefix + path[len(oldPrefix):], true
}

// ValidID reports whether id can be used as a path segment
func ValidID(id string) bool {
	return id != "" && !strings.Contains(id, Separator)
}

// Compute resolves the mpath of a node about to attach under parentID
// (nil = root). lookup returns the parent's node. A parent lookup cannot
// find fails with ParentNotFound instead of silently rooting the node; any
// other lookup error is returned unchanged.
func Compute(id string, parentID *string, lookup func(id string) (*models.FileNode, error)) (string, error) {
	if parentID == nil {
		return id, nil
	}

	parent, err := lookup(*parentID)
	if errors.Is(err, domain.ErrNotFound) || err == nil && parent == nil {
		return "", &domain.ParentNotFoundError{ID: id, ParentID: *parentID}
	}
	if err != nil {
		return "", err
	}
	return Join(parent.Mpath, id), nil
}

// Attach places node under parent (nil = root) and sets its mpath
func Attach(node *models.FileNode, parent *models.FileNode) {
	if parent == nil {
		node.ParentID = nil
		node.Mpath = node.ID
		return
	}
	parentID := parent.ID
	node.ParentID = &parentID
	node.Mpath = Join(parent.Mpath, node.ID)
}

// MoveSubtree reattaches node under newParent (nil = root) and rewrites the
// mpath of every node in descendants that lies below node. descendants may
// contain unrelated nodes; they are left untouched. Moving a node under
// itself or one of its descendants fails with a validation error.
// The returned slice holds the descendants whose path changed.
func MoveSubtree(node *models.FileNode, newParent *models.FileNode, descendants []*models.FileNode) ([]*models.FileNode, error) {
	oldPath := node.Mpath

	if newParent != nil {
		if newParent.ID == node.ID || IsDescendant(newParent.Mpath, oldPath) {
			return nil, domain.NewValidationError("cannot move %s into its own subtree", node.ID)
		}
		if !newParent.IsFolder() {
			return nil, domain.NewValidationError("cannot move %s under %s %s", node.ID, newParent.Type, newParent.ID)
		}
	}

	Attach(node, newParent)
	newPath := node.Mpath
	if newPath == oldPath {
		return nil, nil
	}

	var changed []*models.FileNode
	for _, d := range descendants {
		if d.ID == node.ID {
			continue
		}
		rebased, ok := Rebase(d.Mpath, oldPath, newPath)
		if !ok {
			continue
		}
		d.Mpath = rebased
		changed = append(changed, d)
	}
	return changed, nil
}
