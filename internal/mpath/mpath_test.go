package mpath

import (
	"errors"
	"testing"

	"quix/internal/domain"
	"quix/internal/domain/models"
)

func folder(id string, parent *models.FileNode) *models.FileNode {
	n := &models.FileNode{ID: id, Type: models.FileTypeFolder, Name: id}
	Attach(n, parent)
	return n
}

func TestJoinAndSegments(t *testing.T) {
	tests := []struct {
		parent, id, want string
		depth            int
	}{
		{parent: "", id: "a", want: "a", depth: 1},
		{parent: "a", id: "b", want: "a.b", depth: 2},
		{parent: "a.b", id: "c", want: "a.b.c", depth: 3},
	}

	for _, tt := range tests {
		got := Join(tt.parent, tt.id)
		if got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.parent, tt.id, got, tt.want)
		}
		if Depth(got) != tt.depth {
			t.Errorf("Depth(%q) = %d, want %d", got, Depth(got), tt.depth)
		}
		if Parent(got) != tt.parent {
			t.Errorf("Parent(%q) = %q, want %q", got, Parent(got), tt.parent)
		}
		if len(Segments(got)) != tt.depth {
			t.Errorf("Segments(%q) has %d entries, want %d", got, len(Segments(got)), tt.depth)
		}
	}
}

func TestIsDescendant(t *testing.T) {
	tests := []struct {
		name     string
		path, of string
		des      bool
	}{
		{name: "root child", path: "a", of: "", des: true},
		{name: "root grandchild", path: "a.b", of: "", des: true},
		{name: "direct child", path: "a.b", of: "a", des: true},
		{name: "grandchild", path: "a.b.c", of: "a", des: true},
		{name: "self", path: "a", of: "a", des: false},
		{name: "id prefix is not ancestry", path: "ab.c", of: "a", des: false},
		{name: "sibling", path: "b", of: "a", des: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDescendant(tt.path, tt.of); got != tt.des {
				t.Errorf("IsDescendant = %v, want %v", got, tt.des)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	parent := folder("p", nil)
	lookup := func(id string) (*models.FileNode, error) {
		if id == parent.ID {
			return parent, nil
		}
		return nil, domain.ErrNotFound
	}

	path, err := Compute("x", nil, lookup)
	if err != nil || path != "x" {
		t.Errorf("root compute: got %q, %v", path, err)
	}

	pid := "p"
	path, err = Compute("x", &pid, lookup)
	if err != nil || path != "p.x" {
		t.Errorf("child compute: got %q, %v", path, err)
	}

	missing := "missing"
	_, err = Compute("x", &missing, lookup)
	if !errors.Is(err, domain.ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound, got %v", err)
	}

	// a failing store is not a missing parent
	broken := errors.New("connection reset")
	_, err = Compute("x", &pid, func(string) (*models.FileNode, error) { return nil, broken })
	if !errors.Is(err, broken) || errors.Is(err, domain.ErrParentNotFound) {
		t.Errorf("expected the lookup error unchanged, got %v", err)
	}
}

func TestMoveSubtree(t *testing.T) {
	// a
	// ├── b
	// │   └── c
	// │       └── d
	// e
	a := folder("a", nil)
	b := folder("b", a)
	c := folder("c", b)
	d := folder("d", c)
	e := folder("e", nil)
	all := []*models.FileNode{a, b, c, d, e}

	changed, err := MoveSubtree(b, e, all)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changed) != 2 {
		t.Errorf("expected 2 rebased descendants, got %d", len(changed))
	}

	parents := map[*models.FileNode]*models.FileNode{a: nil, e: nil, b: e, c: b, d: c}
	for node, parent := range parents {
		if !consistent(node, parent) {
			t.Errorf("node %s inconsistent: mpath=%q", node.ID, node.Mpath)
		}
	}
	if d.Mpath != "e.b.c.d" {
		t.Errorf("expected e.b.c.d, got %s", d.Mpath)
	}
}

func TestMoveSubtree_ToRoot(t *testing.T) {
	a := folder("a", nil)
	b := folder("b", a)
	c := folder("c", b)

	if _, err := MoveSubtree(b, nil, []*models.FileNode{a, b, c}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ParentID != nil || b.Mpath != "b" {
		t.Errorf("expected b at root, got parent=%v mpath=%s", b.ParentID, b.Mpath)
	}
	if c.Mpath != "b.c" {
		t.Errorf("expected b.c, got %s", c.Mpath)
	}
}

func TestMoveSubtree_Rejected(t *testing.T) {
	a := folder("a", nil)
	b := folder("b", a)
	file := &models.FileNode{ID: "nb", Type: models.FileTypeNotebook}
	Attach(file, nil)

	tests := []struct {
		name   string
		node   *models.FileNode
		target *models.FileNode
	}{
		{name: "into itself", node: a, target: a},
		{name: "into descendant", node: a, target: b},
		{name: "under a file", node: b, target: file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.node.Mpath
			_, err := MoveSubtree(tt.node, tt.target, []*models.FileNode{a, b, file})
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if tt.node.Mpath != before {
				t.Errorf("rejected move changed mpath to %s", tt.node.Mpath)
			}
		})
	}
}

func TestValidID(t *testing.T) {
	if ValidID("") || ValidID("a.b") {
		t.Error("empty and dotted ids must be rejected")
	}
	if !ValidID("0b9f5c1e-6d5c-4f5e-9b59-2f0c4e2b7a11") {
		t.Error("uuid must be accepted")
	}
}

// consistent reports whether node's mpath equals its parent's mpath plus its
// own id. parent is nil for root nodes.
func consistent(node, parent *models.FileNode) bool {
	if parent == nil {
		return node.ParentID == nil && node.Mpath == node.ID
	}
	return node.ParentID != nil && *node.ParentID == parent.ID && node.Mpath == Join(parent.Mpath, node.ID)
}
