package filetree

import (
	"quix/internal/domain/models"
)

// Record is the flat representation of one tree item. Path lists the
// ancestor folders from the root down to the item's parent; it never
// contains the item itself.
type Record struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Type string                 `json:"type"`
	Path []models.PathItem      `json:"path"`
	Lazy bool                   `json:"lazy,omitempty"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// BuildTree turns flat records into a tree under a synthetic root.
// Ancestor folders are created the first time a path references them and
// resolved through an id index afterwards. Folders declared with type
// folder are materialized even when nothing sits inside them. Every folder
// on the path of a file is flagged as having a file leaf.
func BuildTree(records []Record) *Folder {
	root := NewRoot()

	defs := make(map[string]*Record, len(records))
	for i := range records {
		defs[records[i].ID] = &records[i]
	}
	index := make(map[string]*Folder)

	for _, rec := range records {
		folder := root

		for _, p := range rec.Path {
			next, ok := index[p.ID]
			if !ok {
				name, data := p.Name, map[string]interface{}(nil)
				if def, found := defs[p.ID]; found {
					name, data = def.Name, def.Data
				}
				next = folder.AddFolder(p.ID, name, data)
				index[p.ID] = next
			}
			folder = next

			if rec.Type != TypeFolder {
				folder.ToggleHasFileLeaf(true)
			}
		}

		if rec.Type == TypeFolder {
			existing, ok := index[rec.ID]
			if !ok {
				existing = folder.AddFolder(rec.ID, rec.Name, rec.Data)
				index[rec.ID] = existing
			}
			existing.SetLazy(rec.Lazy)
			continue
		}

		folder.AddFile(rec.ID, rec.Name, rec.Type, rec.Data)
	}

	return root
}

// FlattenTree is the inverse of BuildTree. Empty folders are emitted as
// their own record; non-empty folders only appear in the paths of their
// descendants. At each level folders come before files, in child order.
func FlattenTree(root *Folder) []Record {
	var out []Record
	flatten(root, nil, &out)
	return out
}

func flatten(folder *Folder, path []models.PathItem, out *[]Record) {
	for _, sub := range folder.folders {
		if sub.IsEmpty() {
			*out = append(*out, Record{
				ID:   sub.id,
				Name: sub.name,
				Type: TypeFolder,
				Path: clonePath(path),
				Lazy: sub.lazy,
				Data: sub.data,
			})
			continue
		}
		flatten(sub, append(clonePath(path), models.PathItem{ID: sub.id, Name: sub.name}), out)
	}

	for _, file := range folder.files {
		*out = append(*out, Record{
			ID:   file.id,
			Name: file.name,
			Type: file.typ,
			Path: clonePath(path),
			Data: file.data,
		})
	}
}

// ItemToDef builds the record of a single item by walking parents up to,
// but excluding, the root.
func ItemToDef(it Item) Record {
	var path []models.PathItem
	for folder := it.Parent(); folder != nil && folder.Parent() != nil; folder = folder.Parent() {
		path = append(path, models.PathItem{ID: folder.ID(), Name: folder.Name()})
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path == nil {
		path = []models.PathItem{}
	}

	rec := Record{
		ID:   it.ID(),
		Name: it.Name(),
		Type: it.Type(),
		Path: path,
		Data: it.Data(),
	}
	if folder, ok := it.(*Folder); ok {
		rec.Lazy = folder.lazy
	}
	return rec
}

// GoToFile opens every folder on rec's path and returns the item rec
// describes, or nil when the path does not resolve.
func GoToFile(rec Record, root *Folder) Item {
	folder := root
	for _, p := range rec.Path {
		next := folder.FolderByID(p.ID)
		if next == nil {
			return nil
		}
		folder = next.ToggleOpen(true)
	}

	if file := folder.FileByID(rec.ID); file != nil {
		return file
	}
	if sub := folder.FolderByID(rec.ID); sub != nil {
		return sub
	}
	return nil
}

func clonePath(path []models.PathItem) []models.PathItem {
	out := make([]models.PathItem, len(path))
	copy(out, path)
	return out
}
