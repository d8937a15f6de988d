// Package filetree is the navigable in-memory folder/file tree used at the
// presentation boundary. It converts between flat path-annotated records and
// a tree of Folders and Files. Ids are assumed unique across folders and
// files; the model does not enforce it.
package filetree

import (
	"github.com/google/uuid"
)

// TypeFolder is the record type of folders. Any other type is a file subtype.
const TypeFolder = "folder"

// Item is a Folder or a File
type Item interface {
	ID() string
	Name() string
	Type() string
	Parent() *Folder
	Data() map[string]interface{}
	SetName(name string)

	setParent(parent *Folder)
}

type item struct {
	id     string
	name   string
	typ    string
	parent *Folder
	data   map[string]interface{}
}

func (i *item) ID() string                   { return i.id }
func (i *item) Name() string                 { return i.name }
func (i *item) Type() string                 { return i.typ }
func (i *item) Parent() *Folder              { return i.parent }
func (i *item) Data() map[string]interface{} { return i.data }
func (i *item) SetName(name string)          { i.name = name }
func (i *item) setParent(parent *Folder)     { i.parent = parent }

// File is a leaf of the tree
type File struct {
	item
}

// MoveTo detaches the file from its folder and appends it to target
func (f *File) MoveTo(target *Folder) *File {
	if f.parent != nil {
		f.parent.removeFile(f)
	}
	target.attachFile(f)
	return f
}

// Destroy detaches the file from its folder
func (f *File) Destroy() {
	if f.parent != nil {
		f.parent.removeFile(f)
		f.parent = nil
	}
}

// Folder owns ordered child folders and files. The root folder has no id
// and no parent.
type Folder struct {
	item
	folders []*Folder
	files   []*File

	open        bool
	edit        bool
	lazy        bool
	hasFileLeaf bool
}

// NewRoot creates the synthetic root folder
func NewRoot() *Folder {
	return &Folder{item: item{typ: TypeFolder}}
}

// IsRoot reports whether f is a synthetic root
func (f *Folder) IsRoot() bool { return f.parent == nil && f.id == "" }

// Folders returns the child folders in insertion order
func (f *Folder) Folders() []*Folder { return f.folders }

// Files returns the child files in insertion order
func (f *Folder) Files() []*File { return f.files }

// IsEmpty reports whether the folder has no children
func (f *Folder) IsEmpty() bool { return len(f.folders) == 0 && len(f.files) == 0 }

// IsOpen reports whether the folder is expanded in a tree view
func (f *Folder) IsOpen() bool { return f.open }

// IsEditing reports whether the folder's name is being edited
func (f *Folder) IsEditing() bool { return f.edit }

// IsLazy reports whether the children are loaded on demand. BuildTree takes
// the flag from the folder's own record.
func (f *Folder) IsLazy() bool { return f.lazy }

// HasFileLeaf reports whether some file lies below the folder, at any depth
func (f *Folder) HasFileLeaf() bool { return f.hasFileLeaf }

// ToggleOpen sets the expanded flag and returns f for chaining
func (f *Folder) ToggleOpen(open bool) *Folder {
	f.open = open
	return f
}

// ToggleEdit sets the editing flag and returns f for chaining
func (f *Folder) ToggleEdit(edit bool) *Folder {
	f.edit = edit
	return f
}

// SetLazy sets the lazy-loading flag and returns f for chaining
func (f *Folder) SetLazy(lazy bool) *Folder {
	f.lazy = lazy
	return f
}

// ToggleHasFileLeaf sets the file-leaf flag and returns f for chaining
func (f *Folder) ToggleHasFileLeaf(has bool) *Folder {
	f.hasFileLeaf = has
	return f
}

// AddFolder appends a child folder
func (f *Folder) AddFolder(id, name string, data map[string]interface{}) *Folder {
	child := &Folder{item: item{id: id, name: name, typ: TypeFolder, data: data}}
	f.attachFolder(child)
	return child
}

// AddFile appends a child file
func (f *Folder) AddFile(id, name, fileType string, data map[string]interface{}) *File {
	child := &File{item: item{id: id, name: name, typ: fileType, data: data}}
	f.attachFile(child)
	return child
}

// CreateFolder appends a child folder with a generated id
func (f *Folder) CreateFolder(name string) *Folder {
	return f.AddFolder(uuid.NewString(), name, nil)
}

// CreateFile appends a child file with a generated id
func (f *Folder) CreateFile(name, fileType string) *File {
	return f.AddFile(uuid.NewString(), name, fileType, nil)
}

// FolderByID returns the direct child folder with id, or nil
func (f *Folder) FolderByID(id string) *Folder {
	for _, child := range f.folders {
		if child.id == id {
			return child
		}
	}
	return nil
}

// FileByID returns the direct child file with id, or nil
func (f *Folder) FileByID(id string) *File {
	for _, child := range f.files {
		if child.id == id {
			return child
		}
	}
	return nil
}

// MoveTo detaches the folder and its subtree and appends it to target.
// Moving a folder into itself or its own subtree is a no-op.
func (f *Folder) MoveTo(target *Folder) *Folder {
	for p := target; p != nil; p = p.parent {
		if p == f {
			return f
		}
	}
	if f.parent != nil {
		f.parent.removeFolder(f)
	}
	target.attachFolder(f)
	return f
}

// Destroy detaches the folder and its subtree from its parent
func (f *Folder) Destroy() {
	if f.parent != nil {
		f.parent.removeFolder(f)
		f.parent = nil
	}
}

func (f *Folder) attachFolder(child *Folder) {
	child.setParent(f)
	f.folders = append(f.folders, child)
}

func (f *Folder) attachFile(child *File) {
	child.setParent(f)
	f.files = append(f.files, child)
}

func (f *Folder) removeFolder(child *Folder) {
	for i, c := range f.folders {
		if c == child {
			f.folders = append(f.folders[:i:i], f.folders[i+1:]...)
			return
		}
	}
}

func (f *Folder) removeFile(child *File) {
	for i, c := range f.files {
		if c == child {
			f.files = append(f.files[:i:i], f.files[i+1:]...)
			return
		}
	}
}
