package models

import (
	"time"
)

// FileType distinguishes folders from the file subtypes that can sit in the tree
type FileType string

const (
	FileTypeFolder   FileType = "folder"
	FileTypeNotebook FileType = "notebook"
)

// FileNode is a folder or file in an owner's tree. Mpath is the dot-joined
// chain of ancestor ids ending with the node's own id.
type FileNode struct {
	ID          string    `json:"id" db:"id"`
	Owner       string    `json:"owner" db:"owner"`
	ParentID    *string   `json:"parentId" db:"parent_id"` // NULL = root level
	Type        FileType  `json:"type" db:"type"`
	Name        string    `json:"name" db:"name"`
	Mpath       string    `json:"mpath" db:"mpath"`
	DateCreated time.Time `json:"dateCreated" db:"date_created"`
	DateUpdated time.Time `json:"dateUpdated" db:"date_updated"`
}

// IsFolder reports whether the node can have children
func (n *FileNode) IsFolder() bool {
	return n.Type == FileTypeFolder
}
