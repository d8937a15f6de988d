package models

import "time"

type Notebook struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Owner       string    `json:"owner" db:"owner"`
	IsLiked     bool      `json:"isLiked" db:"is_liked"`
	DateCreated time.Time `json:"dateCreated" db:"date_created"`
	DateUpdated time.Time `json:"dateUpdated" db:"date_updated"`
}

// Note is an ordered child of a notebook. Rank is dense (0..n-1) among the
// notes sharing NotebookID.
type Note struct {
	ID          string    `json:"id" db:"id"`
	NotebookID  string    `json:"notebookId" db:"notebook_id"`
	Name        string    `json:"name" db:"name"`
	Type        string    `json:"type" db:"type"`
	Content     string    `json:"content" db:"content"`
	Owner       string    `json:"owner" db:"owner"`
	Rank        int       `json:"rank" db:"rank"`
	DateCreated time.Time `json:"dateCreated" db:"date_created"`
	DateUpdated time.Time `json:"dateUpdated" db:"date_updated"`
}

func (n *Note) GetRank() int     { return n.Rank }
func (n *Note) SetRank(rank int) { n.Rank = rank }

// NotebookWithNotes is the read model of a notebook; Notes are ordered by rank
type NotebookWithNotes struct {
	Notebook
	Notes []Note `json:"notes"`
}
