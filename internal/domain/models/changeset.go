package models

// AggregateKind names the aggregate a record belongs to
type AggregateKind string

const (
	KindNotebook AggregateKind = "notebook"
	KindNote     AggregateKind = "note"
	KindFile     AggregateKind = "file"
)

// AggregateRef identifies one aggregate touched by a batch
type AggregateRef struct {
	Kind AggregateKind `json:"kind"`
	ID   string        `json:"id"`
}

// ChangeSet is the cumulative effect of one batch. A store persists it as a
// single all-or-nothing unit: deletions first, then upserts, then the journal.
type ChangeSet struct {
	Notebooks []Notebook
	Notes     []Note
	Nodes     []FileNode

	DeletedNotebooks []string
	DeletedNotes     []string
	DeletedNodes     []string

	Journal []JournalEntry
}

// Upserted lists the aggregates written by the change set
func (c *ChangeSet) Upserted() []AggregateRef {
	refs := make([]AggregateRef, 0, len(c.Notebooks)+len(c.Notes)+len(c.Nodes))
	for _, nb := range c.Notebooks {
		refs = append(refs, AggregateRef{Kind: KindNotebook, ID: nb.ID})
	}
	for _, n := range c.Notes {
		refs = append(refs, AggregateRef{Kind: KindNote, ID: n.ID})
	}
	for _, n := range c.Nodes {
		refs = append(refs, AggregateRef{Kind: KindFile, ID: n.ID})
	}
	return refs
}

// Deleted lists the aggregates removed by the change set
func (c *ChangeSet) Deleted() []AggregateRef {
	refs := make([]AggregateRef, 0, len(c.DeletedNotebooks)+len(c.DeletedNotes)+len(c.DeletedNodes))
	for _, id := range c.DeletedNotebooks {
		refs = append(refs, AggregateRef{Kind: KindNotebook, ID: id})
	}
	for _, id := range c.DeletedNotes {
		refs = append(refs, AggregateRef{Kind: KindNote, ID: id})
	}
	for _, id := range c.DeletedNodes {
		refs = append(refs, AggregateRef{Kind: KindFile, ID: id})
	}
	return refs
}

// BatchApplied is published once per committed batch
type BatchApplied struct {
	BatchID  string         `json:"batchId"`
	ActorID  string         `json:"actorId"`
	Actions  []Action       `json:"actions"`
	Upserted []AggregateRef `json:"upserted"`
	Deleted  []AggregateRef `json:"deleted"`
}
