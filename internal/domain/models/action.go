package models

import (
	"encoding/json"
	"time"
)

// ActionType names a mutation. The prefix selects the aggregate reducer.
type ActionType string

const (
	ActionNotebookCreate      ActionType = "notebook.create"
	ActionNotebookUpdateName  ActionType = "notebook.update.name"
	ActionNotebookToggleLiked ActionType = "notebook.toggleIsLiked"
	ActionNotebookDelete      ActionType = "notebook.delete"

	ActionNoteCreate        ActionType = "note.create"
	ActionNoteUpdateName    ActionType = "note.update.name"
	ActionNoteUpdateContent ActionType = "note.update.content"
	ActionNoteDelete        ActionType = "note.delete"
	ActionNoteReorder       ActionType = "note.reorder"
	ActionNoteMove          ActionType = "note.move"

	ActionFileCreate     ActionType = "file.create"
	ActionFileUpdateName ActionType = "file.update.name"
	ActionFileMove       ActionType = "file.move"
	ActionFileDelete     ActionType = "file.delete"
)

// Action is a single immutable mutation. Payload is decoded by the reducer
// registered for Type.
type Action struct {
	Type    ActionType      `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	ActorID string          `json:"actorId,omitempty"`
}

// NewAction marshals payload and builds an Action. A nil payload is encoded as {}.
func NewAction(actionType ActionType, id string, payload interface{}) (Action, error) {
	if payload == nil {
		payload = struct{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, err
	}
	return Action{Type: actionType, ID: id, Payload: raw}, nil
}

// PathItem is one ancestor in a notebook or folder path
type PathItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JournalEntry is a committed action as stored in the append-only journal
type JournalEntry struct {
	ID        string          `json:"id"` // ULID, sortable in commit order
	BatchID   string          `json:"batchId"`
	Seq       int             `json:"seq"` // position within the batch
	ActorID   string          `json:"actorId"`
	Type      ActionType      `json:"type"`
	TargetID  string          `json:"targetId"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Action rebuilds the action a journal entry recorded
func (e JournalEntry) Action() Action {
	return Action{Type: e.Type, ID: e.TargetID, Payload: e.Payload, ActorID: e.ActorID}
}
