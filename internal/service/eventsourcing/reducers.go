package eventsourcing

import (
	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/mpath"
)

// reducer folds one action into the batch session
type reducer func(s *session, a models.Action) error

var reducers = map[models.ActionType]reducer{
	models.ActionNotebookCreate:      createNotebook,
	models.ActionNotebookUpdateName:  renameNotebook,
	models.ActionNotebookToggleLiked: toggleNotebookLiked,
	models.ActionNotebookDelete:      deleteNotebook,

	models.ActionNoteCreate:        createNote,
	models.ActionNoteUpdateName:    renameNote,
	models.ActionNoteUpdateContent: updateNoteContent,
	models.ActionNoteDelete:        deleteNote,
	models.ActionNoteReorder:       reorderNote,
	models.ActionNoteMove:          moveNote,

	models.ActionFileCreate:     createFile,
	models.ActionFileUpdateName: renameFile,
	models.ActionFileMove:       moveFile,
	models.ActionFileDelete:     deleteFile,
}

// KnownAction reports whether t has a registered reducer
func KnownAction(t models.ActionType) bool {
	_, ok := reducers[t]
	return ok
}

// apply folds a into s. Envelope problems (unknown type, bad id, foreign
// actor) are validation errors raised before the reducer runs.
func (s *session) apply(a models.Action) error {
	fn, ok := reducers[a.Type]
	if !ok {
		return domain.NewValidationError("unknown action type %q", a.Type)
	}
	if !mpath.ValidID(a.ID) {
		return domain.NewValidationError("action id %q must be non-empty and must not contain %q", a.ID, mpath.Separator)
	}
	if a.ActorID != "" && a.ActorID != s.actor {
		return domain.NewValidationError("action actor %q does not match batch actor %q", a.ActorID, s.actor)
	}
	return fn(s, a)
}
