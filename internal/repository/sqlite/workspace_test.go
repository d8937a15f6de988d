package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
	"quix/internal/service/eventsourcing"
)

func newTestStore(t *testing.T) (repositories.WorkspaceStore, repositories.TransactionManager) {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "quix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorkspaceStore(db, logger), NewTransactionManager(db, logger)
}

func mustAction(t *testing.T, typ models.ActionType, id string, payload interface{}) models.Action {
	t.Helper()
	a, err := models.NewAction(typ, id, payload)
	require.NoError(t, err)
	return a
}

func TestWorkspaceStore_ThroughEventBus(t *testing.T) {
	store, tm := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	bus := eventsourcing.NewEventBus(store, tm, eventsourcing.Config{
		Clock: func() time.Time { return now },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := bus.Emit(ctx, "u1", []models.Action{
		mustAction(t, models.ActionFileCreate, "F1", map[string]interface{}{"name": "Reports", "type": "folder"}),
		mustAction(t, models.ActionFileCreate, "f1", map[string]interface{}{"name": "lower", "type": "folder"}),
		mustAction(t, models.ActionNotebookCreate, "N1", map[string]interface{}{
			"name": "Queries",
			"path": []models.PathItem{{ID: "F1", Name: "Reports"}},
		}),
		mustAction(t, models.ActionNoteCreate, "a", map[string]string{"notebookId": "N1", "name": "a", "type": "sql"}),
		mustAction(t, models.ActionNoteCreate, "b", map[string]string{"notebookId": "N1", "name": "b", "type": "sql"}),
		mustAction(t, models.ActionNoteCreate, "c", map[string]string{"notebookId": "N1", "name": "c", "type": "sql"}),
	})
	require.NoError(t, err)

	descendants, err := store.ListByPathPrefix(ctx, "u1", "F1.")
	require.NoError(t, err)
	require.Len(t, descendants, 1, "prefix match must be case sensitive")
	assert.Equal(t, "N1", descendants[0].ID)
	require.NotNil(t, descendants[0].ParentID)
	assert.Equal(t, "F1", *descendants[0].ParentID)
	assert.True(t, now.Equal(descendants[0].DateCreated))

	roots, err := store.ListChildren(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2)

	_, err = bus.Emit(ctx, "u1", []models.Action{
		mustAction(t, models.ActionNoteReorder, "c", map[string]int{"to": 0}),
		mustAction(t, models.ActionNoteDelete, "a", nil),
	})
	require.NoError(t, err)

	notes, err := store.ListNotes(ctx, "N1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "c", notes[0].ID)
	assert.Equal(t, 0, notes[0].Rank)
	assert.Equal(t, "b", notes[1].ID)
	assert.Equal(t, 1, notes[1].Rank)

	_, err = bus.Emit(ctx, "u1", []models.Action{mustAction(t, models.ActionFileDelete, "F1", nil)})
	require.NoError(t, err)

	_, err = store.GetNotebook(ctx, "N1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	notes, err = store.ListNotes(ctx, "N1")
	require.NoError(t, err)
	assert.Empty(t, notes)

	journal, err := store.ListJournal(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, journal, 9)
	assert.Equal(t, models.ActionFileCreate, journal[0].Type)
}

func TestWorkspaceStore_FailedTransactionRollsBack(t *testing.T) {
	store, tm := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	boom := errors.New("boom")
	err := tm.ExecTx(ctx, func(ctx context.Context) error {
		if err := store.SaveBatch(ctx, &models.ChangeSet{
			Notebooks: []models.Notebook{{ID: "N1", Name: "n", Owner: "u1", DateCreated: now, DateUpdated: now}},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.GetNotebook(ctx, "N1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWorkspaceStore_ForeignUpsertIsDuplicate(t *testing.T) {
	store, tm := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	save := func(owner, name string) error {
		return tm.ExecTx(ctx, func(ctx context.Context) error {
			return store.SaveBatch(ctx, &models.ChangeSet{
				Nodes: []models.FileNode{{ID: "F1", Owner: owner, Type: models.FileTypeFolder, Name: name, Mpath: "F1", DateCreated: now, DateUpdated: now}},
			})
		})
	}

	require.NoError(t, save("u1", "mine"))
	err := save("u2", "theirs")
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	node, err := store.GetNode(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, "mine", node.Name)
	assert.Nil(t, node.ParentID)
}
