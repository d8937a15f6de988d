package workspace

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/filetree"
	"quix/internal/repository/memory"
	"quix/internal/service/auth"
)

var stamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func seed(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	err := store.SaveBatch(context.Background(), &models.ChangeSet{
		Notebooks: []models.Notebook{
			{ID: "N1", Name: "Queries", Owner: "u1", DateCreated: stamp, DateUpdated: stamp},
			{ID: "N9", Name: "Other", Owner: "u2", DateCreated: stamp, DateUpdated: stamp},
		},
		Notes: []models.Note{
			{ID: "b", NotebookID: "N1", Name: "b", Owner: "u1", Rank: 1},
			{ID: "a", NotebookID: "N1", Name: "a", Owner: "u1", Rank: 0},
		},
		Nodes: []models.FileNode{
			{ID: "F1", Owner: "u1", Type: models.FileTypeFolder, Name: "Reports", Mpath: "F1"},
			{ID: "F2", Owner: "u1", ParentID: strPtr("F1"), Type: models.FileTypeFolder, Name: "Daily", Mpath: "F1.F2"},
			{ID: "N1", Owner: "u1", ParentID: strPtr("F2"), Type: models.FileTypeNotebook, Name: "Queries", Mpath: "F1.F2.N1"},
			{ID: "F3", Owner: "u1", Type: models.FileTypeFolder, Name: "Empty", Mpath: "F3"},
			{ID: "N9", Owner: "u2", Type: models.FileTypeNotebook, Name: "Other", Mpath: "N9"},
		},
	})
	require.NoError(t, err)
	return store
}

func newService(store *memory.Store) *workspaceService {
	return NewService(store, auth.NewOwnerBasedAuthorizer(store), slog.New(slog.NewTextHandler(io.Discard, nil))).(*workspaceService)
}

func TestTree(t *testing.T) {
	svc := newService(seed(t))

	records, err := svc.Tree(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, records, 4)

	byID := make(map[string]filetree.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	assert.Equal(t, []models.PathItem{{ID: "F1", Name: "Reports"}, {ID: "F2", Name: "Daily"}}, byID["N1"].Path)
	assert.Empty(t, byID["F1"].Path)
	assert.Equal(t, "notebook", byID["N1"].Type)

	root := filetree.BuildTree(records)
	daily := root.FolderByID("F1").FolderByID("F2")
	require.NotNil(t, daily)
	assert.NotNil(t, daily.FileByID("N1"))
	assert.True(t, root.FolderByID("F3").IsEmpty())
	assert.Nil(t, root.FileByID("N9"), "other owners' nodes must not leak")
}

func TestChildrenAndDescendants(t *testing.T) {
	svc := newService(seed(t))
	ctx := context.Background()

	roots, err := svc.Children(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"F1", "F3"}, ids(roots))

	children, err := svc.Children(ctx, "u1", "F1")
	require.NoError(t, err)
	assert.Equal(t, []string{"F2"}, ids(children))

	descendants, err := svc.Descendants(ctx, "u1", "F1")
	require.NoError(t, err)
	assert.Equal(t, []string{"F2", "N1"}, ids(descendants))

	all, err := svc.Descendants(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.Children(ctx, "u1", "N9")
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
	_, err = svc.Descendants(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestNotebook(t *testing.T) {
	svc := newService(seed(t))
	ctx := context.Background()

	nb, err := svc.Notebook(ctx, "u1", "N1")
	require.NoError(t, err)
	assert.Equal(t, "Queries", nb.Name)
	require.Len(t, nb.Notes, 2)
	assert.Equal(t, "a", nb.Notes[0].ID)
	assert.Equal(t, "b", nb.Notes[1].ID)

	_, err = svc.Notebook(ctx, "u1", "N9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func ids(nodes []models.FileNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
