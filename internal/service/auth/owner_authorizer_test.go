package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/repository/memory"
)

func TestOwnerBasedAuthorizer(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	store := memory.NewStore()
	require.NoError(t, store.SaveBatch(ctx, &models.ChangeSet{
		Notebooks: []models.Notebook{{ID: "N1", Name: "n", Owner: "u1", DateCreated: now, DateUpdated: now}},
		Nodes:     []models.FileNode{{ID: "N1", Owner: "u1", Type: models.FileTypeNotebook, Name: "n", Mpath: "N1"}},
	}))
	authz := NewOwnerBasedAuthorizer(store)

	nb, err := authz.AuthorizeNotebook(ctx, "u1", "N1")
	require.NoError(t, err)
	assert.Equal(t, "n", nb.Name)

	node, err := authz.AuthorizeNode(ctx, "u1", "N1")
	require.NoError(t, err)
	assert.Equal(t, models.FileTypeNotebook, node.Type)

	var notFound *domain.AggregateNotFoundError
	_, err = authz.AuthorizeNotebook(ctx, "u2", "N1")
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "notebook", notFound.Kind)

	_, err = authz.AuthorizeNode(ctx, "u2", "N1")
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)

	_, err = authz.AuthorizeNode(ctx, "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrAggregateNotFound)
}
