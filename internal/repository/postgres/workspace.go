package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
)

// PostgresWorkspaceStore implements the WorkspaceStore interface
type PostgresWorkspaceStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewWorkspaceStore creates a new workspace store
func NewWorkspaceStore(config *RepositoryConfig) repositories.WorkspaceStore {
	return &PostgresWorkspaceStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const (
	notebookColumns = `id, name, owner, is_liked, date_created, date_updated`
	noteColumns     = `id, notebook_id, name, type, content, owner, rank, date_created, date_updated`
	nodeColumns     = `id, owner, parent_id, type, name, mpath, date_created, date_updated`
	journalColumns  = `id, batch_id, seq, actor_id, type, target_id, payload, created_at`
)

// GetNotebook retrieves a notebook by ID
func (r *PostgresWorkspaceStore) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, notebookColumns, r.tables.Notebooks)

	var nb models.Notebook
	err := executorFor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&nb.ID,
		&nb.Name,
		&nb.Owner,
		&nb.IsLiked,
		&nb.DateCreated,
		&nb.DateUpdated,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("notebook %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get notebook: %w", err)
	}

	return &nb, nil
}

// GetNote retrieves a note by ID
func (r *PostgresWorkspaceStore) GetNote(ctx context.Context, id string) (*models.Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, noteColumns, r.tables.Notes)

	n, err := scanNote(executorFor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	return n, nil
}

// ListNotes returns the notes of a notebook ordered by rank
func (r *PostgresWorkspaceStore) ListNotes(ctx context.Context, notebookID string) ([]models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE notebook_id = $1
		ORDER BY rank, id
	`, noteColumns, r.tables.Notes)

	rows, err := executorFor(ctx, r.pool).Query(ctx, query, notebookID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// GetNode retrieves a file tree node by ID
func (r *PostgresWorkspaceStore) GetNode(ctx context.Context, id string) (*models.FileNode, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.FileNodes)

	n, err := scanNode(executorFor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return n, nil
}

// ListChildren returns the direct children of parentID (nil = root level)
func (r *PostgresWorkspaceStore) ListChildren(ctx context.Context, owner string, parentID *string) ([]models.FileNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY mpath
	`, nodeColumns, r.tables.FileNodes)

	return r.queryNodes(ctx, query, owner, parentID)
}

// ListByPathPrefix returns the owner's nodes whose mpath starts with prefix.
// LIKE wildcards in the prefix are escaped so ids match literally.
func (r *PostgresWorkspaceStore) ListByPathPrefix(ctx context.Context, owner, prefix string) ([]models.FileNode, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner = $1 AND mpath LIKE $2 ESCAPE '\'
		ORDER BY mpath
	`, nodeColumns, r.tables.FileNodes)

	return r.queryNodes(ctx, query, owner, likePrefix(prefix))
}

func (r *PostgresWorkspaceStore) queryNodes(ctx context.Context, query string, args ...interface{}) ([]models.FileNode, error) {
	rows, err := executorFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	nodes := []models.FileNode{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return nodes, nil
}

// SaveBatch sends the whole change set as one pgx batch: deletions, then
// owner-guarded upserts, then the journal. It must run inside ExecTx for
// the batch to be atomic.
func (r *PostgresWorkspaceStore) SaveBatch(ctx context.Context, changes *models.ChangeSet) error {
	batch := &pgx.Batch{}
	var guards []models.AggregateRef

	queue := func(ref *models.AggregateRef, query string, args ...interface{}) {
		batch.Queue(query, args...)
		if ref != nil {
			guards = append(guards, *ref)
		} else {
			guards = append(guards, models.AggregateRef{})
		}
	}

	if len(changes.DeletedNotes) > 0 {
		queue(nil, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Notes), changes.DeletedNotes)
	}
	if len(changes.DeletedNotebooks) > 0 {
		queue(nil, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Notebooks), changes.DeletedNotebooks)
	}
	if len(changes.DeletedNodes) > 0 {
		queue(nil, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.FileNodes), changes.DeletedNodes)
	}

	notebookUpsert := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			is_liked = EXCLUDED.is_liked,
			date_updated = EXCLUDED.date_updated
		WHERE %[1]s.owner = EXCLUDED.owner
	`, r.tables.Notebooks, notebookColumns)
	for _, nb := range changes.Notebooks {
		queue(&models.AggregateRef{Kind: models.KindNotebook, ID: nb.ID}, notebookUpsert,
			nb.ID, nb.Name, nb.Owner, nb.IsLiked, nb.DateCreated, nb.DateUpdated)
	}

	noteUpsert := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			notebook_id = EXCLUDED.notebook_id,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			content = EXCLUDED.content,
			rank = EXCLUDED.rank,
			date_updated = EXCLUDED.date_updated
		WHERE %[1]s.owner = EXCLUDED.owner
	`, r.tables.Notes, noteColumns)
	for _, n := range changes.Notes {
		queue(&models.AggregateRef{Kind: models.KindNote, ID: n.ID}, noteUpsert,
			n.ID, n.NotebookID, n.Name, n.Type, n.Content, n.Owner, n.Rank, n.DateCreated, n.DateUpdated)
	}

	nodeUpsert := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			name = EXCLUDED.name,
			mpath = EXCLUDED.mpath,
			date_updated = EXCLUDED.date_updated
		WHERE %[1]s.owner = EXCLUDED.owner
	`, r.tables.FileNodes, nodeColumns)
	for _, n := range changes.Nodes {
		queue(&models.AggregateRef{Kind: models.KindFile, ID: n.ID}, nodeUpsert,
			n.ID, n.Owner, n.ParentID, string(n.Type), n.Name, n.Mpath, n.DateCreated, n.DateUpdated)
	}

	journalInsert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.tables.Journal, journalColumns)
	for _, e := range changes.Journal {
		queue(nil, journalInsert,
			e.ID, e.BatchID, e.Seq, e.ActorID, string(e.Type), e.TargetID, string(e.Payload), e.CreatedAt)
	}

	if batch.Len() == 0 {
		return nil
	}

	results := executorFor(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	for _, ref := range guards {
		tag, err := results.Exec()
		if err != nil {
			if isPgForeignKeyError(err) {
				return fmt.Errorf("save batch: %w", domain.ErrConflict)
			}
			return fmt.Errorf("save batch: %w", err)
		}
		// an owner-guarded upsert that touched nothing hit another owner's id
		if ref.ID != "" && tag.RowsAffected() == 0 {
			return &domain.DuplicateIDError{Kind: string(ref.Kind), ID: ref.ID}
		}
	}

	r.logger.Debug("batch saved",
		"notebooks", len(changes.Notebooks),
		"notes", len(changes.Notes),
		"files", len(changes.Nodes),
		"deleted", len(changes.DeletedNotebooks)+len(changes.DeletedNotes)+len(changes.DeletedNodes),
		"journal", len(changes.Journal),
	)
	return nil
}

// ListJournal returns an actor's journal entries in commit order
func (r *PostgresWorkspaceStore) ListJournal(ctx context.Context, actorID string) ([]models.JournalEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE actor_id = $1
		ORDER BY id
	`, journalColumns, r.tables.Journal)

	rows, err := executorFor(ctx, r.pool).Query(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var e models.JournalEntry
		var actionType string
		var payload []byte
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Seq, &e.ActorID, &actionType, &e.TargetID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Type = models.ActionType(actionType)
		e.Payload = payload
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	return entries, nil
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(
		&n.ID,
		&n.NotebookID,
		&n.Name,
		&n.Type,
		&n.Content,
		&n.Owner,
		&n.Rank,
		&n.DateCreated,
		&n.DateUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNode(row pgx.Row) (*models.FileNode, error) {
	var n models.FileNode
	var fileType string
	err := row.Scan(
		&n.ID,
		&n.Owner,
		&n.ParentID,
		&fileType,
		&n.Name,
		&n.Mpath,
		&n.DateCreated,
		&n.DateUpdated,
	)
	if err != nil {
		return nil, err
	}
	n.Type = models.FileType(fileType)
	return &n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
