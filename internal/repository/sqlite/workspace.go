package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"quix/internal/domain"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
)

// SQLiteWorkspaceStore implements the WorkspaceStore interface
type SQLiteWorkspaceStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkspaceStore creates a new workspace store
func NewWorkspaceStore(db *sql.DB, logger *slog.Logger) repositories.WorkspaceStore {
	return &SQLiteWorkspaceStore{db: db, logger: logger}
}

const (
	notebookColumns = `id, name, owner, is_liked, date_created, date_updated`
	noteColumns     = `id, notebook_id, name, type, content, owner, rank, date_created, date_updated`
	nodeColumns     = `id, owner, parent_id, type, name, mpath, date_created, date_updated`
	journalColumns  = `id, batch_id, seq, actor_id, type, target_id, payload, created_at`
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *SQLiteWorkspaceStore) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	var nb models.Notebook
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+notebookColumns+` FROM notebooks WHERE id = ?`, id,
	).Scan(&nb.ID, &nb.Name, &nb.Owner, &nb.IsLiked, &nb.DateCreated, &nb.DateUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notebook %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get notebook: %w", err)
	}
	return &nb, nil
}

func (r *SQLiteWorkspaceStore) GetNote(ctx context.Context, id string) (*models.Note, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (r *SQLiteWorkspaceStore) ListNotes(ctx context.Context, notebookID string) ([]models.Note, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE notebook_id = ? ORDER BY rank, id`, notebookID)
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
	return notes, rows.Err()
}

func (r *SQLiteWorkspaceStore) GetNode(ctx context.Context, id string) (*models.FileNode, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM file_nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return n, nil
}

func (r *SQLiteWorkspaceStore) ListChildren(ctx context.Context, owner string, parentID *string) ([]models.FileNode, error) {
	return r.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM file_nodes WHERE owner = ? AND parent_id IS ? ORDER BY mpath`,
		owner, parentID)
}

// ListByPathPrefix compares a byte prefix instead of LIKE, which is case
// insensitive in SQLite and would let "F1." match "f1.".
func (r *SQLiteWorkspaceStore) ListByPathPrefix(ctx context.Context, owner, prefix string) ([]models.FileNode, error) {
	return r.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM file_nodes WHERE owner = ?1 AND substr(mpath, 1, length(?2)) = ?2 ORDER BY mpath`,
		owner, prefix)
}

func (r *SQLiteWorkspaceStore) queryNodes(ctx context.Context, query string, args ...interface{}) ([]models.FileNode, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
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
	return nodes, rows.Err()
}

// SaveBatch writes deletions, owner-guarded upserts and the journal on the
// executor in ctx. Atomicity comes from the surrounding ExecTx.
func (r *SQLiteWorkspaceStore) SaveBatch(ctx context.Context, changes *models.ChangeSet) error {
	exec := getExecutor(ctx, r.db)

	deletes := []struct {
		table string
		ids   []string
	}{
		{"notes", changes.DeletedNotes},
		{"notebooks", changes.DeletedNotebooks},
		{"file_nodes", changes.DeletedNodes},
	}
	for _, d := range deletes {
		for _, id := range d.ids {
			if _, err := exec.ExecContext(ctx, `DELETE FROM `+d.table+` WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete from %s: %w", d.table, err)
			}
		}
	}

	for _, nb := range changes.Notebooks {
		res, err := exec.ExecContext(ctx, `
			INSERT INTO notebooks (`+notebookColumns+`) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				is_liked = excluded.is_liked,
				date_updated = excluded.date_updated
			WHERE notebooks.owner = excluded.owner`,
			nb.ID, nb.Name, nb.Owner, nb.IsLiked, nb.DateCreated, nb.DateUpdated)
		if err := guarded(res, err, models.KindNotebook, nb.ID); err != nil {
			return err
		}
	}

	for _, n := range changes.Notes {
		res, err := exec.ExecContext(ctx, `
			INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				notebook_id = excluded.notebook_id,
				name = excluded.name,
				type = excluded.type,
				content = excluded.content,
				rank = excluded.rank,
				date_updated = excluded.date_updated
			WHERE notes.owner = excluded.owner`,
			n.ID, n.NotebookID, n.Name, n.Type, n.Content, n.Owner, n.Rank, n.DateCreated, n.DateUpdated)
		if err := guarded(res, err, models.KindNote, n.ID); err != nil {
			return err
		}
	}

	for _, n := range changes.Nodes {
		res, err := exec.ExecContext(ctx, `
			INSERT INTO file_nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				parent_id = excluded.parent_id,
				name = excluded.name,
				mpath = excluded.mpath,
				date_updated = excluded.date_updated
			WHERE file_nodes.owner = excluded.owner`,
			n.ID, n.Owner, n.ParentID, string(n.Type), n.Name, n.Mpath, n.DateCreated, n.DateUpdated)
		if err := guarded(res, err, models.KindFile, n.ID); err != nil {
			return err
		}
	}

	for _, e := range changes.Journal {
		_, err := exec.ExecContext(ctx, `INSERT INTO journal (`+journalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.BatchID, e.Seq, e.ActorID, string(e.Type), e.TargetID, string(e.Payload), e.CreatedAt)
		if err != nil {
			return fmt.Errorf("append journal: %w", err)
		}
	}

	return nil
}

// guarded turns an upsert that matched another owner's row into DuplicateId
func guarded(res sql.Result, err error, kind models.AggregateKind, id string) error {
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, id, err)
	}
	if affected == 0 {
		return &domain.DuplicateIDError{Kind: string(kind), ID: id}
	}
	return nil
}

func (r *SQLiteWorkspaceStore) ListJournal(ctx context.Context, actorID string) ([]models.JournalEntry, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journal WHERE actor_id = ? ORDER BY id`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var e models.JournalEntry
		var actionType, payload string
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Seq, &e.ActorID, &actionType, &e.TargetID, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Type = models.ActionType(actionType)
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanNote(row scanner) (*models.Note, error) {
	var n models.Note
	if err := row.Scan(&n.ID, &n.NotebookID, &n.Name, &n.Type, &n.Content, &n.Owner, &n.Rank, &n.DateCreated, &n.DateUpdated); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNode(row scanner) (*models.FileNode, error) {
	var n models.FileNode
	var parentID sql.NullString
	var fileType string
	if err := row.Scan(&n.ID, &n.Owner, &parentID, &fileType, &n.Name, &n.Mpath, &n.DateCreated, &n.DateUpdated); err != nil {
		return nil, err
	}
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	n.Type = models.FileType(fileType)
	return &n, nil
}
