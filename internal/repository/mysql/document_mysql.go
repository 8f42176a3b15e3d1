package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"qdadoc/internal/model"
	"qdadoc/internal/repository"
)

// DocumentMySQL is a MySQL implementation of repository.DocumentRepository.
// The connection must be opened with clientFoundRows=true so that an UPDATE
// that matches a row but changes nothing still reports one affected row.
type DocumentMySQL struct {
	db *sql.DB
}

// NewDocumentMySQL creates a new DocumentMySQL repository.
func NewDocumentMySQL(db *sql.DB) *DocumentMySQL {
	return &DocumentMySQL{db: db}
}

var _ repository.DocumentRepository = (*DocumentMySQL)(nil)

const selectDocument = `
	SELECT id, name, content, size, owner, memo, created_at, modified_at
	FROM documents
	WHERE id = ?
`

// Create inserts a new document row. MySQL has no RETURNING, so the input is
// echoed back on success.
func (r *DocumentMySQL) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, name, content, size, owner, memo, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Content,
		doc.Size,
		nullIfEmpty(doc.Owner),
		nullIfEmpty(doc.Memo),
		doc.CreatedAt,
		doc.ModifiedAt,
	); err != nil {
		return nil, err
	}
	out := *doc
	return &out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentMySQL) FindByID(ctx context.Context, id string) (*model.Document, error) {
	var (
		d           model.Document
		owner, memo sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectDocument, id).Scan(
		&d.ID,
		&d.Name,
		&d.Content,
		&d.Size,
		&owner,
		&memo,
		&d.CreatedAt,
		&d.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	d.Owner = owner.String
	d.Memo = memo.String
	return &d, nil
}

// List returns document summaries using LIMIT/OFFSET pagination and a total count.
func (r *DocumentMySQL) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, name, size, owner, (memo IS NOT NULL AND memo <> '') AS has_memo, created_at
		FROM documents
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentSummary, 0)
	for rows.Next() {
		var (
			s     model.DocumentSummary
			owner sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Size, &owner, &s.HasMemo, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Owner = owner.String
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentSummary]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateMeta updates name and/or memo, bumps modified_at and re-reads the row.
func (r *DocumentMySQL) UpdateMeta(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Memo != nil {
		sets = append(sets, "memo = ?")
		args = append(args, nullIfEmpty(*patch.Memo))
	}
	sets = append(sets, "modified_at = ?")
	args = append(args, modifiedAt(patch), id)

	q := `UPDATE documents SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, repository.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a document by ID.
func (r *DocumentMySQL) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// modifiedAt returns the edit time carried by the patch, or now when unset.
func modifiedAt(p model.DocumentPatch) time.Time {
	if p.ModifiedAt.IsZero() {
		return time.Now().UTC()
	}
	return p.ModifiedAt.UTC()
}
