package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qdadoc/internal/model"
	"qdadoc/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, name, content, size, owner, memo, created_at, modified_at`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, name, content, size, owner, memo, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Content,
		doc.Size,
		nullIfEmpty(doc.Owner),
		nullIfEmpty(doc.Memo),
		doc.CreatedAt,
		doc.ModifiedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

// List returns document summaries using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, name, size, owner, (memo IS NOT NULL AND memo <> '') AS has_memo, created_at
		FROM documents
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
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

// UpdateMeta updates name and/or memo and bumps modified_at.
func (r *DocumentPostgres) UpdateMeta(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Memo != nil {
		args = append(args, nullIfEmpty(*patch.Memo))
		sets = append(sets, fmt.Sprintf("memo = $%d", len(args)))
	}
	args = append(args, modifiedAt(patch))
	sets = append(sets, fmt.Sprintf("modified_at = $%d", len(args)))
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE documents SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), documentColumns)

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return d, err
}

// Delete removes a document by ID.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
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

func scanDocument(row *sql.Row) (*model.Document, error) {
	var (
		d           model.Document
		owner, memo sql.NullString
	)
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Content,
		&d.Size,
		&owner,
		&memo,
		&d.CreatedAt,
		&d.ModifiedAt,
	); err != nil {
		return nil, err
	}
	d.Owner = owner.String
	d.Memo = memo.String
	return &d, nil
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
