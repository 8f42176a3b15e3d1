package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdadoc/internal/model"
	"qdadoc/internal/repository"
)

var docCols = []string{"id", "name", "content", "size", "owner", "memo", "created_at", "modified_at"}

func newMock(t *testing.T) (*DocumentMySQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentMySQL(db), mock
}

func TestDocumentMySQL_Create(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:         "test-uuid",
		Name:       "field-notes.txt",
		Content:    "Interviewee: yes.",
		Size:       17,
		Memo:       "first pass",
		CreatedAt:  now,
		ModifiedAt: now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO documents").
			WithArgs(doc.ID, doc.Name, doc.Content, doc.Size, nil, "first pass", now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		out, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, *doc, *out)
		assert.NotSame(t, doc, out)
	})

	t.Run("exec error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO documents").
			WillReturnError(errors.New("duplicate"))

		out, err := repo.Create(ctx, doc)

		assert.EqualError(t, err, "duplicate")
		assert.Nil(t, out)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentMySQL_FindByID(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(docCols).
			AddRow("id-1", "a.txt", "héllo", 6, "carol", nil, time.Now(), time.Now())
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\?").
			WithArgs("id-1").
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, "id-1")

		require.NoError(t, err)
		assert.Equal(t, "héllo", doc.Content)
		assert.Equal(t, "carol", doc.Owner)
		assert.Empty(t, doc.Memo)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentMySQL_List(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	rows := sqlmock.NewRows([]string{"id", "name", "size", "owner", "has_memo", "created_at"}).
		AddRow("c", "c.txt", 2048, nil, 1, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs(1, 2).
		WillReturnRows(rows)

	res, err := repo.List(ctx, repository.PageQuery{Limit: 1, Offset: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].HasMemo)
	assert.Equal(t, int64(2048), res.Items[0].Size)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentMySQL_UpdateMeta(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	t.Run("rename", func(t *testing.T) {
		name := "renamed.txt"
		at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		mock.ExpectExec("UPDATE documents SET name = \\?, modified_at = \\? WHERE id = \\?").
			WithArgs(name, at, "id-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\?").
			WithArgs("id-1").
			WillReturnRows(sqlmock.NewRows(docCols).
				AddRow("id-1", name, "body", 4, nil, nil, time.Now(), at))

		doc, err := repo.UpdateMeta(ctx, "id-1", model.DocumentPatch{Name: &name, ModifiedAt: at})

		require.NoError(t, err)
		assert.Equal(t, name, doc.Name)
	})

	t.Run("not found", func(t *testing.T) {
		memo := "m"
		mock.ExpectExec("UPDATE documents SET memo = \\?, modified_at = \\? WHERE id = \\?").
			WithArgs(memo, sqlmock.AnyArg(), "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		doc, err := repo.UpdateMeta(ctx, "missing", model.DocumentPatch{Memo: &memo})

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentMySQL_Delete(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = \\?").
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM documents WHERE id = \\?").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(ctx, "id-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
