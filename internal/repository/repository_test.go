package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/notes-service/internal/models"
	"github.com/lib/pq"
)

func newRepoWithMock(t *testing.T) (*Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewRepository(db), mock, db
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@x.com", "hash", true).
		WillReturnRows(rows)

	user := &models.User{Email: "a@x.com", PasswordHash: "hash", IsActive: true}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected id assigned by the store, got %d", user.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@x.com", "hash", true).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateUser(context.Background(), &models.User{Email: "a@x.com", PasswordHash: "hash", IsActive: true})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestFindUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .+ FROM users\s+WHERE email`).
		WithArgs("missing@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUserByEmail(context.Background(), "missing@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindNote_ScopedByOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// lookup carries the owner in the predicate itself
	mock.ExpectQuery(`(?s)SELECT .+ FROM notes\s+WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(int64(5), int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindNote(context.Background(), 5, 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateNote_PartialFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	content := "new content"
	rows := sqlmock.NewRows([]string{"id", "title", "content", "owner_id", "created_at", "updated_at"}).
		AddRow(int64(5), "old title", content, int64(9), now.Add(-time.Hour), now)
	// nil title must reach the store as NULL so COALESCE keeps the old value
	mock.ExpectQuery(`UPDATE notes`).
		WithArgs(int64(5), int64(9), nil, &content).
		WillReturnRows(rows)

	note, err := repo.UpdateNote(context.Background(), 5, 9, models.NotePatch{Content: &content})
	if err != nil {
		t.Fatalf("UpdateNote error: %v", err)
	}
	if note.Title != "old title" {
		t.Fatalf("expected title untouched, got %q", note.Title)
	}
	if note.Content == nil || *note.Content != content {
		t.Fatalf("expected content updated, got %v", note.Content)
	}
}

func TestDeleteNote_OtherOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteNote(context.Background(), 5, 2)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign note, got %v", err)
	}
}

func TestDeleteNote_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1 AND owner_id = \$2`).
		WithArgs(int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteNote(context.Background(), 5, 9); err != nil {
		t.Fatalf("DeleteNote error: %v", err)
	}
}

func TestListNotes_ScansNullContent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "content", "owner_id", "created_at", "updated_at"}).
		AddRow(int64(2), "second", nil, int64(9), now, now).
		AddRow(int64(1), "first", "text", int64(9), now.Add(-time.Minute), now.Add(-time.Minute))
	mock.ExpectQuery(`(?s)SELECT .+ FROM notes\s+WHERE owner_id = \$1`).
		WithArgs(int64(9), 0, 100).
		WillReturnRows(rows)

	notes, err := repo.ListNotes(context.Background(), 9, 0, 100)
	if err != nil {
		t.Fatalf("ListNotes error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Content != nil {
		t.Fatalf("expected nil content for NULL column, got %v", *notes[0].Content)
	}
	if notes[1].Content == nil || *notes[1].Content != "text" {
		t.Fatalf("expected content scanned, got %v", notes[1].Content)
	}
}

func TestListNotes_EmptyIsNotAnError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "content", "owner_id", "created_at", "updated_at"})
	mock.ExpectQuery(`(?s)SELECT .+ FROM notes\s+WHERE owner_id = \$1`).
		WithArgs(int64(9), 0, 100).
		WillReturnRows(rows)

	notes, err := repo.ListNotes(context.Background(), 9, 0, 100)
	if err != nil {
		t.Fatalf("ListNotes error: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", notes)
	}
}
