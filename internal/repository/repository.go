package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/notes-service/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup matches no rows. Owner-scoped
	// note lookups return it both for missing notes and for notes owned by
	// someone else.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store defines the persistence contract. *Repository is the Postgres
// implementation; *Memory backs the tests.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateNote(ctx context.Context, note *models.Note) error
	ListNotes(ctx context.Context, ownerID int64, skip, limit int) ([]*models.Note, error)
	FindNote(ctx context.Context, noteID, ownerID int64) (*models.Note, error)
	UpdateNote(ctx context.Context, noteID, ownerID int64, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, noteID, ownerID int64) error
}

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateUser creates a new user in the database. The unique index on email
// is the final arbiter against concurrent signups.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.IsActive).
		Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password_hash, is_active, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password_hash, is_active, created_at
		FROM users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateUser overwrites the mutable user fields. No endpoint exposes this
// operation yet; it is part of the store contract only.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, is_active = $4
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.IsActive)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user; owned notes go with it via ON DELETE CASCADE.
// No endpoint exposes this operation yet.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateNote creates a new note in the database. created_at and updated_at
// get the same statement timestamp.
func (r *Repository) CreateNote(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (title, content, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, note.Title, note.Content, note.OwnerID).
		Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// ListNotes returns the owner's notes, newest first. An empty result is not
// an error.
func (r *Repository) ListNotes(ctx context.Context, ownerID int64, skip, limit int) ([]*models.Note, error) {
	query := `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(&note.ID, &note.Title, &note.Content, &note.OwnerID, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// FindNote retrieves a note filtered by both id and owner. A note owned by
// someone else is indistinguishable from a missing one.
func (r *Repository) FindNote(ctx context.Context, noteID, ownerID int64) (*models.Note, error) {
	note := &models.Note{}
	query := `
		SELECT id, title, content, owner_id, created_at, updated_at
		FROM notes
		WHERE id = $1 AND owner_id = $2`
	err := r.db.QueryRowContext(ctx, query, noteID, ownerID).
		Scan(&note.ID, &note.Title, &note.Content, &note.OwnerID, &note.CreatedAt, &note.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	return note, nil
}

// UpdateNote applies a partial update to an owner-scoped note. Nil patch
// fields keep their stored values; updated_at is always refreshed.
func (r *Repository) UpdateNote(ctx context.Context, noteID, ownerID int64, patch models.NotePatch) (*models.Note, error) {
	note := &models.Note{}
	query := `
		UPDATE notes
		SET title = COALESCE($3, title),
		    content = COALESCE($4, content),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND owner_id = $2
		RETURNING id, title, content, owner_id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, noteID, ownerID, patch.Title, patch.Content).
		Scan(&note.ID, &note.Title, &note.Content, &note.OwnerID, &note.CreatedAt, &note.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return note, nil
}

// DeleteNote removes an owner-scoped note
func (r *Repository) DeleteNote(ctx context.Context, noteID, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND owner_id = $2`, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
