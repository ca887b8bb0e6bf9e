package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/notes-service/internal/models"
)

// Memory is an in-memory Store used by tests. It mirrors the Postgres
// implementation's semantics: unique emails, owner-scoped note lookups and
// cascade delete of notes with their owner.
type Memory struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	notes      map[int64]*models.Note
	nextUserID int64
	nextNoteID int64
	now        func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory initializes an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		users: make(map[int64]*models.User),
		notes: make(map[int64]*models.Note),
		now:   time.Now,
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyNote(n *models.Note) *models.Note {
	c := *n
	if n.Content != nil {
		v := *n.Content
		c.Content = &v
	}
	return &c
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = m.now()
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	stored := m.users[user.ID]
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.IsActive = user.IsActive
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	// cascade
	for noteID, n := range m.notes {
		if n.OwnerID == id {
			delete(m.notes, noteID)
		}
	}
	return nil
}

func (m *Memory) CreateNote(_ context.Context, note *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[note.OwnerID]; !ok {
		return fmt.Errorf("owner %d does not exist", note.OwnerID)
	}
	m.nextNoteID++
	note.ID = m.nextNoteID
	now := m.now()
	note.CreatedAt = now
	note.UpdatedAt = now
	m.notes[note.ID] = copyNote(note)
	return nil
}

func (m *Memory) ListNotes(_ context.Context, ownerID int64, skip, limit int) ([]*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := make([]*models.Note, 0)
	for _, n := range m.notes {
		if n.OwnerID == ownerID {
			owned = append(owned, copyNote(n))
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})
	if skip >= len(owned) {
		return []*models.Note{}, nil
	}
	owned = owned[skip:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

func (m *Memory) FindNote(_ context.Context, noteID, ownerID int64) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return copyNote(n), nil
}

func (m *Memory) UpdateNote(_ context.Context, noteID, ownerID int64, patch models.NotePatch) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		v := *patch.Content
		n.Content = &v
	}
	n.UpdatedAt = m.now()
	return copyNote(n), nil
}

func (m *Memory) DeleteNote(_ context.Context, noteID, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.notes, noteID)
	return nil
}
