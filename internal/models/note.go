package models

import "time"

// Note represents a text note owned by a single user
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotePatch carries the fields of a partial note update.
// A nil field is left unchanged.
type NotePatch struct {
	Title   *string
	Content *string
}
