package models

import "time"

// User represents a registered account
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
