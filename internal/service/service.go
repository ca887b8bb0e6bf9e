package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/Dan9191/notes-service/internal/models"
	"github.com/Dan9191/notes-service/internal/repository"
	"github.com/Dan9191/notes-service/internal/token"
	"github.com/Dan9191/notes-service/internal/utils/email"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// a caller cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount is returned when login hits a deactivated user.
	ErrInactiveAccount = errors.New("inactive account")
)

// ValidationError reports malformed input rejected before any store access
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Service handles business logic. It is stateless between calls.
type Service struct {
	store    repository.Store
	tokens   *token.Codec
	mailer   *email.Sender
	log      *logrus.Logger
	tokenTTL time.Duration
}

// NewService initializes a new service. mailer may be nil when SMTP is not
// configured.
func NewService(store repository.Store, tokens *token.Codec, mailer *email.Sender, log *logrus.Logger, tokenTTL time.Duration) *Service {
	return &Service{store: store, tokens: tokens, mailer: mailer, log: log, tokenTTL: tokenTTL}
}

// Signup creates a new user with a hashed password
func (s *Service) Signup(ctx context.Context, emailAddr, password string) (*models.User, error) {
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, &ValidationError{Msg: "invalid email address"}
	}
	if len(password) < 8 || len(password) > 50 {
		return nil, &ValidationError{Msg: "password must be between 8 and 50 characters"}
	}

	if _, err := s.store.FindUserByEmail(ctx, emailAddr); err == nil {
		return nil, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        emailAddr,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	// The unique index on email decides races between concurrent signups.
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go func(to string) {
			if err := s.mailer.SendWelcome(to); err != nil {
				s.log.Warnf("Failed to send welcome email to %s: %v", to, err)
			}
		}(user.Email)
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a signed bearer token
func (s *Service) Login(ctx context.Context, emailAddr, password string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, emailAddr)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// Surfaced separately on purpose; existing tokens stay valid after
	// deactivation.
	if !user.IsActive {
		return "", ErrInactiveAccount
	}

	tokenString, err := s.tokens.Issue(user.ID, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < 1 || n > 255 {
		return &ValidationError{Msg: "title must be between 1 and 255 characters"}
	}
	return nil
}

// ListNotes returns the owner's notes ordered by creation time descending
func (s *Service) ListNotes(ctx context.Context, ownerID int64, skip, limit int) ([]*models.Note, error) {
	if skip < 0 {
		return nil, &ValidationError{Msg: "skip must be greater than or equal to 0"}
	}
	if limit < 1 || limit > 100 {
		return nil, &ValidationError{Msg: "limit must be between 1 and 100"}
	}
	return s.store.ListNotes(ctx, ownerID, skip, limit)
}

// CreateNote creates a note owned by ownerID
func (s *Service) CreateNote(ctx context.Context, ownerID int64, title string, content *string) (*models.Note, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	note := &models.Note{
		Title:   title,
		Content: content,
		OwnerID: ownerID,
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	s.log.Infof("Note %d created for user %d", note.ID, ownerID)
	return note, nil
}

// GetNote returns an owner-scoped note
func (s *Service) GetNote(ctx context.Context, noteID, ownerID int64) (*models.Note, error) {
	return s.store.FindNote(ctx, noteID, ownerID)
}

// UpdateNote applies a partial update to an owner-scoped note; updated_at is
// refreshed even when no field value changes
func (s *Service) UpdateNote(ctx context.Context, noteID, ownerID int64, patch models.NotePatch) (*models.Note, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateNote(ctx, noteID, ownerID, patch)
}

// DeleteNote removes an owner-scoped note
func (s *Service) DeleteNote(ctx context.Context, noteID, ownerID int64) error {
	if err := s.store.DeleteNote(ctx, noteID, ownerID); err != nil {
		return err
	}
	s.log.Infof("Note %d deleted by user %d", noteID, ownerID)
	return nil
}
