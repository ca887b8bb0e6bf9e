package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/notes-service/internal/middleware"
	"github.com/Dan9191/notes-service/internal/models"
	"github.com/Dan9191/notes-service/internal/repository"
	"github.com/Dan9191/notes-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type noteCreateRequest struct {
	Title   string  `json:"title"`
	Content *string `json:"content"`
}

type noteUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Signup handles user registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	user, err := h.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, user)
}

// Login handles form-based authentication; the username field carries the
// email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "Invalid form data")
		return
	}

	tokenString, err := h.svc.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, tokenResponse{AccessToken: tokenString, TokenType: "bearer"})
}

// ListNotes returns the current user's notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "skip must be an integer")
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "limit must be an integer")
		return
	}

	notes, err := h.svc.ListNotes(r.Context(), user.ID, skip, limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, notes)
}

// CreateNote creates a note for the current user
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var req noteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	note, err := h.svc.CreateNote(r.Context(), user.ID, req.Title, req.Content)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, note)
}

// GetNote returns a single note by id
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	noteID, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	note, err := h.svc.GetNote(r.Context(), noteID, user.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, note)
}

// UpdateNote applies a partial update to a note
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	noteID, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	var req noteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	note, err := h.svc.UpdateNote(r.Context(), noteID, user.ID, models.NotePatch{Title: req.Title, Content: req.Content})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, note)
}

// DeleteNote removes a note
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	noteID, err := pathID(r)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	if err := h.svc.DeleteNote(r.Context(), noteID, user.ID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func queryInt(r *http.Request, name string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps service and repository errors onto HTTP statuses.
// Messages never reveal whether a note exists under another owner, nor which
// half of a credential pair was wrong.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		h.respondError(w, http.StatusUnprocessableEntity, ve.Msg)
	case errors.Is(err, repository.ErrDuplicateEmail):
		h.respondError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, repository.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.respondError(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, service.ErrInactiveAccount):
		h.respondError(w, http.StatusBadRequest, "Inactive user")
	default:
		h.log.Errorf("Internal error: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
