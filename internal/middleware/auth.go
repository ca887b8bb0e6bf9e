package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dan9191/notes-service/internal/models"
	"github.com/Dan9191/notes-service/internal/repository"
	"github.com/Dan9191/notes-service/internal/token"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey int

const userKey contextKey = 0

const bearerPrefix = "Bearer "

// Auth validates the bearer token on every request, loads the user it names
// and stores it in the request context. Any failure is a 401; handlers behind
// this middleware never see an unauthenticated request.
func Auth(codec *token.Codec, store repository.Store, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				unauthorized(w)
				return
			}

			userID, err := codec.Validate(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				log.Debugf("Token rejected: %v", err)
				unauthorized(w)
				return
			}

			// A deleted user can still hold a validly signed token.
			user, err := store.FindUserByID(r.Context(), userID)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user resolved by Auth
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Could not validate credentials"})
}
