// Package middleware provides HTTP middleware functions
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/Dan9191/daily-diet/internal/service"
	"github.com/Dan9191/daily-diet/internal/utils"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ErrUnauthenticated is returned when a request carries no usable session
var ErrUnauthenticated = errors.New("unauthenticated")

type identityKey struct{}

// Identity is the caller resolved from the session cookie
type Identity struct {
	SessionID string
	User      *models.User
}

// IdentityResolver maps a session ID to its user
type IdentityResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*models.User, error)
}

// Authenticator resolves request identities
type Authenticator struct {
	codec    *utils.SessionCodec
	resolver IdentityResolver
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(codec *utils.SessionCodec, resolver IdentityResolver) *Authenticator {
	return &Authenticator{codec: codec, resolver: resolver}
}

// Authenticate returns the caller's identity or ErrUnauthenticated.
// Other errors come from the resolver.
func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	sessionID, err := a.codec.FromRequest(r)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	user, err := a.resolver.ResolveSession(r.Context(), sessionID)
	if errors.Is(err, service.ErrUnknownSession) {
		return Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{SessionID: sessionID, User: user}, nil
}

// AuthMiddleware rejects requests without a resolvable session and stores the identity in the context
func AuthMiddleware(a *Authenticator, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r)
			switch {
			case errors.Is(err, ErrUnauthenticated):
				writeMessage(w, http.StatusUnauthorized, "Unauthorized.")
				return
			case err != nil:
				log.WithFields(logrus.Fields{
					"request_id": RequestIDFromContext(r.Context()),
					"error":      err,
				}).Error("Failed to resolve session")
				writeMessage(w, http.StatusInternalServerError, "Internal server error.")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by AuthMiddleware
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.User != nil
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
