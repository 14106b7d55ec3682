package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vlyzo/wardrobe-api/internal/api/response"
	"github.com/vlyzo/wardrobe-api/internal/identity"
)

// Auth resolves the caller's bearer token to a user id before any handler runs.
type Auth struct {
	resolver identity.Resolver
}

// NewAuth creates a new Auth middleware.
func NewAuth(r identity.Resolver) *Auth {
	return &Auth{resolver: r}
}

// Authenticate validates the Bearer token against the identity provider and
// sets the resolved user id in the request context. No job is ever created
// for an unauthenticated request.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		userID, err := a.resolver.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			response.Error(w, http.StatusInternalServerError, "Failed to validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), userID)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
