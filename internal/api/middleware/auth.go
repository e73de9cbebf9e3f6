package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/eloladder/internal/api/apierr"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/identity"
)

// AdminKeyHeader carries the administrator key
const AdminKeyHeader = "X-Admin-Key"

type contextKey string

const playerIDContextKey contextKey = "player_id"

// Auth creates middleware that resolves the caller from a bearer token
func Auth(identityService *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			playerID, err := identityService.Verify(token)
			if err != nil {
				apierr.WriteError(w, identity.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), playerIDContextKey, playerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin creates middleware that requires a valid X-Admin-Key
func Admin(identityService *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := identityService.VerifyAdminKey(r.Header.Get(AdminKeyHeader)); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// GetPlayerID returns the authenticated caller from the request context
func GetPlayerID(ctx context.Context) (model.PlayerID, bool) {
	id, ok := ctx.Value(playerIDContextKey).(model.PlayerID)
	return id, ok
}

// MustGetPlayerID returns the authenticated caller or panics
func MustGetPlayerID(ctx context.Context) model.PlayerID {
	id, ok := GetPlayerID(ctx)
	if !ok {
		panic("no player in context - auth middleware not applied?")
	}
	return id
}
