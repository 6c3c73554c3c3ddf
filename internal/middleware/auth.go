package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gioaltam/Inspection-agent/internal/infra/auth"
)

type contextKey string

const OwnerKey contextKey = "owner_id"

// SessionAuth validates the bearer session token and stores the owner id
// in the request context. Failures are a uniform 401.
func SessionAuth(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ownerID, err := sessions.Verify(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), OwnerKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext extracts the authenticated owner id.
func OwnerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(OwnerKey).(string); ok {
		return v
	}
	return ""
}
