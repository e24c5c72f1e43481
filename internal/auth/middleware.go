package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Middleware resolves the authenticated user from the X-User-ID header set
// by the identity provider in front of this service. Requests without a
// valid id pass through unauthenticated; write paths reject them later.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(ContextWithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
