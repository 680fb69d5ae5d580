package http

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the admin key for destructive endpoints.
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards a handler with an admin key check. keyHash is a
// bcrypt hash of the expected key; an empty hash disables the check for
// local development.
func RequireAdminKey(keyHash string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if keyHash == "" {
			next(w, r)
			return
		}

		key := r.Header.Get(AdminKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "admin key required")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid admin key")
			return
		}
		next(w, r)
	}
}
