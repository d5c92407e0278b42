package middleware

import (
	"net/http"
	"slices"
)

// RequireRole lets the request through when the authenticated user holds
// one of the given roles. It must run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUserID(r); !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			role, _ := GetUserRole(r)
			if !slices.Contains(roles, role) {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
