package middleware

import (
	"context"
	"net/http"

	"hu-tracker/internal/models"
)

// AuditRecorder stores audit entries
type AuditRecorder interface {
	Log(ctx context.Context, entry *models.AuditLog)
}

// AuditMiddleware logs administrative actions
type AuditMiddleware struct {
	recorder AuditRecorder
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(recorder AuditRecorder) *AuditMiddleware {
	return &AuditMiddleware{recorder: recorder}
}

// Log records action on resource once the wrapped handler has succeeded.
// Requests answered with a 4xx or 5xx status are not recorded.
func (m *AuditMiddleware) Log(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 400 {
				return
			}
			details := r.Method + " " + r.URL.RequestURI()
			if email, ok := GetUserEmail(r); ok && email != "" {
				details += " by " + email
			}
			m.recorder.Log(r.Context(), Entry(r, action, resource, details))
		})
	}
}

// Entry builds an audit entry for the user of the request
func Entry(r *http.Request, action, resource, details string) *models.AuditLog {
	var userID *uint
	if id, ok := GetUserID(r); ok {
		userID = &id
	}
	return &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
		IPAddress: getIP(r),
		UserAgent: r.UserAgent(),
	}
}
