package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hu-tracker/internal/auth"
	"hu-tracker/internal/config"
	"hu-tracker/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newAuthService() *auth.Service {
	return auth.NewService(&config.JWTConfig{Secret: "test-secret", Expiration: time.Hour})
}

func TestAuthenticate(t *testing.T) {
	svc := newAuthService()
	token, _, err := svc.GenerateToken(7, "admin@fpo.ma", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	var gotID uint
	var gotRole string
	handler := NewAuthMiddleware(svc).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r)
		gotRole, _ = GetUserRole(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want != http.StatusOK && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("Expected JSON error body, got %q", rec.Body.String())
			}
		})
	}

	if gotID != 7 || gotRole != models.RoleAdmin {
		t.Errorf("Expected user 7 with role admin in context, got %d/%q", gotID, gotRole)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(okHandler())

	withRole := func(role string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil)
		ctx := WithUser(req.Context(), &auth.JWTClaims{UserID: 1, Email: "u@fpo.ma", Role: role})
		return req.WithContext(ctx)
	}

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous", httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil), http.StatusUnauthorized},
		{"committee", withRole(models.RoleCommittee), http.StatusForbidden},
		{"admin", withRole(models.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tt.req)
			if rec.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	m := NewCORSMiddleware(&config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := m.Handler(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/applications/1/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Expected credentials to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, Requests: 2, Duration: time.Hour}, newMemoryLimiter())
	handler := rl.Limit(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after the limit, got %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("Expected other clients to be unaffected, got %d", code)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false, Requests: 1, Duration: time.Hour}, nil)
	handler := rl.Limit(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 with rate limiting disabled, got %d", rec.Code)
		}
	}
}

func TestMemoryLimiter_Refill(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newMemoryLimiter()
	m.now = func() time.Time { return now }

	if !m.Allow("k", 1, time.Minute) {
		t.Fatal("First request should be allowed")
	}
	if m.Allow("k", 1, time.Minute) {
		t.Fatal("Second request in the window should be refused")
	}
	now = now.Add(time.Minute)
	if !m.Allow("k", 1, time.Minute) {
		t.Error("Request after the window should be allowed")
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	l, client, err := NewRedisLimiter("redis://127.0.0.1:1/0")
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}
	defer client.Close()

	if !l.Allow("ratelimit:test", 1, time.Minute) {
		t.Error("Expected request to be allowed when redis is unreachable")
	}
	if _, _, err := NewRedisLimiter("://bad"); err == nil {
		t.Error("Expected error for invalid url")
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "10.0.0.1:80", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "5.6.7.8"}, "10.0.0.1:80", "5.6.7.8"},
		{"remote addr", nil, "9.9.9.9:1234", "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getIP(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recordingAudit) Log(_ context.Context, entry *models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func TestAuditMiddleware(t *testing.T) {
	rec := &recordingAudit{}
	m := NewAuditMiddleware(rec)

	status := http.StatusOK
	handler := m.Log("candidate.delete", "candidate")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/candidates/3?cascade=true", nil)
	req = req.WithContext(WithUser(req.Context(), &auth.JWTClaims{UserID: 4, Email: "admin@fpo.ma", Role: models.RoleAdmin}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	status = http.StatusNotFound
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(rec.entries) != 1 {
		t.Fatalf("Expected only the successful request to be audited, got %d entries", len(rec.entries))
	}
	e := rec.entries[0]
	if e.UserID == nil || *e.UserID != 4 {
		t.Errorf("Expected user 4, got %v", e.UserID)
	}
	if e.Details != "DELETE /api/v1/candidates/3?cascade=true by admin@fpo.ma" {
		t.Errorf("Unexpected details %q", e.Details)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("Expected frame options header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "unsafe-inline") {
		t.Error("Expected relaxed policy for swagger UI")
	}
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status to pass through, got %d", rec.Code)
	}
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler(), mw("a"), mw("b")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b" {
		t.Errorf("Expected a,b got %v", order)
	}
}

func TestRedactBody(t *testing.T) {
	got := redactBody([]byte(`{"email":"a@fpo.ma","password":"hunter22"}`))
	if strings.Contains(got, "hunter22") {
		t.Errorf("password leaked into log body: %s", got)
	}
	if !strings.Contains(got, "a@fpo.ma") {
		t.Errorf("expected other fields to be kept, got %s", got)
	}

	if got := redactBody([]byte(`not json`)); got != "not json" {
		t.Errorf("expected non-JSON body unchanged, got %s", got)
	}
}
