package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hu-tracker/internal/auth"
	"hu-tracker/internal/config"
	"hu-tracker/internal/models"
)

// TestJWTSecret signs every token issued in tests
const TestJWTSecret = "test-secret-key-for-testing-only"

// AuthHelper provides JWT token generation for tests
type AuthHelper struct {
	Service *auth.Service
}

// NewAuthHelper creates a new auth helper with an HS256 test key
func NewAuthHelper() *AuthHelper {
	return &AuthHelper{
		Service: auth.NewService(&config.JWTConfig{Secret: TestJWTSecret, Expiration: time.Hour}),
	}
}

// AddAuthHeader adds an authorization header for user to the request
func (h *AuthHelper) AddAuthHeader(t *testing.T, req *http.Request, user *models.User) {
	t.Helper()

	token, _, err := h.Service.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// CreateAuthenticatedRequest creates a request with auth header
func (h *AuthHelper) CreateAuthenticatedRequest(t *testing.T, method, url string, body io.Reader, user *models.User) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.AddAuthHeader(t, req, user)
	return req
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}

// NewJSONRequest creates an unauthenticated request
func NewJSONRequest(method, url string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
