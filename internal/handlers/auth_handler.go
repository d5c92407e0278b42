package handlers

import (
	"errors"
	"net/http"

	"hu-tracker/internal/middleware"
	"hu-tracker/internal/service"
	"hu-tracker/pkg/validator"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService  *service.AuthService
	auditService *service.AuditService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, auditService *service.AuditService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"oneof=admin committee"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an operator account (admin only)
// @Summary Register user
// @Description Creates an admin or committee account. Role defaults to committee.
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body RegisterRequest true "Account"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Forbidden - admin only"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid registration", err)
		return
	}

	user, err := h.authService.Register(r.Context(),
		validator.SanitizeString(req.Name), validator.SanitizeEmail(req.Email), req.Password, req.Role)
	if err != nil {
		respondWithErr(w, r, "Failed to register user", err)
		return
	}

	h.auditService.Log(r.Context(), middleware.Entry(r, service.ActionRegister, "users", "Registered "+user.Email+" as "+user.Role))
	respondWithJSON(w, http.StatusCreated, user)
}

// Login handles user login
// @Summary Login
// @Tags Authentication
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} service.Session
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid login", err)
		return
	}

	session, err := h.authService.Login(r.Context(), validator.SanitizeEmail(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.auditService.Log(r.Context(), middleware.Entry(r, service.ActionLoginFailed, "users", "Failed login attempt for "+req.Email))
		}
		respondWithErr(w, r, "Login failed", err)
		return
	}

	entry := middleware.Entry(r, service.ActionLogin, "users", "User logged in")
	entry.UserID = &session.User.ID
	h.auditService.Log(r.Context(), entry)

	respondWithJSON(w, http.StatusOK, session)
}

// Me returns the authenticated account
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		respondWithErr(w, r, "Failed to get current user", err, "user_id", userID)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
