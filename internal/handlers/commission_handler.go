package handlers

import (
	"net/http"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
	"hu-tracker/pkg/validator"
)

// CommissionHandler handles commission member requests
type CommissionHandler struct {
	members *repository.CommissionMemberRepository
	engine  *workflow.Engine
}

// NewCommissionHandler creates a new commission handler
func NewCommissionHandler(members *repository.CommissionMemberRepository, engine *workflow.Engine) *CommissionHandler {
	return &CommissionHandler{members: members, engine: engine}
}

// CommissionMemberRequest is the body of member create and update requests
type CommissionMemberRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Email      string `json:"email" validate:"email"`
	Phone      string `json:"phone"`
}

func (req *CommissionMemberRequest) apply(m *models.CommissionMember) {
	m.Name = validator.SanitizeString(req.Name)
	m.Role = validator.SanitizeString(req.Role)
	m.Department = validator.SanitizeString(req.Department)
	m.Email = validator.SanitizeEmail(req.Email)
	m.Phone = validator.SanitizeString(req.Phone)
}

// List lists commission members
// @Summary List commission members
// @Tags Commission
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.CommissionMember
// @Router /commission-members [get]
func (h *CommissionHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to list commission members", err)
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

// Get returns one member
// @Summary Get commission member
// @Tags Commission
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} models.CommissionMember
// @Failure 404 {object} map[string]string "Member not found"
// @Router /commission-members/{id} [get]
func (h *CommissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid member id", err)
		return
	}
	m, err := h.members.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get commission member", err, "member_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// Create adds a member
// @Summary Create commission member
// @Tags Commission
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param member body CommissionMemberRequest true "Member"
// @Success 201 {object} models.CommissionMember
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /commission-members [post]
func (h *CommissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CommissionMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid commission member", err)
		return
	}
	var m models.CommissionMember
	req.apply(&m)
	if err := h.members.Create(r.Context(), &m); err != nil {
		respondWithErr(w, r, "Failed to create commission member", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}

// Update replaces a member's details
// @Summary Update commission member
// @Tags Commission
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param member body CommissionMemberRequest true "Member"
// @Success 200 {object} models.CommissionMember
// @Failure 404 {object} map[string]string "Member not found"
// @Router /commission-members/{id} [put]
func (h *CommissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid member id", err)
		return
	}
	var req CommissionMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid commission member", err)
		return
	}
	m, err := h.members.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get commission member", err, "member_id", id)
		return
	}
	req.apply(m)
	if err := h.members.Update(r.Context(), m); err != nil {
		respondWithErr(w, r, "Failed to update commission member", err, "member_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// Delete removes a member
// @Summary Delete commission member
// @Tags Commission
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Member not found"
// @Router /commission-members/{id} [delete]
func (h *CommissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid member id", err)
		return
	}
	if err := h.engine.DeleteCommissionMember(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete commission member", err, "member_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Commission member deleted successfully"})
}
