package handlers

import (
	"net/http"
	"strconv"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
	"hu-tracker/internal/workflow"
	"hu-tracker/pkg/validator"
)

// CandidateHandler handles candidate requests
type CandidateHandler struct {
	candidates *repository.CandidateRepository
	engine     *workflow.Engine
	docs       *service.DocumentService
}

// NewCandidateHandler creates a new candidate handler
func NewCandidateHandler(candidates *repository.CandidateRepository, engine *workflow.Engine, docs *service.DocumentService) *CandidateHandler {
	return &CandidateHandler{
		candidates: candidates,
		engine:     engine,
		docs:       docs,
	}
}

// CandidateRequest is the body of candidate create and update requests.
// On update, absent fields keep their value.
type CandidateRequest struct {
	FirstName        *string `json:"first_name" validate:"max=100"`
	LastName         *string `json:"last_name" validate:"max=100"`
	Email            *string `json:"email" validate:"email"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	Department       *string `json:"department"`
	ThesisTitle      *string `json:"thesis_title"`
	ThesisDate       *Date   `json:"thesis_date" swaggertype:"string" example:"2019-06-15"`
	ThesisSupervisor *string `json:"thesis_supervisor"`
	Status           *string `json:"status"`
}

func (req *CandidateRequest) apply(c *models.Candidate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = validator.SanitizeString(*src)
		}
	}
	set(&c.FirstName, req.FirstName)
	set(&c.LastName, req.LastName)
	set(&c.Phone, req.Phone)
	set(&c.Address, req.Address)
	set(&c.Department, req.Department)
	set(&c.ThesisTitle, req.ThesisTitle)
	set(&c.ThesisSupervisor, req.ThesisSupervisor)
	set(&c.Status, req.Status)
	if req.Email != nil {
		c.Email = validator.SanitizeEmail(*req.Email)
	}
	if req.ThesisDate != nil {
		c.ThesisDate = req.ThesisDate.Ptr()
	}
}

// List lists candidates
// @Summary List candidates
// @Tags Candidates
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param search query string false "Search in name, email and thesis title"
// @Success 200 {array} models.Candidate
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /candidates [get]
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	candidates, err := h.candidates.List(r.Context(), repository.CandidateFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		respondWithErr(w, r, "Failed to list candidates", err)
		return
	}
	respondWithJSON(w, http.StatusOK, candidates)
}

// Get returns one candidate
// @Summary Get candidate
// @Tags Candidates
// @Produce json
// @Security BearerAuth
// @Param id path int true "Candidate ID"
// @Success 200 {object} models.Candidate
// @Failure 404 {object} map[string]string "Candidate not found"
// @Router /candidates/{id} [get]
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	c, err := h.candidates.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get candidate", err, "candidate_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// Create registers a candidate
// @Summary Create candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param candidate body CandidateRequest true "Candidate"
// @Success 201 {object} models.Candidate
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Email already used"
// @Router /candidates [post]
func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CandidateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid candidate", err)
		return
	}

	var c models.Candidate
	req.apply(&c)
	if c.FirstName == "" || c.LastName == "" || c.Email == "" {
		respondWithError(w, http.StatusBadRequest, "first_name, last_name and email are required")
		return
	}

	if err := h.candidates.Create(r.Context(), &c); err != nil {
		respondWithErr(w, r, "Failed to create candidate", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

// Update changes the given fields of a candidate
// @Summary Update candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Candidate ID"
// @Param candidate body CandidateRequest true "Fields to change"
// @Success 200 {object} models.Candidate
// @Failure 404 {object} map[string]string "Candidate not found"
// @Failure 409 {object} map[string]string "Email already used"
// @Router /candidates/{id} [put]
func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	var req CandidateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid candidate", err)
		return
	}

	c, err := h.candidates.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get candidate", err, "candidate_id", id)
		return
	}
	req.apply(c)
	if c.FirstName == "" || c.LastName == "" || c.Email == "" {
		respondWithError(w, http.StatusBadRequest, "first_name, last_name and email cannot be empty")
		return
	}

	if err := h.candidates.Update(r.Context(), c); err != nil {
		respondWithErr(w, r, "Failed to update candidate", err, "candidate_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// Delete removes a candidate
// @Summary Delete candidate
// @Description Refused while applications, defenses or documents exist unless cascade=true,
// @Description which removes them in the same transaction.
// @Tags Candidates
// @Produce json
// @Security BearerAuth
// @Param id path int true "Candidate ID"
// @Param cascade query bool false "Also delete applications, defenses and documents"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Candidate not found"
// @Failure 422 {object} map[string]string "Candidate still referenced"
// @Router /candidates/{id} [delete]
func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	cascade, _ := strconv.ParseBool(r.URL.Query().Get("cascade"))

	removed, err := h.engine.DeleteCandidate(r.Context(), id, cascade)
	if err != nil {
		respondWithErr(w, r, "Failed to delete candidate", err, "candidate_id", id)
		return
	}
	h.docs.RemoveBlobs(r.Context(), removed)

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":           "Candidate deleted successfully",
		"documents_removed": len(removed),
	})
}

// Stats returns candidate counts per status
// @Summary Candidate statistics
// @Tags Candidates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CandidateStats
// @Router /candidates/stats/overview [get]
func (h *CandidateHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.candidates.Stats(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to get candidate stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
