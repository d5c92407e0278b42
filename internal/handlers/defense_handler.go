package handlers

import (
	"net/http"
	"time"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
)

// DefenseHandler handles defense requests
type DefenseHandler struct {
	defenses *repository.DefenseRepository
	engine   *workflow.Engine
	now      func() time.Time
}

// NewDefenseHandler creates a new defense handler
func NewDefenseHandler(defenses *repository.DefenseRepository, engine *workflow.Engine) *DefenseHandler {
	return &DefenseHandler{
		defenses: defenses,
		engine:   engine,
		now:      time.Now,
	}
}

// ScheduleDefenseRequest schedules a candidate's defense
type ScheduleDefenseRequest struct {
	CandidateID   uint   `json:"candidate_id" validate:"required"`
	ApplicationID *uint  `json:"application_id"`
	Date          *Date  `json:"date" swaggertype:"string" example:"2025-06-20"`
	Time          string `json:"time" example:"10:00"`
	Location      string `json:"location"`
	Jury          string `json:"jury"`
}

// UpdateDefenseRequest is a full defense update; absent fields keep their value
type UpdateDefenseRequest struct {
	ApplicationID *uint                `json:"application_id"`
	Date          *Date                `json:"date" swaggertype:"string"`
	Time          *string              `json:"time"`
	Location      *string              `json:"location"`
	Jury          *string              `json:"jury"`
	Outcome       *string              `json:"outcome"`
	Status        models.DefenseStatus `json:"status"`
}

// DefenseStatusRequest changes only the defense status
type DefenseStatusRequest struct {
	Status models.DefenseStatus `json:"status" validate:"required"`
}

// List lists defenses
// @Summary List defenses
// @Tags Defenses
// @Produce json
// @Security BearerAuth
// @Param candidate_id query int false "Filter by candidate"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.DefenseWithCandidate
// @Router /defenses [get]
func (h *DefenseHandler) List(w http.ResponseWriter, r *http.Request) {
	candidateID, err := queryID(r, "candidate_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	defenses, err := h.defenses.List(r.Context(), repository.DefenseFilter{
		CandidateID: candidateID,
		Status:      models.DefenseStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		respondWithErr(w, r, "Failed to list defenses", err)
		return
	}
	respondWithJSON(w, http.StatusOK, defenses)
}

// ByCandidate lists the defenses of one candidate
// @Summary Defenses of a candidate
// @Tags Defenses
// @Produce json
// @Security BearerAuth
// @Param candidateId path int true "Candidate ID"
// @Success 200 {array} models.DefenseWithCandidate
// @Router /defenses/candidate/{candidateId} [get]
func (h *DefenseHandler) ByCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "candidateId")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	defenses, err := h.defenses.List(r.Context(), repository.DefenseFilter{CandidateID: id})
	if err != nil {
		respondWithErr(w, r, "Failed to list defenses", err, "candidate_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, defenses)
}

// Upcoming lists scheduled defenses from today on
// @Summary Upcoming defenses
// @Tags Defenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.DefenseWithCandidate
// @Router /defenses/status/upcoming [get]
func (h *DefenseHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	defenses, err := h.defenses.Upcoming(r.Context(), h.now())
	if err != nil {
		respondWithErr(w, r, "Failed to list upcoming defenses", err)
		return
	}
	respondWithJSON(w, http.StatusOK, defenses)
}

// Get returns one defense
// @Summary Get defense
// @Tags Defenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Defense ID"
// @Success 200 {object} models.DefenseWithCandidate
// @Failure 404 {object} map[string]string "Defense not found"
// @Router /defenses/{id} [get]
func (h *DefenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid defense id", err)
		return
	}
	d, err := h.defenses.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get defense", err, "defense_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}

// Create schedules a defense
// @Summary Schedule defense
// @Description A candidate has at most one defense that is not cancelled. A linked
// @Description application moves to the defense stage.
// @Tags Defenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param defense body ScheduleDefenseRequest true "Defense"
// @Success 201 {object} models.Defense
// @Failure 404 {object} map[string]string "Candidate or application not found"
// @Failure 409 {object} map[string]string "Candidate already has an active defense"
// @Router /defenses [post]
func (h *DefenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScheduleDefenseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid defense", err)
		return
	}

	d, err := h.engine.ScheduleDefense(r.Context(), workflow.DefenseInput{
		CandidateID:   req.CandidateID,
		ApplicationID: req.ApplicationID,
		Date:          req.Date.Ptr(),
		Time:          req.Time,
		Location:      req.Location,
		Jury:          req.Jury,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to schedule defense", err, "candidate_id", req.CandidateID)
		return
	}
	respondWithJSON(w, http.StatusCreated, d)
}

// Update applies a full defense update
// @Summary Update defense
// @Tags Defenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Defense ID"
// @Param defense body UpdateDefenseRequest true "Defense"
// @Success 200 {object} models.Defense
// @Failure 404 {object} map[string]string "Defense not found"
// @Failure 409 {object} map[string]string "Candidate already has an active defense"
// @Router /defenses/{id} [put]
func (h *DefenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid defense id", err)
		return
	}
	var req UpdateDefenseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid defense", err)
		return
	}

	d, err := h.engine.UpdateDefense(r.Context(), id, workflow.DefenseUpdate{
		ApplicationID: req.ApplicationID,
		Date:          req.Date.Ptr(),
		Time:          req.Time,
		Location:      req.Location,
		Jury:          req.Jury,
		Outcome:       req.Outcome,
		Status:        req.Status,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to update defense", err, "defense_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}

// UpdateStatus changes the status of a defense
// @Summary Change defense status
// @Description Completing a defense linked to an application moves the application
// @Description to the diploma stage with status approved.
// @Tags Defenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Defense ID"
// @Param status body DefenseStatusRequest true "New status"
// @Success 200 {object} models.Defense
// @Failure 404 {object} map[string]string "Defense not found"
// @Failure 422 {object} map[string]string "Unknown status"
// @Router /defenses/{id}/status [patch]
func (h *DefenseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid defense id", err)
		return
	}
	var req DefenseStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid defense status", err)
		return
	}

	d, err := h.engine.SetDefenseStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWithErr(w, r, "Failed to change defense status", err, "defense_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, d)
}

// Delete removes a defense
// @Summary Delete defense
// @Tags Defenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Defense ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Defense not found"
// @Router /defenses/{id} [delete]
func (h *DefenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid defense id", err)
		return
	}
	if err := h.engine.DeleteDefense(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete defense", err, "defense_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Defense deleted successfully"})
}
