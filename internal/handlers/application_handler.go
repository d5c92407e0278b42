package handlers

import (
	"net/http"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
)

// ApplicationHandler handles application requests
type ApplicationHandler struct {
	applications *repository.ApplicationRepository
	engine       *workflow.Engine
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications *repository.ApplicationRepository, engine *workflow.Engine) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		engine:       engine,
	}
}

// CreateApplicationRequest opens an application for a candidate
type CreateApplicationRequest struct {
	CandidateID    uint   `json:"candidate_id" validate:"required"`
	SubmissionDate *Date  `json:"submission_date" swaggertype:"string" example:"2025-01-15"`
	Notes          string `json:"notes"`
}

// StageOverrideRequest sets status, stage and progress of an application
type StageOverrideRequest struct {
	Status       models.ApplicationStatus `json:"status" validate:"required"`
	CurrentStage models.Stage             `json:"current_stage" validate:"required"`
	Progress     *int                     `json:"progress"`
}

// List lists applications with their candidate
// @Summary List applications
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param candidate_id query int false "Filter by candidate"
// @Param status query string false "Filter by status"
// @Param stage query string false "Filter by current stage"
// @Success 200 {array} models.ApplicationWithCandidate
// @Router /applications [get]
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	candidateID, err := queryID(r, "candidate_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	q := r.URL.Query()
	apps, err := h.applications.List(r.Context(), repository.ApplicationFilter{
		CandidateID: candidateID,
		Status:      models.ApplicationStatus(q.Get("status")),
		Stage:       models.Stage(q.Get("stage")),
	})
	if err != nil {
		respondWithErr(w, r, "Failed to list applications", err)
		return
	}
	respondWithJSON(w, http.StatusOK, apps)
}

// Get returns one application
// @Summary Get application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.ApplicationWithCandidate
// @Failure 404 {object} map[string]string "Application not found"
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	app, err := h.applications.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get application", err, "application_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, app)
}

// Create opens a new application at document verification
// @Summary Create application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param application body CreateApplicationRequest true "Application"
// @Success 201 {object} models.Application
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Candidate not found"
// @Router /applications [post]
func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateApplicationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid application", err)
		return
	}

	app, err := h.engine.CreateApplication(r.Context(), req.CandidateID, workflow.NewApplication{
		SubmissionDate: req.SubmissionDate.Ptr(),
		Notes:          req.Notes,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to create application", err, "candidate_id", req.CandidateID)
		return
	}
	respondWithJSON(w, http.StatusCreated, app)
}

// UpdateStatus is the administrative stage override
// @Summary Override application stage
// @Description Writes status, stage and progress without applying transition rules.
// @Description Without progress the stage's canonical progress is used.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param override body StageOverrideRequest true "New status and stage"
// @Success 200 {object} models.Application
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Application not found"
// @Failure 422 {object} map[string]string "Unknown stage or status"
// @Router /applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	var req StageOverrideRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid stage override", err)
		return
	}

	app, err := h.engine.SetApplicationStage(r.Context(), id, req.Status, req.CurrentStage, req.Progress)
	if err != nil {
		respondWithErr(w, r, "Failed to override application stage", err, "application_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, app)
}

// DocumentsComplete moves the application to committee review
// @Summary Mark documents complete
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} models.Application
// @Failure 404 {object} map[string]string "Application not found"
// @Failure 422 {object} map[string]string "Application is past committee review"
// @Router /applications/{id}/documents-complete [post]
func (h *ApplicationHandler) DocumentsComplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	app, err := h.engine.MarkDocumentsComplete(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to mark documents complete", err, "application_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, app)
}

// Delete removes an application with its evaluations and reports
// @Summary Delete application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Application not found"
// @Router /applications/{id} [delete]
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	if err := h.engine.DeleteApplication(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete application", err, "application_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Application deleted successfully"})
}

// Stats returns application counts per status
// @Summary Application statistics
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ApplicationStats
// @Router /applications/stats/overview [get]
func (h *ApplicationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.applications.Stats(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to get application stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
