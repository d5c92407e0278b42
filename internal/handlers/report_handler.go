package handlers

import (
	"net/http"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
	"hu-tracker/internal/workflow"
)

// ReportHandler handles rapporteur report requests
type ReportHandler struct {
	reports   *repository.ReportRepository
	engine    *workflow.Engine
	generator *service.GenerationService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *repository.ReportRepository, engine *workflow.Engine, generator *service.GenerationService) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		engine:    engine,
		generator: generator,
	}
}

// SubmitReportRequest is a rapporteur's formal report
type SubmitReportRequest struct {
	ApplicationID  uint                  `json:"application_id" validate:"required"`
	RapporteurID   uint                  `json:"rapporteur_id" validate:"required"`
	SubmissionDate *Date                 `json:"submission_date" swaggertype:"string" example:"2025-05-02"`
	Content        string                `json:"content"`
	Recommendation models.Recommendation `json:"recommendation" validate:"required"`
}

// UpdateReportRequest edits the text of a report
type UpdateReportRequest struct {
	Content        string                `json:"content"`
	Recommendation models.Recommendation `json:"recommendation" validate:"required,oneof=favorable favorable_with_reservations unfavorable"`
}

func (h *ReportHandler) list(w http.ResponseWriter, r *http.Request, f repository.ReportFilter) {
	reports, err := h.reports.List(r.Context(), f)
	if err != nil {
		respondWithErr(w, r, "Failed to list reports", err)
		return
	}
	respondWithJSON(w, http.StatusOK, reports)
}

// List lists reports
// @Summary List reports
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param application_id query int false "Filter by application"
// @Param rapporteur_id query int false "Filter by rapporteur"
// @Param recommendation query string false "Filter by recommendation"
// @Success 200 {array} models.ReportWithDetails
// @Router /reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	applicationID, err := queryID(r, "application_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	rapporteurID, err := queryID(r, "rapporteur_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	h.list(w, r, repository.ReportFilter{
		ApplicationID:  applicationID,
		RapporteurID:   rapporteurID,
		Recommendation: models.Recommendation(r.URL.Query().Get("recommendation")),
	})
}

// ByApplication lists the reports of one application
// @Summary Reports of an application
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param applicationId path int true "Application ID"
// @Success 200 {array} models.ReportWithDetails
// @Router /reports/application/{applicationId} [get]
func (h *ReportHandler) ByApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	h.list(w, r, repository.ReportFilter{ApplicationID: id})
}

// ByRapporteur lists the reports written by one rapporteur
// @Summary Reports of a rapporteur
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param rapporteurId path int true "Rapporteur ID"
// @Success 200 {array} models.ReportWithDetails
// @Router /reports/rapporteur/{rapporteurId} [get]
func (h *ReportHandler) ByRapporteur(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "rapporteurId")
	if err != nil {
		respondWithErr(w, r, "Invalid rapporteur id", err)
		return
	}
	h.list(w, r, repository.ReportFilter{RapporteurID: id})
}

// Get returns one report
// @Summary Get report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} models.ReportWithDetails
// @Failure 404 {object} map[string]string "Report not found"
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid report id", err)
		return
	}
	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get report", err, "report_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Create submits a rapporteur report
// @Summary Submit report
// @Description Marks the rapporteur's evaluations as report submitted. Once every
// @Description assigned rapporteur has reported the application moves to defense authorization.
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param report body SubmitReportRequest true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Application or rapporteur not found"
// @Failure 422 {object} map[string]string "Unknown recommendation"
// @Router /reports [post]
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SubmitReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid report", err)
		return
	}

	report, err := h.engine.SubmitReport(r.Context(), req.ApplicationID, req.RapporteurID, workflow.ReportInput{
		Content:        req.Content,
		Recommendation: req.Recommendation,
		Date:           req.SubmissionDate.Ptr(),
	})
	if err != nil {
		respondWithErr(w, r, "Failed to submit report", err,
			"application_id", req.ApplicationID, "rapporteur_id", req.RapporteurID)
		return
	}
	respondWithJSON(w, http.StatusCreated, report)
}

// Update edits the content and recommendation of a report
// @Summary Update report
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param report body UpdateReportRequest true "Report content"
// @Success 200 {object} models.ReportWithDetails
// @Failure 404 {object} map[string]string "Report not found"
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid report id", err)
		return
	}
	var req UpdateReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid report", err)
		return
	}

	if err := h.reports.UpdateContent(r.Context(), id, req.Content, req.Recommendation); err != nil {
		respondWithErr(w, r, "Failed to update report", err, "report_id", id)
		return
	}
	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get report", err, "report_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Delete removes a report
// @Summary Delete report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Report not found"
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid report id", err)
		return
	}
	if err := h.engine.DeleteReport(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete report", err, "report_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Report deleted successfully"})
}

// Generate renders the evaluation report PDF of an application
// @Summary Generate evaluation report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param applicationId path int true "Application ID"
// @Success 201 {object} GenerationResponse
// @Failure 404 {object} map[string]string "Application not found"
// @Router /reports/generate/{applicationId} [post]
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	gen, err := h.generator.EvaluationReport(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to generate evaluation report", err, "application_id", id)
		return
	}
	respondGenerated(w, "Rapport généré avec succès", gen)
}

// Stats returns report counts per recommendation
// @Summary Report statistics
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ReportStats
// @Router /reports/stats/overview [get]
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Stats(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to get report stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
