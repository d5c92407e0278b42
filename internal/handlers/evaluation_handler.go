package handlers

import (
	"errors"
	"net/http"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
)

// EvaluationHandler handles rapporteur evaluation requests
type EvaluationHandler struct {
	evaluations *repository.EvaluationRepository
	engine      *workflow.Engine
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evaluations *repository.EvaluationRepository, engine *workflow.Engine) *EvaluationHandler {
	return &EvaluationHandler{
		evaluations: evaluations,
		engine:      engine,
	}
}

// BatchAssignRequest assigns rapporteurs to an application
type BatchAssignRequest struct {
	ApplicationID uint   `json:"application_id" validate:"required"`
	EvaluatorIDs  []uint `json:"evaluator_ids"`
	Deadline      *Date  `json:"deadline" swaggertype:"string" example:"2025-04-30"`
}

// UpdateEvaluationRequest carries a rapporteur's evaluation
type UpdateEvaluationRequest struct {
	Score          *int                       `json:"score" validate:"min=0,max=100"`
	Comments       *models.EvaluationComments `json:"comments"`
	Status         models.EvaluationStatus    `json:"status"`
	EvaluationDate *Date                      `json:"evaluation_date" swaggertype:"string"`
}

// BatchAssignResponse is returned by batch assignment, also when some items failed
type BatchAssignResponse struct {
	Message string `json:"message"`
	*workflow.AssignmentResult
}

func (h *EvaluationHandler) list(w http.ResponseWriter, r *http.Request, f repository.EvaluationFilter) {
	evals, err := h.evaluations.List(r.Context(), f)
	if err != nil {
		respondWithErr(w, r, "Failed to list evaluations", err)
		return
	}
	respondWithJSON(w, http.StatusOK, evals)
}

// List lists evaluations
// @Summary List evaluations
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param application_id query int false "Filter by application"
// @Param evaluator_id query int false "Filter by rapporteur"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Evaluation
// @Router /evaluations [get]
func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	applicationID, err := queryID(r, "application_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	evaluatorID, err := queryID(r, "evaluator_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}
	h.list(w, r, repository.EvaluationFilter{
		ApplicationID: applicationID,
		EvaluatorID:   evaluatorID,
		Status:        models.EvaluationStatus(r.URL.Query().Get("status")),
	})
}

// ByApplication lists the evaluations of one application
// @Summary Evaluations of an application
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param applicationId path int true "Application ID"
// @Success 200 {array} models.Evaluation
// @Router /evaluations/application/{applicationId} [get]
func (h *EvaluationHandler) ByApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "applicationId")
	if err != nil {
		respondWithErr(w, r, "Invalid application id", err)
		return
	}
	h.list(w, r, repository.EvaluationFilter{ApplicationID: id})
}

// ByEvaluator lists the evaluations assigned to one rapporteur
// @Summary Evaluations of a rapporteur
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param evaluatorId path int true "Rapporteur ID"
// @Success 200 {array} models.Evaluation
// @Router /evaluations/evaluator/{evaluatorId} [get]
func (h *EvaluationHandler) ByEvaluator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "evaluatorId")
	if err != nil {
		respondWithErr(w, r, "Invalid rapporteur id", err)
		return
	}
	h.list(w, r, repository.EvaluationFilter{EvaluatorID: id})
}

// Get returns one evaluation
// @Summary Get evaluation
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evaluation ID"
// @Success 200 {object} models.Evaluation
// @Failure 404 {object} map[string]string "Evaluation not found"
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid evaluation id", err)
		return
	}
	ev, err := h.evaluations.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get evaluation", err, "evaluation_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, ev)
}

// Update submits a rapporteur evaluation
// @Summary Submit evaluation
// @Description When the last evaluation of an application becomes terminal the
// @Description application moves to defense authorization.
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evaluation ID"
// @Param evaluation body UpdateEvaluationRequest true "Evaluation"
// @Success 200 {object} models.Evaluation
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Evaluation not found"
// @Router /evaluations/{id} [put]
func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid evaluation id", err)
		return
	}
	var req UpdateEvaluationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid evaluation", err)
		return
	}

	ev, err := h.engine.SubmitEvaluation(r.Context(), id, workflow.EvaluationUpdate{
		Score:          req.Score,
		Comments:       req.Comments,
		Status:         req.Status,
		EvaluationDate: req.EvaluationDate.Ptr(),
	})
	if err != nil {
		respondWithErr(w, r, "Failed to submit evaluation", err, "evaluation_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, ev)
}

// Delete removes an evaluation
// @Summary Delete evaluation
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Evaluation ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Evaluation not found"
// @Router /evaluations/{id} [delete]
func (h *EvaluationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid evaluation id", err)
		return
	}
	if err := h.engine.DeleteEvaluation(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete evaluation", err, "evaluation_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Evaluation deleted successfully"})
}

// BatchAssign assigns rapporteurs to an application
// @Summary Assign rapporteurs
// @Description Creates one evaluation per rapporteur. Items that fail are listed in
// @Description failures; the response is 207 when some succeeded and 422 when none did.
// @Tags Evaluations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body BatchAssignRequest true "Rapporteurs to assign"
// @Success 201 {object} BatchAssignResponse
// @Success 207 {object} BatchAssignResponse "Some assignments failed"
// @Failure 404 {object} map[string]string "Application not found"
// @Failure 422 {object} map[string]string "Too few rapporteurs or no assignment succeeded"
// @Router /evaluations/batch-assign [post]
func (h *EvaluationHandler) BatchAssign(w http.ResponseWriter, r *http.Request) {
	var req BatchAssignRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid assignment", err)
		return
	}

	result, err := h.engine.AssignRapporteurs(r.Context(), req.ApplicationID, req.EvaluatorIDs, req.Deadline.Ptr())
	var batch *workflow.BatchError
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusCreated, BatchAssignResponse{
			Message:          "Rapporteurs assigned successfully",
			AssignmentResult: result,
		})
	case errors.As(err, &batch) && result != nil:
		logPartial(r, err, "application_id", req.ApplicationID)
		respondWithJSON(w, statusFor(err), BatchAssignResponse{
			Message:          batch.Error(),
			AssignmentResult: result,
		})
	default:
		respondWithErr(w, r, "Failed to assign rapporteurs", err, "application_id", req.ApplicationID)
	}
}

// Stats returns evaluation counts and the average score
// @Summary Evaluation statistics
// @Tags Evaluations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.EvaluationStats
// @Router /evaluations/stats/overview [get]
func (h *EvaluationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.evaluations.Stats(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to get evaluation stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
