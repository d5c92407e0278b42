package handlers

import (
	"net/http"

	"hu-tracker/internal/docgen"
	"hu-tracker/internal/models"
	"hu-tracker/internal/service"
)

// GenerationHandler renders official documents
type GenerationHandler struct {
	generator *service.GenerationService
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(generator *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generator: generator}
}

// GenerationResponse reports a generated document
type GenerationResponse struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Filename    string           `json:"filename"`
	Document    *models.Document `json:"document"`
	DownloadURL string           `json:"download_url"`
	Emailed     bool             `json:"emailed,omitempty"`
}

func respondGenerated(w http.ResponseWriter, message string, gen *service.Generated) {
	respondWithJSON(w, http.StatusCreated, GenerationResponse{
		Success:     true,
		Message:     message,
		Filename:    gen.Filename,
		Document:    gen.Document,
		DownloadURL: documentURL(gen.Document),
		Emailed:     gen.Emailed,
	})
}

func documentURL(doc *models.Document) string {
	if doc == nil || doc.ID == 0 {
		return ""
	}
	return apiPrefix + "/documents/download/" + itoa(doc.ID)
}

// AuthorizationRequest selects the authorization document
type AuthorizationRequest struct {
	Type docgen.AuthorizationKind `json:"type" example:"inscription"`
}

// InvitationRequest holds the defense details of a rapporteur invitation
type InvitationRequest struct {
	CandidateID uint   `json:"candidateId" validate:"required"`
	DefenseDate *Date  `json:"defenseDate" swaggertype:"string"`
	DefenseTime string `json:"defenseTime"`
	Location    string `json:"location"`
	Notify      bool   `json:"notify"`
}

// MinutesRequest lists the decisions written into the minutes
type MinutesRequest struct {
	Decisions []docgen.Decision `json:"decisions"`
}

// ConvocationRequest overrides the defense details of a convocation
type ConvocationRequest struct {
	Date     *Date  `json:"date" swaggertype:"string"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

// DiplomaRequest holds the diploma details
type DiplomaRequest struct {
	DefenseDate *Date  `json:"defenseDate" swaggertype:"string"`
	Grade       string `json:"grade" example:"Très honorable"`
}

// decodeOptional reads an optional JSON body; an empty body leaves dst unchanged
func decodeOptional(r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return decodeAndValidate(r, dst)
}

// Authorization generates an inscription or defense authorization
// @Summary Generate authorization
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param candidateId path int true "Candidate ID"
// @Param request body AuthorizationRequest false "inscription (default) or soutenance"
// @Success 201 {object} GenerationResponse
// @Failure 400 {object} map[string]string "Unknown authorization type"
// @Failure 404 {object} map[string]string "Candidate not found"
// @Router /generate/authorization/{candidateId} [post]
func (h *GenerationHandler) Authorization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "candidateId")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	req := AuthorizationRequest{Type: docgen.AuthorizationInscription}
	if err := decodeOptional(r, &req); err != nil {
		respondWithErr(w, r, "Invalid authorization request", err)
		return
	}
	if req.Type == "" {
		req.Type = docgen.AuthorizationInscription
	}

	gen, err := h.generator.Authorization(r.Context(), id, req.Type)
	if err != nil {
		respondWithErr(w, r, "Failed to generate authorization", err, "candidate_id", id)
		return
	}
	respondGenerated(w, "Autorisation générée avec succès", gen)
}

// Invitation generates a rapporteur invitation letter
// @Summary Generate rapporteur invitation
// @Description With notify set and email configured the letter is also mailed to the rapporteur.
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rapporteurId path int true "Rapporteur ID"
// @Param request body InvitationRequest true "Invitation"
// @Success 201 {object} GenerationResponse
// @Failure 404 {object} map[string]string "Rapporteur or candidate not found"
// @Router /generate/invitation/{rapporteurId} [post]
func (h *GenerationHandler) Invitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "rapporteurId")
	if err != nil {
		respondWithErr(w, r, "Invalid rapporteur id", err)
		return
	}
	var req InvitationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid invitation request", err)
		return
	}

	gen, err := h.generator.Invitation(r.Context(), id, service.InvitationRequest{
		CandidateID: req.CandidateID,
		DefenseDate: req.DefenseDate.Ptr(),
		DefenseTime: req.DefenseTime,
		Location:    req.Location,
		Notify:      req.Notify,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to generate invitation", err, "rapporteur_id", id)
		return
	}
	respondGenerated(w, "Invitation générée avec succès", gen)
}

// Minutes generates the procès-verbal of a meeting
// @Summary Generate meeting minutes
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetingId path int true "Meeting ID"
// @Param request body MinutesRequest false "Decisions"
// @Success 201 {object} GenerationResponse
// @Failure 404 {object} map[string]string "Meeting not found"
// @Router /generate/pv/{meetingId} [post]
func (h *GenerationHandler) Minutes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "meetingId")
	if err != nil {
		respondWithErr(w, r, "Invalid meeting id", err)
		return
	}
	var req MinutesRequest
	if err := decodeOptional(r, &req); err != nil {
		respondWithErr(w, r, "Invalid minutes request", err)
		return
	}

	gen, err := h.generator.Minutes(r.Context(), id, req.Decisions)
	if err != nil {
		respondWithErr(w, r, "Failed to generate minutes", err, "meeting_id", id)
		return
	}
	respondGenerated(w, "Procès-verbal généré avec succès", gen)
}

// Convocation generates the candidate's defense convocation
// @Summary Generate convocation
// @Description Missing details come from the candidate's active defense.
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param candidateId path int true "Candidate ID"
// @Param request body ConvocationRequest false "Overrides"
// @Success 201 {object} GenerationResponse
// @Failure 404 {object} map[string]string "Candidate not found"
// @Router /generate/convocation/{candidateId} [post]
func (h *GenerationHandler) Convocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "candidateId")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	var req ConvocationRequest
	if err := decodeOptional(r, &req); err != nil {
		respondWithErr(w, r, "Invalid convocation request", err)
		return
	}

	gen, err := h.generator.Convocation(r.Context(), id, service.ConvocationRequest{
		Date:     req.Date.Ptr(),
		Time:     req.Time,
		Location: req.Location,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to generate convocation", err, "candidate_id", id)
		return
	}
	respondGenerated(w, "Convocation générée avec succès", gen)
}

// Diploma generates the candidate's diploma
// @Summary Generate diploma
// @Tags Generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param candidateId path int true "Candidate ID"
// @Param request body DiplomaRequest false "Diploma details"
// @Success 201 {object} GenerationResponse
// @Failure 404 {object} map[string]string "Candidate not found"
// @Router /generate/diploma/{candidateId} [post]
func (h *GenerationHandler) Diploma(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "candidateId")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	var req DiplomaRequest
	if err := decodeOptional(r, &req); err != nil {
		respondWithErr(w, r, "Invalid diploma request", err)
		return
	}

	gen, err := h.generator.Diploma(r.Context(), id, service.DiplomaRequest{
		DefenseDate: req.DefenseDate.Ptr(),
		Grade:       req.Grade,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to generate diploma", err, "candidate_id", id)
		return
	}
	respondGenerated(w, "Diplôme généré avec succès", gen)
}

// Summary generates the complete candidate file
// @Summary Generate candidate summary
// @Tags Generation
// @Produce json
// @Security BearerAuth
// @Param candidateId path int true "Candidate ID"
// @Success 201 {object} GenerationResponse
// @Failure 404 {object} map[string]string "Candidate not found"
// @Router /generate/summary/{candidateId} [post]
func (h *GenerationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "candidateId")
	if err != nil {
		respondWithErr(w, r, "Invalid candidate id", err)
		return
	}
	gen, err := h.generator.Summary(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to generate summary", err, "candidate_id", id)
		return
	}
	respondGenerated(w, "Dossier complet généré avec succès", gen)
}
