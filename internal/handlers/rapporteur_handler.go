package handlers

import (
	"net/http"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
	"hu-tracker/pkg/validator"
)

// RapporteurHandler handles external rapporteur requests
type RapporteurHandler struct {
	rapporteurs *repository.RapporteurRepository
	engine      *workflow.Engine
}

// NewRapporteurHandler creates a new rapporteur handler
func NewRapporteurHandler(rapporteurs *repository.RapporteurRepository, engine *workflow.Engine) *RapporteurHandler {
	return &RapporteurHandler{
		rapporteurs: rapporteurs,
		engine:      engine,
	}
}

// RapporteurRequest is the body of rapporteur create and update requests
type RapporteurRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Institution    string `json:"institution"`
	Email          string `json:"email" validate:"email"`
	Phone          string `json:"phone"`
	Specialization string `json:"specialization"`
}

func (req *RapporteurRequest) apply(rp *models.Rapporteur) {
	rp.Name = validator.SanitizeString(req.Name)
	rp.Institution = validator.SanitizeString(req.Institution)
	rp.Email = validator.SanitizeEmail(req.Email)
	rp.Phone = validator.SanitizeString(req.Phone)
	rp.Specialization = validator.SanitizeString(req.Specialization)
}

// List lists rapporteurs
// @Summary List rapporteurs
// @Tags Rapporteurs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Rapporteur
// @Router /rapporteurs [get]
func (h *RapporteurHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.rapporteurs.List(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to list rapporteurs", err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// Get returns one rapporteur
// @Summary Get rapporteur
// @Tags Rapporteurs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rapporteur ID"
// @Success 200 {object} models.Rapporteur
// @Failure 404 {object} map[string]string "Rapporteur not found"
// @Router /rapporteurs/{id} [get]
func (h *RapporteurHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid rapporteur id", err)
		return
	}
	rp, err := h.rapporteurs.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get rapporteur", err, "rapporteur_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, rp)
}

// Create registers a rapporteur
// @Summary Create rapporteur
// @Tags Rapporteurs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rapporteur body RapporteurRequest true "Rapporteur"
// @Success 201 {object} models.Rapporteur
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /rapporteurs [post]
func (h *RapporteurHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RapporteurRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid rapporteur", err)
		return
	}
	var rp models.Rapporteur
	req.apply(&rp)
	if err := h.rapporteurs.Create(r.Context(), &rp); err != nil {
		respondWithErr(w, r, "Failed to create rapporteur", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rp)
}

// Update replaces the contact details of a rapporteur
// @Summary Update rapporteur
// @Tags Rapporteurs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rapporteur ID"
// @Param rapporteur body RapporteurRequest true "Rapporteur"
// @Success 200 {object} models.Rapporteur
// @Failure 404 {object} map[string]string "Rapporteur not found"
// @Router /rapporteurs/{id} [put]
func (h *RapporteurHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid rapporteur id", err)
		return
	}
	var req RapporteurRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid rapporteur", err)
		return
	}

	rp, err := h.rapporteurs.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get rapporteur", err, "rapporteur_id", id)
		return
	}
	req.apply(rp)
	if err := h.rapporteurs.Update(r.Context(), rp); err != nil {
		respondWithErr(w, r, "Failed to update rapporteur", err, "rapporteur_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, rp)
}

// Delete removes a rapporteur. Evaluations keep the captured rapporteur name.
// @Summary Delete rapporteur
// @Tags Rapporteurs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rapporteur ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Rapporteur not found"
// @Router /rapporteurs/{id} [delete]
func (h *RapporteurHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid rapporteur id", err)
		return
	}
	if err := h.engine.DeleteRapporteur(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete rapporteur", err, "rapporteur_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Rapporteur deleted successfully"})
}

// Workload lists rapporteurs with their open evaluation count
// @Summary Rapporteur workload
// @Tags Rapporteurs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.RapporteurWorkload
// @Router /rapporteurs/stats/overview [get]
func (h *RapporteurHandler) Workload(w http.ResponseWriter, r *http.Request) {
	load, err := h.rapporteurs.Workload(r.Context())
	if err != nil {
		respondWithErr(w, r, "Failed to get rapporteur workload", err)
		return
	}
	respondWithJSON(w, http.StatusOK, load)
}
