package handlers

import (
	"fmt"
	"net/http"
	"time"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/workflow"
)

// MeetingHandler handles committee meeting requests
type MeetingHandler struct {
	meetings *repository.MeetingRepository
	engine   *workflow.Engine
	now      func() time.Time
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(meetings *repository.MeetingRepository, engine *workflow.Engine) *MeetingHandler {
	return &MeetingHandler{
		meetings: meetings,
		engine:   engine,
		now:      time.Now,
	}
}

// MeetingRequest is the body of meeting create and update requests.
// On update, absent fields keep their value.
type MeetingRequest struct {
	Date      *Date                 `json:"date" swaggertype:"string" example:"2025-03-12"`
	Time      *string               `json:"time" example:"14:30"`
	Type      *string               `json:"type"`
	Status    *models.MeetingStatus `json:"status"`
	Attendees *string               `json:"attendees"`
	Decisions *string               `json:"decisions"`
	Minutes   *string               `json:"minutes"`
}

func (req *MeetingRequest) apply(m *models.Meeting) error {
	if req.Status != nil {
		if !req.Status.Valid() {
			return fmt.Errorf("%w: unknown meeting status %q", errValidation, *req.Status)
		}
		m.Status = *req.Status
	}
	if req.Date != nil {
		m.Date = req.Date.Ptr()
	}
	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&m.Time, req.Time},
		{&m.Type, req.Type},
		{&m.Attendees, req.Attendees},
		{&m.Decisions, req.Decisions},
		{&m.Minutes, req.Minutes},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return nil
}

// List lists meetings, optionally by status
// @Summary List meetings
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Meeting
// @Router /meetings [get]
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetings.List(r.Context(), models.MeetingStatus(r.URL.Query().Get("status")))
	if err != nil {
		respondWithErr(w, r, "Failed to list meetings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, meetings)
}

// Upcoming lists planned meetings from today on
// @Summary Upcoming meetings
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Meeting
// @Router /meetings/status/upcoming [get]
func (h *MeetingHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetings.Upcoming(r.Context(), h.now())
	if err != nil {
		respondWithErr(w, r, "Failed to list upcoming meetings", err)
		return
	}
	respondWithJSON(w, http.StatusOK, meetings)
}

// Get returns one meeting
// @Summary Get meeting
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meeting ID"
// @Success 200 {object} models.Meeting
// @Failure 404 {object} map[string]string "Meeting not found"
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid meeting id", err)
		return
	}
	m, err := h.meetings.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get meeting", err, "meeting_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// Create plans a meeting
// @Summary Create meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meeting body MeetingRequest true "Meeting"
// @Success 201 {object} models.Meeting
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /meetings [post]
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid meeting", err)
		return
	}
	var m models.Meeting
	if err := req.apply(&m); err != nil {
		respondWithErr(w, r, "Invalid meeting", err)
		return
	}
	if m.Date == nil {
		respondWithError(w, http.StatusBadRequest, "date is required")
		return
	}

	if err := h.meetings.Create(r.Context(), &m); err != nil {
		respondWithErr(w, r, "Failed to create meeting", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}

// Update changes the given fields of a meeting
// @Summary Update meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meeting ID"
// @Param meeting body MeetingRequest true "Fields to change"
// @Success 200 {object} models.Meeting
// @Failure 404 {object} map[string]string "Meeting not found"
// @Router /meetings/{id} [put]
func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid meeting id", err)
		return
	}
	var req MeetingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithErr(w, r, "Invalid meeting", err)
		return
	}

	m, err := h.meetings.GetByID(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, "Failed to get meeting", err, "meeting_id", id)
		return
	}
	if err := req.apply(m); err != nil {
		respondWithErr(w, r, "Invalid meeting", err)
		return
	}
	if err := h.meetings.Update(r.Context(), m); err != nil {
		respondWithErr(w, r, "Failed to update meeting", err, "meeting_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, m)
}

// Delete removes a meeting
// @Summary Delete meeting
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Meeting ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Meeting not found"
// @Router /meetings/{id} [delete]
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithErr(w, r, "Invalid meeting id", err)
		return
	}
	if err := h.engine.DeleteMeeting(r.Context(), id); err != nil {
		respondWithErr(w, r, "Failed to delete meeting", err, "meeting_id", id)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Meeting deleted successfully"})
}
