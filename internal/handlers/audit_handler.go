package handlers

import (
	"net/http"
	"strconv"

	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// ListAuditLogs lists audit logs with pagination (admin only)
// @Summary List audit logs
// @Description Get a paginated list of audit logs, newest first (admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Param user_id query int false "Filter by user"
// @Param action query string false "Filter by action"
// @Success 200 {array} models.AuditLog "List of audit logs"
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden - admin only"
// @Router /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page := 1
	limit := 50

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	userID, err := queryID(r, "user_id")
	if err != nil {
		respondWithErr(w, r, "Invalid filter", err)
		return
	}

	logs, err := h.auditService.List(r.Context(), repository.AuditFilter{
		UserID: userID,
		Action: r.URL.Query().Get("action"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		respondWithErr(w, r, "Failed to retrieve audit logs", err)
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}
