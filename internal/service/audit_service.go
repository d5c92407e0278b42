package service

import (
	"context"
	"log/slog"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
)

// Audit actions recorded by the API
const (
	ActionRegister         = "user.register"
	ActionLogin            = "user.login"
	ActionLoginFailed      = "user.login.failed"
	ActionStageOverride    = "application.stage_override"
	ActionDeleteCandidate  = "candidate.delete"
	ActionDeleteRecord     = "record.delete"
	ActionDocumentUpload   = "document.upload"
	ActionDocumentGenerate = "document.generate"
)

// AuditService handles audit logging
type AuditService struct {
	auditRepo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *repository.AuditRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log records an entry. A failure is logged and otherwise ignored so that it
// never fails the audited operation.
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLog) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		slog.Error("Failed to write audit log", "action", entry.Action, "resource", entry.Resource, "error", err)
	}
}

// List returns audit entries, newest first
func (s *AuditService) List(ctx context.Context, f repository.AuditFilter) ([]models.AuditLog, error) {
	return s.auditRepo.List(ctx, f)
}
