package repository

import (
	"context"
	"time"

	"hu-tracker/internal/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (user_id, action, resource, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	log.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Action,
		log.Resource,
		log.Details,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return mapError("create audit log", err)
	}
	return nil
}

// AuditFilter narrows List; Limit defaults to 50
type AuditFilter struct {
	UserID uint
	Action string
	Limit  int
	Offset int
}

// List returns audit entries, newest first
func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	var w where
	if f.UserID != 0 {
		w.add("user_id = $%d", f.UserID)
	}
	if f.Action != "" {
		w.add("action = $%d", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	args := append(w.args, limit, max(f.Offset, 0))

	query := `
		SELECT id, user_id, action, resource, details, ip_address, user_agent, created_at
		FROM audit_logs` + w.String() + `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list audit logs", err)
	}
	logs, err := collect(rows, func(row scanner) (models.AuditLog, error) {
		var l models.AuditLog
		err := row.Scan(
			&l.ID,
			&l.UserID,
			&l.Action,
			&l.Resource,
			&l.Details,
			&l.IPAddress,
			&l.UserAgent,
			&l.CreatedAt,
		)
		return l, err
	})
	if err != nil {
		return nil, mapError("scan audit logs", err)
	}
	return logs, nil
}
