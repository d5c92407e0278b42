package repository

import (
	"context"
	"database/sql"
	"errors"

	"hu-tracker/internal/models"
)

// ApplicationRepository handles application database operations
type ApplicationRepository struct {
	db DBTX
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.candidate_id, a.submission_date, a.status, a.current_stage, a.progress, a.notes, a.created_at`

func scanApplication(row scanner) (models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID,
		&a.CandidateID,
		&a.SubmissionDate,
		&a.Status,
		&a.CurrentStage,
		&a.Progress,
		&a.Notes,
		&a.CreatedAt,
	)
	return a, err
}

func scanApplicationWithCandidate(row scanner) (models.ApplicationWithCandidate, error) {
	var a models.ApplicationWithCandidate
	err := row.Scan(
		&a.ID,
		&a.CandidateID,
		&a.SubmissionDate,
		&a.Status,
		&a.CurrentStage,
		&a.Progress,
		&a.Notes,
		&a.CreatedAt,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.Department,
		&a.ThesisTitle,
	)
	return a, err
}

// ApplicationFilter narrows List
type ApplicationFilter struct {
	CandidateID uint
	Status      models.ApplicationStatus
	Stage       models.Stage
}

// List returns applications joined with their candidate, newest first
func (r *ApplicationRepository) List(ctx context.Context, f ApplicationFilter) ([]models.ApplicationWithCandidate, error) {
	var w where
	if f.CandidateID != 0 {
		w.add("a.candidate_id = $%d", f.CandidateID)
	}
	if f.Status != "" {
		w.add("a.status = $%d", f.Status)
	}
	if f.Stage != "" {
		w.add("a.current_stage = $%d", f.Stage)
	}

	query := `
		SELECT ` + applicationColumns + `, c.first_name, c.last_name, c.email, c.department, c.thesis_title
		FROM applications a
		JOIN candidates c ON c.id = a.candidate_id` + w.String() + `
		ORDER BY a.created_at DESC, a.id DESC`
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, mapError("list applications", err)
	}
	apps, err := collect(rows, scanApplicationWithCandidate)
	if err != nil {
		return nil, mapError("scan applications", err)
	}
	return apps, nil
}

// GetByID retrieves an application with its candidate's display fields
func (r *ApplicationRepository) GetByID(ctx context.Context, id uint) (*models.ApplicationWithCandidate, error) {
	query := `
		SELECT ` + applicationColumns + `, c.first_name, c.last_name, c.email, c.department, c.thesis_title
		FROM applications a
		JOIN candidates c ON c.id = a.candidate_id
		WHERE a.id = $1`
	a, err := scanApplicationWithCandidate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr("get application", "application", id, err)
	}
	return &a, nil
}

// lock reads the application row FOR UPDATE
func (r *ApplicationRepository) lock(ctx context.Context, id uint) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1 FOR UPDATE`, id)
	a, err := scanApplication(row)
	if err != nil {
		return nil, notFoundOr("lock application", "application", id, err)
	}
	return &a, nil
}

// LatestForCandidate returns the most recent application of a candidate, or nil
func (r *ApplicationRepository) LatestForCandidate(ctx context.Context, candidateID uint) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.candidate_id = $1 ORDER BY a.created_at DESC, a.id DESC LIMIT 1`,
		candidateID)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get latest application", err)
	}
	return &a, nil
}

func (r *ApplicationRepository) create(ctx context.Context, a *models.Application) error {
	query := `
		INSERT INTO applications (candidate_id, submission_date, status, current_stage, progress, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.CandidateID,
		dateOnly(a.SubmissionDate),
		a.Status,
		a.CurrentStage,
		a.Progress,
		a.Notes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return mapError("create application", err)
	}
	return nil
}

func (r *ApplicationRepository) updateStage(ctx context.Context, a *models.Application) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $1, current_stage = $2, progress = $3 WHERE id = $4`,
		a.Status, a.CurrentStage, a.Progress, a.ID)
	if err != nil {
		return mapError("update application stage", err)
	}
	return expectAffected(res, "update application stage", "application", a.ID)
}

func (r *ApplicationRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return mapError("delete application", err)
	}
	return expectAffected(res, "delete application", "application", id)
}

func (r *ApplicationRepository) deleteByCandidate(ctx context.Context, candidateID uint) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE candidate_id = $1`, candidateID); err != nil {
		return mapError("delete candidate applications", err)
	}
	return nil
}

// Stats counts applications per status
func (r *ApplicationRepository) Stats(ctx context.Context) (*models.ApplicationStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected')
		FROM applications
	`
	var s models.ApplicationStats
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Pending, &s.InProgress, &s.Approved, &s.Rejected); err != nil {
		return nil, mapError("get application stats", err)
	}
	return &s, nil
}
