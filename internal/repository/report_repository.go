package repository

import (
	"context"

	"hu-tracker/internal/models"
)

// ReportRepository handles rapporteur report database operations
type ReportRepository struct {
	db DBTX
}

// NewReportRepository creates a new report repository
func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportDetailsQuery = `
	SELECT rp.id, rp.application_id, rp.rapporteur_id, rp.submission_date, rp.content, rp.recommendation, rp.created_at,
	       COALESCE(r.name, ''), COALESCE(r.institution, ''), c.first_name || ' ' || c.last_name
	FROM reports rp
	LEFT JOIN rapporteurs r ON r.id = rp.rapporteur_id
	JOIN applications a ON a.id = rp.application_id
	JOIN candidates c ON c.id = a.candidate_id`

func scanReportWithDetails(row scanner) (models.ReportWithDetails, error) {
	var rd models.ReportWithDetails
	err := row.Scan(
		&rd.ID,
		&rd.ApplicationID,
		&rd.RapporteurID,
		&rd.SubmissionDate,
		&rd.Content,
		&rd.Recommendation,
		&rd.CreatedAt,
		&rd.RapporteurName,
		&rd.Institution,
		&rd.CandidateName,
	)
	return rd, err
}

// ReportFilter narrows List
type ReportFilter struct {
	ApplicationID  uint
	RapporteurID   uint
	Recommendation models.Recommendation
}

// List returns reports with rapporteur and candidate names, newest first
func (r *ReportRepository) List(ctx context.Context, f ReportFilter) ([]models.ReportWithDetails, error) {
	var w where
	if f.ApplicationID != 0 {
		w.add("rp.application_id = $%d", f.ApplicationID)
	}
	if f.RapporteurID != 0 {
		w.add("rp.rapporteur_id = $%d", f.RapporteurID)
	}
	if f.Recommendation != "" {
		w.add("rp.recommendation = $%d", f.Recommendation)
	}

	rows, err := r.db.QueryContext(ctx, reportDetailsQuery+w.String()+` ORDER BY rp.created_at DESC, rp.id DESC`, w.args...)
	if err != nil {
		return nil, mapError("list reports", err)
	}
	reports, err := collect(rows, scanReportWithDetails)
	if err != nil {
		return nil, mapError("scan reports", err)
	}
	return reports, nil
}

// GetByID retrieves a report with details
func (r *ReportRepository) GetByID(ctx context.Context, id uint) (*models.ReportWithDetails, error) {
	rd, err := scanReportWithDetails(r.db.QueryRowContext(ctx, reportDetailsQuery+` WHERE rp.id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get report", "report", id, err)
	}
	return &rd, nil
}

// UpdateContent edits the text and recommendation of a report. It does not
// run any workflow transition.
func (r *ReportRepository) UpdateContent(ctx context.Context, id uint, content string, rec models.Recommendation) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET content = $1, recommendation = $2 WHERE id = $3`, content, rec, id)
	if err != nil {
		return mapError("update report", err)
	}
	return expectAffected(res, "update report", "report", id)
}

func (r *ReportRepository) create(ctx context.Context, rp *models.Report) error {
	query := `
		INSERT INTO reports (application_id, rapporteur_id, submission_date, content, recommendation)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rp.ApplicationID,
		rp.RapporteurID,
		dateOnly(rp.SubmissionDate),
		rp.Content,
		rp.Recommendation,
	).Scan(&rp.ID, &rp.CreatedAt)
	if err != nil {
		return mapError("create report", err)
	}
	return nil
}

func (r *ReportRepository) coverage(ctx context.Context, applicationID uint) (assigned, reported int, err error) {
	query := `
		SELECT COUNT(DISTINCT e.evaluator_id),
		       COUNT(DISTINCT e.evaluator_id) FILTER (
		           WHERE EXISTS (SELECT 1 FROM reports rp
		                         WHERE rp.application_id = e.application_id AND rp.rapporteur_id = e.evaluator_id))
		FROM evaluations e
		WHERE e.application_id = $1 AND e.evaluator_id IS NOT NULL
	`
	if err := r.db.QueryRowContext(ctx, query, applicationID).Scan(&assigned, &reported); err != nil {
		return 0, 0, mapError("get report coverage", err)
	}
	return assigned, reported, nil
}

func (r *ReportRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return mapError("delete report", err)
	}
	return expectAffected(res, "delete report", "report", id)
}

// Stats counts reports per recommendation
func (r *ReportRepository) Stats(ctx context.Context) (*models.ReportStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE recommendation = 'favorable'),
		       COUNT(*) FILTER (WHERE recommendation = 'unfavorable'),
		       COUNT(*) FILTER (WHERE recommendation = 'favorable_with_reservations')
		FROM reports
	`
	var s models.ReportStats
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalReports, &s.Favorable, &s.Unfavorable, &s.WithReserves); err != nil {
		return nil, mapError("get report stats", err)
	}
	return &s, nil
}
