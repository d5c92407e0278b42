package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"hu-tracker/internal/models"
)

// EvaluationRepository handles rapporteur evaluation database operations
type EvaluationRepository struct {
	db DBTX
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db DBTX) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

const evaluationColumns = `id, application_id, evaluator_id, evaluator_name, score, comments, evaluation_date, status, created_at`

func scanEvaluation(row scanner) (models.Evaluation, error) {
	var (
		ev       models.Evaluation
		comments []byte
	)
	err := row.Scan(
		&ev.ID,
		&ev.ApplicationID,
		&ev.EvaluatorID,
		&ev.EvaluatorName,
		&ev.Score,
		&comments,
		&ev.EvaluationDate,
		&ev.Status,
		&ev.CreatedAt,
	)
	if err != nil {
		return ev, err
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &ev.Comments); err != nil {
			return ev, fmt.Errorf("failed to decode comments of evaluation %d: %w", ev.ID, err)
		}
	}
	return ev, nil
}

// EvaluationFilter narrows List
type EvaluationFilter struct {
	ApplicationID uint
	EvaluatorID   uint
	Status        models.EvaluationStatus
}

// List returns evaluations, newest first
func (r *EvaluationRepository) List(ctx context.Context, f EvaluationFilter) ([]models.Evaluation, error) {
	var w where
	if f.ApplicationID != 0 {
		w.add("application_id = $%d", f.ApplicationID)
	}
	if f.EvaluatorID != 0 {
		w.add("evaluator_id = $%d", f.EvaluatorID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapError("list evaluations", err)
	}
	evals, err := collect(rows, scanEvaluation)
	if err != nil {
		return nil, mapError("scan evaluations", err)
	}
	return evals, nil
}

// GetByID retrieves an evaluation by ID
func (r *EvaluationRepository) GetByID(ctx context.Context, id uint) (*models.Evaluation, error) {
	ev, err := scanEvaluation(r.db.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get evaluation", "evaluation", id, err)
	}
	return &ev, nil
}

func (r *EvaluationRepository) create(ctx context.Context, ev *models.Evaluation) error {
	comments, err := marshalJSON(ev.Comments)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO evaluations (application_id, evaluator_id, evaluator_name, score, comments, evaluation_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		ev.ApplicationID,
		ev.EvaluatorID,
		ev.EvaluatorName,
		ev.Score,
		comments,
		dateOnly(ev.EvaluationDate),
		ev.Status,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return mapError("create evaluation", err)
	}
	return nil
}

func (r *EvaluationRepository) update(ctx context.Context, ev *models.Evaluation) error {
	comments, err := marshalJSON(ev.Comments)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE evaluations SET score = $1, comments = $2, evaluation_date = $3, status = $4 WHERE id = $5`,
		ev.Score, comments, dateOnly(ev.EvaluationDate), ev.Status, ev.ID)
	if err != nil {
		return mapError("update evaluation", err)
	}
	return expectAffected(res, "update evaluation", "evaluation", ev.ID)
}

func (r *EvaluationRepository) markReportSubmitted(ctx context.Context, applicationID, evaluatorID uint) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE evaluations SET status = $1 WHERE application_id = $2 AND evaluator_id = $3`,
		models.EvaluationReportSubmitted, applicationID, evaluatorID)
	if err != nil {
		return 0, mapError("mark evaluations report submitted", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError("mark evaluations report submitted", err)
	}
	return n, nil
}

func (r *EvaluationRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM evaluations WHERE id = $1`, id)
	if err != nil {
		return mapError("delete evaluation", err)
	}
	return expectAffected(res, "delete evaluation", "evaluation", id)
}

// Stats summarizes evaluations; terminal ones count as completed
func (r *EvaluationRepository) Stats(ctx context.Context) (*models.EvaluationStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status IN ('completed', 'report_submitted')),
		       AVG(score)::float8
		FROM evaluations
	`
	var s models.EvaluationStats
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Pending, &s.Completed, &s.AverageScore); err != nil {
		return nil, mapError("get evaluation stats", err)
	}
	return &s, nil
}
