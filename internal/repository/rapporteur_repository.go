package repository

import (
	"context"

	"hu-tracker/internal/models"
)

// RapporteurRepository handles external reviewer database operations
type RapporteurRepository struct {
	db DBTX
}

// NewRapporteurRepository creates a new rapporteur repository
func NewRapporteurRepository(db DBTX) *RapporteurRepository {
	return &RapporteurRepository{db: db}
}

const rapporteurColumns = `id, name, institution, email, phone, specialization, evaluations_count, created_at`

func scanRapporteur(row scanner) (models.Rapporteur, error) {
	var rp models.Rapporteur
	err := row.Scan(
		&rp.ID,
		&rp.Name,
		&rp.Institution,
		&rp.Email,
		&rp.Phone,
		&rp.Specialization,
		&rp.EvaluationsCount,
		&rp.CreatedAt,
	)
	return rp, err
}

// List returns all rapporteurs ordered by name
func (r *RapporteurRepository) List(ctx context.Context) ([]models.Rapporteur, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rapporteurColumns+` FROM rapporteurs ORDER BY name, id`)
	if err != nil {
		return nil, mapError("list rapporteurs", err)
	}
	list, err := collect(rows, scanRapporteur)
	if err != nil {
		return nil, mapError("scan rapporteurs", err)
	}
	return list, nil
}

// GetByID retrieves a rapporteur by ID
func (r *RapporteurRepository) GetByID(ctx context.Context, id uint) (*models.Rapporteur, error) {
	rp, err := scanRapporteur(r.db.QueryRowContext(ctx, `SELECT `+rapporteurColumns+` FROM rapporteurs WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get rapporteur", "rapporteur", id, err)
	}
	return &rp, nil
}

// Create inserts a rapporteur
func (r *RapporteurRepository) Create(ctx context.Context, rp *models.Rapporteur) error {
	query := `
		INSERT INTO rapporteurs (name, institution, email, phone, specialization)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, evaluations_count, created_at
	`
	err := r.db.QueryRowContext(ctx, query, rp.Name, rp.Institution, rp.Email, rp.Phone, rp.Specialization).
		Scan(&rp.ID, &rp.EvaluationsCount, &rp.CreatedAt)
	if err != nil {
		return mapError("create rapporteur", err)
	}
	return nil
}

// Update writes the contact fields; evaluations_count is engine-owned
func (r *RapporteurRepository) Update(ctx context.Context, rp *models.Rapporteur) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rapporteurs SET name = $1, institution = $2, email = $3, phone = $4, specialization = $5 WHERE id = $6`,
		rp.Name, rp.Institution, rp.Email, rp.Phone, rp.Specialization, rp.ID)
	if err != nil {
		return mapError("update rapporteur", err)
	}
	return expectAffected(res, "update rapporteur", "rapporteur", rp.ID)
}

func (r *RapporteurRepository) incrementEvaluations(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rapporteurs SET evaluations_count = evaluations_count + 1 WHERE id = $1`, id)
	if err != nil {
		return mapError("increment rapporteur evaluations", err)
	}
	return expectAffected(res, "increment rapporteur evaluations", "rapporteur", id)
}

func (r *RapporteurRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rapporteurs WHERE id = $1`, id)
	if err != nil {
		return mapError("delete rapporteur", err)
	}
	return expectAffected(res, "delete rapporteur", "rapporteur", id)
}

// Workload lists rapporteurs with the number of evaluations still in progress
func (r *RapporteurRepository) Workload(ctx context.Context) ([]models.RapporteurWorkload, error) {
	query := `
		SELECT r.id, r.name, r.institution, r.email, r.phone, r.specialization, r.evaluations_count, r.created_at,
		       COUNT(e.id) FILTER (WHERE e.status = 'in_progress')
		FROM rapporteurs r
		LEFT JOIN evaluations e ON e.evaluator_id = r.id
		GROUP BY r.id
		ORDER BY r.evaluations_count DESC, r.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError("get rapporteur workload", err)
	}
	list, err := collect(rows, func(row scanner) (models.RapporteurWorkload, error) {
		var w models.RapporteurWorkload
		err := row.Scan(
			&w.ID,
			&w.Name,
			&w.Institution,
			&w.Email,
			&w.Phone,
			&w.Specialization,
			&w.EvaluationsCount,
			&w.CreatedAt,
			&w.ActiveEvaluations,
		)
		return w, err
	})
	if err != nil {
		return nil, mapError("scan rapporteur workload", err)
	}
	return list, nil
}
