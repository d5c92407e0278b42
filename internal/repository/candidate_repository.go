package repository

import (
	"context"

	"hu-tracker/internal/models"
	"hu-tracker/internal/workflow"
)

// CandidateRepository handles candidate database operations
type CandidateRepository struct {
	db DBTX
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db DBTX) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const candidateColumns = `id, user_id, first_name, last_name, email, phone, address, department,
	thesis_title, thesis_date, thesis_supervisor, status, created_at`

func scanCandidate(row scanner) (models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.Department,
		&c.ThesisTitle,
		&c.ThesisDate,
		&c.ThesisSupervisor,
		&c.Status,
		&c.CreatedAt,
	)
	return c, err
}

// CandidateFilter narrows List. Search matches name, email or thesis title.
type CandidateFilter struct {
	Status string
	Search string
}

// List returns candidates, newest first
func (r *CandidateRepository) List(ctx context.Context, f CandidateFilter) ([]models.Candidate, error) {
	var w where
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.Search != "" {
		w.add("(first_name || ' ' || last_name || ' ' || email || ' ' || thesis_title) ILIKE $%d", "%"+f.Search+"%")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	if err != nil {
		return nil, mapError("list candidates", err)
	}
	candidates, err := collect(rows, scanCandidate)
	if err != nil {
		return nil, mapError("scan candidates", err)
	}
	return candidates, nil
}

// GetByID retrieves a candidate by ID
func (r *CandidateRepository) GetByID(ctx context.Context, id uint) (*models.Candidate, error) {
	return r.get(ctx, id, "")
}

// lock reads the candidate and holds its row until the transaction ends
func (r *CandidateRepository) lock(ctx context.Context, id uint) (*models.Candidate, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *CandidateRepository) get(ctx context.Context, id uint, suffix string) (*models.Candidate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`+suffix, id)
	c, err := scanCandidate(row)
	if err != nil {
		return nil, notFoundOr("get candidate", "candidate", id, err)
	}
	return &c, nil
}

// Create inserts a candidate. A taken email matches workflow.ErrDuplicate.
func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	if c.Status == "" {
		c.Status = models.CandidatePending
	}
	query := `
		INSERT INTO candidates (user_id, first_name, last_name, email, phone, address, department,
		                        thesis_title, thesis_date, thesis_supervisor, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.UserID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Address,
		c.Department,
		c.ThesisTitle,
		dateOnly(c.ThesisDate),
		c.ThesisSupervisor,
		c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return mapError("create candidate", err)
	}
	return nil
}

// Update writes every editable field of the candidate
func (r *CandidateRepository) Update(ctx context.Context, c *models.Candidate) error {
	query := `
		UPDATE candidates
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5, department = $6,
		    thesis_title = $7, thesis_date = $8, thesis_supervisor = $9, status = $10
		WHERE id = $11
	`
	res, err := r.db.ExecContext(ctx, query,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Address,
		c.Department,
		c.ThesisTitle,
		dateOnly(c.ThesisDate),
		c.ThesisSupervisor,
		c.Status,
		c.ID,
	)
	if err != nil {
		return mapError("update candidate", err)
	}
	return expectAffected(res, "update candidate", "candidate", c.ID)
}

func (r *CandidateRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return mapError("delete candidate", err)
	}
	return expectAffected(res, "delete candidate", "candidate", id)
}

func (r *CandidateRepository) dependents(ctx context.Context, id uint) (workflow.Dependents, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM applications WHERE candidate_id = $1),
			(SELECT COUNT(*) FROM defenses WHERE candidate_id = $1),
			(SELECT COUNT(*) FROM documents d
			  WHERE d.candidate_id = $1
			     OR d.application_id IN (SELECT id FROM applications WHERE candidate_id = $1))
	`
	var d workflow.Dependents
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&d.Applications, &d.Defenses, &d.Documents); err != nil {
		return d, mapError("count candidate dependents", err)
	}
	return d, nil
}

// Stats counts candidates per lifecycle status
func (r *CandidateRepository) Stats(ctx context.Context) (*models.CandidateStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status = 'completed')
		FROM candidates
	`
	var s models.CandidateStats
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Pending, &s.InProgress, &s.Completed); err != nil {
		return nil, mapError("get candidate stats", err)
	}
	return &s, nil
}
