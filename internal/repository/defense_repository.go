package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hu-tracker/internal/models"
)

// DefenseRepository handles defense database operations
type DefenseRepository struct {
	db DBTX
}

// NewDefenseRepository creates a new defense repository
func NewDefenseRepository(db DBTX) *DefenseRepository {
	return &DefenseRepository{db: db}
}

const defenseColumns = `d.id, d.application_id, d.candidate_id, d.date, d.time, d.location, d.jury, d.outcome, d.status, d.created_at`

func scanDefense(row scanner) (models.Defense, error) {
	var d models.Defense
	err := row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.CandidateID,
		&d.Date,
		&d.Time,
		&d.Location,
		&d.Jury,
		&d.Outcome,
		&d.Status,
		&d.CreatedAt,
	)
	return d, err
}

func scanDefenseWithCandidate(row scanner) (models.DefenseWithCandidate, error) {
	var d models.DefenseWithCandidate
	err := row.Scan(
		&d.ID,
		&d.ApplicationID,
		&d.CandidateID,
		&d.Date,
		&d.Time,
		&d.Location,
		&d.Jury,
		&d.Outcome,
		&d.Status,
		&d.CreatedAt,
		&d.FirstName,
		&d.LastName,
		&d.ThesisTitle,
	)
	return d, err
}

const defenseWithCandidateQuery = `
	SELECT ` + defenseColumns + `, c.first_name, c.last_name, c.thesis_title
	FROM defenses d
	JOIN candidates c ON c.id = d.candidate_id`

// DefenseFilter narrows List
type DefenseFilter struct {
	CandidateID uint
	Status      models.DefenseStatus
}

// List returns defenses with candidate names, most recent date first
func (r *DefenseRepository) List(ctx context.Context, f DefenseFilter) ([]models.DefenseWithCandidate, error) {
	var w where
	if f.CandidateID != 0 {
		w.add("d.candidate_id = $%d", f.CandidateID)
	}
	if f.Status != "" {
		w.add("d.status = $%d", f.Status)
	}
	rows, err := r.db.QueryContext(ctx,
		defenseWithCandidateQuery+w.String()+` ORDER BY d.date DESC NULLS LAST, d.id DESC`, w.args...)
	if err != nil {
		return nil, mapError("list defenses", err)
	}
	list, err := collect(rows, scanDefenseWithCandidate)
	if err != nil {
		return nil, mapError("scan defenses", err)
	}
	return list, nil
}

// Upcoming returns scheduled defenses dated today or later, soonest first
func (r *DefenseRepository) Upcoming(ctx context.Context, from time.Time) ([]models.DefenseWithCandidate, error) {
	rows, err := r.db.QueryContext(ctx,
		defenseWithCandidateQuery+` WHERE d.date >= $1 AND d.status = $2 ORDER BY d.date, d.time, d.id`,
		dateOnly(&from), models.DefenseScheduled)
	if err != nil {
		return nil, mapError("list upcoming defenses", err)
	}
	list, err := collect(rows, scanDefenseWithCandidate)
	if err != nil {
		return nil, mapError("scan defenses", err)
	}
	return list, nil
}

// GetByID retrieves a defense with the candidate's name
func (r *DefenseRepository) GetByID(ctx context.Context, id uint) (*models.DefenseWithCandidate, error) {
	d, err := scanDefenseWithCandidate(r.db.QueryRowContext(ctx, defenseWithCandidateQuery+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get defense", "defense", id, err)
	}
	return &d, nil
}

func (r *DefenseRepository) get(ctx context.Context, id uint, suffix string) (*models.Defense, error) {
	d, err := scanDefense(r.db.QueryRowContext(ctx, `SELECT `+defenseColumns+` FROM defenses d WHERE d.id = $1`+suffix, id))
	if err != nil {
		return nil, notFoundOr("get defense", "defense", id, err)
	}
	return &d, nil
}

func (r *DefenseRepository) active(ctx context.Context, candidateID, excludeID uint) (*models.Defense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+defenseColumns+` FROM defenses d WHERE d.candidate_id = $1 AND d.id <> $2 AND d.status <> $3 LIMIT 1`,
		candidateID, excludeID, models.DefenseCancelled)
	d, err := scanDefense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find active defense", err)
	}
	return &d, nil
}

func (r *DefenseRepository) create(ctx context.Context, d *models.Defense) error {
	query := `
		INSERT INTO defenses (application_id, candidate_id, date, time, location, jury, outcome, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		d.ApplicationID,
		d.CandidateID,
		dateOnly(d.Date),
		d.Time,
		d.Location,
		d.Jury,
		d.Outcome,
		d.Status,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return mapError("create defense", err)
	}
	return nil
}

func (r *DefenseRepository) update(ctx context.Context, d *models.Defense) error {
	query := `
		UPDATE defenses
		SET application_id = $1, date = $2, time = $3, location = $4, jury = $5, outcome = $6, status = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		d.ApplicationID,
		dateOnly(d.Date),
		d.Time,
		d.Location,
		d.Jury,
		d.Outcome,
		d.Status,
		d.ID,
	)
	if err != nil {
		return mapError("update defense", err)
	}
	return expectAffected(res, "update defense", "defense", d.ID)
}

func (r *DefenseRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM defenses WHERE id = $1`, id)
	if err != nil {
		return mapError("delete defense", err)
	}
	return expectAffected(res, "delete defense", "defense", id)
}

func (r *DefenseRepository) deleteByCandidate(ctx context.Context, candidateID uint) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM defenses WHERE candidate_id = $1`, candidateID); err != nil {
		return mapError("delete candidate defenses", err)
	}
	return nil
}
