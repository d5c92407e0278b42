package repository

import (
	"context"

	"hu-tracker/internal/models"
)

// CommissionMemberRepository handles committee member database operations
type CommissionMemberRepository struct {
	db DBTX
}

// NewCommissionMemberRepository creates a new commission member repository
func NewCommissionMemberRepository(db DBTX) *CommissionMemberRepository {
	return &CommissionMemberRepository{db: db}
}

const memberColumns = `id, name, role, department, email, phone, created_at`

func scanMember(row scanner) (models.CommissionMember, error) {
	var m models.CommissionMember
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Department, &m.Email, &m.Phone, &m.CreatedAt)
	return m, err
}

// List returns all members ordered by name
func (r *CommissionMemberRepository) List(ctx context.Context) ([]models.CommissionMember, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM commission_members ORDER BY name, id`)
	if err != nil {
		return nil, mapError("list commission members", err)
	}
	list, err := collect(rows, scanMember)
	if err != nil {
		return nil, mapError("scan commission members", err)
	}
	return list, nil
}

// GetByID retrieves a member by ID
func (r *CommissionMemberRepository) GetByID(ctx context.Context, id uint) (*models.CommissionMember, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM commission_members WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr("get commission member", "commission member", id, err)
	}
	return &m, nil
}

// Create inserts a member
func (r *CommissionMemberRepository) Create(ctx context.Context, m *models.CommissionMember) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO commission_members (name, role, department, email, phone) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		m.Name, m.Role, m.Department, m.Email, m.Phone,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapError("create commission member", err)
	}
	return nil
}

// Update writes every field of the member
func (r *CommissionMemberRepository) Update(ctx context.Context, m *models.CommissionMember) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE commission_members SET name = $1, role = $2, department = $3, email = $4, phone = $5 WHERE id = $6`,
		m.Name, m.Role, m.Department, m.Email, m.Phone, m.ID)
	if err != nil {
		return mapError("update commission member", err)
	}
	return expectAffected(res, "update commission member", "commission member", m.ID)
}

func (r *CommissionMemberRepository) delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM commission_members WHERE id = $1`, id)
	if err != nil {
		return mapError("delete commission member", err)
	}
	return expectAffected(res, "delete commission member", "commission member", id)
}
