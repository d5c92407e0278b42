package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"hu-tracker/internal/workflow"
)

// Postgres SQLSTATE codes the repositories translate
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

const activeDefenseIndex = "defenses_one_active_per_candidate"

// mapError translates a driver error into the workflow error kinds.
// sql.ErrNoRows is left to the caller, which knows the entity and id.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == activeDefenseIndex {
				return fmt.Errorf("failed to %s: %w", op, workflow.ErrDuplicateActiveDefense)
			}
			return fmt.Errorf("failed to %s: %w (%s)", op, workflow.ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("failed to %s: referenced row missing (%s): %w", op, pqErr.Constraint, workflow.ErrNotFound)
		case pqCheckViolation:
			return fmt.Errorf("failed to %s: %w: %s", op, workflow.ErrInvalidTransition, pqErr.Message)
		}
	}
	return workflow.Unavailable(op, err)
}

// notFoundOr maps sql.ErrNoRows to a NotFound for entity/id and anything else
// through mapError.
func notFoundOr(op, entity string, id uint, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.NotFound(entity, id)
	}
	return mapError(op, err)
}

// expectAffected turns an exec result touching no rows into NotFound
func expectAffected(res sql.Result, op, entity string, id uint) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err)
	}
	if n == 0 {
		return workflow.NotFound(entity, id)
	}
	return nil
}
