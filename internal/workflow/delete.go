package workflow

import (
	"context"

	"hu-tracker/internal/models"
)

// DeleteApplication removes an application together with its evaluations
// and reports. Documents and defenses that referenced it are kept unlinked.
func (e *Engine) DeleteApplication(ctx context.Context, id uint) error {
	unlock := e.locks.lock(applicationKey(id))
	defer unlock()

	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteApplication(ctx, id)
	})
}

// DeleteCandidate removes a candidate. Without cascade it is refused while
// applications, defenses or documents reference the candidate. With cascade
// those rows go in the same unit of work and the removed documents are
// returned so the caller can drop their files.
func (e *Engine) DeleteCandidate(ctx context.Context, id uint, cascade bool) ([]models.Document, error) {
	unlock := e.locks.lock(candidateKey(id))
	defer unlock()

	var removed []models.Document
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.LockCandidate(ctx, id); err != nil {
			return err
		}

		if !cascade {
			deps, err := tx.CandidateDependents(ctx, id)
			if err != nil {
				return err
			}
			if deps.Any() {
				return invalidf("candidate %d still has %d applications, %d defenses and %d documents",
					id, deps.Applications, deps.Defenses, deps.Documents)
			}
			return tx.DeleteCandidate(ctx, id)
		}

		docs, err := tx.ListCandidateDocuments(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteCandidateDocuments(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteDefensesByCandidate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteApplicationsByCandidate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteCandidate(ctx, id); err != nil {
			return err
		}
		removed = docs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteEvaluation removes one evaluation. It does not re-run any transition.
func (e *Engine) DeleteEvaluation(ctx context.Context, id uint) error {
	applicationID, err := e.evaluationApplication(ctx, id)
	if err != nil {
		return err
	}
	unlock := e.locks.lock(applicationKey(applicationID))
	defer unlock()

	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteEvaluation(ctx, id)
	})
}

// DeleteDefense removes a defense, freeing the candidate for a new one
func (e *Engine) DeleteDefense(ctx context.Context, id uint) error {
	d, err := e.readDefense(ctx, id)
	if err != nil {
		return err
	}
	unlock := e.locks.lock(candidateKey(d.CandidateID))
	defer unlock()

	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteDefense(ctx, id)
	})
}

func (e *Engine) DeleteReport(ctx context.Context, id uint) error {
	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteReport(ctx, id)
	})
}

// DeleteRapporteur removes a rapporteur. Evaluations keep the evaluator name
// they were created with.
func (e *Engine) DeleteRapporteur(ctx context.Context, id uint) error {
	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteRapporteur(ctx, id)
	})
}

func (e *Engine) DeleteMeeting(ctx context.Context, id uint) error {
	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteMeeting(ctx, id)
	})
}

func (e *Engine) DeleteCommissionMember(ctx context.Context, id uint) error {
	return e.store.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteCommissionMember(ctx, id)
	})
}
