package workflow

import (
	"context"
	"fmt"
	"time"

	"hu-tracker/internal/models"
)

// DefenseInput describes a defense to schedule
type DefenseInput struct {
	CandidateID   uint
	ApplicationID *uint
	Date          *time.Time
	Time          string
	Location      string
	Jury          string
}

// ScheduleDefense creates a Scheduled defense for a candidate. It fails with
// ErrDuplicateActiveDefense while the candidate has any non-cancelled
// defense. A linked application must belong to the candidate and moves to
// the Defense stage.
func (e *Engine) ScheduleDefense(ctx context.Context, in DefenseInput) (*models.Defense, error) {
	unlock := e.locks.lock(candidateKey(in.CandidateID))
	defer unlock()
	if in.ApplicationID != nil {
		unlockApp := e.locks.lock(applicationKey(*in.ApplicationID))
		defer unlockApp()
	}

	var defense *models.Defense
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.LockCandidate(ctx, in.CandidateID); err != nil {
			return err
		}
		active, err := tx.ActiveDefense(ctx, in.CandidateID, 0)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("defense %d: %w", active.ID, ErrDuplicateActiveDefense)
		}

		var app *models.Application
		if in.ApplicationID != nil {
			app, err = e.candidateApplication(ctx, tx, in.CandidateID, *in.ApplicationID)
			if err != nil {
				return err
			}
		}

		defense = &models.Defense{
			CandidateID:   in.CandidateID,
			ApplicationID: in.ApplicationID,
			Date:          in.Date,
			Time:          in.Time,
			Location:      in.Location,
			Jury:          in.Jury,
			Status:        models.DefenseScheduled,
		}
		if err := tx.CreateDefense(ctx, defense); err != nil {
			return err
		}

		if app != nil && advance(app, models.StageDefense) {
			return tx.UpdateApplicationStage(ctx, app)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defense, nil
}

// DefenseUpdate is a full update of a defense. Nil fields keep their value;
// an empty status keeps the current status.
type DefenseUpdate struct {
	ApplicationID *uint
	Date          *time.Time
	Time          *string
	Location      *string
	Jury          *string
	Outcome       *string
	Status        models.DefenseStatus
}

// UpdateDefense applies a full update. Completing the defense follows the
// same rule as SetDefenseStatus, and so does relinking a completed defense
// to another application.
func (e *Engine) UpdateDefense(ctx context.Context, defenseID uint, upd DefenseUpdate) (*models.Defense, error) {
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, invalidf("unknown defense status %q", upd.Status)
	}
	return e.changeDefense(ctx, defenseID, upd.ApplicationID, func(d *models.Defense) {
		if upd.Date != nil {
			d.Date = upd.Date
		}
		if upd.Time != nil {
			d.Time = *upd.Time
		}
		if upd.Location != nil {
			d.Location = *upd.Location
		}
		if upd.Jury != nil {
			d.Jury = *upd.Jury
		}
		if upd.Outcome != nil {
			d.Outcome = *upd.Outcome
		}
		if upd.Status != "" {
			d.Status = upd.Status
		}
	})
}

// SetDefenseStatus changes only the status. Moving a linked defense to
// Completed moves its application to Diploma with status Approved; a failure
// there fails the whole call.
func (e *Engine) SetDefenseStatus(ctx context.Context, defenseID uint, status models.DefenseStatus) (*models.Defense, error) {
	if !status.Valid() {
		return nil, invalidf("unknown defense status %q", status)
	}
	return e.changeDefense(ctx, defenseID, nil, func(d *models.Defense) {
		d.Status = status
	})
}

func (e *Engine) changeDefense(ctx context.Context, defenseID uint, relink *uint, mutate func(*models.Defense)) (*models.Defense, error) {
	current, err := e.readDefense(ctx, defenseID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(candidateKey(current.CandidateID))
	defer unlock()
	for _, id := range linkedApplications(current.ApplicationID, relink) {
		unlockApp := e.locks.lock(applicationKey(id))
		defer unlockApp()
	}

	var defense *models.Defense
	err = e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		defense, err = tx.LockDefense(ctx, defenseID)
		if err != nil {
			return err
		}
		before := *defense
		mutate(defense)

		var linked *models.Application
		if relink != nil && (defense.ApplicationID == nil || *defense.ApplicationID != *relink) {
			linked, err = e.candidateApplication(ctx, tx, defense.CandidateID, *relink)
			if err != nil {
				return err
			}
			id := *relink
			defense.ApplicationID = &id
		}

		if defense.Status.Active() && !before.Status.Active() {
			other, err := tx.ActiveDefense(ctx, defense.CandidateID, defense.ID)
			if err != nil {
				return err
			}
			if other != nil {
				return fmt.Errorf("defense %d: %w", other.ID, ErrDuplicateActiveDefense)
			}
		}
		if err := tx.UpdateDefense(ctx, defense); err != nil {
			return err
		}

		if defense.ApplicationID == nil {
			return nil
		}
		switch {
		case defense.Status == models.DefenseCompleted && (before.Status != models.DefenseCompleted || linked != nil):
			return e.moveLinked(ctx, tx, linked, *defense.ApplicationID, models.StageDiploma)
		case linked != nil && defense.Status.Active():
			return e.moveLinked(ctx, tx, linked, *defense.ApplicationID, models.StageDefense)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defense, nil
}

func (e *Engine) moveLinked(ctx context.Context, tx Tx, app *models.Application, applicationID uint, stage models.Stage) error {
	if app == nil {
		var err error
		app, err = tx.LockApplication(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("failed to load linked application: %w", err)
		}
	}
	if !advance(app, stage) {
		return nil
	}
	if err := tx.UpdateApplicationStage(ctx, app); err != nil {
		return fmt.Errorf("failed to move application %d to %s: %w", app.ID, stage, err)
	}
	return nil
}

// candidateApplication locks an application and checks it belongs to the candidate
func (e *Engine) candidateApplication(ctx context.Context, tx Tx, candidateID, applicationID uint) (*models.Application, error) {
	app, err := tx.LockApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CandidateID != candidateID {
		return nil, invalidf("application %d does not belong to candidate %d", applicationID, candidateID)
	}
	return app, nil
}

func (e *Engine) readDefense(ctx context.Context, defenseID uint) (*models.Defense, error) {
	var d *models.Defense
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		d, err = tx.GetDefense(ctx, defenseID)
		return err
	})
	return d, err
}

// linkedApplications returns the distinct application ids in ascending order
// so that locks are always taken in the same order.
func linkedApplications(current, relink *uint) []uint {
	var ids []uint
	if current != nil {
		ids = append(ids, *current)
	}
	if relink != nil && (current == nil || *relink != *current) {
		ids = append(ids, *relink)
	}
	if len(ids) == 2 && ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return ids
}
