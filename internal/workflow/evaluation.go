package workflow

import (
	"context"
	"time"

	"hu-tracker/internal/models"
)

// EvaluationUpdate carries the fields a rapporteur evaluation may change.
// Nil fields and an empty status are left untouched.
type EvaluationUpdate struct {
	Score          *int
	Comments       *models.EvaluationComments
	Status         models.EvaluationStatus
	EvaluationDate *time.Time
}

// SubmitEvaluation persists an evaluation update. When the update makes the
// evaluation terminal for the first time and every evaluation of the
// application is then terminal, the application moves to
// DefenseAuthorization in the same unit of work.
func (e *Engine) SubmitEvaluation(ctx context.Context, evaluationID uint, upd EvaluationUpdate) (*models.Evaluation, error) {
	if upd.Score != nil && (*upd.Score < 0 || *upd.Score > 100) {
		return nil, invalidf("score %d is outside 0-100", *upd.Score)
	}
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, invalidf("unknown evaluation status %q", upd.Status)
	}

	applicationID, err := e.evaluationApplication(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(applicationKey(applicationID))
	defer unlock()

	var ev *models.Evaluation
	err = e.store.WithTx(ctx, func(tx Tx) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		ev, err = tx.GetEvaluation(ctx, evaluationID)
		if err != nil {
			return err
		}
		if ev.ApplicationID != applicationID {
			return invalidf("evaluation %d does not belong to application %d", evaluationID, applicationID)
		}

		wasTerminal := ev.Status.Terminal()
		if upd.Score != nil {
			ev.Score = upd.Score
		}
		if upd.Comments != nil {
			ev.Comments = *upd.Comments
		}
		if upd.Status != "" {
			ev.Status = upd.Status
		}
		if upd.EvaluationDate != nil {
			ev.EvaluationDate = upd.EvaluationDate
		}
		if ev.Status.Terminal() && !wasTerminal && upd.EvaluationDate == nil {
			today := e.today()
			ev.EvaluationDate = &today
		}
		if err := tx.UpdateEvaluation(ctx, ev); err != nil {
			return err
		}

		if wasTerminal || !ev.Status.Terminal() {
			return nil
		}
		return e.authorizeIfEvaluated(ctx, tx, app)
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// evaluationApplication reads the owning application id so the caller can
// take the per-application lock before the real unit of work.
func (e *Engine) evaluationApplication(ctx context.Context, evaluationID uint) (uint, error) {
	var applicationID uint
	err := e.store.WithTx(ctx, func(tx Tx) error {
		ev, err := tx.GetEvaluation(ctx, evaluationID)
		if err != nil {
			return err
		}
		applicationID = ev.ApplicationID
		return nil
	})
	return applicationID, err
}

func (e *Engine) authorizeIfEvaluated(ctx context.Context, tx Tx, app *models.Application) error {
	evals, err := tx.ListEvaluationsByApplication(ctx, app.ID)
	if err != nil {
		return err
	}
	if len(evals) == 0 {
		return nil
	}
	for _, ev := range evals {
		if !ev.Status.Terminal() {
			return nil
		}
	}
	if !advance(app, models.StageDefenseAuthorization) {
		return nil
	}
	return tx.UpdateApplicationStage(ctx, app)
}

// ReportInput is a rapporteur's formal report
type ReportInput struct {
	Content        string
	Recommendation models.Recommendation
	Date           *time.Time
}

// SubmitReport records the report of a rapporteur for an application, marks
// the rapporteur's evaluations ReportSubmitted and moves the application to
// DefenseAuthorization once every assigned rapporteur has reported or every
// evaluation is terminal.
// A report from a rapporteur without an evaluation on the application is
// stored all the same.
func (e *Engine) SubmitReport(ctx context.Context, applicationID, rapporteurID uint, in ReportInput) (*models.Report, error) {
	if !in.Recommendation.Valid() {
		return nil, invalidf("unknown recommendation %q", in.Recommendation)
	}

	unlock := e.locks.lock(applicationKey(applicationID))
	defer unlock()

	var report *models.Report
	err := e.store.WithTx(ctx, func(tx Tx) error {
		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if _, err := tx.GetRapporteur(ctx, rapporteurID); err != nil {
			return err
		}

		date := in.Date
		if date == nil {
			today := e.today()
			date = &today
		}
		rid := rapporteurID
		report = &models.Report{
			ApplicationID:  applicationID,
			RapporteurID:   &rid,
			SubmissionDate: date,
			Content:        in.Content,
			Recommendation: in.Recommendation,
		}
		if err := tx.CreateReport(ctx, report); err != nil {
			return err
		}
		marked, err := tx.MarkEvaluationsReportSubmitted(ctx, applicationID, rapporteurID)
		if err != nil {
			return err
		}

		assigned, reported, err := tx.ReportCoverage(ctx, applicationID)
		if err != nil {
			return err
		}
		if assigned > 0 && reported == assigned {
			if !advance(app, models.StageDefenseAuthorization) {
				return nil
			}
			return tx.UpdateApplicationStage(ctx, app)
		}
		// ReportSubmitted is terminal: the marked evaluations may have been
		// the last open ones even though other rapporteurs have not reported.
		if marked == 0 {
			return nil
		}
		return e.authorizeIfEvaluated(ctx, tx, app)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (e *Engine) today() time.Time {
	y, m, d := e.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
