package workflow

import (
	"context"
	"time"

	"hu-tracker/internal/models"
)

// DefaultMinRapporteurs is the number of distinct rapporteurs an assignment
// must name unless configured otherwise.
const DefaultMinRapporteurs = 2

// Engine owns every application stage transition and the side effects that
// come with it. It is safe for concurrent use: work is serialized per
// application and per candidate, never globally.
type Engine struct {
	store          Store
	locks          *keyedLocks
	minRapporteurs int
	now            func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithMinRapporteurs sets how many distinct rapporteurs an assignment needs
func WithMinRapporteurs(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minRapporteurs = n
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a workflow engine on top of store
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		locks:          newKeyedLocks(),
		minRapporteurs: DefaultMinRapporteurs,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinRapporteurs returns the configured assignment minimum
func (e *Engine) MinRapporteurs() int {
	return e.minRapporteurs
}

// NewApplication holds the optional fields of a new application
type NewApplication struct {
	SubmissionDate *time.Time
	Notes          string
}

// CreateApplication opens a new application for an existing candidate at
// DocumentVerification with progress 0.
func (e *Engine) CreateApplication(ctx context.Context, candidateID uint, in NewApplication) (*models.Application, error) {
	var app *models.Application
	err := e.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetCandidate(ctx, candidateID); err != nil {
			return err
		}
		app = &models.Application{
			CandidateID:    candidateID,
			SubmissionDate: in.SubmissionDate,
			Status:         models.ApplicationPending,
			CurrentStage:   models.StageDocumentVerification,
			Progress:       Progress(models.StageDocumentVerification),
			Notes:          in.Notes,
		}
		return tx.CreateApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// MarkDocumentsComplete records that the committee accepted the application's
// documents and moves it to CommitteeReview. Calling it again is a no-op;
// calling it once the application is past CommitteeReview is rejected.
func (e *Engine) MarkDocumentsComplete(ctx context.Context, applicationID uint) (*models.Application, error) {
	unlock := e.locks.lock(applicationKey(applicationID))
	defer unlock()

	var app *models.Application
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		app, err = tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if stageIndex(app.CurrentStage) > stageIndex(models.StageCommitteeReview) {
			return invalidf("application %d is already at stage %s", applicationID, app.CurrentStage)
		}
		if !advance(app, models.StageCommitteeReview) {
			return nil
		}
		return tx.UpdateApplicationStage(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// SetApplicationStage is the administrative override: it writes status, stage
// and progress as given without applying any transition rule. A nil progress
// takes the stage's canonical value.
func (e *Engine) SetApplicationStage(ctx context.Context, applicationID uint, status models.ApplicationStatus, stage models.Stage, progress *int) (*models.Application, error) {
	if !status.Valid() {
		return nil, invalidf("unknown application status %q", status)
	}
	if !stage.Valid() {
		return nil, invalidf("unknown stage %q", stage)
	}
	p := Progress(stage)
	if progress != nil {
		if *progress < 0 || *progress > 100 {
			return nil, invalidf("progress %d is outside 0-100", *progress)
		}
		p = *progress
	}

	unlock := e.locks.lock(applicationKey(applicationID))
	defer unlock()

	var app *models.Application
	err := e.store.WithTx(ctx, func(tx Tx) error {
		var err error
		app, err = tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		app.Status = status
		app.CurrentStage = stage
		app.Progress = p
		return tx.UpdateApplicationStage(ctx, app)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// AssignmentResult is the outcome of a rapporteur batch assignment
type AssignmentResult struct {
	Application *models.Application `json:"application"`
	Evaluations []models.Evaluation `json:"evaluations"`
	Succeeded   int                 `json:"success"`
	Failed      int                 `json:"errors"`
	Failures    []AssignmentFailure `json:"failures"`
}

// AssignRapporteurs creates one InProgress evaluation per rapporteur and moves
// the application to RapporteurEvaluation when at least one was created.
//
// Fewer than the configured minimum of distinct ids is rejected up front.
// Unknown rapporteurs and rapporteurs already assigned to the application are
// reported per item; when any item failed the result comes back together
// with a *BatchError.
func (e *Engine) AssignRapporteurs(ctx context.Context, applicationID uint, evaluatorIDs []uint, deadline *time.Time) (*AssignmentResult, error) {
	ids := distinct(evaluatorIDs)
	if len(ids) == 0 {
		return nil, invalidf("at least one rapporteur is required")
	}
	if len(ids) < e.minRapporteurs {
		return nil, invalidf("at least %d distinct rapporteurs are required, got %d", e.minRapporteurs, len(ids))
	}

	unlock := e.locks.lock(applicationKey(applicationID))
	defer unlock()

	var result *AssignmentResult
	err := e.store.WithTx(ctx, func(tx Tx) error {
		result = &AssignmentResult{}

		app, err := tx.LockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		existing, err := tx.ListEvaluationsByApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		assigned := make(map[uint]bool, len(existing))
		for _, ev := range existing {
			if ev.EvaluatorID != nil {
				assigned[*ev.EvaluatorID] = true
			}
		}

		for _, id := range ids {
			if assigned[id] {
				result.fail(id, "already assigned to this application")
				continue
			}
			rapporteur, err := tx.GetRapporteur(ctx, id)
			if isNotFound(err) {
				result.fail(id, "rapporteur not found")
				continue
			}
			if err != nil {
				return err
			}

			rapporteurID := rapporteur.ID
			ev := models.Evaluation{
				ApplicationID:  applicationID,
				EvaluatorID:    &rapporteurID,
				EvaluatorName:  rapporteur.Name,
				EvaluationDate: deadline,
				Status:         models.EvaluationInProgress,
			}
			if err := tx.CreateEvaluation(ctx, &ev); err != nil {
				return err
			}
			if err := tx.IncrementRapporteurEvaluations(ctx, rapporteurID); err != nil {
				return err
			}
			result.Evaluations = append(result.Evaluations, ev)
			result.Succeeded++
		}

		if result.Succeeded > 0 && advance(app, models.StageRapporteurEvaluation) {
			if err := tx.UpdateApplicationStage(ctx, app); err != nil {
				return err
			}
		}
		result.Application = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Failed > 0 {
		return result, &BatchError{
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Failures:  result.Failures,
		}
	}
	return result, nil
}

func (r *AssignmentResult) fail(id uint, reason string) {
	r.Failed++
	r.Failures = append(r.Failures, AssignmentFailure{RapporteurID: id, Reason: reason})
}

func distinct(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
