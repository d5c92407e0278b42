package workflow

import (
	"context"

	"hu-tracker/internal/models"
)

// Store runs units of work against the entity store. fn's writes are
// committed together when it returns nil and discarded otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Dependents counts the rows that reference a candidate
type Dependents struct {
	Applications int
	Defenses     int
	Documents    int
}

// Any reports whether anything references the candidate
func (d Dependents) Any() bool {
	return d.Applications > 0 || d.Defenses > 0 || d.Documents > 0
}

// Tx is the set of entity operations the engine performs inside a unit of work.
//
// Get* methods return an error matching ErrNotFound when the row is absent.
// Lock* methods do the same and additionally hold the row until the unit of
// work ends. Delete* methods return ErrNotFound when nothing was deleted.
// Unique violations match ErrDuplicate and store failures ErrStoreUnavailable.
type Tx interface {
	GetCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	LockCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	CandidateDependents(ctx context.Context, candidateID uint) (Dependents, error)
	DeleteCandidate(ctx context.Context, id uint) error

	CreateApplication(ctx context.Context, app *models.Application) error
	LockApplication(ctx context.Context, id uint) (*models.Application, error)
	UpdateApplicationStage(ctx context.Context, app *models.Application) error
	DeleteApplication(ctx context.Context, id uint) error
	DeleteApplicationsByCandidate(ctx context.Context, candidateID uint) error

	GetRapporteur(ctx context.Context, id uint) (*models.Rapporteur, error)
	IncrementRapporteurEvaluations(ctx context.Context, id uint) error
	DeleteRapporteur(ctx context.Context, id uint) error

	CreateEvaluation(ctx context.Context, ev *models.Evaluation) error
	GetEvaluation(ctx context.Context, id uint) (*models.Evaluation, error)
	UpdateEvaluation(ctx context.Context, ev *models.Evaluation) error
	ListEvaluationsByApplication(ctx context.Context, applicationID uint) ([]models.Evaluation, error)
	// MarkEvaluationsReportSubmitted returns the number of evaluations updated
	MarkEvaluationsReportSubmitted(ctx context.Context, applicationID, evaluatorID uint) (int64, error)
	DeleteEvaluation(ctx context.Context, id uint) error

	CreateReport(ctx context.Context, report *models.Report) error
	// ReportCoverage returns the number of distinct assigned evaluators of the
	// application and how many of them have submitted a report for it.
	ReportCoverage(ctx context.Context, applicationID uint) (assigned, reported int, err error)
	DeleteReport(ctx context.Context, id uint) error

	// ActiveDefense returns the candidate's non-cancelled defense other than
	// excludeID, or nil when there is none.
	ActiveDefense(ctx context.Context, candidateID, excludeID uint) (*models.Defense, error)
	CreateDefense(ctx context.Context, d *models.Defense) error
	GetDefense(ctx context.Context, id uint) (*models.Defense, error)
	LockDefense(ctx context.Context, id uint) (*models.Defense, error)
	UpdateDefense(ctx context.Context, d *models.Defense) error
	DeleteDefense(ctx context.Context, id uint) error
	DeleteDefensesByCandidate(ctx context.Context, candidateID uint) error

	// ListCandidateDocuments returns documents of the candidate and of its applications
	ListCandidateDocuments(ctx context.Context, candidateID uint) ([]models.Document, error)
	DeleteCandidateDocuments(ctx context.Context, candidateID uint) error

	DeleteMeeting(ctx context.Context, id uint) error
	DeleteCommissionMember(ctx context.Context, id uint) error
}
