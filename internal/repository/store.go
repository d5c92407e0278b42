package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"hu-tracker/internal/models"
	"hu-tracker/internal/workflow"
)

// Store implements workflow.Store on PostgreSQL. Every unit of work runs in
// one READ COMMITTED transaction; aggregate rows are taken FOR UPDATE.
type Store struct {
	db *sql.DB
}

// NewStore creates a workflow store backed by db
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn in a transaction, committing when it returns nil
func (s *Store) WithTx(ctx context.Context, fn func(tx workflow.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return workflow.Unavailable("begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(newTxStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// txStore binds the repositories to one transaction
type txStore struct {
	candidates   *CandidateRepository
	applications *ApplicationRepository
	rapporteurs  *RapporteurRepository
	evaluations  *EvaluationRepository
	reports      *ReportRepository
	defenses     *DefenseRepository
	documents    *DocumentRepository
	meetings     *MeetingRepository
	members      *CommissionMemberRepository
}

func newTxStore(tx DBTX) *txStore {
	return &txStore{
		candidates:   NewCandidateRepository(tx),
		applications: NewApplicationRepository(tx),
		rapporteurs:  NewRapporteurRepository(tx),
		evaluations:  NewEvaluationRepository(tx),
		reports:      NewReportRepository(tx),
		defenses:     NewDefenseRepository(tx),
		documents:    NewDocumentRepository(tx),
		meetings:     NewMeetingRepository(tx),
		members:      NewCommissionMemberRepository(tx),
	}
}

var _ workflow.Tx = (*txStore)(nil)

func (t *txStore) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	return t.candidates.GetByID(ctx, id)
}

func (t *txStore) LockCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	return t.candidates.lock(ctx, id)
}

func (t *txStore) CandidateDependents(ctx context.Context, candidateID uint) (workflow.Dependents, error) {
	return t.candidates.dependents(ctx, candidateID)
}

func (t *txStore) DeleteCandidate(ctx context.Context, id uint) error {
	return t.candidates.delete(ctx, id)
}

func (t *txStore) CreateApplication(ctx context.Context, app *models.Application) error {
	return t.applications.create(ctx, app)
}

func (t *txStore) LockApplication(ctx context.Context, id uint) (*models.Application, error) {
	return t.applications.lock(ctx, id)
}

func (t *txStore) UpdateApplicationStage(ctx context.Context, app *models.Application) error {
	return t.applications.updateStage(ctx, app)
}

func (t *txStore) DeleteApplication(ctx context.Context, id uint) error {
	return t.applications.delete(ctx, id)
}

func (t *txStore) DeleteApplicationsByCandidate(ctx context.Context, candidateID uint) error {
	return t.applications.deleteByCandidate(ctx, candidateID)
}

func (t *txStore) GetRapporteur(ctx context.Context, id uint) (*models.Rapporteur, error) {
	return t.rapporteurs.GetByID(ctx, id)
}

func (t *txStore) IncrementRapporteurEvaluations(ctx context.Context, id uint) error {
	return t.rapporteurs.incrementEvaluations(ctx, id)
}

func (t *txStore) DeleteRapporteur(ctx context.Context, id uint) error {
	return t.rapporteurs.delete(ctx, id)
}

func (t *txStore) CreateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	return t.evaluations.create(ctx, ev)
}

func (t *txStore) GetEvaluation(ctx context.Context, id uint) (*models.Evaluation, error) {
	return t.evaluations.GetByID(ctx, id)
}

func (t *txStore) UpdateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	return t.evaluations.update(ctx, ev)
}

func (t *txStore) ListEvaluationsByApplication(ctx context.Context, applicationID uint) ([]models.Evaluation, error) {
	return t.evaluations.List(ctx, EvaluationFilter{ApplicationID: applicationID})
}

func (t *txStore) MarkEvaluationsReportSubmitted(ctx context.Context, applicationID, evaluatorID uint) (int64, error) {
	return t.evaluations.markReportSubmitted(ctx, applicationID, evaluatorID)
}

func (t *txStore) DeleteEvaluation(ctx context.Context, id uint) error {
	return t.evaluations.delete(ctx, id)
}

func (t *txStore) CreateReport(ctx context.Context, report *models.Report) error {
	return t.reports.create(ctx, report)
}

func (t *txStore) ReportCoverage(ctx context.Context, applicationID uint) (int, int, error) {
	return t.reports.coverage(ctx, applicationID)
}

func (t *txStore) DeleteReport(ctx context.Context, id uint) error {
	return t.reports.delete(ctx, id)
}

func (t *txStore) ActiveDefense(ctx context.Context, candidateID, excludeID uint) (*models.Defense, error) {
	return t.defenses.active(ctx, candidateID, excludeID)
}

func (t *txStore) CreateDefense(ctx context.Context, d *models.Defense) error {
	return t.defenses.create(ctx, d)
}

func (t *txStore) GetDefense(ctx context.Context, id uint) (*models.Defense, error) {
	return t.defenses.get(ctx, id, "")
}

func (t *txStore) LockDefense(ctx context.Context, id uint) (*models.Defense, error) {
	return t.defenses.get(ctx, id, " FOR UPDATE")
}

func (t *txStore) UpdateDefense(ctx context.Context, d *models.Defense) error {
	return t.defenses.update(ctx, d)
}

func (t *txStore) DeleteDefense(ctx context.Context, id uint) error {
	return t.defenses.delete(ctx, id)
}

func (t *txStore) DeleteDefensesByCandidate(ctx context.Context, candidateID uint) error {
	return t.defenses.deleteByCandidate(ctx, candidateID)
}

func (t *txStore) ListCandidateDocuments(ctx context.Context, candidateID uint) ([]models.Document, error) {
	return t.documents.listForCandidate(ctx, candidateID)
}

func (t *txStore) DeleteCandidateDocuments(ctx context.Context, candidateID uint) error {
	return t.documents.deleteForCandidate(ctx, candidateID)
}

func (t *txStore) DeleteMeeting(ctx context.Context, id uint) error {
	return t.meetings.delete(ctx, id)
}

func (t *txStore) DeleteCommissionMember(ctx context.Context, id uint) error {
	return t.members.delete(ctx, id)
}
