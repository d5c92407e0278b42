package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-tracker/internal/models"
)

func TestDeleteCandidate_RefusedWithDependents(t *testing.T) {
	f := newFixture(t)
	app, _ := f.assignTwoRapporteurs(t)

	_, err := f.engine.DeleteCandidate(f.ctx, f.candidate, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, f.store.candidates, f.candidate)
	assert.Contains(t, f.store.applications, app.ID)
}

func TestDeleteCandidate_RefusedWithDocumentsOnly(t *testing.T) {
	f := newFixture(t)
	cand := f.candidate
	f.store.addDocument(models.Document{CandidateID: &cand, Name: "cv.pdf", Path: "a/cv.pdf"})

	_, err := f.engine.DeleteCandidate(f.ctx, f.candidate, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, f.store.candidates, f.candidate)
	assert.Len(t, f.store.documents, 1)
}

func TestDeleteCandidate_WithoutDependents(t *testing.T) {
	f := newFixture(t)

	removed, err := f.engine.DeleteCandidate(f.ctx, f.candidate, false)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.NotContains(t, f.store.candidates, f.candidate)

	_, err = f.engine.DeleteCandidate(f.ctx, f.candidate, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCandidate_Cascade(t *testing.T) {
	f := newFixture(t)
	app, _ := f.assignTwoRapporteurs(t)
	_, err := f.engine.SubmitReport(f.ctx, app.ID, f.r1, ReportInput{Recommendation: models.RecommendationFavorable})
	require.NoError(t, err)
	_, err = f.engine.ScheduleDefense(f.ctx, DefenseInput{CandidateID: f.candidate, ApplicationID: &app.ID})
	require.NoError(t, err)

	appID := app.ID
	cand := f.candidate
	f.store.addDocument(models.Document{ApplicationID: &appID, Name: "cv.pdf", Path: "a/cv.pdf"})
	f.store.addDocument(models.Document{CandidateID: &cand, Name: "these.pdf", Path: "a/these.pdf"})
	other := f.store.addCandidate("Fatima Zahra", "Benali")
	f.store.addDocument(models.Document{CandidateID: &other, Name: "autre.pdf", Path: "b/autre.pdf"})

	removed, err := f.engine.DeleteCandidate(f.ctx, f.candidate, true)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	assert.Empty(t, f.store.applications)
	assert.Empty(t, f.store.evaluations)
	assert.Empty(t, f.store.reports)
	assert.Empty(t, f.store.defenses)
	assert.Len(t, f.store.documents, 1)
	assert.Contains(t, f.store.candidates, other)

	// rapporteurs are independent of candidates
	assert.Len(t, f.store.rapporteurs, 2)
}

func TestDeleteApplication_CascadesEvaluationsAndReports(t *testing.T) {
	f := newFixture(t)
	app, _ := f.assignTwoRapporteurs(t)
	_, err := f.engine.SubmitReport(f.ctx, app.ID, f.r2, ReportInput{Recommendation: models.RecommendationUnfavorable})
	require.NoError(t, err)
	d, err := f.engine.ScheduleDefense(f.ctx, DefenseInput{CandidateID: f.candidate, ApplicationID: &app.ID})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteApplication(f.ctx, app.ID))
	assert.Empty(t, f.store.evaluations)
	assert.Empty(t, f.store.reports)
	assert.Nil(t, f.store.defenses[d.ID].ApplicationID)

	assert.ErrorIs(t, f.engine.DeleteApplication(f.ctx, app.ID), ErrNotFound)
}

func TestDeleteDefense_FreesCandidate(t *testing.T) {
	f := newFixture(t)
	d, err := f.engine.ScheduleDefense(f.ctx, DefenseInput{CandidateID: f.candidate})
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteDefense(f.ctx, d.ID))
	_, err = f.engine.ScheduleDefense(f.ctx, DefenseInput{CandidateID: f.candidate})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.engine.DeleteDefense(f.ctx, d.ID), ErrNotFound)
}

func TestDeleteEvaluation_NoTransition(t *testing.T) {
	f := newFixture(t)
	app, evals := f.assignTwoRapporteurs(t)
	_, err := f.engine.SubmitEvaluation(f.ctx, evals[0].ID, completed())
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteEvaluation(f.ctx, evals[1].ID))
	assert.Equal(t, models.StageRapporteurEvaluation, f.store.application(app.ID).CurrentStage)
	assert.ErrorIs(t, f.engine.DeleteEvaluation(f.ctx, evals[1].ID), ErrNotFound)
}

func TestDeleteRapporteur_KeepsEvaluatorName(t *testing.T) {
	f := newFixture(t)
	app, _ := f.assignTwoRapporteurs(t)

	require.NoError(t, f.engine.DeleteRapporteur(f.ctx, f.r1))
	for _, ev := range f.store.evaluationsOf(app.ID) {
		if ev.EvaluatorID == nil {
			assert.Equal(t, "Pr. Rachid Alami", ev.EvaluatorName)
		}
	}
	assert.ErrorIs(t, f.engine.DeleteRapporteur(f.ctx, f.r1), ErrNotFound)
	assert.ErrorIs(t, f.engine.DeleteMeeting(f.ctx, 1), ErrNotFound)
	assert.ErrorIs(t, f.engine.DeleteCommissionMember(f.ctx, 1), ErrNotFound)
	assert.ErrorIs(t, f.engine.DeleteReport(f.ctx, 1), ErrNotFound)
}
