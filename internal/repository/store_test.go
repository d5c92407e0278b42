package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/testutil"
	"hu-tracker/internal/workflow"
)

func TestStore_Integration(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	fx := testutil.SetupFixtures(t, tc.DB)
	ctx := context.Background()

	store := repository.NewStore(tc.DB)
	engine := workflow.NewEngine(store)
	r1, r2 := fx.Rapporteurs[0].ID, fx.Rapporteurs[1].ID

	t.Run("full workflow", func(t *testing.T) {
		cand := testutil.CreateCandidate(t, tc.DB, "Fatima Zahra", "Benali")
		app, err := engine.CreateApplication(ctx, cand.ID, workflow.NewApplication{Notes: "dossier"})
		require.NoError(t, err)

		deadline := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
		res, err := engine.AssignRapporteurs(ctx, app.ID, []uint{r1, r2}, &deadline)
		require.NoError(t, err)
		require.Len(t, res.Evaluations, 2)

		evals, err := repository.NewEvaluationRepository(tc.DB).List(ctx, repository.EvaluationFilter{ApplicationID: app.ID})
		require.NoError(t, err)
		require.Len(t, evals, 2)
		assert.Equal(t, fx.Rapporteurs[0].Name, evalFor(evals, r1).EvaluatorName)
		assert.Equal(t, "2025-06-30", evalFor(evals, r1).EvaluationDate.Format("2006-01-02"))

		score := 85
		comments := models.EvaluationComments{Strengths: "Rigueur", GeneralComments: "Très bon dossier"}
		for _, ev := range evals {
			_, err := engine.SubmitEvaluation(ctx, ev.ID, workflow.EvaluationUpdate{
				Score:    &score,
				Comments: &comments,
				Status:   models.EvaluationCompleted,
			})
			require.NoError(t, err)
		}

		got, err := repository.NewApplicationRepository(tc.DB).GetByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageDefenseAuthorization, got.CurrentStage)
		assert.Equal(t, 70, got.Progress)
		assert.Equal(t, "Fatima Zahra", got.FirstName)

		stored, err := repository.NewEvaluationRepository(tc.DB).GetByID(ctx, evals[0].ID)
		require.NoError(t, err)
		assert.Equal(t, comments, stored.Comments)

		d, err := engine.ScheduleDefense(ctx, workflow.DefenseInput{CandidateID: cand.ID, ApplicationID: &app.ID, Location: "Amphi A"})
		require.NoError(t, err)

		_, err = engine.ScheduleDefense(ctx, workflow.DefenseInput{CandidateID: cand.ID})
		assert.ErrorIs(t, err, workflow.ErrDuplicateActiveDefense)

		_, err = engine.SetDefenseStatus(ctx, d.ID, models.DefenseCompleted)
		require.NoError(t, err)

		got, err = repository.NewApplicationRepository(tc.DB).GetByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageDiploma, got.CurrentStage)
		assert.Equal(t, 100, got.Progress)
		assert.Equal(t, models.ApplicationApproved, got.Status)
	})

	t.Run("partial unique index backs the active defense rule", func(t *testing.T) {
		cand := testutil.CreateCandidate(t, tc.DB, "Youssef", "Amrani")
		insert := func() error {
			return store.WithTx(ctx, func(tx workflow.Tx) error {
				return tx.CreateDefense(ctx, &models.Defense{CandidateID: cand.ID, Status: models.DefenseScheduled})
			})
		}
		require.NoError(t, insert())
		err := insert()
		assert.ErrorIs(t, err, workflow.ErrDuplicateActiveDefense)
		assert.ErrorIs(t, err, workflow.ErrDuplicate)
	})

	t.Run("duplicate candidate email", func(t *testing.T) {
		repo := repository.NewCandidateRepository(tc.DB)
		c := &models.Candidate{FirstName: "A", LastName: "B", Email: fx.Candidate.Email}
		assert.ErrorIs(t, repo.Create(ctx, c), workflow.ErrDuplicate)
	})

	t.Run("duplicate report pair", func(t *testing.T) {
		cand := testutil.CreateCandidate(t, tc.DB, "Salma", "Idrissi")
		app, err := engine.CreateApplication(ctx, cand.ID, workflow.NewApplication{})
		require.NoError(t, err)

		in := workflow.ReportInput{Recommendation: models.RecommendationFavorable}
		_, err = engine.SubmitReport(ctx, app.ID, r1, in)
		require.NoError(t, err)
		_, err = engine.SubmitReport(ctx, app.ID, r1, in)
		assert.ErrorIs(t, err, workflow.ErrDuplicate)
	})

	t.Run("row locks serialize engines without shared memory", func(t *testing.T) {
		cand := testutil.CreateCandidate(t, tc.DB, "Omar", "Fassi")
		app, err := engine.CreateApplication(ctx, cand.ID, workflow.NewApplication{})
		require.NoError(t, err)
		res, err := engine.AssignRapporteurs(ctx, app.ID, []uint{r1, r2}, nil)
		require.NoError(t, err)

		// two engines stand in for two processes
		engines := []*workflow.Engine{workflow.NewEngine(store), workflow.NewEngine(store)}
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, ev := range res.Evaluations {
			wg.Add(1)
			go func(i int, id uint) {
				defer wg.Done()
				_, errs[i] = engines[i].SubmitEvaluation(ctx, id, workflow.EvaluationUpdate{Status: models.EvaluationCompleted})
			}(i, ev.ID)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		got, err := repository.NewApplicationRepository(tc.DB).GetByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageDefenseAuthorization, got.CurrentStage)
	})

	t.Run("candidate delete refuses then cascades", func(t *testing.T) {
		cand := testutil.CreateCandidate(t, tc.DB, "Nadia", "Tazi")
		app, err := engine.CreateApplication(ctx, cand.ID, workflow.NewApplication{})
		require.NoError(t, err)
		_, err = engine.AssignRapporteurs(ctx, app.ID, []uint{r1, r2}, nil)
		require.NoError(t, err)
		appID := app.ID
		doc := &models.Document{ApplicationID: &appID, Name: "cv.pdf", Type: "PDF", Path: "uploads/cv.pdf"}
		require.NoError(t, repository.NewDocumentRepository(tc.DB).Create(ctx, doc))

		_, err = engine.DeleteCandidate(ctx, cand.ID, false)
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

		removed, err := engine.DeleteCandidate(ctx, cand.ID, true)
		require.NoError(t, err)
		require.Len(t, removed, 1)
		assert.Equal(t, "uploads/cv.pdf", removed[0].Path)

		_, err = repository.NewCandidateRepository(tc.DB).GetByID(ctx, cand.ID)
		assert.ErrorIs(t, err, workflow.ErrNotFound)
		evals, err := repository.NewEvaluationRepository(tc.DB).List(ctx, repository.EvaluationFilter{ApplicationID: app.ID})
		require.NoError(t, err)
		assert.Empty(t, evals)
	})

	t.Run("stats", func(t *testing.T) {
		s, err := repository.NewEvaluationRepository(tc.DB).Stats(ctx)
		require.NoError(t, err)
		assert.Positive(t, s.Total)
		require.NotNil(t, s.AverageScore)
		assert.InDelta(t, 85.0, *s.AverageScore, 0.001)

		workload, err := repository.NewRapporteurRepository(tc.DB).Workload(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, workload)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := engine.CreateApplication(ctx, 999999, workflow.NewApplication{})
		assert.ErrorIs(t, err, workflow.ErrNotFound)
		assert.ErrorIs(t, engine.DeleteMeeting(ctx, 999999), workflow.ErrNotFound)

		bad := uint(999999)
		err = repository.NewDocumentRepository(tc.DB).Create(ctx, &models.Document{ApplicationID: &bad, Name: "x", Path: "x"})
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})
}

func evalFor(evals []models.Evaluation, rapporteurID uint) models.Evaluation {
	for _, ev := range evals {
		if ev.EvaluatorID != nil && *ev.EvaluatorID == rapporteurID {
			return ev
		}
	}
	return models.Evaluation{}
}
