package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-tracker/internal/auth"
	"hu-tracker/internal/config"
	"hu-tracker/internal/docgen"
	"hu-tracker/internal/email"
	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
	"hu-tracker/internal/storage"
	"hu-tracker/internal/testutil"
	"hu-tracker/internal/workflow"
)

func TestAuthService(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	ctx := context.Background()

	authSvc := auth.NewService(&config.JWTConfig{Secret: "integration-secret", Expiration: time.Hour})
	svc := service.NewAuthService(repository.NewUserRepository(tc.DB), authSvc)

	user, err := svc.Register(ctx, "Salma", "Salma@FPO.ma", "longenough", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCommittee, user.Role)
	assert.Equal(t, "salma@fpo.ma", user.Email)

	_, err = svc.Register(ctx, "Salma", "salma@fpo.ma", "longenough", "")
	assert.ErrorIs(t, err, workflow.ErrDuplicate)
	_, err = svc.Register(ctx, "X", "x@fpo.ma", "short", "")
	assert.ErrorIs(t, err, service.ErrWeakPassword)
	_, err = svc.Register(ctx, "X", "x@fpo.ma", "longenough", "Candidat")
	assert.ErrorIs(t, err, service.ErrInvalidRole)

	session, err := svc.Login(ctx, "SALMA@fpo.ma", "longenough")
	require.NoError(t, err)
	claims, err := authSvc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleCommittee, claims.Role)

	_, err = svc.Login(ctx, "salma@fpo.ma", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@fpo.ma", "longenough")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	ctx := context.Background()
	users := repository.NewUserRepository(tc.DB)
	svc := service.NewAuthService(users, auth.NewService(&config.JWTConfig{Secret: "s", Expiration: time.Hour}))

	// no password configured: nothing is created
	require.NoError(t, svc.EnsureAdmin(ctx, config.AdminConfig{Email: "admin@fpo.ma", Name: "Admin"}))
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	cfg := config.AdminConfig{Email: "admin@fpo.ma", Password: "admin-password", Name: "Admin"}
	require.NoError(t, svc.EnsureAdmin(ctx, cfg))
	require.NoError(t, svc.EnsureAdmin(ctx, cfg))

	n, err = users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	admin, err := users.GetByEmail(ctx, "admin@fpo.ma")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestGenerationService(t *testing.T) {
	tc := testutil.SetupTestContainers(t)
	fx := testutil.SetupFixtures(t, tc.DB)
	ctx := context.Background()

	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	documentRepo := repository.NewDocumentRepository(tc.DB)
	docs := service.NewDocumentService(documentRepo, blobs, 10<<20)
	renderer := docgen.NewRenderer(docgen.Institution{
		Country: "ROYAUME DU MAROC", University: "Université Ibn Zohr",
		Faculty: "Faculté Polydisciplinaire d'Ouarzazate", City: "Ouarzazate",
	})
	gen := service.NewGenerationService(tc.DB, renderer, docs, email.NewService(&config.EmailConfig{}))

	engine := workflow.NewEngine(repository.NewStore(tc.DB))
	app, err := engine.CreateApplication(ctx, fx.Candidate.ID, workflow.NewApplication{})
	require.NoError(t, err)
	_, err = engine.AssignRapporteurs(ctx, app.ID, []uint{fx.Rapporteurs[0].ID, fx.Rapporteurs[1].ID}, nil)
	require.NoError(t, err)
	_, err = engine.SubmitReport(ctx, app.ID, fx.Rapporteurs[0].ID, workflow.ReportInput{
		Content: "Travail de qualité", Recommendation: models.RecommendationFavorable,
	})
	require.NoError(t, err)
	date := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	_, err = engine.ScheduleDefense(ctx, workflow.DefenseInput{
		CandidateID: fx.Candidate.ID, ApplicationID: &app.ID, Date: &date, Time: "10:00", Location: "Amphi A",
	})
	require.NoError(t, err)

	t.Run("authorization", func(t *testing.T) {
		g, err := gen.Authorization(ctx, fx.Candidate.ID, docgen.AuthorizationInscription)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryAuthorization, g.Document.Category)
		assert.Equal(t, "PDF", g.Document.Type)
		assert.Equal(t, fx.Candidate.ID, *g.Document.CandidateID)
		require.NotNil(t, g.Document.ApplicationID)
		assert.Equal(t, app.ID, *g.Document.ApplicationID)
		assert.Regexp(t, `^autorisation_inscription_\d+_\d+\.pdf$`, g.Filename)

		_, err = gen.Authorization(ctx, fx.Candidate.ID, "bourse")
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
		_, err = gen.Authorization(ctx, 999999, docgen.AuthorizationDefense)
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})

	t.Run("convocation uses the active defense", func(t *testing.T) {
		g, err := gen.Convocation(ctx, fx.Candidate.ID, service.ConvocationRequest{})
		require.NoError(t, err)
		assert.Equal(t, models.CategoryConvocation, g.Document.Category)
		require.NotNil(t, g.Document.ApplicationID)
		assert.Equal(t, app.ID, *g.Document.ApplicationID)
	})

	t.Run("invitation without email", func(t *testing.T) {
		g, err := gen.Invitation(ctx, fx.Rapporteurs[0].ID, service.InvitationRequest{CandidateID: fx.Candidate.ID, Notify: true})
		require.NoError(t, err)
		assert.False(t, g.Emailed)
		assert.Equal(t, models.CategoryInvitation, g.Document.Category)
	})

	t.Run("minutes", func(t *testing.T) {
		meeting := &models.Meeting{Date: &date, Time: "09:00", Type: "Commission scientifique", Status: models.MeetingPlanned}
		require.NoError(t, repository.NewMeetingRepository(tc.DB).Create(ctx, meeting))
		g, err := gen.Minutes(ctx, meeting.ID, []docgen.Decision{{Candidate: fx.Candidate.FullName(), Decision: "Favorable"}})
		require.NoError(t, err)
		assert.Equal(t, models.CategoryPV, g.Document.Category)
		assert.Nil(t, g.Document.CandidateID)
	})

	t.Run("evaluation report and summary", func(t *testing.T) {
		g, err := gen.EvaluationReport(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryReport, g.Document.Category)
		assert.Equal(t, app.ID, *g.Document.ApplicationID)

		g, err = gen.Summary(ctx, fx.Candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryOther, g.Document.Category)
	})

	t.Run("diploma", func(t *testing.T) {
		g, err := gen.Diploma(ctx, fx.Candidate.ID, service.DiplomaRequest{})
		require.NoError(t, err)
		assert.Equal(t, models.CategoryDiploma, g.Document.Category)
	})

	listed, err := documentRepo.List(ctx, repository.DocumentFilter{CandidateID: fx.Candidate.ID})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(listed), 5)

	for _, d := range listed {
		doc, rc, err := docs.Open(ctx, d.ID)
		require.NoError(t, err)
		buf := make([]byte, 5)
		_, err = rc.Read(buf)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, "%PDF-", string(buf), doc.Name)
	}
}
