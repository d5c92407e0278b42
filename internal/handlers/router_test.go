package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hu-tracker/internal/config"
	"hu-tracker/internal/docgen"
	"hu-tracker/internal/email"
	"hu-tracker/internal/handlers"
	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
	"hu-tracker/internal/storage"
	"hu-tracker/internal/testutil"
	"hu-tracker/internal/workflow"
)

type pingDB struct{ db *sql.DB }

func (p pingDB) HealthCheck(ctx context.Context) error { return p.db.PingContext(ctx) }

type apiFixture struct {
	t        *testing.T
	mux      *http.ServeMux
	auth     *testutil.AuthHelper
	fixtures *testutil.Fixtures
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()

	tc := testutil.SetupTestContainers(t)
	fixtures := testutil.SetupFixtures(t, tc.DB)
	helper := testutil.NewAuthHelper()

	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	docs := service.NewDocumentService(repository.NewDocumentRepository(tc.DB), blobs, 10<<20)
	renderer := docgen.NewRenderer(docgen.Institution{
		Country:    "ROYAUME DU MAROC",
		University: "Université Ibn Zohr",
		Faculty:    "Faculté Polydisciplinaire d'Ouarzazate",
		City:       "Ouarzazate",
	})

	mux := handlers.NewRouter(handlers.Deps{
		DB:         tc.DB,
		Health:     pingDB{tc.DB},
		Version:    "test",
		Engine:     workflow.NewEngine(repository.NewStore(tc.DB)),
		JWT:        helper.Service,
		Auth:       service.NewAuthService(repository.NewUserRepository(tc.DB), helper.Service),
		Audit:      service.NewAuditService(repository.NewAuditRepository(tc.DB)),
		Documents:  docs,
		Generation: service.NewGenerationService(tc.DB, renderer, docs, email.NewService(&config.EmailConfig{})),
	})

	return &apiFixture{t: t, mux: mux, auth: helper, fixtures: fixtures}
}

// do sends body as JSON on behalf of user; a nil user sends no token
func (a *apiFixture) do(user *models.User, method, path string, body any) *testutil.TestResponse {
	a.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}

	var req *http.Request
	if user == nil {
		req = testutil.NewJSONRequest(method, "/api/v1"+path, r)
	} else {
		req = a.auth.CreateAuthenticatedRequest(a.t, method, "/api/v1"+path, r, user)
	}

	resp := testutil.NewTestResponse()
	a.mux.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *testutil.TestResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "body: %s", resp.Body.String())
	return v
}

func TestRouter_Authentication(t *testing.T) {
	api := setupAPI(t)

	api.do(nil, http.MethodGet, "/candidates", nil).AssertStatus(t, http.StatusUnauthorized)

	resp := api.do(nil, http.MethodPost, "/auth/login", map[string]string{
		"email":    api.fixtures.CommitteeUser.Email,
		"password": testutil.FixturePassword,
	})
	resp.AssertStatus(t, http.StatusOK)
	session := decode[service.Session](t, resp)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, models.RoleCommittee, session.User.Role)

	api.do(nil, http.MethodPost, "/auth/login", map[string]string{
		"email":    api.fixtures.CommitteeUser.Email,
		"password": "not-the-password",
	}).AssertStatus(t, http.StatusUnauthorized)

	api.do(api.fixtures.CommitteeUser, http.MethodGet, "/auth/me", nil).AssertStatus(t, http.StatusOK)

	register := map[string]string{"name": "Nouveau", "email": "nouveau@test.fpo.ma", "password": "longenough"}
	api.do(api.fixtures.CommitteeUser, http.MethodPost, "/auth/register", register).AssertStatus(t, http.StatusForbidden)
	api.do(api.fixtures.AdminUser, http.MethodPost, "/auth/register", register).AssertStatus(t, http.StatusCreated)

	api.do(api.fixtures.CommitteeUser, http.MethodGet, "/audit-logs", nil).AssertStatus(t, http.StatusForbidden)
	resp = api.do(api.fixtures.AdminUser, http.MethodGet, "/audit-logs?action="+service.ActionLoginFailed, nil)
	resp.AssertStatus(t, http.StatusOK)
	assert.Contains(t, resp.Body.String(), service.ActionLoginFailed)
}

func TestRouter_CandidacyLifecycle(t *testing.T) {
	api := setupAPI(t)
	user := api.fixtures.CommitteeUser
	r1, r2 := api.fixtures.Rapporteurs[0].ID, api.fixtures.Rapporteurs[1].ID

	resp := api.do(user, http.MethodPost, "/candidates", map[string]string{
		"first_name":   "Khadija",
		"last_name":    "Ouazzani",
		"email":        "k.ouazzani@test.fpo.ma",
		"department":   "Physique",
		"thesis_title": "Matériaux photovoltaïques",
	})
	resp.AssertStatus(t, http.StatusCreated)
	candidate := decode[models.Candidate](t, resp)

	resp = api.do(user, http.MethodPost, "/applications", map[string]any{
		"candidate_id":    candidate.ID,
		"submission_date": "2025-01-15",
	})
	resp.AssertStatus(t, http.StatusCreated)
	app := decode[models.Application](t, resp)
	assert.Equal(t, models.StageDocumentVerification, app.CurrentStage)
	assert.Equal(t, models.ApplicationPending, app.Status)

	appPath := fmt.Sprintf("/applications/%d", app.ID)
	stage := func() models.Application {
		t.Helper()
		resp := api.do(user, http.MethodGet, appPath, nil)
		resp.AssertStatus(t, http.StatusOK)
		return decode[models.Application](t, resp)
	}

	api.do(user, http.MethodPost, appPath+"/documents-complete", nil).AssertStatus(t, http.StatusOK)
	assert.Equal(t, models.StageCommitteeReview, stage().CurrentStage)

	resp = api.do(user, http.MethodPost, "/evaluations/batch-assign", map[string]any{
		"application_id": app.ID,
		"evaluator_ids":  []uint{r1, r2},
		"deadline":       "2025-04-30",
	})
	resp.AssertStatus(t, http.StatusCreated)
	assignment := decode[workflow.AssignmentResult](t, resp)
	assert.Len(t, assignment.Evaluations, 2)
	assert.Equal(t, models.StageRapporteurEvaluation, stage().CurrentStage)

	for _, rid := range []uint{r1, r2} {
		api.do(user, http.MethodPost, "/reports", map[string]any{
			"application_id": app.ID,
			"rapporteur_id":  rid,
			"content":        "Travaux de qualité",
			"recommendation": models.RecommendationFavorable,
		}).AssertStatus(t, http.StatusCreated)
	}
	got := stage()
	assert.Equal(t, models.StageDefenseAuthorization, got.CurrentStage)
	assert.Equal(t, models.ApplicationInProgress, got.Status)

	defenseDate := time.Now().AddDate(0, 1, 0).Format(time.DateOnly)
	resp = api.do(user, http.MethodPost, "/defenses", map[string]any{
		"candidate_id":   candidate.ID,
		"application_id": app.ID,
		"date":           defenseDate,
		"time":           "10:00",
		"location":       "Amphi A",
	})
	resp.AssertStatus(t, http.StatusCreated)
	defense := decode[models.Defense](t, resp)
	assert.Equal(t, models.StageDefense, stage().CurrentStage)

	api.do(user, http.MethodPost, "/defenses", map[string]any{
		"candidate_id": candidate.ID,
		"date":         defenseDate,
	}).AssertStatus(t, http.StatusConflict)

	resp = api.do(user, http.MethodGet, "/defenses/status/upcoming", nil)
	resp.AssertStatus(t, http.StatusOK)
	assert.Contains(t, resp.Body.String(), "Amphi A")

	// the convocation takes its details from the scheduled defense
	resp = api.do(user, http.MethodPost, fmt.Sprintf("/generate/convocation/%d", candidate.ID), nil)
	resp.AssertStatus(t, http.StatusCreated)
	gen := decode[handlers.GenerationResponse](t, resp)
	require.NotNil(t, gen.Document)
	assert.True(t, gen.Success)
	assert.Equal(t, fmt.Sprintf("/api/v1/documents/download/%d", gen.Document.ID), gen.DownloadURL)

	resp = api.do(user, http.MethodGet, fmt.Sprintf("/documents/download/%d", gen.Document.ID), nil)
	resp.AssertStatus(t, http.StatusOK)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))

	api.do(user, http.MethodPatch, fmt.Sprintf("/defenses/%d/status", defense.ID), map[string]string{
		"status": string(models.DefenseCompleted),
	}).AssertStatus(t, http.StatusOK)
	got = stage()
	assert.Equal(t, models.StageDiploma, got.CurrentStage)
	assert.Equal(t, models.ApplicationApproved, got.Status)
	assert.Equal(t, 100, got.Progress)

	resp = api.do(user, http.MethodPost, fmt.Sprintf("/generate/diploma/%d", candidate.ID), map[string]string{
		"grade": "Très honorable",
	})
	resp.AssertStatus(t, http.StatusCreated)

	resp = api.do(user, http.MethodGet, fmt.Sprintf("/documents/candidate/%d", candidate.ID), nil)
	resp.AssertStatus(t, http.StatusOK)
	assert.Len(t, decode[[]models.Document](t, resp), 2)
}

func TestRouter_PartialAssignment(t *testing.T) {
	api := setupAPI(t)
	user := api.fixtures.CommitteeUser

	resp := api.do(user, http.MethodPost, "/applications", map[string]any{"candidate_id": api.fixtures.Candidate.ID})
	resp.AssertStatus(t, http.StatusCreated)
	app := decode[models.Application](t, resp)
	api.do(user, http.MethodPost, fmt.Sprintf("/applications/%d/documents-complete", app.ID), nil).
		AssertStatus(t, http.StatusOK)

	resp = api.do(user, http.MethodPost, "/evaluations/batch-assign", map[string]any{
		"application_id": app.ID,
		"evaluator_ids":  []uint{api.fixtures.Rapporteurs[0].ID, api.fixtures.Rapporteurs[1].ID, 999999},
	})
	resp.AssertStatus(t, http.StatusMultiStatus)
	result := decode[workflow.AssignmentResult](t, resp)
	assert.Len(t, result.Evaluations, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, uint(999999), result.Failures[0].RapporteurID)

	// a single rapporteur is below the minimum
	api.do(user, http.MethodPost, "/evaluations/batch-assign", map[string]any{
		"application_id": app.ID,
		"evaluator_ids":  []uint{api.fixtures.Rapporteurs[0].ID},
	}).AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestRouter_Validation(t *testing.T) {
	api := setupAPI(t)
	user := api.fixtures.CommitteeUser

	api.do(user, http.MethodGet, "/candidates/abc", nil).AssertStatus(t, http.StatusBadRequest)
	api.do(user, http.MethodGet, "/candidates/999999", nil).AssertStatus(t, http.StatusNotFound)
	api.do(user, http.MethodPost, "/rapporteurs", map[string]string{"institution": "UIZ"}).
		AssertStatus(t, http.StatusBadRequest)
	api.do(user, http.MethodPost, "/meetings", map[string]string{"type": "ordinaire"}).
		AssertStatus(t, http.StatusBadRequest)

	resp := api.do(user, http.MethodPost, "/applications", map[string]any{"candidate_id": api.fixtures.Candidate.ID})
	resp.AssertStatus(t, http.StatusCreated)
	app := decode[models.Application](t, resp)

	api.do(user, http.MethodPatch, fmt.Sprintf("/applications/%d/status", app.ID), map[string]any{
		"status":        "approved",
		"current_stage": "graduation",
	}).AssertStatus(t, http.StatusUnprocessableEntity)
}
