package handlers

import (
	"database/sql"
	"net/http"

	"hu-tracker/internal/auth"
	"hu-tracker/internal/middleware"
	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
	"hu-tracker/internal/service"
	"hu-tracker/internal/workflow"
)

// Deps are the collaborators wired into the API routes
type Deps struct {
	DB         *sql.DB
	Health     Pinger
	Version    string
	Engine     *workflow.Engine
	JWT        *auth.Service
	Auth       *service.AuthService
	Audit      *service.AuditService
	Documents  *service.DocumentService
	Generation *service.GenerationService
}

// NewRouter registers every API route on a new mux. Everything below
// /api/v1 except login requires a bearer token.
func NewRouter(d Deps) *http.ServeMux {
	candidates := NewCandidateHandler(repository.NewCandidateRepository(d.DB), d.Engine, d.Documents)
	applications := NewApplicationHandler(repository.NewApplicationRepository(d.DB), d.Engine)
	evaluations := NewEvaluationHandler(repository.NewEvaluationRepository(d.DB), d.Engine)
	reports := NewReportHandler(repository.NewReportRepository(d.DB), d.Engine, d.Generation)
	defenses := NewDefenseHandler(repository.NewDefenseRepository(d.DB), d.Engine)
	meetings := NewMeetingHandler(repository.NewMeetingRepository(d.DB), d.Engine)
	rapporteurs := NewRapporteurHandler(repository.NewRapporteurRepository(d.DB), d.Engine)
	commission := NewCommissionHandler(repository.NewCommissionMemberRepository(d.DB), d.Engine)
	documents := NewDocumentHandler(repository.NewDocumentRepository(d.DB), d.Documents)
	generation := NewGenerationHandler(d.Generation)
	authHandler := NewAuthHandler(d.Auth, d.Audit)
	auditHandler := NewAuditHandler(d.Audit)
	health := NewHealthHandler(d.Health, d.Version)

	authMw := middleware.NewAuthMiddleware(d.JWT)
	auditMw := middleware.NewAuditMiddleware(d.Audit)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	mux := http.NewServeMux()

	// protected wraps h with authentication plus any extra middleware
	protected := func(pattern string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
		mws = append([]func(http.Handler) http.Handler{authMw.Authenticate}, mws...)
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}
	route := func(method, path string) string {
		return method + " " + apiPrefix + path
	}
	deleted := func(resource string) func(http.Handler) http.Handler {
		return auditMw.Log(service.ActionDeleteRecord, resource)
	}
	generated := auditMw.Log(service.ActionDocumentGenerate, "documents")

	// Public routes
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc(route("POST", "/auth/login"), authHandler.Login)

	// Auth
	protected(route("POST", "/auth/register"), authHandler.Register, adminOnly)
	protected(route("GET", "/auth/me"), authHandler.Me)

	// Candidates
	protected(route("GET", "/candidates"), candidates.List)
	protected(route("POST", "/candidates"), candidates.Create)
	protected(route("GET", "/candidates/stats/overview"), candidates.Stats)
	protected(route("GET", "/candidates/{id}"), candidates.Get)
	protected(route("PUT", "/candidates/{id}"), candidates.Update)
	protected(route("DELETE", "/candidates/{id}"), candidates.Delete,
		auditMw.Log(service.ActionDeleteCandidate, "candidates"))

	// Applications
	protected(route("GET", "/applications"), applications.List)
	protected(route("POST", "/applications"), applications.Create)
	protected(route("GET", "/applications/stats/overview"), applications.Stats)
	protected(route("GET", "/applications/{id}"), applications.Get)
	protected(route("DELETE", "/applications/{id}"), applications.Delete, deleted("applications"))
	protected(route("PATCH", "/applications/{id}/status"), applications.UpdateStatus,
		auditMw.Log(service.ActionStageOverride, "applications"))
	protected(route("POST", "/applications/{id}/documents-complete"), applications.DocumentsComplete)

	// Evaluations
	protected(route("GET", "/evaluations"), evaluations.List)
	protected(route("POST", "/evaluations/batch-assign"), evaluations.BatchAssign)
	protected(route("GET", "/evaluations/stats/overview"), evaluations.Stats)
	protected(route("GET", "/evaluations/application/{applicationId}"), evaluations.ByApplication)
	protected(route("GET", "/evaluations/evaluator/{evaluatorId}"), evaluations.ByEvaluator)
	protected(route("GET", "/evaluations/{id}"), evaluations.Get)
	protected(route("PUT", "/evaluations/{id}"), evaluations.Update)
	protected(route("DELETE", "/evaluations/{id}"), evaluations.Delete, deleted("evaluations"))

	// Reports
	protected(route("GET", "/reports"), reports.List)
	protected(route("POST", "/reports"), reports.Create)
	protected(route("GET", "/reports/stats/overview"), reports.Stats)
	protected(route("GET", "/reports/application/{applicationId}"), reports.ByApplication)
	protected(route("GET", "/reports/rapporteur/{rapporteurId}"), reports.ByRapporteur)
	protected(route("POST", "/reports/generate/{applicationId}"), reports.Generate, generated)
	protected(route("GET", "/reports/{id}"), reports.Get)
	protected(route("PUT", "/reports/{id}"), reports.Update)
	protected(route("DELETE", "/reports/{id}"), reports.Delete, deleted("reports"))

	// Defenses
	protected(route("GET", "/defenses"), defenses.List)
	protected(route("POST", "/defenses"), defenses.Create)
	protected(route("GET", "/defenses/status/upcoming"), defenses.Upcoming)
	protected(route("GET", "/defenses/candidate/{candidateId}"), defenses.ByCandidate)
	protected(route("GET", "/defenses/{id}"), defenses.Get)
	protected(route("PUT", "/defenses/{id}"), defenses.Update)
	protected(route("PATCH", "/defenses/{id}/status"), defenses.UpdateStatus)
	protected(route("DELETE", "/defenses/{id}"), defenses.Delete, deleted("defenses"))

	// Meetings
	protected(route("GET", "/meetings"), meetings.List)
	protected(route("POST", "/meetings"), meetings.Create)
	protected(route("GET", "/meetings/status/upcoming"), meetings.Upcoming)
	protected(route("GET", "/meetings/{id}"), meetings.Get)
	protected(route("PUT", "/meetings/{id}"), meetings.Update)
	protected(route("DELETE", "/meetings/{id}"), meetings.Delete, deleted("meetings"))

	// Rapporteurs
	protected(route("GET", "/rapporteurs"), rapporteurs.List)
	protected(route("POST", "/rapporteurs"), rapporteurs.Create)
	protected(route("GET", "/rapporteurs/stats/overview"), rapporteurs.Workload)
	protected(route("GET", "/rapporteurs/{id}"), rapporteurs.Get)
	protected(route("PUT", "/rapporteurs/{id}"), rapporteurs.Update)
	protected(route("DELETE", "/rapporteurs/{id}"), rapporteurs.Delete, deleted("rapporteurs"))

	// Commission members
	protected(route("GET", "/commission-members"), commission.List)
	protected(route("POST", "/commission-members"), commission.Create)
	protected(route("GET", "/commission-members/{id}"), commission.Get)
	protected(route("PUT", "/commission-members/{id}"), commission.Update)
	protected(route("DELETE", "/commission-members/{id}"), commission.Delete, deleted("commission_members"))

	// Documents
	protected(route("GET", "/documents"), documents.List)
	protected(route("POST", "/documents/upload"), documents.Upload,
		auditMw.Log(service.ActionDocumentUpload, "documents"))
	protected(route("GET", "/documents/application/{applicationId}"), documents.ByApplication)
	protected(route("GET", "/documents/candidate/{candidateId}"), documents.ByCandidate)
	protected(route("GET", "/documents/{id}"), documents.Get)
	protected(route("GET", "/documents/download/{id}"), documents.Download)
	protected(route("DELETE", "/documents/{id}"), documents.Delete, deleted("documents"))

	// Generation
	protected(route("POST", "/generate/authorization/{candidateId}"), generation.Authorization, generated)
	protected(route("POST", "/generate/invitation/{rapporteurId}"), generation.Invitation, generated)
	protected(route("POST", "/generate/pv/{meetingId}"), generation.Minutes, generated)
	protected(route("POST", "/generate/convocation/{candidateId}"), generation.Convocation, generated)
	protected(route("POST", "/generate/diploma/{candidateId}"), generation.Diploma, generated)
	protected(route("POST", "/generate/summary/{candidateId}"), generation.Summary, generated)

	// Admin
	protected(route("GET", "/audit-logs"), auditHandler.ListAuditLogs, adminOnly)

	return mux
}
