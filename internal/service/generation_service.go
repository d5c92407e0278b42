package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hu-tracker/internal/docgen"
	"hu-tracker/internal/email"
	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
)

// GenerationService renders documents from the current entity state, stores
// them and records a Document row for each.
type GenerationService struct {
	candidates   *repository.CandidateRepository
	applications *repository.ApplicationRepository
	rapporteurs  *repository.RapporteurRepository
	evaluations  *repository.EvaluationRepository
	reports      *repository.ReportRepository
	defenses     *repository.DefenseRepository
	meetings     *repository.MeetingRepository
	members      *repository.CommissionMemberRepository
	documentRepo *repository.DocumentRepository

	renderer *docgen.Renderer
	docs     *DocumentService
	mailer   *email.Service
}

// NewGenerationService creates a new generation service
func NewGenerationService(db repository.DBTX, renderer *docgen.Renderer, docs *DocumentService, mailer *email.Service) *GenerationService {
	return &GenerationService{
		candidates:   repository.NewCandidateRepository(db),
		applications: repository.NewApplicationRepository(db),
		rapporteurs:  repository.NewRapporteurRepository(db),
		evaluations:  repository.NewEvaluationRepository(db),
		reports:      repository.NewReportRepository(db),
		defenses:     repository.NewDefenseRepository(db),
		meetings:     repository.NewMeetingRepository(db),
		members:      repository.NewCommissionMemberRepository(db),
		documentRepo: repository.NewDocumentRepository(db),
		renderer:     renderer,
		docs:         docs,
		mailer:       mailer,
	}
}

// Generated is the outcome of a generation request
type Generated struct {
	Document *models.Document `json:"document"`
	Filename string           `json:"filename"`
	Emailed  bool             `json:"emailed,omitempty"`
}

func (s *GenerationService) record(ctx context.Context, a *docgen.Artifact, applicationID, candidateID *uint) (*Generated, error) {
	doc := &models.Document{
		ApplicationID: applicationID,
		CandidateID:   candidateID,
		Name:          a.Title,
		Type:          FileType(a.Filename),
		Category:      a.Template.Category(),
	}
	if err := s.docs.Store(ctx, doc, a.Filename, a.Data, a.ContentType); err != nil {
		return nil, err
	}
	return &Generated{Document: doc, Filename: a.Filename}, nil
}

// Authorization generates an inscription or defense authorization
func (s *GenerationService) Authorization(ctx context.Context, candidateID uint, kind docgen.AuthorizationKind) (*Generated, error) {
	if _, ok := kind.Template(); !ok {
		return nil, fmt.Errorf("%w: unknown authorization type %q", ErrInvalidRequest, kind)
	}
	c, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	a, err := s.renderer.Authorization(kind, *c)
	if err != nil {
		return nil, err
	}
	appID, err := s.latestApplicationID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, appID, &c.ID)
}

// latestApplicationID links candidate documents to the newest application, if any
func (s *GenerationService) latestApplicationID(ctx context.Context, candidateID uint) (*uint, error) {
	app, err := s.applications.LatestForCandidate(ctx, candidateID)
	if err != nil || app == nil {
		return nil, err
	}
	return &app.ID, nil
}

// InvitationRequest holds the defense details printed on an invitation
type InvitationRequest struct {
	CandidateID uint
	DefenseDate *time.Time
	DefenseTime string
	Location    string
	Notify      bool
}

// Invitation generates a rapporteur invitation letter. With Notify set and
// email enabled the letter is also mailed to the rapporteur; a mail failure
// is logged and does not undo the generation.
func (s *GenerationService) Invitation(ctx context.Context, rapporteurID uint, req InvitationRequest) (*Generated, error) {
	r, err := s.rapporteurs.GetByID(ctx, rapporteurID)
	if err != nil {
		return nil, err
	}
	c, err := s.candidates.GetByID(ctx, req.CandidateID)
	if err != nil {
		return nil, err
	}
	if req.DefenseDate == nil {
		if d, err := s.activeDefense(ctx, c.ID); err != nil {
			return nil, err
		} else if d != nil {
			req.DefenseDate, req.DefenseTime = d.Date, firstNonEmpty(req.DefenseTime, d.Time)
			req.Location = firstNonEmpty(req.Location, d.Location)
		}
	}

	a, err := s.renderer.Invitation(docgen.InvitationData{
		Rapporteur:  *r,
		Candidate:   *c,
		DefenseDate: req.DefenseDate,
		DefenseTime: req.DefenseTime,
		Location:    req.Location,
	})
	if err != nil {
		return nil, err
	}
	gen, err := s.record(ctx, a, nil, &c.ID)
	if err != nil {
		return nil, err
	}

	if req.Notify && s.mailer.Enabled() && r.Email != "" {
		err := s.mailer.SendRapporteurInvitation(r.Email, email.Invitation{
			RapporteurName: r.Name,
			CandidateName:  c.FullName(),
			ThesisTitle:    c.ThesisTitle,
			DefenseDate:    formatDate(req.DefenseDate, "À déterminer"),
			DefenseTime:    firstNonEmpty(req.DefenseTime, "À déterminer"),
			Location:       firstNonEmpty(req.Location, docgen.DefaultLocation),
		}, &email.Attachment{Filename: a.Filename, ContentType: a.ContentType, Data: a.Data})
		if err != nil {
			slog.Warn("Failed to email invitation", "rapporteur_id", r.ID, "error", err)
		} else {
			gen.Emailed = true
		}
	}
	return gen, nil
}

// Minutes generates the procès-verbal of a meeting with every commission member listed
func (s *GenerationService) Minutes(ctx context.Context, meetingID uint, decisions []docgen.Decision) (*Generated, error) {
	m, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.renderer.Minutes(docgen.MinutesData{Meeting: *m, Members: members, Decisions: decisions})
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, nil, nil)
}

// ConvocationRequest overrides the defense details of a convocation
type ConvocationRequest struct {
	Date     *time.Time
	Time     string
	Location string
}

// Convocation generates the candidate's convocation. Missing details come
// from the candidate's active defense when there is one.
func (s *GenerationService) Convocation(ctx context.Context, candidateID uint, req ConvocationRequest) (*Generated, error) {
	c, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	d, err := s.activeDefense(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	data := docgen.ConvocationData{Candidate: *c, Date: req.Date, Time: req.Time, Location: req.Location}
	if d != nil {
		if data.Date == nil {
			data.Date = d.Date
		}
		data.Time = firstNonEmpty(data.Time, d.Time)
		data.Location = firstNonEmpty(data.Location, d.Location)
	}

	a, err := s.renderer.Convocation(data)
	if err != nil {
		return nil, err
	}
	var applicationID *uint
	if d != nil {
		applicationID = d.ApplicationID
	}
	return s.record(ctx, a, applicationID, &c.ID)
}

// DiplomaRequest holds the diploma details
type DiplomaRequest struct {
	DefenseDate *time.Time
	Grade       string
}

// Diploma generates the diploma. Without a date the date of the candidate's
// completed defense is used.
func (s *GenerationService) Diploma(ctx context.Context, candidateID uint, req DiplomaRequest) (*Generated, error) {
	c, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	var applicationID *uint
	completed, err := s.defenses.List(ctx, repository.DefenseFilter{CandidateID: c.ID, Status: models.DefenseCompleted})
	if err != nil {
		return nil, err
	}
	if len(completed) > 0 {
		applicationID = completed[0].ApplicationID
		if req.DefenseDate == nil {
			req.DefenseDate = completed[0].Date
		}
	}

	a, err := s.renderer.Diploma(docgen.DiplomaData{Candidate: *c, DefenseDate: req.DefenseDate, Grade: req.Grade})
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, applicationID, &c.ID)
}

// Summary generates the complete file of a candidate
func (s *GenerationService) Summary(ctx context.Context, candidateID uint) (*Generated, error) {
	c, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.List(ctx, repository.ApplicationFilter{CandidateID: c.ID})
	if err != nil {
		return nil, err
	}
	docs, err := s.documentRepo.List(ctx, repository.DocumentFilter{CandidateID: c.ID})
	if err != nil {
		return nil, err
	}

	data := docgen.SummaryData{Candidate: *c, Documents: docs}
	for _, a := range apps {
		data.Applications = append(data.Applications, a.Application)
	}
	a, err := s.renderer.Summary(data)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, nil, &c.ID)
}

// EvaluationReport generates the report of an application's rapporteur reports and scores
func (s *GenerationService) EvaluationReport(ctx context.Context, applicationID uint) (*Generated, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.List(ctx, repository.ReportFilter{ApplicationID: app.ID})
	if err != nil {
		return nil, err
	}
	evals, err := s.evaluations.List(ctx, repository.EvaluationFilter{ApplicationID: app.ID})
	if err != nil {
		return nil, err
	}

	a, err := s.renderer.EvaluationReport(docgen.EvaluationReportData{
		Application: *app,
		Reports:     reports,
		Evaluations: evals,
	})
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, &app.ID, &app.CandidateID)
}

// activeDefense returns the candidate's non-cancelled defense, if any
func (s *GenerationService) activeDefense(ctx context.Context, candidateID uint) (*models.Defense, error) {
	defenses, err := s.defenses.List(ctx, repository.DefenseFilter{CandidateID: candidateID})
	if err != nil {
		return nil, err
	}
	for _, d := range defenses {
		if d.Status.Active() {
			return &d.Defense, nil
		}
	}
	return nil, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatDate(t *time.Time, def string) string {
	if t == nil {
		return def
	}
	return t.Format("02/01/2006")
}
