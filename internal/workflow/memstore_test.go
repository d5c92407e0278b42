package workflow

import (
	"context"
	"fmt"
	"sync"

	"hu-tracker/internal/models"
)

// memStore is an in-memory Store. It does not roll back: tests that need
// atomicity rely on the Postgres integration tests instead.
type memStore struct {
	mu     sync.Mutex
	nextID uint

	candidates   map[uint]models.Candidate
	applications map[uint]models.Application
	rapporteurs  map[uint]models.Rapporteur
	evaluations  map[uint]models.Evaluation
	reports      map[uint]models.Report
	defenses     map[uint]models.Defense
	documents    map[uint]models.Document
	meetings     map[uint]bool
	members      map[uint]bool

	// stageWrites records every UpdateApplicationStage call
	stageWrites []models.Stage
	// failStageUpdate makes UpdateApplicationStage fail when set
	failStageUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		candidates:   make(map[uint]models.Candidate),
		applications: make(map[uint]models.Application),
		rapporteurs:  make(map[uint]models.Rapporteur),
		evaluations:  make(map[uint]models.Evaluation),
		reports:      make(map[uint]models.Report),
		defenses:     make(map[uint]models.Defense),
		documents:    make(map[uint]models.Document),
		meetings:     make(map[uint]bool),
		members:      make(map[uint]bool),
	}
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return fn(memTx{s})
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addCandidate(first, last string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.candidates[id] = models.Candidate{ID: id, FirstName: first, LastName: last, Email: fmt.Sprintf("c%d@example.ma", id)}
	return id
}

func (s *memStore) addRapporteur(name string) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.rapporteurs[id] = models.Rapporteur{ID: id, Name: name}
	return id
}

func (s *memStore) addDocument(doc models.Document) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.ID = s.id()
	s.documents[doc.ID] = doc
	return doc.ID
}

func (s *memStore) application(id uint) models.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applications[id]
}

func (s *memStore) evaluationsOf(applicationID uint) []models.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Evaluation
	for _, ev := range s.evaluations {
		if ev.ApplicationID == applicationID {
			out = append(out, ev)
		}
	}
	return out
}

func (s *memStore) stageWriteCount(stage models.Stage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.stageWrites {
		if st == stage {
			n++
		}
	}
	return n
}

type memTx struct{ s *memStore }

func (t memTx) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.candidates[id]
	if !ok {
		return nil, NotFound("candidate", id)
	}
	return &c, nil
}

func (t memTx) LockCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	return t.GetCandidate(ctx, id)
}

func (t memTx) CandidateDependents(ctx context.Context, candidateID uint) (Dependents, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var d Dependents
	for _, a := range t.s.applications {
		if a.CandidateID == candidateID {
			d.Applications++
		}
	}
	for _, def := range t.s.defenses {
		if def.CandidateID == candidateID {
			d.Defenses++
		}
	}
	for _, doc := range t.s.documents {
		if doc.CandidateID != nil && *doc.CandidateID == candidateID {
			d.Documents++
		}
	}
	return d, nil
}

func (t memTx) DeleteCandidate(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.candidates[id]; !ok {
		return NotFound("candidate", id)
	}
	delete(t.s.candidates, id)
	return nil
}

func (t memTx) CreateApplication(ctx context.Context, app *models.Application) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	app.ID = t.s.id()
	t.s.applications[app.ID] = *app
	return nil
}

func (t memTx) LockApplication(ctx context.Context, id uint) (*models.Application, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	a, ok := t.s.applications[id]
	if !ok {
		return nil, NotFound("application", id)
	}
	return &a, nil
}

func (t memTx) UpdateApplicationStage(ctx context.Context, app *models.Application) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.failStageUpdate != nil {
		return t.s.failStageUpdate
	}
	if _, ok := t.s.applications[app.ID]; !ok {
		return NotFound("application", app.ID)
	}
	t.s.applications[app.ID] = *app
	t.s.stageWrites = append(t.s.stageWrites, app.CurrentStage)
	return nil
}

func (t memTx) DeleteApplication(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.applications[id]; !ok {
		return NotFound("application", id)
	}
	t.s.deleteApplicationLocked(id)
	return nil
}

func (s *memStore) deleteApplicationLocked(id uint) {
	delete(s.applications, id)
	for eid, ev := range s.evaluations {
		if ev.ApplicationID == id {
			delete(s.evaluations, eid)
		}
	}
	for rid, r := range s.reports {
		if r.ApplicationID == id {
			delete(s.reports, rid)
		}
	}
	for did, d := range s.defenses {
		if d.ApplicationID != nil && *d.ApplicationID == id {
			d.ApplicationID = nil
			s.defenses[did] = d
		}
	}
}

func (t memTx) DeleteApplicationsByCandidate(ctx context.Context, candidateID uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, a := range t.s.applications {
		if a.CandidateID == candidateID {
			t.s.deleteApplicationLocked(id)
		}
	}
	return nil
}

func (t memTx) GetRapporteur(ctx context.Context, id uint) (*models.Rapporteur, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.rapporteurs[id]
	if !ok {
		return nil, NotFound("rapporteur", id)
	}
	return &r, nil
}

func (t memTx) IncrementRapporteurEvaluations(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r, ok := t.s.rapporteurs[id]
	if !ok {
		return NotFound("rapporteur", id)
	}
	r.EvaluationsCount++
	t.s.rapporteurs[id] = r
	return nil
}

func (t memTx) DeleteRapporteur(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.rapporteurs[id]; !ok {
		return NotFound("rapporteur", id)
	}
	delete(t.s.rapporteurs, id)
	for eid, ev := range t.s.evaluations {
		if ev.EvaluatorID != nil && *ev.EvaluatorID == id {
			ev.EvaluatorID = nil
			t.s.evaluations[eid] = ev
		}
	}
	return nil
}

func (t memTx) CreateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ev.ID = t.s.id()
	t.s.evaluations[ev.ID] = *ev
	return nil
}

func (t memTx) GetEvaluation(ctx context.Context, id uint) (*models.Evaluation, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ev, ok := t.s.evaluations[id]
	if !ok {
		return nil, NotFound("evaluation", id)
	}
	return &ev, nil
}

func (t memTx) UpdateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.evaluations[ev.ID]; !ok {
		return NotFound("evaluation", ev.ID)
	}
	t.s.evaluations[ev.ID] = *ev
	return nil
}

func (t memTx) ListEvaluationsByApplication(ctx context.Context, applicationID uint) ([]models.Evaluation, error) {
	return t.s.evaluationsOf(applicationID), nil
}

func (t memTx) MarkEvaluationsReportSubmitted(ctx context.Context, applicationID, evaluatorID uint) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for id, ev := range t.s.evaluations {
		if ev.ApplicationID == applicationID && ev.EvaluatorID != nil && *ev.EvaluatorID == evaluatorID {
			ev.Status = models.EvaluationReportSubmitted
			t.s.evaluations[id] = ev
			n++
		}
	}
	return n, nil
}

func (t memTx) DeleteEvaluation(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.evaluations[id]; !ok {
		return NotFound("evaluation", id)
	}
	delete(t.s.evaluations, id)
	return nil
}

func (t memTx) CreateReport(ctx context.Context, report *models.Report) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, r := range t.s.reports {
		if r.ApplicationID == report.ApplicationID && r.RapporteurID != nil && report.RapporteurID != nil &&
			*r.RapporteurID == *report.RapporteurID {
			return fmt.Errorf("report for rapporteur %d: %w", *report.RapporteurID, ErrDuplicate)
		}
	}
	report.ID = t.s.id()
	t.s.reports[report.ID] = *report
	return nil
}

func (t memTx) ReportCoverage(ctx context.Context, applicationID uint) (int, int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	assigned := make(map[uint]bool)
	for _, ev := range t.s.evaluations {
		if ev.ApplicationID == applicationID && ev.EvaluatorID != nil {
			assigned[*ev.EvaluatorID] = true
		}
	}
	reported := 0
	for id := range assigned {
		for _, r := range t.s.reports {
			if r.ApplicationID == applicationID && r.RapporteurID != nil && *r.RapporteurID == id {
				reported++
				break
			}
		}
	}
	return len(assigned), reported, nil
}

func (t memTx) DeleteReport(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.reports[id]; !ok {
		return NotFound("report", id)
	}
	delete(t.s.reports, id)
	return nil
}

func (t memTx) ActiveDefense(ctx context.Context, candidateID, excludeID uint) (*models.Defense, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, d := range t.s.defenses {
		if d.CandidateID == candidateID && d.ID != excludeID && d.Status.Active() {
			return &d, nil
		}
	}
	return nil, nil
}

func (t memTx) CreateDefense(ctx context.Context, d *models.Defense) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	d.ID = t.s.id()
	t.s.defenses[d.ID] = *d
	return nil
}

func (t memTx) GetDefense(ctx context.Context, id uint) (*models.Defense, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	d, ok := t.s.defenses[id]
	if !ok {
		return nil, NotFound("defense", id)
	}
	return &d, nil
}

func (t memTx) LockDefense(ctx context.Context, id uint) (*models.Defense, error) {
	return t.GetDefense(ctx, id)
}

func (t memTx) UpdateDefense(ctx context.Context, d *models.Defense) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.defenses[d.ID]; !ok {
		return NotFound("defense", d.ID)
	}
	t.s.defenses[d.ID] = *d
	return nil
}

func (t memTx) DeleteDefense(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.defenses[id]; !ok {
		return NotFound("defense", id)
	}
	delete(t.s.defenses, id)
	return nil
}

func (t memTx) DeleteDefensesByCandidate(ctx context.Context, candidateID uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, d := range t.s.defenses {
		if d.CandidateID == candidateID {
			delete(t.s.defenses, id)
		}
	}
	return nil
}

func (t memTx) ListCandidateDocuments(ctx context.Context, candidateID uint) ([]models.Document, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []models.Document
	for _, doc := range t.s.documents {
		if t.s.ownsDocumentLocked(candidateID, doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (t memTx) DeleteCandidateDocuments(ctx context.Context, candidateID uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, doc := range t.s.documents {
		if t.s.ownsDocumentLocked(candidateID, doc) {
			delete(t.s.documents, id)
		}
	}
	return nil
}

func (s *memStore) ownsDocumentLocked(candidateID uint, doc models.Document) bool {
	if doc.CandidateID != nil && *doc.CandidateID == candidateID {
		return true
	}
	if doc.ApplicationID != nil {
		if a, ok := s.applications[*doc.ApplicationID]; ok && a.CandidateID == candidateID {
			return true
		}
	}
	return false
}

func (t memTx) DeleteMeeting(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if !t.s.meetings[id] {
		return NotFound("meeting", id)
	}
	delete(t.s.meetings, id)
	return nil
}

func (t memTx) DeleteCommissionMember(ctx context.Context, id uint) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if !t.s.members[id] {
		return NotFound("commission member", id)
	}
	delete(t.s.members, id)
	return nil
}
